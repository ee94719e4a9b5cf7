package entity

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Trace captures which layers of a stack carry a node and what they hold.
type Trace struct {
	Path   string       `json:"path"`
	Layers []Provenance `json:"layers"`
}

// Provenance details how a single scope contributes to a traced node.
type Provenance struct {
	Scope      Scope  `json:"scope"`
	SnapshotID string `json:"snapshot_id,omitempty"`
	Path       string `json:"path"`
	Type       string `json:"type,omitempty"`
	Value      any    `json:"value,omitempty"`
	Found      bool   `json:"found"`
}

// Trace reports, strongest layer first, whether each layer's snapshot
// carries the node reached from base by the key segments of path. Value is
// populated for value nodes.
func (s *Stack) Trace(base Entity, path ...string) Trace {
	joined := strings.Join(escapeAll(path), ".")
	trace := Trace{Path: joined}
	if s == nil {
		return trace
	}
	for _, layer := range s.layers {
		provenance := Provenance{
			Scope:      layer.Scope.clone(),
			SnapshotID: layer.SnapshotID,
			Path:       joined,
		}
		if snapshot, target, ok := locate(base, layer.Snapshot, path); ok {
			provenance.Found = true
			provenance.Type = snapshot.Type
			if _, isValue := target.(*Value); isValue {
				var desc ValueDescriptor
				if err := decodeDescriptor(snapshot.Descriptor, &desc); err == nil {
					provenance.Value = desc.Descriptor
				}
			}
		}
		trace.Layers = append(trace.Layers, provenance)
	}
	return trace
}

// locate walks snapshot alongside the live tree rooted at e.
func locate(e Entity, snapshot Snapshot, path []string) (Snapshot, Entity, bool) {
	current := e
	for _, key := range path {
		next, ok := snapshotChild(current, snapshot, key)
		if !ok {
			return Snapshot{}, nil, false
		}
		child, ok := childByKey(current, key)
		if !ok {
			return Snapshot{}, nil, false
		}
		snapshot, current = next, child
	}
	return snapshot, current, true
}

func snapshotChild(parent Entity, snapshot Snapshot, key string) (Snapshot, bool) {
	switch VariantOf(parent) {
	case VariantStaticObject, VariantDynamicObject, VariantChoiceValue:
		var desc ObjectDescriptor
		if err := decodeDescriptor(snapshot.Descriptor, &desc); err != nil {
			return Snapshot{}, false
		}
		child, ok := desc[key]
		return child, ok
	case VariantFixedArray, VariantDynamicArray:
		var desc ArrayDescriptor
		if err := decodeDescriptor(snapshot.Descriptor, &desc); err != nil {
			return Snapshot{}, false
		}
		index, err := strconv.Atoi(key)
		if err != nil || index < 0 || index >= len(desc.Elements) {
			return Snapshot{}, false
		}
		return desc.Elements[index], true
	case VariantChoice:
		var desc ChoiceDescriptor
		if err := decodeDescriptor(snapshot.Descriptor, &desc); err != nil {
			return Snapshot{}, false
		}
		child, ok := desc.Options[key]
		return child, ok
	default:
		return Snapshot{}, false
	}
}

func escapeAll(segments []string) []string {
	out := make([]string, len(segments))
	for i, segment := range segments {
		out[i] = EscapeSegment(segment)
	}
	return out
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload produced by ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
