package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Snapshot is the persisted and transported form of an entity.
type Snapshot struct {
	Type        string          `json:"type"`
	Descriptor  json.RawMessage `json:"descriptor,omitempty"`
	Name        string          `json:"name,omitempty"`
	Description string          `json:"description,omitempty"`
	HelpText    string          `json:"helpText,omitempty"`
	Hidden      bool            `json:"hidden,omitempty"`
}

// ValueDescriptor is the descriptor of a Value. A nil Descriptor means unset.
type ValueDescriptor struct {
	Descriptor any `json:"descriptor,omitempty"`
}

// ArrayDescriptor is the descriptor shared by fixed and dynamic arrays.
type ArrayDescriptor struct {
	ElementType string     `json:"elementType"`
	Elements    []Snapshot `json:"elements"`
}

// ObjectDescriptor is the descriptor of static and dynamic objects.
type ObjectDescriptor map[string]Snapshot

// ChoiceDescriptor is the descriptor of a Choice.
type ChoiceDescriptor struct {
	SelectedOption string              `json:"selectedOption"`
	Options        map[string]Snapshot `json:"options"`
}

// ParseSnapshot decodes a JSON snapshot.
func ParseSnapshot(payload []byte) (Snapshot, error) {
	var snapshot Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("entity: parse snapshot: %w", err)
	}
	if snapshot.Type == "" {
		return Snapshot{}, fmt.Errorf("entity: parse snapshot: missing type")
	}
	return snapshot, nil
}

// MarshalIndent renders s as indented JSON.
func (s Snapshot) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Equal reports whether two snapshots encode the same JSON document.
func (s Snapshot) Equal(other Snapshot) bool {
	left, err := canonicalJSON(s)
	if err != nil {
		return false
	}
	right, err := canonicalJSON(other)
	if err != nil {
		return false
	}
	return bytes.Equal(left, right)
}

func canonicalJSON(s Snapshot) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}

func decodeDescriptor(raw json.RawMessage, target any) error {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("entity: decode descriptor: %w", err)
	}
	return nil
}
