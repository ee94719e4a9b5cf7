package entity

import (
	"errors"
	"strings"
	"testing"
)

func cooldownSnapshot(descriptor string) Snapshot {
	return Snapshot{Type: "Cooldown", Descriptor: []byte(descriptor)}
}

func TestStackAppliesWeakestFirst(t *testing.T) {
	defaults := newTestCooldown(DefaultRegistry())
	persisted := cooldownSnapshot(`{
		"user": {"type": "NaturalNumber", "descriptor": {"descriptor": 5}},
		"global": {"type": "NaturalNumber", "descriptor": {"descriptor": 30}},
		"legacy": {"type": "String", "descriptor": {"descriptor": "dropped"}}
	}`)
	edited := cooldownSnapshot(`{"user": {"type": "NaturalNumber", "descriptor": {"descriptor": 10}}}`)

	merged, err := PersistedThenEditor(defaults, persisted, edited)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	conf := merged.ToConf().(map[string]any)
	if conf["user"] != 10 || conf["global"] != 30 {
		t.Fatalf("unexpected merged conf %#v", conf)
	}
	if got := defaults.ToConf().(map[string]any); got["user"] != 0 || got["global"] != 0 {
		t.Fatalf("defaults must stay untouched, got %#v", got)
	}
}

func TestStackStrictLayerRejectsUnknownKeys(t *testing.T) {
	defaults := newTestCooldown(DefaultRegistry())
	edited := cooldownSnapshot(`{"legacy": {"type": "String", "descriptor": {"descriptor": "x"}}}`)

	_, err := PersistedThenEditor(defaults, cooldownSnapshot(`{}`), edited)
	expectErrorIs(t, err, ErrUnknownKey)
	if !strings.Contains(err.Error(), `scope "editor"`) {
		t.Fatalf("expected scope in error, got %v", err)
	}
}

func TestStackValidatesResult(t *testing.T) {
	defaults := newTestCooldown(DefaultRegistry())
	defaults.AddCheck(MustRule("global == 0 || user <= global"))
	edited := cooldownSnapshot(`{
		"user": {"type": "NaturalNumber", "descriptor": {"descriptor": 60}},
		"global": {"type": "NaturalNumber", "descriptor": {"descriptor": 30}}
	}`)

	_, err := PersistedThenEditor(defaults, cooldownSnapshot(`{}`), edited)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	expectErrorIs(t, err, ErrRuleFailed)
}

func TestNewStackRejectsInvalidLayers(t *testing.T) {
	empty := cooldownSnapshot(`{}`)
	_, err := NewStack(NewLayer(NewScope("", 1), empty))
	expectErrorIs(t, err, ErrScopeNameRequired)

	_, err = NewStack(
		NewLayer(NewScope("a", 1), empty),
		NewLayer(NewScope("a", 2), empty),
	)
	expectErrorIs(t, err, ErrDuplicateScopeName)

	_, err = NewStack(
		NewLayer(NewScope("a", 1), empty),
		NewLayer(NewScope("b", 1), empty),
	)
	expectErrorIs(t, err, ErrPriorityOrder)
}

func TestStackLayersAreOrderedAndCopied(t *testing.T) {
	metadata := map[string]any{"origin": "disk"}
	stack, err := NewStack(
		NewLayer(NewScope("persisted", ScopePriorityPersisted, WithScopeMetadata(metadata)), cooldownSnapshot(`{}`)),
		NewLayer(NewScope("override", ScopePriorityOverride), cooldownSnapshot(`{}`)),
		NewLayer(NewScope("editor", ScopePriorityEditor), cooldownSnapshot(`{}`)),
	)
	if err != nil {
		t.Fatalf("stack: %v", err)
	}
	layers := stack.Layers()
	if stack.Len() != 3 || layers[0].Scope.Name != "override" || layers[2].Scope.Name != "persisted" {
		t.Fatalf("unexpected order %+v", layers)
	}
	metadata["origin"] = "mutated"
	layers[2].Scope.Metadata["origin"] = "mutated"
	if stack.Layers()[2].Scope.Metadata["origin"] != "disk" {
		t.Fatalf("layers must be copied")
	}
}

func TestStackTrace(t *testing.T) {
	defaults := newTestCooldown(DefaultRegistry())
	stack, err := NewStack(
		NewLayer(NewScope("persisted", ScopePriorityPersisted), cooldownSnapshot(`{
			"global": {"type": "NaturalNumber", "descriptor": {"descriptor": 30}}
		}`), WithSnapshotID("snap-1")),
		NewLayer(NewScope("editor", ScopePriorityEditor), cooldownSnapshot(`{
			"user": {"type": "NaturalNumber", "descriptor": {"descriptor": 10}}
		}`)),
	)
	if err != nil {
		t.Fatalf("stack: %v", err)
	}

	trace := stack.Trace(defaults, "global")
	if trace.Path != "global" || len(trace.Layers) != 2 {
		t.Fatalf("unexpected trace %+v", trace)
	}
	editor, persisted := trace.Layers[0], trace.Layers[1]
	if editor.Found {
		t.Fatalf("editor layer does not carry global")
	}
	if !persisted.Found || persisted.Value != float64(30) || persisted.SnapshotID != "snap-1" || persisted.Type != "NaturalNumber" {
		t.Fatalf("unexpected persisted provenance %+v", persisted)
	}

	raw, err := trace.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	decoded, err := TraceFromJSON(raw)
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	if decoded.Path != trace.Path || decoded.Layers[1].Value != float64(30) {
		t.Fatalf("unexpected decoded trace %+v", decoded)
	}

	if missing := stack.Trace(defaults, "nope"); missing.Layers[0].Found || missing.Layers[1].Found {
		t.Fatalf("expected unknown path to be absent everywhere")
	}
}
