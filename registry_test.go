package entity

import (
	"errors"
	"slices"
	"testing"
)

func TestRegistryRejectsDuplicateTags(t *testing.T) {
	r := NewRegistry()
	builder := func(*Registry, ...any) (Entity, error) { return NewString(), nil }
	if err := r.Register("Name", builder); err != nil {
		t.Fatalf("unexpected register error: %v", err)
	}
	err := r.Register("Name", builder)
	expectErrorIs(t, err, ErrDuplicateType)
}

func TestRegistryRejectsInvalidRegistrations(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("", func(*Registry, ...any) (Entity, error) { return nil, nil }); err == nil {
		t.Fatalf("expected empty tag to be rejected")
	}
	if err := r.Register("Nil", nil); err == nil {
		t.Fatalf("expected nil builder to be rejected")
	}
}

func TestRegistryBuildUnknownTag(t *testing.T) {
	_, err := NewRegistry().Build("Missing")
	expectErrorIs(t, err, ErrUnknownType)
}

func TestRegistryBuildReturnsFreshEntities(t *testing.T) {
	r := newTestRegistry(t)
	first := mustBuild(t, r, "Cooldown")
	second := mustBuild(t, r, "Cooldown")
	if first == second {
		t.Fatalf("expected distinct entities per build")
	}
	user := mustChild[*Value](t, first.(*StaticObject), "user")
	if err := user.SetValue(9); err != nil {
		t.Fatalf("set value: %v", err)
	}
	other := mustChild[*Value](t, second.(*StaticObject), "user")
	if other.Value() != float64(0) {
		t.Fatalf("expected second build untouched, got %v", other.Value())
	}
	if first.ID() != "" {
		t.Fatalf("expected unattached entity to have empty id, got %q", first.ID())
	}
}

func TestRegistryBuilderErrorsAreWrapped(t *testing.T) {
	r := NewRegistry()
	RegisterBuiltins(r)
	_, err := r.Build(TypeBoolean, "not a bool")
	expectErrorIs(t, err, ErrValueKind)
}

func TestRegistryTypesAndClone(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("B", func(*Registry, ...any) (Entity, error) { return NewString(), nil })
	r.MustRegister("A", func(*Registry, ...any) (Entity, error) { return NewString(), nil })
	if got := r.Types(); !slices.Equal(got, []string{"A", "B"}) {
		t.Fatalf("expected sorted types, got %v", got)
	}

	clone := r.Clone()
	clone.MustRegister("C", func(*Registry, ...any) (Entity, error) { return NewString(), nil })
	if r.Has("C") {
		t.Fatalf("clone registrations must not leak into the original")
	}
	if !clone.Has("A") {
		t.Fatalf("clone should carry original registrations")
	}
}

func TestMustRegisterPanicsOnDuplicate(t *testing.T) {
	r := NewRegistry()
	RegisterBuiltins(r)
	defer func() {
		recovered := recover()
		err, ok := recovered.(error)
		if !ok || !errors.Is(err, ErrDuplicateType) {
			t.Fatalf("expected duplicate panic, got %v", recovered)
		}
	}()
	RegisterBuiltins(r)
}

func TestDefaultRegistryCarriesBuiltins(t *testing.T) {
	for _, tag := range []string{TypeString, TypeDynamicArray, TypeStaticObject, TypeDuration} {
		if !DefaultRegistry().Has(tag) {
			t.Fatalf("expected default registry to carry %q", tag)
		}
	}
}

func TestRegistryReadMergesSnapshot(t *testing.T) {
	r := newTestRegistry(t)
	cooldown := mustBuild(t, r, "Cooldown")
	user := mustChild[*Value](t, cooldown.(*StaticObject), "user")
	_ = user.SetValue(30)
	snapshot := mustExport(t, cooldown)

	read, err := r.Read(snapshot, false)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := mustChild[*Value](t, read.(*StaticObject), "user").Value(); got != float64(30) {
		t.Fatalf("expected read value 30, got %v", got)
	}
}

func TestRegistryConstructTakesSnapshotMetadata(t *testing.T) {
	r := newTestRegistry(t)
	snapshot, err := ParseSnapshot([]byte(`{
		"type": "DynamicObject",
		"name": "Greetings",
		"descriptor": {
			"hello": {"type": "String", "descriptor": {"descriptor": "hi"}},
			"bye": {"type": "String", "name": "Farewell", "descriptor": {"descriptor": "cya"}}
		}
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	built, err := r.Construct(snapshot)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	object := built.(*DynamicObject)
	if object.Meta().Name != "Greetings" {
		t.Fatalf("expected snapshot name, got %q", object.Meta().Name)
	}
	if !slices.Equal(object.Keys(), []string{"bye", "hello"}) {
		t.Fatalf("unexpected keys %v", object.Keys())
	}
	hello := mustChild[*Value](t, object, "hello")
	if hello.Meta().Name != "Hello" {
		t.Fatalf("expected unnamed child to be named after its key, got %q", hello.Meta().Name)
	}
	if mustChild[*Value](t, object, "bye").Meta().Name != "Farewell" {
		t.Fatalf("expected authored child name to win")
	}
}
