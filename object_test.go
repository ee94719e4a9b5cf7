package entity

import (
	"errors"
	"reflect"
	"slices"
	"testing"
)

func newABObject() *StaticObject {
	o := NewStaticObject("Pair")
	o.MustAdd("a", NewNumber(1))
	return o
}

func TestStaticObjectChildAccess(t *testing.T) {
	o := newABObject()
	if !o.HasChild("a") || o.HasChild("b") {
		t.Fatalf("unexpected key presence")
	}
	_, err := o.Child("b")
	expectErrorIs(t, err, ErrKeyNotFound)
	expectErrorIs(t, o.AddChild("a", NewNumber()), ErrDuplicateKey)

	_, err = ChildAs[*StaticObject](o, "a")
	expectErrorIs(t, err, ErrTypeMismatch)
}

func TestStaticObjectRejectsUnknownKeys(t *testing.T) {
	o := newABObject()
	snapshot := Snapshot{Type: "Pair", Descriptor: []byte(`{` +
		`"a":{"type":"Number","descriptor":{"descriptor":5}},` +
		`"b":{"type":"Number","descriptor":{"descriptor":2}}}`)}

	expectErrorIs(t, o.Import(snapshot, false), ErrUnknownKey)
	if got := o.ToConf(); !reflect.DeepEqual(got, map[string]any{"a": float64(1)}) {
		t.Fatalf("rejected import must not change the object, got %#v", got)
	}

	if err := o.Import(snapshot, true); err != nil {
		t.Fatalf("lenient import: %v", err)
	}
	if got := o.ToConf(); !reflect.DeepEqual(got, map[string]any{"a": float64(5)}) {
		t.Fatalf("expected declared key imported, got %#v", got)
	}
	if o.HasChild("b") {
		t.Fatalf("lenient import must not add undeclared keys")
	}
}

func TestStaticObjectKeepsDefaultsForAbsentKeys(t *testing.T) {
	o := NewStaticObject("Settings")
	o.MustAdd("greeting", NewString("hello"))
	o.MustAdd("volume", NewPercentage(50))

	err := o.Import(Snapshot{Type: "Settings", Descriptor: []byte(`{"volume":{"type":"PercentageNumber","descriptor":{"descriptor":80}}}`)}, false)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	want := map[string]any{"greeting": "hello", "volume": float64(80)}
	if got := o.ToConf(); !reflect.DeepEqual(got, want) {
		t.Fatalf("want %#v got %#v", want, got)
	}
}

func TestStaticObjectImportErrorsCarryKeyPath(t *testing.T) {
	r := newTestRegistry(t)
	function := mustBuild(t, r, "Function")
	err := function.Import(Snapshot{Type: "Function", Descriptor: []byte(`{"cooldown":{"type":"Cooldown","descriptor":{"user":{"type":"String","descriptor":{}}}}}`)}, false)
	expectErrorIs(t, err, ErrTypeMismatch)
	if got := PathOfImport(err); !slices.Equal(got, []string{"cooldown", "user"}) {
		t.Fatalf("unexpected import path %v", got)
	}
}

func TestDynamicObjectReconcilesKeys(t *testing.T) {
	o := NewDynamicObject("")
	o.MustAdd("a", NewString("one"))
	o.MustAdd("b", NewString("two"))
	b := mustChild[*Value](t, o, "b")

	snapshot := Snapshot{Type: TypeDynamicObject, Descriptor: []byte(`{` +
		`"b":{"type":"String","descriptor":{"descriptor":"TWO"}},` +
		`"c":{"type":"String","descriptor":{"descriptor":"three"}}}`)}
	if err := o.Import(snapshot, false); err != nil {
		t.Fatalf("import: %v", err)
	}

	if !slices.Equal(o.Keys(), []string{"b", "c"}) {
		t.Fatalf("unexpected keys %v", o.Keys())
	}
	if b.Value() != "TWO" {
		t.Fatalf("shared key must be merged into the existing child, got %v", b.Value())
	}
	if mustChild[*Value](t, o, "b") != b {
		t.Fatalf("shared key must keep the existing child instance")
	}
	want := map[string]any{"b": "TWO", "c": "three"}
	if got := o.ToConf(); !reflect.DeepEqual(got, want) {
		t.Fatalf("want %#v got %#v", want, got)
	}
}

func TestDynamicObjectFailedImportLeavesKeysUntouched(t *testing.T) {
	o := NewDynamicObject("")
	o.MustAdd("a", NewString("one"))
	o.MustAdd("b", NewString("two"))
	o.MustAdd("d", NewString("four"))

	snapshot := Snapshot{Type: TypeDynamicObject, Descriptor: []byte(`{` +
		`"a":{"type":"String","descriptor":{"descriptor":"ONE"}},` +
		`"b":{"type":"Boolean","descriptor":{"descriptor":true}},` +
		`"c":{"type":"String","descriptor":{"descriptor":"three"}}}`)}
	expectErrorIs(t, o.Import(snapshot, false), ErrTypeMismatch)

	if !slices.Equal(o.Keys(), []string{"a", "b", "d"}) {
		t.Fatalf("failed import must not reconcile keys, got %v", o.Keys())
	}
	want := map[string]any{"a": "one", "b": "two", "d": "four"}
	if got := o.ToConf(); !reflect.DeepEqual(got, want) {
		t.Fatalf("failed import must not merge shared keys, got %#v", got)
	}
}

func TestDynamicObjectUnknownTagFails(t *testing.T) {
	o := NewDynamicObject("")
	err := o.Import(Snapshot{Type: TypeDynamicObject, Descriptor: []byte(`{"x":{"type":"Nope"}}`)}, true)
	expectErrorIs(t, err, ErrUnknownType)
	if o.Len() != 0 {
		t.Fatalf("failed import must not add keys")
	}
}

func TestDynamicObjectSetAndRemove(t *testing.T) {
	o := NewDynamicObject("Commands")
	o.SetID("commands")
	if err := o.SetChild("hi", NewString("hello")); err != nil {
		t.Fatalf("set: %v", err)
	}
	replacement := NewString("hey")
	if err := o.SetChild("hi", replacement); err != nil {
		t.Fatalf("set: %v", err)
	}
	if o.Len() != 1 || replacement.ID() != "commands.hi" {
		t.Fatalf("expected replacement attached once, got %d %q", o.Len(), replacement.ID())
	}
	if err := o.RemoveChild("hi"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	expectErrorIs(t, o.RemoveChild("hi"), ErrKeyNotFound)
}

func TestObjectChildIDsEscapeDots(t *testing.T) {
	o := NewDynamicObject("")
	o.SetID("root")
	o.MustAdd("v1.2", NewString())
	child := mustChild[*Value](t, o, "v1.2")
	if child.ID() != `root.v1\.2` {
		t.Fatalf("unexpected id %q", child.ID())
	}
	if got := SplitID(child.ID()); !slices.Equal(got, []string{"root", "v1.2"}) {
		t.Fatalf("unexpected segments %v", got)
	}
}

func TestObjectValidationUsesNameThenKey(t *testing.T) {
	o := NewStaticObject("Limits")
	o.MustAdd("count", NewNaturalNumber(-1), Named("Count"))
	if got := PathOf(o.Validate()); !slices.Equal(got, []string{"Count"}) {
		t.Fatalf("expected name label, got %v", got)
	}

	unnamed := NewStaticObject("Limits")
	unnamed.MustAdd("count", NewNaturalNumber(-1))
	if got := PathOf(unnamed.Validate()); !slices.Equal(got, []string{"count"}) {
		t.Fatalf("expected key label, got %v", got)
	}
}

func TestObjectChecksRunAfterChildren(t *testing.T) {
	cooldown := newTestCooldown(DefaultRegistry())
	cooldown.AddCheck(func(e Entity) error {
		conf := e.ToConf().(map[string]any)
		if conf["user"].(int) > conf["global"].(int) {
			return errors.New("user cooldown exceeds global cooldown")
		}
		return nil
	})
	_ = mustChild[*Value](t, cooldown, "user").SetValue(10)
	err := cooldown.Validate()
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) || len(validationErr.Path) != 0 {
		t.Fatalf("expected a root-level validation error, got %v", err)
	}
}

func TestStaticObjectCloneIsDeep(t *testing.T) {
	r := newTestRegistry(t)
	function := mustBuild(t, r, "Function").(*StaticObject)
	function.SetID("fn")
	clone := function.Clone().(*StaticObject)

	if clone.ID() != "fn" {
		t.Fatalf("expected clone to keep its id, got %q", clone.ID())
	}
	cloneUser := mustChild[*Value](t, mustChild[*StaticObject](t, clone, "cooldown"), "user")
	if cloneUser.ID() != "fn.cooldown.user" {
		t.Fatalf("unexpected clone descendant id %q", cloneUser.ID())
	}
	_ = cloneUser.SetValue(99)
	user := mustChild[*Value](t, mustChild[*StaticObject](t, function, "cooldown"), "user")
	if user.Value() != float64(0) {
		t.Fatalf("clone mutation leaked into original: %v", user.Value())
	}
	if !slices.Equal(clone.Keys(), function.Keys()) {
		t.Fatalf("clone must keep key order")
	}
}
