package entity

import (
	"encoding/json"
	"errors"
	"testing"
)

// newTestRegistry registers a small bot-like schema on top of the built-ins.
func newTestRegistry(t testing.TB) *Registry {
	t.Helper()
	r := NewRegistry()
	RegisterBuiltins(r)

	r.MustRegister("Cooldown", func(reg *Registry, _ ...any) (Entity, error) {
		return newTestCooldown(reg), nil
	})
	r.MustRegister("Trigger_Command", func(reg *Registry, _ ...any) (Entity, error) {
		v := NewChoiceValue("Trigger_Command", "Command", WithRegistry(reg))
		v.MustAdd("cmdname", NewString(), Named("Command"))
		v.MustAdd("aliases", NewDynamicArray(TypeString, WithRegistry(reg)), Named("Aliases"))
		return v, nil
	})
	r.MustRegister("Trigger_Shortcut", func(reg *Registry, _ ...any) (Entity, error) {
		v := NewChoiceValue("Trigger_Shortcut", "Keyboard Shortcut", WithRegistry(reg))
		v.MustAdd("keys", NewString("ctrl+k"), Named("Keys"))
		return v, nil
	})
	r.MustRegister("Trigger", func(reg *Registry, _ ...any) (Entity, error) {
		c := NewChoice("Trigger", WithRegistry(reg))
		if err := c.AddOptions(
			OptionSpec{Name: "command", Type: "Trigger_Command"},
			OptionSpec{Name: "shortcut", Type: "Trigger_Shortcut"},
		); err != nil {
			return nil, err
		}
		if _, err := c.Select("command"); err != nil {
			return nil, err
		}
		return c, nil
	})
	r.MustRegister("Function", func(reg *Registry, _ ...any) (Entity, error) {
		o := NewStaticObject("Function", WithRegistry(reg))
		o.MustAdd("active", NewBoolean(true), Named("Active"))
		o.MustAdd("cooldown", newTestCooldown(reg), Named("Cooldown"))
		o.MustAdd("triggers", NewDynamicArray("Trigger", WithRegistry(reg)), Named("Triggers"))
		return o, nil
	})
	r.MustRegister("Module", func(reg *Registry, _ ...any) (Entity, error) {
		o := NewStaticObject("Module", WithRegistry(reg))
		o.MustAdd("enabled", NewBoolean(true), Named("Enabled"))
		o.MustAdd("functions", NewDynamicArray("Function", WithRegistry(reg)), Named("Functions"))
		return o, nil
	})
	return r
}

func newTestCooldown(reg *Registry) *StaticObject {
	o := NewStaticObject("Cooldown", WithRegistry(reg))
	o.MustAdd("user", NewNaturalNumber(0), Named("User"))
	o.MustAdd("global", NewNaturalNumber(0), Named("Global"))
	return o
}

func mustBuild(t testing.TB, r *Registry, tag string, args ...any) Entity {
	t.Helper()
	e, err := r.Build(tag, args...)
	if err != nil {
		t.Fatalf("build %q: %v", tag, err)
	}
	return e
}

func mustExport(t testing.TB, e Entity) Snapshot {
	t.Helper()
	snapshot, err := e.Export()
	if err != nil {
		t.Fatalf("export %q: %v", e.Type(), err)
	}
	return snapshot
}

func mustJSON(t testing.TB, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(raw)
}

func mustChild[E Entity](t testing.TB, parent interface {
	Child(key string) (Entity, error)
}, key string) E {
	t.Helper()
	child, err := ChildAs[E](parent, key)
	if err != nil {
		t.Fatalf("child %q: %v", key, err)
	}
	return child
}

func mustElement(t testing.TB, a interface {
	Element(index int) (Entity, error)
}, index int) Entity {
	t.Helper()
	e, err := a.Element(index)
	if err != nil {
		t.Fatalf("element %d: %v", index, err)
	}
	return e
}

func expectErrorIs(t testing.TB, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected error %v, got %v", target, err)
	}
}
