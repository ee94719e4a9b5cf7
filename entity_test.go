package entity

import (
	"errors"
	"slices"
	"testing"
)

func buildModuleTree(t *testing.T, r *Registry, functions int) *DynamicObject {
	t.Helper()
	root := NewDynamicObject("Modules", WithRegistry(r))
	module := mustBuild(t, r, "Module").(*StaticObject)
	list := mustChild[*DynamicArray](t, module, "functions")
	for i := 0; i < functions; i++ {
		if _, err := list.Add(); err != nil {
			t.Fatalf("add function: %v", err)
		}
	}
	if err := root.SetChild("X", module); err != nil {
		t.Fatalf("set child: %v", err)
	}
	return root
}

func TestValidationReportsQualifiedPath(t *testing.T) {
	r := newTestRegistry(t)
	root := buildModuleTree(t, r, 4)
	if err := root.Validate(); err != nil {
		t.Fatalf("expected valid tree, got %v", err)
	}

	fn := mustElement(t, mustChild[*DynamicArray](t, mustChild[*StaticObject](t, root, "X"), "functions"), 3).(*StaticObject)
	cooldown := mustChild[*StaticObject](t, fn, "cooldown")
	if err := mustChild[*Value](t, cooldown, "user").SetValue(-5); err != nil {
		t.Fatalf("set value: %v", err)
	}

	err := root.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	want := []string{"X", "Functions", "Element #4", "Cooldown", "User"}
	if !slices.Equal(verr.Path, want) {
		t.Fatalf("want path %v got %v", want, verr.Path)
	}
	if got := FormatPath(verr.Path); got != `["X","Functions","Element #4","Cooldown","User"]` {
		t.Fatalf("unexpected formatted path %s", got)
	}
	expectErrorIs(t, err, ErrInvalidValue)
}

func TestExportImportRoundTrip(t *testing.T) {
	r := newTestRegistry(t)
	root := buildModuleTree(t, r, 2)
	module := mustChild[*StaticObject](t, root, "X")
	fn := mustElement(t, mustChild[*DynamicArray](t, module, "functions"), 1).(*StaticObject)
	_ = mustChild[*Value](t, mustChild[*StaticObject](t, fn, "cooldown"), "global").SetValue(30)
	triggers := mustChild[*DynamicArray](t, fn, "triggers")
	trigger, err := triggers.Add()
	if err != nil {
		t.Fatalf("add trigger: %v", err)
	}
	_, _ = trigger.(*Choice).Select("shortcut")

	snapshot := mustExport(t, root)
	raw, err := snapshot.MarshalIndent()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	parsed, err := ParseSnapshot(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	fresh := NewDynamicObject("Modules", WithRegistry(r))
	if err := fresh.Import(parsed, false); err != nil {
		t.Fatalf("import: %v", err)
	}
	again := mustExport(t, fresh)
	if !again.Equal(snapshot) {
		t.Fatalf("round trip changed the snapshot:\n%s\n%s", mustJSON(t, snapshot), mustJSON(t, again))
	}
	if got := mustJSON(t, fresh.ToConf()); got != mustJSON(t, root.ToConf()) {
		t.Fatalf("conf mismatch: %s", got)
	}
}

func TestCloneIsIdempotentAndIndependent(t *testing.T) {
	r := newTestRegistry(t)
	root := buildModuleTree(t, r, 2)
	root.SetID("modules")
	clone := root.Clone()

	if clone.ID() != "modules" {
		t.Fatalf("expected id kept, got %q", clone.ID())
	}
	if !mustExport(t, clone).Equal(mustExport(t, root)) {
		t.Fatalf("clone export differs")
	}
	if !mustExport(t, clone.Clone()).Equal(mustExport(t, root)) {
		t.Fatalf("clone of clone differs")
	}

	cloneModule := mustChild[*StaticObject](t, clone.(*DynamicObject), "X")
	_ = mustChild[*Value](t, cloneModule, "enabled").SetValue(false)
	if mustChild[*Value](t, mustChild[*StaticObject](t, root, "X"), "enabled").Value() != true {
		t.Fatalf("clone mutation leaked")
	}
	if _, ok := Find(clone, "modules.X.functions.1.cooldown.user"); !ok {
		t.Fatalf("expected cloned ids to be rebased")
	}
}

func TestImportMetadataAdoption(t *testing.T) {
	named := NewString("a")
	named.SetName("Kept")
	err := named.Import(Snapshot{
		Type:        TypeString,
		Descriptor:  []byte(`{"descriptor":"b"}`),
		Name:        "Incoming",
		Description: "from snapshot",
		Hidden:      true,
	}, false)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	meta := named.Meta()
	if meta.Name != "Kept" || meta.Description != "from snapshot" || !meta.Hidden {
		t.Fatalf("unexpected metadata %+v", meta)
	}

	if err := named.Import(Snapshot{Type: TypeString, Descriptor: []byte(`{"descriptor":"c"}`)}, false); err != nil {
		t.Fatalf("import: %v", err)
	}
	if named.Meta().Hidden {
		t.Fatalf("hidden must follow the snapshot")
	}
	if named.Meta().Description != "from snapshot" {
		t.Fatalf("description must not be cleared by an empty snapshot field")
	}
}

func TestLenientImportOfForeignTagIsNoop(t *testing.T) {
	r := newTestRegistry(t)
	fn := mustBuild(t, r, "Function").(*StaticObject)
	before := mustExport(t, fn)

	foreign := Snapshot{Type: "Module", Descriptor: []byte(`{"enabled":{"type":"Boolean","descriptor":{"descriptor":false}}}`), Name: "Other"}
	if err := fn.Import(foreign, true); err != nil {
		t.Fatalf("lenient import: %v", err)
	}
	if !mustExport(t, fn).Equal(before) {
		t.Fatalf("lenient foreign import must not touch the tree")
	}

	var mismatch *TypeMismatchError
	if !errors.As(fn.Import(foreign, false), &mismatch) {
		t.Fatalf("expected type mismatch in strict mode")
	}
	if mismatch.Expected != "Function" || mismatch.Got != "Module" {
		t.Fatalf("unexpected mismatch %+v", mismatch)
	}
}

func TestLenientImportKeepsDefaultsForMissingChildren(t *testing.T) {
	r := newTestRegistry(t)
	fn := mustBuild(t, r, "Function").(*StaticObject)
	partial := Snapshot{Type: "Function", Descriptor: []byte(`{
		"active": {"type": "Boolean", "descriptor": {"descriptor": false}},
		"legacy": {"type": "String", "descriptor": {"descriptor": "x"}}
	}`)}
	if err := fn.Import(partial, true); err != nil {
		t.Fatalf("lenient import: %v", err)
	}
	conf := fn.ToConf().(map[string]any)
	if conf["active"] != false {
		t.Fatalf("expected active imported, got %#v", conf)
	}
	cooldown := conf["cooldown"].(map[string]any)
	if cooldown["user"] != 0 || cooldown["global"] != 0 {
		t.Fatalf("expected defaults kept, got %#v", cooldown)
	}
}

func TestWalkFindAndLookup(t *testing.T) {
	r := newTestRegistry(t)
	root := buildModuleTree(t, r, 1)
	root.SetID("root")

	var ids []string
	if err := Walk(root, func(e Entity) error {
		ids = append(ids, e.ID())
		if _, ok := e.(*Choice); ok {
			return SkipChildren
		}
		return nil
	}); err != nil {
		t.Fatalf("walk: %v", err)
	}
	want := []string{
		"root", "root.X", "root.X.enabled", "root.X.functions",
		"root.X.functions.0", "root.X.functions.0.active",
		"root.X.functions.0.cooldown", "root.X.functions.0.cooldown.user",
		"root.X.functions.0.cooldown.global", "root.X.functions.0.triggers",
	}
	if !slices.Equal(ids, want) {
		t.Fatalf("unexpected walk order %v", ids)
	}

	found, ok := Find(root, "root.X.functions.0.cooldown.global")
	if !ok || found.Meta().Name != "Global" {
		t.Fatalf("find failed: %v %v", found, ok)
	}
	looked, ok := Lookup(root, SplitID("X.functions.0.cooldown.global")...)
	if !ok || looked != found {
		t.Fatalf("lookup should reach the same node")
	}
	if _, ok := Lookup(root, "X", "missing"); ok {
		t.Fatalf("expected lookup miss")
	}
	if got := len(Children(root)); got != 1 {
		t.Fatalf("expected one child, got %d", got)
	}
}

func TestVariantOf(t *testing.T) {
	cases := map[Variant]Entity{
		VariantValue:         NewString(),
		VariantDynamicArray:  NewDynamicArray(TypeString),
		VariantStaticObject:  NewStaticObject(""),
		VariantDynamicObject: NewDynamicObject(""),
		VariantChoice:        NewChoice("C"),
		VariantChoiceValue:   NewChoiceValue("C_A", "A"),
	}
	for want, e := range cases {
		if got := VariantOf(e); got != want {
			t.Fatalf("want %s got %s", want, got)
		}
	}
	fixed, err := NewFixedArray(TypeString, []Entity{NewString()})
	if err != nil {
		t.Fatalf("fixed array: %v", err)
	}
	if VariantOf(fixed) != VariantFixedArray {
		t.Fatalf("expected fixed array variant")
	}
}

func TestIDEscaping(t *testing.T) {
	id := ExtendID(ExtendID("", `a.b`), `c\d`)
	if id != `a\.b.c\\d` {
		t.Fatalf("unexpected id %q", id)
	}
	if got := SplitID(id); !slices.Equal(got, []string{"a.b", `c\d`}) {
		t.Fatalf("unexpected segments %q", got)
	}
	if SplitID("") != nil {
		t.Fatalf("expected nil segments for empty id")
	}
}

func TestDescribeFlattensTree(t *testing.T) {
	r := newTestRegistry(t)
	fn := mustBuild(t, r, "Function").(*StaticObject)
	fn.SetID("fn")
	_, _ = mustChild[*DynamicArray](t, fn, "triggers").Add()

	fields := Describe(fn)
	byID := make(map[string]FieldDescriptor, len(fields))
	for _, field := range fields {
		byID[field.ID] = field
	}
	user := byID["fn.cooldown.user"]
	if user.Kind != "number" || user.Depth != 2 || user.Meta.Name != "User" {
		t.Fatalf("unexpected user field %+v", user)
	}
	trigger := byID["fn.triggers.0"]
	if trigger.Variant != VariantChoice || trigger.Selected != "command" {
		t.Fatalf("unexpected trigger field %+v", trigger)
	}
	if !slices.Equal(trigger.Options, []string{"command", "shortcut"}) {
		t.Fatalf("unexpected options %v", trigger.Options)
	}
	if byID["fn.triggers"].ElementType != "Trigger" {
		t.Fatalf("expected element type on array field")
	}

	doc, err := DefaultSchemaGenerator().Generate(nil)
	if err != nil || doc.Format != SchemaFormatDescriptors {
		t.Fatalf("unexpected empty document %+v %v", doc, err)
	}
	if fields, ok := doc.Document.([]FieldDescriptor); !ok || len(fields) != 0 {
		t.Fatalf("expected empty descriptor list, got %#v", doc.Document)
	}
}

func TestDecodeConf(t *testing.T) {
	type cooldown struct {
		User   int `json:"user"`
		Global int `json:"global"`
	}
	c := newTestCooldown(DefaultRegistry())
	_ = mustChild[*Value](t, c, "user").SetValue(15)

	got, err := DecodeConf[cooldown](c, true)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.User != 15 || got.Global != 0 {
		t.Fatalf("unexpected conf %+v", got)
	}

	type userOnly struct {
		User int `json:"user"`
	}
	if _, err := DecodeConf[userOnly](c, true); err == nil {
		t.Fatalf("expected strict decode to reject unknown keys")
	}
	loose, err := DecodeConf[userOnly](c, false)
	if err != nil || loose.User != 15 {
		t.Fatalf("unexpected loose decode %+v %v", loose, err)
	}
}
