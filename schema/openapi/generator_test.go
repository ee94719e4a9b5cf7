package openapi_test

import (
	"encoding/json"
	"reflect"
	"testing"

	entity "github.com/goliatone/go-entities"
	"github.com/goliatone/go-entities/pkg/botschema"
	"github.com/goliatone/go-entities/schema/openapi"
)

func generate(t *testing.T, root entity.Entity, opts ...openapi.GeneratorOption) map[string]any {
	t.Helper()
	doc, err := openapi.NewGenerator(opts...).Generate(root)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if doc.Format != entity.SchemaFormatOpenAPI {
		t.Fatalf("unexpected format %q", doc.Format)
	}
	// Round trip through JSON so assertions see plain maps and slices.
	payload, err := json.Marshal(doc.Document)
	if err != nil {
		t.Fatalf("marshal document: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(payload, &out); err != nil {
		t.Fatalf("unmarshal document: %v", err)
	}
	return out
}

func dig(t *testing.T, value any, path ...string) any {
	t.Helper()
	current := value
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			t.Fatalf("expected object at %q, got %T", key, current)
		}
		current, ok = m[key]
		if !ok {
			t.Fatalf("missing key %q in %v", key, m)
		}
	}
	return current
}

func requestSchema(t *testing.T, doc map[string]any) map[string]any {
	t.Helper()
	schema, ok := dig(t, doc, "paths", "/settings", "put", "requestBody", "content", "application/json", "schema").(map[string]any)
	if !ok {
		t.Fatalf("request schema is not an object")
	}
	return schema
}

func TestGenerateDescribesClosedObjects(t *testing.T) {
	reg := botschema.MustRegistry()
	doc := generate(t, botschema.NewCooldown(reg))

	if doc["openapi"] != "3.0.3" {
		t.Fatalf("unexpected version %v", doc["openapi"])
	}
	schema := requestSchema(t, doc)
	if schema["x-entity-type"] != botschema.TypeCooldown {
		t.Fatalf("unexpected entity type %v", schema["x-entity-type"])
	}
	if schema["additionalProperties"] != false {
		t.Fatalf("static objects must be closed, got %v", schema["additionalProperties"])
	}
	if got := dig(t, schema, "required"); !reflect.DeepEqual(got, []any{"global", "user"}) {
		t.Fatalf("unexpected required %v", got)
	}
	user := dig(t, schema, "properties", "user").(map[string]any)
	if user["type"] != "number" || user["format"] != "duration-seconds" || user["minimum"] != 0.0 {
		t.Fatalf("unexpected user schema %v", user)
	}
	if dig(t, user, "x-formgen", "label") != "User" {
		t.Fatalf("expected label in x-formgen, got %v", user["x-formgen"])
	}
}

func TestGenerateHidesSecretDefaults(t *testing.T) {
	reg := botschema.MustRegistry()
	main := botschema.NewMain(reg)
	token, _ := entity.Lookup(main, "twitch", "oAuth")
	if err := token.(*entity.Value).SetValue("oauth:secret"); err != nil {
		t.Fatalf("set token: %v", err)
	}

	schema := requestSchema(t, generate(t, main, openapi.WithRegistry(reg)))
	oauth := dig(t, schema, "properties", "twitch", "properties", "oAuth").(map[string]any)
	if oauth["format"] != "password" {
		t.Fatalf("expected password format, got %v", oauth["format"])
	}
	if _, ok := oauth["default"]; ok {
		t.Fatalf("hidden strings must not publish defaults: %v", oauth)
	}
	port := dig(t, schema, "properties", "port").(map[string]any)
	if port["type"] != "integer" || port["default"] != float64(botschema.DefaultPort) {
		t.Fatalf("unexpected port schema %v", port)
	}
}

func TestGenerateDescribesChoicesAsOneOf(t *testing.T) {
	reg := botschema.MustRegistry()
	trigger, err := botschema.NewTrigger(reg)
	if err != nil {
		t.Fatalf("NewTrigger: %v", err)
	}
	schema := requestSchema(t, generate(t, trigger))

	variants, ok := schema["oneOf"].([]any)
	if !ok || len(variants) != 3 {
		t.Fatalf("expected three variants, got %v", schema["oneOf"])
	}
	first := variants[0].(map[string]any)
	if got := dig(t, first, "properties", "type", "enum"); !reflect.DeepEqual(got, []any{"command"}) {
		t.Fatalf("unexpected discriminator %v", got)
	}
	if dig(t, schema, "x-formgen", "selected") != "command" {
		t.Fatalf("expected selected option, got %v", schema["x-formgen"])
	}
	if dig(t, schema, "x-formgen", "options") != "command,shortcut,time" {
		t.Fatalf("unexpected options %v", schema["x-formgen"])
	}
}

func TestGenerateUsesRegistryPrototypes(t *testing.T) {
	reg := botschema.MustRegistry()
	module := botschema.NewModule(reg, "")

	withoutRegistry := requestSchema(t, generate(t, module))
	items := dig(t, withoutRegistry, "properties", "functions", "items").(map[string]any)
	if len(items) != 0 {
		t.Fatalf("expected open items without a registry, got %v", items)
	}

	withRegistry := requestSchema(t, generate(t, module, openapi.WithRegistry(reg)))
	items = dig(t, withRegistry, "properties", "functions", "items").(map[string]any)
	if items["x-entity-type"] != botschema.TypeFunction {
		t.Fatalf("expected Function items, got %v", items)
	}
	if dig(t, withRegistry, "properties", "functions", "x-formgen", "elementType") != botschema.TypeFunction {
		t.Fatalf("expected element type hint")
	}
}

func TestGenerateHoistsRepeatedSubtrees(t *testing.T) {
	reg := botschema.MustRegistry()
	root := entity.NewStaticObject("", entity.WithRegistry(reg))
	if err := root.AddChild("first", botschema.NewCooldown(reg)); err != nil {
		t.Fatalf("add first: %v", err)
	}
	if err := root.AddChild("second", botschema.NewCooldown(reg)); err != nil {
		t.Fatalf("add second: %v", err)
	}

	doc := generate(t, root)
	schema := requestSchema(t, doc)
	first := dig(t, schema, "properties", "first", "$ref")
	second := dig(t, schema, "properties", "second", "$ref")
	if first != "#/components/schemas/Cooldown" || second != first {
		t.Fatalf("expected shared Cooldown component, got %v and %v", first, second)
	}
	component := dig(t, doc, "components", "schemas", "Cooldown").(map[string]any)
	if component["x-entity-type"] != botschema.TypeCooldown {
		t.Fatalf("unexpected component %v", component)
	}
}

func TestGenerateRootComponentAndOptions(t *testing.T) {
	reg := botschema.MustRegistry()
	doc := generate(t, botschema.NewChannelReward(reg),
		openapi.WithRootComponent("Reward"),
		openapi.WithInfo("Bot", "2.0.0", openapi.WithInfoDescription("bot settings")),
		openapi.WithOperation("/rewards", "POST", "", openapi.WithOperationSummary("Save rewards")),
		openapi.WithResponse("200", "Saved"),
	)

	operation := dig(t, doc, "paths", "/rewards", "post").(map[string]any)
	if operation["operationId"] != "post:/rewards" || operation["summary"] != "Save rewards" {
		t.Fatalf("unexpected operation %v", operation)
	}
	ref := dig(t, operation, "requestBody", "content", "application/json", "schema", "$ref")
	if ref != "#/components/schemas/Reward" {
		t.Fatalf("unexpected root ref %v", ref)
	}
	dig(t, doc, "components", "schemas", "Reward", "properties", "rewardName")
	dig(t, operation, "responses", "200")
	if dig(t, doc, "info", "description") != "bot settings" {
		t.Fatalf("unexpected info %v", doc["info"])
	}
}

func TestGenerateNilRoot(t *testing.T) {
	schema := requestSchema(t, generate(t, nil))
	if schema["type"] != "object" {
		t.Fatalf("expected empty object schema, got %v", schema)
	}
}
