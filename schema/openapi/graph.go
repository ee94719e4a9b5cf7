package openapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	entity "github.com/goliatone/go-entities"
)

// schemaNode is the intermediate form of one entity before it is rendered
// inline or as a component.
type schemaNode struct {
	Type        string
	Format      string
	Tag         string
	Properties  map[string]*schemaNode
	Required    []string
	Items       *schemaNode
	OneOf       []*schemaNode
	Enum        []any
	Default     any
	Minimum     *float64
	Maximum     *float64
	MinItems    *int
	MaxItems    *int
	Closed      bool
	Description string
	formgen     map[string]string
}

func newObjectNode(tag string) *schemaNode {
	return &schemaNode{
		Type:       "object",
		Tag:        tag,
		Properties: map[string]*schemaNode{},
	}
}

func (n *schemaNode) baseMap() map[string]any {
	result := map[string]any{}
	if n.Type != "" {
		result["type"] = n.Type
	}
	if n.Format != "" {
		result["format"] = n.Format
	}
	if n.Description != "" {
		result["description"] = n.Description
	}
	if n.Default != nil {
		result["default"] = n.Default
	}
	if len(n.Enum) > 0 {
		result["enum"] = n.Enum
	}
	if n.Minimum != nil {
		result["minimum"] = *n.Minimum
	}
	if n.Maximum != nil {
		result["maximum"] = *n.Maximum
	}
	if n.MinItems != nil {
		result["minItems"] = *n.MinItems
	}
	if n.MaxItems != nil {
		result["maxItems"] = *n.MaxItems
	}
	if n.Type == "object" {
		result["additionalProperties"] = !n.Closed
	}
	if n.Tag != "" {
		result["x-entity-type"] = n.Tag
	}
	if len(n.formgen) > 0 {
		result["x-formgen"] = orderedStringMap(n.formgen)
	}
	return result
}

func (n *schemaNode) inlineOpenAPI() map[string]any {
	result := n.baseMap()
	if n.Type == "object" {
		props := make(map[string]any, len(n.Properties))
		for _, name := range sortedNames(n.Properties) {
			props[name] = n.Properties[name].inlineOpenAPI()
		}
		result["properties"] = props
	}
	if len(n.Required) > 0 {
		result["required"] = sortedCopy(n.Required)
	}
	if n.Items != nil {
		result["items"] = n.Items.inlineOpenAPI()
	}
	if len(n.OneOf) > 0 {
		variants := make([]any, len(n.OneOf))
		for i, variant := range n.OneOf {
			variants[i] = variant.inlineOpenAPI()
		}
		result["oneOf"] = variants
	}
	return result
}

func (n *schemaNode) ensureFormgen() map[string]string {
	if n.formgen == nil {
		n.formgen = map[string]string{}
	}
	return n.formgen
}

// Digest identifies structurally identical nodes so they can share a
// component.
func (n *schemaNode) Digest() string {
	data, err := json.Marshal(n.inlineOpenAPI())
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// schemaBuilder turns an entity tree into schema nodes describing its conf
// shape. registry, when set, supplies prototypes for the elements of empty
// dynamic arrays.
type schemaBuilder struct {
	registry *entity.Registry
}

func buildSchemaGraph(root entity.Entity, registry *entity.Registry) (*schemaNode, error) {
	if root == nil {
		return newObjectNode(""), nil
	}
	b := &schemaBuilder{registry: registry}
	return b.build(root, 0)
}

// maxDepth bounds prototype expansion for element types that contain
// themselves.
const maxDepth = 32

func (b *schemaBuilder) build(e entity.Entity, depth int) (*schemaNode, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("openapi: tree deeper than %d levels at %q", maxDepth, e.ID())
	}
	var (
		node *schemaNode
		err  error
	)
	switch typed := e.(type) {
	case *entity.Value:
		node = buildValue(typed)
	case *entity.StaticObject:
		node, err = b.buildObject(typed, typed.Keys(), true, depth)
	case *entity.ChoiceValue:
		node, err = b.buildObject(typed, typed.Keys(), true, depth)
		if err == nil && typed.OptionName() != "" {
			if _, taken := node.Properties["type"]; !taken {
				node.Properties["type"] = &schemaNode{Type: "string", Enum: []any{typed.OptionName()}}
				node.Required = append(node.Required, "type")
			}
		}
	case *entity.DynamicObject:
		node, err = b.buildObject(typed, typed.Keys(), false, depth)
	case *entity.FixedArray:
		node, err = b.buildFixedArray(typed, depth)
	case *entity.DynamicArray:
		node, err = b.buildDynamicArray(typed, depth)
	case *entity.Choice:
		node, err = b.buildChoice(typed, depth)
	default:
		return nil, fmt.Errorf("openapi: unsupported entity %T", e)
	}
	if err != nil {
		return nil, err
	}
	applyMeta(node, e.Meta())
	return node, nil
}

func buildValue(v *entity.Value) *schemaNode {
	node := &schemaNode{Tag: v.Type()}
	if v.Type() != entity.TypeHiddenString {
		node.Default = v.ToConf()
	}
	switch v.Kind() {
	case entity.KindString:
		node.Type = "string"
	case entity.KindBool:
		node.Type = "boolean"
	case entity.KindNumber:
		node.Type = "number"
	}
	switch v.Type() {
	case entity.TypeHiddenString:
		node.Format = "password"
	case entity.TypeInteger:
		node.Type = "integer"
	case entity.TypeNaturalNumber:
		node.Type = "integer"
		node.Minimum = ptr(0)
	case entity.TypeNonNegativeNumber:
		node.Minimum = ptr(0)
	case entity.TypePositiveNumber:
		node.Minimum = ptr(1)
	case entity.TypePercentageNumber:
		node.Minimum = ptr(0)
		node.Maximum = ptr(100)
	case entity.TypeDuration:
		node.Format = "duration-seconds"
		node.Minimum = ptr(0)
		node.Default = v.Value()
	}
	return node
}

type keyed interface {
	entity.Entity
	Child(key string) (entity.Entity, error)
}

func (b *schemaBuilder) buildObject(o keyed, keys []string, closed bool, depth int) (*schemaNode, error) {
	node := newObjectNode(o.Type())
	node.Closed = closed
	for _, key := range keys {
		child, err := o.Child(key)
		if err != nil {
			return nil, err
		}
		built, err := b.build(child, depth+1)
		if err != nil {
			return nil, err
		}
		node.Properties[key] = built
		if closed {
			node.Required = append(node.Required, key)
		}
	}
	return node, nil
}

func (b *schemaBuilder) buildFixedArray(a *entity.FixedArray, depth int) (*schemaNode, error) {
	node := &schemaNode{Type: "array", Tag: a.Type()}
	length := a.Len()
	node.MinItems = &length
	node.MaxItems = &length
	if length > 0 {
		item, err := b.build(a.Elements()[0], depth+1)
		if err != nil {
			return nil, err
		}
		node.Items = stripLabels(item)
	}
	if node.Items == nil {
		node.Items = &schemaNode{}
	}
	return node, nil
}

func (b *schemaBuilder) buildDynamicArray(a *entity.DynamicArray, depth int) (*schemaNode, error) {
	node := &schemaNode{Type: "array", Tag: a.Type()}
	var prototype entity.Entity
	if b.registry != nil && a.ElementType() != "" && b.registry.Has(a.ElementType()) {
		built, err := b.registry.Build(a.ElementType())
		if err != nil {
			return nil, fmt.Errorf("openapi: prototype %q: %w", a.ElementType(), err)
		}
		prototype = built
	} else if a.Len() > 0 {
		prototype = a.Elements()[0]
	}
	if prototype != nil {
		item, err := b.build(prototype, depth+1)
		if err != nil {
			return nil, err
		}
		node.Items = stripLabels(item)
	} else {
		node.Items = &schemaNode{}
	}
	if a.ElementType() != "" {
		node.ensureFormgen()["elementType"] = a.ElementType()
	}
	return node, nil
}

func (b *schemaBuilder) buildChoice(c *entity.Choice, depth int) (*schemaNode, error) {
	node := &schemaNode{Tag: c.Type()}
	for _, name := range c.OptionNames() {
		option, err := c.Option(name)
		if err != nil {
			return nil, err
		}
		built, err := b.build(option, depth+1)
		if err != nil {
			return nil, err
		}
		node.OneOf = append(node.OneOf, built)
	}
	formgen := node.ensureFormgen()
	formgen["options"] = strings.Join(c.OptionNames(), ",")
	if selected := c.Selected(); selected != "" {
		formgen["selected"] = selected
	}
	return node, nil
}

func applyMeta(node *schemaNode, meta entity.Meta) {
	if meta.Description != "" {
		node.Description = meta.Description
	}
	if meta.Name != "" {
		node.ensureFormgen()["label"] = meta.Name
	}
	if meta.HelpText != "" {
		node.ensureFormgen()["help"] = meta.HelpText
	}
	if meta.Hidden {
		node.ensureFormgen()["hidden"] = strconv.FormatBool(true)
	}
	if meta.Advanced {
		node.ensureFormgen()["advanced"] = strconv.FormatBool(true)
	}
}

// stripLabels drops per-element labels so that every element shares the
// item schema.
func stripLabels(node *schemaNode) *schemaNode {
	if node.formgen != nil {
		delete(node.formgen, "label")
	}
	return node
}

func ptr(v float64) *float64 { return &v }

func sortedNames(m map[string]*schemaNode) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedCopy(values []string) []string {
	out := append([]string(nil), values...)
	sort.Strings(out)
	return out
}

func orderedStringMap(values map[string]string) map[string]any {
	out := make(map[string]any, len(values))
	for key, value := range values {
		out[key] = value
	}
	return out
}
