package openapi

import (
	"fmt"
	"regexp"
)

// componentRegistry hoists schemas that occur more than once in a tree
// (a Cooldown under every function, say) into components/schemas.
type componentRegistry struct {
	entries   map[string]*componentEntry
	usedNames map[string]struct{}
}

type componentEntry struct {
	name   string
	schema map[string]any
	count  int
	force  bool
}

func newComponentRegistry() *componentRegistry {
	return &componentRegistry{
		entries:   map[string]*componentEntry{},
		usedNames: map[string]struct{}{},
	}
}

// count records one occurrence of node. It must run over the whole tree
// before any reference is resolved.
func (r *componentRegistry) count(nameHint string, node *schemaNode) {
	digest := node.Digest()
	if digest == "" {
		return
	}
	if entry, ok := r.entries[digest]; ok {
		entry.count++
		return
	}
	r.entries[digest] = &componentEntry{
		name:  r.uniqueName(componentName(nameHint, node)),
		count: 1,
	}
}

// force publishes node under name regardless of how often it occurs.
func (r *componentRegistry) force(name string, node *schemaNode) string {
	digest := node.Digest()
	entry, ok := r.entries[digest]
	if !ok {
		entry = &componentEntry{name: r.uniqueName(name), count: 1}
		r.entries[digest] = entry
	}
	entry.force = true
	return refTo(entry.name)
}

// reference returns the component ref for node, or "" when node is inlined.
func (r *componentRegistry) reference(node *schemaNode) (string, *componentEntry) {
	entry, ok := r.entries[node.Digest()]
	if !ok || !(entry.force || entry.count >= 2) {
		return "", nil
	}
	return refTo(entry.name), entry
}

func (r *componentRegistry) uniqueName(name string) string {
	safe := sanitizeComponentName(name)
	if safe == "" {
		safe = "Schema"
	}
	if _, exists := r.usedNames[safe]; !exists {
		r.usedNames[safe] = struct{}{}
		return safe
	}
	for suffix := 1; ; suffix++ {
		candidate := fmt.Sprintf("%s%d", safe, suffix)
		if _, exists := r.usedNames[candidate]; !exists {
			r.usedNames[candidate] = struct{}{}
			return candidate
		}
	}
}

func (r *componentRegistry) componentsMap() map[string]any {
	out := map[string]any{}
	for _, entry := range r.entries {
		if entry.schema != nil {
			out[entry.name] = entry.schema
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// componentName prefers the entity tag so shared subtrees are published
// under names editors recognise.
func componentName(nameHint string, node *schemaNode) string {
	if node.Tag != "" && node.Tag != "StaticObject" && node.Tag != "DynamicObject" {
		return node.Tag
	}
	return nameHint
}

func refTo(name string) string {
	return "#/components/schemas/" + name
}

var componentNameRegexp = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

func sanitizeComponentName(name string) string {
	name = componentNameRegexp.ReplaceAllString(name, "_")
	name = trimUnderscores(name)
	if name == "" {
		return ""
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}

func trimUnderscores(input string) string {
	start := 0
	for start < len(input) && input[start] == '_' {
		start++
	}
	end := len(input)
	for end > start && input[end-1] == '_' {
		end--
	}
	return input[start:end]
}
