package openapi

import (
	"fmt"
	"sort"
	"strings"
)

type openAPIDocumentBuilder struct {
	config   generatorConfig
	registry *componentRegistry
	rootNode *schemaNode
}

func newOpenAPIDocumentBuilder(config generatorConfig, root *schemaNode) *openAPIDocumentBuilder {
	return &openAPIDocumentBuilder{
		config:   config,
		registry: newComponentRegistry(),
		rootNode: root,
	}
}

func (b *openAPIDocumentBuilder) build() (map[string]any, error) {
	if b.rootNode == nil {
		return nil, fmt.Errorf("openapi: root schema node cannot be nil")
	}

	b.countChildren(b.rootNode, "Root")
	var body map[string]any
	if b.config.rootComponent != "" {
		body = map[string]any{"$ref": b.registry.force(b.config.rootComponent, b.rootNode)}
		b.schemaFor(b.rootNode, b.config.rootComponent)
	} else {
		body = b.render(b.rootNode, "Root")
	}

	document := map[string]any{
		"openapi": b.config.openAPIVersion,
		"info":    b.buildInfo(),
		"paths":   b.buildPaths(body),
	}
	if components := b.registry.componentsMap(); components != nil {
		document["components"] = map[string]any{
			"schemas": components,
		}
	}

	if err := validateDocument(document); err != nil {
		return nil, err
	}
	return document, nil
}

func (b *openAPIDocumentBuilder) buildInfo() map[string]any {
	info := map[string]any{
		"title":   b.config.info.Title,
		"version": b.config.info.Version,
	}
	if b.config.info.Description != "" {
		info["description"] = b.config.info.Description
	}
	return info
}

func (b *openAPIDocumentBuilder) buildPaths(body map[string]any) map[string]any {
	method := strings.ToLower(b.config.operation.Method)
	if method == "" {
		method = "put"
	}

	responses := make(map[string]any, len(b.config.responses))
	statuses := make([]string, 0, len(b.config.responses))
	for status := range b.config.responses {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		responses[status] = map[string]any{
			"description": b.config.responses[status].Description,
		}
	}

	operation := map[string]any{
		"operationId": b.operationID(method),
		"requestBody": map[string]any{
			"required": true,
			"content": map[string]any{
				b.config.contentType: map[string]any{"schema": body},
			},
		},
		"responses": responses,
	}
	if summary := strings.TrimSpace(b.config.operation.Summary); summary != "" {
		operation["summary"] = summary
	}

	return map[string]any{
		b.config.operation.Path: map[string]any{
			method: operation,
		},
	}
}

func (b *openAPIDocumentBuilder) operationID(method string) string {
	if b.config.operation.OperationID != "" {
		return b.config.operation.OperationID
	}
	return fmt.Sprintf("%s:%s", method, b.config.operation.Path)
}

// countChildren records every composite below node so that repeated subtrees
// can be hoisted before rendering starts.
func (b *openAPIDocumentBuilder) countChildren(node *schemaNode, nameHint string) {
	for _, key := range sortedNames(node.Properties) {
		b.countNode(node.Properties[key], combineComponentName(nameHint, key))
	}
	if node.Items != nil {
		b.countNode(node.Items, combineComponentName(nameHint, "item"))
	}
	for i, variant := range node.OneOf {
		b.countNode(variant, combineComponentName(nameHint, fmt.Sprintf("option%d", i+1)))
	}
}

func (b *openAPIDocumentBuilder) countNode(node *schemaNode, nameHint string) {
	if isComposite(node) {
		b.registry.count(nameHint, node)
	}
	b.countChildren(node, nameHint)
}

func (b *openAPIDocumentBuilder) schemaFor(node *schemaNode, nameHint string) map[string]any {
	if isComposite(node) {
		if ref, entry := b.registry.reference(node); ref != "" {
			if entry.schema == nil {
				// placeholder until rendered
				entry.schema = map[string]any{}
				entry.schema = b.render(node, nameHint)
			}
			return map[string]any{"$ref": ref}
		}
	}
	return b.render(node, nameHint)
}

func (b *openAPIDocumentBuilder) render(node *schemaNode, nameHint string) map[string]any {
	result := node.baseMap()
	if node.Type == "object" {
		props := make(map[string]any, len(node.Properties))
		for _, key := range sortedNames(node.Properties) {
			props[key] = b.schemaFor(node.Properties[key], combineComponentName(nameHint, key))
		}
		result["properties"] = props
	}
	if len(node.Required) > 0 {
		result["required"] = sortedCopy(node.Required)
	}
	if node.Items != nil {
		result["items"] = b.schemaFor(node.Items, combineComponentName(nameHint, "item"))
	}
	if len(node.OneOf) > 0 {
		variants := make([]any, len(node.OneOf))
		for i, variant := range node.OneOf {
			variants[i] = b.schemaFor(variant, combineComponentName(nameHint, fmt.Sprintf("option%d", i+1)))
		}
		result["oneOf"] = variants
	}
	return result
}

func isComposite(node *schemaNode) bool {
	return node.Type == "object" || node.Type == "array" || len(node.OneOf) > 0
}

func combineComponentName(parts ...string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	if len(filtered) == 0 {
		return "Schema"
	}
	return strings.Join(filtered, "_")
}

func validateDocument(document map[string]any) error {
	if document == nil {
		return fmt.Errorf("openapi: document cannot be nil")
	}
	version, _ := document["openapi"].(string)
	if version == "" {
		return fmt.Errorf("openapi: document missing version string")
	}
	info, _ := document["info"].(map[string]any)
	if info == nil {
		return fmt.Errorf("openapi: document missing info section")
	}
	if title, _ := info["title"].(string); title == "" {
		return fmt.Errorf("openapi: info.title must be set")
	}
	if v, _ := info["version"].(string); v == "" {
		return fmt.Errorf("openapi: info.version must be set")
	}
	paths, _ := document["paths"].(map[string]any)
	if len(paths) == 0 {
		return fmt.Errorf("openapi: document must define at least one path")
	}
	for pathKey, pathValue := range paths {
		pathItem, _ := pathValue.(map[string]any)
		if len(pathItem) == 0 {
			return fmt.Errorf("openapi: path %q missing operations", pathKey)
		}
		for method, operationValue := range pathItem {
			operation, _ := operationValue.(map[string]any)
			if operation == nil {
				return fmt.Errorf("openapi: operation %s %s invalid payload", method, pathKey)
			}
			if _, ok := operation["operationId"].(string); !ok {
				return fmt.Errorf("openapi: operation %s %s missing operationId", method, pathKey)
			}
			if _, ok := operation["responses"].(map[string]any); !ok {
				return fmt.Errorf("openapi: operation %s %s missing responses", method, pathKey)
			}
		}
	}
	return nil
}
