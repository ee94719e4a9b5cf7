// Package openapi describes the conf shape of an entity tree as an OpenAPI
// 3 document so that form generators can render editors for it.
package openapi

import (
	entity "github.com/goliatone/go-entities"
)

type generator struct {
	config generatorConfig
}

// NewGenerator constructs an OpenAPI schema generator for entity trees.
func NewGenerator(opts ...GeneratorOption) entity.SchemaGenerator {
	cfg := defaultGeneratorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return generator{config: cfg}
}

// Generate builds the document for root. A nil root yields a document whose
// request body is an empty object.
func (g generator) Generate(root entity.Entity) (entity.SchemaDocument, error) {
	node, err := buildSchemaGraph(root, g.config.registry)
	if err != nil {
		return entity.SchemaDocument{}, err
	}
	document, err := newOpenAPIDocumentBuilder(g.config, node).build()
	if err != nil {
		return entity.SchemaDocument{}, err
	}
	return entity.SchemaDocument{
		Format:   entity.SchemaFormatOpenAPI,
		Document: document,
	}, nil
}
