package entity

// SchemaFormat identifies the representation a schema document encodes.
type SchemaFormat string

const (
	// SchemaFormatDescriptors represents the flattened field descriptors.
	SchemaFormatDescriptors SchemaFormat = "descriptors"
	// SchemaFormatOpenAPI represents OpenAPI-compatible JSON Schema documents.
	SchemaFormatOpenAPI SchemaFormat = "openapi"
)

// SchemaDocument encapsulates a generated schema alongside its format
// identifier. Document must be JSON-serialisable.
type SchemaDocument struct {
	Format   SchemaFormat
	Document any
}

// SchemaGenerator describes an entity tree for editors. Implementations must
// be safe for concurrent use and return an empty document for a nil root.
type SchemaGenerator interface {
	Generate(root Entity) (SchemaDocument, error)
}

// FieldDescriptor describes one node of a tree for editors that render it.
type FieldDescriptor struct {
	ID          string   `json:"id"`
	Path        []string `json:"path,omitempty"`
	Depth       int      `json:"depth"`
	Type        string   `json:"type"`
	Variant     Variant  `json:"variant"`
	Meta        Meta     `json:"meta"`
	Kind        string   `json:"kind,omitempty"`
	Value       any      `json:"value,omitempty"`
	ElementType string   `json:"elementType,omitempty"`
	Options     []string `json:"options,omitempty"`
	Selected    string   `json:"selected,omitempty"`
}

// Describe flattens root into field descriptors in depth-first declaration
// order.
func Describe(root Entity) []FieldDescriptor {
	if root == nil {
		return nil
	}
	var out []FieldDescriptor
	describeInto(&out, root, nil)
	return out
}

func describeInto(out *[]FieldDescriptor, e Entity, path []string) {
	field := FieldDescriptor{
		ID:      e.ID(),
		Path:    append([]string(nil), path...),
		Depth:   len(path),
		Type:    e.Type(),
		Variant: VariantOf(e),
		Meta:    e.Meta(),
	}
	switch typed := e.(type) {
	case *Value:
		field.Kind = typed.Kind().String()
		field.Value = typed.Value()
	case *FixedArray:
		field.ElementType = typed.ElementType()
	case *DynamicArray:
		field.ElementType = typed.ElementType()
	case *Choice:
		field.Options = typed.OptionNames()
		field.Selected = typed.Selected()
	}
	*out = append(*out, field)
	for _, ref := range e.base().this.children() {
		describeInto(out, ref.child, append(path, ref.key))
	}
}

// DefaultSchemaGenerator returns the built-in descriptor-based generator.
func DefaultSchemaGenerator() SchemaGenerator {
	return descriptorGenerator{}
}

type descriptorGenerator struct{}

func (descriptorGenerator) Generate(root Entity) (SchemaDocument, error) {
	descriptors := Describe(root)
	if descriptors == nil {
		descriptors = []FieldDescriptor{}
	}
	return SchemaDocument{
		Format:   SchemaFormatDescriptors,
		Document: descriptors,
	}, nil
}
