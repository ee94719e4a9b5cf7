package entity

import (
	"encoding/json"
	"fmt"
)

// OptionSpec names an option of a Choice and the tag it is built from.
type OptionSpec struct {
	Name string
	Type string
	Args []any
}

// Choice holds one subtree per declared option and at most one selection.
// Unselected options keep their data so switching back restores it.
type Choice struct {
	node
	order    []string
	options  map[string]Entity
	selected string
	registry *Registry
}

// NewChoice constructs a choice tagged tag without options.
func NewChoice(tag string, opts ...Option) *Choice {
	cfg := applyContainerOptions(opts)
	c := newChoice(tag, cfg.registry)
	Apply(c, cfg.attrs...)
	c.AddCheck(cfg.checks...)
	return c
}

func newChoice(tag string, registry *Registry) *Choice {
	c := &Choice{
		options:  make(map[string]Entity),
		registry: registry,
	}
	c.init(c, tag)
	return c
}

// AddOption builds tag through the registry and declares it as option name.
func (c *Choice) AddOption(name, tag string, args ...any) (Entity, error) {
	option, err := c.registry.Build(tag, args...)
	if err != nil {
		return nil, err
	}
	if err := c.AddOptionEntity(name, option); err != nil {
		return nil, err
	}
	return option, nil
}

// AddOptionEntity declares option under name.
func (c *Choice) AddOptionEntity(name string, option Entity) error {
	if option == nil {
		return fmt.Errorf("entity: option %q is nil", name)
	}
	if _, exists := c.options[name]; exists {
		return fmt.Errorf("%w: option %q", ErrDuplicateKey, name)
	}
	c.order = append(c.order, name)
	c.attachOption(name, option)
	return nil
}

// AddOptions declares every spec in order.
func (c *Choice) AddOptions(specs ...OptionSpec) error {
	for _, spec := range specs {
		if _, err := c.AddOption(spec.Name, spec.Type, spec.Args...); err != nil {
			return err
		}
	}
	return nil
}

// Select marks the option name as the active one.
func (c *Choice) Select(name string) (Entity, error) {
	option, ok := c.options[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOption, name)
	}
	c.selected = name
	return option, nil
}

// Deselect clears the selection. A deselected choice exports an empty
// selection, which strict Import and BuildFrom reject.
func (c *Choice) Deselect() { c.selected = "" }

// Selected returns the name of the selected option, empty when none.
func (c *Choice) Selected() string { return c.selected }

// Selection returns the selected option, nil when none.
func (c *Choice) Selection() Entity {
	if c.selected == "" {
		return nil
	}
	return c.options[c.selected]
}

// Option returns the option declared under name.
func (c *Choice) Option(name string) (Entity, error) {
	option, ok := c.options[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOption, name)
	}
	return option, nil
}

// Child makes options reachable through ChildAs.
func (c *Choice) Child(name string) (Entity, error) {
	return c.Option(name)
}

// OptionNames returns option names in declaration order.
func (c *Choice) OptionNames() []string {
	return append([]string(nil), c.order...)
}

func (c *Choice) ToConf() any {
	selection := c.Selection()
	if selection == nil {
		return nil
	}
	return selection.ToConf()
}

func (c *Choice) attachOption(name string, option Entity) {
	if value, ok := option.(*ChoiceValue); ok {
		value.optionName = name
	}
	c.options[name] = option
	option.SetID(ExtendID(c.id, name))
}

func (c *Choice) importDesc(descriptor json.RawMessage, lenient bool) error {
	var desc ChoiceDescriptor
	if err := decodeDescriptor(descriptor, &desc); err != nil {
		return err
	}
	if !lenient {
		for _, name := range sortedKeys(desc.Options) {
			if _, ok := c.options[name]; !ok {
				return fmt.Errorf("%w: %q is not an option of %q", ErrUnknownOption, name, c.tag)
			}
		}
		if err := c.checkSelection(desc.SelectedOption); err != nil {
			return err
		}
	}
	for _, name := range c.order {
		snapshot, ok := desc.Options[name]
		if !ok {
			continue
		}
		if err := c.options[name].Import(snapshot, lenient); err != nil {
			return withImportSegment(name, err)
		}
	}
	switch {
	case c.options[desc.SelectedOption] != nil:
		c.selected = desc.SelectedOption
	case len(c.order) > 0:
		c.selected = c.order[0]
	}
	return nil
}

// checkSelection rejects a snapshot selection that is empty or undeclared.
func (c *Choice) checkSelection(name string) error {
	if name == "" {
		return fmt.Errorf("%w: %q has no selected option", ErrUnknownOption, c.tag)
	}
	if _, ok := c.options[name]; !ok {
		return fmt.Errorf("%w: selected option %q is not an option of %q", ErrUnknownOption, name, c.tag)
	}
	return nil
}

func (c *Choice) exportDesc() (any, error) {
	desc := ChoiceDescriptor{
		SelectedOption: c.selected,
		Options:        make(map[string]Snapshot, len(c.order)),
	}
	for _, name := range c.order {
		snapshot, err := c.options[name].Export()
		if err != nil {
			return nil, fmt.Errorf("entity: export option %q: %w", name, err)
		}
		desc.Options[name] = snapshot
	}
	return desc, nil
}

func (c *Choice) cloneImpl() Entity {
	clone := newChoice(c.tag, c.registry)
	for _, name := range c.order {
		clone.order = append(clone.order, name)
		clone.attachOption(name, c.options[name].Clone())
	}
	clone.selected = c.selected
	return clone
}

func (c *Choice) buildFrom(descriptor json.RawMessage) error {
	var desc ChoiceDescriptor
	if err := decodeDescriptor(descriptor, &desc); err != nil {
		return err
	}
	if err := c.checkSelection(desc.SelectedOption); err != nil {
		return err
	}
	for _, name := range sortedKeys(desc.Options) {
		if _, ok := c.options[name]; !ok {
			return fmt.Errorf("%w: %q is not an option of %q", ErrUnknownOption, name, c.tag)
		}
		option, err := c.registry.Construct(desc.Options[name])
		if err != nil {
			return withImportSegment(name, err)
		}
		c.attachOption(name, option)
	}
	c.selected = desc.SelectedOption
	return nil
}

func (c *Choice) children() []childRef {
	refs := make([]childRef, len(c.order))
	for i, name := range c.order {
		option := c.options[name]
		refs[i] = childRef{
			key:   name,
			label: optionLabel(name, option),
			child: option,
		}
	}
	return refs
}

func (c *Choice) reassignIDs() {
	for _, name := range c.order {
		c.options[name].SetID(ExtendID(c.id, name))
	}
}

func optionLabel(name string, option Entity) string {
	if value, ok := option.(*ChoiceValue); ok && value.displayText != "" {
		return value.displayText + " option"
	}
	return name + " option"
}

// SelectionRequired fails when a choice has no selected option.
func SelectionRequired() Check {
	return func(e Entity) error {
		c, ok := e.(*Choice)
		if !ok || c.Selection() != nil {
			return nil
		}
		return fmt.Errorf("%w: no option selected", ErrInvalidValue)
	}
}

// ChoiceValue is a closed keyed subtree used as a Choice option.
type ChoiceValue struct {
	StaticObject
	optionName  string
	displayText string
}

// NewChoiceValue constructs an option subtree tagged tag, shown to editors as
// displayText.
func NewChoiceValue(tag, displayText string, opts ...Option) *ChoiceValue {
	cfg := applyContainerOptions(opts)
	v := newChoiceValue(tag, displayText, cfg.registry)
	Apply(v, cfg.attrs...)
	v.AddCheck(cfg.checks...)
	return v
}

func newChoiceValue(tag, displayText string, registry *Registry) *ChoiceValue {
	v := &ChoiceValue{displayText: displayText}
	v.init(v, tag)
	v.initEntries(registry)
	return v
}

// OptionName returns the name the value is declared under in its Choice.
func (v *ChoiceValue) OptionName() string { return v.optionName }

// DisplayText returns the editor label of the option.
func (v *ChoiceValue) DisplayText() string { return v.displayText }

// ToConf flattens the option and records its option name under "type"
// unless a child already uses that key.
func (v *ChoiceValue) ToConf() any {
	conf, _ := v.objectCore.ToConf().(map[string]any)
	if v.optionName != "" {
		if _, taken := conf["type"]; !taken {
			conf["type"] = v.optionName
		}
	}
	return conf
}

func (v *ChoiceValue) cloneImpl() Entity {
	clone := newChoiceValue(v.tag, v.displayText, v.registry)
	clone.optionName = v.optionName
	v.copyEntriesInto(&clone.objectCore)
	return clone
}
