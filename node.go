package entity

import (
	"encoding/json"
	"fmt"
)

// Check validates a single node. Returned errors are wrapped with the path of
// the node by the containers above it.
type Check func(e Entity) error

// node holds the state shared by every variant. this points back at the
// concrete type so shared behaviour can reach variant hooks.
type node struct {
	this       variant
	tag        string
	meta       Meta
	id         string
	assignable []string
	checks     []Check
}

func (n *node) init(this variant, tag string) {
	n.this = this
	n.tag = tag
}

func (n *node) base() *node { return n }

func (n *node) Type() string { return n.tag }

func (n *node) Meta() Meta { return n.meta }

func (n *node) SetName(name string) { n.meta.Name = name }

func (n *node) SetDescription(description string) { n.meta.Description = description }

func (n *node) SetHelpText(help string) { n.meta.HelpText = help }

func (n *node) SetHidden(hidden bool) { n.meta.Hidden = hidden }

func (n *node) SetAdvanced(advanced bool) { n.meta.Advanced = advanced }

func (n *node) SetDisplayName(display string) { n.meta.DisplayName = display }

func (n *node) ID() string { return n.id }

func (n *node) SetID(id string) {
	n.id = id
	n.this.reassignIDs()
}

// AllowImportFrom lists additional tags a lenient import accepts.
func (n *node) AllowImportFrom(tags ...string) {
	n.assignable = append(n.assignable, tags...)
}

func (n *node) AssignableFrom(tag string) bool {
	if tag == n.tag {
		return true
	}
	for _, candidate := range n.assignable {
		if candidate == tag {
			return true
		}
	}
	return false
}

// AddCheck appends validation checks run after the node's children validate.
func (n *node) AddCheck(checks ...Check) {
	for _, check := range checks {
		if check != nil {
			n.checks = append(n.checks, check)
		}
	}
}

func (n *node) Import(snapshot Snapshot, lenient bool) error {
	if snapshot.Type != n.tag {
		if !lenient {
			return &TypeMismatchError{Expected: n.tag, Got: snapshot.Type}
		}
		if !n.this.AssignableFrom(snapshot.Type) {
			return nil
		}
	}
	if err := n.this.importDesc(snapshot.Descriptor, lenient); err != nil {
		return err
	}
	if n.meta.Name == "" {
		n.meta.Name = snapshot.Name
	}
	if n.meta.Description == "" {
		n.meta.Description = snapshot.Description
	}
	if n.meta.HelpText == "" {
		n.meta.HelpText = snapshot.HelpText
	}
	n.meta.Hidden = snapshot.Hidden
	return nil
}

func (n *node) Export() (Snapshot, error) {
	descriptor, err := n.this.exportDesc()
	if err != nil {
		return Snapshot{}, err
	}
	raw, err := json.Marshal(descriptor)
	if err != nil {
		return Snapshot{}, fmt.Errorf("entity: export %q: %w", n.tag, err)
	}
	return Snapshot{
		Type:        n.tag,
		Descriptor:  raw,
		Name:        n.meta.Name,
		Description: n.meta.Description,
		HelpText:    n.meta.HelpText,
		Hidden:      n.meta.Hidden,
	}, nil
}

func (n *node) Validate() error {
	for _, ref := range n.this.children() {
		if err := ref.child.Validate(); err != nil {
			return WithPathSegment(ref.label, err)
		}
	}
	for _, check := range n.checks {
		if err := check(n.this); err != nil {
			return &ValidationError{Err: err}
		}
	}
	return nil
}

func (n *node) Clone() Entity {
	clone := n.this.cloneImpl()
	cn := clone.base()
	cn.meta = n.meta
	cn.assignable = append([]string(nil), n.assignable...)
	cn.checks = append([]Check(nil), n.checks...)
	clone.SetID(n.id)
	return clone
}

func (n *node) BuildFrom(descriptor json.RawMessage) error {
	return n.this.buildFrom(descriptor)
}

// childLabel names child in validation paths: its name when set, otherwise key.
func childLabel(key string, child Entity) string {
	if name := child.Meta().Name; name != "" {
		return name
	}
	return key
}

// adoptSnapshotMeta overwrites metadata with the non-empty fields of snapshot.
func adoptSnapshotMeta(e Entity, snapshot Snapshot) {
	n := e.base()
	if snapshot.Name != "" {
		n.meta.Name = snapshot.Name
	}
	if snapshot.Description != "" {
		n.meta.Description = snapshot.Description
	}
	if snapshot.HelpText != "" {
		n.meta.HelpText = snapshot.HelpText
	}
	n.meta.Hidden = snapshot.Hidden
}
