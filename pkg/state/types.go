package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	entity "github.com/goliatone/go-entities"
	"github.com/google/uuid"
)

var ErrETagMismatch = errors.New("state: etag mismatch")

// Namespaces accepted by Ref.
const (
	NamespaceMain    = "main"
	NamespaceModules = "modules"
)

// Ref identifies one persisted snapshot.
type Ref struct {
	Namespace string
	Name      string
}

// MainRef addresses the main configuration tree.
func MainRef() Ref { return Ref{Namespace: NamespaceMain} }

// ModuleRef addresses the configuration tree of module name.
func ModuleRef(name string) Ref { return Ref{Namespace: NamespaceModules, Name: name} }

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty" yaml:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty" yaml:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Store loads/saves one snapshot for a single reference.
type Store interface {
	Load(ctx context.Context, ref Ref) (snapshot entity.Snapshot, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, snapshot entity.Snapshot, meta Meta) (Meta, error)
}

// Resolver merges persisted snapshots into defaults and persists edits.
type Resolver struct {
	Store Store
}

// Mutator edits a resolved tree in place.
type Mutator func(tree entity.Entity) error

func (r Ref) Identifier() (string, error) {
	switch r.Namespace {
	case NamespaceMain:
		return NamespaceMain, nil
	case NamespaceModules:
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return "", fmt.Errorf("missing module name for namespace %q", r.Namespace)
		}
		if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
			return "", fmt.Errorf("invalid module name %q", r.Name)
		}
		return NamespaceModules + "/" + name, nil
	default:
		return "", fmt.Errorf("unsupported namespace %q", r.Namespace)
	}
}

// Resolve returns a validated clone of defaults with the snapshot stored under
// ref imported leniently. A missing snapshot yields the defaults.
func (r Resolver) Resolve(ctx context.Context, ref Ref, defaults entity.Entity) (entity.Entity, Meta, error) {
	if r.Store == nil {
		return nil, Meta{}, fmt.Errorf("state: store is required")
	}
	if defaults == nil {
		return nil, Meta{}, fmt.Errorf("state: defaults are required")
	}

	snapshot, meta, ok, err := r.Store.Load(ctx, ref)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("state: load %s: %w", describeRef(ref), err)
	}
	var layers []entity.Layer
	if ok {
		scope := entity.NewScope("persisted", entity.ScopePriorityPersisted, entity.WithScopeLabel("Persisted"))
		layers = append(layers, entity.NewLayer(scope, snapshot,
			entity.WithSnapshotID(meta.SnapshotID),
			entity.WithLenientImport(),
		))
	}

	stack, err := entity.NewStack(layers...)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("state: stack: %w", err)
	}
	tree, err := stack.Apply(defaults)
	if err != nil {
		return nil, meta, fmt.Errorf("state: resolve %s: %w", describeRef(ref), err)
	}
	return tree, meta, nil
}

// Mutate resolves ref, applies fn to the resolved tree, validates it and
// saves its export. meta.ETag, when set, must match the stored snapshot.
func (r Resolver) Mutate(ctx context.Context, ref Ref, defaults entity.Entity, meta Meta, fn Mutator) (entity.Entity, Meta, error) {
	if fn == nil {
		return nil, Meta{}, fmt.Errorf("state: mutator is required")
	}
	tree, loadedMeta, err := r.Resolve(ctx, ref, defaults)
	if err != nil {
		return nil, Meta{}, err
	}
	if meta.ETag != "" && loadedMeta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return nil, loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}
	if err := fn(tree); err != nil {
		return nil, loadedMeta, err
	}
	saved, err := r.save(ctx, ref, tree, mergeMeta(loadedMeta, meta))
	if err != nil {
		return nil, loadedMeta, err
	}
	return tree, saved, nil
}

// Replace validates tree and saves its export under ref.
func (r Resolver) Replace(ctx context.Context, ref Ref, tree entity.Entity, meta Meta) (Meta, error) {
	if r.Store == nil {
		return Meta{}, fmt.Errorf("state: store is required")
	}
	if tree == nil {
		return Meta{}, fmt.Errorf("state: tree is required")
	}
	return r.save(ctx, ref, tree, meta)
}

func (r Resolver) save(ctx context.Context, ref Ref, tree entity.Entity, meta Meta) (Meta, error) {
	if err := tree.Validate(); err != nil {
		return Meta{}, fmt.Errorf("state: validate %s: %w", describeRef(ref), err)
	}
	snapshot, err := tree.Export()
	if err != nil {
		return Meta{}, fmt.Errorf("state: export %s: %w", describeRef(ref), err)
	}
	meta.SnapshotID = uuid.NewString()
	meta.UpdatedAt = time.Now().UTC()
	saved, err := r.Store.Save(ctx, ref, snapshot, meta)
	if err != nil {
		return Meta{}, fmt.Errorf("state: save %s: %w", describeRef(ref), err)
	}
	return saved, nil
}

func describeRef(ref Ref) string {
	if id, err := ref.Identifier(); err == nil {
		return fmt.Sprintf("%q", id)
	}
	return fmt.Sprintf("%s/%s", ref.Namespace, ref.Name)
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}
