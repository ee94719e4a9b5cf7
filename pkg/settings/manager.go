package settings

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	entity "github.com/goliatone/go-entities"
	"github.com/goliatone/go-entities/pkg/activity"
	"github.com/goliatone/go-entities/pkg/state"
	"github.com/rs/zerolog"
)

var (
	ErrNoMain           = errors.New("settings: main tree not set")
	ErrUnknownModule    = errors.New("settings: unknown module")
	ErrDuplicateModule  = errors.New("settings: module already added")
	ErrWatchUnsupported = errors.New("settings: store cannot be watched")
)

// Labels prefixed onto the validation paths of bundle failures.
const (
	MainLabel    = "Main"
	ModulesLabel = "Modules"
)

// Bundle carries the snapshots of several trees at once. A nil Main leaves
// the main tree alone.
type Bundle struct {
	Main    *entity.Snapshot           `json:"main,omitempty"`
	Modules map[string]entity.Snapshot `json:"modules,omitempty"`
}

// ConfLoadedFunc observes the plain conf of a module each time its tree is
// loaded, applied or reloaded.
type ConfLoadedFunc func(module string, conf any)

// Watcher reports snapshot changes made outside the process.
type Watcher interface {
	Watch(ctx context.Context, debounce time.Duration, fn state.ChangeFunc) error
}

type slot struct {
	module   string
	ref      state.Ref
	defaults entity.Entity
	current  entity.Entity
	meta     state.Meta
}

type staged struct {
	slot *slot
	tree entity.Entity
}

// Manager owns the committed main and module trees.
type Manager struct {
	mu        sync.RWMutex
	resolver  state.Resolver
	logger    zerolog.Logger
	emitter   *activity.Emitter
	actorID   string
	main      *slot
	modules   map[string]*slot
	order     []string
	listeners []ConfLoadedFunc
}

// New constructs a manager persisting through store.
func New(store state.Store, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("settings: store is required")
	}
	m := &Manager{
		resolver: state.Resolver{Store: store},
		logger:   zerolog.Nop(),
		modules:  map[string]*slot{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m, nil
}

// SetMain installs the defaults of the main tree and commits a copy of them.
func (m *Manager) SetMain(defaults entity.Entity) error {
	if defaults == nil {
		return fmt.Errorf("settings: main defaults are required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.main = &slot{
		ref:      state.MainRef(),
		defaults: defaults.Clone(),
		current:  defaults.Clone(),
	}
	return nil
}

// AddModule installs the defaults of module name.
func (m *Manager) AddModule(name string, defaults entity.Entity) error {
	if defaults == nil {
		return fmt.Errorf("settings: defaults of module %q are required", name)
	}
	ref := state.ModuleRef(name)
	if _, err := ref.Identifier(); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.modules[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateModule, name)
	}
	m.modules[name] = &slot{
		module:   name,
		ref:      ref,
		defaults: defaults.Clone(),
		current:  defaults.Clone(),
	}
	m.order = append(m.order, name)
	return nil
}

// Modules returns module names in the order they were added.
func (m *Manager) Modules() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...)
}

// Main returns the committed main tree. It must be treated as read-only;
// edit a DraftMain instead.
func (m *Manager) Main() (entity.Entity, error) {
	s, err := m.slotFor("")
	if err != nil {
		return nil, err
	}
	return m.current(s), nil
}

// Module returns the committed tree of module name. It must be treated as
// read-only.
func (m *Manager) Module(name string) (entity.Entity, error) {
	s, err := m.slotFor(name)
	if err != nil {
		return nil, err
	}
	return m.current(s), nil
}

// DraftMain returns an editable copy of the main tree.
func (m *Manager) DraftMain() (entity.Entity, error) {
	tree, err := m.Main()
	if err != nil {
		return nil, err
	}
	return tree.Clone(), nil
}

// DraftModule returns an editable copy of the tree of module name.
func (m *Manager) DraftModule(name string) (entity.Entity, error) {
	tree, err := m.Module(name)
	if err != nil {
		return nil, err
	}
	return tree.Clone(), nil
}

// MainConf flattens the committed main tree.
func (m *Manager) MainConf() (any, error) {
	tree, err := m.Main()
	if err != nil {
		return nil, err
	}
	return tree.ToConf(), nil
}

// ModuleConf flattens the committed tree of module name.
func (m *Manager) ModuleConf(name string) (any, error) {
	tree, err := m.Module(name)
	if err != nil {
		return nil, err
	}
	return tree.ToConf(), nil
}

// OnConfLoaded registers fn to receive module confs.
func (m *Manager) OnConfLoaded(fn ConfLoadedFunc) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// LoadMain resolves the stored main snapshot over the main defaults.
func (m *Manager) LoadMain(ctx context.Context) error {
	return m.load(ctx, "")
}

// LoadModule resolves the stored snapshot of module name over its defaults.
func (m *Manager) LoadModule(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrUnknownModule)
	}
	return m.load(ctx, name)
}

// LoadAll loads the main tree and then every module, stopping at the first
// failure.
func (m *Manager) LoadAll(ctx context.Context) error {
	if err := m.LoadMain(ctx); err != nil {
		return err
	}
	for _, name := range m.Modules() {
		if err := m.LoadModule(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) load(ctx context.Context, module string) error {
	s, err := m.slotFor(module)
	if err != nil {
		return err
	}
	tree, meta, err := m.resolver.Resolve(ctx, s.ref, s.defaults)
	if err != nil {
		err = qualify(module, err)
		m.logger.Error().Err(err).Str("tree", describe(module)).Msg("settings load failed, keeping current tree")
		m.emit(ctx, activity.BuildTreeRejectedEvent, s, s.defaults, state.Meta{}, err)
		return fmt.Errorf("settings: load %s: %w", describe(module), err)
	}

	m.mu.Lock()
	s.current = tree
	s.meta = meta
	m.mu.Unlock()

	m.logger.Info().
		Str("tree", describe(module)).
		Str("snapshot_id", meta.SnapshotID).
		Msg("settings loaded")
	m.emit(ctx, activity.BuildTreeLoadedEvent, s, tree, meta, nil)
	m.notifyConf(s, tree)
	return nil
}

// SaveMain persists the committed main tree.
func (m *Manager) SaveMain(ctx context.Context) error {
	return m.save(ctx, "")
}

// SaveModule persists the committed tree of module name.
func (m *Manager) SaveModule(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrUnknownModule)
	}
	return m.save(ctx, name)
}

// SaveAll persists the main tree and every module.
func (m *Manager) SaveAll(ctx context.Context) error {
	if err := m.SaveMain(ctx); err != nil {
		return err
	}
	for _, name := range m.Modules() {
		if err := m.SaveModule(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) save(ctx context.Context, module string) error {
	s, err := m.slotFor(module)
	if err != nil {
		return err
	}
	m.mu.RLock()
	tree, meta := s.current, s.meta
	m.mu.RUnlock()

	saved, err := m.resolver.Replace(ctx, s.ref, tree, state.Meta{ETag: meta.ETag, Extra: meta.Extra})
	if err != nil {
		return fmt.Errorf("settings: save %s: %w", describe(module), qualify(module, err))
	}

	m.mu.Lock()
	if s.current == tree {
		s.meta = saved
	}
	m.mu.Unlock()

	m.logger.Debug().
		Str("tree", describe(module)).
		Str("snapshot_id", saved.SnapshotID).
		Msg("settings saved")
	m.emit(ctx, activity.BuildTreeSavedEvent, s, tree, saved, nil)
	return nil
}

// ApplyMain commits draft as the main tree once it validates.
func (m *Manager) ApplyMain(ctx context.Context, draft entity.Entity) error {
	return m.applyDraft(ctx, "", draft)
}

// ApplyModule commits draft as the tree of module name once it validates.
func (m *Manager) ApplyModule(ctx context.Context, name string, draft entity.Entity) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrUnknownModule)
	}
	return m.applyDraft(ctx, name, draft)
}

func (m *Manager) applyDraft(ctx context.Context, module string, draft entity.Entity) error {
	s, err := m.slotFor(module)
	if err != nil {
		return err
	}
	if draft == nil {
		return fmt.Errorf("settings: draft of %s is nil", describe(module))
	}
	if draft.Type() != s.defaults.Type() {
		return fmt.Errorf("settings: %s expects a %q tree, got %q", describe(module), s.defaults.Type(), draft.Type())
	}
	if err := draft.Validate(); err != nil {
		err = qualify(module, err)
		m.emit(ctx, activity.BuildTreeRejectedEvent, s, draft, state.Meta{}, err)
		return err
	}
	return m.commit(ctx, []staged{{slot: s, tree: draft.Clone()}})
}

// ValidateAll checks that every snapshot of bundle imports strictly into a
// copy of its committed tree and that the result validates. Validation paths
// are prefixed with "Main" or with "Modules" and the module name.
func (m *Manager) ValidateAll(bundle Bundle) error {
	_, _, err := m.prepare(bundle)
	return err
}

// ApplyAll validates every snapshot of bundle and commits them together.
// Nothing is committed unless all of them pass.
func (m *Manager) ApplyAll(ctx context.Context, bundle Bundle) error {
	drafts, failed, err := m.prepare(bundle)
	if err != nil {
		if failed != nil {
			m.emit(ctx, activity.BuildTreeRejectedEvent, failed, failed.defaults, state.Meta{}, err)
		}
		return err
	}
	return m.commit(ctx, drafts)
}

func (m *Manager) prepare(bundle Bundle) ([]staged, *slot, error) {
	var drafts []staged
	if bundle.Main != nil {
		s, err := m.slotFor("")
		if err != nil {
			return nil, nil, err
		}
		tree, err := m.stage(s, *bundle.Main)
		if err != nil {
			return nil, s, err
		}
		drafts = append(drafts, staged{slot: s, tree: tree})
	}
	names := make([]string, 0, len(bundle.Modules))
	for name := range bundle.Modules {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s, err := m.slotFor(name)
		if err != nil {
			return nil, nil, err
		}
		tree, err := m.stage(s, bundle.Modules[name])
		if err != nil {
			return nil, s, err
		}
		drafts = append(drafts, staged{slot: s, tree: tree})
	}
	return drafts, nil, nil
}

func (m *Manager) stage(s *slot, snapshot entity.Snapshot) (entity.Entity, error) {
	draft := m.current(s).Clone()
	if err := draft.Import(snapshot, false); err != nil {
		return nil, fmt.Errorf("settings: import %s: %w", describe(s.module), err)
	}
	if err := draft.Validate(); err != nil {
		return nil, qualify(s.module, err)
	}
	return draft, nil
}

func (m *Manager) commit(ctx context.Context, drafts []staged) error {
	m.mu.Lock()
	for _, d := range drafts {
		d.slot.current = d.tree
	}
	m.mu.Unlock()

	for _, d := range drafts {
		m.logger.Info().Str("tree", describe(d.slot.module)).Msg("settings applied")
		m.emit(ctx, activity.BuildTreeAppliedEvent, d.slot, d.tree, state.Meta{}, nil)
		m.notifyConf(d.slot, d.tree)
	}
	return nil
}

// ExportAll snapshots the main tree, when set, and every module.
func (m *Manager) ExportAll() (Bundle, error) {
	m.mu.RLock()
	var mainTree entity.Entity
	if m.main != nil {
		mainTree = m.main.current
	}
	modules := make(map[string]entity.Entity, len(m.modules))
	for name, s := range m.modules {
		modules[name] = s.current
	}
	m.mu.RUnlock()

	bundle := Bundle{Modules: make(map[string]entity.Snapshot, len(modules))}
	if mainTree != nil {
		snapshot, err := mainTree.Export()
		if err != nil {
			return Bundle{}, fmt.Errorf("settings: export main: %w", err)
		}
		bundle.Main = &snapshot
	}
	for name, tree := range modules {
		snapshot, err := tree.Export()
		if err != nil {
			return Bundle{}, fmt.Errorf("settings: export %s: %w", describe(name), err)
		}
		bundle.Modules[name] = snapshot
	}
	return bundle, nil
}

// Watch reloads trees whose snapshots change in the store until ctx is
// cancelled. The store must implement Watcher. A reload that fails keeps the
// committed tree.
func (m *Manager) Watch(ctx context.Context, debounce time.Duration) error {
	watcher, ok := m.resolver.Store.(Watcher)
	if !ok {
		return ErrWatchUnsupported
	}
	return watcher.Watch(ctx, debounce, func(ref state.Ref) {
		m.reload(ctx, ref)
	})
}

func (m *Manager) reload(ctx context.Context, ref state.Ref) {
	module := ""
	if ref.Namespace == state.NamespaceModules {
		module = ref.Name
	}
	s, err := m.slotFor(module)
	if err != nil {
		m.logger.Debug().Str("namespace", ref.Namespace).Str("name", ref.Name).Msg("ignoring change to unmanaged tree")
		return
	}
	tree, meta, err := m.resolver.Resolve(ctx, s.ref, s.defaults)
	if err != nil {
		err = qualify(module, err)
		m.logger.Error().Err(err).Str("tree", describe(module)).Msg("settings reload failed, keeping current tree")
		m.emit(ctx, activity.BuildTreeRejectedEvent, s, s.defaults, state.Meta{}, err)
		return
	}

	m.mu.Lock()
	if meta.ETag != "" && meta.ETag == s.meta.ETag {
		m.mu.Unlock()
		return
	}
	s.current = tree
	s.meta = meta
	m.mu.Unlock()

	m.logger.Info().
		Str("tree", describe(module)).
		Str("snapshot_id", meta.SnapshotID).
		Msg("settings reloaded")
	m.emit(ctx, activity.BuildTreeReloadedEvent, s, tree, meta, nil)
	m.notifyConf(s, tree)
}

func (m *Manager) slotFor(module string) (*slot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if module == "" {
		if m.main == nil {
			return nil, ErrNoMain
		}
		return m.main, nil
	}
	s, ok := m.modules[module]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModule, module)
	}
	return s, nil
}

func (m *Manager) current(s *slot) entity.Entity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return s.current
}

func (m *Manager) notifyConf(s *slot, tree entity.Entity) {
	if s.module == "" {
		return
	}
	m.mu.RLock()
	listeners := append([]ConfLoadedFunc(nil), m.listeners...)
	m.mu.RUnlock()
	if len(listeners) == 0 {
		return
	}
	conf := tree.ToConf()
	for _, fn := range listeners {
		fn(s.module, conf)
	}
}

func (m *Manager) emit(ctx context.Context, build func(activity.TreeEventInput) activity.Event, s *slot, tree entity.Entity, meta state.Meta, err error) {
	if !m.emitter.Enabled() {
		return
	}
	id, _ := s.ref.Identifier()
	input := activity.TreeEventInput{
		ActorID:    m.actorID,
		Tree:       id,
		SnapshotID: meta.SnapshotID,
		Path:       entity.PathOf(err),
		Err:        err,
		OccurredAt: time.Now().UTC(),
	}
	if tree != nil {
		input.EntityType = tree.Type()
	}
	_ = m.emitter.Emit(ctx, build(input))
}

// qualify prefixes the validation path of err with the location of the tree
// inside a bundle.
func qualify(module string, err error) error {
	var verr *entity.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	if module == "" {
		return entity.WithPathSegment(MainLabel, err)
	}
	return entity.WithPathSegment(ModulesLabel, entity.WithPathSegment(module, err))
}

func describe(module string) string {
	if module == "" {
		return "main"
	}
	return fmt.Sprintf("module %q", module)
}
