package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	entity "github.com/goliatone/go-entities"
	"github.com/goliatone/go-entities/pkg/activity"
	"github.com/goliatone/go-entities/pkg/botschema"
	"github.com/goliatone/go-entities/pkg/settings"
	"github.com/goliatone/go-entities/pkg/state"
	"github.com/goliatone/go-entities/schema/openapi"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	mainTree = "main"
	actorID  = "entityctl"
)

type app struct {
	viper      *viper.Viper
	configFile string
	config     cliConfig
	format     state.Format
	logger     zerolog.Logger
	out        io.Writer
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := loadConfig(a.viper, a.configFile)
	if err != nil {
		return err
	}
	format, err := state.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return err
	}
	a.config = cfg
	a.format = format
	a.logger = logger
	return nil
}

// defaultsFor builds the default tree named by tree without touching storage.
func defaultsFor(reg *entity.Registry, tree string) entity.Entity {
	if tree == mainTree {
		return botschema.NewMain(reg)
	}
	return botschema.NewModule(reg, tree)
}

// openManager loads the main tree and every known module. Modules come from
// the store, the configuration and extra.
func (a *app) openManager(ctx context.Context, extra ...string) (*settings.Manager, *entity.Registry, error) {
	reg, err := botschema.NewRegistry()
	if err != nil {
		return nil, nil, err
	}
	store := state.NewFileStore(a.config.Dir, state.WithFormat(a.format), state.WithLogger(a.logger))
	emitter := activity.NewEmitter(
		activity.Hooks{logHook(a.logger)},
		activity.Config{Enabled: true},
	).WithLogger(a.logger)

	m, err := settings.New(store,
		settings.WithLogger(a.logger),
		settings.WithEmitter(emitter),
		settings.WithActor(actorID),
	)
	if err != nil {
		return nil, nil, err
	}
	if err := m.SetMain(botschema.NewMain(reg)); err != nil {
		return nil, nil, err
	}
	names, err := moduleNames(ctx, store, append(append([]string(nil), a.config.Modules...), extra...))
	if err != nil {
		return nil, nil, err
	}
	for _, name := range names {
		if err := m.AddModule(name, botschema.NewModule(reg, name)); err != nil {
			return nil, nil, err
		}
	}
	return m, reg, nil
}

func moduleNames(ctx context.Context, store *state.FileStore, configured []string) ([]string, error) {
	refs, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	for _, ref := range refs {
		if ref.Namespace == state.NamespaceModules {
			seen[ref.Name] = struct{}{}
		}
	}
	for _, name := range configured {
		if name != "" && name != mainTree {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (a *app) loadTree(ctx context.Context, tree string) (entity.Entity, *entity.Registry, error) {
	var extra []string
	if tree != mainTree {
		extra = append(extra, tree)
	}
	m, reg, err := a.openManager(ctx, extra...)
	if err != nil {
		return nil, nil, err
	}
	if tree == mainTree {
		if err := m.LoadMain(ctx); err != nil {
			return nil, nil, err
		}
		loaded, err := m.Main()
		return loaded, reg, err
	}
	if err := m.LoadModule(ctx, tree); err != nil {
		return nil, nil, err
	}
	loaded, err := m.Module(tree)
	return loaded, reg, err
}

func (a *app) runDefaults(tree string) error {
	reg, err := botschema.NewRegistry()
	if err != nil {
		return err
	}
	snapshot, err := defaultsFor(reg, tree).Export()
	if err != nil {
		return err
	}
	payload, err := state.Encode(a.format, snapshot)
	if err != nil {
		return err
	}
	_, err = a.out.Write(payload)
	return err
}

func (a *app) runValidate(ctx context.Context) error {
	m, _, err := a.openManager(ctx)
	if err != nil {
		return err
	}
	var failures []error
	check := func(label string, err error) {
		if err == nil {
			fmt.Fprintf(a.out, "ok      %s\n", label)
			return
		}
		if path := entity.PathOf(err); len(path) > 0 {
			fmt.Fprintf(a.out, "invalid %s at %s: %v\n", label, entity.FormatPath(path), err)
		} else {
			fmt.Fprintf(a.out, "invalid %s: %v\n", label, err)
		}
		failures = append(failures, err)
	}
	check(mainTree, m.LoadMain(ctx))
	for _, name := range m.Modules() {
		check(name, m.LoadModule(ctx, name))
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d tree(s) failed validation: %w", len(failures), errors.Join(failures...))
	}
	return nil
}

func (a *app) runConf(ctx context.Context, tree string) error {
	loaded, _, err := a.loadTree(ctx, tree)
	if err != nil {
		return err
	}
	return a.write(loaded.ToConf())
}

func (a *app) runDescribe(ctx context.Context, tree string) error {
	loaded, _, err := a.loadTree(ctx, tree)
	if err != nil {
		return err
	}
	return a.write(entity.Describe(loaded))
}

func (a *app) runSchema(tree, title string) error {
	reg, err := botschema.NewRegistry()
	if err != nil {
		return err
	}
	root := defaultsFor(reg, tree)
	opts := []openapi.GeneratorOption{openapi.WithRegistry(reg)}
	if title != "" {
		opts = append(opts, openapi.WithInfo(title, version))
	}
	doc, err := openapi.NewGenerator(opts...).Generate(root)
	if err != nil {
		return err
	}
	return a.write(doc.Document)
}

func (a *app) runEval(ctx context.Context, tree, engine, expression string) error {
	loaded, _, err := a.loadTree(ctx, tree)
	if err != nil {
		return err
	}
	result, err := entity.Evaluate(loaded, expression,
		entity.RuleEngine(engine),
		entity.RuleWithLogger(ruleLogger(a.logger)),
	)
	if err != nil {
		return err
	}
	return a.write(result)
}

func (a *app) runApply(ctx context.Context, path string, dryRun bool) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read bundle: %w", err)
	}
	var bundle settings.Bundle
	if err := json.Unmarshal(payload, &bundle); err != nil {
		return fmt.Errorf("decode bundle %s: %w", path, err)
	}
	names := make([]string, 0, len(bundle.Modules))
	for name := range bundle.Modules {
		names = append(names, name)
	}
	m, _, err := a.openManager(ctx, names...)
	if err != nil {
		return err
	}
	if err := m.LoadAll(ctx); err != nil {
		return err
	}
	if dryRun {
		if err := m.ValidateAll(bundle); err != nil {
			return reportPath(a.out, err)
		}
		fmt.Fprintln(a.out, "bundle is valid")
		return nil
	}
	if err := m.ApplyAll(ctx, bundle); err != nil {
		return reportPath(a.out, err)
	}
	if err := m.SaveAll(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "saved %s\n", a.config.Dir)
	return nil
}

func (a *app) runWatch(ctx context.Context, debounce time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, _, err := a.openManager(ctx)
	if err != nil {
		return err
	}
	if err := m.LoadAll(ctx); err != nil {
		return err
	}
	m.OnConfLoaded(func(module string, _ any) {
		a.logger.Info().Str("module", module).Msg("module conf reloaded")
	})
	a.logger.Info().Str("dir", a.config.Dir).Dur("debounce", debounce).Msg("watching settings")
	if err := m.Watch(ctx, debounce); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func reportPath(w io.Writer, err error) error {
	if path := entity.PathOf(err); len(path) > 0 {
		fmt.Fprintf(w, "invalid at %s\n", entity.FormatPath(path))
	}
	return err
}

// write renders v in the output format. YAML goes through JSON first so both
// formats share field names.
func (a *app) write(v any) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	if a.format != state.FormatYAML {
		_, err = a.out.Write(append(payload, '\n'))
		return err
	}
	var generic any
	if err := json.Unmarshal(payload, &generic); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(generic); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	_, err = a.out.Write(buf.Bytes())
	return err
}

func logHook(logger zerolog.Logger) activity.ActivityHook {
	return activity.HookFunc(func(_ context.Context, event activity.Event) error {
		entry := logger.Debug()
		if event.Verb == activity.VerbTreeRejected {
			entry = logger.Warn()
		}
		entry.Str("verb", event.Verb).
			Str("tree", event.ObjectID).
			Interface("metadata", event.Metadata).
			Msg("settings activity")
		return nil
	})
}

func ruleLogger(logger zerolog.Logger) entity.RuleLogger {
	return entity.RuleLoggerFunc(func(event entity.RuleLogEvent) {
		logger.Debug().
			Str("engine", event.Engine).
			Str("expr", event.Expr).
			Dur("duration", event.Duration).
			Err(event.Err).
			Msg("expression evaluated")
	})
}
