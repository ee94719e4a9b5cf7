package activity

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// DefaultChannel is applied to events emitted without a channel.
const DefaultChannel = "settings"

// Config controls activity emission.
type Config struct {
	Enabled bool
	Channel string
}

// Emitter applies defaults and forwards events to hooks. Hook failures are
// logged and returned; they never block the settings operation that caused
// the event.
type Emitter struct {
	hooks   Hooks
	enabled bool
	channel string
	logger  zerolog.Logger
}

// NewEmitter constructs an emitter that logs hook failures nowhere until
// WithLogger is called.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = DefaultChannel
	}
	var kept Hooks
	for _, hook := range hooks {
		if hook != nil {
			kept = append(kept, hook)
		}
	}
	return &Emitter{
		hooks:   kept,
		enabled: cfg.Enabled && len(kept) > 0,
		channel: channel,
		logger:  zerolog.Nop(),
	}
}

// WithLogger sets the logger used to report hook failures.
func (e *Emitter) WithLogger(logger zerolog.Logger) *Emitter {
	e.logger = logger
	return e
}

func (e *Emitter) Enabled() bool {
	return e != nil && e.enabled
}

// Emit forwards event to the hooks when the emitter is enabled.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	if err := e.hooks.Notify(ctx, event); err != nil {
		e.logger.Warn().Err(err).
			Str("verb", event.Verb).
			Str("object_id", event.ObjectID).
			Msg("activity hook failed")
		return err
	}
	return nil
}
