package settings

import (
	"github.com/goliatone/go-entities/pkg/activity"
	"github.com/rs/zerolog"
)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the structured logger. The default discards output.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithEmitter routes lifecycle events to emitter.
func WithEmitter(emitter *activity.Emitter) Option {
	return func(m *Manager) {
		m.emitter = emitter
	}
}

// WithActor stamps actorID on emitted events.
func WithActor(actorID string) Option {
	return func(m *Manager) {
		m.actorID = actorID
	}
}
