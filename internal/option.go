package internal

import "github.com/starford/gebo/internal/syncer"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	notify syncer.EventFunc
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithNotify registers an observer for sync progress events. In serve mode
// events additionally flow to SSE subscribers; the observer sees them too.
func WithNotify(fn syncer.EventFunc) Option {
	return func(a *application) {
		a.notify = fn
	}
}
