package internal

import "github.com/holotome/htconv/internal/convert"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	writer convert.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithWriter replaces the combined-container writer, e.g. for tests.
func WithWriter(w convert.Writer) Option {
	return func(a *application) {
		a.writer = w
	}
}
