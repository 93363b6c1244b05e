package logger

import (
	"io"
	"log/slog"
	"os"
)

type config struct {
	level   slog.Leveler
	json    bool
	output  io.Writer
	service string
	attrs   []slog.Attr
}

// Option configures New.
type Option func(*config)

// WithDevelopment configures a text logger at debug level tagged with the service name.
func WithDevelopment(service string) Option {
	return func(c *config) {
		c.level = slog.LevelDebug
		c.json = false
		c.service = service
	}
}

// WithProduction configures a JSON logger at info level tagged with the service name.
func WithProduction(service string) Option {
	return func(c *config) {
		c.level = slog.LevelInfo
		c.json = true
		c.service = service
	}
}

// WithLevel overrides the minimum level.
func WithLevel(level slog.Leveler) Option {
	return func(c *config) {
		if level != nil {
			c.level = level
		}
	}
}

// WithJSONFormatter switches output to JSON.
func WithJSONFormatter() Option {
	return func(c *config) {
		c.json = true
	}
}

// WithTextFormatter switches output to logfmt-style text.
func WithTextFormatter() Option {
	return func(c *config) {
		c.json = false
	}
}

// WithOutput sets the destination writer. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.output = w
		}
	}
}

// WithAttr adds attributes to every record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(c *config) {
		c.attrs = append(c.attrs, attrs...)
	}
}

// New creates a logger. Without options it writes text at info level to stdout.
func New(opts ...Option) *slog.Logger {
	cfg := &config{
		level:  slog.LevelInfo,
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	handlerOpts := &slog.HandlerOptions{Level: cfg.level}

	var h slog.Handler
	if cfg.json {
		h = slog.NewJSONHandler(cfg.output, handlerOpts)
	} else {
		h = slog.NewTextHandler(cfg.output, handlerOpts)
	}

	attrs := cfg.attrs
	if cfg.service != "" {
		attrs = append([]slog.Attr{slog.String("service", cfg.service)}, attrs...)
	}
	if len(attrs) > 0 {
		h = h.WithAttrs(attrs)
	}

	return slog.New(h)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
