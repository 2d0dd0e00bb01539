// Package dispatcher routes CLI subcommands to their handlers and wraps them
// with logging and metrics.
package dispatcher

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Event is one subcommand invocation with its positional arguments.
type Event struct {
	Command   string
	Args      []string
	Timestamp time.Time
}

// HandlerFunc runs one subcommand and returns its result.
type HandlerFunc func(Event) (any, error)

// Logger is the minimal logging surface the dispatcher needs. A *slog.Logger
// satisfies it directly.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*config)

type config struct {
	logged bool
}

// Logged wraps the handler with start/finish debug logging and error
// reporting.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

// Dispatcher maps command names to their handlers.
type Dispatcher struct {
	handlers map[string]HandlerFunc
	logger   Logger

	processed metric.Int64Counter
	failed    metric.Int64Counter
}

// New creates a Dispatcher. Metrics come from the global OTel provider and
// are no-ops when none is configured.
func New(logger Logger) *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
	}

	m := meter()
	var err error
	d.processed, err = m.Int64Counter(
		"dispatcher.commands.processed",
		metric.WithDescription("Total commands dispatched"),
	)
	if err != nil {
		logger.Error("Failed to create processed counter", "error", err)
	}
	d.failed, err = m.Int64Counter(
		"dispatcher.commands.failed",
		metric.WithDescription("Total commands that returned an error"),
	)
	if err != nil {
		logger.Error("Failed to create failed counter", "error", err)
	}

	return d
}

// Register adds a handler for the given command.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.logged {
		h = d.withLogging(command, h)
	}
	d.handlers[command] = h
}

// Dispatch runs the handler registered for the event's command.
func (d *Dispatcher) Dispatch(e Event) (any, error) {
	h, ok := d.handlers[e.Command]
	if !ok {
		return nil, fmt.Errorf("unknown command: %s", e.Command)
	}

	result, err := h(e)

	attrs := metric.WithAttributes(attribute.String("command", e.Command))
	if d.processed != nil {
		d.processed.Add(context.Background(), 1, attrs)
	}
	if err != nil && d.failed != nil {
		d.failed.Add(context.Background(), 1, attrs)
	}
	return result, err
}

// HasHandler returns true if a handler is registered for the command.
func (d *Dispatcher) HasHandler(command string) bool {
	_, ok := d.handlers[command]
	return ok
}

func (d *Dispatcher) withLogging(command string, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		start := time.Now()
		d.logger.Debug("Running command", "command", command, "args", len(e.Args))

		result, err := h(e)

		if err != nil {
			d.logger.Error("Command failed", "command", command, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("Command finished", "command", command, "duration", time.Since(start))
		}
		return result, err
	}
}
