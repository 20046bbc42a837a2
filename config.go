package handoff

import (
	"time"

	"github.com/go-logr/logr"
	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/handoff/metrics"
)

// config holds settings shared by the orchestrator, its feeders and its drainers.
type config struct {
	// PollInterval bounds a single drainer wait on an empty open queue.
	// Default: 50ms.
	PollInterval time.Duration

	// StopOnError cancels the remaining feeders after the first source failure.
	// Default: false
	StopOnError bool

	// Logger receives structured log records. Default: logr.Discard().
	Logger logr.Logger

	// Observer receives lifecycle and item events. Default: nil (no events).
	Observer Observer

	// Metrics provides instruments. Default: metrics.NoopProvider.
	Metrics metrics.Provider

	// Sink replaces the default SliceSink when set. Stored as any because config is not generic.
	Sink any
}

const defaultPollInterval = 50 * time.Millisecond

// defaultConfig centralizes default values for config.
func defaultConfig() config {
	return config{
		PollInterval: defaultPollInterval,
		StopOnError:  false,
		Logger:       logr.Discard(),
		Observer:     nil,
		Metrics:      metrics.NewNoopProvider(),
		Sink:         nil,
	}
}

// validateConfig checks invariants that individual options cannot see on their own.
func validateConfig(cfg *config) error {
	if cfg.PollInterval <= 0 {
		return errorc.With(ErrInvalidConfig, errorc.String("pollInterval", "must be > 0"))
	}
	if cfg.Metrics == nil {
		return errorc.With(ErrInvalidConfig, errorc.String("metrics", "provider must not be nil"))
	}
	return nil
}

func buildConfig(opts []Option) (config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return cfg, err
		}
	}
	if err := validateConfig(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Option configures an Orchestrator, a Feeder or a Drainer.
// Options that do not apply to the component they are passed to are ignored.
type Option func(*config) error

// WithPollInterval sets how long a drainer waits on an empty queue before
// re-checking whether it was stopped (must be > 0).
func WithPollInterval(d time.Duration) Option {
	return func(cfg *config) error {
		if d <= 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("pollInterval", "WithPollInterval requires d > 0"))
		}
		cfg.PollInterval = d
		return nil
	}
}

// WithLogger sets the logger used by all components.
func WithLogger(l logr.Logger) Option {
	return func(cfg *config) error { cfg.Logger = l; return nil }
}

// WithObserver installs a callback receiving every emitted Event.
// The callback is invoked synchronously from feeder and drainer goroutines and must be safe for concurrent use.
func WithObserver(o Observer) Option {
	return func(cfg *config) error { cfg.Observer = o; return nil }
}

// WithMetrics sets the metrics provider.
func WithMetrics(p metrics.Provider) Option {
	return func(cfg *config) error {
		if p == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("metrics", "WithMetrics requires a non-nil provider"))
		}
		cfg.Metrics = p
		return nil
	}
}

// WithStopOnError makes the first source failure cancel all other feeders.
// The queue is still closed only after every feeder has returned.
func WithStopOnError() Option {
	return func(cfg *config) error { cfg.StopOnError = true; return nil }
}

// WithSink makes the orchestrator append drained items to s instead of a new SliceSink.
func WithSink[T any](s Sink[T]) Option {
	return func(cfg *config) error {
		if s == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("sink", "WithSink requires a non-nil sink"))
		}
		cfg.Sink = s
		return nil
	}
}
