package backend

import (
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	mi "github.com/cschleiden/swf-workers/internal/metrics"
	"github.com/cschleiden/swf-workers/metrics"
)

type Options struct {
	Logger *slog.Logger

	Metrics metrics.Client

	TracerProvider trace.TracerProvider

	Clock clock.Clock

	// PollTimeout is how long a poll waits for a task before returning an empty task. The SWF
	// service defines its own long-poll interval of 60 seconds and ignores this value.
	PollTimeout time.Duration

	// ActivityTaskTimeout determines how long a started activity task may run before it times out
	// and its token becomes invalid. Only used by the local orchestrator.
	ActivityTaskTimeout time.Duration

	// DecisionTaskTimeout determines how long a started decision task may take before it times out
	// and its token becomes invalid. Only used by the local orchestrator.
	DecisionTaskTimeout time.Duration
}

var DefaultOptions Options = Options{
	PollTimeout:         30 * time.Second,
	ActivityTaskTimeout: 5 * time.Minute,
	DecisionTaskTimeout: 30 * time.Second,

	Logger:         slog.Default(),
	Metrics:        mi.NewNoopMetricsClient(),
	TracerProvider: noop.NewTracerProvider(),
	Clock:          clock.New(),
}

type BackendOption func(*Options)

func WithLogger(logger *slog.Logger) BackendOption {
	return func(o *Options) {
		o.Logger = logger
	}
}

func WithMetrics(client metrics.Client) BackendOption {
	return func(o *Options) {
		o.Metrics = client
	}
}

func WithTracerProvider(tp trace.TracerProvider) BackendOption {
	return func(o *Options) {
		o.TracerProvider = tp
	}
}

func WithClock(clock clock.Clock) BackendOption {
	return func(o *Options) {
		o.Clock = clock
	}
}

func WithPollTimeout(timeout time.Duration) BackendOption {
	return func(o *Options) {
		o.PollTimeout = timeout
	}
}

func WithActivityTaskTimeout(timeout time.Duration) BackendOption {
	return func(o *Options) {
		o.ActivityTaskTimeout = timeout
	}
}

func WithDecisionTaskTimeout(timeout time.Duration) BackendOption {
	return func(o *Options) {
		o.DecisionTaskTimeout = timeout
	}
}

func ApplyOptions(opts ...BackendOption) Options {
	options := DefaultOptions

	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	if options.Metrics == nil {
		options.Metrics = mi.NewNoopMetricsClient()
	}

	if options.TracerProvider == nil {
		options.TracerProvider = noop.NewTracerProvider()
	}

	if options.Clock == nil {
		options.Clock = clock.New()
	}

	return options
}
