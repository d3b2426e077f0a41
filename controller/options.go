package controller

import (
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	paging "github.com/nrfta/feed-paging"
	"github.com/nrfta/feed-paging/query"
)

const tracerName = "github.com/nrfta/feed-paging/controller"

// Option configures a Controller.
type Option func(*options)

type options struct {
	logger  *zap.Logger
	config  *paging.Config
	filter  query.FilterSpec
	timeout time.Duration
	tracer  trace.Tracer
}

func defaultOptions() *options {
	return &options{
		logger: zap.NewNop(),
		config: paging.NewConfig(),
		tracer: otel.Tracer(tracerName),
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithConfig sets the page size and cache capacity.
func WithConfig(cfg *paging.Config) Option {
	return func(o *options) {
		if cfg != nil {
			o.config = cfg
		}
	}
}

// WithFilter sets the filter of the first epoch.
func WithFilter(spec query.FilterSpec) Option {
	return func(o *options) {
		o.filter = spec
	}
}

// WithTimeout bounds every remote fetch. Zero means no bound beyond the
// fetcher's own.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithTracer overrides the tracer used for fetch spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}
