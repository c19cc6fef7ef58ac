package rio

import (
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jmgilman/go/rio/fs/billy"
	"github.com/jmgilman/go/rio/internal/uri"
	"github.com/jmgilman/go/rio/scheme"
)

// Options contains configuration for a Table.
type Options struct {
	// Schemes resolves URI schemes to backends.
	// If nil, a registry serving "file" and "mem" is used.
	Schemes *scheme.Registry

	// Clock timestamps transfers for the throughput statistics.
	// If nil, the real clock is used.
	Clock clock.Clock

	// Logger receives open/close and leak diagnostics.
	// If nil, logging is discarded.
	Logger *slog.Logger

	// Registerer receives the table's Prometheus collectors.
	// If nil, metrics are collected but not registered.
	Registerer prometheus.Registerer

	// Normalizer turns caller paths into URIs.
	// If nil, absolute and relative local paths become file:// URIs and anything
	// carrying a scheme is passed through.
	Normalizer func(path string) (string, error)
}

// Option is a functional option for configuring a Table.
type Option func(*Options)

// WithSchemes sets the scheme registry used to select backends.
func WithSchemes(r *scheme.Registry) Option {
	return func(opts *Options) {
		opts.Schemes = r
	}
}

// WithClock sets the clock used to time transfers.
// Tests typically pass a *clock.Mock.
func WithClock(c clock.Clock) Option {
	return func(opts *Options) {
		opts.Clock = c
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = l
	}
}

// WithRegisterer registers the table's metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(opts *Options) {
		opts.Registerer = reg
	}
}

// WithNormalizer replaces the path-to-URI normalization.
func WithNormalizer(fn func(path string) (string, error)) Option {
	return func(opts *Options) {
		opts.Normalizer = fn
	}
}

func defaultOptions() *Options {
	return &Options{}
}

// fill replaces unset fields with their defaults.
func (o *Options) fill() {
	if o.Schemes == nil {
		o.Schemes = scheme.New(billy.NewLocal(), billy.NewMemory())
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Normalizer == nil {
		o.Normalizer = uri.Normalize
	}
}
