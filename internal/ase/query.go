package ase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Transport defaults.
const (
	DefaultTimeout    = 3 * time.Second
	DefaultBufferSize = 8192
)

// Options configures a single query.
type Options struct {
	Logger     *zerolog.Logger
	Variant    Variant
	Timeout    time.Duration
	BufferSize int
}

// Option is a functional option for QueryPlayers.
type Option func(*Options)

// DefaultOptions returns the options used when none are given.
func DefaultOptions() *Options {
	return &Options{
		Variant:    DefaultVariant,
		Timeout:    DefaultTimeout,
		BufferSize: DefaultBufferSize,
	}
}

// WithTimeout bounds the wait for the reply datagram.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

// WithVariant selects the request payload and header handling.
func WithVariant(v Variant) Option {
	return func(o *Options) { o.Variant = v }
}

// WithBufferSize sets the receive buffer size. Longer datagrams are cut.
func WithBufferSize(n int) Option {
	return func(o *Options) { o.BufferSize = n }
}

// WithLogger routes stage events to l instead of the global logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// QueryPlayers asks the MTA server whose game port is port for its roster.
// It performs exactly one request/response exchange with no retry.
func QueryPlayers(ctx context.Context, host string, port int, opts ...Option) (*Result, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	logger := o.Logger
	if logger == nil {
		logger = &log.Logger
	}

	start := time.Now()
	buf, err := Exchange(ctx, host, port, o.Variant, o.Timeout, o.BufferSize)
	if err != nil {
		logger.Debug().Err(err).Stringer("kind", KindOf(err)).Msg("ASE exchange failed")
		return nil, err
	}
	elapsed := time.Since(start)

	res, err := Decode(buf, o.Variant, logger)
	if err != nil {
		logger.Debug().Err(err).Stringer("kind", KindOf(err)).Msg("ASE reply rejected")
		return nil, err
	}
	res.Elapsed = elapsed

	return res, nil
}
