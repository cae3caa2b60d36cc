package ntp

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"
)

// Result is the outcome of the latest check.
type Result struct {
	CheckedAt time.Time     `json:"checked_at"`
	Host      string        `json:"host"`
	Error     string        `json:"error,omitempty"`
	Offset    time.Duration `json:"offset_ns"`
	Threshold time.Duration `json:"threshold_ns"`
	Drifted   bool          `json:"drifted"`
}

// OffsetFunc measures the clock offset. Offset is the production implementation.
type OffsetFunc func(ctx context.Context, host string, timeout time.Duration) (time.Duration, error)

// Checker measures the offset periodically and keeps the last result.
type Checker struct {
	clock     clock.Clock
	measure   OffsetFunc
	last      *Result
	host      string
	interval  time.Duration
	threshold time.Duration
	timeout   time.Duration
	mu        sync.RWMutex
}

// NewChecker creates a checker. A nil clock uses the wall clock.
func NewChecker(host string, interval, threshold, timeout time.Duration, clk clock.Clock) *Checker {
	if clk == nil {
		clk = clock.New()
	}
	return &Checker{
		clock:     clk,
		measure:   Offset,
		host:      host,
		interval:  interval,
		threshold: threshold,
		timeout:   timeout,
	}
}

// WithOffsetFunc replaces the measurement, mostly for tests.
func (c *Checker) WithOffsetFunc(fn OffsetFunc) *Checker {
	c.measure = fn
	return c
}

// Run checks once immediately and then every interval until ctx is done.
func (c *Checker) Run(ctx context.Context) {
	if c.interval <= 0 {
		return
	}

	ticker := c.clock.Ticker(c.interval)
	defer ticker.Stop()

	for {
		c.Check(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Check measures the offset now and stores the result.
func (c *Checker) Check(ctx context.Context) Result {
	offset, err := c.measure(ctx, c.host, c.timeout)

	res := Result{
		CheckedAt: c.clock.Now(),
		Host:      c.host,
		Offset:    offset,
		Threshold: c.threshold,
	}

	logger := log.With().Str("ntp_host", c.host).Logger()
	switch {
	case err != nil:
		res.Error = err.Error()
		logger.Warn().Err(err).Msg("Clock offset check failed")
	case abs(offset) > c.threshold:
		res.Drifted = true
		logger.Warn().Dur("offset", offset).Dur("threshold", c.threshold).Msg("Clock is out of sync")
	default:
		logger.Info().Dur("offset", offset).Msg("Clock offset checked")
	}

	c.mu.Lock()
	c.last = &res
	c.mu.Unlock()

	return res
}

// Last returns the latest result, or nil before the first check.
func (c *Checker) Last() *Result {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.last == nil {
		return nil
	}
	res := *c.last
	return &res
}

func abs(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
