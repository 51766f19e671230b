// Package retry runs an operation with capped exponential backoff, retrying
// only transient failures.
package retry

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pfrederiksen/vols1365/internal/client"
	"github.com/pfrederiksen/vols1365/internal/logger"
)

// Policy bounds the retry schedule. The wait before retry n is
// min(Max, Initial * Multiplier^(n-1)) scaled by a random factor in
// [1-Jitter, 1+Jitter].
type Policy struct {
	MaxRetries int
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64
}

// DefaultPolicy retries up to five times starting at 500ms, doubling up to
// 6s, with ±30% jitter.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 5,
		Initial:    500 * time.Millisecond,
		Max:        6 * time.Second,
		Multiplier: 2,
		Jitter:     0.3,
	}
}

// WithMaxRetries returns a copy of p allowing n retries.
func (p Policy) WithMaxRetries(n int) Policy {
	p.MaxRetries = n
	return p
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Initial
	b.MaxInterval = p.Max
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = p.Jitter
	b.MaxElapsedTime = 0
	b.Reset()

	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// Do runs op until it succeeds, fails with a non-retriable error, runs out of
// retries, or ctx is done. The last error is returned. name labels the
// warning logged before each retry.
func Do(ctx context.Context, name string, p Policy, op func(ctx context.Context) error) error {
	attempt := 0
	operation := func() error {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !IsRetriable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		logger.IncrCounter("retry.attempts")
		logger.Warn("retrying request", logger.Fields{
			"op":      name,
			"attempt": attempt,
			"wait_ms": wait.Milliseconds(),
			"error":   err.Error(),
		})
	}

	err := backoff.RetryNotify(operation, p.backOff(ctx), notify)
	if err != nil && ctx.Err() != nil && !errors.Is(err, ctx.Err()) {
		return ctx.Err()
	}
	return err
}

// IsRetriable reports whether err is a transient failure: a timeout, a reset,
// refused or aborted connection, a DNS failure, HTTP 429 or HTTP 5xx.
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}

	var se *client.StatusError
	if errors.As(err, &se) {
		return se.Retriable()
	}

	// A per-request timeout surfaces as DeadlineExceeded. Cancellation of the
	// caller's context is filtered out by Do before this is consulted.
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return false
}
