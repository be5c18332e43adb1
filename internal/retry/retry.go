// Package retry retries transient backend failures with exponential backoff.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"time"
)

// Defaults used by DefaultConfig and for out-of-range Config values.
const (
	DefaultMaxRetries       = 3
	DefaultBaseDelay        = 2 * time.Second
	DefaultMaxJitterPercent = 25
)

// Config controls how Do retries a backend call.
type Config struct {
	MaxRetries       int
	BaseDelay        time.Duration
	MaxJitterPercent int

	// Logger receives retry decisions; nil disables logging.
	Logger *slog.Logger
	// OnRetry is called before each wait.
	OnRetry func(delay time.Duration, attempt, max int)
	// Classify overrides IsRetryable when set.
	Classify func(error) bool
}

// DefaultConfig returns three retries starting at two seconds with 25% jitter.
func DefaultConfig() Config {
	return Config{
		MaxRetries:       DefaultMaxRetries,
		BaseDelay:        DefaultBaseDelay,
		MaxJitterPercent: DefaultMaxJitterPercent,
	}
}

// Do runs op until it succeeds, fails with a non-retryable error, or the
// retry budget is spent. The last error is returned unchanged.
// A MaxRetries of zero means a single attempt.
func Do[T any](ctx context.Context, cfg Config, op func(context.Context) (T, error)) (T, error) {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.MaxJitterPercent < 0 || cfg.MaxJitterPercent > 100 {
		cfg.MaxJitterPercent = DefaultMaxJitterPercent
	}
	classify := cfg.Classify
	if classify == nil {
		classify = IsRetryable
	}

	var (
		out T
		err error
	)
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		out, err = op(ctx)
		if err == nil {
			return out, nil
		}

		if !classify(err) {
			if cfg.Logger != nil {
				cfg.Logger.Debug("non-retryable error, stopping", "error", err)
			}
			return out, err
		}

		if attempt >= cfg.MaxRetries {
			if cfg.Logger != nil {
				cfg.Logger.Warn("retry attempts exhausted", "retries", cfg.MaxRetries, "error", err)
			}
			return out, err
		}

		delay := CalculateDelay(cfg.BaseDelay, attempt, cfg.MaxJitterPercent)
		if cfg.OnRetry != nil {
			cfg.OnRetry(delay, attempt+1, cfg.MaxRetries)
		}
		if cfg.Logger != nil {
			cfg.Logger.Info("retrying after transient error",
				"delay", delay.Round(time.Millisecond), "attempt", attempt+1, "max", cfg.MaxRetries, "error", err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return out, ctx.Err()
		case <-timer.C:
		}
	}

	return out, err
}

// CalculateDelay doubles base for every previous attempt and adds up to
// maxJitterPercent of the result as random jitter.
func CalculateDelay(base time.Duration, attempt, maxJitterPercent int) time.Duration {
	d := base << uint(attempt)
	if maxJitterPercent <= 0 {
		return d
	}
	spread := float64(d) * float64(maxJitterPercent) / 100
	return d + time.Duration(rand.Float64()*spread)
}

// classification rules, checked in order against the lowercased error text.
// Client errors come first so "400 bad request ... timeout" stays permanent.
var rules = []struct {
	needles   []string
	retryable bool
}{
	{[]string{"invalid api key", "incorrect api key", "unauthorized", "forbidden", "authentication", "permission denied"}, false},
	{[]string{"bad request", "model not found", "400", "401", "403", "404"}, false},
	{[]string{"rate limit", "rate_limit", "too many requests", "429", "overloaded"}, true},
	{[]string{"timeout", "timed out", "deadline exceeded"}, true},
	{[]string{"connection refused", "connection reset", "network", "temporary failure", "unexpected eof"}, true},
	{[]string{"internal server error", "bad gateway", "service unavailable", "500", "502", "503", "504"}, true},
}

// IsRetryable reports whether err looks transient: rate limiting, timeouts,
// network trouble and 5xx responses. Auth and request errors are permanent,
// as is cancellation by the caller.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, r := range rules {
		for _, n := range r.needles {
			if strings.Contains(msg, n) {
				return r.retryable
			}
		}
	}
	return false
}
