// Package generator defines the structured document generator used by every
// pipeline stage, the registry of generator backends, and the parsing of
// backend output into a raw JSON object.
package generator

import (
	"context"
	"log/slog"
	"time"
)

// RawDocument is a parsed JSON object returned by a generator backend.
// Its shape is untrusted until decoded by the doc package.
type RawDocument map[string]any

// Generator produces one JSON object per call from a system and user instruction.
type Generator interface {
	// Name returns the backend identifier (e.g., "openai", "claude")
	Name() string

	// Generate sends both instructions to the backend and returns the parsed object.
	// Output that is not a JSON object yields a *FormatError.
	Generate(ctx context.Context, system, user string) (RawDocument, error)
}

// Config carries backend settings resolved from the config file and environment.
type Config struct {
	Model      string
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	Logger     *slog.Logger

	// OnRetry is called before a backend retries a transient failure.
	OnRetry func(delay time.Duration, attempt, max int)
}

// Log returns the configured logger, or a discarding one.
func (c *Config) Log() *slog.Logger {
	if c == nil || c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}
