// Package openai implements the generator backend on the OpenAI chat
// completions API in JSON-object mode.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/jywlabs/kickoff/internal/generator"
	"github.com/jywlabs/kickoff/internal/retry"
)

// Name is the registry name of this backend.
const Name = "openai"

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"
	// DefaultTimeout bounds a single HTTP request.
	DefaultTimeout = 3 * time.Minute
)

// ErrMissingAPIKey is returned when neither the config nor OPENAI_API_KEY carries a key.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not set")

func init() {
	generator.Register(Name, func(cfg *generator.Config) (generator.Generator, error) {
		return New(cfg)
	})
}

// Generator calls the chat completions endpoint.
type Generator struct {
	client *goopenai.Client
	model  string
	retry  retry.Config
}

// New creates a Generator from cfg, falling back to OPENAI_API_KEY and
// OPENAI_BASE_URL from the environment.
func New(cfg *generator.Config) (*Generator, error) {
	if cfg == nil {
		cfg = &generator.Config{}
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	clientCfg := goopenai.DefaultConfig(apiKey)
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("OPENAI_BASE_URL")
	}
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	rc := retry.DefaultConfig()
	rc.MaxRetries = cfg.MaxRetries
	rc.Logger = cfg.Log().With("engine", Name)
	rc.OnRetry = cfg.OnRetry
	rc.Classify = isRetryable

	return &Generator{
		client: goopenai.NewClientWithConfig(clientCfg),
		model:  model,
		retry:  rc,
	}, nil
}

// Name implements generator.Generator.
func (g *Generator) Name() string { return Name }

// Model returns the model used for completions.
func (g *Generator) Model() string { return g.model }

// Generate implements generator.Generator.
func (g *Generator) Generate(ctx context.Context, system, user string) (generator.RawDocument, error) {
	req := goopenai.ChatCompletionRequest{
		Model: g.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: system},
			{Role: goopenai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	content, err := retry.Do(ctx, g.retry, func(ctx context.Context) (string, error) {
		resp, err := g.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", generator.ErrEmptyResponse
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}

	return generator.ParseDocument(content)
}

// isRetryable classifies API errors by status code and falls back to
// message patterns for transport errors.
func isRetryable(err error) bool {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	return retry.IsRetryable(err)
}
