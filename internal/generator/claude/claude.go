// Package claude implements the generator backend on the Claude Code CLI,
// run one-shot in print mode with a JSON result envelope.
package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/jywlabs/kickoff/internal/generator"
)

// Name is the registry name of this backend.
const Name = "claude"

// DefaultTimeout bounds a single CLI invocation.
const DefaultTimeout = 10 * time.Minute

func init() {
	generator.Register(Name, func(cfg *generator.Config) (generator.Generator, error) {
		return New(cfg), nil
	})
}

// response is the JSON envelope printed by `claude -p --output-format json`.
type response struct {
	Type    string `json:"type"`
	Subtype string `json:"subtype"`
	IsError bool   `json:"is_error"`
	Result  string `json:"result"`
}

// Generator runs the claude CLI once per call.
type Generator struct {
	Command string
	Model   string
	Timeout time.Duration
}

// New creates a Generator from cfg.
func New(cfg *generator.Config) *Generator {
	g := &Generator{Command: "claude", Timeout: DefaultTimeout}
	if cfg != nil {
		g.Model = cfg.Model
		if cfg.Timeout > 0 {
			g.Timeout = cfg.Timeout
		}
	}
	return g
}

// Name implements generator.Generator.
func (g *Generator) Name() string { return Name }

// BuildArgs returns the CLI arguments for one generation.
func (g *Generator) BuildArgs(system, user string) []string {
	args := []string{"-p", "--output-format", "json", "--append-system-prompt", system}
	if g.Model != "" {
		args = append(args, "--model", g.Model)
	}
	return append(args, user)
}

// Generate implements generator.Generator.
func (g *Generator) Generate(ctx context.Context, system, user string) (generator.RawDocument, error) {
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, g.Command, g.BuildArgs(system, user)...)
	// No stdin and a new session keep the CLI out of interactive mode.
	cmd.Stdin = nil
	cmd.SysProcAttr = newSysProcAttr()
	setupProcessCleanup(cmd)
	cmd.WaitDelay = 2 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("claude canceled: %w", ctxErr)
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("claude timed out after %s: %w", timeout, runCtx.Err())
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("claude command failed: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("claude command failed: %w", err)
	}

	result, err := parseResponse(stdout.Bytes())
	if err != nil {
		return nil, err
	}
	return generator.ParseDocument(result)
}

// parseResponse unwraps the CLI envelope and returns the result text.
func parseResponse(data []byte) (string, error) {
	var resp response
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", &generator.FormatError{Raw: string(data), Err: fmt.Errorf("parse claude envelope: %w", err)}
	}

	if resp.Subtype == "success" && !resp.IsError {
		return resp.Result, nil
	}

	errMsg := resp.Subtype
	if resp.Result != "" {
		errMsg = resp.Result
	}
	if errMsg == "" {
		errMsg = "unknown error"
	}
	return "", fmt.Errorf("claude execution failed: %s", errMsg)
}
