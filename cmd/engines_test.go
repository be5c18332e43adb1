package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jywlabs/kickoff/internal/config"
)

func TestListEngines_MarksActive(t *testing.T) {
	cfg := config.Default()
	cfg.Engine = "claude"

	var out bytes.Buffer
	listEngines(&out, &cfg)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	var active []string
	for _, line := range lines {
		if strings.HasPrefix(line, "* ") {
			active = append(active, strings.Fields(line)[1])
		}
	}
	if len(active) != 1 || active[0] != "claude" {
		t.Errorf("active engines = %v, want [claude]\n%s", active, out.String())
	}
	if !strings.Contains(out.String(), "gpt-4o-mini") {
		t.Errorf("openai model missing:\n%s", out.String())
	}
}

func TestNewGenerator(t *testing.T) {
	cfg := config.Default()

	gen, err := newGenerator(&cfg, "CLAUDE", nil, nil)
	if err != nil {
		t.Fatalf("newGenerator() unexpected error: %v", err)
	}
	if gen.Name() != "claude" {
		t.Errorf("Name() = %q, want claude", gen.Name())
	}

	if _, err := newGenerator(&cfg, "gemini", nil, nil); err == nil {
		t.Error("newGenerator() should reject unknown engines")
	}
}

func TestNewGenerator_DefaultsToConfiguredEngine(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	cfg := config.Default()

	gen, err := newGenerator(&cfg, "", nil, nil)
	if err != nil {
		t.Fatalf("newGenerator() unexpected error: %v", err)
	}
	if gen.Name() != "openai" {
		t.Errorf("Name() = %q, want openai", gen.Name())
	}
}
