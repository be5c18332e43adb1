package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jywlabs/kickoff/internal/template"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, template.KickoffDir), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(FilePath(dir), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv(EngineEnv, "")
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	def := Default()
	if cfg.Engine != def.Engine || cfg.MaxAttempts != 3 || cfg.OutputDir != "output" || cfg.Server.Addr != ":8080" {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
	if cfg.Path != "" {
		t.Errorf("Path = %q, want empty for defaults", cfg.Path)
	}
}

func TestLoad_EmbeddedDefaultMatchesDefault(t *testing.T) {
	t.Setenv(EngineEnv, "")
	dir := writeConfig(t, template.DefaultConfig)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	def := Default()
	if cfg.Engine != def.Engine || cfg.MaxAttempts != def.MaxAttempts || cfg.OutputDir != def.OutputDir || cfg.HTML || cfg.Snapshots {
		t.Errorf("Load(embedded) = %+v", cfg)
	}
	for name, want := range def.Engines {
		if got := cfg.Engines[name]; got != want {
			t.Errorf("Engines[%s] = %+v, want %+v", name, got, want)
		}
	}
}

func TestLoad_MergesSetKeysOnly(t *testing.T) {
	t.Setenv(EngineEnv, "")
	dir := writeConfig(t, `
engine: Claude
maxAttempts: 5
html: true
engines:
  claude:
    model: sonnet
    timeout: 90s
  openai:
    maxRetries: 0
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Engine != "claude" || cfg.MaxAttempts != 5 || !cfg.HTML || cfg.Snapshots {
		t.Errorf("Load() = %+v", cfg)
	}
	if cfg.OutputDir != "output" {
		t.Errorf("OutputDir = %q, want default", cfg.OutputDir)
	}
	if c := cfg.Engines["claude"]; c.Model != "sonnet" || c.Timeout != 90*time.Second {
		t.Errorf("claude = %+v", c)
	}
	if o := cfg.Engines["openai"]; o.MaxRetries != 0 || o.Model != "gpt-4o-mini" || o.Timeout != 3*time.Minute {
		t.Errorf("openai = %+v", o)
	}
	if cfg.Path != FilePath(dir) {
		t.Errorf("Path = %q", cfg.Path)
	}

	gc := cfg.GeneratorConfig("CLAUDE")
	if gc.Model != "sonnet" || gc.Timeout != 90*time.Second {
		t.Errorf("GeneratorConfig() = %+v", gc)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv(EngineEnv, "Claude")
	cfg, err := Load(writeConfig(t, "engine: openai\n"))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Engine != "claude" {
		t.Errorf("Engine = %q, want claude", cfg.Engine)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv(EngineEnv, "")
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"attempts too high", "maxAttempts: 6\n", "maxAttempts: must be between 1 and 5, got 6"},
		{"attempts zero", "maxAttempts: 0\n", "maxAttempts"},
		{"empty output dir", "outputDir: \"\"\n", "outputDir must not be empty"},
		{"empty engine", "engine: \"\"\n", "engine must not be empty"},
		{"bad timeout", "engines:\n  openai:\n    timeout: soon\n", "engines.openai.timeout"},
		{"zero timeout", "engines:\n  claude:\n    timeout: 0s\n", "engines.claude.timeout must be greater than 0"},
		{"negative retries", "engines:\n  openai:\n    maxRetries: -1\n", "maxRetries must not be negative"},
		{"malformed yaml", "engine: [\n", "parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAttempts(t *testing.T) {
	for n := MinAttempts; n <= MaxAttempts; n++ {
		if err := ValidateAttempts(n); err != nil {
			t.Errorf("ValidateAttempts(%d) = %v", n, err)
		}
	}
	for _, n := range []int{-1, 0, 6} {
		if err := ValidateAttempts(n); err == nil {
			t.Errorf("ValidateAttempts(%d) = nil, want error", n)
		}
	}
}

func TestMarshalYAML_RoundTrip(t *testing.T) {
	want := Default()
	want.Engine = "claude"
	want.Snapshots = true
	want.Engines["claude"] = EngineConfig{Model: "sonnet", Timeout: 90 * time.Second}

	data, err := yaml.Marshal(want)
	if err != nil {
		t.Fatalf("Marshal() unexpected error: %v", err)
	}
	if !strings.Contains(string(data), "timeout: 1m30s") {
		t.Errorf("timeout not written as a duration:\n%s", data)
	}

	t.Setenv(EngineEnv, "")
	got, err := Load(writeConfig(t, string(data)))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if got.Engine != "claude" || !got.Snapshots {
		t.Errorf("engine = %q, snapshots = %v", got.Engine, got.Snapshots)
	}
	if got.Engines["claude"] != want.Engines["claude"] {
		t.Errorf("claude = %+v, want %+v", got.Engines["claude"], want.Engines["claude"])
	}
	if got.Engines["openai"] != want.Engines["openai"] {
		t.Errorf("openai = %+v, want %+v", got.Engines["openai"], want.Engines["openai"])
	}
}
