package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_FILE", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.LLM.Provider != "ollama" {
		t.Fatalf("expected default provider ollama, got %q", cfg.LLM.Provider)
	}
	if cfg.Sources.MacroTimeout != 15*time.Second {
		t.Fatalf("expected macro timeout 15s, got %s", cfg.Sources.MacroTimeout)
	}
	if cfg.ArtifactSink != "object" {
		t.Fatalf("expected object sink, got %q", cfg.ArtifactSink)
	}
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
port: "9090"
llm:
  provider: openai
  model: gpt-4o-mini
  allowed_models: [gpt-4o-mini, gpt-4o]
sources:
  geo_timeout: 4s
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LLM_MODEL", "gpt-4o")
	t.Setenv("OUTBOUND_RPS", "2.5")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected port from file, got %q", cfg.Port)
	}
	if cfg.LLM.Provider != "openai" {
		t.Fatalf("expected provider from file, got %q", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Fatalf("expected env model override, got %q", cfg.LLM.Model)
	}
	if len(cfg.LLM.AllowedModels) != 2 {
		t.Fatalf("expected 2 allowed models, got %v", cfg.LLM.AllowedModels)
	}
	if cfg.Sources.GeoTimeout != 4*time.Second {
		t.Fatalf("expected geo timeout 4s, got %s", cfg.Sources.GeoTimeout)
	}
	if cfg.Sources.RPS != 2.5 {
		t.Fatalf("expected rps 2.5, got %v", cfg.Sources.RPS)
	}
}

func TestLLMTimeoutRaisedToSourceTimeout(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("LLM_TIMEOUT", "3")
	t.Setenv("RISK_TIMEOUT", "12s")

	cfg := Load()
	if cfg.LLM.Timeout != 12*time.Second {
		t.Fatalf("expected LLM timeout raised to 12s, got %s", cfg.LLM.Timeout)
	}
}

func TestNormalizers(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) string
		in   string
		want string
	}{
		{name: "env prod", fn: normalizeEnv, in: "PROD", want: "production"},
		{name: "env unknown", fn: normalizeEnv, in: "qa", want: "dev"},
		{name: "store s3", fn: normalizeStoreType, in: " S3 ", want: "s3"},
		{name: "sink pg", fn: normalizeSink, in: "pg", want: "postgres"},
		{name: "provider compat", fn: normalizeProvider, in: "openai-compatible", want: "eino"},
		{name: "provider default", fn: normalizeProvider, in: "", want: "ollama"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
