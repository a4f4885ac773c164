package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalYAML = `
telegram:
  token: "123:abc"
media:
  url: "https://cdn.example/a.jpg"
  caption: "hello"
source:
  driver: json
  path: ./dump.json
logging:
  level: info
  console: true
  file:
    enabled: false
    path: ""
`

func TestLoadAppliesDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := Load(writeConfig(t, "c.yaml", minimalYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dispatch.RatePerSec != DefaultRatePerSec {
		t.Fatalf("RatePerSec = %d, want %d", cfg.Dispatch.RatePerSec, DefaultRatePerSec)
	}
	if cfg.Dispatch.ProgressEvery != DefaultProgressEvery {
		t.Fatalf("ProgressEvery = %d, want %d", cfg.Dispatch.ProgressEvery, DefaultProgressEvery)
	}
	if cfg.Dispatch.FailureSamples != DefaultFailureSamples {
		t.Fatalf("FailureSamples = %d, want %d", cfg.Dispatch.FailureSamples, DefaultFailureSamples)
	}
	if cfg.Media.RetryFetchPattern != DefaultRetryFetchPattern {
		t.Fatalf("RetryFetchPattern = %q, want default", cfg.Media.RetryFetchPattern)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	_, err := Load(writeConfig(t, "c.yaml", minimalYAML+"\nmystery: true\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadJSONFormat(t *testing.T) {
	t.Parallel()
	cfg, err := Load(writeConfig(t, "c.json", `{
		"telegram": {"token": "123:abc"},
		"media": {"file_ref": "AgAD1", "caption": "hi"},
		"source": {"driver": "sqlite", "path": "users.db"},
		"logging": {"level": "debug", "console": true, "file": {"enabled": false, "path": ""}}
	}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Media.FileRef != "AgAD1" {
		t.Fatalf("FileRef = %q", cfg.Media.FileRef)
	}
}

func TestValidateFatalConditions(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		mut  func(*Config)
	}{
		{name: "missing token", mut: func(c *Config) { c.Telegram.Token = " " }},
		{name: "no media strategy", mut: func(c *Config) { c.Media.URL = ""; c.Media.FileRef = "" }},
		{name: "bad timeout", mut: func(c *Config) { c.Telegram.ClientTimeout = "soon" }},
		{name: "negative timeout", mut: func(c *Config) { c.Telegram.ClientTimeout = "-5s" }},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{}
			cfg.Telegram.Token = "123:abc"
			cfg.Media.URL = "https://cdn.example/a.jpg"
			tt.mut(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestClientTimeout(t *testing.T) {
	t.Parallel()
	cfg := Config{}
	cfg.Telegram.ClientTimeout = "30s"
	if d := cfg.ClientTimeout(); d != 30*time.Second {
		t.Fatalf("ClientTimeout = %v, want 30s", d)
	}
	cfg.Telegram.ClientTimeout = ""
	if d := cfg.ClientTimeout(); d != 0 {
		t.Fatalf("omitted ClientTimeout = %v, want 0", d)
	}
}

func TestLoadYAMLFormat(t *testing.T) {
	t.Parallel()
	cfg, err := Load(writeConfig(t, "c.yaml", minimalYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Fatalf("Token = %q", cfg.Telegram.Token)
	}
	if !cfg.Logging.Console {
		t.Fatal("Console = false, want true")
	}
}
