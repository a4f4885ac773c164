package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"
)

const (
	// Telegram documents roughly 30 broadcast messages per second; the
	// default targets about two thirds of that ceiling.
	DefaultRatePerSec     = 20
	DefaultProgressEvery  = 50
	DefaultFailureSamples = 10

	// DefaultRetryFetchPattern is the Bot API wording for a file_id the
	// current credential does not recognize.
	DefaultRetryFetchPattern = "wrong file identifier"
)

// Load reads, strictly decodes, defaults, and validates the config file.
// The config is read exactly once; it is immutable for the run's lifetime.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Both formats go through the JSON decoder so unknown fields are
	// rejected uniformly (DisallowUnknownFields has no YAML equivalent).
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		b, err = yamlToJSON(b)
		if err != nil {
			return nil, err
		}
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, errors.New("invalid config: trailing data")
		}
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}

	// YAML allows non-string map keys; stringify them so the tree can be
	// JSON-marshaled.
	var stringify func(any) any
	stringify = func(in any) any {
		switch x := in.(type) {
		case map[any]any:
			m := make(map[string]any, len(x))
			for k, val := range x {
				m[fmt.Sprint(k)] = stringify(val)
			}
			return m
		case map[string]any:
			m := make(map[string]any, len(x))
			for k, val := range x {
				m[k] = stringify(val)
			}
			return m
		case []any:
			for i := range x {
				x[i] = stringify(x[i])
			}
			return x
		default:
			return in
		}
	}

	j, err := json.Marshal(stringify(v))
	if err != nil {
		return nil, fmt.Errorf("yaml->json marshal: %w", err)
	}
	return j, nil
}

func (c *Config) applyDefaults() {
	if c.Dispatch.RatePerSec <= 0 {
		c.Dispatch.RatePerSec = DefaultRatePerSec
	}
	if c.Dispatch.ProgressEvery <= 0 {
		c.Dispatch.ProgressEvery = DefaultProgressEvery
	}
	if c.Dispatch.FailureSamples <= 0 {
		c.Dispatch.FailureSamples = DefaultFailureSamples
	}
	if strings.TrimSpace(c.Media.RetryFetchPattern) == "" {
		c.Media.RetryFetchPattern = DefaultRetryFetchPattern
	}
}

// Validate enforces the startup preconditions. Violations abort the run
// before any send is attempted.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return errors.New("telegram.token is required")
	}
	if strings.TrimSpace(c.Media.URL) == "" && strings.TrimSpace(c.Media.FileRef) == "" {
		return errors.New("media: at least one of url or file_ref is required")
	}
	if s := strings.TrimSpace(c.Telegram.ClientTimeout); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("telegram.client_timeout: invalid duration %q: %w", c.Telegram.ClientTimeout, err)
		}
		if d < 0 {
			return errors.New("telegram.client_timeout: duration must be >= 0")
		}
	}
	return nil
}

// ClientTimeout returns the parsed telegram.client_timeout. Validate has
// already rejected malformed values; an omitted value yields 0 and the
// adapter applies its own default.
func (c *Config) ClientTimeout() time.Duration {
	s := strings.TrimSpace(c.Telegram.ClientTimeout)
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0
	}
	return d
}
