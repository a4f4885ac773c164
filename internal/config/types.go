package config

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Media    MediaConfig    `json:"media"`
	Dispatch DispatchConfig `json:"dispatch"`
	Source   SourceConfig   `json:"source"`
	Logging  LoggingConfig  `json:"logging"`
}

type TelegramConfig struct {
	// Token is the announcing bot's credential.
	Token string `json:"token"`
	// HelperToken is the secondary credential used only to download media
	// bytes when a file reference is not recognized by the primary bot.
	HelperToken string `json:"helper_token,omitempty"`
	// ClientTimeout is a Go duration string (e.g. "30s").
	ClientTimeout string `json:"client_timeout,omitempty"`
}

// MediaConfig describes the announcement payload and the fallback knobs.
//
// At least one of URL / FileRef must be set (startup check). RetryFetchPattern
// is the provider wording that marks a reference as unknown to the primary
// credential; it is configurable because the exact text is an external,
// unversioned contract.
type MediaConfig struct {
	URL     string `json:"url,omitempty"`
	FileRef string `json:"file_ref,omitempty"`
	Caption string `json:"caption"`

	RetryFetchPattern string `json:"retry_fetch_pattern,omitempty"`

	// Prefetch warms the one-time byte cache before the loop starts so the
	// first fallback recipient does not pay the download latency.
	Prefetch bool `json:"prefetch,omitempty"`
}

// DispatchConfig controls pacing and reporting of the send loop.
type DispatchConfig struct {
	// RatePerSec caps sustained sends per second. Defaults to 20, roughly
	// two thirds of the provider's documented broadcast ceiling.
	RatePerSec int `json:"rate_per_sec,omitempty"`
	// ProgressEvery emits a progress snapshot after this many attempts.
	ProgressEvery int `json:"progress_every,omitempty"`
	// FailureSamples caps the per-kind failing-recipient sample lists.
	FailureSamples int `json:"failure_samples,omitempty"`
}

// SourceConfig selects the recipient dump.
//
// Example:
//
//	"source": { "driver": "sqlite", "path": "./users.db" }
type SourceConfig struct {
	Driver string `json:"driver"`
	Path   string `json:"path"`
	// Table/columns for the sqlite driver; defaults: users(id, username).
	Table          string `json:"table,omitempty"`
	IDColumn       string `json:"id_column,omitempty"`
	UsernameColumn string `json:"username_column,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}
