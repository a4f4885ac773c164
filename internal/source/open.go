package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"blastbot/internal/config"
	"blastbot/internal/transport"
	logx "blastbot/pkg/logx"
)

// ErrUnreadable marks a recipient dump that could not be opened or parsed.
// It is a startup-fatal condition, never a per-recipient one.
var ErrUnreadable = errors.New("recipient source unreadable")

// Source is the recipient-extraction API consumed by the run controller.
type Source interface {
	// ExtractAll returns the deduplicated recipient sequence in order of
	// first appearance. Idempotent for an unchanged dump.
	ExtractAll(ctx context.Context) ([]transport.Recipient, error)
	// ResolveHandle maps a human-readable handle to a recipient id.
	// The bool reports whether the handle resolved.
	ResolveHandle(ctx context.Context, handle string) (transport.Recipient, bool, error)
	Close() error
}

// Open initializes the configured source driver.
func Open(cfg config.SourceConfig, log logx.Logger) (Source, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	case "json":
		return openJSON(cfg, log)
	default:
		return nil, fmt.Errorf("%w: unknown driver %q", ErrUnreadable, cfg.Driver)
	}
}

// normalizeHandle strips the conventional "@" prefix and lowercases, since
// provider handles are case-insensitive.
func normalizeHandle(h string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(h), "@"))
}

// dedupeStable keeps the first appearance of each id, preserving order.
func dedupeStable(in []transport.Recipient) []transport.Recipient {
	seen := make(map[transport.Recipient]struct{}, len(in))
	out := make([]transport.Recipient, 0, len(in))
	for _, r := range in {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
