package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"blastbot/internal/config"
	"blastbot/internal/transport"
	logx "blastbot/pkg/logx"
)

// jsonSource reads a JSON array export of user records. Records without an
// id are rejected as malformed; username is optional and only used for
// handle lookups.
type jsonSource struct {
	log logx.Logger

	ids      []transport.Recipient
	byHandle map[string]transport.Recipient
}

type jsonRecord struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
}

func openJSON(cfg config.SourceConfig, log logx.Logger) (Source, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("%w: json path is required", ErrUnreadable)
	}
	b, err := os.ReadFile(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	var recs []jsonRecord
	dec := json.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(&recs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	s := &jsonSource{log: log, byHandle: make(map[string]transport.Recipient, len(recs))}
	raw := make([]transport.Recipient, 0, len(recs))
	for i, r := range recs {
		if r.ID == 0 {
			return nil, fmt.Errorf("%w: record %d has no id", ErrUnreadable, i)
		}
		raw = append(raw, transport.Recipient(r.ID))
		if h := normalizeHandle(r.Username); h != "" {
			// First record wins, matching extraction order.
			if _, ok := s.byHandle[h]; !ok {
				s.byHandle[h] = transport.Recipient(r.ID)
			}
		}
	}
	s.ids = dedupeStable(raw)
	log.Debug("json source loaded", logx.Int("records", len(recs)), logx.Int("distinct", len(s.ids)))
	return s, nil
}

func (s *jsonSource) ExtractAll(ctx context.Context) ([]transport.Recipient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]transport.Recipient, len(s.ids))
	copy(out, s.ids)
	return out, nil
}

func (s *jsonSource) ResolveHandle(ctx context.Context, handle string) (transport.Recipient, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	id, ok := s.byHandle[normalizeHandle(handle)]
	return id, ok, nil
}

func (s *jsonSource) Close() error { return nil }
