// Package media decides how the announcement payload is supplied to each
// send attempt. Strategies are tried in a fixed order per attempt (remote
// URL, then provider file reference, then bytes fetched once through the
// helper credential) and the cascade never shrinks mid-run. The byte fetch
// happens at most once per run; its result is shared read-only afterwards.
package media

import (
	"context"
	"errors"
	"strings"
	"sync"

	"blastbot/internal/transport"
	logx "blastbot/pkg/logx"
)

type Config struct {
	URL     string
	FileRef string
	// RetryFetchPattern marks a reference-not-recognized failure, the only
	// failure the proxied byte fetch is allowed to answer.
	RetryFetchPattern string
}

type Resolver struct {
	cfg     Config
	sender  transport.Sender
	fetcher transport.Fetcher // nil when no helper credential is configured
	log     logx.Logger

	cell byteCell
}

// New validates that at least one strategy is configured; running without
// any deliverable payload is a startup error, not a per-recipient one.
func New(cfg Config, sender transport.Sender, fetcher transport.Fetcher, log logx.Logger) (*Resolver, error) {
	if strings.TrimSpace(cfg.URL) == "" && strings.TrimSpace(cfg.FileRef) == "" {
		return nil, errors.New("media: no delivery strategy configured (url or file_ref required)")
	}
	if sender == nil {
		return nil, errors.New("media: sender is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Resolver{cfg: cfg, sender: sender, fetcher: fetcher, log: log}, nil
}

// PrimaryRef is the first configured strategy, used by the one-shot
// bootstrap send which performs no cascade.
func (r *Resolver) PrimaryRef() transport.MediaRef {
	if r.cfg.URL != "" {
		return transport.RemoteURL(r.cfg.URL)
	}
	return transport.FileRef(r.cfg.FileRef)
}

// Send performs one delivery attempt for one recipient, walking the
// cascade. When every applicable strategy fails, the error of the first
// attempted strategy is returned, so the classifier sees the failure the
// recipient would have seen without any fallback machinery.
func (r *Resolver) Send(ctx context.Context, to transport.Recipient, caption string) (transport.SendResult, error) {
	var firstErr error

	if r.cfg.URL != "" {
		res, err := r.sender.SendMedia(ctx, to, transport.RemoteURL(r.cfg.URL), caption)
		if err == nil {
			return res, nil
		}
		firstErr = err
		if ctx.Err() != nil {
			return transport.SendResult{}, firstErr
		}
	}

	if r.cfg.FileRef != "" {
		res, err := r.sender.SendMedia(ctx, to, transport.FileRef(r.cfg.FileRef), caption)
		if err == nil {
			return res, nil
		}
		if firstErr == nil {
			firstErr = err
		}
		if ctx.Err() != nil {
			return transport.SendResult{}, firstErr
		}

		if r.fetcher != nil && r.matchesRetryFetch(err) {
			if data, ok := r.cachedBytes(ctx); ok {
				res, err := r.sender.SendMedia(ctx, to, transport.Bytes(data, "announcement"), caption)
				if err == nil {
					return res, nil
				}
			}
		}
	}

	return transport.SendResult{}, firstErr
}

// WarmUp optionally primes the byte cache before the loop starts so the
// first fallback recipient does not pay the download. A failed warm-up is
// non-fatal: the configured strategies keep working as before, and the
// write-once cell guarantees no second fetch will be attempted later.
func (r *Resolver) WarmUp(ctx context.Context) {
	if r.fetcher == nil || r.cfg.FileRef == "" {
		return
	}
	if data, ok := r.cachedBytes(ctx); ok {
		r.log.Info("media bytes prefetched", logx.Int("size", len(data)))
	}
}

func (r *Resolver) cachedBytes(ctx context.Context) ([]byte, bool) {
	data, err := r.cell.fetch(ctx, r.fetcher, r.cfg.FileRef)
	if err != nil {
		r.log.Warn("media byte fetch failed; falling back to configured strategies", logx.Err(err))
		return nil, false
	}
	return data, true
}

func (r *Resolver) matchesRetryFetch(err error) bool {
	pattern := strings.ToLower(strings.TrimSpace(r.cfg.RetryFetchPattern))
	if pattern == "" {
		return false
	}
	var se *transport.SendError
	if !errors.As(err, &se) {
		return false
	}
	return strings.Contains(strings.ToLower(se.Description), pattern)
}

// byteCell is a write-once cache for the proxied media bytes. The guard is
// structural so the fetched-at-most-once invariant survives a concurrent
// port unchanged.
type byteCell struct {
	once sync.Once
	data []byte
	err  error
}

func (c *byteCell) fetch(ctx context.Context, f transport.Fetcher, ref string) ([]byte, error) {
	c.once.Do(func() {
		c.data, c.err = f.FetchBytes(ctx, ref)
	})
	return c.data, c.err
}
