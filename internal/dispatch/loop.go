// Package dispatch drives the rate-limited send loop: one attempt per
// recipient in source order, exactly one recorded outcome per recipient,
// periodic progress snapshots, and a final aggregate report.
package dispatch

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"blastbot/internal/classify"
	"blastbot/internal/transport"
	logx "blastbot/pkg/logx"
)

// MediaSender is the per-recipient send operation (media.Resolver in
// production, a scripted fake in tests).
type MediaSender interface {
	Send(ctx context.Context, to transport.Recipient, caption string) (transport.SendResult, error)
}

// HandleResolver is the subset of the recipient source the test-run
// variant needs.
type HandleResolver interface {
	ResolveHandle(ctx context.Context, handle string) (transport.Recipient, bool, error)
}

type Loop struct {
	cfg     Config
	sender  MediaSender
	caption string
	limiter *rate.Limiter
	log     logx.Logger
}

func New(cfg Config, sender MediaSender, caption string, log logx.Logger) *Loop {
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 20
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = 50
	}
	if cfg.FailureSamples <= 0 {
		cfg.FailureSamples = 10
	}
	cfg.RatePerSec = rps
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Loop{
		cfg:     cfg,
		sender:  sender,
		caption: caption,
		// Burst 1 keeps spacing fixed: one token up front, then one every
		// 1/rps. This is static pacing, not adaptive backoff.
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		log:     log,
	}
}

// Run processes every recipient in order. Per-recipient failures are
// classified and recorded, never escalated; the only error Run returns is
// context cancellation, with the partial report alongside it.
func (l *Loop) Run(ctx context.Context, recipients []transport.Recipient) (*Report, error) {
	rep := &Report{Total: len(recipients), StartedAt: time.Now()}
	l.log.Info("dispatch started",
		logx.Int("total", rep.Total),
		logx.Int("rate_per_sec", l.cfg.RatePerSec))

	for i, rcpt := range recipients {
		if err := l.limiter.Wait(ctx); err != nil {
			rep.DoneAt = time.Now()
			return rep, err
		}

		_, err := l.sender.Send(ctx, rcpt, l.caption)
		if err != nil && ctx.Err() != nil {
			// Cancelled mid-send; this attempt has no meaningful outcome.
			rep.DoneAt = time.Now()
			return rep, ctx.Err()
		}
		if err == nil {
			rep.Success++
		} else {
			kind := classify.ClassifyError(err)
			rep.record(kind, rcpt, l.cfg.FailureSamples)
			l.log.Debug("send failed",
				logx.Int64("recipient", int64(rcpt)),
				logx.String("kind", kind.String()),
				logx.Err(err))
		}

		last := i == len(recipients)-1
		if (i+1)%l.cfg.ProgressEvery == 0 || last {
			l.progress(rep)
		}
	}

	rep.DoneAt = time.Now()
	l.log.Info("dispatch finished",
		logx.Int("total", rep.Total),
		logx.Int("success", rep.Success),
		logx.Int("blocked", rep.Blocked),
		logx.Int("invalid", rep.Invalid),
		logx.Int("transient", rep.Transient),
		logx.Duration("took", time.Since(rep.StartedAt)))
	return rep, nil
}

func (l *Loop) progress(rep *Report) {
	done := rep.Processed()
	pct := 0.0
	if rep.Total > 0 {
		pct = float64(done) / float64(rep.Total) * 100
	}
	l.log.Info("dispatch progress",
		logx.Int("done", done),
		logx.Int("total", rep.Total),
		logx.Float64("pct", pct),
		logx.Int("success", rep.Success),
		logx.Int("blocked", rep.Blocked),
		logx.Int("invalid", rep.Invalid),
		logx.Int("transient", rep.Transient))
}

// RunHandles is the limited test-run variant: operator handles are resolved
// first, an unresolvable handle is recorded as not-found without a send,
// and resolved recipients are paced by the same limiter.
func (l *Loop) RunHandles(ctx context.Context, resolver HandleResolver, handles []string) ([]HandleResult, error) {
	out := make([]HandleResult, 0, len(handles))
	for _, h := range handles {
		rcpt, ok, err := resolver.ResolveHandle(ctx, h)
		if err != nil {
			return out, err
		}
		if !ok {
			l.log.Warn("handle did not resolve", logx.String("handle", h))
			out = append(out, HandleResult{Handle: h, Status: HandleNotFound})
			continue
		}

		if err := l.limiter.Wait(ctx); err != nil {
			return out, err
		}
		_, err = l.sender.Send(ctx, rcpt, l.caption)
		if err != nil && ctx.Err() != nil {
			return out, ctx.Err()
		}
		res := HandleResult{Handle: h, Recipient: rcpt}
		if err != nil {
			res.Status = HandleFailed
			res.Detail = err.Error()
			l.log.Warn("test send failed", logx.String("handle", h), logx.Err(err))
		} else {
			l.log.Info("test send delivered", logx.String("handle", h), logx.Int64("recipient", int64(rcpt)))
		}
		out = append(out, res)
	}
	return out, nil
}
