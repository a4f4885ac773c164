// Package run selects the run mode, sequences resolver warm-up, drives the
// dispatch loop (or the one-shot bootstrap send), and renders the final
// report. Per-recipient failures live and die inside the report; only
// startup-fatal conditions escape to the caller.
package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"blastbot/internal/config"
	"blastbot/internal/dispatch"
	"blastbot/internal/source"
	"blastbot/internal/transport"
	logx "blastbot/pkg/logx"
)

var (
	ErrEmptyRecipients = errors.New("recipient source produced no recipients")
	ErrHandleNotFound  = errors.New("handle did not resolve to a recipient")
)

type Mode int

const (
	ModeFull Mode = iota
	ModeTest
	ModeBootstrap
)

// Options is the operator's mode selection, fixed for the run's lifetime.
type Options struct {
	Mode Mode
	// Handles for ModeTest.
	Handles []string
	// BootstrapHandle designates the single bootstrap recipient.
	BootstrapHandle string
}

// mediaResolver is what the controller needs from media.Resolver.
type mediaResolver interface {
	Send(ctx context.Context, to transport.Recipient, caption string) (transport.SendResult, error)
	WarmUp(ctx context.Context)
	PrimaryRef() transport.MediaRef
}

type Controller struct {
	cfg      *config.Config
	src      source.Source
	sender   transport.Sender
	resolver mediaResolver
	loop     *dispatch.Loop
	log      logx.Logger
	out      io.Writer
}

type Deps struct {
	Cfg      *config.Config
	Source   source.Source
	Sender   transport.Sender
	Resolver mediaResolver
	Loop     *dispatch.Loop
	Log      logx.Logger
	// Out receives the human-readable report; defaults to stdout.
	Out io.Writer
}

func New(d Deps) *Controller {
	out := d.Out
	if out == nil {
		out = os.Stdout
	}
	log := d.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Controller{
		cfg:      d.Cfg,
		src:      d.Source,
		sender:   d.Sender,
		resolver: d.Resolver,
		loop:     d.Loop,
		log:      log,
		out:      out,
	}
}

// Run executes the selected mode. A nil error means the run reached
// completion; recorded per-recipient failures do not affect that.
func (c *Controller) Run(ctx context.Context, opts Options) error {
	switch opts.Mode {
	case ModeTest:
		return c.runTest(ctx, opts.Handles)
	case ModeBootstrap:
		return c.runBootstrap(ctx, opts.BootstrapHandle)
	default:
		return c.runFull(ctx)
	}
}

func (c *Controller) runFull(ctx context.Context) error {
	recipients, err := c.src.ExtractAll(ctx)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		return ErrEmptyRecipients
	}
	c.log.Info("recipients extracted", logx.Int("count", len(recipients)))

	if c.cfg.Media.Prefetch {
		c.resolver.WarmUp(ctx)
	}

	rep, err := c.loop.Run(ctx, recipients)
	if err != nil {
		// Cancelled mid-run: the partial counters are the only record.
		c.log.Warn("run interrupted", logx.Int("processed", rep.Processed()), logx.Err(err))
		return err
	}
	c.renderReport(rep)
	return nil
}

func (c *Controller) runTest(ctx context.Context, handles []string) error {
	if len(handles) == 0 {
		return errors.New("test run requires at least one handle")
	}
	results, err := c.loop.RunHandles(ctx, c.src, handles)
	if err != nil {
		return err
	}
	c.renderHandleResults(results)
	return nil
}

// runBootstrap sends once to a designated recipient to obtain a fresh
// provider file reference for operator reuse. No fallback cascade, no
// recipient-set iteration.
func (c *Controller) runBootstrap(ctx context.Context, handle string) error {
	if strings.TrimSpace(handle) == "" {
		return errors.New("bootstrap requires a recipient handle")
	}
	rcpt, ok, err := c.src.ResolveHandle(ctx, handle)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrHandleNotFound, handle)
	}

	res, err := c.sender.SendMedia(ctx, rcpt, c.resolver.PrimaryRef(), c.cfg.Media.Caption)
	if err != nil {
		return fmt.Errorf("bootstrap send to %s: %w", rcpt, err)
	}
	if res.FileRef == "" {
		fmt.Fprintln(c.out, "bootstrap send delivered, but the provider reported no file reference")
		return nil
	}
	fmt.Fprintf(c.out, "bootstrap send delivered to %s\nprovider file reference: %s\n", rcpt, res.FileRef)
	c.log.Info("bootstrap reference obtained", logx.String("file_ref", res.FileRef))
	return nil
}
