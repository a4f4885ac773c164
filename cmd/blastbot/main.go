package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"blastbot/internal/config"
	"blastbot/internal/dispatch"
	"blastbot/internal/media"
	"blastbot/internal/run"
	"blastbot/internal/source"
	"blastbot/internal/transport"
	"blastbot/internal/transport/telegram"
	logx "blastbot/pkg/logx"
)

func main() {
	var (
		cfgPath     string
		testHandles string
		bootstrap   string
		refOverride string
		srcOverride string
	)
	flag.StringVar(&cfgPath, "config", "./blastbot.yaml", "path to config yaml/json")
	flag.StringVar(&testHandles, "test", "", "comma-separated handles for a limited test run")
	flag.StringVar(&bootstrap, "bootstrap", "", "handle of the single recipient for a reference-bootstrap send")
	flag.StringVar(&refOverride, "ref", "", "override the pre-known provider file reference")
	flag.StringVar(&srcOverride, "source", "", "override the recipient source path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := realMain(ctx, cfgPath, testHandles, bootstrap, refOverride, srcOverride); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func realMain(ctx context.Context, cfgPath, testHandles, bootstrap, refOverride, srcOverride string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if refOverride != "" {
		cfg.Media.FileRef = refOverride
	}
	if srcOverride != "" {
		cfg.Source.Path = srcOverride
	}

	log, closer, err := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	timeout := cfg.ClientTimeout()
	adapter, err := telegram.New(telegram.Config{Token: cfg.Telegram.Token, ClientTimeout: timeout}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		return err
	}

	var fetcher transport.Fetcher
	if strings.TrimSpace(cfg.Telegram.HelperToken) != "" {
		f, err := telegram.NewFetcher(telegram.Config{Token: cfg.Telegram.HelperToken, ClientTimeout: timeout}, log.With(logx.String("comp", "helper")))
		if err != nil {
			return err
		}
		fetcher = f
	}

	src, err := source.Open(cfg.Source, log.With(logx.String("comp", "source")))
	if err != nil {
		return err
	}
	defer src.Close()

	resolver, err := media.New(media.Config{
		URL:               cfg.Media.URL,
		FileRef:           cfg.Media.FileRef,
		RetryFetchPattern: cfg.Media.RetryFetchPattern,
	}, adapter, fetcher, log.With(logx.String("comp", "media")))
	if err != nil {
		return err
	}

	loop := dispatch.New(dispatch.Config{
		RatePerSec:     cfg.Dispatch.RatePerSec,
		ProgressEvery:  cfg.Dispatch.ProgressEvery,
		FailureSamples: cfg.Dispatch.FailureSamples,
	}, resolver, cfg.Media.Caption, log.With(logx.String("comp", "dispatch")))

	ctrl := run.New(run.Deps{
		Cfg:      cfg,
		Source:   src,
		Sender:   adapter,
		Resolver: resolver,
		Loop:     loop,
		Log:      log.With(logx.String("comp", "run")),
	})

	opts := run.Options{Mode: run.ModeFull}
	switch {
	case bootstrap != "":
		opts = run.Options{Mode: run.ModeBootstrap, BootstrapHandle: bootstrap}
	case testHandles != "":
		opts = run.Options{Mode: run.ModeTest, Handles: splitHandles(testHandles)}
	}

	start := time.Now()
	if err := ctrl.Run(ctx, opts); err != nil {
		return err
	}
	log.Info("run completed", logx.Duration("took", time.Since(start)))
	return nil
}

func splitHandles(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
