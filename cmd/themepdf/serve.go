package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	themepdf "github.com/alnah/go-themepdf"
	"github.com/alnah/go-themepdf/internal/assets"
	"github.com/alnah/go-themepdf/internal/auth"
	"github.com/alnah/go-themepdf/internal/config"
	"github.com/alnah/go-themepdf/internal/server"
)

// runServe starts the render service and blocks until ctx is canceled.
func runServe(ctx context.Context, args []string, env *Environment) error {
	flags, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	warnUnknownEnvVars(env.Stderr)
	cfg, err := resolveConfig(flags.common.config, loadEnvConfig())
	if err != nil {
		return err
	}
	if err := mergeServeFlags(flags, cfg); err != nil {
		return err
	}
	env.Config = cfg

	logger, err := newLogger(env, cfg, flags.common)
	if err != nil {
		return err
	}

	srv, limiter, err := buildServer(cfg, logger)
	if err != nil {
		return err
	}
	if limiter != nil {
		defer limiter.Close()
	}

	return srv.ListenAndServe(ctx)
}

// mergeServeFlags applies explicitly set flags over cfg and revalidates.
func mergeServeFlags(f *serveFlags, cfg *config.Config) error {
	if f.addr != "" {
		cfg.Server.Addr = f.addr
	}
	if f.production {
		cfg.Server.Production = true
	}
	if f.uploadDir != "" {
		cfg.Server.UploadDir = f.uploadDir
	}
	if f.staticDir != "" {
		cfg.Server.StaticDir = f.staticDir
	}
	if f.assetPath != "" {
		cfg.Assets.BasePath = f.assetPath
	}
	if f.render.timeout != "" {
		cfg.Render.Timeout = f.render.timeout
	}
	if f.render.networkIdle != "" {
		cfg.Render.NetworkIdle = f.render.networkIdle
	}
	if f.render.maxJobs != maxJobsUnset {
		cfg.Render.MaxJobs = f.render.maxJobs
	}
	if f.render.browserBin != "" {
		cfg.Render.BrowserBin = f.render.browserBin
	}
	if f.render.noSandbox {
		cfg.Render.NoSandbox = true
	}
	return cfg.Validate()
}

// buildServer wires config into the renderer, the login gate and the HTTP
// server. The returned limiter is nil when jobs are unbounded.
func buildServer(cfg *config.Config, logger *log.Logger) (*server.Server, *themepdf.JobLimiter, error) {
	loader, err := assets.NewAssetResolver(cfg.Assets.BasePath)
	if err != nil {
		return nil, nil, err
	}

	gate, err := auth.New(cfg.Auth.Password, cfg.Auth.PasswordHash, cfg.SessionTTL())
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", config.ErrInvalidValue, err)
	}

	opts := []themepdf.RenderOption{
		themepdf.WithRenderTimeout(cfg.RenderTimeout()),
		themepdf.WithNetworkIdle(cfg.NetworkIdle()),
		themepdf.WithBrowserBin(cfg.Render.BrowserBin),
		themepdf.WithLogger(logger),
	}
	if cfg.Render.NoSandbox {
		opts = append(opts, themepdf.WithNoSandbox(true))
	}

	var limiter *themepdf.JobLimiter
	if slots := themepdf.ResolveJobSlots(cfg.Render.MaxJobs); slots > 0 {
		limiter = themepdf.NewJobLimiter(slots)
		opts = append(opts, themepdf.WithJobLimiter(limiter))
	}
	renderer := themepdf.NewRenderer(opts...)

	srv, err := server.New(server.Options{
		Addr:         cfg.Server.Addr,
		Production:   cfg.Server.Production,
		UploadDir:    cfg.Server.UploadDir,
		StaticDir:    cfg.Server.StaticDir,
		MaxBodyBytes: cfg.MaxBodyBytes(),
		BasicUsers:   cfg.Auth.BasicUsers,
		Realm:        cfg.Auth.Realm,
		DateFormat:   cfg.Preview.DateFormat,
	}, renderer, gate, loader, logger)
	if err != nil {
		if limiter != nil {
			_ = limiter.Close()
		}
		return nil, nil, err
	}

	logger.Info("render engine configured",
		"timeout", renderer.Timeout(),
		"max_jobs", slotsLabel(limiter),
		"login_gate", gate.Enabled(),
		"session_ttl", cfg.SessionTTL().Round(time.Minute),
	)
	return srv, limiter, nil
}

func slotsLabel(l *themepdf.JobLimiter) string {
	if l == nil {
		return "unbounded"
	}
	return fmt.Sprint(l.Size())
}
