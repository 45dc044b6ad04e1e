package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gc30/certify/internal/config"
	"github.com/gc30/certify/internal/logging"
	"github.com/gc30/certify/internal/notify"
	"github.com/gc30/certify/internal/storage"
	"github.com/gc30/certify/internal/submission"
	"github.com/gc30/certify/internal/trackingcode"
	"github.com/gc30/certify/internal/uploads"
)

type commandContext struct {
	configFlag   string
	logLevelFlag string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

// app is everything a command needs to run submission operations.
type app struct {
	cfg     *config.Config
	store   storage.Store
	area    *uploads.Area
	service *submission.Service
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("Failed to close store", "err", err)
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		// Load .env file if present (ignore errors)
		_ = godotenv.Load()

		cfg, loaded, err := config.Load(strings.TrimSpace(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != "" {
			cfg.Logging.Level = c.logLevelFlag
		}
		slog.SetDefault(logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr))
		if loaded {
			slog.Debug("Configuration loaded", "path", c.configPath())
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag != "" {
		return c.configFlag
	}
	if env := os.Getenv("CERTIFY_CONFIG"); env != "" {
		return env
	}
	return config.DefaultConfigFile
}

// openApp builds the store, file area and submission service from config.
// The caller must Close the result.
func (c *commandContext) openApp(ctx context.Context) (*app, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := store.Initialize(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("initialize store: %w", err)
	}

	area := uploads.NewArea(cfg.Storage.UploadsDir, uploads.Limits{
		MaxFiles:    cfg.Intake.MaxImages,
		MaxFileSize: cfg.MaxFileSize(),
	})
	codes := trackingcode.New(cfg.Intake.CodePrefix)
	service := submission.NewService(store, area, codes, notify.New(cfg), cfg.Intake.MinImages)

	return &app{cfg: cfg, store: store, area: area, service: service}, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return true
		}
	}
	return false
}
