package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ptran/notify-center/internal/app"
	"github.com/ptran/notify-center/internal/cache"
	"github.com/ptran/notify-center/internal/credential"
	"github.com/ptran/notify-center/internal/logging"
	"github.com/ptran/notify-center/internal/model"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "notify-center:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := model.LoadConfig(model.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	dataDir, err := model.DataDir()
	if err != nil {
		return err
	}
	debug := os.Getenv("NOTIFY_CENTER_DEBUG") != ""

	logger, logCloser, err := logging.New(filepath.Join(dataDir, "notify-center.log"), debug)
	if err != nil {
		logger = logging.Discard()
	} else {
		defer logCloser.Close()
	}

	// The cache is optional: without it, preference snapshots and email
	// dedup are disabled but everything else works.
	var c *cache.Cache
	if opened, err := cache.Open(filepath.Join(dataDir, "cache.db")); err != nil {
		logger.Warn("cache unavailable", "error", err)
	} else {
		c = opened
		defer c.Close()
	}

	// A missing token just means the login form comes first.
	token, err := credential.Get(credential.KeyAPIToken)
	if err != nil {
		token = ""
	}

	m := app.New(app.Options{
		Config: *cfg,
		Cache:  c,
		Logger: logger,
		Token:  token,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}
