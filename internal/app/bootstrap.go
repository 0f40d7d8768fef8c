package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"meal-kit/internal/config"
	"meal-kit/internal/database"
	"meal-kit/internal/ghost"
	"meal-kit/internal/llm"
)

// Bootstrap opens the database and builds the optional LLM and Ghost clients
// from cfg. The returned func releases everything it opened.
func Bootstrap(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*App, func(), error) {
	if dir := filepath.Dir(cfg.DatabasePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
		}
	}

	db, err := database.NewDB(cfg.DatabasePath, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	closers := []func() error{db.Close}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.WithError(err).Warn("cleanup failed")
			}
		}
	}

	textGen, err := llm.NewTextGenerator(ctx, cfg.GroqAPIKey, cfg.GeminiAPIKey)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if c, ok := textGen.(llm.Closer); ok {
		closers = append(closers, c.Close)
	}
	if textGen == nil {
		log.Debug("no LLM key configured, recipe import disabled")
	}

	var ghostClient ghost.Client
	if cfg.GhostURL != "" && cfg.GhostContentKey != "" {
		ghostClient = ghost.NewClient(cfg.GhostURL, cfg.GhostContentKey, cfg.GhostRecipeTag)
	}

	a, err := NewApp(ctx, cfg, db, log, textGen, ghostClient)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return a, cleanup, nil
}
