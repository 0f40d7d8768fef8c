package database

import (
	"path/filepath"
	"testing"

	"meal-kit/internal/logger"
)

func TestNewDB(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "meal-kit.db")

	db, err := NewDB(dbPath, logger.Discard())
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"local_storage", "recipes", "meal_plans", "shopping_lists", "execution_metrics"} {
		var name string
		err := db.SQL.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("Expected table '%s' to exist: %v", table, err)
		}
	}

	t.Run("MigrationsAreIdempotent", func(t *testing.T) {
		if err := RunMigrations(dbPath, logger.Discard()); err != nil {
			t.Fatalf("Expected re-running migrations to be a no-op, got %v", err)
		}
	})
}
