package planner

import (
	"context"
	"path/filepath"
	"testing"

	"meal-kit/internal/database"
	"meal-kit/internal/logger"
	"meal-kit/internal/recipe"
)

func TestPlanRepository(t *testing.T) {
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"), logger.Discard())
	if err != nil {
		t.Fatalf("Failed to create test DB: %v", err)
	}
	defer db.Close()

	repo := NewPlanRepository(db.SQL)
	ctx := context.Background()

	t.Run("EmptyWeek", func(t *testing.T) {
		p, err := repo.LatestForWeek(ctx, "user-1", monday)
		if err != nil {
			t.Fatalf("LatestForWeek failed: %v", err)
		}
		if p != nil {
			t.Errorf("Expected no plan, got %+v", p)
		}
		exists, err := repo.ExistsForWeek(ctx, "user-1", monday)
		if err != nil || exists {
			t.Errorf("Expected no plan to exist, got %v (err=%v)", exists, err)
		}
	})

	t.Run("SaveAndLoadLatest", func(t *testing.T) {
		first := WeeklyPlan{"2024-03-04": {Lunch: &recipe.Recipe{ID: "a", Title: "A"}}}
		second := WeeklyPlan{"2024-03-05": {Dinner: &recipe.Recipe{ID: "b", Title: "B"}}}

		if _, err := repo.Save(ctx, "user-1", monday, first); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		// Any day of the week files the snapshot under its Monday.
		if _, err := repo.Save(ctx, "user-1", monday.AddDate(0, 0, 2), second); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		got, err := repo.LatestForWeek(ctx, "user-1", monday)
		if err != nil {
			t.Fatalf("LatestForWeek failed: %v", err)
		}
		if got == nil {
			t.Fatal("Expected a plan, got nil")
		}
		if got.WeekStart != "2024-03-04" {
			t.Errorf("Expected week start 2024-03-04, got %s", got.WeekStart)
		}
		if r := got.Plan["2024-03-05"].Dinner; r == nil || r.ID != "b" {
			t.Errorf("Expected latest snapshot to hold recipe b, got %+v", got.Plan)
		}

		exists, _ := repo.ExistsForWeek(ctx, "user-1", monday)
		if !exists {
			t.Error("Expected plan to exist")
		}
		if other, _ := repo.LatestForWeek(ctx, "user-2", monday); other != nil {
			t.Error("Expected plans to be scoped to their user")
		}
	})

	t.Run("ListRecent", func(t *testing.T) {
		plans, err := repo.ListRecentByUserID(ctx, "user-1", 1)
		if err != nil {
			t.Fatalf("ListRecentByUserID failed: %v", err)
		}
		if len(plans) != 1 {
			t.Fatalf("Expected 1 plan, got %d", len(plans))
		}
		if plans[0].Plan.RecipeCount() != 1 {
			t.Errorf("Expected 1 recipe in latest plan, got %d", plans[0].Plan.RecipeCount())
		}
	})
}
