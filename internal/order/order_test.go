package order

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"meal-kit/internal/cart"
	"meal-kit/internal/database"
	"meal-kit/internal/latency"
	"meal-kit/internal/localstore"
	"meal-kit/internal/logger"
	"meal-kit/internal/recipe"
)

func newTestDocs(t *testing.T) *localstore.Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"), logger.Discard())
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return localstore.New(db.SQL)
}

func lines() []cart.Item {
	return []cart.Item{
		{RecipeID: "a", Quantity: 2, Recipe: recipe.Recipe{ID: "a", Price: 12.5}},
		{RecipeID: "b", Quantity: 1, Recipe: recipe.Recipe{ID: "b", Price: 5}},
	}
}

func newTestStore(t *testing.T, docs *localstore.Store) *Store {
	t.Helper()
	s, err := NewStore(context.Background(), docs, latency.New(0), logger.Discard())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return s
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("ComputesTotal", func(t *testing.T) {
		s := newTestStore(t, nil)
		s.now = func() time.Time { return time.UnixMilli(1700000000000) }

		o, err := s.Create(ctx, "u1", lines(), "1 rue de Paris", "card")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if o.ID != "ORD-1700000000000" {
			t.Errorf("Expected timestamp id, got %s", o.ID)
		}
		if o.Total != 30 || o.Status != StatusPending {
			t.Errorf("Expected pending order of 30, got %s order of %v", o.Status, o.Total)
		}

		dup, _ := s.Create(ctx, "u1", lines(), "", "")
		if dup.ID == o.ID {
			t.Error("Expected distinct ids for orders placed on the same millisecond")
		}
	})

	t.Run("EmptyOrder", func(t *testing.T) {
		s := newTestStore(t, nil)
		if _, err := s.Create(ctx, "u1", nil, "", ""); !errors.Is(err, ErrEmptyOrder) {
			t.Errorf("Expected ErrEmptyOrder, got %v", err)
		}
	})

	t.Run("CancelledContext", func(t *testing.T) {
		s, _ := NewStore(ctx, nil, latency.New(time.Hour), logger.Discard())
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := s.Create(cctx, "u1", lines(), "", ""); !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
		if len(s.List()) != 0 {
			t.Error("Expected no order to be stored")
		}
	})
}

func TestTransitions(t *testing.T) {
	ctx := context.Background()

	t.Run("AdvanceForwardOnly", func(t *testing.T) {
		s := newTestStore(t, nil)
		o, _ := s.Create(ctx, "u1", lines(), "", "")

		o, err := s.Advance(ctx, o.ID)
		if err != nil || o.Status != StatusProcessing {
			t.Fatalf("Expected processing, got %s (%v)", o.Status, err)
		}
		o, err = s.Advance(ctx, o.ID)
		if err != nil || o.Status != StatusDelivered {
			t.Fatalf("Expected delivered, got %s (%v)", o.Status, err)
		}
		if _, err := s.Advance(ctx, o.ID); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("Expected ErrInvalidTransition past delivered, got %v", err)
		}
		if _, err := s.Cancel(ctx, o.ID); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("Expected delivered order not to be cancellable, got %v", err)
		}
	})

	t.Run("Cancel", func(t *testing.T) {
		s := newTestStore(t, nil)
		o, _ := s.Create(ctx, "u1", lines(), "", "")
		_, _ = s.Advance(ctx, o.ID)

		o, err := s.Cancel(ctx, o.ID)
		if err != nil || o.Status != StatusCancelled {
			t.Fatalf("Expected cancelled, got %s (%v)", o.Status, err)
		}
		if _, err := s.Advance(ctx, o.ID); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("Expected cancelled order not to advance, got %v", err)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		s := newTestStore(t, nil)
		if _, err := s.Cancel(ctx, "ORD-0"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
		if _, err := s.Get("ORD-0"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestListAndPersistence(t *testing.T) {
	ctx := context.Background()
	docs := newTestDocs(t)
	s := newTestStore(t, docs)

	base := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	s.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Hour)
	}

	first, _ := s.Create(ctx, "u1", lines(), "", "")
	_, _ = s.Create(ctx, "u2", lines(), "", "")
	last, _ := s.Create(ctx, "u1", lines(), "", "")
	_, _ = s.Advance(ctx, first.ID)

	all := s.List()
	if len(all) != 3 || all[0].ID != last.ID {
		t.Fatalf("Expected 3 orders newest first, got %+v", all)
	}
	mine := s.ListByUser("u1")
	if len(mine) != 2 {
		t.Errorf("Expected 2 orders for u1, got %d", len(mine))
	}

	restored := newTestStore(t, docs)
	got, err := restored.Get(first.ID)
	if err != nil {
		t.Fatalf("Expected restored order, got %v", err)
	}
	if got.Status != StatusProcessing || len(got.Items) != 2 {
		t.Errorf("Unexpected restored order: %+v", got)
	}
}
