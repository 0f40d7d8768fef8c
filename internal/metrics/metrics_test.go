package metrics

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"meal-kit/internal/database"
	"meal-kit/internal/logger"
	"meal-kit/internal/shared"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"), logger.Discard())
	if err != nil {
		t.Fatalf("Failed to create test DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db.SQL)
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	now := time.Now().UTC()
	records := []ExecutionMetric{
		{Operation: "recipe-extract", Model: "m", PromptTokens: 100, CompletionTokens: 10, Timestamp: now},
		{Operation: "recipe-extract", Model: "m", PromptTokens: 50, CompletionTokens: 5, Timestamp: now},
		{Operation: "recipe-extract", Model: "m", PromptTokens: 7, CompletionTokens: 1, Timestamp: now.AddDate(0, 0, -2)},
		{Operation: "recipe-extract", Model: "m", PromptTokens: 1, CompletionTokens: 1, Timestamp: now.AddDate(0, 0, -40)},
	}
	for _, m := range records {
		if err := s.Record(ctx, m); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	t.Run("DailyUsage", func(t *testing.T) {
		usage, err := s.GetDailyUsage(ctx, 7)
		if err != nil {
			t.Fatalf("GetDailyUsage failed: %v", err)
		}
		if len(usage) != 2 {
			t.Fatalf("Expected 2 days of usage, got %d: %+v", len(usage), usage)
		}
		today := usage[0]
		if today.Date != now.Format("2006-01-02") {
			t.Errorf("Expected newest day first, got %s", today.Date)
		}
		if today.TotalPrompt != 150 || today.TotalCompletion != 15 || today.TotalExecution != 2 {
			t.Errorf("Unexpected totals for today: %+v", today)
		}
	})

	t.Run("RecordMetaSkipsEmptyUsage", func(t *testing.T) {
		if err := s.RecordMeta(ctx, shared.CallMeta{Operation: "noop"}); err != nil {
			t.Fatalf("RecordMeta failed: %v", err)
		}
		err := s.RecordMeta(ctx, shared.CallMeta{
			Operation: "recipe-extract",
			Usage:     shared.TokenUsage{PromptTokens: 3, CompletionTokens: 2},
			Latency:   1500 * time.Millisecond,
		})
		if err != nil {
			t.Fatalf("RecordMeta failed: %v", err)
		}
		usage, _ := s.GetDailyUsage(ctx, 1)
		if len(usage) == 0 || usage[0].TotalExecution != 3 {
			t.Errorf("Expected 3 executions today, got %+v", usage)
		}
	})

	t.Run("Cleanup", func(t *testing.T) {
		n, err := s.Cleanup(ctx, 30)
		if err != nil {
			t.Fatalf("Cleanup failed: %v", err)
		}
		if n != 1 {
			t.Errorf("Expected 1 old record removed, got %d", n)
		}
	})
}

func TestMapUsage(t *testing.T) {
	m := MapUsage("op", shared.TokenUsage{PromptTokens: 1, CompletionTokens: 2, Model: "x"}, 250*time.Millisecond)
	if m.Operation != "op" || m.Model != "x" || m.LatencyMS != 250 {
		t.Errorf("Unexpected metric: %+v", m)
	}
}

func TestSysHealth(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "data.bin"), make([]byte, 2048), 0o644); err != nil {
		t.Fatal(err)
	}
	h := GetSysHealth(dir, time.Now().Add(-time.Minute))
	if h.DataSize != "2.0 KB" {
		t.Errorf("Expected 2.0 KB, got %s", h.DataSize)
	}
	if h.Goroutines == 0 || h.Uptime < time.Minute {
		t.Errorf("Unexpected health: %+v", h)
	}
}

func TestHumanBytes(t *testing.T) {
	cases := map[int64]string{
		512:             "512 B",
		1536:            "1.5 KB",
		5 * 1024 * 1024: "5.0 MB",
	}
	for in, want := range cases {
		if got := HumanBytes(in); got != want {
			t.Errorf("HumanBytes(%d) = %s, want %s", in, got, want)
		}
	}
}
