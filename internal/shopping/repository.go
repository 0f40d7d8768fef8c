package shopping

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"meal-kit/internal/planner"
)

// Repository handles persistence of shopping lists.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new shopping list repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Save stores the list for a user's week, replacing any previous list.
func (r *Repository) Save(ctx context.Context, userID string, weekStart time.Time, list *ShoppingList) (int64, error) {
	itemsJSON, err := json.Marshal(list.Categories)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal shopping list items: %w", err)
	}

	week := planner.DateKey(planner.WeekStart(weekStart))
	now := time.Now().UTC()

	var id int64
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO shopping_lists (user_id, week_start_date, items, total, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, week_start_date) DO UPDATE SET
			items = excluded.items, total = excluded.total, created_at = excluded.created_at
		RETURNING id`,
		userID, week, string(itemsJSON), list.Total, now).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert shopping list: %w", err)
	}

	list.ID = id
	list.UserID = userID
	list.WeekStart = week
	list.CreatedAt = now
	return id, nil
}

// GetByUserAndWeek retrieves a shopping list by user ID and week start date.
// It returns nil when no list was saved for that week.
func (r *Repository) GetByUserAndWeek(ctx context.Context, userID string, weekStart time.Time) (*ShoppingList, error) {
	var (
		list  ShoppingList
		items string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, week_start_date, items, total, created_at FROM shopping_lists
		WHERE user_id = ? AND week_start_date = ?`,
		userID, planner.DateKey(planner.WeekStart(weekStart))).
		Scan(&list.ID, &list.UserID, &list.WeekStart, &items, &list.Total, &list.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shopping list by user and week: %w", err)
	}

	if err := json.Unmarshal([]byte(items), &list.Categories); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shopping list items: %w", err)
	}
	return &list, nil
}

// DeleteByUserAndWeek deletes the list of a user's week.
func (r *Repository) DeleteByUserAndWeek(ctx context.Context, userID string, weekStart time.Time) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM shopping_lists WHERE user_id = ? AND week_start_date = ?`,
		userID, planner.DateKey(planner.WeekStart(weekStart)))
	if err != nil {
		return fmt.Errorf("failed to delete shopping list: %w", err)
	}
	return nil
}
