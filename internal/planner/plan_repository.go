package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SavedPlan is a stored snapshot of a weekly plan.
type SavedPlan struct {
	ID        int64
	UserID    string
	WeekStart string
	Plan      WeeklyPlan
	CreatedAt time.Time
}

// PlanRepository is a database-backed repository for plan snapshots.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{db: d}
}

// Save stores a snapshot of plan for the week containing weekStart.
func (r *PlanRepository) Save(ctx context.Context, userID string, weekStart time.Time, plan WeeklyPlan) (int64, error) {
	planData, err := json.Marshal(plan)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal meal plan: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO meal_plans (user_id, week_start_date, plan_data, created_at) VALUES (?, ?, ?, ?)`,
		userID, DateKey(WeekStart(weekStart)), string(planData), time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert meal plan: %w", err)
	}
	return res.LastInsertId()
}

// LatestForWeek returns the most recent snapshot of a week, or nil.
func (r *PlanRepository) LatestForWeek(ctx context.Context, userID string, weekStart time.Time) (*SavedPlan, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, week_start_date, plan_data, created_at FROM meal_plans
		WHERE user_id = ? AND week_start_date = ?
		ORDER BY id DESC LIMIT 1`,
		userID, DateKey(WeekStart(weekStart)))

	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meal plan for week: %w", err)
	}
	return p, nil
}

// ExistsForWeek reports whether a snapshot exists for the week.
func (r *PlanRepository) ExistsForWeek(ctx context.Context, userID string, weekStart time.Time) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM meal_plans WHERE user_id = ? AND week_start_date = ?`,
		userID, DateKey(WeekStart(weekStart))).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check meal plan existence: %w", err)
	}
	return n > 0, nil
}

// ListRecentByUserID retrieves the N most recent meal plans for a given user.
func (r *PlanRepository) ListRecentByUserID(ctx context.Context, userID string, limit int) ([]SavedPlan, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, week_start_date, plan_data, created_at FROM meal_plans
		WHERE user_id = ? ORDER BY id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent meal plans for user %s: %w", userID, err)
	}
	defer rows.Close()

	var plans []SavedPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal plan: %w", err)
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(s scanner) (*SavedPlan, error) {
	var (
		p    SavedPlan
		data string
	)
	if err := s.Scan(&p.ID, &p.UserID, &p.WeekStart, &data, &p.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &p.Plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal meal plan: %w", err)
	}
	return &p, nil
}
