package planner

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"meal-kit/internal/recipe"
)

// ErrInvalidMealType is returned for slots other than breakfast, lunch and dinner.
var ErrInvalidMealType = errors.New("invalid meal type")

// MealType names one of the three daily meal slots.
type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
)

// MealTypes lists the slots in serving order.
var MealTypes = []MealType{Breakfast, Lunch, Dinner}

// ParseMealType accepts a slot name in any case.
func ParseMealType(s string) (MealType, error) {
	m := MealType(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMealType, s)
	}
	return m, nil
}

// Valid reports whether m is a known slot.
func (m MealType) Valid() bool {
	switch m {
	case Breakfast, Lunch, Dinner:
		return true
	}
	return false
}

// DayPlan holds the recipes assigned to one calendar day.
type DayPlan struct {
	Breakfast *recipe.Recipe `json:"breakfast,omitempty"`
	Lunch     *recipe.Recipe `json:"lunch,omitempty"`
	Dinner    *recipe.Recipe `json:"dinner,omitempty"`
}

// Get returns the recipe in slot m, or nil.
func (d DayPlan) Get(m MealType) *recipe.Recipe {
	switch m {
	case Breakfast:
		return d.Breakfast
	case Lunch:
		return d.Lunch
	case Dinner:
		return d.Dinner
	}
	return nil
}

func (d *DayPlan) set(m MealType, r *recipe.Recipe) {
	switch m {
	case Breakfast:
		d.Breakfast = r
	case Lunch:
		d.Lunch = r
	case Dinner:
		d.Dinner = r
	}
}

// Empty reports whether no slot is filled.
func (d DayPlan) Empty() bool {
	return d.Breakfast == nil && d.Lunch == nil && d.Dinner == nil
}

// Recipes returns the filled slots in serving order.
func (d DayPlan) Recipes() []recipe.Recipe {
	var out []recipe.Recipe
	for _, m := range MealTypes {
		if r := d.Get(m); r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// WeeklyPlan maps an ISO calendar day ("2006-01-02") to its meals.
type WeeklyPlan map[string]DayPlan

// Days returns the planned days in chronological order.
func (p WeeklyPlan) Days() []string {
	days := make([]string, 0, len(p))
	for day := range p {
		days = append(days, day)
	}
	// ISO dates sort lexically.
	sort.Strings(days)
	return days
}

// Clone deep-copies the plan, recipes included.
func (p WeeklyPlan) Clone() WeeklyPlan {
	out := make(WeeklyPlan, len(p))
	for day, dp := range p {
		var c DayPlan
		for _, m := range MealTypes {
			if r := dp.Get(m); r != nil {
				cp := cloneRecipe(*r)
				c.set(m, &cp)
			}
		}
		out[day] = c
	}
	return out
}

// RecipeCount is the number of filled slots.
func (p WeeklyPlan) RecipeCount() int {
	n := 0
	for _, dp := range p {
		n += len(dp.Recipes())
	}
	return n
}

// DateKey normalizes a time to its calendar day, discarding the time of day.
func DateKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

// ParseDate reads an ISO calendar day in the local time zone.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}

func cloneRecipe(r recipe.Recipe) recipe.Recipe {
	r.Ingredients = append([]recipe.Ingredient(nil), r.Ingredients...)
	r.Steps = append([]recipe.Step(nil), r.Steps...)
	r.Reviews = append([]recipe.Review(nil), r.Reviews...)
	r.Tags = append([]string(nil), r.Tags...)
	return r
}
