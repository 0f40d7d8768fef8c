package planner

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"meal-kit/internal/logger"
	"meal-kit/internal/recipe"
)

// Scope selects which days CalculateNutritionalStats sums.
type Scope string

const (
	// ScopePlan sums every populated slot of the plan, whatever the week.
	ScopePlan Scope = "plan"
	// ScopeWeek sums the seven days starting at the Monday of the given week.
	ScopeWeek Scope = "week"
)

// Options configure a Store.
type Options struct {
	Thresholds Thresholds
	Scope      Scope
}

// Store is the mutable weekly meal plan. Safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	plan       WeeklyPlan
	thresholds Thresholds
	scope      Scope
	log        logrus.FieldLogger
}

// NewStore creates an empty plan. A nil log discards output.
func NewStore(opts Options, log logrus.FieldLogger) *Store {
	if opts.Scope == "" {
		opts.Scope = ScopePlan
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Store{
		plan:       make(WeeklyPlan),
		thresholds: opts.Thresholds,
		scope:      opts.Scope,
		log:        log,
	}
}

// AddRecipeToSlot assigns r to the calendar day of date and slot meal,
// replacing whatever was there.
func (s *Store) AddRecipeToSlot(date time.Time, meal MealType, r recipe.Recipe) error {
	if !meal.Valid() {
		return ErrInvalidMealType
	}
	day := DateKey(date)
	cp := cloneRecipe(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	dp := s.plan[day]
	if prev := dp.Get(meal); prev != nil {
		s.log.Debugf("replacing %s on %s %s with %s", prev.ID, day, meal, r.ID)
	}
	dp.set(meal, &cp)
	s.plan[day] = dp
	return nil
}

// RemoveRecipeFromSlot clears a slot. Clearing an empty slot is a no-op.
func (s *Store) RemoveRecipeFromSlot(date time.Time, meal MealType) error {
	if !meal.Valid() {
		return ErrInvalidMealType
	}
	day := DateKey(date)

	s.mu.Lock()
	defer s.mu.Unlock()

	dp, ok := s.plan[day]
	if !ok {
		return nil
	}
	dp.set(meal, nil)
	if dp.Empty() {
		delete(s.plan, day)
		return nil
	}
	s.plan[day] = dp
	return nil
}

// Slot returns the recipe assigned to a slot.
func (s *Store) Slot(date time.Time, meal MealType) (recipe.Recipe, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r := s.plan[DateKey(date)].Get(meal)
	if r == nil {
		return recipe.Recipe{}, false
	}
	return cloneRecipe(*r), true
}

// Snapshot returns a deep copy of the current plan.
func (s *Store) Snapshot() WeeklyPlan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plan.Clone()
}

// Restore replaces the current plan with a copy of p.
func (s *Store) Restore(p WeeklyPlan) {
	c := p.Clone()
	for day, dp := range c {
		if dp.Empty() {
			delete(c, day)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.plan = c
}

// Clear removes every assignment.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plan = make(WeeklyPlan)
}

// Thresholds returns the trend thresholds in use.
func (s *Store) Thresholds() Thresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.thresholds
}

// SetThresholds replaces the trend thresholds, e.g. after the household changed.
func (s *Store) SetThresholds(th Thresholds) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thresholds = th
}

// Scope returns the default aggregation scope.
func (s *Store) Scope() Scope {
	return s.scope
}

// CalculateNutritionalStats sums the plan according to the store's scope.
// With ScopePlan the week argument is ignored.
func (s *Store) CalculateNutritionalStats(week time.Time) NutritionalStats {
	return s.CalculateNutritionalStatsScoped(week, s.scope)
}

// CalculateNutritionalStatsScoped is CalculateNutritionalStats with an explicit scope.
func (s *Store) CalculateNutritionalStatsScoped(week time.Time, scope Scope) NutritionalStats {
	var include func(string) bool
	if scope == ScopeWeek {
		days := make(map[string]struct{}, 7)
		for _, d := range WeekDays(week) {
			days[d] = struct{}{}
		}
		include = func(day string) bool {
			_, ok := days[day]
			return ok
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return Aggregate(s.plan, s.thresholds, include)
}
