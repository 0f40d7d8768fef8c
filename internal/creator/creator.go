// Package creator derives the dashboard figures of a recipe author.
package creator

import (
	"sort"
	"time"

	"meal-kit/internal/identity"
	"meal-kit/internal/order"
	"meal-kit/internal/recipe"
)

// CommissionRate is the share of each sold line paid to the recipe author.
const CommissionRate = 0.0005

// RecipeStats are the figures of one authored recipe.
type RecipeStats struct {
	RecipeID      string  `json:"recipe_id"`
	Title         string  `json:"title"`
	Orders        int     `json:"orders"`
	Quantity      int     `json:"quantity"`
	Earnings      float64 `json:"earnings"`
	AverageRating float64 `json:"average_rating"`
}

// Stats summarize an author's recipes.
type Stats struct {
	RecipesCount          int           `json:"recipes_count"`
	OrdersCount           int           `json:"orders_count"`
	Earnings              float64       `json:"earnings"`
	AverageRating         float64       `json:"average_rating"`
	ReviewsCount          int           `json:"reviews_count"`
	CurrentMonthEarnings  float64       `json:"current_month_earnings"`
	PreviousMonthEarnings float64       `json:"previous_month_earnings"`
	GrowthPercent         float64       `json:"growth_percent"`
	Recipes               []RecipeStats `json:"recipes"`
}

// Compute recomputes the stats of user from scratch. Cancelled orders are
// ignored. The month boundaries are taken in now's location.
func Compute(user *identity.User, recipes []recipe.Recipe, orders []order.Order, now time.Time) Stats {
	var st Stats
	if user == nil {
		return st
	}

	byID := make(map[string]*RecipeStats)
	ratingSum := 0
	for _, r := range recipes {
		if r.AuthorID != user.ID {
			continue
		}
		st.RecipesCount++
		byID[r.ID] = &RecipeStats{RecipeID: r.ID, Title: r.Title, AverageRating: r.AverageRating()}
		for _, rev := range r.Reviews {
			ratingSum += rev.Rating
			st.ReviewsCount++
		}
	}
	if st.ReviewsCount > 0 {
		st.AverageRating = float64(ratingSum) / float64(st.ReviewsCount)
	}

	curMonth := monthStart(now)
	prevMonth := curMonth.AddDate(0, -1, 0)

	for _, o := range orders {
		if o.Status == order.StatusCancelled {
			continue
		}
		touched := false
		seen := make(map[string]bool)
		for _, it := range o.Items {
			rs, ok := byID[it.RecipeID]
			if !ok {
				continue
			}
			touched = true
			earned := CommissionRate * it.Price * float64(it.Quantity)
			st.Earnings += earned
			rs.Earnings += earned
			rs.Quantity += it.Quantity
			if !seen[it.RecipeID] {
				rs.Orders++
				seen[it.RecipeID] = true
			}

			switch m := monthStart(o.Date.In(now.Location())); {
			case m.Equal(curMonth):
				st.CurrentMonthEarnings += earned
			case m.Equal(prevMonth):
				st.PreviousMonthEarnings += earned
			}
		}
		if touched {
			st.OrdersCount++
		}
	}

	st.GrowthPercent = Growth(st.CurrentMonthEarnings, st.PreviousMonthEarnings)

	for _, rs := range byID {
		st.Recipes = append(st.Recipes, *rs)
	}
	sort.Slice(st.Recipes, func(i, j int) bool {
		if st.Recipes[i].Earnings != st.Recipes[j].Earnings {
			return st.Recipes[i].Earnings > st.Recipes[j].Earnings
		}
		return st.Recipes[i].Title < st.Recipes[j].Title
	})
	return st
}

// Growth is the month-over-month change in percent. Any month following an
// empty one counts as 100.
func Growth(current, previous float64) float64 {
	if previous == 0 {
		return 100
	}
	return (current - previous) / previous * 100
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
