package telegram

import (
	"fmt"
	"strings"
	"time"

	"meal-kit/internal/cart"
	"meal-kit/internal/metrics"
	"meal-kit/internal/order"
	"meal-kit/internal/planner"
	"meal-kit/internal/recipe"
	"meal-kit/internal/shopping"
)

const helpText = `🥕 *Meal Kit*

/recipes - list the catalog
/add <date> <slot> <recipe-id> - plan a meal
/remove <date> <slot> - free a slot
/plan [date] - show the week
/weeks - saved plans
/stats [date] - nutrition of the week
/shopping [date] - shopping list
/cart - show the cart
/plantocart [date] - add the planned kits to the cart
/checkout [address] - place the order

Send a recipe URL to import it.`

func errorText(title string, err error) string {
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	return fmt.Sprintf("❌ *%s:*\n```\n%v\n```", title, safeErr)
}

func formatRecipes(recipes []recipe.Recipe) string {
	if len(recipes) == 0 {
		return "📖 The catalog is empty."
	}
	var sb strings.Builder
	sb.WriteString("📖 *Recipes*\n\n")
	for _, r := range recipes {
		sb.WriteString(fmt.Sprintf("• *%s* `%s`\n  %s · %.2f € · %d kcal\n", r.Title, r.ID, r.Duration, r.Price, int(r.Nutrition.Calories)))
	}
	return sb.String()
}

func formatPlan(week time.Time, plan planner.WeeklyPlan) string {
	var pb strings.Builder
	pb.WriteString(fmt.Sprintf("📅 *Meal Plan* (week of %s)\n\n", planner.DateKey(week)))

	start := planner.WeekStart(week)
	total, planned := 0, 0
	for i := range 7 {
		day := start.AddDate(0, 0, i)
		dp, ok := plan[planner.DateKey(day)]
		if !ok || dp.Empty() {
			continue
		}
		pb.WriteString(fmt.Sprintf("*%s %s*\n", day.Weekday(), day.Format("02/01")))
		for _, m := range planner.MealTypes {
			r := dp.Get(m)
			if r == nil {
				continue
			}
			pb.WriteString(fmt.Sprintf("  %s: %s", m, r.Title))
			if r.Duration != "" {
				pb.WriteString(fmt.Sprintf(" (%s)", r.Duration))
			}
			pb.WriteString("\n")
			total += r.PrepMinutes()
			planned++
		}
		pb.WriteString("\n")
	}

	if planned == 0 {
		pb.WriteString("_Nothing planned yet. Use /add._\n")
		return pb.String()
	}
	pb.WriteString(fmt.Sprintf("⏱ *Total Prep:* %d mins", total))
	return pb.String()
}

var trendIcons = map[planner.Trend]string{
	planner.TrendUp:     "⬆️",
	planner.TrendDown:   "⬇️",
	planner.TrendStable: "✅",
}

func formatStats(week time.Time, s planner.NutritionalStats) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🥗 *Nutrition* (week of %s)\n\n", planner.DateKey(week)))
	sb.WriteString(fmt.Sprintf("*Score:* %s · %d recipes · %d mins\n\n", s.NutritionScore, s.TotalRecipes, s.TotalPrepTime))
	sb.WriteString(fmt.Sprintf("%s Calories: %.0f kcal\n", trendIcons[s.Trends.Calories], s.Calories))
	sb.WriteString(fmt.Sprintf("%s Proteins: %.0f g (%.0f%%)\n", trendIcons[s.Trends.Proteins], s.Proteins, s.Shares.Proteins))
	sb.WriteString(fmt.Sprintf("%s Carbs: %.0f g (%.0f%%)\n", trendIcons[s.Trends.Carbs], s.Carbs, s.Shares.Carbs))
	sb.WriteString(fmt.Sprintf("%s Fats: %.0f g (%.0f%%)\n", trendIcons[s.Trends.Fats], s.Fats, s.Shares.Fats))
	return sb.String()
}

func formatWeeks(history []planner.SavedPlan, next time.Time, nextPlanned bool) string {
	var sb strings.Builder
	sb.WriteString("🗓 *Saved Plans*\n\n")
	if len(history) == 0 {
		sb.WriteString("_No saved plans yet._\n")
	}
	for _, p := range history {
		n := 0
		if start, err := planner.ParseDate(p.WeekStart); err == nil {
			for _, day := range planner.WeekDays(start) {
				n += len(p.Plan[day].Recipes())
			}
		}
		sb.WriteString(fmt.Sprintf("• %s: %d recipes\n", p.WeekStart, n))
	}

	status := "not planned yet"
	if nextPlanned {
		status = "planned"
	}
	sb.WriteString(fmt.Sprintf("\nNext week (%s): %s", planner.DateKey(next), status))
	return sb.String()
}

func formatShoppingList(list *shopping.ShoppingList) string {
	if list == nil || list.ItemCount() == 0 {
		return "🛒 *Shopping List*\n\n_Nothing to buy, plan some meals first._"
	}
	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*\n")
	for _, c := range list.Categories {
		sb.WriteString(fmt.Sprintf("\n*%s*\n", c.Name))
		for _, item := range c.Items {
			sb.WriteString(fmt.Sprintf("• %s: %s %s\n", item.Name, formatQuantity(item.Quantity), item.Unit))
		}
	}
	sb.WriteString(fmt.Sprintf("\n💶 *Estimated:* %.2f €", list.Total))
	return sb.String()
}

// formatQuantity drops trailing zeros: 0.80 prints as 0.8, 2.00 as 2.
func formatQuantity(q float64) string {
	s := strings.TrimRight(fmt.Sprintf("%.2f", q), "0")
	return strings.TrimSuffix(s, ".")
}

func formatCart(items []cart.Item, total float64) string {
	if len(items) == 0 {
		return "🧺 Your cart is empty."
	}
	var sb strings.Builder
	sb.WriteString("🧺 *Cart*\n\n")
	for _, it := range items {
		sb.WriteString(fmt.Sprintf("• %d × %s: %.2f €\n", it.Quantity, it.Recipe.Title, it.Subtotal()))
	}
	sb.WriteString(fmt.Sprintf("\n*Total:* %.2f €", total))
	return sb.String()
}

func formatOrder(o order.Order) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📦 *Order %s* (%s)\n\n", o.ID, o.Status))
	for _, it := range o.Items {
		sb.WriteString(fmt.Sprintf("• %d × %s\n", it.Quantity, it.Recipe.Title))
	}
	sb.WriteString(fmt.Sprintf("\n*Total:* %.2f €", o.Total))
	if o.DeliveryAddress != "" {
		sb.WriteString(fmt.Sprintf("\n*Delivery:* %s", o.DeliveryAddress))
	}
	return sb.String()
}

func formatMetrics(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataSize))
	sb.WriteString(fmt.Sprintf("• Uptime: %s\n", health.Uptime))
	return sb.String()
}
