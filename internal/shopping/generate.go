package shopping

import (
	"slices"
	"sort"
	"strings"

	"meal-kit/internal/planner"
)

// DefaultUnitPrice is charged for an ingredient line that carries no price.
const DefaultUnitPrice = 2.50

// Options tune list generation.
type Options struct {
	DefaultUnitPrice float64
}

func mergeKey(name, unit string) string {
	return strings.ToLower(strings.TrimSpace(name)) + "|" + strings.ToLower(strings.TrimSpace(unit))
}

// Generate flattens every ingredient of every populated slot into a list
// grouped by category. Lines sharing a name and unit are merged.
func Generate(plan planner.WeeklyPlan, opts Options) *ShoppingList {
	if opts.DefaultUnitPrice <= 0 {
		opts.DefaultUnitPrice = DefaultUnitPrice
	}

	merged := make(map[string]*Item)
	for _, day := range plan.Days() {
		for _, r := range plan[day].Recipes() {
			for _, ing := range r.Ingredients {
				if strings.TrimSpace(ing.Name) == "" {
					continue
				}
				price := ing.Price
				if price <= 0 {
					price = opts.DefaultUnitPrice
				}

				k := mergeKey(ing.Name, ing.Unit)
				it, ok := merged[k]
				if !ok {
					cat := ing.Category
					if cat == "" {
						cat = Categorize(ing.Name)
					}
					it = &Item{Name: ing.Name, Unit: ing.Unit, Category: cat}
					merged[k] = it
				}
				it.Quantity += ing.Quantity
				it.Price += price
				if !slices.Contains(it.Recipes, r.Title) {
					it.Recipes = append(it.Recipes, r.Title)
				}
			}
		}
	}

	byCategory := make(map[string][]Item)
	list := &ShoppingList{}
	for _, it := range merged {
		byCategory[it.Category] = append(byCategory[it.Category], *it)
		list.Total += it.Price
	}

	names := make([]string, 0, len(byCategory))
	for name := range byCategory {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		items := byCategory[name]
		sort.Slice(items, func(i, j int) bool {
			a, b := strings.ToLower(items[i].Name), strings.ToLower(items[j].Name)
			if a != b {
				return a < b
			}
			return items[i].Unit < items[j].Unit
		})
		list.Categories = append(list.Categories, Category{Name: name, Items: items})
	}
	return list
}
