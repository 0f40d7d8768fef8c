package shopping

import "time"

// Item is one merged line of a shopping list.
type Item struct {
	Name     string   `json:"name"`
	Unit     string   `json:"unit"`
	Quantity float64  `json:"quantity"`
	Price    float64  `json:"price"`
	Category string   `json:"category"`
	Recipes  []string `json:"recipes"`
}

// Category groups the items of one aisle.
type Category struct {
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// ShoppingList represents a shopping list for a meal plan.
type ShoppingList struct {
	ID         int64      `json:"id"`
	UserID     string     `json:"user_id"`
	WeekStart  string     `json:"week_start"`
	Categories []Category `json:"categories"`
	Total      float64    `json:"total"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ItemCount returns the number of lines across every category.
func (l *ShoppingList) ItemCount() int {
	n := 0
	for _, c := range l.Categories {
		n += len(c.Items)
	}
	return n
}

// Find returns the line matching name and unit, ignoring case.
func (l *ShoppingList) Find(name, unit string) (Item, bool) {
	k := mergeKey(name, unit)
	for _, c := range l.Categories {
		for _, it := range c.Items {
			if mergeKey(it.Name, it.Unit) == k {
				return it, true
			}
		}
	}
	return Item{}, false
}
