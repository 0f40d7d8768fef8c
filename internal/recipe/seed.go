package recipe

import (
	"context"
	"fmt"
	"time"
)

// SeedAuthorID owns the recipes of the seed catalog.
const SeedAuthorID = "creator-seed"

func fp(v float64) *float64 { return &v }

// SeedRecipes is the starter catalog shipped with the application.
func SeedRecipes() []Recipe {
	created := time.Date(2024, time.January, 8, 9, 0, 0, 0, time.UTC)
	return []Recipe{
		{
			ID:          "poulet-basquaise",
			Title:       "Poulet basquaise",
			Description: "Cuisses de poulet mijotées aux poivrons et tomates.",
			Category:    "Plat principal",
			Duration:    "1h15",
			Difficulty:  DifficultyMedium,
			Servings:    4,
			Price:       24.90,
			Ingredients: []Ingredient{
				{Name: "Poulet", Quantity: 1.2, Unit: "kg", Price: 9.50},
				{Name: "Poivron", Quantity: 3, Unit: "pièce", Price: 2.40},
				{Name: "Tomate", Quantity: 0.5, Unit: "kg", Price: 1.80},
				{Name: "Oignon", Quantity: 2, Unit: "pièce", Price: 0.60},
				{Name: "Riz", Quantity: 0.3, Unit: "kg", Price: 0.90},
			},
			Steps: []Step{
				{Description: "Faire dorer le poulet.", Duration: 15},
				{Description: "Ajouter les légumes et mijoter.", Duration: 50},
				{Description: "Cuire le riz.", Duration: 10},
			},
			Nutrition: Nutrition{Calories: 2400, Proteins: 180, Carbs: 280, Fats: 64, Fiber: fp(18)},
			Tags:      []string{"sans gluten", "familial"},
			AuthorID:  SeedAuthorID,
			CreatedAt: created,
			UpdatedAt: created,
		},
		{
			ID:          "porridge-fruits-rouges",
			Title:       "Porridge aux fruits rouges",
			Description: "Flocons d'avoine, lait et fruits rouges.",
			Category:    "Petit-déjeuner",
			Duration:    "10 min",
			Difficulty:  DifficultyEasy,
			Servings:    2,
			Price:       6.50,
			Ingredients: []Ingredient{
				{Name: "Flocons d'avoine", Quantity: 0.16, Unit: "kg", Price: 0.50},
				{Name: "Lait", Quantity: 0.5, Unit: "l", Price: 0.55},
				{Name: "Fruits rouges", Quantity: 0.2, Unit: "kg", Price: 2.80},
				{Name: "Miel", Quantity: 30, Unit: "g", Price: 0.40},
			},
			Steps: []Step{
				{Description: "Chauffer le lait avec l'avoine.", Duration: 7},
				{Description: "Servir avec les fruits et le miel.", Duration: 3},
			},
			Nutrition: Nutrition{Calories: 900, Proteins: 32, Carbs: 140, Fats: 22, Sugar: fp(48)},
			Tags:      []string{"végétarien", "rapide"},
			AuthorID:  SeedAuthorID,
			CreatedAt: created,
			UpdatedAt: created,
		},
		{
			ID:          "salade-nicoise",
			Title:       "Salade niçoise",
			Description: "Thon, œufs, haricots verts et tomates.",
			Category:    "Entrée",
			Duration:    "25 min",
			Difficulty:  DifficultyEasy,
			Servings:    2,
			Price:       12.00,
			Ingredients: []Ingredient{
				{Name: "Thon", Quantity: 0.2, Unit: "kg", Price: 3.90},
				{Name: "Oeufs", Quantity: 4, Unit: "pièce", Price: 1.20},
				{Name: "Haricots verts", Quantity: 0.25, Unit: "kg", Price: 1.50},
				{Name: "Tomate", Quantity: 0.3, Unit: "kg", Price: 1.10},
				{Name: "Huile d'olive", Quantity: 30, Unit: "ml", Price: 0.45},
			},
			Steps: []Step{
				{Description: "Cuire les œufs et les haricots.", Duration: 12},
				{Description: "Assembler la salade.", Duration: 13},
			},
			Nutrition: Nutrition{Calories: 1100, Proteins: 90, Carbs: 40, Fats: 62},
			Tags:      []string{"sans gluten", "été"},
			AuthorID:  SeedAuthorID,
			CreatedAt: created,
			UpdatedAt: created,
		},
		{
			ID:          "risotto-champignons",
			Title:       "Risotto aux champignons",
			Description: "Riz arborio crémeux, champignons de Paris et parmesan.",
			Category:    "Plat principal",
			Duration:    "40 min",
			Difficulty:  DifficultyHard,
			Servings:    4,
			Price:       18.40,
			Ingredients: []Ingredient{
				{Name: "Riz", Quantity: 0.32, Unit: "kg", Price: 1.60},
				{Name: "Champignons", Quantity: 0.4, Unit: "kg", Price: 2.90},
				{Name: "Parmesan", Quantity: 80, Unit: "g", Price: 2.10},
				{Name: "Oignon", Quantity: 1, Unit: "pièce", Price: 0.30},
				{Name: "Bouillon de légumes", Quantity: 1, Unit: "l", Price: 1.00},
			},
			Steps: []Step{
				{Description: "Nacrer le riz avec l'oignon.", Duration: 5},
				{Description: "Mouiller au bouillon petit à petit.", Duration: 25, Tips: "Remuer sans cesse."},
				{Description: "Ajouter champignons et parmesan.", Duration: 10},
			},
			Nutrition: Nutrition{Calories: 2200, Proteins: 70, Carbs: 330, Fats: 60},
			Tags:      []string{"végétarien"},
			AuthorID:  SeedAuthorID,
			CreatedAt: created,
			UpdatedAt: created,
		},
		{
			ID:          "saumon-papillote",
			Title:       "Saumon en papillote",
			Description: "Pavés de saumon, citron et courgettes au four.",
			Category:    "Plat principal",
			Duration:    "30 min",
			Difficulty:  DifficultyEasy,
			Servings:    2,
			Price:       16.80,
			Ingredients: []Ingredient{
				{Name: "Saumon", Quantity: 0.3, Unit: "kg", Price: 8.40},
				{Name: "Courgette", Quantity: 2, Unit: "pièce", Price: 1.40},
				{Name: "Citron", Quantity: 1, Unit: "pièce", Price: 0.50},
				{Name: "Riz", Quantity: 0.15, Unit: "kg", Price: 0.45},
			},
			Steps: []Step{
				{Description: "Préparer les papillotes.", Duration: 10},
				{Description: "Cuire au four.", Duration: 20, Temperature: 200},
			},
			Nutrition: Nutrition{Calories: 1300, Proteins: 80, Carbs: 120, Fats: 52, Sodium: fp(0.9)},
			Tags:      []string{"poisson", "sans gluten"},
			AuthorID:  SeedAuthorID,
			CreatedAt: created,
			UpdatedAt: created,
		},
	}
}

// Seed adds the starter recipes to the catalog, skipping IDs already present.
func Seed(ctx context.Context, c *Catalog) (int, error) {
	added := 0
	for _, r := range SeedRecipes() {
		if _, err := c.Get(r.ID); err == nil {
			continue
		}
		if _, err := c.Add(ctx, r); err != nil {
			return added, fmt.Errorf("failed to seed recipe %s: %w", r.ID, err)
		}
		added++
	}
	return added, nil
}
