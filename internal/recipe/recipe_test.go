package recipe

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"meal-kit/internal/database"
	"meal-kit/internal/llm"
	"meal-kit/internal/logger"
	"meal-kit/internal/shared"
)

type mockTextGenerator struct {
	response    string
	shouldError bool
	lastPrompt  string
}

func (m *mockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.lastPrompt = prompt
	if m.shouldError {
		return llm.ContentResponse{}, errors.New("LLM error")
	}
	return llm.ContentResponse{
		Content: m.response,
		Usage:   shared.TokenUsage{PromptTokens: 100, CompletionTokens: 50, Model: "mock"},
	}, nil
}

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"), logger.Discard())
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRepository(db.SQL, logger.Discard())
}

func TestParseMinutes(t *testing.T) {
	cases := map[string]int{
		"45 min":                             45,
		"1h30":                               90,
		"1h15":                               75,
		"1h30min":                            90,
		"1 h 30 min":                         90,
		"2 hours":                            120,
		"25":                                 25,
		"20 mins":                            20,
		"1 heure":                            60,
		"environ 15m":                        15,
		"45 min pour 4 hommes":               45,
		"30 minutes + 2h de repos":           150,
		"Préparation : 20 min, cuisson : 1h": 80,
	}
	for text, want := range cases {
		got, ok := ParseMinutes(text)
		if !ok || got != want {
			t.Errorf("ParseMinutes(%q) = %d, %v; want %d", text, got, ok, want)
		}
	}

	if _, ok := ParseMinutes("quick"); ok {
		t.Error("Expected text without numbers to be unparseable")
	}
}

func TestPrepMinutesIgnoresServings(t *testing.T) {
	r := Recipe{Duration: "45 min pour 4 hommes", Steps: []Step{{Duration: 5}}}
	if got := r.PrepMinutes(); got != 45 {
		t.Errorf("Expected 45 minutes, got %d", got)
	}
}

func TestPrepMinutesFallsBackToSteps(t *testing.T) {
	r := Recipe{Duration: "rapide", Steps: []Step{{Duration: 5}, {Duration: 12}}}
	if got := r.PrepMinutes(); got != 17 {
		t.Errorf("Expected 17 minutes from steps, got %d", got)
	}
}

func TestValidate(t *testing.T) {
	valid := Recipe{Title: "Soupe", Servings: 2, Ingredients: []Ingredient{{Name: "Eau"}}}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Expected valid recipe, got %v", err)
	}

	invalid := []Recipe{
		{Servings: 2, Ingredients: valid.Ingredients},
		{Title: "Soupe", Ingredients: valid.Ingredients},
		{Title: "Soupe", Servings: 2},
		{Title: "Soupe", Servings: 2, Ingredients: valid.Ingredients, Difficulty: "extreme"},
	}
	for i, r := range invalid {
		if err := r.Validate(); !errors.Is(err, ErrInvalidRecipe) {
			t.Errorf("case %d: expected ErrInvalidRecipe, got %v", i, err)
		}
	}
}

func TestAverageRatingAndPricePerServing(t *testing.T) {
	r := Recipe{Price: 20, Servings: 4, Reviews: []Review{{Rating: 5}, {Rating: 3}}}
	if got := r.AverageRating(); got != 4 {
		t.Errorf("Expected average 4, got %v", got)
	}
	if got := r.PricePerServing(); got != 5 {
		t.Errorf("Expected 5 per serving, got %v", got)
	}
	if got := (Recipe{}).AverageRating(); got != 0 {
		t.Errorf("Expected 0 without reviews, got %v", got)
	}
}

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	seed := SeedRecipes()
	for _, r := range seed {
		if err := repo.Save(ctx, r); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	t.Run("Get", func(t *testing.T) {
		got, err := repo.Get(ctx, "salade-nicoise")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Title != "Salade niçoise" || len(got.Ingredients) != 5 {
			t.Errorf("Unexpected recipe: %+v", got)
		}
	})

	t.Run("GetNotFound", func(t *testing.T) {
		if _, err := repo.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Upsert", func(t *testing.T) {
		r := seed[0]
		r.Price = 30
		if err := repo.Save(ctx, r); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		count, err := repo.Count(ctx)
		if err != nil {
			t.Fatalf("Count failed: %v", err)
		}
		if count != len(seed) {
			t.Errorf("Expected %d recipes after upsert, got %d", len(seed), count)
		}
		got, _ := repo.Get(ctx, r.ID)
		if got.Price != 30 {
			t.Errorf("Expected updated price 30, got %v", got.Price)
		}
	})

	t.Run("ListByAuthor", func(t *testing.T) {
		if err := repo.Save(ctx, Recipe{ID: "other", Title: "Autre", Servings: 1, AuthorID: "someone"}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		mine, err := repo.ListByAuthor(ctx, SeedAuthorID)
		if err != nil {
			t.Fatalf("ListByAuthor failed: %v", err)
		}
		if len(mine) != len(seed) {
			t.Errorf("Expected %d seed recipes, got %d", len(seed), len(mine))
		}
		all, _ := repo.List(ctx)
		if len(all) != len(seed)+1 {
			t.Errorf("Expected %d recipes, got %d", len(seed)+1, len(all))
		}
	})
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	catalog := NewCatalog(repo, logger.Discard())

	added, err := Seed(ctx, catalog)
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if added != len(SeedRecipes()) {
		t.Errorf("Expected %d seeded recipes, got %d", len(SeedRecipes()), added)
	}

	t.Run("SeedIsIdempotent", func(t *testing.T) {
		added, err := Seed(ctx, catalog)
		if err != nil || added != 0 {
			t.Errorf("Expected re-seed to add nothing, got %d, %v", added, err)
		}
	})

	t.Run("LoadFromRepository", func(t *testing.T) {
		fresh := NewCatalog(repo, logger.Discard())
		if err := fresh.Load(ctx); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if fresh.Len() != catalog.Len() {
			t.Errorf("Expected %d recipes after load, got %d", catalog.Len(), fresh.Len())
		}
	})

	t.Run("AddAssignsID", func(t *testing.T) {
		r, err := catalog.Add(ctx, Recipe{Title: "Crêpes", Servings: 4, Ingredients: []Ingredient{{Name: "Farine"}}, AuthorID: "u1"})
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if r.ID == "" || r.CreatedAt.IsZero() {
			t.Errorf("Expected ID and CreatedAt to be set, got %+v", r)
		}
		if got := catalog.ByAuthor("u1"); len(got) != 1 {
			t.Errorf("Expected 1 recipe for u1, got %d", len(got))
		}
	})

	t.Run("AddRejectsInvalid", func(t *testing.T) {
		if _, err := catalog.Add(ctx, Recipe{Title: "Vide"}); !errors.Is(err, ErrInvalidRecipe) {
			t.Errorf("Expected ErrInvalidRecipe, got %v", err)
		}
	})

	t.Run("Search", func(t *testing.T) {
		got := catalog.Search("végétarien")
		if len(got) != 2 {
			t.Errorf("Expected 2 vegetarian recipes, got %d", len(got))
		}
		if got := catalog.ByCategory("plat principal"); len(got) != 3 {
			t.Errorf("Expected 3 main courses, got %d", len(got))
		}
	})

	t.Run("AddReview", func(t *testing.T) {
		r, err := catalog.AddReview(ctx, "salade-nicoise", Review{UserID: "u2", Rating: 4})
		if err != nil {
			t.Fatalf("AddReview failed: %v", err)
		}
		if len(r.Reviews) != 1 {
			t.Errorf("Expected 1 review, got %d", len(r.Reviews))
		}
		if _, err := catalog.AddReview(ctx, "salade-nicoise", Review{Rating: 9}); !errors.Is(err, ErrInvalidRecipe) {
			t.Errorf("Expected ErrInvalidRecipe for rating 9, got %v", err)
		}
		if _, err := catalog.AddReview(ctx, "missing", Review{Rating: 3}); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestExtractRecipe(t *testing.T) {
	ctx := context.Background()
	data := PostData{ID: "p1", Title: "Test Recipe", UpdatedAt: "2024-03-01T10:00:00Z", Content: "Tomates, riz..."}

	t.Run("Success", func(t *testing.T) {
		mock := &mockTextGenerator{response: "```json\n" + `{
			"title": "Riz à la tomate",
			"difficulty": "Easy",
			"servings": 2,
			"ingredients": [{"name": "Tomate", "quantity": 0.5, "unit": "kg"}, {"name": "Riz", "quantity": 0.2, "unit": "kg"}],
			"steps": [{"description": "Cuire", "duration": 20}],
			"nutrition": {"calories": 800, "proteins": 20, "carbs": 150, "fats": 10}
		}` + "\n```"}

		res, err := NewExtractor(mock).ExtractRecipe(ctx, data)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if res.Recipe.ID != "p1" {
			t.Errorf("Expected ID 'p1', got '%s'", res.Recipe.ID)
		}
		if res.Recipe.Difficulty != DifficultyEasy {
			t.Errorf("Expected difficulty to be normalized, got '%s'", res.Recipe.Difficulty)
		}
		if len(res.Recipe.Ingredients) != 2 {
			t.Errorf("Expected 2 ingredients, got %d", len(res.Recipe.Ingredients))
		}
		if res.Recipe.UpdatedAt.IsZero() {
			t.Error("Expected UpdatedAt to be taken from the post")
		}
		if res.Meta.Operation != OperationExtract || res.Meta.Usage.PromptTokens != 100 {
			t.Errorf("Unexpected meta: %+v", res.Meta)
		}
		if !strings.Contains(mock.lastPrompt, "Tomates, riz...") {
			t.Error("Expected prompt to contain the post content")
		}
	})

	t.Run("LLMError", func(t *testing.T) {
		_, err := NewExtractor(&mockTextGenerator{shouldError: true}).ExtractRecipe(ctx, data)
		if err == nil {
			t.Fatal("Expected an error from the LLM client, got nil")
		}
		expectedError := "failed to get LLM response: LLM error"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		_, err := NewExtractor(&mockTextGenerator{response: "this is not json"}).ExtractRecipe(ctx, data)
		if err == nil || !strings.HasPrefix(err.Error(), "failed to unmarshal LLM response") {
			t.Errorf("Expected a JSON unmarshaling error, got: %v", err)
		}
	})

	t.Run("MissingIngredients", func(t *testing.T) {
		_, err := NewExtractor(&mockTextGenerator{response: `{"title": "Air", "servings": 1}`}).ExtractRecipe(ctx, data)
		if !errors.Is(err, ErrInvalidRecipe) {
			t.Errorf("Expected ErrInvalidRecipe, got %v", err)
		}
	})
}
