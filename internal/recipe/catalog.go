package recipe

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Catalog is the in-memory recipe catalog the rest of the application reads
// from. When a Repository is attached, additions are written through to it.
type Catalog struct {
	mu      sync.RWMutex
	recipes map[string]Recipe
	repo    *Repository
	log     logrus.FieldLogger
}

// NewCatalog creates an empty catalog. repo may be nil.
func NewCatalog(repo *Repository, log logrus.FieldLogger) *Catalog {
	return &Catalog{
		recipes: make(map[string]Recipe),
		repo:    repo,
		log:     log,
	}
}

// Load replaces the catalog contents with everything stored in the repository.
func (c *Catalog) Load(ctx context.Context) error {
	if c.repo == nil {
		return nil
	}
	recipes, err := c.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.recipes = make(map[string]Recipe, len(recipes))
	for _, r := range recipes {
		c.recipes[r.ID] = r
	}
	c.log.Debugf("catalog loaded with %d recipes", len(recipes))
	return nil
}

// Add validates a recipe, assigns an ID when missing and stores it.
func (c *Catalog) Add(ctx context.Context, r Recipe) (Recipe, error) {
	if err := r.Validate(); err != nil {
		return Recipe{}, err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	if c.repo != nil {
		if err := c.repo.Save(ctx, r); err != nil {
			return Recipe{}, err
		}
	}

	c.mu.Lock()
	c.recipes[r.ID] = r
	c.mu.Unlock()

	c.log.Debugf("recipe %s (%s) added to catalog", r.ID, r.Title)
	return r, nil
}

// AddReview appends a review to a recipe.
func (c *Catalog) AddReview(ctx context.Context, recipeID string, rev Review) (Recipe, error) {
	if rev.Rating < 1 || rev.Rating > 5 {
		return Recipe{}, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidRecipe)
	}
	if rev.CreatedAt.IsZero() {
		rev.CreatedAt = time.Now().UTC()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.recipes[recipeID]
	if !ok {
		return Recipe{}, ErrNotFound
	}
	r.Reviews = append(append([]Review(nil), r.Reviews...), rev)
	r.UpdatedAt = time.Now().UTC()

	if c.repo != nil {
		if err := c.repo.Save(ctx, r); err != nil {
			return Recipe{}, err
		}
	}
	c.recipes[recipeID] = r
	return r, nil
}

// Get returns a recipe by ID.
func (c *Catalog) Get(id string) (Recipe, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.recipes[id]
	if !ok {
		return Recipe{}, ErrNotFound
	}
	return r, nil
}

// List returns every recipe sorted by title.
func (c *Catalog) List() []Recipe {
	return c.filter(func(Recipe) bool { return true })
}

// ByAuthor returns the recipes created by authorID.
func (c *Catalog) ByAuthor(authorID string) []Recipe {
	return c.filter(func(r Recipe) bool { return r.AuthorID == authorID })
}

// ByCategory returns the recipes of one category, case-insensitively.
func (c *Catalog) ByCategory(category string) []Recipe {
	return c.filter(func(r Recipe) bool { return strings.EqualFold(r.Category, category) })
}

// Search matches the query against titles, descriptions, categories and tags.
func (c *Catalog) Search(query string) []Recipe {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return c.List()
	}
	return c.filter(func(r Recipe) bool {
		if strings.Contains(strings.ToLower(r.Title), q) ||
			strings.Contains(strings.ToLower(r.Description), q) ||
			strings.Contains(strings.ToLower(r.Category), q) {
			return true
		}
		for _, tag := range r.Tags {
			if strings.Contains(strings.ToLower(tag), q) {
				return true
			}
		}
		return false
	})
}

// Len returns the number of recipes in the catalog.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.recipes)
}

func (c *Catalog) filter(keep func(Recipe) bool) []Recipe {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Recipe, 0, len(c.recipes))
	for _, r := range c.recipes {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title == out[j].Title {
			return out[i].ID < out[j].ID
		}
		return out[i].Title < out[j].Title
	})
	return out
}
