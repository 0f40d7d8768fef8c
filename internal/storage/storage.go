// Package storage archives catalog recipes as versioned JSON files, one file
// per recipe named after its ID and last update.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"meal-kit/internal/recipe"
)

// versionLayout is filename-safe.
const versionLayout = "20060102T150405Z"

// RecipeStore provides a file-based storage for catalog recipes.
type RecipeStore struct {
	basePath string
}

// NewRecipeStore creates a new RecipeStore and ensures the base directory exists.
func NewRecipeStore(basePath string) (*RecipeStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &RecipeStore{basePath: basePath}, nil
}

func (s *RecipeStore) versionedPath(recipeID string, updatedAt time.Time) string {
	filename := fmt.Sprintf("%s_%s.json", recipeID, updatedAt.UTC().Format(versionLayout))
	return filepath.Join(s.basePath, filename)
}

// Save writes r as the only version of its recipe.
func (s *RecipeStore) Save(r recipe.Recipe) error {
	if r.ID == "" {
		return fmt.Errorf("%w: missing id", recipe.ErrInvalidRecipe)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal recipe: %w", err)
	}
	if err := s.RemoveStaleVersions(r.ID); err != nil {
		return err
	}
	if err := os.WriteFile(s.versionedPath(r.ID, r.UpdatedAt), data, 0644); err != nil {
		return fmt.Errorf("failed to write recipe file: %w", err)
	}
	return nil
}

// Load retrieves a recipe from a specific version file.
func (s *RecipeStore) Load(recipeID string, updatedAt time.Time) (*recipe.Recipe, error) {
	return readRecipe(s.versionedPath(recipeID, updatedAt))
}

// Exists checks if a specific version of a recipe file exists.
func (s *RecipeStore) Exists(recipeID string, updatedAt time.Time) bool {
	_, err := os.Stat(s.versionedPath(recipeID, updatedAt))
	return err == nil
}

// LoadAll reads every archived recipe, ordered by file name.
func (s *RecipeStore) LoadAll() ([]recipe.Recipe, error) {
	matches, err := filepath.Glob(filepath.Join(s.basePath, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list recipe files: %w", err)
	}
	sort.Strings(matches)

	out := make([]recipe.Recipe, 0, len(matches))
	for _, m := range matches {
		r, err := readRecipe(m)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, nil
}

// RemoveStaleVersions removes all files associated with a recipeID.
func (s *RecipeStore) RemoveStaleVersions(recipeID string) error {
	matches, err := filepath.Glob(filepath.Join(s.basePath, recipeID+"_*.json"))
	if err != nil {
		return fmt.Errorf("failed to glob stale files: %w", err)
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil {
			return fmt.Errorf("failed to remove stale file %s: %w", match, err)
		}
	}
	return nil
}

func readRecipe(path string) (*recipe.Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe file: %w", err)
	}
	var r recipe.Recipe
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe %s: %w", filepath.Base(path), err)
	}
	return &r, nil
}
