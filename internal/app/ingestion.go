package app

import (
	"context"
	"fmt"
	"time"

	"meal-kit/internal/ghost"
	"meal-kit/internal/metrics"
	"meal-kit/internal/recipe"
)

// IngestReport counts the outcome of an ingestion run.
type IngestReport struct {
	Fetched  int
	Imported int
	Skipped  int
	Failed   int
}

// ProcessAndSaveRecipe extracts a recipe from a Ghost post, adds it to the
// catalog and records the LLM usage.
func ProcessAndSaveRecipe(
	ctx context.Context,
	extractor *recipe.Extractor,
	catalog *recipe.Catalog,
	metricsStore *metrics.Store,
	post ghost.Post,
) (recipe.Recipe, error) {
	res, err := extractor.ExtractRecipe(ctx, recipe.PostData{
		ID:        post.ID,
		Title:     post.Title,
		UpdatedAt: post.UpdatedAt,
		SourceURL: post.URL,
		Content:   post.HTML,
	})
	if mErr := metricsStore.RecordMeta(ctx, res.Meta); mErr != nil {
		return recipe.Recipe{}, fmt.Errorf("failed to record metrics: %w", mErr)
	}
	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("failed to extract recipe: %w", err)
	}

	r := res.Recipe
	if r.AuthorID == "" {
		r.AuthorID = recipe.SeedAuthorID
	}
	saved, err := catalog.Add(ctx, r)
	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("failed to save recipe: %w", err)
	}
	return saved, nil
}

// upToDate reports whether the catalog already holds post at its latest revision.
func (a *App) upToDate(post ghost.Post) bool {
	existing, err := a.Catalog.Get(post.ID)
	if err != nil {
		return false
	}
	updated, err := time.Parse(time.RFC3339, post.UpdatedAt)
	if err != nil {
		return false
	}
	return !existing.UpdatedAt.Before(updated)
}

// IngestRecipes fetches recipe posts from Ghost and imports the new or
// changed ones into the catalog. A post that fails is logged and skipped.
func (a *App) IngestRecipes(ctx context.Context) (IngestReport, error) {
	var rep IngestReport
	if a.ghostClient == nil {
		return rep, ErrIngestionDisabled
	}
	if a.extractor == nil {
		return rep, ErrExtractionDisabled
	}

	posts, err := a.ghostClient.FetchRecipes(ctx)
	if err != nil {
		return rep, fmt.Errorf("failed to fetch recipes from ghost: %w", err)
	}
	rep.Fetched = len(posts)
	a.log.Infof("fetched %d recipe posts from Ghost", len(posts))

	for i, post := range posts {
		if a.upToDate(post) {
			a.log.Debugf("recipe '%s' up-to-date, skipping", post.Title)
			rep.Skipped++
			continue
		}

		a.log.Infof("extracting '%s'...", post.Title)
		r, err := ProcessAndSaveRecipe(ctx, a.extractor, a.Catalog, a.metricsStore, post)
		if err != nil {
			a.log.WithError(err).Warnf("failed to process '%s'", post.Title)
			rep.Failed++
		} else {
			a.log.WithField("recipe_id", r.ID).Infof("imported '%s'", r.Title)
			rep.Imported++
		}

		if i < len(posts)-1 && a.ingestPause > 0 {
			select {
			case <-ctx.Done():
				return rep, ctx.Err()
			case <-time.After(a.ingestPause):
			}
		}
	}
	return rep, nil
}
