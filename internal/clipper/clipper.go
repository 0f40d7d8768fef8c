// Package clipper imports a recipe from any web page into the catalog.
package clipper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"meal-kit/internal/recipe"
	"meal-kit/internal/shared"
)

// maxContentLen caps the page text handed to the LLM.
const maxContentLen = 20000

// Clipper handles fetching and extracting recipes from URLs.
type Clipper struct {
	extractor  *recipe.Extractor
	catalog    *recipe.Catalog
	httpClient *http.Client
}

// Page is the cleaned content of a fetched URL.
type Page struct {
	Title string
	// StructuredData holds schema.org JSON-LD blocks, which recipe sites
	// commonly publish and which carry exact quantities.
	StructuredData []string
	Text           string
}

// NewClipper creates a new Clipper instance.
func NewClipper(extractor *recipe.Extractor, catalog *recipe.Catalog) *Clipper {
	return &Clipper{
		extractor:  extractor,
		catalog:    catalog,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// ClipURL fetches the URL, extracts the recipe with the LLM and adds it to
// the catalog under authorID.
func (c *Clipper) ClipURL(ctx context.Context, url, authorID string) (recipe.Recipe, shared.CallMeta, error) {
	page, err := c.fetchAndCleanHTML(ctx, url)
	if err != nil {
		return recipe.Recipe{}, shared.CallMeta{}, fmt.Errorf("failed to fetch content: %w", err)
	}

	res, err := c.extractor.ExtractRecipe(ctx, recipe.PostData{
		Title:     page.Title,
		SourceURL: url,
		Content:   page.Content(),
	})
	if err != nil {
		return recipe.Recipe{}, res.Meta, fmt.Errorf("ai extraction failed: %w", err)
	}

	r := res.Recipe
	r.AuthorID = authorID
	r.Tags = appendTag(r.Tags, "importé")

	saved, err := c.catalog.Add(ctx, r)
	if err != nil {
		return recipe.Recipe{}, res.Meta, fmt.Errorf("failed to save to catalog: %w", err)
	}
	return saved, res.Meta, nil
}

// Content renders the page for the extractor prompt.
func (p Page) Content() string {
	var sb strings.Builder
	for _, s := range p.StructuredData {
		sb.WriteString("Structured data:\n")
		sb.WriteString(s)
		sb.WriteString("\n\n")
	}
	sb.WriteString(p.Text)

	out := sb.String()
	if len(out) > maxContentLen {
		out = strings.ToValidUTF8(out[:maxContentLen], "")
	}
	return out
}

func (c *Clipper) fetchAndCleanHTML(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	page := &Page{Title: strings.TrimSpace(doc.Find("h1").First().Text())}
	if page.Title == "" {
		page.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		if js := strings.TrimSpace(s.Text()); strings.Contains(js, "Recipe") {
			page.StructuredData = append(page.StructuredData, js)
		}
	})

	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Remove()

	page.Text = strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	return page, nil
}

func appendTag(tags []string, tag string) []string {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return tags
		}
	}
	return append(tags, tag)
}
