package clipper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"meal-kit/internal/llm"
	"meal-kit/internal/logger"
	"meal-kit/internal/recipe"
	"meal-kit/internal/shared"
)

// --- Mocks ---

type MockTextGenerator struct {
	Response    string
	ShouldError bool
	LastPrompt  string
}

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.LastPrompt = prompt
	if m.ShouldError {
		return llm.ContentResponse{}, fmt.Errorf("mock ai error")
	}
	return llm.ContentResponse{
		Content: m.Response,
		Usage:   shared.TokenUsage{PromptTokens: 10, CompletionTokens: 5, Model: "mock"},
	}, nil
}

func newTestClipper(gen llm.TextGenerator) (*Clipper, *recipe.Catalog) {
	catalog := recipe.NewCatalog(nil, logger.Discard())
	return NewClipper(recipe.NewExtractor(gen), catalog), catalog
}

// --- Tests ---

func TestFetchAndCleanHTML(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		html := `
		<html>
			<head>
				<title>Tasty Recipe | Blog</title>
				<script>alert('bad');</script>
				<script type="application/ld+json">{"@type": "Recipe", "name": "Tasty Recipe"}</script>
			</head>
			<body>
				<h1>Tasty Recipe</h1>
				<div class="ads">Buy stuff!</div>
				<p>Mix flour and water.</p>
				<script>more_bad_stuff()</script>
				<footer>Copyright 2024</footer>
			</body>
		</html>`
		w.Write([]byte(html))
	}))
	defer ts.Close()

	c, _ := newTestClipper(&MockTextGenerator{})
	page, err := c.fetchAndCleanHTML(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if strings.Contains(page.Text, "alert('bad')") {
		t.Error("Failed to remove <script> tags")
	}
	if strings.Contains(page.Text, "Buy stuff!") {
		t.Error("Failed to remove .ads class")
	}
	if strings.Contains(page.Text, "Copyright 2024") {
		t.Error("Failed to remove <footer>")
	}
	if !strings.Contains(page.Text, "Mix flour and water.") {
		t.Error("Expected to find body content")
	}
	if page.Title != "Tasty Recipe" {
		t.Errorf("Expected title from <h1>, got '%s'", page.Title)
	}
	if len(page.StructuredData) != 1 || !strings.Contains(page.Content(), `"@type": "Recipe"`) {
		t.Errorf("Expected JSON-LD recipe block to be kept, got %v", page.StructuredData)
	}
}

func TestFetchAndCleanHTML_BadStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	c, _ := newTestClipper(&MockTextGenerator{})
	if _, err := c.fetchAndCleanHTML(context.Background(), ts.URL); err == nil {
		t.Fatal("Expected an error for a 404 page")
	}
}

func TestPageContentIsCapped(t *testing.T) {
	p := Page{Text: strings.Repeat("é", maxContentLen)}
	if got := len(p.Content()); got > maxContentLen {
		t.Errorf("Expected content capped at %d bytes, got %d", maxContentLen, got)
	}
}

func TestClipURL_Success(t *testing.T) {
	aiResponse := `{"title": "Mock Pie", "servings": 8, "duration": "1h",
		"ingredients": [{"name": "Pomme", "quantity": 6, "unit": "pièce"}],
		"steps": [{"description": "Bake", "duration": 60}]}`

	mockAI := &MockTextGenerator{Response: aiResponse}
	c, catalog := newTestClipper(mockAI)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><h1>Pie</h1>Some Content</body></html>"))
	}))
	defer ts.Close()

	r, meta, err := c.ClipURL(context.Background(), ts.URL, "author-1")
	if err != nil {
		t.Fatalf("ClipURL failed: %v", err)
	}

	if r.Title != "Mock Pie" || r.AuthorID != "author-1" || r.ID == "" {
		t.Errorf("Unexpected recipe: %+v", r)
	}
	if meta.Usage.PromptTokens != 10 {
		t.Errorf("Expected usage metadata, got %+v", meta)
	}
	if !strings.Contains(mockAI.LastPrompt, ts.URL) {
		t.Error("Expected source URL in the prompt")
	}
	if catalog.Len() != 1 {
		t.Errorf("Expected recipe added to catalog, got %d recipes", catalog.Len())
	}
}

func TestClipURL_ExtractionFails(t *testing.T) {
	c, catalog := newTestClipper(&MockTextGenerator{ShouldError: true})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>x</body></html>"))
	}))
	defer ts.Close()

	if _, _, err := c.ClipURL(context.Background(), ts.URL, "a"); err == nil {
		t.Fatal("Expected an error, got nil")
	}
	if catalog.Len() != 0 {
		t.Error("Expected nothing added to the catalog")
	}
}
