package recipe

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"meal-kit/internal/llm"
	"meal-kit/internal/shared"
)

//go:embed extractor_prompt.md
var extractorPrompt string

var extractorTmpl = template.Must(template.New("extractor").Parse(extractorPrompt))

// PostData is the raw material a recipe is extracted from.
type PostData struct {
	ID        string
	Title     string
	UpdatedAt string
	SourceURL string
	Content   string
}

// OperationExtract names extraction runs in usage metrics.
const OperationExtract = "recipe-extract"

// ExtractorResult carries the extracted recipe and the LLM usage metadata.
type ExtractorResult struct {
	Recipe Recipe
	Meta   shared.CallMeta
}

// Extractor turns free-form recipe content into a catalog Recipe using an LLM.
type Extractor struct {
	textGen llm.TextGenerator
}

// NewExtractor creates a new Extractor.
func NewExtractor(textGen llm.TextGenerator) *Extractor {
	return &Extractor{textGen: textGen}
}

// ExtractRecipe asks the LLM for a structured recipe and validates the result.
func (e *Extractor) ExtractRecipe(ctx context.Context, data PostData) (ExtractorResult, error) {
	start := time.Now()

	prompt, err := buildExtractorPrompt(data)
	if err != nil {
		return ExtractorResult{}, err
	}

	llmResp, err := e.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return ExtractorResult{}, fmt.Errorf("failed to get LLM response: %w", err)
	}

	meta := shared.CallMeta{
		Operation: OperationExtract,
		Usage:     llmResp.Usage,
		Latency:   time.Since(start),
	}

	var rec Recipe
	if err := json.Unmarshal([]byte(stripFences(llmResp.Content)), &rec); err != nil {
		return ExtractorResult{Meta: meta}, fmt.Errorf("failed to unmarshal LLM response: %w", err)
	}

	rec.ID = data.ID
	if rec.Title == "" {
		rec.Title = data.Title
	}
	rec.Difficulty = Difficulty(strings.ToLower(string(rec.Difficulty)))
	if rec.UpdatedAt.IsZero() && data.UpdatedAt != "" {
		if ts, err := time.Parse(time.RFC3339, data.UpdatedAt); err == nil {
			rec.UpdatedAt = ts
		}
	}

	if err := rec.Validate(); err != nil {
		return ExtractorResult{Recipe: rec, Meta: meta}, fmt.Errorf("extracted recipe rejected: %w", err)
	}

	return ExtractorResult{Recipe: rec, Meta: meta}, nil
}

func buildExtractorPrompt(data PostData) (string, error) {
	var buf bytes.Buffer
	if err := extractorTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render extractor prompt: %w", err)
	}
	return buf.String(), nil
}

// stripFences removes a ```json ... ``` wrapper some models add anyway.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
