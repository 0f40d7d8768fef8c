package recipe

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Sentinel errors returned by the catalog and repository.
var (
	ErrNotFound      = errors.New("recipe not found")
	ErrInvalidRecipe = errors.New("invalid recipe")
)

// Difficulty is the effort level advertised on a recipe card.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Ingredient is one line of a recipe's ingredient list.
type Ingredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Price    float64 `json:"price"`
	Image    string  `json:"image,omitempty"`
	// Category overrides the shopping-list categorizer when set.
	Category string `json:"category,omitempty"`
}

// Step is one instruction of a recipe.
type Step struct {
	Description string `json:"description"`
	Duration    int    `json:"duration"` // minutes
	Temperature int    `json:"temperature,omitempty"`
	Tips        string `json:"tips,omitempty"`
	Image       string `json:"image,omitempty"`
}

// Nutrition holds the macros of a recipe. Optional fields are nil when unknown.
type Nutrition struct {
	Calories float64  `json:"calories"`
	Proteins float64  `json:"proteins"`
	Carbs    float64  `json:"carbs"`
	Fats     float64  `json:"fats"`
	Fiber    *float64 `json:"fiber,omitempty"`
	Sugar    *float64 `json:"sugar,omitempty"`
	Sodium   *float64 `json:"sodium,omitempty"`
	Score    string   `json:"score,omitempty"`
}

// Review is a customer rating left on a recipe.
type Review struct {
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Recipe is the catalog entry every other store refers to.
type Recipe struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Image       string       `json:"image,omitempty"`
	Category    string       `json:"category"`
	Duration    string       `json:"duration"`
	Difficulty  Difficulty   `json:"difficulty"`
	Servings    int          `json:"servings"`
	Price       float64      `json:"price"`
	Ingredients []Ingredient `json:"ingredients"`
	Steps       []Step       `json:"steps"`
	Nutrition   Nutrition    `json:"nutrition"`
	Reviews     []Review     `json:"reviews,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	AuthorID    string       `json:"author_id,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Validate checks the fields a recipe cannot be created without.
func (r Recipe) Validate() error {
	switch {
	case strings.TrimSpace(r.Title) == "":
		return fmt.Errorf("%w: title is required", ErrInvalidRecipe)
	case r.Servings <= 0:
		return fmt.Errorf("%w: servings must be positive", ErrInvalidRecipe)
	case len(r.Ingredients) == 0:
		return fmt.Errorf("%w: at least one ingredient is required", ErrInvalidRecipe)
	}
	switch r.Difficulty {
	case "", DifficultyEasy, DifficultyMedium, DifficultyHard:
	default:
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidRecipe, r.Difficulty)
	}
	return nil
}

// PricePerServing is the price of a single portion.
func (r Recipe) PricePerServing() float64 {
	if r.Servings <= 0 {
		return r.Price
	}
	return r.Price / float64(r.Servings)
}

// AverageRating is the mean of all review ratings, 0 without reviews.
func (r Recipe) AverageRating() float64 {
	if len(r.Reviews) == 0 {
		return 0
	}
	sum := 0
	for _, rev := range r.Reviews {
		sum += rev.Rating
	}
	return float64(sum) / float64(len(r.Reviews))
}

// PrepMinutes reads the free-text duration ("45 min", "1h30", "2 hours").
// When the text holds no number, the step durations are summed instead.
func (r Recipe) PrepMinutes() int {
	if m, ok := ParseMinutes(r.Duration); ok {
		return m
	}
	total := 0
	for _, s := range r.Steps {
		total += s.Duration
	}
	return total
}

var (
	hoursRe   = regexp.MustCompile(`(\d+)\s*(?:heures|heure|hours|hour|hrs|hr|h)(?:\s*(\d{1,2})(?:\s*(?:minutes|minute|mins|min|mn|m))?)?(?:[^\p{L}\d]|$)`)
	minutesRe = regexp.MustCompile(`(\d+)\s*(?:minutes|minute|mins|min|mn|m)\b`)
	numberRe  = regexp.MustCompile(`\d+`)
)

// ParseMinutes converts a free-text duration into minutes. Every hour and
// minute amount in the text is added up ("20 min, cuisson : 1h" is 80).
func ParseMinutes(text string) (int, bool) {
	text = strings.ToLower(text)
	total, found := 0, false

	var rest strings.Builder
	last := 0
	for _, m := range hoursRe.FindAllStringSubmatchIndex(text, -1) {
		h, _ := strconv.Atoi(text[m[2]:m[3]])
		total += h * 60
		if m[4] >= 0 {
			mins, _ := strconv.Atoi(text[m[4]:m[5]])
			total += mins
		}
		rest.WriteString(text[last:m[0]])
		rest.WriteByte(' ')
		last = m[1]
		found = true
	}
	rest.WriteString(text[last:])

	for _, m := range minutesRe.FindAllStringSubmatch(rest.String(), -1) {
		mins, _ := strconv.Atoi(m[1])
		total += mins
		found = true
	}
	if found {
		return total, true
	}

	if m := numberRe.FindString(text); m != "" {
		mins, _ := strconv.Atoi(m)
		return mins, true
	}
	return 0, false
}
