// Package cart holds the shopper's basket of recipe kits.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"meal-kit/internal/localstore"
	"meal-kit/internal/recipe"
)

// ErrInvalidQuantity is returned when adding a non-positive quantity.
var ErrInvalidQuantity = errors.New("quantity must be positive")

// Item is one cart line. There is at most one line per recipe.
type Item struct {
	RecipeID string        `json:"recipe_id"`
	Quantity int           `json:"quantity"`
	Recipe   recipe.Recipe `json:"recipe"`
}

// Subtotal is the line price.
func (i Item) Subtotal() float64 {
	return i.Recipe.Price * float64(i.Quantity)
}

// Store is the cart. Every mutation is written through to local storage.
type Store struct {
	mu    sync.Mutex
	items []Item
	docs  *localstore.Store
	log   logrus.FieldLogger
}

// NewStore creates a cart, restoring any lines saved under the cart key.
// A nil docs store keeps the cart in memory only.
func NewStore(ctx context.Context, docs *localstore.Store, log logrus.FieldLogger) (*Store, error) {
	s := &Store{docs: docs, log: log}
	if docs == nil {
		return s, nil
	}
	if _, err := docs.Get(ctx, localstore.KeyCart, &s.items); err != nil {
		return nil, fmt.Errorf("failed to restore cart: %w", err)
	}
	log.Debugf("restored cart with %d lines", len(s.items))
	return s, nil
}

// Add puts qty kits of r in the cart, merging with an existing line.
func (s *Store) Add(ctx context.Context, r recipe.Recipe, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.index(r.ID); i >= 0 {
		s.items[i].Quantity += qty
		s.items[i].Recipe = r
	} else {
		s.items = append(s.items, Item{RecipeID: r.ID, Quantity: qty, Recipe: r})
	}
	return s.persist(ctx)
}

// Remove drops the line of a recipe. Unknown ids are ignored.
func (s *Store) Remove(ctx context.Context, recipeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(recipeID)
	if i < 0 {
		return nil
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return s.persist(ctx)
}

// UpdateQuantity sets the quantity of a line. A quantity of zero or less
// removes it.
func (s *Store) UpdateQuantity(ctx context.Context, recipeID string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(recipeID)
	if i < 0 {
		return nil
	}
	if qty <= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	} else {
		s.items[i].Quantity = qty
	}
	return s.persist(ctx)
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	return s.persist(ctx)
}

// Items returns a copy of the cart lines in insertion order.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Total is the sum of line prices.
func (s *Store) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0.0
	for _, it := range s.items {
		total += it.Subtotal()
	}
	return total
}

// Count is the number of kits in the cart.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

func (s *Store) index(recipeID string) int {
	for i, it := range s.items {
		if it.RecipeID == recipeID {
			return i
		}
	}
	return -1
}

// persist must be called with mu held.
func (s *Store) persist(ctx context.Context) error {
	if s.docs == nil {
		return nil
	}
	if err := s.docs.Set(ctx, localstore.KeyCart, s.items); err != nil {
		s.log.Warnf("cart not saved: %v", err)
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}
