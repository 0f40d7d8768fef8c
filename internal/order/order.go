// Package order keeps the orders placed at checkout.
package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"meal-kit/internal/cart"
	"meal-kit/internal/latency"
	"meal-kit/internal/localstore"
	"meal-kit/internal/recipe"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrEmptyOrder        = errors.New("order has no items")
)

// Status is the fulfilment state of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// next is the forward-only fulfilment chain.
var next = map[Status]Status{
	StatusPending:    StatusProcessing,
	StatusProcessing: StatusDelivered,
}

// Cancellable reports whether an order in status s may still be cancelled.
func (s Status) Cancellable() bool {
	return s == StatusPending || s == StatusProcessing
}

// Item is one ordered kit with the price paid at checkout.
type Item struct {
	RecipeID string        `json:"recipe_id"`
	Quantity int           `json:"quantity"`
	Price    float64       `json:"price"`
	Recipe   recipe.Recipe `json:"recipe"`
}

// Order is a placed order.
type Order struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Date            time.Time `json:"date"`
	Items           []Item    `json:"items"`
	Total           float64   `json:"total"`
	Status          Status    `json:"status"`
	DeliveryAddress string    `json:"delivery_address"`
	PaymentMethod   string    `json:"payment_method"`
}

// Store holds every order, newest last, and writes through to local storage.
type Store struct {
	mu      sync.Mutex
	orders  []Order
	docs    *localstore.Store
	latency *latency.Simulator
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewStore creates an order store, restoring orders saved under the orders key.
// A nil docs store keeps orders in memory only.
func NewStore(ctx context.Context, docs *localstore.Store, lat *latency.Simulator, log logrus.FieldLogger) (*Store, error) {
	s := &Store{docs: docs, latency: lat, log: log, now: time.Now}
	if docs != nil {
		if _, err := docs.Get(ctx, localstore.KeyOrders, &s.orders); err != nil {
			return nil, fmt.Errorf("failed to restore orders: %w", err)
		}
	}
	return s, nil
}

// Create places an order for the given cart lines.
func (s *Store) Create(ctx context.Context, userID string, lines []cart.Item, address, payment string) (Order, error) {
	if len(lines) == 0 {
		return Order{}, ErrEmptyOrder
	}
	if err := s.latency.Wait(ctx); err != nil {
		return Order{}, err
	}

	o := Order{
		UserID:          userID,
		Status:          StatusPending,
		DeliveryAddress: address,
		PaymentMethod:   payment,
	}
	for _, l := range lines {
		it := Item{RecipeID: l.RecipeID, Quantity: l.Quantity, Price: l.Recipe.Price, Recipe: l.Recipe}
		o.Items = append(o.Items, it)
		o.Total += it.Price * float64(it.Quantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o.Date = s.now()
	o.ID = s.newID(o.Date)
	s.orders = append(s.orders, o)
	if err := s.persist(ctx); err != nil {
		s.orders = s.orders[:len(s.orders)-1]
		return Order{}, err
	}

	s.log.WithFields(logrus.Fields{"order_id": o.ID, "total": o.Total}).Info("order created")
	return o, nil
}

// Cancel cancels a pending or processing order.
func (s *Store) Cancel(ctx context.Context, id string) (Order, error) {
	if err := s.latency.Wait(ctx); err != nil {
		return Order{}, err
	}
	return s.transition(ctx, id, func(cur Status) (Status, bool) {
		return StatusCancelled, cur.Cancellable()
	})
}

// Advance moves an order one step along pending, processing, delivered.
func (s *Store) Advance(ctx context.Context, id string) (Order, error) {
	if err := s.latency.Wait(ctx); err != nil {
		return Order{}, err
	}
	return s.transition(ctx, id, func(cur Status) (Status, bool) {
		n, ok := next[cur]
		return n, ok
	})
}

func (s *Store) transition(ctx context.Context, id string, to func(Status) (Status, bool)) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return Order{}, ErrNotFound
	}
	prev := s.orders[i].Status
	n, ok := to(prev)
	if !ok {
		return Order{}, fmt.Errorf("%w: order %s is %s", ErrInvalidTransition, id, prev)
	}

	s.orders[i].Status = n
	if err := s.persist(ctx); err != nil {
		s.orders[i].Status = prev
		return Order{}, err
	}
	s.log.WithField("order_id", id).Infof("order %s -> %s", prev, n)
	return s.orders[i], nil
}

// Get returns one order.
func (s *Store) Get(id string) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return Order{}, ErrNotFound
	}
	return s.orders[i], nil
}

// List returns every order, newest first.
func (s *Store) List() []Order {
	return s.filter(func(Order) bool { return true })
}

// ListByUser returns a user's orders, newest first.
func (s *Store) ListByUser(userID string) []Order {
	return s.filter(func(o Order) bool { return o.UserID == userID })
}

func (s *Store) filter(keep func(Order) bool) []Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Order
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// newID derives an id from the order time, bumping it when two orders land
// on the same millisecond. Must be called with mu held.
func (s *Store) newID(t time.Time) string {
	ms := t.UnixMilli()
	for {
		id := fmt.Sprintf("ORD-%d", ms)
		if s.index(id) < 0 {
			return id
		}
		ms++
	}
}

func (s *Store) index(id string) int {
	for i, o := range s.orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) persist(ctx context.Context) error {
	if s.docs == nil {
		return nil
	}
	if err := s.docs.Set(ctx, localstore.KeyOrders, s.orders); err != nil {
		return fmt.Errorf("failed to save orders: %w", err)
	}
	return nil
}
