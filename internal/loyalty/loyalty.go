// Package loyalty keeps customers' points balances.
package loyalty

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"meal-kit/internal/identity"
	"meal-kit/internal/localstore"
)

var (
	ErrInsufficientPoints = errors.New("insufficient loyalty points")
	ErrInvalidPoints      = errors.New("points must be positive")
	ErrInvalidReferral    = errors.New("invalid referral code")
)

// ReferralBonus is credited once to a user who signs up with a referral code.
const ReferralBonus = 100

// Entry is one movement of a balance. Redemptions are negative.
type Entry struct {
	Points int       `json:"points"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

type account struct {
	Balance  int     `json:"balance"`
	History  []Entry `json:"history"`
	Referred bool    `json:"referred,omitempty"`
}

// Store holds every account and writes through to local storage.
type Store struct {
	mu       sync.Mutex
	accounts map[string]*account
	docs     *localstore.Store
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewStore restores the accounts saved under the loyalty key.
// A nil docs store keeps balances in memory only.
func NewStore(ctx context.Context, docs *localstore.Store, log logrus.FieldLogger) (*Store, error) {
	s := &Store{accounts: make(map[string]*account), docs: docs, log: log, now: time.Now}
	if docs != nil {
		if _, err := docs.Get(ctx, localstore.KeyLoyalty, &s.accounts); err != nil {
			return nil, fmt.Errorf("failed to restore loyalty accounts: %w", err)
		}
		if s.accounts == nil {
			s.accounts = make(map[string]*account)
		}
	}
	return s, nil
}

// PointsForOrder is one point per whole currency unit spent.
func PointsForOrder(total float64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(total))
}

// Balance returns a user's points.
func (s *Store) Balance(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[userID]; ok {
		return a.Balance
	}
	return 0
}

// History returns a user's movements, oldest first.
func (s *Store) History(userID string) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[userID]
	if !ok {
		return nil
	}
	return append([]Entry(nil), a.History...)
}

// Award credits points to a user.
func (s *Store) Award(ctx context.Context, userID string, points int, reason string) error {
	if points <= 0 {
		return ErrInvalidPoints
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.move(ctx, userID, points, reason)
}

// Redeem debits points from a user.
func (s *Store) Redeem(ctx context.Context, userID string, points int, reason string) error {
	if points <= 0 {
		return ErrInvalidPoints
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if bal := s.balance(userID); bal < points {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientPoints, bal, points)
	}
	return s.move(ctx, userID, -points, reason)
}

// ApplyReferral credits the referral bonus to user when code is another
// user's referral code. Each user can be referred once.
func (s *Store) ApplyReferral(ctx context.Context, user *identity.User, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !strings.HasPrefix(code, "MK-") || len(code) <= len("MK-") || code == user.ReferralCode {
		return ErrInvalidReferral
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.account(user.ID)
	if a.Referred {
		return fmt.Errorf("%w: already referred", ErrInvalidReferral)
	}
	a.Referred = true
	return s.move(ctx, user.ID, ReferralBonus, "referral "+code)
}

func (s *Store) balance(userID string) int {
	if a, ok := s.accounts[userID]; ok {
		return a.Balance
	}
	return 0
}

func (s *Store) account(userID string) *account {
	a, ok := s.accounts[userID]
	if !ok {
		a = &account{}
		s.accounts[userID] = a
	}
	return a
}

// move must be called with mu held.
func (s *Store) move(ctx context.Context, userID string, points int, reason string) error {
	a := s.account(userID)
	a.Balance += points
	a.History = append(a.History, Entry{Points: points, Reason: reason, At: s.now().UTC()})

	s.log.WithFields(logrus.Fields{"user_id": userID, "points": points}).Debug(reason)

	if s.docs == nil {
		return nil
	}
	if err := s.docs.Set(ctx, localstore.KeyLoyalty, s.accounts); err != nil {
		a.Balance -= points
		a.History = a.History[:len(a.History)-1]
		return fmt.Errorf("failed to save loyalty accounts: %w", err)
	}
	return nil
}
