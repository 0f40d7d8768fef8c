package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"meal-kit/internal/latency"
	"meal-kit/internal/localstore"
)

const tokenIssuer = "meal-kit"

// session is the signed-in user and its token. The user is stored under
// the user key and the token under the session key.
type session struct {
	User  *User
	Token string
}

// FakeAuthenticator accepts any credentials after a simulated round trip.
// The signed-in user and session token survive restarts through local storage.
type FakeAuthenticator struct {
	mu      sync.RWMutex
	sess    session
	secret  []byte
	ttl     time.Duration
	docs    *localstore.Store
	latency *latency.Simulator
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewFakeAuthenticator restores the previous session when its token is still valid.
func NewFakeAuthenticator(ctx context.Context, docs *localstore.Store, lat *latency.Simulator, secret string, ttl time.Duration, log logrus.FieldLogger) (*FakeAuthenticator, error) {
	a := &FakeAuthenticator{
		secret:  []byte(secret),
		ttl:     ttl,
		docs:    docs,
		latency: lat,
		log:     log,
		now:     time.Now,
	}
	if docs == nil {
		return a, nil
	}

	var s session
	found, err := docs.Get(ctx, localstore.KeyUser, &s.User)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	if !found || s.User == nil {
		return a, nil
	}
	if _, err := docs.Get(ctx, localstore.KeySession, &s.Token); err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	if _, err := ValidateToken(a.secret, s.Token); err != nil {
		log.Infof("discarding stored session: %v", err)
		return a, a.clear(ctx)
	}
	a.sess = s
	return a, nil
}

// Login signs in with any non-empty credentials. Logging in again with the
// stored user's email keeps that profile.
func (a *FakeAuthenticator) Login(ctx context.Context, email, password string) (*User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password", ErrMissingField)
	}
	if err := a.latency.Wait(ctx); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	u := a.sess.User
	if u == nil || !strings.EqualFold(u.Email, email) {
		name, _, _ := strings.Cut(email, "@")
		u = a.newUser(name, email)
	}
	if err := a.start(ctx, u); err != nil {
		return nil, err
	}
	a.log.WithField("user_id", u.ID).Info("user logged in")
	return clone(u), nil
}

// Register creates a new profile and signs it in.
func (a *FakeAuthenticator) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: name, email and password", ErrMissingField)
	}
	if err := a.latency.Wait(ctx); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	u := a.newUser(strings.TrimSpace(in.Name), strings.TrimSpace(in.Email))
	if err := a.start(ctx, u); err != nil {
		return nil, err
	}
	a.log.WithField("user_id", u.ID).Info("user registered")
	return clone(u), nil
}

// Logout ends the session.
func (a *FakeAuthenticator) Logout(ctx context.Context) error {
	if err := a.latency.Wait(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.sess = session{}
	return a.clear(ctx)
}

// Update applies profile changes to the signed-in user.
func (a *FakeAuthenticator) Update(ctx context.Context, upd Update) (*User, error) {
	if err := a.latency.Wait(ctx); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sess.User == nil {
		return nil, ErrNotLoggedIn
	}
	u := clone(a.sess.User)
	upd.apply(u)
	if strings.TrimSpace(u.Name) == "" {
		return nil, fmt.Errorf("%w: name", ErrMissingField)
	}

	prev := a.sess.User
	a.sess.User = u
	if err := a.save(ctx); err != nil {
		a.sess.User = prev
		return nil, err
	}
	return clone(u), nil
}

// Current returns the signed-in user.
func (a *FakeAuthenticator) Current() (*User, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return clone(a.sess.User), a.sess.User != nil
}

// Token returns the session token of the signed-in user.
func (a *FakeAuthenticator) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sess.Token
}

func (a *FakeAuthenticator) newUser(name, email string) *User {
	id := uuid.New().String()
	return &User{
		ID:           id,
		Name:         name,
		Email:        email,
		ReferralCode: ReferralCode(id),
		CreatedAt:    a.now().UTC(),
	}
}

// start must be called with mu held.
func (a *FakeAuthenticator) start(ctx context.Context, u *User) error {
	token, err := a.signToken(u.ID)
	if err != nil {
		return fmt.Errorf("failed to sign session token: %w", err)
	}
	a.sess = session{User: u, Token: token}
	return a.save(ctx)
}

func (a *FakeAuthenticator) save(ctx context.Context) error {
	if a.docs == nil {
		return nil
	}
	if err := a.docs.Set(ctx, localstore.KeyUser, a.sess.User); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	if err := a.docs.Set(ctx, localstore.KeySession, a.sess.Token); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (a *FakeAuthenticator) clear(ctx context.Context) error {
	if a.docs == nil {
		return nil
	}
	for _, key := range []string{localstore.KeyUser, localstore.KeySession} {
		if err := a.docs.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}
	}
	return nil
}

func (a *FakeAuthenticator) signToken(userID string) (string, error) {
	now := a.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	})
	return token.SignedString(a.secret)
}

// ValidateToken checks a session token and returns the user id it was issued to.
func ValidateToken(secret []byte, tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: expired", ErrInvalidToken)
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

var _ Authenticator = (*FakeAuthenticator)(nil)
