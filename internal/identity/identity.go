// Package identity manages the signed-in user.
package identity

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrMissingField = errors.New("missing required field")
	ErrNotLoggedIn  = errors.New("no user logged in")
	ErrInvalidToken = errors.New("invalid session token")
)

// Household describes who the meals are cooked for.
type Household struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Pets     int `json:"pets"`
}

// User is a customer profile.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone,omitempty"`
	Avatar       string     `json:"avatar,omitempty"`
	Household    *Household `json:"household,omitempty"`
	Diets        []string   `json:"diets,omitempty"`
	Dislikes     []string   `json:"dislikes,omitempty"`
	Equipment    []string   `json:"equipment,omitempty"`
	ReferralCode string     `json:"referral_code"`
	CreatedAt    time.Time  `json:"created_at"`
}

// RegisterInput carries the fields of a sign-up form.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Update holds profile changes. Nil fields are left untouched.
type Update struct {
	Name      *string
	Phone     *string
	Avatar    *string
	Household *Household
	Diets     []string
	Dislikes  []string
	Equipment []string
}

func (u Update) apply(user *User) {
	if u.Name != nil {
		user.Name = *u.Name
	}
	if u.Phone != nil {
		user.Phone = *u.Phone
	}
	if u.Avatar != nil {
		user.Avatar = *u.Avatar
	}
	if u.Household != nil {
		h := *u.Household
		user.Household = &h
	}
	if u.Diets != nil {
		user.Diets = append([]string(nil), u.Diets...)
	}
	if u.Dislikes != nil {
		user.Dislikes = append([]string(nil), u.Dislikes...)
	}
	if u.Equipment != nil {
		user.Equipment = append([]string(nil), u.Equipment...)
	}
}

// Authenticator signs users in and out. Implementations may call a remote
// backend; every method that would do so takes a context.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*User, error)
	Register(ctx context.Context, in RegisterInput) (*User, error)
	Logout(ctx context.Context) error
	Update(ctx context.Context, u Update) (*User, error)
	Current() (*User, bool)
}

// ReferralCode derives the shareable referral code of a user id.
func ReferralCode(userID string) string {
	code := strings.ToUpper(strings.ReplaceAll(userID, "-", ""))
	if len(code) > 8 {
		code = code[:8]
	}
	return "MK-" + code
}

func clone(u *User) *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Household != nil {
		h := *u.Household
		c.Household = &h
	}
	c.Diets = append([]string(nil), u.Diets...)
	c.Dislikes = append([]string(nil), u.Dislikes...)
	c.Equipment = append([]string(nil), u.Equipment...)
	return &c
}
