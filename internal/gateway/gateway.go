// Package gateway defines the contract of the remote data gateway: one session
// store for moderator authentication and one testimonials table.
package gateway

import (
	"context"
	"errors"
	"time"
)

// TableName is the only table the site reads and writes.
const TableName = "testimonials"

var (
	// ErrInvalidCredentials is returned by SignInWithPassword when the store rejects the pair.
	ErrInvalidCredentials = errors.New("invalid login credentials")
	// ErrUnauthorized is returned by table operations that need a moderator session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrSessionNotFound is returned by SessionStorage.Load when nothing is stored under the key.
	ErrSessionNotFound = errors.New("session not found")
)

// Testimonial is one row of the testimonials table.
type Testimonial struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// User identifies the moderator a session belongs to.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is an authenticated moderator session issued by the gateway.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// Expired reports whether the session is past its expiry at now.
// A zero ExpiresAt never expires.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// RefreshWindow is how long past expiry a session carrying a refresh token
// is kept so it can still be refreshed.
const RefreshWindow = 7 * 24 * time.Hour

// RetainUntil is when stores may drop the session. Zero means never.
func (s *Session) RetainUntil() time.Time {
	if s.ExpiresAt.IsZero() || s.RefreshToken == "" {
		return s.ExpiresAt
	}
	return s.ExpiresAt.Add(RefreshWindow)
}

// Stale reports whether the session can neither be used nor refreshed at now.
func (s *Session) Stale(now time.Time) bool {
	until := s.RetainUntil()
	return !until.IsZero() && !now.Before(until)
}

// Client is one tab's view of the gateway. Auth state is held by the client,
// table calls are authorized with it when present.
type Client interface {
	// GetSession returns the stored session, or nil when there is none.
	GetSession(ctx context.Context) (*Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context) error

	// ListTestimonials returns every row, newest first.
	ListTestimonials(ctx context.Context) ([]Testimonial, error)
	InsertTestimonial(ctx context.Context, content string) error
	DeleteTestimonial(ctx context.Context, id string) error
}

// Factory builds the gateway client for a tab. The key scopes the tab's
// persisted session.
type Factory func(key string) Client

// SessionStorage persists gateway sessions between requests.
type SessionStorage interface {
	Load(ctx context.Context, key string) (*Session, error)
	Save(ctx context.Context, key string, s *Session) error
	Remove(ctx context.Context, key string) error
}

// StorageKey namespaces a tab key the way every driver stores it.
func StorageKey(key string) string {
	return "dreamsite:auth:" + key
}
