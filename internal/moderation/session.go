// Package moderation implements the password-gated admin view that lists
// and deletes testimonials.
package moderation

import (
	"context"
	"strings"
	"sync"

	"dreamsite/internal/apperr"
	"dreamsite/internal/gateway"

	"go.uber.org/zap"
)

const (
	DeletePrompt        = "Are you sure you want to delete this testimonial?"
	DeleteFailedMessage = "Failed to delete testimonial"
)

// State is the authentication state of a session.
type State string

const (
	Unauthenticated State = "unauthenticated"
	Authenticating  State = "authenticating"
	Authenticated   State = "authenticated"
)

// ListStatus describes the testimonial list while authenticated.
type ListStatus string

const (
	ListEmpty   ListStatus = "empty"
	ListLoading ListStatus = "loading"
	ListLoaded  ListStatus = "loaded"
	ListError   ListStatus = "error"
)

// Gateway is the part of the remote data gateway a moderation session uses.
type Gateway interface {
	GetSession(ctx context.Context) (*gateway.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*gateway.Session, error)
	SignOut(ctx context.Context) error
	ListTestimonials(ctx context.Context) ([]gateway.Testimonial, error)
	DeleteTestimonial(ctx context.Context, id string) error
}

// Confirmer asks the moderator to confirm a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// View is what the admin panel renders.
type View struct {
	State         State                 `json:"state"`
	Authenticated bool                  `json:"authenticated"`
	Loading       bool                  `json:"loading"`
	Error         string                `json:"error,omitempty"`
	Alert         string                `json:"alert,omitempty"`
	Status        ListStatus            `json:"status,omitempty"`
	Testimonials  []gateway.Testimonial `json:"testimonials"`
}

// Session is one tab's moderation state machine.
type Session struct {
	gw     Gateway
	logger *zap.Logger

	mu       sync.Mutex
	state    State
	email    string
	password string
	errMsg   string
	alert    string
	status   ListStatus
	items    []gateway.Testimonial
	deleting bool
	attempt  uint64
	mounted  bool
	closed   bool
}

func NewSession(gw Gateway, logger *zap.Logger) *Session {
	return &Session{
		gw:     gw,
		logger: logger.Named("moderation"),
		state:  Unauthenticated,
		status: ListEmpty,
	}
}

// Mount probes the gateway for an existing session. When one exists the
// session enters Authenticated directly and loads the list. Only the first
// call probes.
func (s *Session) Mount(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return apperr.ErrClosed
	}
	if s.mounted {
		s.mu.Unlock()
		return nil
	}
	s.mounted = true
	s.mu.Unlock()

	sess, err := s.gw.GetSession(ctx)
	if err != nil {
		s.logger.Warn("session probe failed", zap.Error(err))
		return nil
	}
	if sess == nil {
		return nil
	}

	s.mu.Lock()
	if s.closed || s.state != Unauthenticated {
		s.mu.Unlock()
		return nil
	}
	s.state = Authenticated
	s.mu.Unlock()

	return s.Reload(ctx)
}

// Login checks the credentials against the gateway. Any failure leaves the
// session Unauthenticated with the generic invalid-credentials message.
func (s *Session) Login(ctx context.Context, email, password string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return apperr.ErrClosed
	}
	switch s.state {
	case Authenticating:
		s.mu.Unlock()
		return apperr.ErrLoginInFlight
	case Authenticated:
		s.mu.Unlock()
		return apperr.ErrAlreadyAuthenticated
	}
	s.errMsg = ""
	s.email = email
	s.password = password

	if strings.TrimSpace(email) == "" || password == "" {
		s.errMsg = apperr.InvalidCredentialsMessage
		s.mu.Unlock()
		return &apperr.AuthError{}
	}
	s.state = Authenticating
	s.attempt++
	attempt := s.attempt
	s.mu.Unlock()

	_, err := s.gw.SignInWithPassword(ctx, email, password)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return apperr.ErrClosed
	}
	if s.attempt != attempt || s.state != Authenticating {
		// superseded by a logout, and possibly a newer attempt
		s.mu.Unlock()
		return apperr.ErrNotAuthenticated
	}
	if err != nil {
		s.state = Unauthenticated
		s.errMsg = apperr.InvalidCredentialsMessage
		s.mu.Unlock()
		s.logger.Info("admin login rejected")
		return &apperr.AuthError{}
	}
	s.state = Authenticated
	s.password = ""
	s.mu.Unlock()

	s.logger.Info("admin logged in")
	return s.Reload(ctx)
}

// Logout ends the remote session and clears everything held in memory,
// whatever the prior state was.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.gw.SignOut(ctx); err != nil {
		s.logger.Warn("remote sign out failed", zap.Error(err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	return nil
}

func (s *Session) resetLocked() {
	s.attempt++
	s.state = Unauthenticated
	s.items = nil
	s.status = ListEmpty
	s.email = ""
	s.password = ""
	s.errMsg = ""
	s.alert = ""
	s.deleting = false
}

// Reload fetches every testimonial, newest first. On failure the previous
// items stay and the status becomes ListError.
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return apperr.ErrClosed
	}
	if s.state != Authenticated {
		s.mu.Unlock()
		return apperr.ErrNotAuthenticated
	}
	s.status = ListLoading
	s.mu.Unlock()

	items, err := s.gw.ListTestimonials(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return apperr.ErrClosed
	}
	if s.state != Authenticated {
		return apperr.ErrNotAuthenticated
	}
	if err != nil {
		s.logger.Error("error loading testimonials", zap.Error(err))
		s.status = ListError
		return apperr.Remote("list testimonials", err)
	}

	s.items = items
	if len(items) == 0 {
		s.status = ListEmpty
	} else {
		s.status = ListLoaded
	}
	return nil
}

// Delete removes one testimonial after the moderator confirms. The in-memory
// list changes only once the gateway reports success.
func (s *Session) Delete(ctx context.Context, id string, confirm Confirmer) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return apperr.ErrClosed
	}
	if s.state != Authenticated {
		s.mu.Unlock()
		return apperr.ErrNotAuthenticated
	}
	if s.deleting {
		s.mu.Unlock()
		return apperr.ErrDeleteInFlight
	}
	s.mu.Unlock()

	if confirm == nil || !confirm.Confirm(DeletePrompt) {
		return apperr.ErrNotConfirmed
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return apperr.ErrClosed
	}
	if s.deleting {
		s.mu.Unlock()
		return apperr.ErrDeleteInFlight
	}
	s.deleting = true
	s.alert = ""
	s.mu.Unlock()

	err := s.gw.DeleteTestimonial(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return apperr.ErrClosed
	}
	if s.state != Authenticated {
		return apperr.ErrNotAuthenticated
	}
	s.deleting = false

	if err != nil {
		s.logger.Error("error deleting testimonial", zap.String("id", id), zap.Error(err))
		s.alert = DeleteFailedMessage
		return apperr.Remote("delete testimonial", err)
	}

	kept := s.items[:0:0]
	for _, t := range s.items {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.items = kept
	if len(kept) == 0 {
		s.status = ListEmpty
	}
	s.logger.Info("testimonial deleted", zap.String("id", id))
	return nil
}

// DismissAlert clears the blocking alert once shown.
func (s *Session) DismissAlert() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alert = ""
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Credentials returns the email and password currently held.
func (s *Session) Credentials() (email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.email, s.password
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		State:         s.state,
		Authenticated: s.state == Authenticated,
		Loading:       s.state == Authenticating,
		Error:         s.errMsg,
		Alert:         s.alert,
		Testimonials:  []gateway.Testimonial{},
	}
	if s.state == Authenticated {
		v.Status = s.status
		v.Testimonials = append(v.Testimonials, s.items...)
	}
	return v
}

// Close disposes the session. Calls still in flight are ignored when they resolve.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.resetLocked()
}
