// Package memory is an in-process testimonials table and session store,
// used for development and tests.
package memory

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"dreamsite/internal/gateway"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultSessionTTL is how long an issued session stays valid.
const DefaultSessionTTL = 12 * time.Hour

var ErrAdminExists = errors.New("admin already exists")

// unknownEmailHash keeps sign-in for unknown emails as slow as a wrong password.
var unknownEmailHash = sync.OnceValue(func() []byte {
	hash, _ := bcrypt.GenerateFromPassword([]byte("no such admin"), bcrypt.DefaultCost)
	return hash
})

type admin struct {
	id   string
	hash []byte
}

type issued struct {
	user      gateway.User
	expiresAt time.Time
}

// Store holds the table rows, the admin accounts and the tokens issued to them.
type Store struct {
	mu           sync.Mutex
	testimonials []gateway.Testimonial
	admins       map[string]admin
	tokens       map[string]issued
	ttl          time.Duration
	now          func() time.Time
}

func NewStore() *Store {
	return &Store{
		testimonials: make([]gateway.Testimonial, 0),
		admins:       make(map[string]admin),
		tokens:       make(map[string]issued),
		ttl:          DefaultSessionTTL,
		now:          time.Now,
	}
}

// AddAdmin registers a moderator account.
func (m *Store) AddAdmin(email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.admins[email]; ok {
		return ErrAdminExists
	}
	m.admins[email] = admin{id: uuid.NewString(), hash: hash}
	return nil
}

func (m *Store) signIn(email, password string) (*gateway.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	m.mu.Lock()
	a, ok := m.admins[email]
	m.mu.Unlock()
	if !ok {
		_ = bcrypt.CompareHashAndPassword(unknownEmailHash(), []byte(password))
		return nil, gateway.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil {
		return nil, gateway.ErrInvalidCredentials
	}

	sess := &gateway.Session{
		AccessToken: uuid.NewString(),
		ExpiresAt:   m.now().Add(m.ttl),
		User:        gateway.User{ID: a.id, Email: email},
	}

	m.mu.Lock()
	m.pruneLocked()
	m.tokens[sess.AccessToken] = issued{user: sess.User, expiresAt: sess.ExpiresAt}
	m.mu.Unlock()
	return sess, nil
}

// pruneLocked drops expired tokens.
func (m *Store) pruneLocked() {
	now := m.now()
	for token, it := range m.tokens {
		if !now.Before(it.expiresAt) {
			delete(m.tokens, token)
		}
	}
}

// Tokens reports how many issued tokens are held.
func (m *Store) Tokens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

func (m *Store) revoke(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
}

func (m *Store) valid(sess *gateway.Session) bool {
	if sess == nil || sess.Expired(m.now()) {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.tokens[sess.AccessToken]
	if ok && !m.now().Before(it.expiresAt) {
		delete(m.tokens, sess.AccessToken)
		return false
	}
	return ok
}

// Insert appends a row, assigning its id and creation time.
func (m *Store) Insert(content string) gateway.Testimonial {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := gateway.Testimonial{
		ID:        uuid.NewString(),
		Content:   content,
		CreatedAt: m.now().UTC(),
	}
	m.testimonials = append(m.testimonials, t)
	return t
}

// List returns a copy of every row, newest first.
func (m *Store) List() []gateway.Testimonial {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := make([]gateway.Testimonial, len(m.testimonials))
	copy(rows, m.testimonials)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	return rows
}

// Delete removes the row with id. Deleting a missing id is not an error.
func (m *Store) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.testimonials[:0]
	for _, t := range m.testimonials {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	m.testimonials = kept
}
