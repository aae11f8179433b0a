package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"dreamsite/internal/gateway"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

// DefaultSessionTTL is the lifetime of an issued session token.
const DefaultSessionTTL = 12 * time.Hour

const issuer = "dreamsite"

// SessionClaims are the claims carried by a session token.
type SessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Sessions signs and verifies HS256 session tokens for admin accounts.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessions(secret []byte, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{secret: secret, ttl: ttl, now: time.Now}
}

func (s *Sessions) Issue(user *AdminUser) (*gateway.Session, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := SessionClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	return &gateway.Session{
		AccessToken: token,
		ExpiresAt:   expiresAt.UTC().Truncate(time.Second),
		User:        gateway.User{ID: claims.Subject, Email: user.Email},
	}, nil
}

// Verify checks the signature, issuer and expiry of an access token.
func (s *Sessions) Verify(accessToken string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(accessToken, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// TabClient is one tab's gateway over the self-hosted table.
type TabClient struct {
	db       *PostgresClient
	tokens   *Sessions
	sessions gateway.SessionStorage
	key      string
}

// NewFactory returns a gateway.Factory whose clients share db and persist
// their sessions in sessions.
func NewFactory(db *PostgresClient, tokens *Sessions, sessions gateway.SessionStorage) gateway.Factory {
	return func(key string) gateway.Client {
		return &TabClient{db: db, tokens: tokens, sessions: sessions, key: key}
	}
}

// GetSession returns the stored session if its token still verifies and its
// admin account still exists. Anything else is forgotten.
func (t *TabClient) GetSession(ctx context.Context) (*gateway.Session, error) {
	sess, err := t.sessions.Load(ctx, t.key)
	if errors.Is(err, gateway.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	claims, err := t.tokens.Verify(sess.AccessToken)
	if err != nil {
		return nil, t.sessions.Remove(ctx, t.key)
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, t.sessions.Remove(ctx, t.key)
	}
	if _, err := t.db.GetAdmin(ctx, uint(id)); errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, t.sessions.Remove(ctx, t.key)
	} else if err != nil {
		return nil, fmt.Errorf("load admin: %w", err)
	}
	return sess, nil
}

func (t *TabClient) SignInWithPassword(ctx context.Context, email, password string) (*gateway.Session, error) {
	user, err := t.db.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	sess, err := t.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	if err := t.sessions.Save(ctx, t.key, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (t *TabClient) SignOut(ctx context.Context) error {
	return t.sessions.Remove(ctx, t.key)
}

func (t *TabClient) authorized(ctx context.Context) error {
	sess, err := t.GetSession(ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		return gateway.ErrUnauthorized
	}
	return nil
}

func (t *TabClient) ListTestimonials(ctx context.Context) ([]gateway.Testimonial, error) {
	if err := t.authorized(ctx); err != nil {
		return nil, err
	}
	return t.db.ListTestimonials(ctx)
}

// InsertTestimonial is open to anonymous visitors.
func (t *TabClient) InsertTestimonial(ctx context.Context, content string) error {
	_, err := t.db.InsertTestimonial(ctx, content)
	return err
}

func (t *TabClient) DeleteTestimonial(ctx context.Context, id string) error {
	if err := t.authorized(ctx); err != nil {
		return err
	}
	return t.db.DeleteTestimonial(ctx, id)
}
