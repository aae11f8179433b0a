package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"dreamsite/internal/gateway"
)

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func (t tokenResponse) session(now time.Time) *gateway.Session {
	s := &gateway.Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		User:         gateway.User{ID: t.User.ID, Email: t.User.Email},
	}
	switch {
	case t.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(t.ExpiresAt, 0).UTC()
	case t.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(t.ExpiresIn) * time.Second).UTC()
	}
	return s
}

// SignInWithPassword exchanges an email and password for a session. Any
// 400 or 401 from GoTrue is reported as gateway.ErrInvalidCredentials.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*gateway.Session, error) {
	in := map[string]string{"email": email, "password": password}

	var out tokenResponse
	err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", in, &out, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusBadRequest || apiErr.StatusCode == http.StatusUnauthorized) {
		return nil, fmt.Errorf("%w: %v", gateway.ErrInvalidCredentials, apiErr)
	}
	if err != nil {
		return nil, err
	}
	return out.session(time.Now()), nil
}

// Refresh trades a refresh token for a new session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*gateway.Session, error) {
	in := map[string]string{"refresh_token": refreshToken}

	var out tokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", "", in, &out, nil); err != nil {
		return nil, err
	}
	return out.session(time.Now()), nil
}

// Logout revokes the session behind accessToken.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil, nil, nil)
}

// TabClient is one tab's gateway. Its session lives in SessionStorage under the tab key.
type TabClient struct {
	api      *Client
	sessions gateway.SessionStorage
	key      string
	now      func() time.Time
}

// NewFactory returns a gateway.Factory backed by api whose clients persist
// their sessions in sessions.
func NewFactory(api *Client, sessions gateway.SessionStorage) gateway.Factory {
	return func(key string) gateway.Client {
		return &TabClient{api: api, sessions: sessions, key: key, now: time.Now}
	}
}

// GetSession returns the stored session, refreshing it first when it has
// expired. A session that cannot be refreshed is forgotten.
func (t *TabClient) GetSession(ctx context.Context) (*gateway.Session, error) {
	sess, err := t.sessions.Load(ctx, t.key)
	if errors.Is(err, gateway.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !sess.Expired(t.now()) {
		return sess, nil
	}

	if sess.RefreshToken == "" {
		return nil, t.sessions.Remove(ctx, t.key)
	}
	fresh, err := t.api.Refresh(ctx, sess.RefreshToken)
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return nil, t.sessions.Remove(ctx, t.key)
	}
	if err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	if err := t.sessions.Save(ctx, t.key, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

func (t *TabClient) SignInWithPassword(ctx context.Context, email, password string) (*gateway.Session, error) {
	sess, err := t.api.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := t.sessions.Save(ctx, t.key, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// SignOut forgets the stored session even when the remote logout fails.
func (t *TabClient) SignOut(ctx context.Context) error {
	sess, err := t.sessions.Load(ctx, t.key)
	if errors.Is(err, gateway.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	remoteErr := t.api.Logout(ctx, sess.AccessToken)
	if err := t.sessions.Remove(ctx, t.key); err != nil {
		return err
	}
	if remoteErr != nil {
		return fmt.Errorf("logout: %w", remoteErr)
	}
	return nil
}

// accessToken is the stored session's token, or empty for anonymous calls.
func (t *TabClient) accessToken(ctx context.Context) (string, error) {
	sess, err := t.GetSession(ctx)
	if err != nil || sess == nil {
		return "", err
	}
	return sess.AccessToken, nil
}
