package memory

import (
	"context"
	"errors"

	"dreamsite/internal/gateway"
)

// Client is one tab's gateway over a shared Store.
type Client struct {
	store    *Store
	sessions gateway.SessionStorage
	key      string
}

// NewFactory returns a gateway.Factory whose clients share store and persist
// their sessions in sessions.
func NewFactory(store *Store, sessions gateway.SessionStorage) gateway.Factory {
	return func(key string) gateway.Client {
		return &Client{store: store, sessions: sessions, key: key}
	}
}

func (c *Client) GetSession(ctx context.Context) (*gateway.Session, error) {
	sess, err := c.sessions.Load(ctx, c.key)
	if errors.Is(err, gateway.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !c.store.valid(sess) {
		return nil, c.sessions.Remove(ctx, c.key)
	}
	return sess, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*gateway.Session, error) {
	sess, err := c.store.signIn(email, password)
	if err != nil {
		return nil, err
	}
	if err := c.sessions.Save(ctx, c.key, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	sess, err := c.sessions.Load(ctx, c.key)
	if errors.Is(err, gateway.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	c.store.revoke(sess.AccessToken)
	return c.sessions.Remove(ctx, c.key)
}

func (c *Client) authorized(ctx context.Context) error {
	sess, err := c.GetSession(ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		return gateway.ErrUnauthorized
	}
	return nil
}

func (c *Client) ListTestimonials(ctx context.Context) ([]gateway.Testimonial, error) {
	if err := c.authorized(ctx); err != nil {
		return nil, err
	}
	return c.store.List(), nil
}

// InsertTestimonial is open to anonymous visitors.
func (c *Client) InsertTestimonial(ctx context.Context, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.store.Insert(content)
	return nil
}

func (c *Client) DeleteTestimonial(ctx context.Context, id string) error {
	if err := c.authorized(ctx); err != nil {
		return err
	}
	c.store.Delete(id)
	return nil
}
