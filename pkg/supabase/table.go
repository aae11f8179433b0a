package supabase

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"dreamsite/internal/gateway"
)

const restPath = "/rest/v1/" + gateway.TableName

// tableError maps PostgREST auth rejections onto gateway.ErrUnauthorized.
func tableError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
		return errors.Join(gateway.ErrUnauthorized, apiErr)
	}
	return err
}

// ListTestimonials returns every row, newest first.
func (t *TabClient) ListTestimonials(ctx context.Context) ([]gateway.Testimonial, error) {
	token, err := t.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]gateway.Testimonial, 0)
	if err := t.api.do(ctx, http.MethodGet, restPath+"?select=*&order=created_at.desc", token, nil, &rows, nil); err != nil {
		return nil, tableError(err)
	}
	return rows, nil
}

func (t *TabClient) InsertTestimonial(ctx context.Context, content string) error {
	token, err := t.accessToken(ctx)
	if err != nil {
		return err
	}

	header := http.Header{}
	header.Set("Prefer", "return=minimal")
	in := map[string]string{"content": content}
	return tableError(t.api.do(ctx, http.MethodPost, restPath, token, in, nil, header))
}

func (t *TabClient) DeleteTestimonial(ctx context.Context, id string) error {
	token, err := t.accessToken(ctx)
	if err != nil {
		return err
	}

	q := url.Values{}
	q.Set("id", "eq."+id)
	return tableError(t.api.do(ctx, http.MethodDelete, restPath+"?"+q.Encode(), token, nil, nil, nil))
}
