package mpvremote

import (
	"context"
	"errors"
)

// Authenticate logs in with the server password. On success the session
// cookie is kept in the client's cookie jar.
func (c *Client) Authenticate(ctx context.Context, password string) error {
	return c.postForm(ctx, "authenticate", "password", password)
}

// IsAuthenticated reports whether the current session is accepted.
//
// A 401 is a definite "no" and is not returned as an error; any other
// failure is.
func (c *Client) IsAuthenticated(ctx context.Context) (bool, error) {
	_, err := c.get(ctx, "is-authenticated", nil, nil)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrUnauthorized) {
		return false, nil
	}
	return false, err
}

// ChangePassword replaces the server password. The session must already
// be authenticated.
func (c *Client) ChangePassword(ctx context.Context, password string) error {
	return c.postForm(ctx, "change-password", "password", password)
}
