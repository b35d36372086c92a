package apiclient

import (
	"context"
	"net/http"

	"github.com/trezcool/pathways/core/user"
)

type (
	credentials struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	tokenResponse struct {
		Token string `json:"token"`
	}
)

// Login authenticates with a username or email and keeps the session token.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var resp tokenResponse
	if err := c.Do(ctx, http.MethodPost, "/users/login", credentials{username, password}, &resp); err != nil {
		return err
	}
	c.SetToken(resp.Token)
	return nil
}

// RefreshToken replaces the session token with a fresh one.
func (c *Client) RefreshToken(ctx context.Context) error {
	var resp tokenResponse
	if err := c.Do(ctx, http.MethodPost, "/users/token-refresh", nil, &resp); err != nil {
		return err
	}
	c.mu.Lock()
	c.token = resp.Token // same session: the cache is kept
	c.mu.Unlock()
	return nil
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context, opts ...CallOption) (user.User, error) {
	var usr user.User
	err := c.Do(ctx, http.MethodGet, "/users/me", nil, &usr, opts...)
	return usr, err
}

func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.Do(ctx, http.MethodPost, "/users/password-reset", map[string]string{"email": email}, nil)
}
