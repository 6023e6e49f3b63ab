package backend

import (
	"context"
	"net/http"

	account "github.com/vadim/igdm-console/internal/domain/account/entity"
	"github.com/vadim/igdm-console/internal/domain/common"
)

// GetLoginURL returns the OAuth URL the browser should be sent to
// GET /api/auth/login
func (c *Client) GetLoginURL(ctx context.Context) (string, error) {
	var out account.LoginURL
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/api/auth/login",
		path:   "/api/auth/login",
	}, &out)
	if err != nil {
		return "", err
	}
	return out.AuthURL, nil
}

// GetCurrentUser returns the user the bearer token belongs to
// GET /api/auth/me
func (c *Client) GetCurrentUser(ctx context.Context) (*account.User, error) {
	var out account.User
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/api/auth/me",
		path:   "/api/auth/me",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout asks the backend to invalidate the current token
// POST /api/auth/logout
func (c *Client) Logout(ctx context.Context) error {
	var out common.Ack
	return c.do(ctx, call{
		method: http.MethodPost,
		route:  "/api/auth/logout",
		path:   "/api/auth/logout",
	}, &out)
}
