package api

import (
	"context"
	"net/http"

	"github.com/farmlink/farmlink-go/internal/model"
)

// LoginResponse is the payload returned on successful login.
type LoginResponse struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

// Login exchanges credentials for an identity and bearer token. The caller
// is expected to store the result in the session store.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	b, err := jsonBody(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}
	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, b, authNone, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RegisterRequest is the account creation payload.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

// Register creates a new account. The account must log in afterwards; the
// server does not return a token here.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	if err := model.ValidateEmail(req.Email); err != nil {
		return err
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		return err
	}
	b, err := jsonBody(req)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/api/auth/register", nil, b, authNone, nil)
}

// User fetches another member's contact details (used for seller contact
// on listing detail views). Requires authentication.
func (c *Client) User(ctx context.Context, id string) (*model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodGet, "/api/users/"+id, nil, nil, authRequired, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
