package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// DefaultTimeout bounds a single request round trip.
const DefaultTimeout = 30 * time.Second

// TokenSource supplies the current bearer token, or "" when logged out.
// *session.Store satisfies this.
type TokenSource interface {
	Token() string
}

// authMode controls how a request handles the bearer token.
type authMode int

const (
	// authNone sends no Authorization header.
	authNone authMode = iota
	// authOptional attaches the token when one is held.
	authOptional
	// authRequired fails fast with ErrUnauthenticated when no token is
	// held, instead of sending a guaranteed-401 request.
	authRequired
)

// Client issues requests against the platform API with consistent error
// normalization. It holds no mutable state of its own; the token is read
// from the TokenSource on every request.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
}

// NewClient creates an API client. httpClient may be nil, in which case a
// client with DefaultTimeout is used. tokens may be nil for a client that
// can only perform unauthenticated calls.
func NewClient(httpClient *http.Client, baseURL string, tokens TokenSource) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		tokens:     tokens,
	}
}

// body is a prepared request body with its content type.
type body struct {
	reader      io.Reader
	contentType string
}

// jsonBody marshals v into a request body.
func jsonBody(v any) (*body, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}
	return &body{reader: strings.NewReader(string(data)), contentType: "application/json"}, nil
}

// token returns the current bearer token, or "".
func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

// do issues one request and decodes a 2xx JSON response into out (out may
// be nil to discard the body). Non-2xx responses and transport failures
// are normalized into the package's error taxonomy. There are no retries:
// every failure is surfaced to the caller.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, b *body, auth authMode, out any) error {
	token := c.token()
	if auth == authRequired && token == "" {
		return ErrUnauthenticated
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if b != nil {
		reader = b.reader
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	if b != nil {
		req.Header.Set("Content-Type", b.contentType)
	}
	if auth != authNone && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("X-Request-ID", ulid.Make().String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		return nil
	}

	message := errorMessage(resp)
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{Status: resp.StatusCode, Message: message}
	case http.StatusNotFound:
		return ErrNotFound
	default:
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return &RequestError{Status: resp.StatusCode, Message: message}
	}
}

// errorMessage extracts the "message" field from an error response body.
func errorMessage(resp *http.Response) string {
	var eb struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&eb)
	return strings.TrimSpace(eb.Message)
}
