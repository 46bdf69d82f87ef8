package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/farmlink/farmlink-go/internal/localstore"
	"github.com/farmlink/farmlink-go/internal/model"
)

// storeKey is the settings key holding the serialized session.
const storeKey = "session"

// persisted is the on-disk shape of a session.
type persisted struct {
	Identity *model.User `json:"identity"`
	Token    string      `json:"token"`
}

// Store holds the current identity and bearer token, persisted across runs.
// Token is present iff identity is present; a persisted blob violating that
// is treated as no session at all.
//
// The token is read by any number of concurrent requests; only Login and
// Logout mutate it.
type Store struct {
	mu       sync.Mutex
	db       *sql.DB
	identity *model.User
	token    string
}

// NewStore creates an empty session store backed by the given database.
// Call Restore to load a previously persisted session.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Restore loads the persisted session. Corrupt or structurally invalid data
// is not an error: the store resets to the empty session and removes the
// bad value. Only storage failures are reported.
func (s *Store) Restore(ctx context.Context) error {
	value, ok, err := localstore.Get(ctx, s.db, storeKey)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	var p persisted
	if err := json.Unmarshal([]byte(value), &p); err != nil || p.Identity == nil || p.Token == "" || p.Identity.ID == "" {
		// Corrupt or partial session: clear it and start logged out.
		s.mu.Lock()
		s.identity = nil
		s.token = ""
		s.mu.Unlock()
		return localstore.Delete(ctx, s.db, storeKey)
	}

	s.mu.Lock()
	s.identity = p.Identity
	s.token = p.Token
	s.mu.Unlock()
	return nil
}

// Login sets the session and persists it. The caller is responsible for
// having validated the server's login response.
func (s *Store) Login(ctx context.Context, identity model.User, token string) error {
	s.mu.Lock()
	ident := identity
	s.identity = &ident
	s.token = token
	s.mu.Unlock()

	data, err := json.Marshal(persisted{Identity: &identity, Token: token})
	if err != nil {
		return err
	}
	return localstore.Set(ctx, s.db, storeKey, string(data))
}

// Logout clears the session state and the persisted value.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.identity = nil
	s.token = ""
	s.mu.Unlock()

	return localstore.Delete(ctx, s.db, storeKey)
}

// Token returns the bearer token, or "" when there is no usable session.
// A token that carries a JWT expiry in the past counts as absent, so
// callers fail fast instead of sending a guaranteed-401 request.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil || s.token == "" {
		return ""
	}
	if tokenExpired(s.token) {
		return ""
	}
	return s.token
}

// Identity returns a copy of the logged-in user, or nil.
func (s *Store) Identity() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return nil
	}
	ident := *s.identity
	return &ident
}

// Authenticated reports whether a usable session is held.
func (s *Store) Authenticated() bool {
	return s.Token() != ""
}

// tokenExpired reports whether token is a JWT whose exp claim has passed.
// Opaque (non-JWT) tokens never expire locally; the server decides.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
