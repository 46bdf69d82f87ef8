// Package mockapi is an in-memory implementation of the platform API
// contract. It backs cmd/mockapi for local development and acts as the
// fixture server for client and syncer tests.
package mockapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/farmlink/farmlink-go/internal/model"
)

// TokenExpiry is the lifetime of issued bearer tokens.
const TokenExpiry = 7 * 24 * time.Hour

// account pairs a public identity with its credential hash.
type account struct {
	user         model.User
	passwordHash []byte
}

// Message is a recorded contact-seller message.
type Message struct {
	ListingID string
	FromID    string
	Content   string
}

// Server holds the in-memory state behind the API handlers.
type Server struct {
	secret []byte

	mu          sync.Mutex
	users       map[string]*account
	byEmail     map[string]string
	listings    []model.Listing
	discussions []model.DiscussionPost
	messages    []Message
	counts      map[string]int
	lastStamp   time.Time
}

// NewServer creates an empty server signing tokens with secret.
func NewServer(secret string) *Server {
	return &Server{
		secret:  []byte(secret),
		users:   make(map[string]*account),
		byEmail: make(map[string]string),
		counts:  make(map[string]int),
	}
}

// Handler returns the chi router for the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
	}))
	r.Use(s.countRequests)

	r.Post("/api/auth/login", s.handleLogin)
	r.Post("/api/auth/register", s.handleRegister)

	r.Get("/api/users/{id}", s.requireAuth(s.handleGetUser))

	r.Get("/api/listings", s.handleListListings)
	r.Post("/api/listings", s.requireAuth(s.handleCreateListing))
	r.Get("/api/listings/{id}", s.handleGetListing)
	r.Put("/api/listings/{id}", s.requireAuth(s.handleUpdateListing))
	r.Delete("/api/listings/{id}", s.requireAuth(s.handleDeleteListing))
	r.Post("/api/listings/{id}/message", s.requireAuth(s.handleMessageSeller))

	r.Get("/api/community/discussions", s.handleListDiscussions)
	r.Post("/api/community/discussions", s.requireAuth(s.handleCreateDiscussion))
	r.Get("/api/community/discussions/{id}", s.handleGetDiscussion)
	r.Put("/api/community/discussions/{id}", s.requireAuth(s.handleUpdateDiscussion))
	r.Delete("/api/community/discussions/{id}", s.requireAuth(s.handleDeleteDiscussion))
	r.Get("/api/community/stats", s.handleStats)

	return r
}

// countRequests tracks how many requests each method+path received, so
// tests can assert on network-call counts.
func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.counts[r.Method+" "+r.URL.Path]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// RequestCount returns how many requests hit method+path (exact path,
// e.g. "DELETE /api/listings/42").
func (s *Server) RequestCount(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[method+" "+path]
}

// Messages returns the recorded contact-seller messages.
func (s *Server) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// SeedUser registers an account directly and returns its identity.
func (s *Server) SeedUser(name, email, password, phone string) model.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("mockapi: hashing password: %v", err))
	}
	user := model.User{ID: uuid.NewString(), Name: name, Email: email, Phone: phone}

	s.mu.Lock()
	s.users[user.ID] = &account{user: user, passwordHash: hash}
	s.byEmail[strings.ToLower(email)] = user.ID
	s.mu.Unlock()
	return user
}

// stampLocked returns a strictly increasing creation timestamp, so
// newest-first ordering is stable even for items created back to back.
// Callers must hold s.mu.
func (s *Server) stampLocked() time.Time {
	ts := time.Now().UTC()
	if !ts.After(s.lastStamp) {
		ts = s.lastStamp.Add(time.Millisecond)
	}
	s.lastStamp = ts
	return ts
}

// SeedListing inserts a listing directly and returns it.
func (s *Server) SeedListing(seller model.User, title, category, price string) model.Listing {
	listing := model.Listing{
		ID:       uuid.NewString(),
		Title:    title,
		Location: "Nakuru",
		Category: category,
		Price:    price,
		Seller:   model.Author{ID: seller.ID, Name: seller.Name},
	}
	s.mu.Lock()
	listing.CreatedAt = s.stampLocked()
	s.listings = append(s.listings, listing)
	s.mu.Unlock()
	return listing
}

// SeedDiscussion inserts a discussion post directly and returns it.
func (s *Server) SeedDiscussion(author model.User, title, content string) model.DiscussionPost {
	post := model.DiscussionPost{
		ID:      uuid.NewString(),
		Title:   title,
		Content: content,
		Author:  model.Author{ID: author.ID, Name: author.Name},
	}
	s.mu.Lock()
	post.CreatedAt = s.stampLocked()
	s.discussions = append(s.discussions, post)
	s.mu.Unlock()
	return post
}

// TokenFor mints a signed bearer token for the given user id.
func (s *Server) TokenFor(userID string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenExpiry)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		panic(fmt.Sprintf("mockapi: signing token: %v", err))
	}
	return signed
}

type contextKey string

const userKey contextKey = "user"

// requireAuth validates the bearer token and stores the caller's identity
// in the request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			jsonError(w, http.StatusUnauthorized, "missing or invalid authorization header")
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.secret, nil
		})
		if err != nil || !token.Valid {
			jsonError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		s.mu.Lock()
		acct, ok := s.users[claims.Subject]
		s.mu.Unlock()
		if !ok {
			jsonError(w, http.StatusUnauthorized, "unknown user")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, acct.user)
		next(w, r.WithContext(ctx))
	}
}

// caller returns the authenticated identity from the context.
func caller(r *http.Request) model.User {
	user, _ := r.Context().Value(userKey).(model.User)
	return user
}

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("error encoding response: %v", err)
		}
	}
}

// jsonError writes a JSON error response with a message field.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"message": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}
