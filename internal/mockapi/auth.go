package mockapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/farmlink/farmlink-go/internal/model"
)

// handleLogin verifies credentials and issues a bearer token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	id, ok := s.byEmail[strings.ToLower(req.Email)]
	var acct *account
	if ok {
		acct = s.users[id]
	}
	s.mu.Unlock()

	if acct == nil || bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(req.Password)) != nil {
		jsonError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"user":  acct.user,
		"token": s.TokenFor(acct.user.ID),
	})
}

// handleRegister creates a new account. It does not log the user in;
// the client follows up with a login call.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Phone    string `json:"phone"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "name, email and password are required")
		return
	}
	if err := model.ValidateEmail(req.Email); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	_, taken := s.byEmail[strings.ToLower(req.Email)]
	s.mu.Unlock()
	if taken {
		jsonError(w, http.StatusBadRequest, "email already registered")
		return
	}

	s.SeedUser(req.Name, req.Email, req.Password, req.Phone)
	jsonResponse(w, http.StatusCreated, map[string]string{"message": "registration successful"})
}

// handleGetUser returns a user's public contact details.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	acct, ok := s.users[id]
	s.mu.Unlock()
	if !ok {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	jsonResponse(w, http.StatusOK, acct.user)
}

// handleStats returns community-wide counters.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	stats := model.CommunityStats{
		TotalUsers:       len(s.users),
		TotalDiscussions: len(s.discussions),
	}
	s.mu.Unlock()

	jsonResponse(w, http.StatusOK, stats)
}
