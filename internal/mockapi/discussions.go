package mockapi

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/farmlink/farmlink-go/internal/model"
)

// handleListDiscussions returns discussion posts, newest first, capped
// by the limit query parameter when present.
func (s *Server) handleListDiscussions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	posts := make([]model.DiscussionPost, len(s.discussions))
	copy(posts, s.discussions)
	s.mu.Unlock()

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})

	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if limit < len(posts) {
			posts = posts[:limit]
		}
	}

	jsonResponse(w, http.StatusOK, posts)
}

// handleGetDiscussion returns one discussion post by id.
func (s *Server) handleGetDiscussion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	idx := s.findDiscussion(id)
	var post model.DiscussionPost
	if idx >= 0 {
		post = s.discussions[idx]
	}
	s.mu.Unlock()

	if idx < 0 {
		jsonError(w, http.StatusNotFound, "discussion not found")
		return
	}
	jsonResponse(w, http.StatusOK, post)
}

// findDiscussion returns the index of the post with the given id, or -1.
// Callers must hold s.mu.
func (s *Server) findDiscussion(id string) int {
	for i := range s.discussions {
		if s.discussions[i].ID == id {
			return i
		}
	}
	return -1
}

// handleCreateDiscussion creates a post from a multipart form with an
// optional single photo under the "image" field.
func (s *Server) handleCreateDiscussion(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	user := caller(r)
	post := model.DiscussionPost{
		ID:      uuid.NewString(),
		Title:   r.FormValue("title"),
		Content: r.FormValue("content"),
		Author:  model.Author{ID: user.ID, Name: user.Name},
	}
	if post.Title == "" || post.Content == "" {
		jsonError(w, http.StatusBadRequest, "title and content are required")
		return
	}

	images, err := storedImages(r, "image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(images) > 1 {
		jsonError(w, http.StatusBadRequest, "a post can have at most one photo")
		return
	}
	if len(images) == 1 {
		post.ImageURL = images[0]
	}

	s.mu.Lock()
	post.CreatedAt = s.stampLocked()
	s.discussions = append(s.discussions, post)
	s.mu.Unlock()

	jsonResponse(w, http.StatusCreated, post)
}

// handleUpdateDiscussion replaces the editable fields of a post owned by
// the caller.
func (s *Server) handleUpdateDiscussion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	images, err := storedImages(r, "image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(images) > 1 {
		jsonError(w, http.StatusBadRequest, "a post can have at most one photo")
		return
	}

	user := caller(r)

	s.mu.Lock()
	idx := s.findDiscussion(id)
	if idx < 0 {
		s.mu.Unlock()
		jsonError(w, http.StatusNotFound, "discussion not found")
		return
	}
	if s.discussions[idx].Author.ID != user.ID {
		s.mu.Unlock()
		jsonError(w, http.StatusForbidden, "you can only edit your own posts")
		return
	}

	post := &s.discussions[idx]
	if v := r.FormValue("title"); v != "" {
		post.Title = v
	}
	if v := r.FormValue("content"); v != "" {
		post.Content = v
	}
	if len(images) == 1 {
		post.ImageURL = images[0]
	}
	updated := *post
	s.mu.Unlock()

	jsonResponse(w, http.StatusOK, updated)
}

// handleDeleteDiscussion removes a post owned by the caller.
func (s *Server) handleDeleteDiscussion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user := caller(r)

	s.mu.Lock()
	idx := s.findDiscussion(id)
	if idx < 0 {
		s.mu.Unlock()
		jsonError(w, http.StatusNotFound, "discussion not found")
		return
	}
	if s.discussions[idx].Author.ID != user.ID {
		s.mu.Unlock()
		jsonError(w, http.StatusForbidden, "you can only delete your own posts")
		return
	}
	s.discussions = append(s.discussions[:idx], s.discussions[idx+1:]...)
	s.mu.Unlock()

	jsonResponse(w, http.StatusOK, map[string]string{"message": "discussion deleted"})
}
