package mockapi

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/farmlink/farmlink-go/internal/model"
)

// maxUploadBytes caps the size of a multipart upload request.
const maxUploadBytes = 32 << 20

// handleListListings returns listings filtered and sorted per the query
// parameters: search, category, minPrice, maxPrice and sortBy.
func (s *Server) handleListListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := strings.ToLower(q.Get("search"))
	category := q.Get("category")
	minPrice, hasMin := parsePrice(q.Get("minPrice"))
	maxPrice, hasMax := parsePrice(q.Get("maxPrice"))

	s.mu.Lock()
	matched := make([]model.Listing, 0, len(s.listings))
	for _, l := range s.listings {
		if search != "" &&
			!strings.Contains(strings.ToLower(l.Title), search) &&
			!strings.Contains(strings.ToLower(l.Description), search) {
			continue
		}
		if category != "" && l.Category != category {
			continue
		}
		if hasMin || hasMax {
			price, ok := parsePrice(l.Price)
			if !ok {
				continue
			}
			if hasMin && price < minPrice {
				continue
			}
			if hasMax && price > maxPrice {
				continue
			}
		}
		matched = append(matched, l)
	}
	s.mu.Unlock()

	sortListings(matched, q.Get("sortBy"))
	jsonResponse(w, http.StatusOK, matched)
}

func parsePrice(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// sortListings orders listings in place. Unknown sortBy values fall
// back to newest first, matching the default browse view.
func sortListings(listings []model.Listing, sortBy string) {
	switch sortBy {
	case model.SortPriceAsc:
		sort.SliceStable(listings, func(i, j int) bool {
			pi, _ := parsePrice(listings[i].Price)
			pj, _ := parsePrice(listings[j].Price)
			return pi < pj
		})
	case model.SortPriceDesc:
		sort.SliceStable(listings, func(i, j int) bool {
			pi, _ := parsePrice(listings[i].Price)
			pj, _ := parsePrice(listings[j].Price)
			return pi > pj
		})
	default:
		sort.SliceStable(listings, func(i, j int) bool {
			return listings[i].CreatedAt.After(listings[j].CreatedAt)
		})
	}
}

// handleGetListing returns one listing by id.
func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	idx := s.findListing(id)
	var listing model.Listing
	if idx >= 0 {
		listing = s.listings[idx]
	}
	s.mu.Unlock()

	if idx < 0 {
		jsonError(w, http.StatusNotFound, "listing not found")
		return
	}
	jsonResponse(w, http.StatusOK, listing)
}

// findListing returns the index of the listing with the given id, or -1.
// Callers must hold s.mu.
func (s *Server) findListing(id string) int {
	for i := range s.listings {
		if s.listings[i].ID == id {
			return i
		}
	}
	return -1
}

// handleCreateListing creates a listing from a multipart form with text
// fields and up to five photos under the "images" field.
func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	listing := model.Listing{
		ID:          uuid.NewString(),
		Title:       r.FormValue("title"),
		Location:    r.FormValue("location"),
		Category:    r.FormValue("category"),
		Description: r.FormValue("description"),
		Price:       r.FormValue("price"),
	}
	user := caller(r)
	listing.Seller = model.Author{ID: user.ID, Name: user.Name}

	if listing.Title == "" || listing.Category == "" || listing.Price == "" {
		jsonError(w, http.StatusBadRequest, "title, category and price are required")
		return
	}
	if !model.ValidCategory(listing.Category) {
		jsonError(w, http.StatusBadRequest, "unknown category: "+listing.Category)
		return
	}

	images, err := storedImages(r, "images")
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(images) > 5 {
		jsonError(w, http.StatusBadRequest, "a listing can have at most 5 photos")
		return
	}
	listing.Images = images

	s.mu.Lock()
	listing.CreatedAt = s.stampLocked()
	s.listings = append(s.listings, listing)
	s.mu.Unlock()

	jsonResponse(w, http.StatusCreated, listing)
}

// storedImages pretends to store uploaded files and returns their URLs.
// File contents are discarded; only the upload shape is exercised.
func storedImages(r *http.Request, field string) ([]string, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	files := r.MultipartForm.File[field]
	urls := make([]string, 0, len(files))
	for range files {
		urls = append(urls, "/uploads/"+uuid.NewString()+".jpg")
	}
	return urls, nil
}

// handleUpdateListing replaces the editable fields of a listing owned by
// the caller. New photos, when provided, replace the old set.
func (s *Server) handleUpdateListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	images, err := storedImages(r, "images")
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(images) > 5 {
		jsonError(w, http.StatusBadRequest, "a listing can have at most 5 photos")
		return
	}

	user := caller(r)

	s.mu.Lock()
	idx := s.findListing(id)
	if idx < 0 {
		s.mu.Unlock()
		jsonError(w, http.StatusNotFound, "listing not found")
		return
	}
	if s.listings[idx].Seller.ID != user.ID {
		s.mu.Unlock()
		jsonError(w, http.StatusForbidden, "you can only edit your own listings")
		return
	}

	l := &s.listings[idx]
	if v := r.FormValue("title"); v != "" {
		l.Title = v
	}
	if v := r.FormValue("location"); v != "" {
		l.Location = v
	}
	if v := r.FormValue("category"); v != "" {
		if !model.ValidCategory(v) {
			s.mu.Unlock()
			jsonError(w, http.StatusBadRequest, "unknown category: "+v)
			return
		}
		l.Category = v
	}
	if v := r.FormValue("description"); v != "" {
		l.Description = v
	}
	if v := r.FormValue("price"); v != "" {
		l.Price = v
	}
	if len(images) > 0 {
		l.Images = images
	}
	updated := *l
	s.mu.Unlock()

	jsonResponse(w, http.StatusOK, updated)
}

// handleDeleteListing removes a listing owned by the caller.
func (s *Server) handleDeleteListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user := caller(r)

	s.mu.Lock()
	idx := s.findListing(id)
	if idx < 0 {
		s.mu.Unlock()
		jsonError(w, http.StatusNotFound, "listing not found")
		return
	}
	if s.listings[idx].Seller.ID != user.ID {
		s.mu.Unlock()
		jsonError(w, http.StatusForbidden, "you can only delete your own listings")
		return
	}
	s.listings = append(s.listings[:idx], s.listings[idx+1:]...)
	s.mu.Unlock()

	jsonResponse(w, http.StatusOK, map[string]string{"message": "listing deleted"})
}

// handleMessageSeller records a buyer's message for a listing's seller.
func (s *Server) handleMessageSeller(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		jsonError(w, http.StatusBadRequest, "message content is required")
		return
	}

	user := caller(r)

	s.mu.Lock()
	idx := s.findListing(id)
	if idx >= 0 {
		s.messages = append(s.messages, Message{
			ListingID: id,
			FromID:    user.ID,
			Content:   req.Content,
		})
	}
	s.mu.Unlock()

	if idx < 0 {
		jsonError(w, http.StatusNotFound, "listing not found")
		return
	}
	jsonResponse(w, http.StatusCreated, map[string]string{"message": "message sent to seller"})
}
