package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/farmlink/farmlink-go/internal/model"
)

// MaxListingImages is the upload limit enforced client-side before the
// request is built.
const MaxListingImages = 5

// Listings fetches the marketplace collection with the given filters. The
// token is attached when held, but the endpoint is public.
func (c *Client) Listings(ctx context.Context, q model.Query) ([]model.Listing, error) {
	var out []model.Listing
	if err := c.do(ctx, http.MethodGet, "/api/listings", q.Values(), nil, authOptional, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Listing fetches a single listing by id.
func (c *Client) Listing(ctx context.Context, id string) (*model.Listing, error) {
	var out model.Listing
	if err := c.do(ctx, http.MethodGet, "/api/listings/"+id, nil, nil, authOptional, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListingDraft is the payload for creating or updating a listing.
type ListingDraft struct {
	Title       string
	Location    string
	Category    string
	Description string
	Price       string
	Images      []Upload
}

func (d ListingDraft) validate() error {
	if d.Title == "" || d.Location == "" || d.Description == "" || d.Price == "" {
		return fmt.Errorf("title, location, description and price are required")
	}
	if !model.ValidCategory(d.Category) {
		return fmt.Errorf("unknown category %q", d.Category)
	}
	if len(d.Images) > MaxListingImages {
		return fmt.Errorf("at most %d images per listing", MaxListingImages)
	}
	return nil
}

// CreateListing uploads a new listing as multipart form data. Images are
// downscaled and re-encoded before upload. Requires authentication.
func (c *Client) CreateListing(ctx context.Context, draft ListingDraft) (*model.Listing, error) {
	if err := draft.validate(); err != nil {
		return nil, err
	}
	b, err := listingForm(draft)
	if err != nil {
		return nil, err
	}
	var out model.Listing
	if err := c.do(ctx, http.MethodPost, "/api/listings", nil, b, authRequired, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateListing replaces a listing's fields. Only the owner may update;
// the server answers 403 otherwise.
func (c *Client) UpdateListing(ctx context.Context, id string, draft ListingDraft) (*model.Listing, error) {
	if err := draft.validate(); err != nil {
		return nil, err
	}
	b, err := listingForm(draft)
	if err != nil {
		return nil, err
	}
	var out model.Listing
	if err := c.do(ctx, http.MethodPut, "/api/listings/"+id, nil, b, authRequired, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteListing removes a listing. Only the owner may delete; the server
// answers 403 otherwise. Callers are expected to confirm with the user
// before invoking this.
func (c *Client) DeleteListing(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/listings/"+id, nil, nil, authRequired, nil)
}

// MessageSeller sends a message to a listing's seller.
func (c *Client) MessageSeller(ctx context.Context, listingID, content string) error {
	if content == "" {
		return fmt.Errorf("message cannot be empty")
	}
	b, err := jsonBody(map[string]string{"content": content})
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/api/listings/"+listingID+"/message", nil, b, authRequired, nil)
}

// listingForm builds the multipart body for a listing draft.
func listingForm(d ListingDraft) (*body, error) {
	fields := [][2]string{
		{"title", d.Title},
		{"location", d.Location},
		{"category", d.Category},
		{"description", d.Description},
		{"price", d.Price},
	}
	return multipartForm(fields, "images", d.Images)
}
