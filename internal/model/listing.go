package model

import "time"

// Listing represents a marketplace listing as returned by the API.
type Listing struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Location    string    `json:"location"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	Price       string    `json:"price,omitempty"`
	Images      []string  `json:"images,omitempty"`
	Seller      Author    `json:"seller"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Author is the embedded owner snapshot on listings and discussion posts.
type Author struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Categories is the fixed set of listing categories accepted by the API.
var Categories = []string{
	"Tractors and Machinery",
	"Fertilizers",
	"Crop Seeds",
	"Irrigation Systems",
	"Veggies",
	"More",
}

// ValidCategory reports whether c is one of the known listing categories.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// FirstImage returns the listing's primary image URL, or "" if it has none.
func (l Listing) FirstImage() string {
	if len(l.Images) == 0 {
		return ""
	}
	return l.Images[0]
}
