package model

import (
	"net/url"
	"strconv"
)

// Sort orders accepted by the listings endpoint.
const (
	SortNewest    = "newest"
	SortPriceAsc  = "priceAsc"
	SortPriceDesc = "priceDesc"
)

// Query holds the filter/sort/search state for a collection fetch.
// It is a value object: two queries match iff they are structurally equal.
type Query struct {
	Search   string
	Category string
	MinPrice string
	MaxPrice string
	SortBy   string
	Limit    int
}

// Values encodes the query into URL parameters, omitting empty fields.
// url.Values.Encode sorts keys, so structurally equal queries always
// produce the same string.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.MinPrice != "" {
		v.Set("minPrice", q.MinPrice)
	}
	if q.MaxPrice != "" {
		v.Set("maxPrice", q.MaxPrice)
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// Encode returns the canonical query string for the query.
func (q Query) Encode() string {
	return q.Values().Encode()
}
