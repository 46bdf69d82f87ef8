package model

// CommunityStats holds the aggregate counters shown on community pages.
type CommunityStats struct {
	TotalUsers       int `json:"totalUsers"`
	TotalDiscussions int `json:"totalDiscussions"`
}
