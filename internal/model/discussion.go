package model

import "time"

// DiscussionPost represents a community discussion post.
type DiscussionPost struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	Author    Author    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}
