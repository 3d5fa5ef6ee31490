package models

import "time"

type Post struct {
	ID          string     `json:"id"`
	AuthorID    string     `json:"author_id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Body        string     `json:"body"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsPublished reports whether the post is visible to unauthenticated readers.
func (p Post) IsPublished() bool {
	return p.PublishedAt != nil && !p.PublishedAt.After(time.Now())
}
