package models

import (
	"time"
)

// Link maps a short code to its target URL. The owner never changes after
// creation.
type Link struct {
	ID        string    `json:"id"`
	ShortCode string    `json:"short_code"`
	LongURL   string    `json:"long_url"`
	UserID    string    `json:"user_id"`
	Clicks    int64     `json:"clicks"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ShortenInput struct {
	LongURL string `json:"long_url" binding:"required,url"`
}

type UpdateLinkInput struct {
	LongURL string `json:"long_url" binding:"required,url"`
}

// LinkStats is the read-only projection returned by the stats endpoint.
type LinkStats struct {
	ShortCode string    `json:"short_code"`
	LongURL   string    `json:"long_url"`
	Clicks    int64     `json:"clicks"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
