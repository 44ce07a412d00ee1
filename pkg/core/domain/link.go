package domain

import "time"

// Link represents a shortened URL and its click counters
type Link struct {
	ID          int64      `json:"-"`
	Code        string     `json:"code"`
	TargetURL   string     `json:"target_url"`
	Clicks      int64      `json:"clicks"`
	LastClicked *time.Time `json:"last_clicked"` // nil until the first redirect
	CreatedAt   time.Time  `json:"created_at"`
}
