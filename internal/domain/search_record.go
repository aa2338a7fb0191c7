package domain

import "time"

// SearchRecord is one terminal search outcome persisted for history queries.
type SearchRecord struct {
	ID              uint64    `gorm:"primaryKey" json:"id"`
	Keyword         string    `gorm:"size:255;not null;index" json:"keyword"`
	VideoID         string    `gorm:"size:32" json:"video_id"`
	Outcome         string    `gorm:"size:32;not null;index" json:"outcome"`
	Detail          string    `gorm:"size:512" json:"detail,omitempty"`
	DurationSeconds float64   `gorm:"not null" json:"duration_seconds"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
}
