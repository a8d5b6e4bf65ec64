package models

import (
	"time"
)

// Document is one node of the keyed store. Path is the full slash-separated
// address; Parent and Segment split it so children can be listed by index.
type Document struct {
	Path      string    `gorm:"primaryKey"`
	Parent    string    `gorm:"not null;index"`
	Segment   string    `gorm:"not null;index"`
	Value     string    `gorm:"type:text;not null"` // JSON
	UpdatedAt time.Time
}
