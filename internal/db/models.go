package db

import (
	"time"
)

// Video is a row of the video table. PublishedAt and ProcessedAt are naive
// timestamps: their wall clock is the stored value and the location is UTC.
type Video struct {
	ID          int64
	VideoID     string
	Title       string
	Description *string
	PublishedAt time.Time
	ViewCount   int64
	LikeCount   int64
	ProcessedAt time.Time
}
