package youtube

import (
	"iter"
	"log/slog"
	"math/rand/v2"

	"thirdcoast.systems/ytingest/internal/db"
	"thirdcoast.systems/ytingest/pkg/utils/format"
)

const (
	MaxTitleLength = 255

	MinPlaceholderViews = 100
	MaxPlaceholderViews = 10_000
	MinPlaceholderLikes = 0
	MaxPlaceholderLikes = 1_000
)

// Placeholders supplies view and like counts for records the search endpoint
// carries no statistics for.
type Placeholders func() (views, likes int64)

// RandomPlaceholders draws from r, or from the global source when r is nil.
// Both bounds are inclusive.
func RandomPlaceholders(r *rand.Rand) Placeholders {
	intN := rand.Int64N
	if r != nil {
		intN = r.Int64N
	}
	return func() (int64, int64) {
		views := MinPlaceholderViews + intN(MaxPlaceholderViews-MinPlaceholderViews+1)
		likes := MinPlaceholderLikes + intN(MaxPlaceholderLikes-MinPlaceholderLikes+1)
		return views, likes
	}
}

// Normalize turns search items into upsert parameters, lazily and in order.
// Items without a video id or publish time are dropped; an unparsable publish
// time is logged and dropped. ProcessedAt is left for the writer to stamp.
func Normalize(items []SearchItem, metrics Placeholders) iter.Seq[db.UpsertVideoParams] {
	if metrics == nil {
		metrics = RandomPlaceholders(nil)
	}
	return func(yield func(db.UpsertVideoParams) bool) {
		for _, item := range items {
			params, ok := normalizeItem(item, metrics)
			if !ok {
				continue
			}
			if !yield(params) {
				return
			}
		}
	}
}

func normalizeItem(item SearchItem, metrics Placeholders) (db.UpsertVideoParams, bool) {
	videoID := item.ID.VideoID
	raw := item.Snippet.PublishedAt
	if videoID == "" || raw == "" {
		return db.UpsertVideoParams{}, false
	}

	publishedAt, err := format.ParseNaive(raw)
	if err != nil {
		slog.Warn("failed to parse publishedAt", "video_id", videoID, "value", raw, "error", err)
		return db.UpsertVideoParams{}, false
	}

	description := ""
	if item.Snippet.Description != nil {
		description = *item.Snippet.Description
	}

	views, likes := metrics()
	return db.UpsertVideoParams{
		VideoID:     videoID,
		Title:       format.TruncateRunes(item.Snippet.Title, MaxTitleLength),
		Description: &description,
		PublishedAt: publishedAt,
		ViewCount:   views,
		LikeCount:   likes,
	}, true
}
