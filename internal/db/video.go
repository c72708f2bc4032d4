package db

import (
	"context"
	"time"
)

const upsertVideo = `-- name: UpsertVideo :one
INSERT INTO video (
    video_id,
    title,
    description,
    published_at,
    view_count,
    like_count,
    processed_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (video_id) DO UPDATE
SET
    title = EXCLUDED.title,
    description = EXCLUDED.description,
    published_at = EXCLUDED.published_at,
    view_count = EXCLUDED.view_count,
    like_count = EXCLUDED.like_count,
    processed_at = EXCLUDED.processed_at
RETURNING id, video_id, title, description, published_at, view_count, like_count, processed_at
`

type UpsertVideoParams struct {
	VideoID     string
	Title       string
	Description *string
	PublishedAt time.Time
	ViewCount   int64
	LikeCount   int64
	ProcessedAt time.Time
}

// UpsertVideo inserts a video or, when video_id already exists, overwrites
// every column except id and video_id in the same statement.
func (q *Queries) UpsertVideo(ctx context.Context, arg *UpsertVideoParams) (*Video, error) {
	row := q.db.QueryRow(ctx, upsertVideo,
		arg.VideoID,
		arg.Title,
		arg.Description,
		arg.PublishedAt,
		arg.ViewCount,
		arg.LikeCount,
		arg.ProcessedAt,
	)
	var i Video
	err := row.Scan(
		&i.ID,
		&i.VideoID,
		&i.Title,
		&i.Description,
		&i.PublishedAt,
		&i.ViewCount,
		&i.LikeCount,
		&i.ProcessedAt,
	)
	return &i, err
}

const listVideos = `-- name: ListVideos :many
SELECT id, video_id, title, description, published_at, view_count, like_count, processed_at
FROM video
WHERE view_count >= $1
  AND ($2::bigint <= 0 OR like_count >= $2::bigint)
`

type ListVideosParams struct {
	MinViews int64
	MinLikes int64
}

// ListVideos returns videos with at least MinViews views and, when MinLikes
// is positive, at least MinLikes likes. Rows come back in store order.
func (q *Queries) ListVideos(ctx context.Context, arg *ListVideosParams) ([]*Video, error) {
	rows, err := q.db.Query(ctx, listVideos, arg.MinViews, arg.MinLikes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []*Video{}
	for rows.Next() {
		var i Video
		if err := rows.Scan(
			&i.ID,
			&i.VideoID,
			&i.Title,
			&i.Description,
			&i.PublishedAt,
			&i.ViewCount,
			&i.LikeCount,
			&i.ProcessedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, &i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
