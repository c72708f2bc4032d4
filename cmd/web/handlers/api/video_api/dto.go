// package video_api provides video-related API handlers.
package video_api

import (
	"thirdcoast.systems/ytingest/internal/db"
	"thirdcoast.systems/ytingest/pkg/utils/format"
)

// VideoResponse is the wire shape of a stored video.
type VideoResponse struct {
	ID          int64            `json:"id"`
	VideoID     string           `json:"video_id"`
	Title       string           `json:"title"`
	Description *string          `json:"description"`
	PublishedAt format.NaiveTime `json:"published_at"`
	ViewCount   int64            `json:"view_count"`
	LikeCount   int64            `json:"like_count"`
	ProcessedAt format.NaiveTime `json:"processed_at"`
}

func NewVideoResponse(v *db.Video) VideoResponse {
	return VideoResponse{
		ID:          v.ID,
		VideoID:     v.VideoID,
		Title:       v.Title,
		Description: v.Description,
		PublishedAt: format.NaiveTime{Time: v.PublishedAt},
		ViewCount:   v.ViewCount,
		LikeCount:   v.LikeCount,
		ProcessedAt: format.NaiveTime{Time: v.ProcessedAt},
	}
}

func NewVideoResponses(videos []*db.Video) []VideoResponse {
	out := make([]VideoResponse, 0, len(videos))
	for _, v := range videos {
		if v == nil {
			continue
		}
		out = append(out, NewVideoResponse(v))
	}
	return out
}
