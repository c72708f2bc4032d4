// Package ingest drives video ingestion: the on-demand channel fetch, the
// signed webhook and the filtered read, all funnelled through one upsert.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"thirdcoast.systems/ytingest/internal/db"
	"thirdcoast.systems/ytingest/internal/signature"
	"thirdcoast.systems/ytingest/internal/youtube"
	"thirdcoast.systems/ytingest/pkg/utils/format"
)

const DefaultMaxResults = 10

// Store runs work inside a transaction and serves the read path.
// *db.DatabaseConnection satisfies it.
type Store interface {
	InTx(ctx context.Context, fn func(db.Querier) error) error
	ListVideos(ctx context.Context, arg *db.ListVideosParams) ([]*db.Video, error)
}

// Searcher is the upstream search endpoint. *youtube.Client satisfies it.
type Searcher interface {
	Search(ctx context.Context, params youtube.SearchParams) (*youtube.SearchResponse, error)
}

type Service struct {
	store        Store
	upstream     Searcher
	secret       string
	now          func() time.Time
	placeholders youtube.Placeholders
	validate     *validator.Validate
}

type Option func(*Service)

// WithClock overrides the clock used to stamp processed_at.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPlaceholders overrides the source of fetched view and like counts.
func WithPlaceholders(p youtube.Placeholders) Option {
	return func(s *Service) { s.placeholders = p }
}

func NewService(store Store, upstream Searcher, secret string, opts ...Option) *Service {
	s := &Service{
		store:        store,
		upstream:     upstream,
		secret:       secret,
		now:          time.Now,
		placeholders: youtube.RandomPlaceholders(nil),
		validate:     newValidator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upsert writes one video in its own transaction, stamping processed_at with
// the current UTC wall clock. Any failure rolls back and is returned as a
// *PersistenceError.
func (s *Service) Upsert(ctx context.Context, params db.UpsertVideoParams) (*db.Video, error) {
	params.ProcessedAt = format.Naive(s.now().UTC()).Truncate(time.Microsecond)

	var out *db.Video
	err := s.store.InTx(ctx, func(q db.Querier) error {
		v, err := q.UpsertVideo(ctx, &params)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		return nil, &PersistenceError{VideoID: params.VideoID, Err: err}
	}
	return out, nil
}

type FetchResult struct {
	Count  int      `json:"count"`
	Videos []string `json:"videos"`
}

// Fetch pulls the latest uploads of a channel and upserts each usable item in
// order. maxResults is passed through; the search endpoint enforces its own
// bounds. An upstream failure aborts before anything is written. The first
// failed upsert aborts the rest; items already written stay committed.
func (s *Service) Fetch(ctx context.Context, channelID string, maxResults int) (*FetchResult, error) {
	if channelID == "" {
		return nil, &ValidationError{Msg: "channel_id: field required"}
	}

	resp, err := s.upstream.Search(ctx, youtube.SearchParams{ChannelID: channelID, MaxResults: maxResults})
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}

	result := &FetchResult{Videos: []string{}}
	for params := range youtube.Normalize(resp.Items, s.placeholders) {
		v, err := s.Upsert(ctx, params)
		if err != nil {
			slog.Error("error ingesting video", "video_id", params.VideoID, "error", err)
			return nil, err
		}
		result.Videos = append(result.Videos, v.VideoID)
	}
	result.Count = len(result.Videos)

	slog.Info("channel fetched", "channel_id", channelID, "count", result.Count)
	return result, nil
}

// Webhook authenticates body against sig before decoding it, then upserts the
// single video it describes with the caller's values.
func (s *Service) Webhook(ctx context.Context, body []byte, sig string) (*db.Video, error) {
	if !signature.Verify(body, sig, s.secret) {
		slog.Warn("invalid webhook signature", "signature", sig)
		return nil, &AuthenticityError{Err: errSignatureMismatch}
	}

	payload, err := DecodeWebhookPayload(s.validate, body)
	if err != nil {
		return nil, err
	}

	v, err := s.Upsert(ctx, payload.Params())
	if err != nil {
		slog.Error("db error on webhook ingest", "video_id", payload.VideoID, "error", err)
		return nil, err
	}

	slog.Info("webhook ingested", "video_id", v.VideoID)
	return v, nil
}

// ListVideos returns videos meeting both thresholds. A like threshold of zero
// disables the like filter.
func (s *Service) ListVideos(ctx context.Context, minViews, minLikes int64) ([]*db.Video, error) {
	if minViews < 0 {
		return nil, &ValidationError{Msg: "min_views: must be >= 0"}
	}
	if minLikes < 0 {
		return nil, &ValidationError{Msg: "min_likes: must be >= 0"}
	}

	videos, err := s.store.ListVideos(ctx, &db.ListVideosParams{MinViews: minViews, MinLikes: minLikes})
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	if videos == nil {
		videos = []*db.Video{}
	}
	return videos, nil
}
