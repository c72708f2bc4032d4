package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

// Querier is the set of video queries, satisfied by *Queries.
type Querier interface {
	UpsertVideo(ctx context.Context, arg *UpsertVideoParams) (*Video, error)
	ListVideos(ctx context.Context, arg *ListVideosParams) ([]*Video, error)
}

var _ Querier = (*Queries)(nil)
