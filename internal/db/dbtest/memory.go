// Package dbtest provides an in-memory stand-in for the video store.
package dbtest

import (
	"context"
	"errors"
	"sync"

	"thirdcoast.systems/ytingest/internal/db"
)

// ErrInjected is returned by the store when a failure hook fires without
// supplying its own error.
var ErrInjected = errors.New("dbtest: injected failure")

// MemoryStore mimics the transactional semantics of db.DatabaseConnection:
// writes made inside InTx become visible only when the callback succeeds.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[string]db.Video
	order  []string

	// FailUpsert, when set, is consulted before every upsert. A non-nil
	// return aborts the transaction with that error.
	FailUpsert func(arg *db.UpsertVideoParams) error
	// FailCommit aborts every transaction at commit time.
	FailCommit bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: map[string]db.Video{}}
}

func (m *MemoryStore) InTx(ctx context.Context, fn func(db.Querier) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{
		store:  m,
		nextID: m.nextID,
		rows:   make(map[string]db.Video, len(m.rows)),
		order:  append([]string(nil), m.order...),
	}
	for k, v := range m.rows {
		tx.rows[k] = v
	}

	if err := fn(tx); err != nil {
		return err
	}
	if m.FailCommit {
		return ErrInjected
	}

	m.nextID = tx.nextID
	m.rows = tx.rows
	m.order = tx.order
	return nil
}

func (m *MemoryStore) ListVideos(ctx context.Context, arg *db.ListVideosParams) ([]*db.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return list(m.rows, m.order, arg), nil
}

// Get returns the committed row for videoID.
func (m *MemoryStore) Get(videoID string) (db.Video, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.rows[videoID]
	return v, ok
}

// Len returns the number of committed rows.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memoryTx struct {
	store  *MemoryStore
	nextID int64
	rows   map[string]db.Video
	order  []string
}

func (t *memoryTx) UpsertVideo(ctx context.Context, arg *db.UpsertVideoParams) (*db.Video, error) {
	if hook := t.store.FailUpsert; hook != nil {
		if err := hook(arg); err != nil {
			return nil, err
		}
	}

	v, ok := t.rows[arg.VideoID]
	if !ok {
		t.nextID++
		v = db.Video{ID: t.nextID, VideoID: arg.VideoID}
		t.order = append(t.order, arg.VideoID)
	}
	v.Title = arg.Title
	v.Description = arg.Description
	v.PublishedAt = arg.PublishedAt
	v.ViewCount = arg.ViewCount
	v.LikeCount = arg.LikeCount
	v.ProcessedAt = arg.ProcessedAt
	t.rows[arg.VideoID] = v

	out := v
	return &out, nil
}

func (t *memoryTx) ListVideos(ctx context.Context, arg *db.ListVideosParams) ([]*db.Video, error) {
	return list(t.rows, t.order, arg), nil
}

func list(rows map[string]db.Video, order []string, arg *db.ListVideosParams) []*db.Video {
	out := []*db.Video{}
	for _, id := range order {
		v := rows[id]
		if v.ViewCount < arg.MinViews {
			continue
		}
		if arg.MinLikes > 0 && v.LikeCount < arg.MinLikes {
			continue
		}
		out = append(out, &v)
	}
	return out
}
