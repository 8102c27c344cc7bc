package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/vetsearch/internal/db/badger"
	"github.com/kailas-cloud/vetsearch/internal/domain"
	dom "github.com/kailas-cloud/vetsearch/internal/domain/search/history"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/result"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	b, err := badger.Open(badger.Config{InMemory: true}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return New(b, time.Hour)
}

func record(t *testing.T, query string) *dom.Record {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return &dom.Record{
		ID:        id.String(),
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		Query:     query,
		Filters:   map[string]string{"strand": "Surgery"},
		TopK:      2,
		Results: map[string][]dom.Hit{
			"lexical": {{ID: "d1", Score: 3.5, Contents: "c", Metadata: result.Metadata{CourseID: "VET101"}}},
			"dense_vector": {},
		},
		Errors: map[string]string{"dense_vector": "timeout"},
	}
}

func TestSaveGet_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	rec := record(t, "fracture")

	require.NoError(t, repo.Save(context.Background(), rec))

	got, err := repo.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Query, got.Query)
	assert.Equal(t, rec.TopK, got.TopK)
	assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, "VET101", got.Results["lexical"][0].Metadata.CourseID)
	assert.Empty(t, got.Results["dense_vector"])
	assert.Equal(t, "timeout", got.Errors["dense_vector"])
}

func TestGet_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestSave_RequiresID(t *testing.T) {
	repo := newTestRepo(t)
	assert.Error(t, repo.Save(context.Background(), &dom.Record{}))
}

func TestRecent_NewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	for i := range 5 {
		require.NoError(t, repo.Save(context.Background(), record(t, fmt.Sprintf("q%d", i))))
		time.Sleep(2 * time.Millisecond) // v7 ids are ordered by millisecond
	}

	recs, err := repo.Recent(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "q4", recs[0].Query)
	assert.Equal(t, "q3", recs[1].Query)
	assert.Equal(t, "q2", recs[2].Query)
}

func TestRecent_Empty(t *testing.T) {
	repo := newTestRepo(t)
	recs, err := repo.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRecent_CanceledContext(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.Save(context.Background(), record(t, "q")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := repo.Recent(ctx, 10)
	assert.ErrorIs(t, err, context.Canceled)
}
