package matching

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreDetectsConcurrentCreate(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := NewPairKey(1, 2)

	_, err := store.Update(ctx, key, func(cur *MatchRecord) (*MatchRecord, error) {
		require.Nil(t, cur)

		// Another writer creates the record while this one is computing.
		_, err := store.Update(ctx, key, func(*MatchRecord) (*MatchRecord, error) {
			return &MatchRecord{User1ID: 2, User2ID: 1, User1Action: ActionLike, User2Action: ActionNone}, nil
		})
		require.NoError(t, err)

		return &MatchRecord{User1ID: 1, User2ID: 2, User1Action: ActionPass, User2Action: ActionNone}, nil
	})
	assert.ErrorIs(t, err, ErrPersistenceConflict)

	rec, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.User1ID)
	assert.Equal(t, 1, store.Count())
}

func TestMemoryStoreVersions(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := NewPairKey(1, 2)

	rec, err := store.Update(ctx, key, func(*MatchRecord) (*MatchRecord, error) {
		return &MatchRecord{User1ID: 1, User2ID: 2, User1Action: ActionLike, User2Action: ActionNone}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Version)
	assert.NotZero(t, rec.ID)

	rec2, err := store.Update(ctx, key, func(cur *MatchRecord) (*MatchRecord, error) {
		cur.setAction(2, ActionPass)
		return cur, nil
	})
	require.NoError(t, err)
	assert.Equal(t, rec.ID, rec2.ID)
	assert.Equal(t, int64(2), rec2.Version)
	assert.Equal(t, ActionPass, rec2.User2Action)
}

func TestSortByMatchedAt(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	records := []*MatchRecord{
		{ID: 1, MatchedAt: &t0},
		{ID: 2},
		{ID: 3, MatchedAt: &t1},
		{ID: 4, MatchedAt: &t0},
	}
	sortByMatchedAt(records)

	ids := make([]int64, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	assert.Equal(t, []int64{3, 4, 1, 2}, ids)
}
