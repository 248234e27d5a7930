package matching

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mye-app/mye-backend/internal/logger"
	"github.com/mye-app/mye-backend/internal/testutil"
)

func TestPostgresStore(t *testing.T) {
	db := testutil.StartPostgres(t)
	store := NewPostgresStore(db)
	sm := NewStateMachine(store, NewLocalLocker(), 3, logger.Discard())
	ctx := context.Background()

	a := testutil.SeedUser(t, db, "ama")
	b := testutil.SeedUser(t, db, "kofi")
	c := testutil.SeedUser(t, db, "yao")

	rec, err := store.Get(ctx, NewPairKey(a, b))
	require.NoError(t, err)
	assert.Nil(t, rec)

	dist, score := 123.4, 65
	tr, err := sm.RecordAction(ctx, b, a, ActionLike, &Snapshot{Distance: &dist, Score: &score})
	require.NoError(t, err)
	assert.True(t, tr.Created)
	assert.Equal(t, b, tr.Record.User1ID)
	assert.Equal(t, int64(1), tr.Record.Version)

	tr, err = sm.RecordAction(ctx, a, b, ActionLike, nil)
	require.NoError(t, err)
	assert.True(t, tr.BecameMutual)
	assert.Equal(t, int64(2), tr.Record.Version)

	rec, err = store.Get(ctx, NewPairKey(b, a))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.IsMutual)
	assert.NotNil(t, rec.MatchedAt)
	assert.Equal(t, ActionLike, rec.User1Action)
	assert.Equal(t, ActionLike, rec.User2Action)
	require.NotNil(t, rec.Distance)
	assert.InDelta(t, 123.4, *rec.Distance, 1e-9)
	require.NotNil(t, rec.CompatibilityScore)
	assert.Equal(t, 65, *rec.CompatibilityScore)

	_, err = sm.RecordAction(ctx, a, c, ActionPass, nil)
	require.NoError(t, err)

	records, err := store.ListForUser(ctx, a, []int64{b, c, 999999})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, ActionPass, records[c].ActionOf(a))
	assert.True(t, records[b].IsMutual)

	mutual, err := store.ListMutual(ctx, a)
	require.NoError(t, err)
	require.Len(t, mutual, 1)
	assert.Equal(t, b, mutual[0].OtherUser(a))

	_, err = sm.RecordAction(ctx, a, 999999, ActionPass, nil)
	assert.ErrorIs(t, err, ErrTargetNotFound)
}

func TestPostgresStoreConcurrentFirstActions(t *testing.T) {
	db := testutil.StartPostgres(t)
	store := NewPostgresStore(db)
	ctx := context.Background()

	a := testutil.SeedUser(t, db, "esi")
	b := testutil.SeedUser(t, db, "kwame")

	// Separate lockers so the two writers only meet in the database.
	machines := []*StateMachine{
		NewStateMachine(store, NewLocalLocker(), 5, logger.Discard()),
		NewStateMachine(store, NewLocalLocker(), 5, logger.Discard()),
	}

	var wg sync.WaitGroup
	for i, pair := range [][2]int64{{a, b}, {b, a}} {
		wg.Add(1)
		go func(sm *StateMachine, actor, target int64) {
			defer wg.Done()
			_, err := sm.RecordAction(ctx, actor, target, ActionLike, nil)
			assert.NoError(t, err)
		}(machines[i], pair[0], pair[1])
	}
	wg.Wait()

	var count int
	require.NoError(t, db.GetContext(ctx, &count, `SELECT COUNT(*) FROM matches`))
	assert.Equal(t, 1, count)

	rec, err := store.Get(ctx, NewPairKey(a, b))
	require.NoError(t, err)
	assert.True(t, rec.IsMutual)
	assert.NotNil(t, rec.MatchedAt)
}
