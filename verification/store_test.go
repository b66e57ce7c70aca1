package verification

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/senticord/senticord/common/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testDBOnce sync.Once
	testDB     *sql.DB
	testDBErr  error
)

// pqStore returns a store backed by the test database, skipping the test
// when no database is reachable so the in-memory suite still runs everywhere.
func pqStore(t *testing.T) *PQPendingStore {
	t.Helper()

	testDBOnce.Do(func() {
		testDB, testDBErr = testutils.InitPQ([]string{"verification_pending_users"}, DBSchemas)
	})

	if testDBErr != nil {
		t.Skip("skipping postgres store tests, no test database: ", testDBErr)
	}

	testutils.ClearTables(testDB, "verification_pending_users")
	return &PQPendingStore{DB: testDB}
}

func TestPQStoreCreateGet(t *testing.T) {
	store := pqStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "member1", "guild1", "AB12CD"))

	rec, err := store.Get(ctx, "member1")
	require.NoError(t, err)
	assert.Equal(t, "member1", rec.MemberID)
	assert.Equal(t, "guild1", rec.GuildID)
	assert.Equal(t, "AB12CD", rec.Code)
	assert.Equal(t, 0, rec.Attempts)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestPQStoreGetMissing(t *testing.T) {
	store := pqStore(t)

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPQStoreCreateReplaces(t *testing.T) {
	store := pqStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "member1", "guild1", "AB12CD"))

	_, err := store.IncrementAttempts(ctx, "member1")
	require.NoError(t, err)

	// re-creating resets the counter and the code
	require.NoError(t, store.Create(ctx, "member1", "guild2", "EF34GH"))

	rec, err := store.Get(ctx, "member1")
	require.NoError(t, err)
	assert.Equal(t, "guild2", rec.GuildID)
	assert.Equal(t, "EF34GH", rec.Code)
	assert.Equal(t, 0, rec.Attempts)
}

func TestPQStoreIncrementAttempts(t *testing.T) {
	store := pqStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "member1", "guild1", "AB12CD"))

	n, err := store.IncrementAttempts(ctx, "member1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = store.IncrementAttempts(ctx, "member1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPQStoreIncrementMissing(t *testing.T) {
	store := pqStore(t)

	_, err := store.IncrementAttempts(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPQStoreDeleteIdempotent(t *testing.T) {
	store := pqStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "member1", "guild1", "AB12CD"))

	require.NoError(t, store.Delete(ctx, "member1"))

	_, err := store.Get(ctx, "member1")
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting again is a no-op
	require.NoError(t, store.Delete(ctx, "member1"))
}
