package serverconfig

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/senticord/senticord/common"
	"github.com/senticord/senticord/common/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testDBOnce sync.Once
	testDB     *sql.DB
	testDBErr  error
)

func testStore(t *testing.T) *Store {
	t.Helper()

	testDBOnce.Do(func() {
		testDB, testDBErr = testutils.InitPQ([]string{"guild_settings"}, []string{DBSchema})
	})

	if testDBErr != nil {
		t.Skip("skipping guild settings tests, no test database: ", testDBErr)
	}

	testutils.ClearTables(testDB, "guild_settings")
	return &Store{DB: testDB}
}

func TestGetSettingsUnconfiguredGuild(t *testing.T) {
	store := testStore(t)

	settings, err := store.GetSettings(context.Background(), "guild1")
	require.NoError(t, err)
	assert.Equal(t, "guild1", settings.GuildID)
	assert.Empty(t, settings.VerifiedRole)
	assert.Empty(t, settings.LogChannel)
}

func TestSetSettingsInsertsRow(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	err := store.SetSettings(ctx, "guild1", common.NewString("role1"), common.NewString("chan1"))
	require.NoError(t, err)

	settings, err := store.GetSettings(ctx, "guild1")
	require.NoError(t, err)
	assert.Equal(t, "role1", settings.VerifiedRole)
	assert.Equal(t, "chan1", settings.LogChannel)
}

func TestSetSettingsPartialUpdate(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetSettings(ctx, "guild1", common.NewString("role1"), common.NewString("chan1")))

	// a nil field keeps its prior value
	require.NoError(t, store.SetSettings(ctx, "guild1", nil, common.NewString("chan2")))

	settings, err := store.GetSettings(ctx, "guild1")
	require.NoError(t, err)
	assert.Equal(t, "role1", settings.VerifiedRole)
	assert.Equal(t, "chan2", settings.LogChannel)

	require.NoError(t, store.SetSettings(ctx, "guild1", common.NewString("role2"), nil))

	settings, err = store.GetSettings(ctx, "guild1")
	require.NoError(t, err)
	assert.Equal(t, "role2", settings.VerifiedRole)
	assert.Equal(t, "chan2", settings.LogChannel)
}

func TestSetSettingsClearWithEmptyString(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetSettings(ctx, "guild1", common.NewString("role1"), common.NewString("chan1")))

	// an explicit empty string clears the field, unlike nil
	require.NoError(t, store.SetSettings(ctx, "guild1", common.NewString(""), nil))

	settings, err := store.GetSettings(ctx, "guild1")
	require.NoError(t, err)
	assert.Empty(t, settings.VerifiedRole)
	assert.Equal(t, "chan1", settings.LogChannel)
}

func TestSettingsIsolatedPerGuild(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetSettings(ctx, "guild1", common.NewString("role1"), nil))
	require.NoError(t, store.SetSettings(ctx, "guild2", common.NewString("role2"), nil))

	s1, err := store.GetSettings(ctx, "guild1")
	require.NoError(t, err)
	s2, err := store.GetSettings(ctx, "guild2")
	require.NoError(t, err)

	assert.Equal(t, "role1", s1.VerifiedRole)
	assert.Equal(t, "role2", s2.VerifiedRole)
}
