package storage

import (
	"testing"

	"prop-backend/src/logger"
	"prop-backend/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *SQLiteSnapshotStore {
	t.Helper()
	cfg := testConfig(t, "sqlite", "state.db")
	store, err := NewSQLiteSnapshotStore(cfg, logger.NewLogger(cfg, "test"))
	require.NoError(t, err)
	require.NoError(t, store.Initialize())
	t.Cleanup(func() { store.Close() })
	return store
}

// -----------------------------------------------------------------------------

func TestSQLiteStoreEmpty(t *testing.T) {
	store := newSQLiteStore(t)

	got, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, got, "fresh database holds no snapshot")
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newSQLiteStore(t)

	want := sampleSnapshot()
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.Users, got.Users)
	assert.Equal(t, want.Accounts, got.Accounts)
}

func TestSQLiteStoreSaveReplacesRows(t *testing.T) {
	store := newSQLiteStore(t)

	require.NoError(t, store.Save(sampleSnapshot()))

	smaller := &models.MStateSnapshot{
		Users:    map[string]string{"admin": "rotated"},
		Accounts: map[string]models.MAccount{"alice": {DisplayName: "Alice A", LoginMT: "321"}},
	}
	require.NoError(t, store.Save(smaller))

	got, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, smaller.Users, got.Users)
	assert.Equal(t, smaller.Accounts, got.Accounts)
}
