package storage

import (
	"os"
	"path/filepath"
	"testing"

	"prop-backend/src/logger"
	"prop-backend/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, dbType, fileName string) *models.MConfig {
	t.Helper()
	return &models.MConfig{
		Name:     "test",
		LogLevel: "ERROR",
		Storage: models.MStorageConfig{
			DBType: dbType,
			DBPath: filepath.Join(t.TempDir(), fileName),
		},
	}
}

func sampleSnapshot() *models.MStateSnapshot {
	return &models.MStateSnapshot{
		Users: map[string]string{
			"admin": "admin123",
			"alice": "alicepw",
		},
		Accounts: map[string]models.MAccount{
			"alice": {DisplayName: "Alice A", LoginMT: "123"},
			"bob":   {DisplayName: "Bob", LoginMT: ""},
		},
	}
}

// -----------------------------------------------------------------------------

func TestJSONStoreRoundTrip(t *testing.T) {
	cfg := testConfig(t, "json", "state.json")
	store, err := NewJSONSnapshotStore(cfg, logger.NewLogger(cfg, "test"))
	require.NoError(t, err)
	require.NoError(t, store.Initialize())

	want := sampleSnapshot()
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.Users, got.Users)
	assert.Equal(t, want.Accounts, got.Accounts)
}

func TestJSONStoreMissingFile(t *testing.T) {
	cfg := testConfig(t, "json", "absent.json")
	store, err := NewJSONSnapshotStore(cfg, logger.NewLogger(cfg, "test"))
	require.NoError(t, err)

	got, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestJSONStoreMalformedFile(t *testing.T) {
	cfg := testConfig(t, "json", "broken.json")
	store, err := NewJSONSnapshotStore(cfg, logger.NewLogger(cfg, "test"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.Path, []byte("{not json"), 0644))

	_, err = store.Load()
	assert.Error(t, err)
}

func TestJSONStoreSaveOverwritesWholesale(t *testing.T) {
	cfg := testConfig(t, "json", "state.json")
	store, err := NewJSONSnapshotStore(cfg, logger.NewLogger(cfg, "test"))
	require.NoError(t, err)

	require.NoError(t, store.Save(sampleSnapshot()))

	smaller := &models.MStateSnapshot{
		Users:    map[string]string{"admin": "admin123"},
		Accounts: map[string]models.MAccount{},
	}
	require.NoError(t, store.Save(smaller))

	got, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, smaller.Users, got.Users)
	assert.Empty(t, got.Accounts, "prior content is not merged on disk")
}
