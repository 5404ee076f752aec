package credentials_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/facilitycare/client-go/credentials"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := credentials.NewMemoryStore()
	require.Empty(t, store.Access())
	require.Empty(t, store.Refresh())

	store.Save("access-1", "refresh-1")
	require.Equal(t, "access-1", store.Access())
	require.Equal(t, "refresh-1", store.Refresh())

	store.Clear()
	require.Empty(t, store.Access())
	require.Empty(t, store.Refresh())
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")

	store := credentials.NewFileStore(path)
	store.Save("access-1", "refresh-1")

	reloaded := credentials.NewFileStore(path)
	require.Equal(t, "access-1", reloaded.Access())
	require.Equal(t, "refresh-1", reloaded.Refresh())
}

func TestFileStoreClearRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")

	store := credentials.NewFileStore(path)
	store.Save("access-1", "refresh-1")
	store.Clear()

	require.Empty(t, store.Access())
	require.Empty(t, store.Refresh())
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))

	reloaded := credentials.NewFileStore(path)
	require.Empty(t, reloaded.Access())
}

func TestFileStoreIgnoresPartialPair(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"access": "only-access"}`), 0o600))

	store := credentials.NewFileStore(path)
	require.Empty(t, store.Access())
	require.Empty(t, store.Refresh())
}

func TestFileStoreIgnoresCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	store := credentials.NewFileStore(path)
	require.Empty(t, store.Access())
}

// A store with nowhere to persist must still work for the process lifetime,
// never error and never panic.
func TestFileStoreDegradesToMemoryWhenStorageUnavailable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))
	// A path whose parent is a regular file cannot be created.
	path := filepath.Join(blocker, "nested", "credentials.json")

	store := credentials.NewFileStore(path)
	store.Save("access-1", "refresh-1")
	require.Equal(t, "access-1", store.Access())
	require.Equal(t, "refresh-1", store.Refresh())

	store.Clear()
	require.Empty(t, store.Access())
}

func TestFileStoreEmptyPathIsMemoryOnly(t *testing.T) {
	store := credentials.NewFileStore("")
	store.Save("access-1", "refresh-1")
	require.Equal(t, "access-1", store.Access())
	store.Clear()
	require.Empty(t, store.Refresh())
}
