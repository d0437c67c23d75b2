package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ".pdf-suite-elite", "settings.json")
	return NewStore(path, filepath.Join(dir, "Exports"), zerolog.Nop()), dir
}

func TestLoadWritesDefaultsOnFirstRun(t *testing.T) {
	store, dir := newTestStore(t)

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Exports"), got.OutputFolder)
	assert.True(t, got.OpenFolderAfterBatch)
	assert.False(t, got.AppendTimestamp)
	assert.Empty(t, got.RecentFiles)

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"outputFolder\"")
}

func TestMergeRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)

	yes := true
	folder := "/tmp/out"
	_, err := store.Merge(Patch{AppendTimestamp: &yes, OutputFolder: &folder})
	require.NoError(t, err)

	got, err := store.Load()
	require.NoError(t, err)
	assert.True(t, got.AppendTimestamp)
	assert.Equal(t, "/tmp/out", got.OutputFolder)
	assert.True(t, got.OpenFolderAfterBatch, "untouched keys keep their value")
}

func TestMergeNullOutputFolderResetsToDefault(t *testing.T) {
	store, _ := newTestStore(t)

	folder := "/tmp/elsewhere"
	_, err := store.Merge(Patch{OutputFolder: &folder})
	require.NoError(t, err)

	var patch Patch
	require.NoError(t, json.Unmarshal([]byte(`{"outputFolder": null}`), &patch))
	require.NotNil(t, patch.OutputFolder)

	got, err := store.Merge(patch)
	require.NoError(t, err)
	assert.Equal(t, store.Defaults().OutputFolder, got.OutputFolder)
}

func TestPatchAbsentKeysStayNil(t *testing.T) {
	var patch Patch
	require.NoError(t, json.Unmarshal([]byte(`{"appendTimestamp": true}`), &patch))
	assert.Nil(t, patch.OutputFolder)
	assert.Nil(t, patch.RecentFiles)
	require.NotNil(t, patch.AppendTimestamp)
	assert.True(t, *patch.AppendTimestamp)
}

func TestMergeCapsRecentFiles(t *testing.T) {
	store, _ := newTestStore(t)

	var list []string
	for i := 0; i < 12; i++ {
		list = append(list, fmt.Sprintf("/docs/%02d.pdf", i))
	}
	list = append([]string{"/docs/00.pdf"}, list...)

	got, err := store.Merge(Patch{RecentFiles: &list})
	require.NoError(t, err)
	assert.Len(t, got.RecentFiles, MaxRecentFiles)
	assert.Equal(t, "/docs/00.pdf", got.RecentFiles[0])
	assert.Equal(t, "/docs/01.pdf", got.RecentFiles[1])
}

func TestCorruptFileReturnsDefaultsUntouched(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o755))
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0o644))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, store.Defaults(), got)

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data))
}

func TestMissingKeysFilledFromDefaults(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o755))
	require.NoError(t, os.WriteFile(store.Path(), []byte(`{"appendTimestamp": true}`), 0o644))

	got, err := store.Load()
	require.NoError(t, err)
	assert.True(t, got.AppendTimestamp)
	assert.True(t, got.OpenFolderAfterBatch)
	assert.Equal(t, store.Defaults().OutputFolder, got.OutputFolder)
}

func TestResetAndClearRecent(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.AddRecent("/a.pdf")
	require.NoError(t, err)
	got, err := store.AddRecent("/b.pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{"/b.pdf", "/a.pdf"}, got.RecentFiles)

	got, err = store.ClearRecent()
	require.NoError(t, err)
	assert.Empty(t, got.RecentFiles)

	no := false
	_, err = store.Merge(Patch{OpenFolderAfterBatch: &no})
	require.NoError(t, err)
	got, err = store.Reset()
	require.NoError(t, err)
	assert.True(t, got.OpenFolderAfterBatch)
}

func TestAddRecentHelper(t *testing.T) {
	list := []string{"/a", "/b", "/c"}
	assert.Equal(t, []string{"/b", "/a", "/c"}, AddRecent(list, "/b"))
	assert.Equal(t, []string{"/a", "/b", "/c"}, list, "input is not modified")

	var long []string
	for i := 0; i < MaxRecentFiles; i++ {
		long = append(long, fmt.Sprint(i))
	}
	got := AddRecent(long, "new")
	assert.Len(t, got, MaxRecentFiles)
	assert.Equal(t, "new", got[0])
	assert.Equal(t, "8", got[MaxRecentFiles-1])
}
