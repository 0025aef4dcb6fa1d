package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, storage.Store("report.json", []byte(`{"ok":true}`)))

	data, err := storage.Retrieve("report.json")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(data))

	require.NoError(t, storage.Delete("report.json"))
	_, err = storage.Retrieve("report.json")
	assert.Error(t, err)
}

func TestLocalStorage_List(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, storage.Store("review-comments-1.csv", []byte("a")))
	require.NoError(t, storage.Store("review-comments-2.csv", []byte("b")))
	require.NoError(t, storage.Store("settings.json", []byte("{}")))

	names, err := storage.List("review-comments-")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"review-comments-1.csv", "review-comments-2.csv"}, names)
}

func TestLocalStorage_ConfinesTraversal(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewLocalStorage(dir)
	require.NoError(t, err)

	// Path traversal in a filename is flattened into the base directory.
	require.NoError(t, storage.Store("../../escape.txt", []byte("contained")))

	names, err := storage.List("escape")
	require.NoError(t, err)
	assert.Equal(t, []string{"escape.txt"}, names)

	assert.NoFileExists(t, dir+"/../escape.txt")
}

func TestLocalStorage_RejectsEmptyFilename(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	err = storage.Store("", []byte("nope"))
	assert.Error(t, err)
}

func TestLocalStorage_RequiresBasePath(t *testing.T) {
	_, err := NewLocalStorage("")
	assert.Error(t, err)
}
