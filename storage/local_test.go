package storage

import (
	"bytes"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeUpload(t *testing.T, name, content string) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("photo", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	form, err := multipart.NewReader(&buf, mw.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["photo"][0]
}

func TestLocalStorageStoreAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir, "/static/storage/")
	require.NoError(t, err)

	url, err := store.Store("posts", fakeUpload(t, "Holiday.JPG", "image bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/static/storage/posts/"))
	assert.True(t, strings.HasSuffix(url, ".jpg"))

	rel := strings.TrimPrefix(url, "/static/storage/")
	onDisk := filepath.Join(dir, rel)
	b, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	assert.Equal(t, "image bytes", string(b))

	require.NoError(t, store.Delete(url))
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStorageDeleteIgnoresForeignURLs(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "/static/storage")
	require.NoError(t, err)

	assert.NoError(t, store.Delete("https://cdn.example.com/image.jpg"))
	assert.NoError(t, store.Delete("/static/storage/posts/never-existed.jpg"))
}

func TestLocalStorageDeleteRefusesTraversal(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(filepath.Join(dir, "blobs"), "/static/storage")
	require.NoError(t, err)

	secret := filepath.Join(dir, "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("keep"), 0o644))

	require.NoError(t, store.Delete("/static/storage/../secret.txt"))

	_, err = os.Stat(secret)
	assert.NoError(t, err)
}

func TestLocalStorageUniqueNames(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "/static/storage")
	require.NoError(t, err)

	first, err := store.Store("posts", fakeUpload(t, "same.png", "a"))
	require.NoError(t, err)
	second, err := store.Store("posts", fakeUpload(t, "same.png", "b"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
