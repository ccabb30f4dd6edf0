package filestore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateKey(t *testing.T) {
	assert.NoError(t, ValidateKey("eminescu/works/poezii.txt"))
	assert.NoError(t, ValidateKey("file.txt"))
	assert.Error(t, ValidateKey(""))
	assert.Error(t, ValidateKey("/etc/passwd"))
	assert.Error(t, ValidateKey("../secret"))
	assert.Error(t, ValidateKey("a/../b"))
	assert.Error(t, ValidateKey("a//b"))
	assert.Error(t, ValidateKey("a\\b"))
}

func TestLocalStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := createLocalStore(map[string]interface{}{"dir": dir})
	require.NoError(t, err)

	src := filepath.Join(dir, "src.txt")
	require.NoError(t, os.WriteFile(src, []byte("continut"), 0o644))
	f, err := os.Open(src)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, store.Save(context.Background(), "cioran/works/amurg.txt", f, 8))

	r, err := store.Open(context.Background(), "cioran/works/amurg.txt")
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "continut", string(data))
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store := &localStore{dir: t.TempDir()}
	_, err := store.Open(context.Background(), "../outside.txt")
	assert.Error(t, err)
}
