package objectstore_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"civiceye/backend/internal/objectstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvidencePath(t *testing.T) {
	assert.Equal(t, "CIV-AB12CD/f00d.png", objectstore.EvidencePath("CIV-AB12CD", "f00d", "png"))
	assert.Equal(t, "ANON-XYZ123/beef.pdf", objectstore.EvidencePath("ANON-XYZ123", "beef", ".pdf"))
}

func TestPathFromURL(t *testing.T) {
	p, ok := objectstore.PathFromURL("http://host/evidence/", "http://host/evidence/CIV-1/a.png")
	assert.True(t, ok)
	assert.Equal(t, "CIV-1/a.png", p)

	_, ok = objectstore.PathFromURL("http://host/evidence", "http://other/CIV-1/a.png")
	assert.False(t, ok)
}

func TestDiskStore_UploadAndDelete(t *testing.T) {
	root := t.TempDir()
	store, err := objectstore.NewDiskStore(root, "http://localhost:8080/evidence/")
	require.NoError(t, err)

	url, err := store.Upload(context.Background(), "CIV-ABC123/one.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/evidence/CIV-ABC123/one.png", url)

	data, err := os.ReadFile(filepath.Join(root, "CIV-ABC123", "one.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.Delete(context.Background(), "CIV-ABC123/one.png"))
	_, err = os.Stat(filepath.Join(root, "CIV-ABC123", "one.png"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(context.Background(), "CIV-ABC123/one.png"), "deleting twice is not an error")
}

func TestDiskStore_RejectsTraversal(t *testing.T) {
	store, err := objectstore.NewDiskStore(t.TempDir(), "http://localhost/evidence")
	require.NoError(t, err)

	_, err = store.Upload(context.Background(), "../escape.png", "image/png", strings.NewReader("x"))
	assert.Error(t, err)
}
