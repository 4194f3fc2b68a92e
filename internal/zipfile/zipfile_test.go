package zipfile

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestZip creates a zip at dir/name with the given entries.
func writeTestZip(t *testing.T, dir, name string, entries map[string][]byte) string {
	t.Helper()

	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for entryName, data := range entries {
		ew, err := w.Create(entryName)
		require.NoError(t, err)
		_, err = ew.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return p
}

func TestImageEntriesNaturalOrder(t *testing.T) {
	p := writeTestZip(t, t.TempDir(), "a.zip", map[string][]byte{
		"page10.jpg": []byte("j"),
		"page1.jpg":  []byte("a"),
		"page9.jpg":  []byte("i"),
		"info.json":  []byte("{}"),
	})

	r, err := Open(p)
	require.NoError(t, err)
	defer r.Close()

	entries := r.ImageEntries()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"page1.jpg", "page9.jpg", "page10.jpg"}, names)
}

func TestReadEntry(t *testing.T) {
	p := writeTestZip(t, t.TempDir(), "a.zip", map[string][]byte{
		"page1.jpg": []byte("hello"),
	})

	r, err := Open(p)
	require.NoError(t, err)
	defer r.Close()

	e, ok := r.FindEntry("page1.jpg")
	require.True(t, ok)

	data, err := r.ReadEntry(e.Index)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	_, err = r.ReadEntry(99)
	assert.Error(t, err)
}

func TestFindEntryBaseName(t *testing.T) {
	p := writeTestZip(t, t.TempDir(), "a.zip", map[string][]byte{
		"nested/dir/page1.jpg": []byte("x"),
	})

	r, err := Open(p)
	require.NoError(t, err)
	defer r.Close()

	e, ok := r.FindEntry("page1.jpg")
	require.True(t, ok)
	assert.Equal(t, "nested/dir/page1.jpg", e.Name)

	_, ok = r.FindEntry("missing.jpg")
	assert.False(t, ok)
}

func TestIsImage(t *testing.T) {
	assert.True(t, IsImage("a/b/page1.JPG"))
	assert.True(t, IsImage("cover.webp"))
	assert.False(t, IsImage("info.json"))
	assert.False(t, IsImage("readme"))
}
