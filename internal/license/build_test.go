package license

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectEntries_Dir(t *testing.T) {
	entries, err := CollectEntries(context.Background(), "testdata")
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "Apache-2.0", entries[0].Name)
	assert.Len(t, entries[0].Headers, 1)
	assert.Equal(t, "ISC", entries[1].Name)
	assert.Equal(t, "MIT", entries[2].Name)
	assert.Empty(t, entries[2].Headers)
}

func TestCollectEntries_OrphanHeaderAndOtherFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Foo.header.txt"), []byte("foo header"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("docs"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Bar.txt"), []byte("bar text"), 0644))

	entries, err := CollectEntries(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Bar", entries[0].Name)
}

func TestCollectEntries_TooLarge(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Big.txt"), make([]byte, maxTextSize+1), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Ok.txt"), []byte("ok"), 0644))

	entries, err := CollectEntries(context.Background(), dir)
	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 1)
	require.Len(t, entries, 1)
	assert.Equal(t, "Ok", entries[0].Name)
}

func TestCollectEntries_Zip(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "licenses.zip")
	f, err := os.Create(archive)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, name := range []string{"MIT.txt", "ISC.txt"} {
		w, err := zw.Create("text/" + name)
		require.NoError(t, err)
		_, err = w.Write([]byte(readFixture(t, name)))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	entries, err := CollectEntries(context.Background(), archive)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "ISC", entries[0].Name)
	assert.Equal(t, readFixture(t, "MIT.txt"), entries[1].Text)
}
