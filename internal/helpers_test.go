package internal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"LicenseCrawler/internal/license"
)

func fixture(t testing.TB, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("license", "testdata", name))
	require.NoError(t, err)
	return string(b)
}

// writeStore builds a store from the license fixtures and returns its path.
func writeStore(t testing.TB) string {
	t.Helper()
	entries, err := license.CollectEntries(context.Background(), filepath.Join("license", "testdata"))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "store.yaml.gz")
	require.NoError(t, license.SaveStore(path, entries))
	return path
}

func sharedStore(t testing.TB) *license.Handle {
	t.Helper()
	s, err := license.LoadStore(writeStore(t))
	require.NoError(t, err)
	return license.Share(s)
}

// writeTree creates files (relative path -> content) under a new temp dir.
func writeTree(t testing.TB, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	}
	return root
}
