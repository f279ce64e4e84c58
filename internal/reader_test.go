package internal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LicenseCrawler/internal/license"
)

func TestClassifier_Classify(t *testing.T) {
	root := writeTree(t, map[string]string{
		"LICENSE":     "Copyright (c) 2021 Someone\n\n" + fixture(t, "MIT.txt"),
		"COPYING":     "Use this however you like, but only on weekends.",
		"NOTICE.bin":  "\xff\xfe\x00binary\x80",
		"LICENSE.txt": fixture(t, "ISC.txt"),
	})
	c := NewClassifier(sharedStore(t), nil, nil)
	ctx := context.Background()

	res := c.Classify(ctx, filepath.Join(root, "LICENSE"))
	assert.Equal(t, ClassMatched, res.Kind)
	assert.Equal(t, filepath.Join(root, "LICENSE"), res.Path)
	assert.Contains(t, res.Report, "License: MIT (original text)")

	res = c.Classify(ctx, filepath.Join(root, "COPYING"))
	assert.Equal(t, ClassFailed, res.Kind)
	assert.Equal(t, license.ErrNoConfidentMatch.Error(), res.Reason)

	res = c.Classify(ctx, filepath.Join(root, "NOTICE.bin"))
	assert.Equal(t, ClassNotText, res.Kind)

	res = c.Classify(ctx, filepath.Join(root, "missing"))
	assert.Equal(t, ClassNotText, res.Kind)

	res = c.Classify(ctx, root)
	assert.Equal(t, ClassNotText, res.Kind, "directories cannot be read as text")
}

func TestClassifier_CacheByContent(t *testing.T) {
	body := fixture(t, "ISC.txt")
	root := writeTree(t, map[string]string{
		"a/LICENSE": body,
		"b/LICENSE": body,
	})
	cache, err := NewResultCache(8)
	require.NoError(t, err)
	var stats AppStats
	c := NewClassifier(sharedStore(t), cache, &stats)

	first := c.Classify(context.Background(), filepath.Join(root, "a", "LICENSE"))
	second := c.Classify(context.Background(), filepath.Join(root, "b", "LICENSE"))

	assert.Equal(t, ClassMatched, second.Kind)
	assert.Equal(t, first.Report, second.Report)
	assert.Equal(t, filepath.Join(root, "b", "LICENSE"), second.Path)
	assert.EqualValues(t, 1, stats.CacheHits.Load())
	assert.Equal(t, 1, cache.Len())
}

func TestNewResultCache_Disabled(t *testing.T) {
	cache, err := NewResultCache(0)
	require.NoError(t, err)
	assert.Nil(t, cache)
}

func TestReadText(t *testing.T) {
	dir := t.TempDir()
	ok := filepath.Join(dir, "ok")
	bad := filepath.Join(dir, "bad")
	require.NoError(t, os.WriteFile(ok, []byte("héllo\n"), 0644))
	require.NoError(t, os.WriteFile(bad, []byte{0xc3, 0x28}, 0644))

	b, isText := readText(ok)
	assert.True(t, isText)
	assert.Equal(t, "héllo\n", string(b))

	_, isText = readText(bad)
	assert.False(t, isText)
}
