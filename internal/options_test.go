package internal

import (
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanOptions_Validate(t *testing.T) {
	o := ScanOptions{Depth: -1}
	err := o.Validate()
	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 3)

	o = ScanOptions{Root: ".", StorePath: "store.yaml.gz"}
	assert.NoError(t, o.Validate())
}

func TestScanOptions_Prepare(t *testing.T) {
	o := ScanOptions{}
	o.Prepare()
	assert.GreaterOrEqual(t, o.Threads, 2)
	assert.LessOrEqual(t, o.Threads, 12)
	assert.Equal(t, defaultCacheSize, o.CacheSize)

	o = ScanOptions{Threads: 3, CacheSize: 7}
	o.Prepare()
	assert.Equal(t, 3, o.Threads)
	assert.Equal(t, 7, o.CacheSize)
}
