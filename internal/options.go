package internal

import (
	"errors"
	"runtime"

	"github.com/hashicorp/go-multierror"
)

const defaultCacheSize = 512

// ScanOptions - public options from CLI.
type ScanOptions struct {
	Root        string
	StorePath   string
	Glob        string // empty selects the built-in license file types
	FollowLinks bool
	Depth       int
	Hidden      bool
	NoIgnore    bool
	CacheSize   int

	// Threads is set by Prepare; tests may pin it.
	Threads int
}

// Validate checks invariants.
func (o *ScanOptions) Validate() error {
	var errs *multierror.Error
	if o.Root == "" {
		errs = multierror.Append(errs, errors.New("directory to crawl is required"))
	}
	if o.StorePath == "" {
		errs = multierror.Append(errs, errors.New("store is required"))
	}
	if o.Depth < 0 {
		errs = multierror.Append(errs, errors.New("max-depth must not be negative"))
	}
	if o.CacheSize < 0 {
		errs = multierror.Append(errs, errors.New("cache-size must not be negative"))
	}
	return errs.ErrorOrNil()
}

// Prepare fills defaults.
func (o *ScanOptions) Prepare() {
	if o.Threads <= 0 {
		// directory reads and small file reads, more workers than cores only thrash
		o.Threads = min(12, max(2, runtime.GOMAXPROCS(0)))
	}
	if o.CacheSize == 0 {
		o.CacheSize = defaultCacheSize
	}
}
