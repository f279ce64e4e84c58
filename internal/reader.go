package internal

import (
	"context"
	"crypto/sha256"
	"os"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"LicenseCrawler/internal/license"
)

// ClassKind separates the three outcomes of classifying a file.
type ClassKind int

const (
	// ClassNotText - unreadable or not UTF-8. Nothing is reported for it.
	ClassNotText ClassKind = iota
	ClassMatched
	ClassFailed
)

// Classification is the outcome for one path.
type Classification struct {
	Path   string
	Kind   ClassKind
	Report string // ClassMatched
	Reason string // ClassFailed
}

// ResultCache maps content digests to outcomes, shared by all workers.
type ResultCache = lru.Cache[[sha256.Size]byte, Classification]

// NewResultCache returns nil when size is not positive, which disables caching.
func NewResultCache(size int) (*ResultCache, error) {
	if size <= 0 {
		return nil, nil
	}
	return lru.New[[sha256.Size]byte, Classification](size)
}

// Classifier identifies file contents against one store handle.
type Classifier struct {
	store *license.Handle
	cache *ResultCache
	stats *AppStats
}

func NewClassifier(store *license.Handle, cache *ResultCache, stats *AppStats) *Classifier {
	return &Classifier{store: store, cache: cache, stats: stats}
}

// Classify reads path and identifies its content.
func (c *Classifier) Classify(ctx context.Context, path string) Classification {
	content, ok := readText(path)
	if !ok {
		return Classification{Path: path, Kind: ClassNotText}
	}

	var key [sha256.Size]byte
	if c.cache != nil {
		key = sha256.Sum256(content)
		if res, hit := c.cache.Get(key); hit {
			if c.stats != nil {
				c.stats.CacheHits.Add(1)
			}
			res.Path = path
			return res
		}
	}

	res := c.identify(ctx, string(content))
	// cancellation says nothing about the content
	if c.cache != nil && ctx.Err() == nil {
		c.cache.Add(key, res)
	}
	res.Path = path
	return res
}

func (c *Classifier) identify(ctx context.Context, content string) Classification {
	m, err := c.store.Identify(ctx, license.NewTextData(content))
	if err != nil {
		return Classification{Kind: ClassFailed, Reason: err.Error()}
	}
	return Classification{Kind: ClassMatched, Report: m.String()}
}

// readText returns the whole file if it is valid UTF-8 text.
func readText(path string) ([]byte, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		logrus.WithError(err).WithField("file", path).Debug("unreadable, skipped")
		return nil, false
	}
	if !utf8.Valid(b) {
		logrus.WithField("file", path).Debug("not UTF-8, skipped")
		return nil, false
	}
	return b, true
}
