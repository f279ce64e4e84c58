package internal

import (
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// AppStats atomic counters for totals
type AppStats struct {
	start      time.Time
	FilesFound atomic.Int64
	Matches    atomic.Int64
	Failures   atomic.Int64
	NotText    atomic.Int64
	WalkErrors atomic.Int64
	CacheHits  atomic.Int64
}

func (s *AppStats) Start() {
	s.start = time.Now()
}

func (s *AppStats) Elapsed() time.Duration {
	return time.Since(s.start)
}

func (s *AppStats) Fields() logrus.Fields {
	return logrus.Fields{
		"found":      s.FilesFound.Load(),
		"matches":    s.Matches.Load(),
		"failures":   s.Failures.Load(),
		"not_text":   s.NotText.Load(),
		"walk_errs":  s.WalkErrors.Load(),
		"cache_hits": s.CacheHits.Load(),
	}
}
