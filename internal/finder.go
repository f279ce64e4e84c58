package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"LicenseCrawler/internal/license"
)

// Reporter writes per-file results. Each call is a single write under one
// lock, so two files never interleave.
type Reporter struct {
	mu     sync.Mutex
	stdout io.Writer
	stderr io.Writer
}

func NewReporter(stdout, stderr io.Writer) *Reporter {
	return &Reporter{stdout: stdout, stderr: stderr}
}

// ReportOK prints the path line followed by the match report.
func (r *Reporter) ReportOK(path, report string) {
	r.write(r.stdout, path+"\n"+report)
}

// ReportErr prints the path line followed by the failure reason.
func (r *Reporter) ReportErr(path, reason string) {
	r.write(r.stderr, path+"\nError: "+reason+"\n")
}

// ReportWalkErr prints a traversal error on its own line.
func (r *Reporter) ReportWalkErr(err error) {
	r.write(r.stderr, err.Error()+"\n")
}

// Report routes a classification. ClassNotText prints nothing.
func (r *Reporter) Report(c Classification) {
	switch c.Kind {
	case ClassMatched:
		r.ReportOK(c.Path, c.Report)
	case ClassFailed:
		r.ReportErr(c.Path, c.Reason)
	}
}

func (r *Reporter) write(w io.Writer, s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := io.WriteString(w, s); err != nil {
		logrus.WithError(err).Debug("write result")
	}
}

// LicenseCrawler classifies every selected file under a directory.
type LicenseCrawler struct {
	reporter *Reporter
}

func NewLicenseCrawler(stdout, stderr io.Writer) *LicenseCrawler {
	return &LicenseCrawler{reporter: NewReporter(stdout, stderr)}
}

// Crawl loads the store, builds the filter and walks opts.Root. Only setup
// failures are returned; problems with single entries are reported and skipped.
func (lc *LicenseCrawler) Crawl(ctx context.Context, opts ScanOptions, stats *AppStats) error {
	opts.Prepare()
	stats.Start()

	store, err := license.LoadStore(opts.StorePath)
	if err != nil {
		return fmt.Errorf("load store: %w", err)
	}
	matcher, err := BuildFilter(opts.Glob)
	if err != nil {
		return err
	}
	cache, err := NewResultCache(opts.CacheSize)
	if err != nil {
		return fmt.Errorf("result cache: %w", err)
	}

	shared := license.Share(store)
	defer shared.Release()
	logrus.WithFields(logrus.Fields{
		"root":     opts.Root,
		"licenses": shared.Len(),
		"types":    strings.Join(matcher.Types(), ","),
		"workers":  opts.Threads,
	}).Info("Crawl started")

	statsDone := make(chan struct{})
	defer close(statsDone)
	go logStats(stats, statsDone)

	walker := NewWalker(opts, matcher)
	err = walker.Run(ctx, func() Visitor {
		local := shared.Clone()
		return &crawlVisitor{
			ctx:        ctx,
			store:      local,
			classifier: NewClassifier(local, cache, stats),
			reporter:   lc.reporter,
			stats:      stats,
		}
	})
	logrus.WithFields(stats.Fields()).Infof("Crawl finished in %s", stats.Elapsed())
	return err
}

// Identify classifies a single file and reports it like Crawl would.
func (lc *LicenseCrawler) Identify(ctx context.Context, storePath, path string) (Classification, error) {
	store, err := license.LoadStore(storePath)
	if err != nil {
		return Classification{}, fmt.Errorf("load store: %w", err)
	}
	shared := license.Share(store)
	defer shared.Release()

	res := NewClassifier(shared, nil, nil).Classify(ctx, path)
	lc.reporter.Report(res)
	return res, nil
}

func logStats(stats *AppStats, done <-chan struct{}) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			logrus.WithFields(stats.Fields()).Debug("Stats")
		}
	}
}

// crawlVisitor is the per-worker side of Crawl. It holds its own store handle
// and gives it back when the worker stops.
type crawlVisitor struct {
	ctx        context.Context
	store      *license.Handle
	classifier *Classifier
	reporter   *Reporter
	stats      *AppStats
}

func (v *crawlVisitor) Visit(entry Entry, err error) WalkState {
	if err != nil {
		v.walkError(err)
		return WalkSkip
	}
	info, err := entry.Metadata()
	if err != nil {
		v.walkError(err)
		return WalkSkip
	}
	if info.IsDir() {
		return WalkContinue
	}
	// an unfollowed symlink is still read through when it points at a file
	if !info.Mode().IsRegular() && !isRegularTarget(entry.Path()) {
		return WalkContinue
	}

	v.stats.FilesFound.Add(1)
	res := v.classifier.Classify(v.ctx, entry.Path())
	switch res.Kind {
	case ClassMatched:
		v.stats.Matches.Add(1)
	case ClassFailed:
		v.stats.Failures.Add(1)
	default:
		v.stats.NotText.Add(1)
	}
	v.reporter.Report(res)
	return WalkContinue
}

func (v *crawlVisitor) walkError(err error) {
	v.stats.WalkErrors.Add(1)
	v.reporter.ReportWalkErr(err)
}

func (v *crawlVisitor) Close() error {
	v.store.Release()
	return nil
}

func isRegularTarget(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}
