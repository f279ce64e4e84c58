package internal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-git/go-git/v6/plumbing/format/gitignore"
	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"
)

var ErrFilesystemLoop = errors.New("file system loop found")

// ignore files read in every directory, later ones win
var ignoreFiles = []string{".gitignore", ".ignore"}

// WalkState is what a Visitor tells the walker after seeing an entry.
type WalkState int

const (
	// WalkContinue descends into a directory entry and keeps visiting siblings.
	WalkContinue WalkState = iota
	// WalkSkip drops this entry (and its subtree). The rest of the walk goes on.
	WalkSkip
)

func (s WalkState) String() string {
	if s == WalkSkip {
		return "skip"
	}
	return "continue"
}

// Entry is a file system entry handed to a Visitor.
type Entry struct {
	path        string
	depth       int
	followLinks bool
}

func (e Entry) Path() string { return e.path }

// Depth is 0 for the walk root.
func (e Entry) Depth() int { return e.depth }

// Metadata stats the entry, following symlinks only when the walk does.
func (e Entry) Metadata() (os.FileInfo, error) {
	if e.followLinks {
		return os.Stat(e.path)
	}
	return os.Lstat(e.path)
}

// Visitor handles entries for one walker worker. Each worker owns its Visitor,
// so a Visitor needs no locking of its own. A Visitor that is also an io.Closer
// is closed when its worker stops.
type Visitor interface {
	Visit(entry Entry, err error) WalkState
}

// VisitorFunc adapts a plain function to Visitor.
type VisitorFunc func(Entry, error) WalkState

func (f VisitorFunc) Visit(entry Entry, err error) WalkState { return f(entry, err) }

// Walker walks one directory tree with a fixed number of workers.
type Walker struct {
	root        string
	matcher     *Matcher
	followLinks bool
	maxDepth    int
	hidden      bool
	useIgnore   bool
	threads     int
}

func NewWalker(opts ScanOptions, m *Matcher) *Walker {
	return &Walker{
		root:        opts.Root,
		matcher:     m,
		followLinks: opts.FollowLinks,
		maxDepth:    opts.Depth,
		hidden:      opts.Hidden,
		useIgnore:   !opts.NoIgnore,
		threads:     max(1, opts.Threads),
	}
}

type walkItem struct {
	entry     Entry
	isDir     bool
	ancestors []os.FileInfo // only tracked when following links
	rules     *ignoreRules
}

// Run walks the tree. newVisitor is called once on each worker as it starts.
// Run returns once every entry was visited or ctx is done; per-entry problems
// never end the walk and are only ever passed to visitors.
func (w *Walker) Run(ctx context.Context, newVisitor func() Visitor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pool, err := ants.NewPool(w.threads)
	if err != nil {
		return fmt.Errorf("pool: %w", err)
	}
	defer pool.Release()

	q := newWorkQueue()
	stop := context.AfterFunc(ctx, q.stop)
	defer stop()

	q.push(w.rootItem())

	var wg sync.WaitGroup
	for i := 0; i < w.threads; i++ {
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			w.work(q, newVisitor())
		}); err != nil {
			wg.Done()
			logrus.WithError(err).Error("submit walker worker")
		}
	}
	wg.Wait()
	return ctx.Err()
}

func (w *Walker) rootItem() walkItem {
	it := walkItem{
		entry: Entry{path: w.root, followLinks: w.followLinks},
		rules: &ignoreRules{root: w.root},
	}
	// the root is always resolved, like a path given on the command line
	if st, err := os.Stat(w.root); err == nil {
		it.isDir = st.IsDir()
	}
	return it
}

func (w *Walker) work(q *workQueue, v Visitor) {
	if c, ok := v.(io.Closer); ok {
		defer c.Close()
	}
	for {
		it, ok := q.pop()
		if !ok {
			return
		}
		w.visit(q, v, it)
		q.done()
	}
}

func (w *Walker) visit(q *workQueue, v Visitor, it walkItem) {
	if v.Visit(it.entry, nil) == WalkSkip || !it.isDir {
		return
	}
	if w.maxDepth > 0 && it.entry.depth >= w.maxDepth {
		return
	}

	dir := it.entry.path
	var ancestors []os.FileInfo
	if w.followLinks {
		st, err := os.Stat(dir)
		if err != nil {
			v.Visit(it.entry, err)
			return
		}
		for _, a := range it.ancestors {
			if os.SameFile(a, st) {
				v.Visit(it.entry, fmt.Errorf("%w: %s", ErrFilesystemLoop, dir))
				return
			}
		}
		ancestors = append(append(ancestors, it.ancestors...), st)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		v.Visit(it.entry, err)
		return
	}

	rules := it.rules
	if w.useIgnore {
		rules = rules.child(dir)
	}

	children := make([]walkItem, 0, len(ents))
	for _, d := range ents {
		name := d.Name()
		if !w.hidden && strings.HasPrefix(name, ".") {
			continue
		}
		p := filepath.Join(dir, name)
		isDir := d.IsDir()
		if w.followLinks && d.Type()&os.ModeSymlink != 0 {
			if st, err := os.Stat(p); err == nil {
				isDir = st.IsDir()
			}
		}
		if rules.ignored(p, isDir) {
			continue
		}
		if !isDir && !w.matcher.Matches(name) {
			continue
		}
		children = append(children, walkItem{
			entry:     Entry{path: p, depth: it.entry.depth + 1, followLinks: w.followLinks},
			isDir:     isDir,
			ancestors: ancestors,
			rules:     rules,
		})
	}
	q.push(children...)
}

// workQueue is an unbounded LIFO of pending entries. Workers both consume and
// produce, so pushes must never block.
type workQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   []walkItem
	pending int // queued + being visited
	closed  bool
}

func newWorkQueue() *workQueue {
	q := &workQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *workQueue) push(items ...walkItem) {
	if len(items) == 0 {
		return
	}
	q.mu.Lock()
	if !q.closed {
		q.items = append(q.items, items...)
		q.pending += len(items)
	}
	q.mu.Unlock()
	q.cond.Broadcast()
}

func (q *workQueue) pop() (walkItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.closed {
		return walkItem{}, false
	}
	it := q.items[len(q.items)-1]
	q.items = q.items[:len(q.items)-1]
	return it, true
}

func (q *workQueue) done() {
	q.mu.Lock()
	q.pending--
	finished := q.pending == 0
	if finished {
		q.closed = true
	}
	q.mu.Unlock()
	if finished {
		q.cond.Broadcast()
	}
}

func (q *workQueue) stop() {
	q.mu.Lock()
	q.closed = true
	q.items = nil
	q.mu.Unlock()
	q.cond.Broadcast()
}

// ignoreRules holds .gitignore style patterns from the root down to one directory.
type ignoreRules struct {
	root     string
	patterns []gitignore.Pattern
	matcher  gitignore.Matcher
}

// child adds the ignore files found in dir. The receiver is shared between
// workers and never modified.
func (r *ignoreRules) child(dir string) *ignoreRules {
	domain := r.split(dir)
	var added []gitignore.Pattern
	for _, name := range ignoreFiles {
		added = append(added, readIgnoreFile(filepath.Join(dir, name), domain)...)
	}
	if len(added) == 0 {
		return r
	}
	ps := make([]gitignore.Pattern, 0, len(r.patterns)+len(added))
	ps = append(append(ps, r.patterns...), added...)
	return &ignoreRules{root: r.root, patterns: ps, matcher: gitignore.NewMatcher(ps)}
}

func (r *ignoreRules) ignored(path string, isDir bool) bool {
	if r.matcher == nil {
		return false
	}
	return r.matcher.Match(r.split(path), isDir)
}

func (r *ignoreRules) split(path string) []string {
	rel, err := filepath.Rel(r.root, path)
	if err != nil || rel == "." {
		return []string{}
	}
	return strings.Split(filepath.ToSlash(rel), "/")
}

func readIgnoreFile(path string, domain []string) []gitignore.Pattern {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var ps []gitignore.Pattern
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ps = append(ps, gitignore.ParsePattern(line, domain))
	}
	if err := sc.Err(); err != nil {
		logrus.WithError(err).WithField("file", path).Warn("read ignore file")
	}
	return ps
}
