package license

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// StoreVersion is the only on-disk format LoadStore accepts.
const StoreVersion = 1

var (
	ErrStoreVersion = errors.New("unsupported store version")
	ErrEmptyStore   = errors.New("store contains no licenses")
)

// Entry is one license as written to a store file.
type Entry struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases,omitempty"`
	Text    string   `yaml:"text"`
	Headers []string `yaml:"headers,omitempty"`
}

type storeFile struct {
	Version  int     `yaml:"version"`
	Licenses []Entry `yaml:"licenses"`
}

type storedLicense struct {
	name     string
	aliases  []string
	original *TextData
	headers  []*TextData
}

// Store is the fingerprinted corpus. It is never modified after construction,
// so any number of goroutines may read it.
type Store struct {
	licenses []storedLicense
}

// NewStore fingerprints entries in parallel.
func NewStore(entries []Entry) (*Store, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyStore
	}
	for i, e := range entries {
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("license #%d has no name", i)
		}
	}
	s := &Store{licenses: make([]storedLicense, len(entries))}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, e := range entries {
		g.Go(func() error {
			l := storedLicense{
				name:     e.Name,
				aliases:  e.Aliases,
				original: NewTextData(e.Text),
			}
			for _, h := range e.Headers {
				l.headers = append(l.headers, NewTextData(h))
			}
			s.licenses[i] = l
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadStore reads a gzip-compressed YAML store file.
func LoadStore(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", path, err)
	}
	defer zr.Close()

	var sf storeFile
	if err := yaml.NewDecoder(zr).Decode(&sf); err != nil {
		return nil, fmt.Errorf("store %s: decode: %w", path, err)
	}
	if sf.Version != StoreVersion {
		return nil, fmt.Errorf("store %s: %w %d", path, ErrStoreVersion, sf.Version)
	}
	s, err := NewStore(sf.Licenses)
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", path, err)
	}
	return s, nil
}

// SaveStore writes entries in the format LoadStore reads. The file is written
// to a temp name first and renamed into place.
func SaveStore(path string, entries []Entry) error {
	if len(entries) == 0 {
		return ErrEmptyStore
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".store-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	zw := gzip.NewWriter(tmp)
	enc := yaml.NewEncoder(zw)
	if err := enc.Encode(storeFile{Version: StoreVersion, Licenses: entries}); err != nil {
		tmp.Close()
		return fmt.Errorf("encode store: %w", err)
	}
	if err := enc.Close(); err != nil {
		tmp.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Len is the number of licenses in the store.
func (s *Store) Len() int { return len(s.licenses) }

// Names lists license names in store order.
func (s *Store) Names() []string {
	out := make([]string, len(s.licenses))
	for i, l := range s.licenses {
		out[i] = l.name
	}
	return out
}

// Identify finds the license closest to td. A best score under
// ConfidenceThreshold is reported as ErrNoConfidentMatch.
func (s *Store) Identify(ctx context.Context, td *TextData) (Match, error) {
	var best Match
	if td.Empty() {
		return best, ErrNoConfidentMatch
	}
	for _, l := range s.licenses {
		if ctx.Err() != nil {
			return best, ctx.Err()
		}
		if score := td.Similarity(l.original); score > best.Score {
			best = Match{Name: l.name, Aliases: l.aliases, Kind: KindOriginal, Score: score}
		}
		for _, h := range l.headers {
			if score := td.Similarity(h); score > best.Score {
				best = Match{Name: l.name, Aliases: l.aliases, Kind: KindHeader, Score: score}
			}
		}
	}
	if best.Score < ConfidenceThreshold {
		return best, ErrNoConfidentMatch
	}
	return best, nil
}
