package license

import (
	"context"
	"fmt"
	"io"
	iofs "io/fs"
	"path"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/mholt/archives"
	"github.com/sirupsen/logrus"
)

const (
	textSuffix   = ".txt"
	headerSuffix = ".header.txt"
	// license texts are small, anything bigger is not one
	maxTextSize = 1 << 20
)

// CollectEntries gathers license texts from src, which may be a directory or
// any archive format archives understands.
//
//	MIT.txt               original text of "MIT"
//	Apache-2.0.header.txt standard header of "Apache-2.0"
//
// Unreadable members are collected into the returned error; the entries that
// could be read are returned alongside it.
func CollectEntries(ctx context.Context, src string) ([]Entry, error) {
	fsys, err := archives.FileSystem(ctx, src, nil)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", src, err)
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer closer.Close()
	}

	byName := make(map[string]*Entry)
	var errs *multierror.Error
	walkErr := iofs.WalkDir(fsys, ".", func(p string, d iofs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			errs = multierror.Append(errs, err)
			return nil
		}
		base := path.Base(p)
		if d.IsDir() || !strings.HasSuffix(base, textSuffix) {
			return nil
		}
		body, err := readText(fsys, p)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", p, err))
			return nil
		}

		name, isHeader := strings.CutSuffix(base, headerSuffix)
		if !isHeader {
			name = strings.TrimSuffix(base, textSuffix)
		}
		e, ok := byName[name]
		if !ok {
			e = &Entry{Name: name}
			byName[name] = e
		}
		if isHeader {
			e.Headers = append(e.Headers, body)
		} else {
			e.Text = body
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	entries := make([]Entry, 0, len(byName))
	for _, e := range byName {
		if e.Text == "" {
			logrus.WithField("license", e.Name).Warn("header without license text, skipped")
			continue
		}
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	logrus.Debugf("Collected %d licenses from %s", len(entries), src)

	return entries, errs.ErrorOrNil()
}

func readText(fsys iofs.FS, p string) (string, error) {
	f, err := fsys.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()
	b, err := io.ReadAll(io.LimitReader(f, maxTextSize+1))
	if err != nil {
		return "", err
	}
	if len(b) > maxTextSize {
		return "", fmt.Errorf("larger than %d bytes", maxTextSize)
	}
	return string(b), nil
}
