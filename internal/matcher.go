package internal

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidPattern = errors.New("invalid glob pattern")
	ErrUnknownType    = errors.New("unrecognized file type")
)

const (
	customType  = "custom"
	licenseType = "license"
)

// defaultTypes - built-in file types. Globs match a file's base name.
var defaultTypes = map[string][]string{
	licenseType: {
		"COPYING", "COPYING{.,-}*",
		"COPYRIGHT", "COPYRIGHT{.,-}*",
		"EULA", "EULA{.,-}*",
		"licen[cs]e", "licen[cs]e.*",
		"LICEN[CS]E", "LICEN[CS]E{.,-}*", "*{.,-}LICEN[CS]E*",
		"NOTICE", "NOTICE{.,-}*",
		"PATENTS", "PATENTS{.,-}*",
		"UNLICEN[CS]E", "UNLICEN[CS]E{.,-}*",
		"agpl{.,-}*", "gpl{.,-}*", "lgpl{.,-}*",
		"AGPL-*[0-9]*", "APACHE-*[0-9]*", "BSD-*[0-9]*", "CC-BY-*",
		"GFDL-*[0-9]*", "GNU-*[0-9]*", "GPL-*[0-9]*", "LGPL-*[0-9]*",
		"MIT-*[0-9]*", "MPL-*[0-9]*", "OFL-*[0-9]*",
	},
	"markdown": {"*.markdown", "*.md", "*.mdown", "*.mkdn"},
	"txt":      {"*.txt"},
}

// Matcher - compiled file type selection. Read-only after Build, safe to share.
type Matcher struct {
	types []string
	globs []glob.Glob
}

// Matches reports whether a file with this base name is selected.
func (m *Matcher) Matches(name string) bool {
	for _, g := range m.globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Types lists the selected type names.
func (m *Matcher) Types() []string { return m.types }

// TypesBuilder collects type definitions and a selection, then compiles them.
type TypesBuilder struct {
	defs     map[string][]string
	selected []string
}

func NewTypesBuilder() *TypesBuilder {
	return &TypesBuilder{defs: make(map[string][]string)}
}

// Add appends a glob to the named type. Globs are compiled in Build.
func (b *TypesBuilder) Add(name, pattern string) error {
	if name == "" || strings.ContainsAny(name, ":,") {
		return fmt.Errorf("invalid type name %q", name)
	}
	b.defs[name] = append(b.defs[name], pattern)
	return nil
}

// AddDefaults registers the built-in types.
func (b *TypesBuilder) AddDefaults() {
	for name, globs := range defaultTypes {
		b.defs[name] = append(b.defs[name], globs...)
	}
}

// Select marks a type as wanted.
func (b *TypesBuilder) Select(name string) {
	b.selected = append(b.selected, name)
}

// Build compiles the globs of every selected type.
func (b *TypesBuilder) Build() (*Matcher, error) {
	m := &Matcher{}
	for _, name := range b.selected {
		patterns, ok := b.defs[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
		}
		for _, p := range patterns {
			g, err := glob.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, p, err)
			}
			m.globs = append(m.globs, g)
		}
		m.types = append(m.types, name)
	}
	sort.Strings(m.types)
	return m, nil
}

// BuildFilter selects pattern as the only file type, or the built-in license
// types when pattern is empty.
func BuildFilter(pattern string) (*Matcher, error) {
	b := NewTypesBuilder()
	if pattern != "" {
		if err := b.Add(customType, pattern); err != nil {
			return nil, err
		}
		b.Select(customType)
	} else {
		b.AddDefaults()
		b.Select(licenseType)
	}
	m, err := b.Build()
	if err != nil {
		return nil, err
	}
	logrus.Debugf("File filter: types=%v globs=%d", m.types, len(m.globs))
	return m, nil
}
