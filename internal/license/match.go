package license

import (
	"errors"
	"fmt"
	"strings"
)

// ConfidenceThreshold is the lowest score Identify accepts as a match.
const ConfidenceThreshold = 0.8

var ErrNoConfidentMatch = errors.New("confidence threshold not high enough for any known license")

// MatchKind tells which text of a license the input matched.
type MatchKind int

const (
	KindOriginal MatchKind = iota
	KindHeader
)

func (k MatchKind) String() string {
	if k == KindHeader {
		return "license header"
	}
	return "original text"
}

// Match is the best candidate Identify found.
type Match struct {
	Name    string
	Aliases []string
	Kind    MatchKind
	Score   float64
}

// String renders the report printed after a file's path.
func (m Match) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "License: %s (%s)\n", m.Name, m.Kind)
	if len(m.Aliases) > 0 {
		fmt.Fprintf(&b, "Aliases: %s\n", strings.Join(m.Aliases, ", "))
	}
	fmt.Fprintf(&b, "Score: %.3f\n", m.Score)
	return b.String()
}
