package license

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// copyright notices differ between every copy of a license, drop them before comparing
var copyrightLine = regexp.MustCompile(`^[^\p{L}\p{N}]*(copyright\s*(\(c\)|©|[0-9]|\[|<)|\(c\)\s*[0-9]|©)`)

var wordVariants = strings.NewReplacer(
	"licence", "license",
	"copyright holder", "copyright owner",
	"&", "and",
)

// TextData is the comparable form of a text: normalized words plus a bigram fingerprint.
type TextData struct {
	normalized string
	grams      ngramSet
}

// NewTextData normalizes raw text and fingerprints it.
func NewTextData(text string) *TextData {
	folder := cases.Fold()
	text = norm.NFKC.String(text)

	var words []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(folder.String(line))
		if line == "" || copyrightLine.MatchString(line) {
			continue
		}
		line = wordVariants.Replace(line)
		words = append(words, strings.FieldsFunc(line, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})...)
	}

	return &TextData{
		normalized: strings.Join(words, " "),
		grams:      newNgramSet(words, 2),
	}
}

// Normalized returns the text the fingerprint was computed from.
func (t *TextData) Normalized() string { return t.normalized }

// Empty reports whether normalization left nothing to compare.
func (t *TextData) Empty() bool { return t.grams.size == 0 }

// Similarity is the Dice coefficient of both bigram multisets, in [0, 1].
func (t *TextData) Similarity(other *TextData) float64 {
	return t.grams.dice(other.grams)
}

type ngramSet struct {
	counts map[string]int
	size   int
}

func newNgramSet(words []string, n int) ngramSet {
	s := ngramSet{counts: make(map[string]int)}
	if len(words) < n {
		// short texts still need something to compare
		if len(words) > 0 {
			s.counts[strings.Join(words, " ")]++
			s.size = 1
		}
		return s
	}
	for i := 0; i+n <= len(words); i++ {
		s.counts[strings.Join(words[i:i+n], " ")]++
		s.size++
	}
	return s
}

func (s ngramSet) dice(o ngramSet) float64 {
	if s.size == 0 || o.size == 0 {
		return 0
	}
	small, large := s, o
	if len(small.counts) > len(large.counts) {
		small, large = large, small
	}
	shared := 0
	for gram, c := range small.counts {
		shared += min(c, large.counts[gram])
	}
	return 2 * float64(shared) / float64(s.size+o.size)
}
