package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFilter_Default(t *testing.T) {
	m, err := BuildFilter("")
	require.NoError(t, err)
	assert.Equal(t, []string{"license"}, m.Types())

	for _, name := range []string{
		"LICENSE", "LICENCE", "license", "LICENSE.md", "LICENSE-MIT", "license.txt",
		"COPYING", "COPYING.LESSER", "NOTICE", "UNLICENSE", "MIT-LICENSE.txt",
		"APACHE-2.0.txt", "gpl-3.0.txt", "PATENTS",
	} {
		assert.True(t, m.Matches(name), name)
	}
	for _, name := range []string{"main.go", "README.md", "notes.txt", "licenses.go.bak", "COPYINGX"} {
		assert.False(t, m.Matches(name), name)
	}
}

func TestBuildFilter_Custom(t *testing.T) {
	m, err := BuildFilter("*.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"custom"}, m.Types())
	assert.True(t, m.Matches("README.md"))
	assert.False(t, m.Matches("LICENSE"))
	assert.False(t, m.Matches("notes.txt"))
}

func TestBuildFilter_InvalidPattern(t *testing.T) {
	_, err := BuildFilter("[abc")
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestTypesBuilder(t *testing.T) {
	b := NewTypesBuilder()
	b.AddDefaults()
	require.NoError(t, b.Add("go", "*.go"))
	assert.Error(t, b.Add("", "*.c"))
	assert.Error(t, b.Add("a:b", "*.c"))

	b.Select("go")
	b.Select("markdown")
	m, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "markdown"}, m.Types())
	assert.True(t, m.Matches("main.go"))
	assert.True(t, m.Matches("README.md"))
	assert.False(t, m.Matches("LICENSE"))

	b.Select("nope")
	_, err = b.Build()
	assert.ErrorIs(t, err, ErrUnknownType)
}
