package text

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", NormalizeWhitespace("  a\n\n b\t\tc  "))
	assert.Equal(t, "", NormalizeWhitespace(" \n\t "))
	assert.Equal(t, "plain", NormalizeWhitespace("plain"))
}

func TestChunk_ShortText(t *testing.T) {
	chunks := Chunk("hello world", 100, 10)
	assert.Equal(t, []string{"hello world"}, chunks)
}

func TestChunk_Empty(t *testing.T) {
	assert.Nil(t, Chunk("", 100, 10))
}

func TestChunk_SlidingWindowWithOverlap(t *testing.T) {
	// No whitespace, so windows advance by exactly size-overlap runes.
	chunks := Chunk("abcdefghijklmnopqrstuvwxyz", 10, 3)

	assert.Equal(t, []string{
		"abcdefghij",
		"hijklmnopq",
		"opqrstuvwx",
		"vwxyz",
	}, chunks)

	// Each chunk starts with the trailing overlap of its predecessor.
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		tail := prev[len(prev)-3:]
		assert.True(t, strings.HasPrefix(chunks[i], tail), "chunk %d should overlap its predecessor", i)
	}
}

func TestChunk_ZeroOverlap(t *testing.T) {
	chunks := Chunk("abcdefghijklmnopqrst", 5, 0)
	assert.Equal(t, []string{"abcde", "fghij", "klmno", "pqrst"}, chunks)
}

func TestChunk_BreaksOnWhitespace(t *testing.T) {
	chunks := Chunk("alpha beta gamma delta", 10, 4)

	assert.Equal(t, "alpha beta", chunks[0])
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 10)
		assert.Equal(t, strings.TrimSpace(c), c)
	}
}

func TestChunk_SizeBound(t *testing.T) {
	long := strings.Repeat("lorem ipsum dolor sit amet ", 200)
	chunks := Chunk(long, 120, 20)

	assert.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 120)
		assert.NotEmpty(t, c)
	}

	// Order and coverage: the last chunk must contain the end of the text.
	assert.True(t, strings.HasSuffix(strings.TrimSpace(long), chunks[len(chunks)-1]))
}
