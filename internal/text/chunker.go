package text

import (
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeWhitespace collapses runs of whitespace into single spaces and
// trims the ends. Cleaned page text goes through this before chunking so
// chunk boundaries don't land inside blocks of markup-induced blank space.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// Chunk splits text into ordered, possibly overlapping spans of at most size
// runes. Consecutive chunks share the trailing overlap runes of the previous
// chunk. When a chunk boundary would fall mid-word, the cut is pulled back to
// the last whitespace inside the window, but never further back than
// size-overlap runes so the walk always advances.
//
// size must be > 0 and overlap must satisfy 0 <= overlap < size; the
// configuration layer validates this before a chunker ever runs.
func Chunk(text string, size, overlap int) []string {
	runes := []rune(text)
	n := len(runes)
	if n == 0 || size <= 0 {
		return nil
	}

	var chunks []string
	start := 0
	for start < n {
		end := start + size
		if end >= n {
			end = n
		} else {
			// Prefer cutting on whitespace. The floor keeps the cut from
			// eating the whole advance of this window.
			floor := start + size - overlap
			if floor <= start {
				floor = start + 1
			}
			if ws := lastWhitespace(runes, floor, end); ws > floor {
				end = ws
			}
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= n {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

func lastWhitespace(runes []rune, from, to int) int {
	for i := to - 1; i >= from; i-- {
		switch runes[i] {
		case ' ', '\t', '\n', '\r':
			return i
		}
	}
	return -1
}
