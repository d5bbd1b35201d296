// Package text provides rune-aware helpers for post content: character
// counting, truncation and reading-time estimates.
package text

import (
	"math"
	"regexp"
	"strings"
)

// WordsPerMinute is the default reading speed.
const WordsPerMinute = 200

var (
	codeFence   = regexp.MustCompile("(?s)```.*?```")
	htmlTag     = regexp.MustCompile(`<[^>]*>`)
	markdownSym = regexp.MustCompile("[#*_~`>\\[\\]()!|-]+")
)

// CountRunes counts the number of Unicode characters (runes) in the given text.
//
//	CountRunes("hello")     // 5
//	CountRunes("hello世界") // 7
func CountRunes(text string) int {
	return len([]rune(text))
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// CountWords counts prose words, ignoring fenced code blocks, HTML tags and
// markdown punctuation.
func CountWords(s string) int {
	s = codeFence.ReplaceAllString(s, " ")
	s = htmlTag.ReplaceAllString(s, " ")
	s = markdownSym.ReplaceAllString(s, " ")
	return len(strings.Fields(s))
}

// ReadingTime estimates minutes to read s at wpm words per minute, rounded
// up with a minimum of one minute. wpm <= 0 uses WordsPerMinute.
func ReadingTime(s string, wpm int) (minutes, words int) {
	if wpm <= 0 {
		wpm = WordsPerMinute
	}
	words = CountWords(s)
	minutes = int(math.Ceil(float64(words) / float64(wpm)))
	if minutes < 1 {
		minutes = 1
	}
	return minutes, words
}
