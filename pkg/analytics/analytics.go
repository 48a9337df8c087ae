// Package analytics holds the mergeable lexical statistics for a span of text.
package analytics

import (
	"maps"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Result holds the statistics for a span of processed text.
//
// TotalWords counts every token. Tokens that are not made entirely of letters
// are counted in SkippedWords and contribute nothing else, so
// TotalWords == sum(WordFrequency) + SkippedWords and
// TotalLetters == sum(LetterFrequency) always hold.
type Result struct {
	SourceName string    `json:"source_name"`
	ScanTime   time.Time `json:"scan_time"`

	TotalWords        int    `json:"total_words"`
	TotalLetters      int    `json:"total_letters"`
	LongestWord       string `json:"longest_word"`
	LongestWordOffset int64  `json:"longest_word_offset"`

	WordFrequency   map[string]int `json:"word_frequency"`
	LetterFrequency map[rune]int   `json:"letter_frequency"`

	SkippedWords   int   `json:"skipped_words"`
	MalformedWords int   `json:"malformed_words"`
	BytesRead      int64 `json:"bytes_read"`
}

// NewResult returns an empty Result stamped with the current time.
func NewResult() Result {
	return Result{
		ScanTime:        time.Now(),
		WordFrequency:   make(map[string]int),
		LetterFrequency: make(map[rune]int),
	}
}

// Normalize lowercases a raw token.
func Normalize(word string) string {
	return strings.ToLower(word)
}

// IsAlphabetic reports whether every rune of word is a letter.
func IsAlphabetic(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// AddWord folds one raw token found at the given stream offset.
func (r *Result) AddWord(word string, offset int64) {
	if r.WordFrequency == nil {
		r.WordFrequency = make(map[string]int)
	}
	if r.LetterFrequency == nil {
		r.LetterFrequency = make(map[rune]int)
	}

	r.TotalWords++

	word = Normalize(word)
	if !IsAlphabetic(word) {
		r.SkippedWords++
		return
	}

	length := 0
	for _, l := range word {
		r.LetterFrequency[l]++
		length++
	}
	r.TotalLetters += length
	r.WordFrequency[word]++

	if length > utf8.RuneCountInString(r.LongestWord) {
		r.LongestWord = word
		r.LongestWordOffset = offset
	}
}

// Absorb merges o into r in place. o is left untouched.
func (r *Result) Absorb(o Result) {
	if r.WordFrequency == nil {
		r.WordFrequency = make(map[string]int, len(o.WordFrequency))
	}
	if r.LetterFrequency == nil {
		r.LetterFrequency = make(map[rune]int, len(o.LetterFrequency))
	}

	if o.ScanTime.After(r.ScanTime) {
		r.ScanTime = o.ScanTime
	}
	if r.SourceName == "" {
		r.SourceName = o.SourceName
	}

	r.TotalWords += o.TotalWords
	r.TotalLetters += o.TotalLetters
	r.SkippedWords += o.SkippedWords
	r.MalformedWords += o.MalformedWords
	r.BytesRead += o.BytesRead

	if longerWord(o.LongestWord, o.LongestWordOffset, r.LongestWord, r.LongestWordOffset) {
		r.LongestWord = o.LongestWord
		r.LongestWordOffset = o.LongestWordOffset
	}

	for word, count := range o.WordFrequency {
		r.WordFrequency[word] += count
	}
	for letter, count := range o.LetterFrequency {
		r.LetterFrequency[letter] += count
	}
}

// Merge combines two Results into a new one without aliasing either input.
// Totals and histograms are additive, ScanTime takes the later value and the
// longest word is the longer one, ties going to the earlier stream offset and
// then to a.
func Merge(a, b Result) Result {
	c := a.Clone()
	c.Absorb(b)
	return c
}

// Clone returns a deep copy of r.
func (r Result) Clone() Result {
	c := r
	c.WordFrequency = maps.Clone(r.WordFrequency)
	c.LetterFrequency = maps.Clone(r.LetterFrequency)
	if c.WordFrequency == nil {
		c.WordFrequency = make(map[string]int)
	}
	if c.LetterFrequency == nil {
		c.LetterFrequency = make(map[rune]int)
	}
	return c
}

// Equal compares the statistics of two Results, ignoring provenance.
func (r Result) Equal(o Result) bool {
	return r.TotalWords == o.TotalWords &&
		r.TotalLetters == o.TotalLetters &&
		r.LongestWord == o.LongestWord &&
		r.LongestWordOffset == o.LongestWordOffset &&
		r.SkippedWords == o.SkippedWords &&
		r.MalformedWords == o.MalformedWords &&
		r.BytesRead == o.BytesRead &&
		maps.Equal(r.WordFrequency, o.WordFrequency) &&
		maps.Equal(r.LetterFrequency, o.LetterFrequency)
}

// longerWord reports whether candidate beats current for LongestWord.
func longerWord(candidate string, candidateOffset int64, current string, currentOffset int64) bool {
	cl, ol := utf8.RuneCountInString(candidate), utf8.RuneCountInString(current)
	if cl != ol {
		return cl > ol
	}
	return candidate != "" && candidateOffset < currentOffset
}
