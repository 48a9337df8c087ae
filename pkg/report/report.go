// Package report turns a finished analysis into something a person or a
// script can read.
package report

import (
	"time"

	"github.com/dtnitsch/text-analyzer/pkg/analytics"
	"github.com/dtnitsch/text-analyzer/pkg/mapreduce"
)

// Report is the presentation form of an analytics.Result.
type Report struct {
	Source       string    `json:"source" yaml:"source"`
	ScanTime     time.Time `json:"scan_time" yaml:"scan_time"`
	TotalWords   int       `json:"total_words" yaml:"total_words"`
	TotalLetters int       `json:"total_letters" yaml:"total_letters"`
	UniqueWords  int       `json:"unique_words" yaml:"unique_words"`
	LongestWord  string    `json:"longest_word" yaml:"longest_word"`

	SkippedWords   int `json:"skipped_words,omitempty" yaml:"skipped_words,omitempty"`
	MalformedWords int `json:"malformed_words,omitempty" yaml:"malformed_words,omitempty"`

	Language string `json:"language,omitempty" yaml:"language,omitempty"`

	TopWords   []mapreduce.Entry `json:"top_words" yaml:"top_words"`
	TopLetters []mapreduce.Entry `json:"top_letters" yaml:"top_letters"`

	Run *RunInfo `json:"run,omitempty" yaml:"run,omitempty"`
}

// RunInfo describes how the result was produced.
type RunInfo struct {
	Workers   int           `json:"workers,omitempty" yaml:"workers,omitempty"`
	BlockSize int           `json:"block_size,omitempty" yaml:"block_size,omitempty"`
	BytesRead int64         `json:"bytes_read" yaml:"bytes_read"`
	Duration  time.Duration `json:"duration_ns" yaml:"duration"`
	Cached    bool          `json:"cached,omitempty" yaml:"cached,omitempty"`
	ScanID    int64         `json:"scan_id,omitempty" yaml:"scan_id,omitempty"`
}

// Build ranks the histograms of res and keeps the topN entries of each.
func Build(res analytics.Result, topN int) Report {
	return Report{
		Source:         res.SourceName,
		ScanTime:       res.ScanTime,
		TotalWords:     res.TotalWords,
		TotalLetters:   res.TotalLetters,
		UniqueWords:    len(res.WordFrequency),
		LongestWord:    res.LongestWord,
		SkippedWords:   res.SkippedWords,
		MalformedWords: res.MalformedWords,
		TopWords:       mapreduce.TopWords(res.WordFrequency, topN),
		TopLetters:     mapreduce.TopLetters(res.LetterFrequency, topN),
	}
}
