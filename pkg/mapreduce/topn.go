package mapreduce

import (
	"fmt"
	"sort"
)

// Entry is one ranked histogram bucket.
type Entry struct {
	Key   string `json:"key" yaml:"key"`
	Count int    `json:"count" yaml:"count"`
}

// TopWords returns the n most frequent words, most frequent first.
// Ties are ordered by key so the ranking is stable across runs.
func TopWords(wordCounts map[string]int, n int) []Entry {
	ss := make([]Entry, 0, len(wordCounts))
	for k, v := range wordCounts {
		ss = append(ss, Entry{k, v})
	}
	return rank(ss, n)
}

// TopLetters is TopWords for the letter histogram.
func TopLetters(letterCounts map[rune]int, n int) []Entry {
	ss := make([]Entry, 0, len(letterCounts))
	for k, v := range letterCounts {
		ss = append(ss, Entry{string(k), v})
	}
	return rank(ss, n)
}

func rank(ss []Entry, n int) []Entry {
	sort.Slice(ss, func(i, j int) bool {
		if ss[i].Count != ss[j].Count {
			return ss[i].Count > ss[j].Count
		}
		return ss[i].Key < ss[j].Key
	})

	limit := n
	if len(ss) < n {
		limit = len(ss)
	}
	if limit < 0 {
		limit = 0
	}

	return ss[:limit]
}

// TopKeywords returns the top N words formatted as "word:count"
// (e.g., "learning:1153").
func TopKeywords(wordCounts map[string]int, n int) []string {
	top := TopWords(wordCounts, n)

	keywords := make([]string, len(top))
	for i, e := range top {
		keywords[i] = fmt.Sprintf("%s:%d", e.Key, e.Count)
	}

	return keywords
}
