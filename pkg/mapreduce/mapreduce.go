package mapreduce

import "github.com/dtnitsch/text-analyzer/pkg/analytics"

// Reduce folds a slice of per-worker Results into a single Result, left to
// right. The inputs are not modified.
func Reduce(intermediate []analytics.Result) analytics.Result {
	final := analytics.Result{
		WordFrequency:   make(map[string]int),
		LetterFrequency: make(map[rune]int),
	}

	for _, r := range intermediate {
		final.Absorb(r)
	}

	return final
}
