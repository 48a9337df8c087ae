// Package detector guesses the natural language of an analyzed text from its
// most frequent words.
package detector

import (
	"strings"
	"sync"

	"github.com/dtnitsch/text-analyzer/pkg/mapreduce"
	"github.com/pemistahl/lingua-go"
)

// MinWords is the fewest distinct words worth guessing from.
const MinWords = 3

var languages = []lingua.Language{
	lingua.English,
	lingua.French,
	lingua.German,
	lingua.Spanish,
	lingua.Italian,
	lingua.Portuguese,
	lingua.Dutch,
	lingua.Swedish,
	lingua.Danish,
	lingua.Polish,
	lingua.Turkish,
	lingua.Latin,
}

var (
	buildOnce sync.Once
	detector  lingua.LanguageDetector
)

// languageDetector builds the lingua detector on first use; loading the
// models is slow and the detector is safe for concurrent use.
func languageDetector() lingua.LanguageDetector {
	buildOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(languages...).
			WithLowAccuracyMode().
			Build()
	})
	return detector
}

// DetectLanguage returns the lowercase name of the language the ranked words
// most likely belong to. ok is false when there are too few words or lingua
// cannot decide.
func DetectLanguage(entries []mapreduce.Entry) (language string, ok bool) {
	if len(entries) < MinWords {
		return "", false
	}

	words := make([]string, len(entries))
	for i, e := range entries {
		words[i] = e.Key
	}

	lang, ok := languageDetector().DetectLanguageOf(strings.Join(words, " "))
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.String()), true
}
