package sentence

import (
	"strings"

	"github.com/audiolens/backend/internal/model/analysis"
)

// Split partitions a transcript into ordered sentence units. Sentences end at
// '.', '!' or '?'; fragments that are empty after trimming are discarded and
// never consume an index.
func Split(text string) []analysis.SentenceUnit {
	units := make([]analysis.SentenceUnit, 0, 8)

	fragments := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	for _, fragment := range fragments {
		trimmed := strings.TrimSpace(fragment)
		if trimmed == "" {
			continue
		}
		units = append(units, analysis.SentenceUnit{Index: len(units), Text: trimmed})
	}

	return units
}
