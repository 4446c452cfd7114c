package sentiment

import (
	"math"
	"strings"

	"github.com/audiolens/backend/internal/model/analysis"
)

// Lexicon-based polarity scorer. It is the always-available fallback behind
// the LLM classifier and must stay pure and deterministic.

var positiveWords = map[string]bool{
	"good": true, "great": true, "nice": true, "excellent": true, "amazing": true,
	"awesome": true, "love": true, "loved": true, "happy": true, "glad": true,
	"wonderful": true, "fantastic": true, "perfect": true, "thanks": true,
	"thank": true, "pleased": true, "helpful": true, "impressive": true,
	"brilliant": true, "enjoy": true, "enjoyed": true, "best": true, "well": true,
	"fine": true, "super": true, "delighted": true, "appreciate": true,
	"appreciated": true, "kind": true, "smooth": true, "win": true, "works": true,
}

var negativeWords = map[string]bool{
	"bad": true, "terrible": true, "horrible": true, "awful": true, "worst": true,
	"hate": true, "hated": true, "angry": true, "annoying": true, "useless": true,
	"stupid": true, "idiot": true, "idiotic": true, "dumb": true, "moron": true,
	"pathetic": true, "disgusting": true, "gross": true, "miserable": true,
	"ridiculous": true, "nonsense": true, "lazy": true, "fool": true, "loser": true,
	"jerk": true, "lame": true, "trash": true, "broken": true, "fail": true,
	"failed": true, "wrong": true, "sad": true, "upset": true, "nasty": true,
	"shameless": true, "horrific": true, "poor": true, "disappointed": true,
	"disappointing": true, "sucks": true, "suck": true, "damn": true, "hell": true,
}

// negators flip the polarity of the word that follows them.
var negators = map[string]bool{
	"not": true, "no": true, "never": true, "don't": true, "dont": true,
	"isn't": true, "isnt": true, "wasn't": true, "wasnt": true, "can't": true,
	"cant": true, "won't": true, "wont": true,
}

// Score rates one sentence on the four sentiment axes. Compound is the
// normalized overall polarity in [-1, 1].
func Score(text string) analysis.SentimentScore {
	words := Tokenize(text)
	if len(words) == 0 {
		return analysis.SentimentScore{Neutral: 1}
	}

	var raw float64
	posHits, negHits := 0, 0

	for i, word := range words {
		polarity := 0.0
		switch {
		case positiveWords[word]:
			polarity = 1
		case negativeWords[word]:
			polarity = -1
		default:
			continue
		}

		if i > 0 && negators[words[i-1]] {
			polarity = -polarity
		}

		if polarity > 0 {
			posHits++
		} else {
			negHits++
		}
		raw += polarity
	}

	// An exclamation amplifies whatever polarity is already there.
	if exclamations := strings.Count(text, "!"); exclamations > 0 && raw != 0 {
		boost := float64(exclamations) * 0.3
		if raw > 0 {
			raw += boost
		} else {
			raw -= boost
		}
	}

	total := float64(len(words))
	pos := float64(posHits) / total
	neg := float64(negHits) / total
	neu := 1 - pos - neg
	if neu < 0 {
		neu = 0
	}

	return analysis.SentimentScore{
		Positive: round4(pos),
		Negative: round4(neg),
		Neutral:  round4(neu),
		Compound: round4(raw / math.Sqrt(raw*raw+15)),
	}
}

// Tokenize lowercases and strips surrounding punctuation, keeping internal
// apostrophes so contractions survive.
func Tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	words := make([]string, 0, len(fields))
	for _, field := range fields {
		word := strings.Trim(field, ".,!?;:\"()[]")
		if word != "" {
			words = append(words, word)
		}
	}
	return words
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
