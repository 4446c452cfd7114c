package analysis

// SentenceUnit is one splitter-produced sentence. Index is the 0-based
// position in the split order; units are immutable once produced.
type SentenceUnit struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// SentimentScore carries the per-axis sentiment for one sentence.
// Compound is normalized to [-1, 1] and drives downstream flagging only.
type SentimentScore struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
	Compound float64 `json:"compound"`
}

// IsNegative reports whether the sentence should be flagged for negative tone.
func (s SentimentScore) IsNegative() bool {
	return s.Compound < 0
}

// ProfanityLabel is an ordered three-level severity.
type ProfanityLabel string

const (
	Clean         ProfanityLabel = "Clean"
	MildlyProfane ProfanityLabel = "Mildly Profane"
	Profane       ProfanityLabel = "Profane"
)

// SentenceAnalysis is the normalized per-sentence record.
type SentenceAnalysis struct {
	Sentence  SentenceUnit   `json:"sentence"`
	Sentiment SentimentScore `json:"sentiment"`
	Profanity ProfanityLabel `json:"profanity"`
}

// SentenceResult wraps a SentenceAnalysis with explicit failure state so the
// stream loop never has to recover from a raised fault mid-run.
type SentenceResult struct {
	Analysis SentenceAnalysis
	Failed   bool
	Err      string
}

// Summary aggregates a full-transcript analysis for the upload response.
type Summary struct {
	TotalSentences             int `json:"total_sentences"`
	ProfaneSentences           int `json:"profane_sentences"`
	NegativeSentimentSentences int `json:"negative_sentiment_sentences"`
}

// Summarize counts flagged sentences across successful analyses.
func Summarize(items []SentenceAnalysis) Summary {
	summary := Summary{TotalSentences: len(items)}
	for _, item := range items {
		if item.Profanity != Clean {
			summary.ProfaneSentences++
		}
		if item.Sentiment.IsNegative() {
			summary.NegativeSentimentSentences++
		}
	}
	return summary
}
