package stream

import (
	"github.com/audiolens/backend/internal/model/analysis"
	"github.com/audiolens/backend/internal/model/audio"
)

// Wire messages for the analysis websocket. Field names and message text are
// part of the client contract; changing them breaks the frontend.

// Metadata is sent once per run, after the audio pipeline succeeds.
type Metadata struct {
	Message               string                 `json:"message"`
	Speakers              []audio.SpeakerSegment `json:"speakers"`
	TotalTranscriptLength int                    `json:"total_transcript_length"`
}

// Progress is sent for each successfully analyzed sentence, in index order.
type Progress struct {
	Message       string                  `json:"message"`
	SentenceIndex int                     `json:"sentence_index"`
	Text          string                  `json:"text"`
	Sentiment     analysis.SentimentScore `json:"sentiment"`
	Profanity     analysis.ProfanityLabel `json:"profanity"`
	Flags         Flags                   `json:"flags"`
}

// Flags carries the derived per-sentence booleans.
type Flags struct {
	IsNegativeSentiment bool `json:"is_negative_sentiment"`
	IsProfane           bool `json:"is_profane"`
}

// SentenceError reports a single failed sentence; the stream continues.
type SentenceError struct {
	Message       string `json:"message"`
	SentenceIndex int    `json:"sentence_index"`
	Error         string `json:"error"`
	Text          string `json:"text"`
}

// PipelineError reports a whole-pipeline failure.
type PipelineError struct {
	Error string `json:"error"`
	Stage string `json:"stage"`
}

// SessionError covers recoverable pre-pipeline failures (no upload yet,
// missing file). The channel stays open for a retry.
type SessionError struct {
	Error string `json:"error"`
}

// Complete terminates a successful run with the accumulated results.
type Complete struct {
	Message     string     `json:"message"`
	FullResults []Progress `json:"full_results"`
}

// GraphUpdate is the rolling-graph variant payload, re-sent per sentence with
// the full buffers so the client can redraw from scratch.
type GraphUpdate struct {
	Type            string    `json:"type"`
	Timestamps      []int     `json:"timestamps"`
	SentimentScores []float64 `json:"sentiment_scores"`
	ProfanityFlags  []int     `json:"profanity_flags"`
}

// GraphComplete ends a graph run.
type GraphComplete struct {
	Type      string    `json:"type"`
	FinalData GraphData `json:"final_data"`
}

// GraphData is the rolling buffer; the three slices are always equal length
// and index i across all three describes the same sentence.
type GraphData struct {
	Timestamps      []int     `json:"timestamps"`
	SentimentScores []float64 `json:"sentiment_scores"`
	ProfanityFlags  []int     `json:"profanity_flags"`
}

const (
	MetadataText      = "Audio Processing Started"
	ProgressText      = "Streaming Analysis"
	SentenceErrorText = "Sentence Analysis Error"
	CompleteText      = "Analysis Complete"
	StageAudio        = "audio_processing"
	TypeGraphUpdate   = "graph_update"
	TypeGraphComplete = "graph_complete"
)
