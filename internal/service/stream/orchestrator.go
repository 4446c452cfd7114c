package stream

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/audiolens/backend/internal/analysis/sentence"
	analysismodel "github.com/audiolens/backend/internal/model/analysis"
	"github.com/audiolens/backend/internal/model/audio"
	"github.com/audiolens/backend/internal/model/stream"
	"github.com/audiolens/backend/internal/service/pipeline"
	"github.com/audiolens/backend/internal/service/session"
)

// Sink is one duplex channel to a client. Open is the single authoritative
// liveness query; Send on a closed sink must be a no-op, never a fault.
type Sink interface {
	Send(v any) error
	Open() bool
}

// SessionResolver looks up the latest upload for a client key.
type SessionResolver interface {
	Latest(ctx context.Context, key string) (audio.Reference, error)
}

// AudioPipeline runs diarization + transcription.
type AudioPipeline interface {
	Process(ctx context.Context, ref audio.Reference) (*audio.PipelineResult, error)
}

// SentenceAnalyzer scores one sentence, reporting failure as a value.
type SentenceAnalyzer interface {
	Analyze(ctx context.Context, unit analysismodel.SentenceUnit) analysismodel.SentenceResult
}

// Orchestrator drives the trigger -> pipeline -> per-sentence stream protocol
// for a single channel. Sentences are processed strictly sequentially per
// channel; separate channels run independently.
type Orchestrator struct {
	sessions SessionResolver
	pipeline AudioPipeline
	analyzer SentenceAnalyzer
	pacer    Pacer
}

// New wires the orchestrator's collaborators.
func New(sessions SessionResolver, audioPipeline AudioPipeline, analyzer SentenceAnalyzer, pacer Pacer) *Orchestrator {
	if pacer == nil {
		pacer = NewRandomPacer()
	}
	return &Orchestrator{
		sessions: sessions,
		pipeline: audioPipeline,
		analyzer: analyzer,
		pacer:    pacer,
	}
}

// Run serves one trigger on the full analysis channel. Recoverable failures
// (no upload, missing file, pipeline error) are reported over the sink and
// leave the channel open for another trigger; Run never returns an error for
// them. The rolling result buffer is rebuilt on every call. The return value
// reports whether the audio pipeline ran.
func (o *Orchestrator) Run(ctx context.Context, clientKey string, sink Sink) bool {
	result, units, ok := o.processAudio(ctx, clientKey, sink)
	if !ok {
		return false
	}

	o.send(sink, stream.Metadata{
		Message:               stream.MetadataText,
		Speakers:              result.Speakers,
		TotalTranscriptLength: len(result.Transcript),
	})

	fullResults := make([]stream.Progress, 0, len(units))

	for _, unit := range units {
		if ctx.Err() != nil || !sink.Open() {
			return true
		}

		res := o.analyzer.Analyze(ctx, unit)
		if res.Failed {
			o.send(sink, stream.SentenceError{
				Message:       stream.SentenceErrorText,
				SentenceIndex: unit.Index,
				Error:         res.Err,
				Text:          unit.Text,
			})
			o.pacer.Pause(ctx)
			continue
		}

		progress := stream.Progress{
			Message:       stream.ProgressText,
			SentenceIndex: unit.Index,
			Text:          unit.Text,
			Sentiment:     res.Analysis.Sentiment,
			Profanity:     res.Analysis.Profanity,
			Flags: stream.Flags{
				IsNegativeSentiment: res.Analysis.Sentiment.IsNegative(),
				IsProfane:           res.Analysis.Profanity != analysismodel.Clean,
			},
		}
		fullResults = append(fullResults, progress)
		o.send(sink, progress)

		o.pacer.Pause(ctx)
	}

	if ctx.Err() != nil || !sink.Open() {
		return true
	}

	o.send(sink, stream.Complete{
		Message:     stream.CompleteText,
		FullResults: fullResults,
	})
	return true
}

// RunGraph serves one trigger on the rolling-graph channel. Failed sentences
// are skipped silently; the three buffers grow in lockstep. The return value
// reports whether the audio pipeline ran.
func (o *Orchestrator) RunGraph(ctx context.Context, clientKey string, sink Sink) bool {
	_, units, ok := o.processAudio(ctx, clientKey, sink)
	if !ok {
		return false
	}

	data := stream.GraphData{
		Timestamps:      make([]int, 0, len(units)),
		SentimentScores: make([]float64, 0, len(units)),
		ProfanityFlags:  make([]int, 0, len(units)),
	}

	for _, unit := range units {
		if ctx.Err() != nil || !sink.Open() {
			return true
		}

		res := o.analyzer.Analyze(ctx, unit)
		if res.Failed {
			continue
		}

		flag := 0
		if res.Analysis.Profanity != analysismodel.Clean {
			flag = 1
		}
		data.Timestamps = append(data.Timestamps, unit.Index)
		data.SentimentScores = append(data.SentimentScores, res.Analysis.Sentiment.Compound)
		data.ProfanityFlags = append(data.ProfanityFlags, flag)

		o.send(sink, stream.GraphUpdate{
			Type:            stream.TypeGraphUpdate,
			Timestamps:      data.Timestamps,
			SentimentScores: data.SentimentScores,
			ProfanityFlags:  data.ProfanityFlags,
		})

		o.pacer.Pause(ctx)
	}

	if ctx.Err() != nil || !sink.Open() {
		return true
	}

	o.send(sink, stream.GraphComplete{
		Type:      stream.TypeGraphComplete,
		FinalData: data,
	})
	return true
}

// processAudio resolves the upload and runs the acoustic pipeline, emitting
// the appropriate recoverable error when either step fails.
func (o *Orchestrator) processAudio(ctx context.Context, clientKey string, sink Sink) (*audio.PipelineResult, []analysismodel.SentenceUnit, bool) {
	ref, err := o.sessions.Latest(ctx, clientKey)
	if err != nil {
		if errors.Is(err, session.ErrNoUpload) {
			o.send(sink, stream.SessionError{Error: "No file uploaded yet."})
		} else {
			o.send(sink, stream.SessionError{Error: err.Error()})
		}
		return nil, nil, false
	}

	result, err := o.pipeline.Process(ctx, ref)
	if err != nil {
		if errors.Is(err, pipeline.ErrFileMissing) {
			o.send(sink, stream.SessionError{Error: fmt.Sprintf("File not found: %s", ref.Path)})
		} else {
			o.send(sink, stream.PipelineError{
				Error: fmt.Sprintf("Processing failed: %v", err),
				Stage: stream.StageAudio,
			})
		}
		return nil, nil, false
	}

	return result, sentence.Split(result.Transcript), true
}

// send writes to the sink when it is still open. Send errors are logged and
// absorbed: a dying transport must never become a process fault.
func (o *Orchestrator) send(sink Sink, v any) {
	if !sink.Open() {
		return
	}
	if err := sink.Send(v); err != nil {
		log.Printf("[stream] send failed: %v", err)
	}
}
