package stream

import (
	"context"
	"errors"
	"reflect"
	"testing"

	analysismodel "github.com/audiolens/backend/internal/model/analysis"
	"github.com/audiolens/backend/internal/model/audio"
	"github.com/audiolens/backend/internal/model/stream"
	"github.com/audiolens/backend/internal/service/session"
)

type fakeResolver struct {
	ref audio.Reference
	err error
}

func (f *fakeResolver) Latest(context.Context, string) (audio.Reference, error) {
	return f.ref, f.err
}

type fakePipeline struct {
	result *audio.PipelineResult
	err    error
	calls  int
}

func (f *fakePipeline) Process(context.Context, audio.Reference) (*audio.PipelineResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeAnalyzer struct {
	failIndex int // -1 for never
}

func (f *fakeAnalyzer) Analyze(_ context.Context, unit analysismodel.SentenceUnit) analysismodel.SentenceResult {
	if unit.Index == f.failIndex {
		return analysismodel.SentenceResult{
			Analysis: analysismodel.SentenceAnalysis{Sentence: unit},
			Failed:   true,
			Err:      "classifier unavailable",
		}
	}

	compound := 0.5
	label := analysismodel.Clean
	if unit.Text == "You are an idiot" {
		compound = -0.5
		label = analysismodel.Profane
	}
	return analysismodel.SentenceResult{
		Analysis: analysismodel.SentenceAnalysis{
			Sentence:  unit,
			Sentiment: analysismodel.SentimentScore{Compound: compound},
			Profanity: label,
		},
	}
}

// recordingSink captures sent messages and can close itself after a fixed
// number of sends to simulate a mid-stream disconnect.
type recordingSink struct {
	messages   []any
	closeAfter int // 0 means never
}

func (s *recordingSink) Send(v any) error {
	if !s.Open() {
		return errors.New("send on closed sink")
	}
	s.messages = append(s.messages, v)
	return nil
}

func (s *recordingSink) Open() bool {
	return s.closeAfter == 0 || len(s.messages) < s.closeAfter
}

func newOrchestrator(resolver *fakeResolver, pipe *fakePipeline, analyzer *fakeAnalyzer) *Orchestrator {
	return New(resolver, pipe, analyzer, NopPacer{})
}

func transcriptFixture() (*fakeResolver, *fakePipeline) {
	resolver := &fakeResolver{ref: audio.Reference{Filename: "call.wav", Path: "/uploads/call.wav"}}
	pipe := &fakePipeline{result: &audio.PipelineResult{
		Speakers:   []audio.SpeakerSegment{{Start: 0, End: 2.5, Speaker: "SPEAKER_00"}},
		Transcript: "Good work. You are an idiot. Have a nice day.",
	}}
	return resolver, pipe
}

func TestRunHappyPath(t *testing.T) {
	resolver, pipe := transcriptFixture()
	orch := newOrchestrator(resolver, pipe, &fakeAnalyzer{failIndex: -1})
	sink := &recordingSink{}

	orch.Run(context.Background(), "latest", sink)

	if len(sink.messages) != 5 {
		t.Fatalf("expected metadata + 3 progress + complete, got %d messages", len(sink.messages))
	}

	meta, ok := sink.messages[0].(stream.Metadata)
	if !ok {
		t.Fatalf("first message is %T, want Metadata", sink.messages[0])
	}
	if meta.Message != stream.MetadataText || len(meta.Speakers) != 1 {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
	if meta.TotalTranscriptLength != len(pipe.result.Transcript) {
		t.Fatalf("unexpected transcript length: %d", meta.TotalTranscriptLength)
	}

	for i := 1; i <= 3; i++ {
		progress, ok := sink.messages[i].(stream.Progress)
		if !ok {
			t.Fatalf("message %d is %T, want Progress", i, sink.messages[i])
		}
		if progress.SentenceIndex != i-1 {
			t.Fatalf("progress %d has index %d", i, progress.SentenceIndex)
		}
	}

	complete, ok := sink.messages[4].(stream.Complete)
	if !ok {
		t.Fatalf("last message is %T, want Complete", sink.messages[4])
	}
	if len(complete.FullResults) != 3 {
		t.Fatalf("expected 3 full results, got %d", len(complete.FullResults))
	}
	for i, result := range complete.FullResults {
		if result.SentenceIndex != i {
			t.Fatalf("full result %d has index %d", i, result.SentenceIndex)
		}
	}
	if complete.FullResults[1].Profanity != analysismodel.Profane {
		t.Fatalf("expected sentence 1 Profane, got %s", complete.FullResults[1].Profanity)
	}
	if !complete.FullResults[1].Flags.IsProfane || !complete.FullResults[1].Flags.IsNegativeSentiment {
		t.Fatalf("expected both flags on sentence 1: %+v", complete.FullResults[1].Flags)
	}
}

func TestRunPerSentenceFailureIsIsolated(t *testing.T) {
	resolver, pipe := transcriptFixture()
	orch := newOrchestrator(resolver, pipe, &fakeAnalyzer{failIndex: 1})
	sink := &recordingSink{}

	orch.Run(context.Background(), "latest", sink)

	var progressIndices []int
	var errorIndices []int
	var complete *stream.Complete
	for _, msg := range sink.messages {
		switch m := msg.(type) {
		case stream.Progress:
			progressIndices = append(progressIndices, m.SentenceIndex)
		case stream.SentenceError:
			errorIndices = append(errorIndices, m.SentenceIndex)
		case stream.Complete:
			c := m
			complete = &c
		}
	}

	// Progress + sentence errors cover exactly 0..N-1 in order.
	if !reflect.DeepEqual(progressIndices, []int{0, 2}) {
		t.Fatalf("unexpected progress indices: %v", progressIndices)
	}
	if !reflect.DeepEqual(errorIndices, []int{1}) {
		t.Fatalf("unexpected error indices: %v", errorIndices)
	}
	if complete == nil {
		t.Fatalf("stream did not complete")
	}
	if len(complete.FullResults) != 2 {
		t.Fatalf("expected 2 successful results, got %d", len(complete.FullResults))
	}
}

func TestRunNoUploadKeepsChannelUsable(t *testing.T) {
	store := session.NewStore()
	_, pipe := transcriptFixture()
	orch := New(store, pipe, &fakeAnalyzer{failIndex: -1}, NopPacer{})
	sink := &recordingSink{}
	ctx := context.Background()

	orch.Run(ctx, "latest", sink)

	if len(sink.messages) != 1 {
		t.Fatalf("expected a single error message, got %d", len(sink.messages))
	}
	sessionErr, ok := sink.messages[0].(stream.SessionError)
	if !ok {
		t.Fatalf("message is %T, want SessionError", sink.messages[0])
	}
	if sessionErr.Error != "No file uploaded yet." {
		t.Fatalf("unexpected error text: %q", sessionErr.Error)
	}

	// A retry on the same channel after an upload must work. The fake
	// pipeline ignores the reference so any path will do.
	store.Put(ctx, "latest", audio.Reference{Filename: "call.wav", Path: "/uploads/call.wav"})
	sink.messages = nil
	orch.Run(ctx, "latest", sink)

	if _, ok := sink.messages[len(sink.messages)-1].(stream.Complete); !ok {
		t.Fatalf("expected retry to complete, last message %T", sink.messages[len(sink.messages)-1])
	}
}

func TestRunPipelineFailure(t *testing.T) {
	resolver, _ := transcriptFixture()
	pipe := &fakePipeline{err: errors.New("whisper crashed")}
	orch := newOrchestrator(resolver, pipe, &fakeAnalyzer{failIndex: -1})
	sink := &recordingSink{}

	orch.Run(context.Background(), "latest", sink)

	if len(sink.messages) != 1 {
		t.Fatalf("expected only the pipeline error, got %d messages", len(sink.messages))
	}
	pipelineErr, ok := sink.messages[0].(stream.PipelineError)
	if !ok {
		t.Fatalf("message is %T, want PipelineError", sink.messages[0])
	}
	if pipelineErr.Stage != stream.StageAudio {
		t.Fatalf("unexpected stage: %q", pipelineErr.Stage)
	}
}

func TestRunStopsWhenSinkCloses(t *testing.T) {
	resolver := &fakeResolver{ref: audio.Reference{Path: "/uploads/call.wav"}}
	pipe := &fakePipeline{result: &audio.PipelineResult{
		Transcript: "One. Two. Three. Four. Five.",
	}}
	orch := newOrchestrator(resolver, pipe, &fakeAnalyzer{failIndex: -1})

	// Closes after metadata + two progress messages, i.e. mid-stream after
	// sentence index 1 of 5.
	sink := &recordingSink{closeAfter: 3}

	orch.Run(context.Background(), "latest", sink)

	if len(sink.messages) != 3 {
		t.Fatalf("expected emission to stop at close, got %d messages", len(sink.messages))
	}
	if _, ok := sink.messages[len(sink.messages)-1].(stream.Progress); !ok {
		t.Fatalf("last message should be Progress, got %T", sink.messages[len(sink.messages)-1])
	}
}

func TestRunMetadataIdempotent(t *testing.T) {
	resolver, pipe := transcriptFixture()
	orch := newOrchestrator(resolver, pipe, &fakeAnalyzer{failIndex: -1})

	first := &recordingSink{}
	orch.Run(context.Background(), "latest", first)
	second := &recordingSink{}
	orch.Run(context.Background(), "latest", second)

	metaA := first.messages[0].(stream.Metadata)
	metaB := second.messages[0].(stream.Metadata)
	if !reflect.DeepEqual(metaA.Speakers, metaB.Speakers) {
		t.Fatalf("speakers differ between runs")
	}
	if metaA.TotalTranscriptLength != metaB.TotalTranscriptLength {
		t.Fatalf("transcript length differs between runs")
	}
	if pipe.calls != 2 {
		t.Fatalf("expected 2 pipeline runs, got %d", pipe.calls)
	}
}

func TestRunGraphBuffersStayAligned(t *testing.T) {
	resolver, pipe := transcriptFixture()
	orch := newOrchestrator(resolver, pipe, &fakeAnalyzer{failIndex: -1})
	sink := &recordingSink{}

	orch.RunGraph(context.Background(), "latest", sink)

	updates := 0
	for _, msg := range sink.messages {
		update, ok := msg.(stream.GraphUpdate)
		if !ok {
			continue
		}
		updates++
		if update.Type != stream.TypeGraphUpdate {
			t.Fatalf("unexpected update type: %q", update.Type)
		}
		if len(update.Timestamps) != len(update.SentimentScores) ||
			len(update.Timestamps) != len(update.ProfanityFlags) {
			t.Fatalf("buffers out of lockstep: %d/%d/%d",
				len(update.Timestamps), len(update.SentimentScores), len(update.ProfanityFlags))
		}
	}
	if updates != 3 {
		t.Fatalf("expected 3 graph updates, got %d", updates)
	}

	final, ok := sink.messages[len(sink.messages)-1].(stream.GraphComplete)
	if !ok {
		t.Fatalf("last message is %T, want GraphComplete", sink.messages[len(sink.messages)-1])
	}
	if final.Type != stream.TypeGraphComplete {
		t.Fatalf("unexpected type: %q", final.Type)
	}
	if !reflect.DeepEqual(final.FinalData.Timestamps, []int{0, 1, 2}) {
		t.Fatalf("unexpected final timestamps: %v", final.FinalData.Timestamps)
	}
	if final.FinalData.ProfanityFlags[1] != 1 {
		t.Fatalf("expected sentence 1 flagged profane in graph data")
	}
}

func TestRunGraphSkipsFailedSentences(t *testing.T) {
	resolver, pipe := transcriptFixture()
	orch := newOrchestrator(resolver, pipe, &fakeAnalyzer{failIndex: 0})
	sink := &recordingSink{}

	orch.RunGraph(context.Background(), "latest", sink)

	final := sink.messages[len(sink.messages)-1].(stream.GraphComplete)
	if !reflect.DeepEqual(final.FinalData.Timestamps, []int{1, 2}) {
		t.Fatalf("expected failed sentence skipped, got %v", final.FinalData.Timestamps)
	}
}

func TestRunCanceledContextStopsStream(t *testing.T) {
	resolver, pipe := transcriptFixture()
	orch := newOrchestrator(resolver, pipe, &fakeAnalyzer{failIndex: -1})
	sink := &recordingSink{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	orch.Run(ctx, "latest", sink)

	for _, msg := range sink.messages {
		if _, ok := msg.(stream.Complete); ok {
			t.Fatalf("stream must not complete under a canceled context")
		}
	}
}

func TestSendOnClosedSinkIsNoOp(t *testing.T) {
	orch := newOrchestrator(&fakeResolver{}, &fakePipeline{}, &fakeAnalyzer{failIndex: -1})
	sink := &recordingSink{closeAfter: 1}
	sink.messages = append(sink.messages, "occupied") // force closed

	// Must not panic and must not grow the message log.
	orch.send(sink, stream.SessionError{Error: "ignored"})
	if len(sink.messages) != 1 {
		t.Fatalf("send on closed sink must not emit, got %d messages", len(sink.messages))
	}
}
