package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/audiolens/backend/internal/analysis/profanity"
	"github.com/audiolens/backend/internal/analysis/sentence"
	"github.com/audiolens/backend/internal/analysis/sentiment"
	analysismodel "github.com/audiolens/backend/internal/model/analysis"
	"github.com/audiolens/backend/internal/model/audio"
	"github.com/audiolens/backend/internal/service/session"
	"github.com/audiolens/backend/internal/storage"
)

type fakePipeline struct {
	result *audio.PipelineResult
	err    error
}

func (f *fakePipeline) Process(context.Context, audio.Reference) (*audio.PipelineResult, error) {
	return f.result, f.err
}

type lexiconAnalyzer struct{}

func (lexiconAnalyzer) AnalyzeTranscript(_ context.Context, transcript string) []analysismodel.SentenceAnalysis {
	units := sentence.Split(transcript)
	items := make([]analysismodel.SentenceAnalysis, 0, len(units))
	for _, unit := range units {
		score := sentiment.Score(unit.Text)
		items = append(items, analysismodel.SentenceAnalysis{
			Sentence:  unit,
			Sentiment: score,
			Profanity: profanity.Classify(unit.Text, score),
		})
	}
	return items
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile err: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part err: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("writer.Close err: %v", err)
	}
	return body, writer.FormDataContentType()
}

func newHandler(t *testing.T, pipe *fakePipeline) (*Handler, *session.Store) {
	t.Helper()
	files, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore err: %v", err)
	}
	sessions := session.NewStore()
	return New(files, sessions, pipe, lexiconAnalyzer{}), sessions
}

func TestHandleUploadFullAnalysis(t *testing.T) {
	pipe := &fakePipeline{result: &audio.PipelineResult{
		Speakers:   []audio.SpeakerSegment{{Start: 0, End: 3, Speaker: "SPEAKER_00"}},
		Transcript: "Good work. You are an idiot. Have a nice day.",
	}}
	handler, sessions := newHandler(t, pipe)

	body, contentType := multipartBody(t, "file", "call.wav", []byte("wav-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/upload-audio", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	handler.handleUpload(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}

	var resp uploadResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Filename != "call.wav" {
		t.Fatalf("unexpected filename: %s", resp.Filename)
	}
	if len(resp.Analysis) != 3 {
		t.Fatalf("expected 3 analyses, got %d", len(resp.Analysis))
	}
	if resp.Summary.TotalSentences != 3 || resp.Summary.ProfaneSentences != 1 || resp.Summary.NegativeSentimentSentences != 1 {
		t.Fatalf("unexpected summary: %+v", resp.Summary)
	}

	// The upload must be visible to a later stream trigger.
	ref, err := sessions.Latest(context.Background(), session.DefaultKey)
	if err != nil {
		t.Fatalf("session store not updated: %v", err)
	}
	if ref.Filename != "call.wav" {
		t.Fatalf("unexpected stored reference: %+v", ref)
	}
}

func TestHandleUploadPipelineFailureAnswers200(t *testing.T) {
	handler, _ := newHandler(t, &fakePipeline{err: errors.New("gpu on fire")})

	body, contentType := multipartBody(t, "file", "call.wav", []byte("wav-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/upload-audio", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	handler.handleUpload(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	var resp uploadError
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error == "" || resp.Filename != "call.wav" {
		t.Fatalf("unexpected error payload: %+v", resp)
	}
}

func TestHandleUploadMissingFile(t *testing.T) {
	handler, _ := newHandler(t, &fakePipeline{})

	body, contentType := multipartBody(t, "wrong-field", "call.wav", []byte("wav-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/upload-audio", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	handler.handleUpload(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHandleUploadClientKeyScoping(t *testing.T) {
	pipe := &fakePipeline{result: &audio.PipelineResult{Transcript: "Fine."}}
	handler, sessions := newHandler(t, pipe)

	body, contentType := multipartBody(t, "file", "call.wav", []byte("wav-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/upload-audio?client=alice", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	handler.handleUpload(rr, req)

	if _, err := sessions.Latest(context.Background(), "alice"); err != nil {
		t.Fatalf("expected upload under alice key: %v", err)
	}
	if _, err := sessions.Latest(context.Background(), session.DefaultKey); err == nil {
		t.Fatalf("default key must not see alice's upload")
	}
}
