package upload

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	analysismodel "github.com/audiolens/backend/internal/model/analysis"
	"github.com/audiolens/backend/internal/model/audio"
	"github.com/audiolens/backend/internal/service/session"
	"github.com/audiolens/backend/internal/storage"
	"github.com/audiolens/backend/pkg/utils"
)

// AudioPipeline runs the full diarization + transcription pass.
type AudioPipeline interface {
	Process(ctx context.Context, ref audio.Reference) (*audio.PipelineResult, error)
}

// TranscriptAnalyzer scores a whole transcript sentence by sentence.
type TranscriptAnalyzer interface {
	AnalyzeTranscript(ctx context.Context, transcript string) []analysismodel.SentenceAnalysis
}

// Handler accepts audio uploads and answers with a complete analysis.
type Handler struct {
	files    *storage.FileStore
	sessions *session.Store
	pipeline AudioPipeline
	analyzer TranscriptAnalyzer
}

// New creates the upload handler.
func New(files *storage.FileStore, sessions *session.Store, pipeline AudioPipeline, analyzer TranscriptAnalyzer) *Handler {
	return &Handler{
		files:    files,
		sessions: sessions,
		pipeline: pipeline,
		analyzer: analyzer,
	}
}

// RegisterRoutes mounts the upload endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/upload-audio", h.handleUpload)
}

type uploadResponse struct {
	Filename   string                           `json:"filename"`
	Transcript string                           `json:"transcript"`
	Speakers   []audio.SpeakerSegment           `json:"speakers"`
	Analysis   []analysismodel.SentenceAnalysis `json:"analysis"`
	Summary    analysismodel.Summary            `json:"summary"`
}

type uploadError struct {
	Error    string `json:"error"`
	Filename string `json:"filename"`
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to parse multipart form: "+err.Error())
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	uploadID := uuid.NewString()

	ref, err := h.files.Save(header.Filename, file)
	if err != nil {
		log.Printf("[upload] save failed upload=%s: %v", uploadID, err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	clientKey := r.URL.Query().Get("client")
	h.sessions.Put(r.Context(), clientKey, ref)
	log.Printf("[upload] stored upload=%s client=%s file=%s path=%s", uploadID, clientKey, ref.Filename, ref.Path)

	result, err := h.pipeline.Process(r.Context(), ref)
	if err != nil {
		// Pipeline failures still answer 200 with the error and filename
		// so the client can surface both.
		log.Printf("[upload] pipeline failed upload=%s: %v", uploadID, err)
		utils.RespondJSON(w, http.StatusOK, uploadError{Error: err.Error(), Filename: ref.Filename})
		return
	}

	items := h.analyzer.AnalyzeTranscript(r.Context(), result.Transcript)

	utils.RespondJSON(w, http.StatusOK, uploadResponse{
		Filename:   ref.Filename,
		Transcript: result.Transcript,
		Speakers:   result.Speakers,
		Analysis:   items,
		Summary:    analysismodel.Summarize(items),
	})
}
