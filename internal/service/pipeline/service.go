package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/audiolens/backend/internal/model/audio"
)

var ErrFileMissing = errors.New("audio file missing from storage")

// Service wraps the two acoustic collaborators behind a single call.
//
// Failure policy: diarization is best-effort and degrades to an empty
// segment list; transcription is required and fails the whole call. A
// pipeline failure is a distinct kind from per-sentence analysis failures.
type Service struct {
	diarizer    Diarizer
	transcriber Transcriber
}

// NewService wires the collaborators.
func NewService(diarizer Diarizer, transcriber Transcriber) *Service {
	return &Service{diarizer: diarizer, transcriber: transcriber}
}

// Process runs diarization and transcription against the referenced audio.
func (s *Service) Process(ctx context.Context, ref audio.Reference) (*audio.PipelineResult, error) {
	if _, err := os.Stat(ref.Path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileMissing, ref.Path)
	}

	speakers, err := s.diarizer.Diarize(ctx, ref.Path)
	if err != nil {
		log.Printf("[pipeline] diarization failed, continuing without speakers: %v", err)
		speakers = []audio.SpeakerSegment{}
	}
	if speakers == nil {
		speakers = []audio.SpeakerSegment{}
	}

	transcript, err := s.transcriber.Transcribe(ctx, ref.Path)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	return &audio.PipelineResult{Speakers: speakers, Transcript: transcript}, nil
}
