package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/audiolens/backend/internal/model/audio"
)

// Diarizer separates speakers in an audio file.
type Diarizer interface {
	Diarize(ctx context.Context, audioPath string) ([]audio.SpeakerSegment, error)
}

// HTTPDiarizer calls the external diarization service.
type HTTPDiarizer struct {
	baseURL string
	client  *httpClient
}

// NewHTTPDiarizer builds a client against the diarizer base URL.
func NewHTTPDiarizer(baseURL string, timeout time.Duration) *HTTPDiarizer {
	return &HTTPDiarizer{baseURL: baseURL, client: newHTTPClient(timeout)}
}

type diarizeResponse struct {
	Segments []audio.SpeakerSegment `json:"segments"`
}

// Diarize uploads the audio and returns chronological speaker segments.
func (d *HTTPDiarizer) Diarize(ctx context.Context, audioPath string) ([]audio.SpeakerSegment, error) {
	body, err := d.client.postAudio(ctx, d.baseURL+"/diarize", audioPath)
	if err != nil {
		return nil, fmt.Errorf("diarize: %w", err)
	}
	defer body.Close()

	var out diarizeResponse
	if err := json.NewDecoder(body).Decode(&out); err != nil {
		return nil, fmt.Errorf("diarize decode: %w", err)
	}
	return out.Segments, nil
}
