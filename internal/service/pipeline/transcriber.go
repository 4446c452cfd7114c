package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Transcriber converts an audio file into transcript text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// HTTPTranscriber calls the external speech-to-text service.
type HTTPTranscriber struct {
	baseURL string
	client  *httpClient
}

// NewHTTPTranscriber builds a client against the transcriber base URL.
func NewHTTPTranscriber(baseURL string, timeout time.Duration) *HTTPTranscriber {
	return &HTTPTranscriber{baseURL: baseURL, client: newHTTPClient(timeout)}
}

type transcribeResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads the audio and returns the full transcript.
func (t *HTTPTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	body, err := t.client.postAudio(ctx, t.baseURL+"/transcribe", audioPath)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	defer body.Close()

	var out transcribeResponse
	if err := json.NewDecoder(body).Decode(&out); err != nil {
		return "", fmt.Errorf("transcribe decode: %w", err)
	}
	return out.Text, nil
}
