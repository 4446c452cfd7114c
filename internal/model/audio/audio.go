package audio

// Reference points at the most recently uploaded audio file for a client.
type Reference struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

// SpeakerSegment is one diarized turn. Segments arrive ordered by start time
// and always satisfy Start <= End.
type SpeakerSegment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

// PipelineResult is the combined output of one diarization + transcription run.
type PipelineResult struct {
	Speakers   []SpeakerSegment `json:"speakers"`
	Transcript string           `json:"transcript"`
}
