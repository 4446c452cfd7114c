package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/audiolens/backend/internal/analysis/profanity"
	"github.com/audiolens/backend/internal/analysis/sentence"
	"github.com/audiolens/backend/internal/analysis/sentiment"
	analysismodel "github.com/audiolens/backend/internal/model/analysis"
)

// Config controls the sentence analysis service.
type Config struct {
	Enabled bool
}

// Service scores sentences for sentiment and profanity. When a chat model is
// configured it runs an LLM classifier and falls back to the lexicon scorers
// on any failure; without a model the lexicons run directly.
type Service struct {
	enabled    bool
	classifier compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates the analysis service. chatModel may be nil.
func NewService(ctx context.Context, chatModel model.ChatModel, cfg Config) (*Service, error) {
	svc := &Service{enabled: cfg.Enabled && chatModel != nil}

	if !svc.enabled {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(classifierSystemPrompt),
		schema.UserMessage(classifierUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile sentence classifier chain: %w", err)
	}

	svc.classifier = runnable
	return svc, nil
}

// Enabled reports whether the LLM classifier path is active.
func (s *Service) Enabled() bool {
	return s != nil && s.enabled && s.classifier != nil
}

// Analyze scores one sentence. It never raises to the caller: a failure
// becomes a SentenceResult with Failed set so the stream can keep going.
func (s *Service) Analyze(ctx context.Context, unit analysismodel.SentenceUnit) analysismodel.SentenceResult {
	if err := ctx.Err(); err != nil {
		return analysismodel.SentenceResult{
			Analysis: analysismodel.SentenceAnalysis{Sentence: unit},
			Failed:   true,
			Err:      err.Error(),
		}
	}

	if s.Enabled() {
		if result, ok := s.classifyLLM(ctx, unit); ok {
			return result
		}
	}

	score := sentiment.Score(unit.Text)
	return analysismodel.SentenceResult{
		Analysis: analysismodel.SentenceAnalysis{
			Sentence:  unit,
			Sentiment: score,
			Profanity: profanity.Classify(unit.Text, score),
		},
	}
}

// AnalyzeTranscript splits and scores a whole transcript, dropping failed
// sentences. Used by the synchronous upload response.
func (s *Service) AnalyzeTranscript(ctx context.Context, transcript string) []analysismodel.SentenceAnalysis {
	units := sentence.Split(transcript)
	results := make([]analysismodel.SentenceAnalysis, 0, len(units))
	for _, unit := range units {
		result := s.Analyze(ctx, unit)
		if result.Failed {
			log.Printf("[analysis] sentence %d failed: %s", unit.Index, result.Err)
			continue
		}
		results = append(results, result.Analysis)
	}
	return results
}

func (s *Service) classifyLLM(ctx context.Context, unit analysismodel.SentenceUnit) (analysismodel.SentenceResult, bool) {
	input := map[string]any{"sentence": strings.TrimSpace(unit.Text)}

	msg, err := s.classifier.Invoke(ctx, input)
	if err != nil {
		log.Printf("[analysis] classifier invoke failed, using lexicons: %v", err)
		return analysismodel.SentenceResult{}, false
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return analysismodel.SentenceResult{}, false
	}

	payload, err := parseClassifierOutput(msg.Content)
	if err != nil {
		log.Printf("[analysis] classifier output parse failed, using lexicons: %v", err)
		return analysismodel.SentenceResult{}, false
	}

	label, ok := parseProfanityLabel(payload.Profanity)
	if !ok {
		return analysismodel.SentenceResult{}, false
	}

	return analysismodel.SentenceResult{
		Analysis: analysismodel.SentenceAnalysis{
			Sentence: unit,
			Sentiment: analysismodel.SentimentScore{
				Positive: clampUnit(payload.Positive),
				Negative: clampUnit(payload.Negative),
				Neutral:  clampUnit(payload.Neutral),
				Compound: clampCompound(payload.Compound),
			},
			Profanity: label,
		},
	}, true
}

// parseClassifierOutput extracts the JSON object from the model reply.
func parseClassifierOutput(content string) (*classifierPayload, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("missing json object")
	}

	payload := &classifierPayload{}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func parseProfanityLabel(raw string) (analysismodel.ProfanityLabel, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "clean":
		return analysismodel.Clean, true
	case "mildly profane", "mildly_profane", "mild":
		return analysismodel.MildlyProfane, true
	case "profane":
		return analysismodel.Profane, true
	default:
		return "", false
	}
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampCompound(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

type classifierPayload struct {
	Positive  float64 `json:"positive"`
	Negative  float64 `json:"negative"`
	Neutral   float64 `json:"neutral"`
	Compound  float64 `json:"compound"`
	Profanity string  `json:"profanity"`
	Reason    string  `json:"reason"`
}

const classifierSystemPrompt = "You rate single sentences from call transcripts. Return only a JSON object with fields: positive, negative, neutral (each 0..1), compound (-1..1), profanity (one of \"Clean\", \"Mildly Profane\", \"Profane\"), reason (short string). No extra text."

const classifierUserPrompt = "Sentence:\n{sentence}\n\nReturn the JSON."
