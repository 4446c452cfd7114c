package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every service setting.
type Config struct {
	Server   ServerConfig
	Upload   UploadConfig
	Pipeline PipelineConfig
	AI       AIConfig
	Stream   StreamConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	upload := loadUploadConfig()

	pipelineCfg, err := loadPipelineConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	streamCfg, err := loadStreamConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		Upload:   upload,
		Pipeline: pipelineCfg,
		AI:       ai,
		Stream:   streamCfg,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr       string
	CORSOrigin string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8000"
	}

	origin := getEnvOrDefault("CORS_ORIGIN", "http://localhost:3001")

	if strings.Contains(port, ":") {
		// Allow ":8000" or "127.0.0.1:8000" directly.
		return ServerConfig{Addr: port, CORSOrigin: origin}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, CORSOrigin: origin}, nil
}

// UploadConfig describes where uploaded audio lands.
type UploadConfig struct {
	Dir string
}

func loadUploadConfig() UploadConfig {
	return UploadConfig{Dir: getEnvOrDefault("UPLOAD_DIR", "uploads")}
}

// PipelineConfig points at the acoustic collaborator services.
type PipelineConfig struct {
	DiarizerURL    string
	TranscriberURL string
	Timeout        time.Duration
}

func loadPipelineConfig() (PipelineConfig, error) {
	timeoutSeconds := 120
	if override, err := parseOptionalIntEnv("PIPELINE_TIMEOUT_SECONDS"); err != nil {
		return PipelineConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return PipelineConfig{}, fmt.Errorf("PIPELINE_TIMEOUT_SECONDS must be positive")
		}
		timeoutSeconds = *override
	}

	return PipelineConfig{
		DiarizerURL:    getEnvOrDefault("DIARIZER_URL", "http://localhost:8001"),
		TranscriberURL: getEnvOrDefault("ASR_URL", "http://localhost:8002"),
		Timeout:        time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// AIConfig describes the optional LLM classifier backend.
type AIConfig struct {
	APIKey             string
	AccessKey          string
	SecretKey          string
	Model              string
	BaseURL            string
	Region             string
	Temperature        *float64
	MaxTokens          *int
	AnalysisLLMEnabled bool
}

// Enabled reports whether the required credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds a model instance from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: provide ARK_API_KEY + ARK_MODEL or an AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	llmEnabled, err := parseBoolEnv("ANALYSIS_LLM_ENABLED", false)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:             strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:          strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:          strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:              strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:            getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:             getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:        temperature,
		MaxTokens:          maxTokens,
		AnalysisLLMEnabled: llmEnabled,
	}, nil
}

// StreamConfig tunes the per-sentence pacing window.
type StreamConfig struct {
	PacingMin time.Duration
	PacingMax time.Duration
}

func loadStreamConfig() (StreamConfig, error) {
	minMs := 300
	if override, err := parseOptionalIntEnv("STREAM_PACING_MIN_MS"); err != nil {
		return StreamConfig{}, err
	} else if override != nil {
		minMs = *override
	}

	maxMs := 700
	if override, err := parseOptionalIntEnv("STREAM_PACING_MAX_MS"); err != nil {
		return StreamConfig{}, err
	} else if override != nil {
		maxMs = *override
	}

	if minMs < 0 || maxMs < minMs {
		return StreamConfig{}, fmt.Errorf("invalid pacing window: min=%dms max=%dms", minMs, maxMs)
	}

	return StreamConfig{
		PacingMin: time.Duration(minMs) * time.Millisecond,
		PacingMax: time.Duration(maxMs) * time.Millisecond,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
