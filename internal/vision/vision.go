package vision

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"shotforge/internal/logging"
	"shotforge/internal/media"
	"shotforge/internal/metrics"
	"shotforge/internal/prompts"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultBaseURL   = "https://ark.cn-beijing.volces.com/api/v3"
	DefaultModel     = "doubao-1.5-thinking-vision-pro-250428"
	DefaultMaxTokens = 1000
	DefaultTimeout   = 120 * time.Second
)

// ErrEmptyResponse is returned when the service answers without any text.
var ErrEmptyResponse = errors.New("vision response contained no text")

// Config configures a Client. Zero fields take the package defaults.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Client asks an OpenAI-compatible chat completions endpoint to describe
// images.
type Client struct {
	api       *openai.Client
	model     string
	maxTokens int
}

// New builds a Client. BaseURL may be either the API root or the full
// .../chat/completions URL.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("vision: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = NormalizeBaseURL(cfg.BaseURL)
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	logging.Info("Vision client ready: model=%s base=%s", cfg.Model, clientConfig.BaseURL)

	return &Client{
		api:       openai.NewClientWithConfig(clientConfig),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// NormalizeBaseURL trims a trailing /chat/completions so either form of the
// endpoint can be configured.
func NormalizeBaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultBaseURL
	}
	raw = strings.TrimRight(raw, "/")
	raw = strings.TrimSuffix(raw, "/chat/completions")
	return raw
}

// Model returns the model name sent with each request.
func (c *Client) Model() string {
	return c.model
}

// Analyze describes the image at imagePath following instruction. Any
// failure is logged and reported as an empty string so callers can fall back
// to a canned prompt.
func (c *Client) Analyze(ctx context.Context, imagePath, instruction string) string {
	text, err := c.Describe(ctx, imagePath, instruction)
	if err != nil {
		logging.Error("Vision analysis failed for %s: %v", filepath.Base(imagePath), err)
		return ""
	}
	return text
}

// Describe is Analyze with the error returned.
func (c *Client) Describe(ctx context.Context, imagePath, instruction string) (string, error) {
	if instruction == "" {
		instruction = prompts.VisionInstruction(prompts.VisionBasic)
	}

	dataURL, err := media.EncodeDataURL(imagePath)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", filepath.Base(imagePath), err)
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: prompts.VisionSystem,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: instruction,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
		MaxTokens: c.maxTokens,
	}

	logging.Info("Sending image analysis request: %s", filepath.Base(imagePath))

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	metrics.APIRequestDuration.WithLabelValues("vision").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues("vision", "error").Inc()
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		metrics.APIRequestsTotal.WithLabelValues("vision", "error").Inc()
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		metrics.APIRequestsTotal.WithLabelValues("vision", "error").Inc()
		return "", ErrEmptyResponse
	}
	metrics.APIRequestsTotal.WithLabelValues("vision", "success").Inc()

	metrics.APITokensTotal.WithLabelValues("prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.APITokensTotal.WithLabelValues("completion").Add(float64(resp.Usage.CompletionTokens))
	logging.Info("Image analysis succeeded, prompt length %d; tokens: input=%d output=%d total=%d",
		len(text), resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens)

	return text, nil
}
