package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"shotforge/internal/logging"
	"shotforge/internal/metrics"
	"shotforge/internal/sizing"
)

const (
	DefaultURL            = "https://ark.cn-beijing.volces.com/api/v3/images/generations"
	DefaultGuidanceScale  = 2.5
	DefaultSeed           = -1
	DefaultResponseFormat = "url"
	DefaultTimeout        = 120 * time.Second

	// maxErrorBody bounds how much of a failed response is kept for logs.
	maxErrorBody = 2048
)

var (
	// ErrNoImageURL is returned when a 2xx response carries no data[0].url.
	ErrNoImageURL = errors.New("generation response contained no image URL")

	// ErrEmptyDownload is returned when a download produced zero bytes.
	ErrEmptyDownload = errors.New("downloaded image is empty")
)

// APIError is a non-2xx answer from the generation or download endpoint.
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("status %d", e.StatusCode)
}

// Request is the JSON body of an images/generations call. Watermark and Seed
// are always sent because the service treats their absence differently from
// false and -1.
type Request struct {
	Model          string  `json:"model"`
	Prompt         string  `json:"prompt"`
	ResponseFormat string  `json:"response_format"`
	Size           string  `json:"size"`
	GuidanceScale  float64 `json:"guidance_scale"`
	Watermark      bool    `json:"watermark"`
	Seed           int64   `json:"seed"`
	N              int     `json:"n"`
}

// ImageData is one generated image.
type ImageData struct {
	URL     string `json:"url,omitempty"`
	B64JSON string `json:"b64_json,omitempty"`
}

// Response is the decoded body of a successful generation.
type Response struct {
	Model   string      `json:"model"`
	Created int64       `json:"created"`
	Data    []ImageData `json:"data"`
	Usage   struct {
		GeneratedImages int `json:"generated_images"`
	} `json:"usage"`
}

// URL returns data[0].url or ErrNoImageURL.
func (r *Response) URL() (string, error) {
	if r == nil || len(r.Data) == 0 || r.Data[0].URL == "" {
		return "", ErrNoImageURL
	}
	return r.Data[0].URL, nil
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Config configures a Client.
type Config struct {
	APIKey        string
	URL           string
	Model         string
	GuidanceScale float64
	Watermark     bool
	Seed          int64
	Timeout       time.Duration
}

// Client calls an Ark-style image generation endpoint and fetches results.
type Client struct {
	cfg  Config
	http *http.Client
}

// New validates cfg and builds a Client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("imagegen: API key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("imagegen: model is required")
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.GuidanceScale == 0 {
		cfg.GuidanceScale = DefaultGuidanceScale
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	logging.Info("Image generation client ready: model=%s", cfg.Model)

	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// NewRequest fills a Request with the client's model and defaults.
func (c *Client) NewRequest(prompt string, size sizing.SizeSpec) Request {
	return Request{
		Model:          c.cfg.Model,
		Prompt:         prompt,
		ResponseFormat: DefaultResponseFormat,
		Size:           size.String(),
		GuidanceScale:  c.cfg.GuidanceScale,
		Watermark:      c.cfg.Watermark,
		Seed:           c.cfg.Seed,
		N:              1,
	}
}

// Generate submits req. Unsupported sizes are replaced with the default size.
// The returned response always has a non-empty data[0].url.
func (c *Client) Generate(ctx context.Context, req Request) (*Response, error) {
	size, ok := sizing.Coerce(req.Size)
	if !ok {
		logging.Warn("Unsupported size %q, using %s", req.Size, sizing.Default)
	}
	req.Size = size.String()
	if req.Model == "" {
		req.Model = c.cfg.Model
	}
	if req.ResponseFormat == "" {
		req.ResponseFormat = DefaultResponseFormat
	}
	if req.N <= 0 {
		req.N = 1
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	logging.Info("Sending image generation request: size=%s prompt=%q", req.Size, truncate(req.Prompt, 120))

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	metrics.APIRequestDuration.WithLabelValues("generation").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues("generation", "error").Inc()
		return nil, fmt.Errorf("generation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.APIRequestsTotal.WithLabelValues("generation", "error").Inc()
		return nil, readAPIError(resp)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		metrics.APIRequestsTotal.WithLabelValues("generation", "error").Inc()
		return nil, fmt.Errorf("decode generation response: %w", err)
	}
	if _, err := out.URL(); err != nil {
		metrics.APIRequestsTotal.WithLabelValues("generation", "error").Inc()
		return nil, err
	}

	metrics.APIRequestsTotal.WithLabelValues("generation", "success").Inc()
	logging.Info("Image generation succeeded: created=%d", out.Created)
	return &out, nil
}

func readAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(raw)}

	var env errorEnvelope
	if json.Unmarshal(raw, &env) == nil {
		apiErr.Message = env.Error.Message
	}
	return apiErr
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
