// Package genai provides the client for the external completion service.
//
// The client speaks the provider's messages protocol directly: an API key
// header, a versioning header, and a content-part response body. It walks a
// candidate model list newest-first, advancing past models the provider does
// not recognize, and enforces a per-call timeout via context cancellation.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Default client configuration.
const (
	// DefaultBaseURL is the provider's message-completion endpoint.
	DefaultBaseURL = "https://api.anthropic.com/v1/messages"
	// apiVersion is sent as the provider versioning header on every call.
	apiVersion = "2023-06-01"
	// DefaultTimeout bounds each outbound call.
	DefaultTimeout = 25 * time.Second
	// DefaultMaxTokens is the completion budget when the caller does not set one.
	DefaultMaxTokens = 350
)

// DefaultModels is the candidate list tried in order, newest first.
var DefaultModels = []string{
	"claude-3-5-sonnet-20241022",
	"claude-3-5-sonnet-20240620",
	"claude-3-5-haiku-20241022",
	"claude-3-opus-20240229",
	"claude-3-sonnet-20240229",
	"claude-3-haiku-20240307",
}

// Error variables for better error handling and testability.
var (
	// ErrNoAPIKey indicates the client was constructed without a credential.
	// Callers treat this as the fallback trigger, not a startup failure.
	ErrNoAPIKey = errors.New("completion service API key not set")
	// ErrAllModelsFailed indicates every candidate model failed or was unrecognized.
	ErrAllModelsFailed = errors.New("all candidate models failed")
)

// UpstreamError is a non-2xx provider response that is not a model-not-found
// condition. It is returned immediately without trying further candidates,
// since it signals a configuration or quota problem rather than a stale
// model name.
type UpstreamError struct {
	StatusCode int
	Model      string
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("completion service returned status %d for model %s", e.StatusCode, e.Model)
}

// Opts holds configuration options for the completion client.
type Opts struct {
	APIKey     string
	BaseURL    string
	Models     []string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Option defines a configuration option for the completion client.
type Option func(*Opts)

// WithAPIKey sets the provider API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) {
		o.APIKey = key
	}
}

// WithBaseURL overrides the provider endpoint (used in tests).
func WithBaseURL(url string) Option {
	return func(o *Opts) {
		o.BaseURL = url
	}
}

// WithModels replaces the candidate model list. Candidates are tried in the
// given order.
func WithModels(models []string) Option {
	return func(o *Opts) {
		o.Models = models
	}
}

// WithPreferredModel prepends a model to the candidate list so it is tried
// first.
func WithPreferredModel(model string) Option {
	return func(o *Opts) {
		if model != "" {
			o.Models = append([]string{model}, o.Models...)
		}
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Opts) {
		o.Timeout = d
	}
}

// WithHTTPClient overrides the HTTP client (used in tests).
func WithHTTPClient(c *http.Client) Option {
	return func(o *Opts) {
		o.HTTPClient = c
	}
}

// GenerationSettings carries the per-request sampling parameters.
type GenerationSettings struct {
	MaxTokens   int
	Temperature float64
}

// Result is a successful completion: the concatenated text parts and the
// model that produced them, plus a per-attempt trace for diagnostics.
type Result struct {
	Text  string
	Model string
	Trace []string
}

// Client invokes the external completion service.
type Client struct {
	apiKey  string
	baseURL string
	models  []string
	timeout time.Duration
	http    *http.Client
}

// NewClient creates a completion client, applying any provided options.
// Returns ErrNoAPIKey when no credential is configured; callers degrade to
// fallback content in that case.
func NewClient(opts ...Option) (*Client, error) {
	cfg := Opts{Models: DefaultModels}
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("genai.NewClient: options applied", "api_key_set", cfg.APIKey != "", "models", len(cfg.Models), "base_url_set", cfg.BaseURL != "")

	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if len(cfg.Models) == 0 {
		cfg.Models = DefaultModels
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		models:  cfg.Models,
		timeout: cfg.Timeout,
		http:    cfg.HTTPClient,
	}, nil
}

// Models returns the candidate model list in trial order.
func (c *Client) Models() []string {
	return c.models
}

// Wire types for the provider messages protocol.

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Messages    []message `json:"messages"`
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messagesResponse struct {
	Content []contentPart `json:"content"`
}

// Generate sends the prompt to the completion service, trying each candidate
// model in order. Advancement rules:
//   - HTTP 404 whose body mentions "model": stale model name, try the next.
//   - transport error or empty completion: try the next.
//   - any other non-2xx status: return *UpstreamError immediately.
//
// Exhausting the list returns ErrAllModelsFailed.
func (c *Client) Generate(ctx context.Context, prompt string, settings GenerationSettings) (Result, error) {
	if settings.MaxTokens <= 0 {
		settings.MaxTokens = DefaultMaxTokens
	}

	trace := make([]string, 0, len(c.models))
	for _, model := range c.models {
		start := time.Now()
		text, status, err := c.invokeOnce(ctx, model, prompt, settings)
		elapsed := time.Since(start).Round(time.Millisecond)

		if err != nil {
			var upstream *UpstreamError
			if errors.As(err, &upstream) {
				trace = append(trace, fmt.Sprintf("%s: status %d", model, upstream.StatusCode))
				slog.Warn("Client.Generate: upstream error, aborting candidates", "model", model, "status", upstream.StatusCode)
				return Result{Trace: trace}, err
			}
			trace = append(trace, fmt.Sprintf("%s: %v", model, err))
			slog.Debug("Client.Generate: candidate failed, advancing", "model", model, "error", err)
			continue
		}

		if status == http.StatusNotFound {
			trace = append(trace, fmt.Sprintf("%s: not recognized", model))
			slog.Debug("Client.Generate: model not recognized, advancing", "model", model)
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" {
			trace = append(trace, fmt.Sprintf("%s: empty completion", model))
			slog.Debug("Client.Generate: empty completion, advancing", "model", model)
			continue
		}

		trace = append(trace, fmt.Sprintf("%s: ok in %s", model, elapsed))
		slog.Debug("Client.Generate: completion received", "model", model, "chars", len(text), "elapsed", elapsed)
		return Result{Text: text, Model: model, Trace: trace}, nil
	}

	slog.Warn("Client.Generate: all candidate models failed", "models", len(c.models))
	return Result{Trace: trace}, ErrAllModelsFailed
}

// invokeOnce performs a single provider call. A 404 with a model-related
// error body is reported as (status=404, err=nil) so the caller can advance;
// other non-2xx statuses become *UpstreamError.
func (c *Client) invokeOnce(ctx context.Context, model, prompt string, settings GenerationSettings) (string, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(messagesRequest{
		Model:       model,
		MaxTokens:   settings.MaxTokens,
		Temperature: settings.Temperature,
		Messages:    []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", 0, fmt.Errorf("marshal request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", 0, fmt.Errorf("build request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("read response failed: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound && strings.Contains(strings.ToLower(string(body)), "model") {
		return "", http.StatusNotFound, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", resp.StatusCode, &UpstreamError{StatusCode: resp.StatusCode, Model: model, Body: truncate(string(body), 500)}
	}

	var parsed messagesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", resp.StatusCode, fmt.Errorf("decode response failed: %w", err)
	}

	var parts []string
	for _, p := range parsed.Content {
		if p.Type == "text" && p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n"), resp.StatusCode, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
