// Package llmclient issues bounded, single-shot completion requests to a
// configured LLM provider and extracts the response text (spec §4.7,
// §6, §9, component C7). Provider wire shapes are isolated behind the
// Backend interface so the retry state machine only ever sees
// Complete(ctx, system, user) (string, error).
//
// Grounded on zesbe-go's internal/ai Client: bounded retry with
// sethvargo/go-retry exponential backoff, a golang.org/x/time/rate
// limiter, and a shared *http.Client with tuned idle-connection pooling.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	"github.com/hfyorke/zrepair/internal/config"
	"github.com/hfyorke/zrepair/internal/sessionlog"
	"github.com/hfyorke/zrepair/internal/zerr"
)

// Backend is the small capability every provider implements (spec §9
// "polymorphism over rewriter backends" as a tagged-variant interface,
// not an inheritance hierarchy).
type Backend interface {
	Complete(ctx context.Context, system, user string) (string, error)
	IsAvailable() bool
	BackendName() string
}

// Client wraps a Backend with the shared bounded-tokens/temperature/
// timeout contract from spec §4.7.
type Client struct {
	backend     Backend
	maxTokens   int
	temperature float64
	timeout     time.Duration
	model       string
	log         *sessionlog.Logger
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithSessionLog attaches an operator debug logger (spec §2.2): every
// call to Complete is recorded with provider, model, latency, and error.
func WithSessionLog(l *sessionlog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New builds a Client for the configured provider.
func New(cfg *config.Config, opts ...Option) *Client {
	c := &Client{
		backend:     newBackend(cfg),
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     time.Duration(cfg.TimeoutMs) * time.Millisecond,
		model:       cfg.Model,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewWithBackend builds a Client around an explicit backend, mainly for
// tests and the stub/placeholder path (spec §9).
func NewWithBackend(backend Backend, maxTokens int, temperature float64, timeout time.Duration, opts ...Option) *Client {
	c := &Client{backend: backend, maxTokens: maxTokens, temperature: temperature, timeout: timeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete enforces the hard wall-clock timeout and delegates to the
// configured backend. It returns the raw text choice verbatim; sanitizer
// (C8) does all cleanup.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	text, err := c.backend.Complete(ctx, system, user)
	if c.log != nil {
		c.log.LLMCall(c.backend.BackendName(), c.model, time.Since(start), err)
	}

	if err != nil {
		if ctx.Err() != nil {
			return "", zerr.Wrap(zerr.KindLlmTransport, "llm request timed out", ctx.Err())
		}
		return "", zerr.Wrap(zerr.KindLlmTransport, "llm request failed", err)
	}
	return text, nil
}

func newBackend(cfg *config.Config) Backend {
	httpClient := &http.Client{
		Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond,
		Transport: &http.Transport{
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	limiter := rate.NewLimiter(rate.Limit(rateLimitFor(cfg.Provider)), 4)
	backoff := retry.WithMaxRetries(2, retry.NewExponential(200*time.Millisecond))

	switch cfg.Provider {
	case config.ProviderGemini:
		return &geminiBackend{cfg: cfg, http: httpClient, limiter: limiter, backoff: backoff}
	default:
		// OpenAI-compatible shape also covers Anthropic, Groq, and
		// Together: all four speak the same chat/completions JSON body
		// with provider-specific auth headers (spec §6).
		return &openAICompatBackend{cfg: cfg, http: httpClient, limiter: limiter, backoff: backoff}
	}
}

func rateLimitFor(provider config.Provider) float64 {
	switch provider {
	case config.ProviderGroq:
		return 0.5
	case config.ProviderGemini:
		return 1
	default:
		return 1
	}
}

// --- OpenAI-compatible (OpenAI, Anthropic, Groq, Together) ---

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type openAICompatBackend struct {
	cfg     *config.Config
	http    *http.Client
	limiter *rate.Limiter
	backoff retry.Backoff
}

func (b *openAICompatBackend) IsAvailable() bool   { return b.cfg.APIKey != "" }
func (b *openAICompatBackend) BackendName() string { return string(b.cfg.Provider) }

func (b *openAICompatBackend) Complete(ctx context.Context, system, user string) (string, error) {
	if !b.IsAvailable() {
		return "", zerr.New(zerr.KindLlmTransport, "missing api key")
	}
	if err := b.limiter.Wait(ctx); err != nil {
		return "", err
	}

	reqBody := chatRequest{
		Model: b.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   b.cfg.MaxTokens,
		Temperature: b.cfg.Temperature,
	}

	var content string
	err := retry.Do(ctx, b.backoff, func(ctx context.Context) error {
		text, err := b.doRequest(ctx, reqBody)
		if err != nil {
			if isRetryableTransport(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		content = text
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

func (b *openAICompatBackend) doRequest(ctx context.Context, reqBody chatRequest) (string, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimSuffix(b.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	switch b.cfg.Provider {
	case config.ProviderAnthropic:
		req.Header.Set("x-api-key", b.cfg.APIKey)
		req.Header.Set("anthropic-version", "2023-06-01")
	default:
		req.Header.Set("Authorization", "Bearer "+b.cfg.APIKey)
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", zerr.Wrap(zerr.KindLlmResponse, "decoding chat response", err)
	}
	if len(parsed.Choices) == 0 {
		return "", zerr.New(zerr.KindLlmResponse, "no choices in response")
	}
	return parsed.Choices[0].Message.Content, nil
}

func isRetryableTransport(err error) bool {
	msg := err.Error()
	for _, token := range []string{"429", "500", "502", "503", "504", "timeout", "connection refused"} {
		if strings.Contains(msg, token) {
			return true
		}
	}
	return false
}

// --- Gemini ---

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  struct {
		MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
		Temperature     float64 `json:"temperature,omitempty"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

type geminiBackend struct {
	cfg     *config.Config
	http    *http.Client
	limiter *rate.Limiter
	backoff retry.Backoff
}

func (b *geminiBackend) IsAvailable() bool   { return b.cfg.APIKey != "" }
func (b *geminiBackend) BackendName() string { return "gemini" }

func (b *geminiBackend) Complete(ctx context.Context, system, user string) (string, error) {
	if !b.IsAvailable() {
		return "", zerr.New(zerr.KindLlmTransport, "missing api key")
	}
	if err := b.limiter.Wait(ctx); err != nil {
		return "", err
	}

	reqBody := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: system}}},
		Contents:          []geminiContent{{Role: "user", Parts: []geminiPart{{Text: user}}}},
	}
	reqBody.GenerationConfig.MaxOutputTokens = b.cfg.MaxTokens
	reqBody.GenerationConfig.Temperature = b.cfg.Temperature

	var content string
	err := retry.Do(ctx, b.backoff, func(ctx context.Context) error {
		text, err := b.doRequest(ctx, reqBody)
		if err != nil {
			if isRetryableTransport(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		content = text
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

func (b *geminiBackend) doRequest(ctx context.Context, reqBody geminiRequest) (string, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimSuffix(b.cfg.BaseURL, "/"), b.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", b.cfg.APIKey)

	resp, err := b.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", zerr.Wrap(zerr.KindLlmResponse, "decoding gemini response", err)
	}
	if len(parsed.Candidates) == 0 {
		return "", zerr.New(zerr.KindLlmResponse, "no candidates in response")
	}

	candidate := parsed.Candidates[0]
	if candidate.FinishReason == "SAFETY" {
		// Safety-blocked responses are treated as no-rewrite, not an
		// error (spec §6).
		return "", nil
	}
	if len(candidate.Content.Parts) == 0 {
		return "", zerr.New(zerr.KindLlmResponse, "no parts in gemini candidate")
	}
	return candidate.Content.Parts[0].Text, nil
}
