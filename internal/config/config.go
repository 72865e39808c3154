// Package config models the recognized configuration surface (spec §6)
// as an explicit, immutable value built through a functional-options
// constructor. This replaces the "global process-wide mutable singleton"
// pattern spec §9 calls out: a Config is built once and threaded through
// constructors (llmclient.New, session wiring) rather than read from
// package-level state.
package config

import (
	"encoding/json"
	"fmt"

	"github.com/tailscale/hujson"
)

// Provider selects the LLM transport shape (spec §6).
type Provider string

const (
	ProviderOpenAICompat Provider = "openai-compatible"
	ProviderGemini       Provider = "gemini"
	ProviderAnthropic    Provider = "anthropic"
	ProviderGroq         Provider = "groq"
	ProviderTogether     Provider = "together"
)

const (
	DefaultMaxTokens   = 50
	DefaultTemperature = 0.3
	DefaultTimeoutMs   = 30000
)

// Config is the immutable configuration surface threaded through the
// pipeline's constructors.
type Config struct {
	Provider    Provider
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	TimeoutMs   int
}

// Option mutates a Config under construction.
type Option func(*Config)

// WithProvider sets the provider and a sensible default BaseURL for it
// if one hasn't already been set.
func WithProvider(p Provider) Option {
	return func(c *Config) {
		c.Provider = p
		if c.BaseURL == "" {
			c.BaseURL = defaultBaseURL(p)
		}
	}
}

func WithModel(model string) Option    { return func(c *Config) { c.Model = model } }
func WithAPIKey(key string) Option     { return func(c *Config) { c.APIKey = key } }
func WithBaseURL(url string) Option    { return func(c *Config) { c.BaseURL = url } }
func WithMaxTokens(n int) Option       { return func(c *Config) { c.MaxTokens = n } }
func WithTemperature(t float64) Option { return func(c *Config) { c.Temperature = t } }
func WithTimeoutMs(ms int) Option      { return func(c *Config) { c.TimeoutMs = ms } }

func defaultBaseURL(p Provider) string {
	switch p {
	case ProviderOpenAICompat:
		return "https://api.openai.com/v1"
	case ProviderGemini:
		return "https://generativelanguage.googleapis.com/v1beta"
	case ProviderAnthropic:
		return "https://api.anthropic.com/v1"
	case ProviderGroq:
		return "https://api.groq.com/openai/v1"
	case ProviderTogether:
		return "https://api.together.xyz/v1"
	default:
		return ""
	}
}

// New builds a Config with spec-mandated defaults, then applies opts.
func New(opts ...Option) *Config {
	c := &Config{
		Provider:    ProviderOpenAICompat,
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
		TimeoutMs:   DefaultTimeoutMs,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL(c.Provider)
	}
	return c
}

// Validate reports whether the config satisfies spec §6's constraints.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("config: api_key must not be empty")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("config: max_tokens must be positive, got %d", c.MaxTokens)
	}
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("config: temperature must be in [0.0, 2.0], got %f", c.Temperature)
	}
	if c.TimeoutMs <= 0 {
		return fmt.Errorf("config: timeout_ms must be positive, got %d", c.TimeoutMs)
	}
	return nil
}

// fileConfig mirrors Config's JSON shape for file-based loading, letting
// operators hand-edit a config file with comments (hujson/JWCC).
type fileConfig struct {
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	APIKey      string  `json:"api_key"`
	BaseURL     string  `json:"base_url,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	TimeoutMs   int     `json:"timeout_ms,omitempty"`
}

// LoadJWCC parses a JSON-with-comments config file (tailscale/hujson)
// and builds a Config from it, applying the same defaults as New for any
// zero-valued field.
func LoadJWCC(data []byte) (*Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("config: parsing JWCC: %w", err)
	}

	var fc fileConfig
	if err := json.Unmarshal(standardized, &fc); err != nil {
		return nil, fmt.Errorf("config: decoding config: %w", err)
	}

	opts := []Option{
		WithModel(fc.Model),
		WithAPIKey(fc.APIKey),
	}
	if fc.Provider != "" {
		opts = append(opts, WithProvider(Provider(fc.Provider)))
	}
	if fc.BaseURL != "" {
		opts = append(opts, WithBaseURL(fc.BaseURL))
	}
	if fc.MaxTokens > 0 {
		opts = append(opts, WithMaxTokens(fc.MaxTokens))
	}
	if fc.Temperature > 0 {
		opts = append(opts, WithTemperature(fc.Temperature))
	}
	if fc.TimeoutMs > 0 {
		opts = append(opts, WithTimeoutMs(fc.TimeoutMs))
	}

	cfg := New(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
