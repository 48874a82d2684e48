package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 60 * time.Second
	defaultModel       = "tts-1"
	defaultFormat      = "mp3"
	defaultSpeed       = 0.85

	// Provider rejects empty input; anything shorter than this is replaced
	// with a speakable placeholder before the request goes out.
	minInputLength    = 3
	placeholderPhrase = "Pause."
)

// Config captures the runtime settings for the speech synthesis provider.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Voice          string
	Speed          float64
	Format         string
	TimeoutSeconds int
}

// Client issues speech synthesis requests and returns raw audio bytes.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a synthesis client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			Voice:          strings.TrimSpace(cfg.Voice),
			Speed:          cfg.Speed,
			Format:         strings.TrimSpace(cfg.Format),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://api.openai.com/v1/audio/speech"
	}
	if client.cfg.Model == "" {
		client.cfg.Model = defaultModel
	}
	if client.cfg.Voice == "" {
		client.cfg.Voice = DefaultVoice
	}
	if client.cfg.Speed <= 0 {
		client.cfg.Speed = defaultSpeed
	}
	if client.cfg.Format == "" {
		client.cfg.Format = defaultFormat
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// Format returns the configured audio container format.
func (c *Client) Format() string {
	return c.cfg.Format
}

type speechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed"`
}

// Synthesize converts text to speech and returns the audio clip bytes. The
// voice is resolved via VoiceForLanguage; input shorter than three characters
// is replaced with a placeholder phrase, never sent as-is.
func (c *Client) Synthesize(ctx context.Context, text, language, voice string) ([]byte, error) {
	if c.cfg.APIKey == "" {
		return nil, errors.New("tts synthesize: api key required")
	}
	text = strings.TrimSpace(text)
	if len(text) < minInputLength {
		text = placeholderPhrase
	}

	payload := speechRequest{
		Model:          c.cfg.Model,
		Input:          text,
		Voice:          VoiceForLanguage(language, voice),
		ResponseFormat: c.cfg.Format,
		Speed:          c.cfg.Speed,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("tts synthesize: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("tts synthesize: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts synthesize: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tts synthesize: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("tts synthesize: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if len(body) == 0 {
		return nil, errors.New("tts synthesize: provider returned empty audio")
	}
	return body, nil
}
