// Package translate wraps the DeepL-style translation API used by the
// vocabulary side-pipeline.
package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"echonote/internal/services"
)

const defaultHTTPTimeout = 30 * time.Second

// Config captures the runtime settings required to translate text.
type Config struct {
	APIKey     string
	BaseURL    string
	SourceLang string
	TargetLang string
}

// Client issues translation requests.
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

// NewClient constructs a translation client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	client := &Client{
		cfg: Config{
			APIKey:     strings.TrimSpace(cfg.APIKey),
			BaseURL:    strings.TrimSpace(cfg.BaseURL),
			SourceLang: strings.ToUpper(strings.TrimSpace(cfg.SourceLang)),
			TargetLang: strings.ToUpper(strings.TrimSpace(cfg.TargetLang)),
		},
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://api-free.deepl.com/v2/translate"
	}
	return client
}

// Translate sends one text and returns its translation.
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("translate: text required")
	}
	if c.cfg.APIKey == "" {
		return "", services.Wrap(services.ErrConfiguration, "translate", "request", "api key required", nil)
	}

	form := url.Values{}
	form.Set("text", text)
	if c.cfg.SourceLang != "" {
		form.Set("source_lang", c.cfg.SourceLang)
	}
	form.Set("target_lang", c.cfg.TargetLang)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("translate: new request: %w", err)
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrUpstream, "translate", "request", "http error", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrUpstream, "translate", "request", "read body", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", services.Wrap(services.ErrUpstream, "translate", "request",
			fmt.Sprintf("http %d", resp.StatusCode), nil)
	}

	var payload translateResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", services.Wrap(services.ErrUpstream, "translate", "request", "decode response", err)
	}
	for _, translation := range payload.Translations {
		if translated := strings.TrimSpace(translation.Text); translated != "" {
			return translated, nil
		}
	}
	return "", services.Wrap(services.ErrUpstream, "translate", "request", "empty translation", nil)
}

type translateResponse struct {
	Translations []struct {
		Text string `json:"text"`
	} `json:"translations"`
}
