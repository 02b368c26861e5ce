// Package search wraps the Google Custom Search API used by the analysis
// stage to look up extracted keywords.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"echonote/internal/artifacts"
	"echonote/internal/services"
)

const defaultHTTPTimeout = 30 * time.Second

// Config captures the runtime settings required to issue search queries.
type Config struct {
	APIKey          string
	EngineID        string
	BaseURL         string
	ResultsPerQuery int
}

// Client issues keyword queries against the custom search endpoint.
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

// NewClient constructs a search client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	client := &Client{
		cfg: Config{
			APIKey:          strings.TrimSpace(cfg.APIKey),
			EngineID:        strings.TrimSpace(cfg.EngineID),
			BaseURL:         strings.TrimSpace(cfg.BaseURL),
			ResultsPerQuery: cfg.ResultsPerQuery,
		},
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://www.googleapis.com/customsearch/v1"
	}
	if client.cfg.ResultsPerQuery <= 0 {
		client.cfg.ResultsPerQuery = 3
	}
	return client
}

// Search queries the endpoint for one keyword and returns the top results.
func (c *Client) Search(ctx context.Context, keyword string) ([]artifacts.SearchRecord, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, errors.New("search: keyword required")
	}
	if c.cfg.APIKey == "" || c.cfg.EngineID == "" {
		return nil, services.Wrap(services.ErrConfiguration, "analyze", "search",
			"search api key and engine id required", nil)
	}

	query := url.Values{}
	query.Set("key", c.cfg.APIKey)
	query.Set("cx", c.cfg.EngineID)
	query.Set("q", keyword)
	query.Set("num", strconv.Itoa(c.cfg.ResultsPerQuery))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("search: new request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrUpstream, "analyze", "search", "http error", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrUpstream, "analyze", "search", "read body", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, services.Wrap(services.ErrUpstream, "analyze", "search",
			fmt.Sprintf("http %d", resp.StatusCode), nil)
	}

	var payload searchResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, services.Wrap(services.ErrUpstream, "analyze", "search", "decode response", err)
	}

	records := make([]artifacts.SearchRecord, 0, len(payload.Items))
	for _, item := range payload.Items {
		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)
		if title == "" && link == "" {
			continue
		}
		records = append(records, artifacts.SearchRecord{
			Keyword: keyword,
			Title:   title,
			URL:     link,
		})
	}
	return records, nil
}

type searchResponse struct {
	Items []struct {
		Title string `json:"title"`
		Link  string `json:"link"`
	} `json:"items"`
}
