package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const DefaultSearchURL = "https://www.googleapis.com/youtube/v3/search"

// bodySnippetLimit bounds how much of an error response is logged.
const bodySnippetLimit = 200

type Client struct {
	searchURL string
	apiKey    string
	http      *http.Client
}

func NewClient(searchURL, apiKey string) *Client {
	searchURL = strings.TrimSpace(searchURL)
	if searchURL == "" {
		searchURL = DefaultSearchURL
	}

	return &Client{
		searchURL: searchURL,
		apiKey:    apiKey,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type SearchParams struct {
	ChannelID  string
	MaxResults int
}

type SearchResponse struct {
	Items []SearchItem `json:"items"`
}

type SearchItem struct {
	ID      ResourceID `json:"id"`
	Snippet Snippet    `json:"snippet"`
}

type ResourceID struct {
	Kind    string `json:"kind"`
	VideoID string `json:"videoId"`
}

type Snippet struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	PublishedAt string  `json:"publishedAt"`
}

// StatusError is returned when the search endpoint answers with a non-2xx
// status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("youtube: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Search issues one GET against the search endpoint. Network failures, non-2xx
// answers and undecodable bodies are all returned as errors.
func (c *Client) Search(ctx context.Context, params SearchParams) (*SearchResponse, error) {
	channelID := strings.TrimSpace(params.ChannelID)
	if channelID == "" {
		return nil, fmt.Errorf("channelID is required")
	}

	u, err := url.Parse(c.searchURL)
	if err != nil {
		return nil, err
	}

	q := u.Query()
	q.Set("key", c.apiKey)
	q.Set("channelId", channelID)
	q.Set("part", "snippet")
	q.Set("order", "date")
	q.Set("maxResults", strconv.Itoa(params.MaxResults))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Error("youtube search request failed", "channel_id", channelID, "error", err)
		return nil, fmt.Errorf("youtube: search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, bodySnippetLimit))
		snippet := strings.TrimSpace(string(body))
		slog.Error("youtube API returned error", "status_code", resp.StatusCode, "response_text", snippet)
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: snippet}
	}

	var out SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("youtube: decode search response: %w", err)
	}

	return &out, nil
}
