package photo

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
)

// ErrSearcherUnavailable is returned by the Unavailable variant.
var ErrSearcherUnavailable = errors.New("photo searcher unavailable")

const defaultBaseURL = "https://api.unsplash.com"

// Photo is a cover candidate returned by a search.
type Photo struct {
	ID          string
	URL         string
	Author      string
	Attribution string
}

// Searcher finds a cover photo for a query. A nil Photo with a nil error means no match.
type Searcher interface {
	Search(ctx context.Context, query string) (*Photo, error)
}

// searchResponse maps the subset of Unsplash's /search/photos payload we use.
type searchResponse struct {
	Results []struct {
		ID   string `json:"id"`
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
		User struct {
			Name string `json:"name"`
		} `json:"user"`
		Links struct {
			HTML string `json:"html"`
		} `json:"links"`
	} `json:"results"`
}

// Client handles talking to Unsplash.
type Client struct {
	httpClient *http.Client
	baseURL    string
	accessKey  string
}

// NewClient returns an initialized Client. baseURL may be empty to use the public API.
func NewClient(accessKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:   strings.TrimRight(baseURL, "/"),
		accessKey: accessKey,
	}
}

// Search returns the most relevant landscape photo for query.
func (c *Client) Search(ctx context.Context, query string) (*Photo, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("photo query is empty")
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", "1")
	q.Set("orientation", "landscape")
	q.Set("content_filter", "high")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/photos?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("access key rejected: unsplash returned %d", resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("unsplash returned %d: %s", resp.StatusCode, string(body))
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to decode unsplash json: %w", err)
	}

	for _, r := range sr.Results {
		if r.ID == "" || r.URLs.Regular == "" {
			continue
		}
		return &Photo{
			ID:          r.ID,
			URL:         r.URLs.Regular,
			Author:      r.User.Name,
			Attribution: r.Links.HTML,
		}, nil
	}
	return nil, nil
}

// Unavailable stands in when no access key is configured.
type Unavailable struct{}

func (Unavailable) Search(context.Context, string) (*Photo, error) {
	return nil, ErrSearcherUnavailable
}
