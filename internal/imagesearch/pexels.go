// Package imagesearch proxies image searches to Pexels and falls back to a
// fixed set of sample images when the upstream cannot answer.
package imagesearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.pexels.com/v1"
	DefaultTimeout = 10 * time.Second

	perPage      = 20
	fallbackSize = 6
)

var (
	ErrNoAPIKey = errors.New("no pexels api key configured")
	ErrUpstream = errors.New("pexels request failed")
)

// Result is one image offered to the client.
type Result struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type response struct {
	Results []Result `json:"results"`
}

type searchPayload struct {
	Photos []struct {
		Photographer string `json:"photographer"`
		Src          struct {
			Medium string `json:"medium"`
		} `json:"src"`
	} `json:"photos"`
}

// Client queries the Pexels search API. It also serves GET /search-images.
type Client struct {
	log        *slog.Logger
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a client. An empty baseURL uses DefaultBaseURL and a
// non-positive timeout uses DefaultTimeout. An empty apiKey is allowed; every
// search then answers with Fallback.
func NewClient(log *slog.Logger, baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		log:     log,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Search returns up to twenty photos matching query.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(perPage))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload searchPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrUpstream, err)
	}

	results := make([]Result, 0, len(payload.Photos))
	for _, photo := range payload.Photos {
		results = append(results, Result{
			URL:   photo.Src.Medium,
			Title: "Photo by " + photo.Photographer,
		})
	}
	return results, nil
}

// Fallback returns the sample images shown when a search yields nothing.
func Fallback() []Result {
	results := make([]Result, fallbackSize)
	for i := range results {
		n := i + 1
		results[i] = Result{
			URL:   fmt.Sprintf("https://picsum.photos/300/300?random=%d", n),
			Title: fmt.Sprintf("Sample %d", n),
		}
	}
	return results
}

// ServeHTTP answers GET /search-images?q=. A blank query gets no results; an
// upstream error or an empty result set gets Fallback.
func (c *Client) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSON(w, response{Results: []Result{}})
		return
	}

	c.log.Info("Image search", "query", query)
	results, err := c.Search(r.Context(), query)
	switch {
	case errors.Is(err, ErrNoAPIKey):
		c.log.Debug("Image search without api key, using samples")
	case err != nil:
		c.log.Warn("Image search failed, using samples", "query", query, "error", err)
	}
	if len(results) == 0 {
		results = Fallback()
	}
	writeJSON(w, response{Results: results})
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}
