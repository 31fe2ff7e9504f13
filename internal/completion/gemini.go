// Package completion asks the Gemini generateContent API for text
// completions.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.5-flash"
)

var (
	ErrNoAPIKey        = errors.New("gemini api key is required")
	ErrUpstream        = errors.New("gemini request failed")
	ErrEmptyCompletion = errors.New("gemini returned no text")
)

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
}

type apiErrorPayload struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("gemini api error %d %s: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("gemini api error %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return ErrUpstream
}

// Gemini implements chat.Completer over the REST API.
type Gemini struct {
	log        *slog.Logger
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

// Option customises a Gemini client.
type Option func(*Gemini)

// WithBaseURL points the client at another endpoint, typically a test server.
func WithBaseURL(baseURL string) Option {
	return func(g *Gemini) {
		g.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithModel selects the model name.
func WithModel(model string) Option {
	return func(g *Gemini) {
		if model != "" {
			g.model = model
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(g *Gemini) {
		g.httpClient = client
	}
}

func NewGemini(log *slog.Logger, apiKey string, opts ...Option) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoAPIKey
	}
	g := &Gemini{
		log:     log,
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Model returns the model requests are sent to.
func (g *Gemini) Model() string {
	return g.model
}

// Complete sends prompt as a single user turn and returns the concatenated
// text of the first candidate.
func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	data, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	started := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload apiErrorPayload
		if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
			apiErr.Status = payload.Error.Status
			apiErr.Message = payload.Error.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return "", apiErr
	}

	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: decode: %w", ErrUpstream, err)
	}
	if len(out.Candidates) == 0 {
		return "", ErrEmptyCompletion
	}

	var text strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("%w: finish reason %q", ErrEmptyCompletion, out.Candidates[0].FinishReason)
	}

	g.log.Debug("Completion received", "model", g.model, "elapsed", time.Since(started), "chars", text.Len())
	return text.String(), nil
}
