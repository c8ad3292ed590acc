package synthesis

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

	"github.com/Prasoon2050/Indian-Observer/app/sources"
)

const defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"

// Default model fallback chain, tried in order on model-unavailable errors.
var DefaultModels = []string{
	"gemini-1.5-flash-latest",
	"gemini-1.5-flash",
	"gemini-1.5-pro-latest",
}

// Article is the structured output of a synthesis call.
type Article struct {
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// ConfigError marks malformed-request or invalid-credential failures. These
// are never retried and propagate out of the pipeline immediately.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("generative provider configuration error: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// ErrMissingCredentials is raised at gateway construction when no API key is
// configured.
var ErrMissingCredentials = errors.New("generative provider API key missing")

// Gateway turns a topic plus supporting articles into a structured article
// via a rate-limited generative call with model fallback.
type Gateway struct {
	apiKey      string
	endpoint    string
	models      []string
	httpClient  *http.Client
	throttle    *Throttle
	clock       Clock
	maxRetries  int
	backoffBase time.Duration
	backoffCap  time.Duration
	refineLimit int
}

type GatewayOption func(*Gateway)

func WithEndpoint(endpoint string) GatewayOption {
	return func(g *Gateway) {
		g.endpoint = endpoint
	}
}

func WithModels(models ...string) GatewayOption {
	return func(g *Gateway) {
		g.models = models
	}
}

func WithGatewayHTTPClient(httpClient *http.Client) GatewayOption {
	return func(g *Gateway) {
		g.httpClient = httpClient
	}
}

func WithGatewayClock(clock Clock) GatewayOption {
	return func(g *Gateway) {
		g.clock = clock
	}
}

func WithBackoff(base, cap time.Duration, maxRetries int) GatewayOption {
	return func(g *Gateway) {
		g.backoffBase = base
		g.backoffCap = cap
		g.maxRetries = maxRetries
	}
}

func NewGateway(apiKey string, minInterval time.Duration, opts ...GatewayOption) (*Gateway, error) {
	if apiKey == "" {
		return nil, ErrMissingCredentials
	}

	g := &Gateway{
		apiKey:      apiKey,
		endpoint:    defaultEndpoint,
		models:      DefaultModels,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		clock:       realClock{},
		maxRetries:  3,
		backoffBase: 2 * time.Second,
		backoffCap:  30 * time.Second,
		refineLimit: 5,
	}
	for _, opt := range opts {
		opt(g)
	}

	// The throttle is built after the options so an injected clock governs
	// both backoff sleeps and inter-call spacing.
	g.throttle = NewThrottle(minInterval, g.clock)

	return g, nil
}

// Synthesize produces a structured article for the topic from the supplied
// source articles. extracted optionally carries readability-extracted body
// text of the primary source; interest optionally carries the topic's
// search-interest timeseries. A malformed generative response degrades to a
// deterministic fallback article instead of failing the caller.
func (g *Gateway) Synthesize(ctx context.Context, topic string, articles []sources.SourceArticle, extracted string, interest []sources.InterestPoint) (Article, error) {
	refined := Refine(articles, g.refineLimit)
	prompt := buildPrompt(topic, refined, extracted, interest)

	text, err := g.generate(ctx, prompt)
	if err != nil {
		return Article{}, err
	}

	article, err := parseArticle(text, topic)
	if err != nil {
		slog.Warn("Generative response unparseable, using fallback article", "topic", topic, "error", err)
		return fallbackArticle(topic, refined), nil
	}

	return article, nil
}

type promptPart struct {
	Text string `json:"text"`
}

type promptContent struct {
	Parts []promptPart `json:"parts"`
}

type generateRequest struct {
	Contents []promptContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// generate walks the model fallback chain. Model-unavailable responses
// advance to the next model; rate limits back off and retry the same model;
// configuration errors propagate untouched.
func (g *Gateway) generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	attempted := make([]string, 0, len(g.models))

	for _, model := range g.models {
		attempted = append(attempted, model)

		text, err := g.callModel(ctx, model, prompt)
		if err == nil {
			return text, nil
		}

		if IsConfigError(err) {
			return "", err
		}

		var statusErr *statusError
		if errors.As(err, &statusErr) && statusErr.code == http.StatusNotFound {
			slog.Warn("Model unavailable, trying next", "model", model)
			lastErr = err
			continue
		}

		lastErr = err
		break
	}

	return "", fmt.Errorf("all models failed (%s): %w", strings.Join(attempted, ", "), lastErr)
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}

// callModel issues the generative request against one model, retrying only
// on rate-limit responses with bounded exponential backoff.
func (g *Gateway) callModel(ctx context.Context, model, prompt string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := g.backoffBase << (attempt - 1)
			if backoff > g.backoffCap {
				backoff = g.backoffCap
			}
			slog.Info("Rate limited, backing off", "model", model, "wait", backoff, "attempt", attempt)
			g.clock.Sleep(backoff)
		}

		g.throttle.Wait()

		text, err := g.doRequest(ctx, model, prompt)
		if err == nil {
			return text, nil
		}

		var statusErr *statusError
		if errors.As(err, &statusErr) && statusErr.code == http.StatusTooManyRequests {
			lastErr = err
			continue
		}

		return "", err
	}

	return "", fmt.Errorf("rate limit retries exhausted: %w", lastErr)
}

func (g *Gateway) doRequest(ctx context.Context, model, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []promptContent{{Parts: []promptPart{{Text: prompt}}}},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", g.endpoint, model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generative request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// handled below
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusForbidden:
		return "", &ConfigError{Err: &statusError{code: resp.StatusCode, body: truncate(string(body), 256)}}
	default:
		return "", &statusError{code: resp.StatusCode, body: truncate(string(body), 256)}
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}

	return strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
