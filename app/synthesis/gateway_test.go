package synthesis

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Prasoon2050/Indian-Observer/app/sources"
)

func testArticles() []sources.SourceArticle {
	return []sources.SourceArticle{
		{
			Source:      "The Hindu",
			Title:       "Parliament clears the long-pending amendment after marathon debate",
			Snippet:     "The bill passed with a comfortable majority after a day-long discussion in the house.",
			Link:        "https://example.com/a",
			PublishedAt: "2 hours ago",
		},
		{
			Source:  "PTI",
			Title:   "Opposition walks out over the amendment vote in the upper house",
			Snippet: "Members staged a walkout claiming insufficient time for scrutiny of the draft.",
			Link:    "https://example.com/b",
		},
	}
}

const validResponse = `{"candidates":[{"content":{"parts":[{"text":"{\"title\":\"Amendment passes\",\"summary\":\"It passed. Debate was long.\",\"content\":\"Full content here.\",\"category\":\"Politics\",\"tags\":[\"parliament\",\"bill\",\"vote\"]}"}]}}]}`

func newTestGateway(t *testing.T, serverURL string, clock Clock, models ...string) *Gateway {
	t.Helper()
	if len(models) == 0 {
		models = []string{"model-a"}
	}
	gw, err := NewGateway("test-key", 15*time.Second,
		WithEndpoint(serverURL),
		WithModels(models...),
		WithGatewayClock(clock),
		WithBackoff(2*time.Second, 30*time.Second, 3),
	)
	if err != nil {
		t.Fatalf("NewGateway failed: %v", err)
	}
	return gw
}

func TestNewGateway_MissingCredentials(t *testing.T) {
	_, err := NewGateway("", 15*time.Second)
	if err != ErrMissingCredentials {
		t.Errorf("Expected ErrMissingCredentials, got %v", err)
	}
}

func TestSynthesize_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, validResponse)
	}))
	defer server.Close()

	gw := newTestGateway(t, server.URL, newFakeClock())

	article, err := gw.Synthesize(context.Background(), "amendment bill", testArticles(), "", nil)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	if article.Title != "Amendment passes" {
		t.Errorf("Unexpected title: %q", article.Title)
	}
	if article.Category != "Politics" {
		t.Errorf("Unexpected category: %q", article.Category)
	}
	if len(article.Tags) != 3 {
		t.Errorf("Expected 3 tags, got %v", article.Tags)
	}
}

func TestSynthesize_ModelFallbackOnNotFound(t *testing.T) {
	clock := newFakeClock()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "model-a") {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error": {"message": "model not found"}}`)
			return
		}
		fmt.Fprint(w, validResponse)
	}))
	defer server.Close()

	gw := newTestGateway(t, server.URL, clock, "model-a", "model-b")

	article, err := gw.Synthesize(context.Background(), "amendment bill", testArticles(), "", nil)
	if err != nil {
		t.Fatalf("Expected fallback to model-b to succeed: %v", err)
	}
	if article.Title != "Amendment passes" {
		t.Errorf("Unexpected title: %q", article.Title)
	}

	// A 404 advances models immediately; only the throttle gap between the
	// two calls may be slept, never the rate-limit backoff schedule.
	if got := clock.totalSlept(); got > 15*time.Second {
		t.Errorf("Model fallback should not incur rate-limit backoff waits, slept %v", got)
	}
}

func TestSynthesize_AllModelsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	gw := newTestGateway(t, server.URL, newFakeClock(), "model-a", "model-b")

	_, err := gw.Synthesize(context.Background(), "amendment bill", testArticles(), "", nil)
	if err == nil {
		t.Fatalf("Expected error when every model is unavailable")
	}
	if !strings.Contains(err.Error(), "model-a") || !strings.Contains(err.Error(), "model-b") {
		t.Errorf("Aggregate error should name all attempted models, got: %v", err)
	}
}

func TestSynthesize_RateLimitBackoffThenSuccess(t *testing.T) {
	clock := newFakeClock()
	calls := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, validResponse)
	}))
	defer server.Close()

	gw := newTestGateway(t, server.URL, clock)

	_, err := gw.Synthesize(context.Background(), "amendment bill", testArticles(), "", nil)
	if err != nil {
		t.Fatalf("Expected success after backoff retries: %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls (2 rate-limited + 1 success), got %d", calls)
	}

	// Backoff waits of 2s and 4s must have been taken.
	var backoffs []time.Duration
	for _, d := range clock.sleeps {
		if d == 2*time.Second || d == 4*time.Second {
			backoffs = append(backoffs, d)
		}
	}
	if len(backoffs) != 2 {
		t.Errorf("Expected exponential backoff sleeps of 2s and 4s, got %v", clock.sleeps)
	}
}

func TestSynthesize_ConfigErrorNotRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error": {"message": "API key revoked"}}`)
	}))
	defer server.Close()

	gw := newTestGateway(t, server.URL, newFakeClock(), "model-a", "model-b")

	_, err := gw.Synthesize(context.Background(), "amendment bill", testArticles(), "", nil)
	if !IsConfigError(err) {
		t.Fatalf("Expected a configuration error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Configuration errors must not be retried, got %d calls", calls)
	}
}

func TestSynthesize_MalformedResponseFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"Sorry, I cannot produce JSON today."}]}}]}`)
	}))
	defer server.Close()

	gw := newTestGateway(t, server.URL, newFakeClock())

	article, err := gw.Synthesize(context.Background(), "amendment bill", testArticles(), "", nil)
	if err != nil {
		t.Fatalf("Malformed responses must degrade, not fail: %v", err)
	}

	if article.Title != "Trending: amendment bill" {
		t.Errorf("Expected deterministic fallback title, got %q", article.Title)
	}
	if article.Category != "General" {
		t.Errorf("Expected fallback category General, got %q", article.Category)
	}
	if len(article.Tags) != 2 || article.Tags[0] != "amendment-bill" {
		t.Errorf("Expected slug + trending tags, got %v", article.Tags)
	}
	if !strings.Contains(article.Content, "Parliament clears") {
		t.Errorf("Fallback content should be built from source titles, got %q", article.Content)
	}
}

func TestSynthesize_InterestSeriesReachesPrompt(t *testing.T) {
	var promptBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		promptBody = string(body)
		fmt.Fprint(w, validResponse)
	}))
	defer server.Close()

	gw := newTestGateway(t, server.URL, newFakeClock())

	interest := []sources.InterestPoint{
		{Date: "Jun 8", Value: 42},
		{Date: "Jun 9", Value: 87},
	}
	if _, err := gw.Synthesize(context.Background(), "amendment bill", testArticles(), "", interest); err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	if !strings.Contains(promptBody, "Jun 9: 87") {
		t.Errorf("Prompt should carry the search-interest samples, got %q", promptBody)
	}
}

func TestSynthesize_ThrottleSpacesBackToBackCalls(t *testing.T) {
	clock := newFakeClock()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, validResponse)
	}))
	defer server.Close()

	gw := newTestGateway(t, server.URL, clock)

	if _, err := gw.Synthesize(context.Background(), "first topic", testArticles(), "", nil); err != nil {
		t.Fatalf("First call failed: %v", err)
	}
	if _, err := gw.Synthesize(context.Background(), "second topic", testArticles(), "", nil); err != nil {
		t.Fatalf("Second call failed: %v", err)
	}

	if got := clock.totalSlept(); got < 15*time.Second {
		t.Errorf("Second call must wait out the minimum interval, slept only %v", got)
	}
}
