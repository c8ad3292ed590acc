package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClock() func() time.Time {
	fixed := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return fixed }
}

func TestNewClient_MissingCredentials(t *testing.T) {
	_, err := NewClient("", "test-agent")
	if err != ErrMissingCredentials {
		t.Errorf("Expected ErrMissingCredentials, got %v", err)
	}
}

func TestSearchArticles_FiltersLinklessAndStale(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") == "" {
			t.Errorf("Expected api_key query parameter")
		}
		fmt.Fprint(w, `{"news_results": [
			{"source": "The Hindu", "title": "Fresh story", "snippet": "s1", "link": "https://example.com/a", "date": "2 hours ago"},
			{"source": "PTI", "title": "No link story", "snippet": "s2", "date": "1 hour ago"},
			{"source": "ANI", "title": "Stale story", "snippet": "s3", "link": "https://example.com/b", "date": "2 weeks ago"},
			{"source": "BBC", "title": "Undated story", "snippet": "s4", "link": "https://example.com/c"}
		]}`)
	}))
	defer server.Close()

	client, err := NewClient("test-key", "test-agent", WithBaseURL(server.URL), WithClock(testClock()))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	articles, err := client.SearchArticles(context.Background(), "some topic", 6)
	if err != nil {
		t.Fatalf("SearchArticles failed: %v", err)
	}

	if len(articles) != 1 {
		t.Fatalf("Expected 1 article after filtering, got %d", len(articles))
	}
	if articles[0].Link != "https://example.com/a" {
		t.Errorf("Unexpected article survived filtering: %+v", articles[0])
	}
}

func TestSearchArticles_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error": "Google hasn't returned any results for this query."}`)
	}))
	defer server.Close()

	client, _ := NewClient("test-key", "test-agent", WithBaseURL(server.URL))

	_, err := client.SearchArticles(context.Background(), "anything", 6)
	if err == nil {
		t.Fatalf("Expected error from provider error payload")
	}

	reqErr, ok := err.(*RequestError)
	if !ok {
		t.Fatalf("Expected *RequestError, got %T", err)
	}
	if reqErr.Op != "search_articles" || reqErr.Query != "anything" {
		t.Errorf("RequestError should carry operation and query, got %+v", reqErr)
	}
}

func TestDiscoverTrendingTopics_DedupesAndLimits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"trending_searches": [
			{"query": {"text": "Lok Sabha session"}},
			{"query": {"text": "lok sabha SESSION"}},
			{"query": {"text": "Cricket"}},
			{"title": "Budget announcement"}
		]}`)
	}))
	defer server.Close()

	client, _ := NewClient("test-key", "test-agent", WithBaseURL(server.URL))

	categories := []TrendCategory{{ID: 14, Name: "Politics"}, {ID: 3, Name: "Business"}}
	candidates, err := client.DiscoverTrendingTopics(context.Background(), "IN", categories, 20)
	if err != nil {
		t.Fatalf("DiscoverTrendingTopics failed: %v", err)
	}

	// Both categories return the same payload: two usable multi-word topics,
	// deduplicated case-insensitively across categories.
	if len(candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d: %+v", len(candidates), candidates)
	}
	if candidates[0].Text != "Lok Sabha session" || candidates[0].Category != "Politics" {
		t.Errorf("Unexpected first candidate: %+v", candidates[0])
	}
	if candidates[1].Text != "Budget announcement" {
		t.Errorf("Unexpected second candidate: %+v", candidates[1])
	}
}

func TestDiscoverTrendingTopics_QuotaStopsPass(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			fmt.Fprint(w, `{"trending_searches": [{"query": {"text": "First topic here"}}]}`)
			return
		}
		fmt.Fprint(w, `{"error": "You have run out of searches."}`)
	}))
	defer server.Close()

	client, _ := NewClient("test-key", "test-agent", WithBaseURL(server.URL))

	categories := []TrendCategory{
		{ID: 14, Name: "Politics"},
		{ID: 3, Name: "Business"},
		{ID: 17, Name: "Sports"},
	}
	candidates, err := client.DiscoverTrendingTopics(context.Background(), "IN", categories, 20)
	if err != nil {
		t.Fatalf("Quota exhaustion must not fail the discovery pass: %v", err)
	}

	if calls != 2 {
		t.Errorf("Expected discovery to stop after quota error, got %d calls", calls)
	}
	if len(candidates) != 1 {
		t.Errorf("Expected the pre-quota candidate to survive, got %d", len(candidates))
	}
}

func TestFetchTopicInsights_ParsesTimeseries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("engine") != "google_trends" {
			t.Errorf("Expected google_trends engine, got %q", r.URL.Query().Get("engine"))
		}
		if r.URL.Query().Get("data_type") != "TIMESERIES" {
			t.Errorf("Expected TIMESERIES data type, got %q", r.URL.Query().Get("data_type"))
		}
		fmt.Fprint(w, `{"interest_over_time": {"timeline_data": [
			{"date": "Jun 8", "values": [{"extracted_value": 40}]},
			{"date": "Jun 9", "values": [{"extracted_value": 95}]},
			{"date": "Jun 10", "values": []}
		]}}`)
	}))
	defer server.Close()

	client, _ := NewClient("test-key", "test-agent", WithBaseURL(server.URL))

	points, err := client.FetchTopicInsights(context.Background(), "some topic", "IN")
	if err != nil {
		t.Fatalf("FetchTopicInsights failed: %v", err)
	}

	if len(points) != 2 {
		t.Fatalf("Expected 2 points (valueless samples dropped), got %d", len(points))
	}
	if points[1].Date != "Jun 9" || points[1].Value != 95 {
		t.Errorf("Unexpected point: %+v", points[1])
	}
}

func TestFetchTopicInsights_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error": "You have run out of searches."}`)
	}))
	defer server.Close()

	client, _ := NewClient("test-key", "test-agent", WithBaseURL(server.URL))

	_, err := client.FetchTopicInsights(context.Background(), "some topic", "IN")
	if err == nil {
		t.Fatalf("Expected error from provider error payload")
	}

	reqErr, ok := err.(*RequestError)
	if !ok {
		t.Fatalf("Expected *RequestError, got %T", err)
	}
	if reqErr.Op != "topic_insights" || reqErr.Query != "some topic" {
		t.Errorf("RequestError should carry operation and query, got %+v", reqErr)
	}
}

func TestSearchCategoryArticles_ParsesFeed(t *testing.T) {
	rss := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
	<title>Category feed</title>
	<item>
		<title>Market rally continues - Mint</title>
		<link>https://example.com/markets</link>
		<description>Stocks climbed again today.</description>
		<pubDate>Tue, 10 Jun 2025 09:00:00 GMT</pubDate>
	</item>
	<item>
		<title>Old story - Wire</title>
		<link>https://example.com/old</link>
		<pubDate>Mon, 01 Jan 2024 09:00:00 GMT</pubDate>
	</item>
</channel></rss>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rss)
	}))
	defer server.Close()

	client, _ := NewClient("test-key", "test-agent", WithClock(testClock()))

	def := FeedDefinition{Name: "business", Category: "Business", URL: server.URL}
	articles, err := client.SearchCategoryArticles(context.Background(), def, 5)
	if err != nil {
		t.Fatalf("SearchCategoryArticles failed: %v", err)
	}

	if len(articles) != 1 {
		t.Fatalf("Expected 1 fresh article, got %d", len(articles))
	}
	if articles[0].Title != "Market rally continues" {
		t.Errorf("Outlet suffix should be stripped from title, got %q", articles[0].Title)
	}
	if articles[0].Source != "Mint" {
		t.Errorf("Outlet should be recovered as source, got %q", articles[0].Source)
	}
}
