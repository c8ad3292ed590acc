package sources

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

const defaultBaseURL = "https://serpapi.com/search.json"

// Client wraps the trends-discovery and news-search provider behind a
// uniform retry/error-normalization contract.
type Client struct {
	apiKey          string
	baseURL         string
	userAgent       string
	freshnessWindow time.Duration
	httpClient      *http.Client
	now             func() time.Time
}

type ClientOption func(*Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithFreshnessWindow(window time.Duration) ClientOption {
	return func(c *Client) {
		c.freshnessWindow = window
	}
}

func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

func NewClient(apiKey, userAgent string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingCredentials
	}

	c := &Client{
		apiKey:          apiKey,
		baseURL:         defaultBaseURL,
		userAgent:       userAgent,
		freshnessWindow: 48 * time.Hour,
		httpClient:      &http.Client{Timeout: 30 * time.Second},
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type trendingResponse struct {
	Error            string `json:"error"`
	TrendingSearches []struct {
		Title string `json:"title"`
		Query struct {
			Text string `json:"text"`
		} `json:"query"`
	} `json:"trending_searches"`
}

// DiscoverTrendingTopics queries each category independently and merges the
// results into a deduplicated candidate list. A quota-exhaustion error for
// one category aborts only the remaining categories in this pass.
func (c *Client) DiscoverTrendingTopics(ctx context.Context, region string, categories []TrendCategory, limit int) ([]TopicCandidate, error) {
	seen := make(map[string]bool)
	var candidates []TopicCandidate

	for _, category := range categories {
		params := url.Values{}
		params.Set("engine", "google_trends_trending_now")
		params.Set("geo", region)
		params.Set("hours", "24")
		params.Set("category_id", strconv.Itoa(category.ID))

		var resp trendingResponse
		if err := c.get(ctx, "trending_topics", params, &resp); err != nil {
			if IsQuotaExhausted(err) {
				slog.Warn("Search quota exhausted, stopping category discovery", "category", category.Name)
				break
			}
			slog.Warn("Trend discovery failed for category", "category", category.Name, "error", err)
			continue
		}

		for _, item := range resp.TrendingSearches {
			text := item.Query.Text
			if text == "" {
				text = item.Title
			}
			text = strings.TrimSpace(text)
			// Single-word queries are too ambiguous to search on.
			if len(strings.Fields(text)) < 2 {
				continue
			}
			key := strings.ToLower(text)
			if seen[key] {
				continue
			}
			seen[key] = true
			candidates = append(candidates, TopicCandidate{Text: text, Category: category.Name})
		}
	}

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	return candidates, nil
}

type insightsResponse struct {
	Error            string `json:"error"`
	InterestOverTime struct {
		TimelineData []struct {
			Date   string `json:"date"`
			Values []struct {
				ExtractedValue int `json:"extracted_value"`
			} `json:"values"`
		} `json:"timeline_data"`
	} `json:"interest_over_time"`
}

// FetchTopicInsights returns the recent search-interest timeseries for a
// topic. Insights enrich synthesis and the stored record; callers downgrade
// a failure to an empty series.
func (c *Client) FetchTopicInsights(ctx context.Context, topic, region string) ([]InterestPoint, error) {
	if topic == "" {
		return nil, &RequestError{Op: "topic_insights", Err: fmt.Errorf("topic is empty")}
	}

	params := url.Values{}
	params.Set("engine", "google_trends")
	params.Set("q", topic)
	params.Set("geo", region)
	params.Set("data_type", "TIMESERIES")
	params.Set("date", "now 7-d")

	var resp insightsResponse
	if err := c.get(ctx, "topic_insights", params, &resp); err != nil {
		return nil, &RequestError{Op: "topic_insights", Query: topic, Err: err}
	}

	points := make([]InterestPoint, 0, len(resp.InterestOverTime.TimelineData))
	for _, sample := range resp.InterestOverTime.TimelineData {
		if len(sample.Values) == 0 {
			continue
		}
		points = append(points, InterestPoint{Date: sample.Date, Value: sample.Values[0].ExtractedValue})
	}

	return points, nil
}

type newsResponse struct {
	Error       string `json:"error"`
	NewsResults []struct {
		Source    string `json:"source"`
		Title     string `json:"title"`
		Snippet   string `json:"snippet"`
		Link      string `json:"link"`
		NewsURL   string `json:"news_url"`
		Thumbnail string `json:"thumbnail"`
		ImageURL  string `json:"image_url"`
		Date      string `json:"date"`
	} `json:"news_results"`
}

// SearchArticles returns recent news results for a topic. Results without a
// link or outside the freshness window are dropped.
func (c *Client) SearchArticles(ctx context.Context, topic string, limit int) ([]SourceArticle, error) {
	if topic == "" {
		return nil, &RequestError{Op: "search_articles", Err: fmt.Errorf("topic is empty")}
	}

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", topic)
	params.Set("tbm", "nws")
	params.Set("num", strconv.Itoa(limit))

	var resp newsResponse
	if err := c.get(ctx, "search_articles", params, &resp); err != nil {
		return nil, &RequestError{Op: "search_articles", Query: topic, Err: err}
	}

	now := c.now()
	articles := make([]SourceArticle, 0, len(resp.NewsResults))
	for _, item := range resp.NewsResults {
		link := item.Link
		if link == "" {
			link = item.NewsURL
		}
		if link == "" {
			continue
		}

		if !IsFresh(item.Date, now, c.freshnessWindow) {
			continue
		}

		imageURL := item.Thumbnail
		if imageURL == "" {
			imageURL = item.ImageURL
		}

		title := item.Title
		if title == "" {
			title = topic
		}

		articles = append(articles, SourceArticle{
			Source:      item.Source,
			Title:       title,
			Snippet:     item.Snippet,
			Link:        link,
			RawImageURL: imageURL,
			PublishedAt: item.Date,
		})
	}

	return articles, nil
}

func (c *Client) get(ctx context.Context, op string, params url.Values, v any) error {
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	// The provider reports errors inside a 200 payload.
	var probe struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &probe); err == nil && probe.Error != "" {
		return fmt.Errorf("provider error: %s", probe.Error)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
