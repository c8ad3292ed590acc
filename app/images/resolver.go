package images

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	defaultOpenverseURL = "https://api.openverse.org/v1/images/"
	defaultUnsplashURL  = "https://api.unsplash.com/search/photos"
	defaultMinBytes     = 10 * 1024
)

// Resolver turns a candidate image URL plus topic into a usable image URL,
// falling back through alternate providers. A single resolve call never
// retries a step; each step either returns a usable URL or falls through.
type Resolver struct {
	httpClient   *http.Client
	userAgent    string
	unsplashKey  string
	openverseURL string
	unsplashURL  string
	minBytes     int64
}

type Option func(*Resolver)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(r *Resolver) {
		r.httpClient = httpClient
	}
}

func WithOpenverseURL(u string) Option {
	return func(r *Resolver) {
		r.openverseURL = u
	}
}

func WithUnsplashURL(u string) Option {
	return func(r *Resolver) {
		r.unsplashURL = u
	}
}

func WithMinBytes(n int64) Option {
	return func(r *Resolver) {
		r.minBytes = n
	}
}

func NewResolver(userAgent, unsplashKey string, opts ...Option) *Resolver {
	r := &Resolver{
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		userAgent:    userAgent,
		unsplashKey:  unsplashKey,
		openverseURL: defaultOpenverseURL,
		unsplashURL:  defaultUnsplashURL,
		minBytes:     defaultMinBytes,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve walks the fallback chain: candidate probe, og:image scrape of the
// source page, license-friendly image search, stock photos. Returns "" when
// every step fails; callers must tolerate a record with no image.
func (r *Resolver) Resolve(ctx context.Context, candidateURL, pageURL, topic string) string {
	if candidateURL != "" && !IsThumbnailURL(candidateURL) && r.probe(ctx, candidateURL) {
		return candidateURL
	}

	if pageURL != "" {
		if ogURL := r.scrapeOGImage(ctx, pageURL); ogURL != "" && !IsThumbnailURL(ogURL) && r.probe(ctx, ogURL) {
			return ogURL
		}
	}

	if u := r.searchOpenverse(ctx, topic); u != "" {
		return u
	}

	if u := r.searchUnsplash(ctx, topic); u != "" {
		return u
	}

	slog.Debug("No usable image found", "topic", topic)
	return ""
}

// Thumbnail URL shapes that are never worth probing: provider thumbnail CDNs,
// inline data URIs, and explicit small-size hints.
var thumbnailFragments = []string{
	"encrypted-tbn",
	"/thumb/",
	"/thumbs/",
	"thumbnail",
	"favicon",
	"sprite",
	"logo",
}

func IsThumbnailURL(raw string) bool {
	if strings.HasPrefix(raw, "data:") {
		return true
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return true
	}

	lower := strings.ToLower(parsed.Host + parsed.Path)
	for _, fragment := range thumbnailFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}

	query := parsed.Query()
	for _, key := range []string{"w", "h", "width", "height"} {
		if v := query.Get(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n < 400 {
				return true
			}
		}
	}
	if v := query.Get("resize"); v != "" {
		return true
	}

	return false
}

// probe issues a lightweight metadata request confirming the URL serves an
// adequately-sized image without downloading the payload.
func (r *Resolver) probe(ctx context.Context, imageURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, imageURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "image/") {
		return false
	}

	return resp.ContentLength >= r.minBytes
}

// scrapeOGImage fetches the article page and reads its og:image or
// twitter:image meta tag.
func (r *Resolver) scrapeOGImage(ctx context.Context, pageURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return ""
	}

	for _, selector := range []string{
		`meta[property="og:image"]`,
		`meta[name="twitter:image"]`,
	} {
		if content, ok := doc.Find(selector).First().Attr("content"); ok && content != "" {
			return content
		}
	}

	return ""
}

func (r *Resolver) searchOpenverse(ctx context.Context, topic string) string {
	if topic == "" {
		return ""
	}

	params := url.Values{}
	params.Set("q", topic)
	params.Set("page_size", "1")
	params.Set("license_type", "all-cc")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.openverseURL+"?"+params.Encode(), nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		slog.Debug("Openverse search failed", "topic", topic, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	var parsed struct {
		Results []struct {
			URL string `json:"url"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return ""
	}
	if len(parsed.Results) == 0 {
		return ""
	}

	return parsed.Results[0].URL
}

func (r *Resolver) searchUnsplash(ctx context.Context, topic string) string {
	if topic == "" || r.unsplashKey == "" {
		return ""
	}

	params := url.Values{}
	params.Set("query", topic)
	params.Set("per_page", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.unsplashURL+"?"+params.Encode(), nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Authorization", fmt.Sprintf("Client-ID %s", r.unsplashKey))

	resp, err := r.httpClient.Do(req)
	if err != nil {
		slog.Debug("Unsplash search failed", "topic", topic, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	var parsed struct {
		Results []struct {
			URLs struct {
				Regular string `json:"regular"`
			} `json:"urls"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return ""
	}
	if len(parsed.Results) == 0 {
		return ""
	}

	return parsed.Results[0].URLs.Regular
}
