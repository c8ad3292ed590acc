package sources

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"
)

type feedsFile struct {
	Feeds []FeedDefinition `yaml:"feeds"`
}

// LoadFeedDefinitions reads category feed definitions from a YAML file.
// A missing file yields the built-in defaults.
func LoadFeedDefinitions(path string) ([]FeedDefinition, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return defaultFeedDefinitions(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read feeds file: %w", err)
	}

	var parsed feedsFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse feeds file: %w", err)
	}

	feeds := make([]FeedDefinition, 0, len(parsed.Feeds))
	for _, def := range parsed.Feeds {
		if def.URL == "" {
			return nil, fmt.Errorf("feed %q has no url", def.Name)
		}
		if def.Category == "" {
			def.Category = "General"
		}
		feeds = append(feeds, def)
	}

	return feeds, nil
}

func defaultFeedDefinitions() []FeedDefinition {
	return []FeedDefinition{
		{
			Name:     "india",
			Category: "India",
			URL:      "https://news.google.com/rss/search?q=india&hl=en-IN&gl=IN&ceid=IN:en",
		},
		{
			Name:     "business",
			Category: "Business",
			URL:      "https://news.google.com/rss/search?q=india+business&hl=en-IN&gl=IN&ceid=IN:en",
		},
		{
			Name:     "sports",
			Category: "Sports",
			URL:      "https://news.google.com/rss/search?q=india+sports&hl=en-IN&gl=IN&ceid=IN:en",
		},
	}
}

// SearchCategoryArticles fetches a category feed and maps its items into
// source articles, applying the same link and freshness filters as topic
// search.
func (c *Client) SearchCategoryArticles(ctx context.Context, def FeedDefinition, limit int) ([]SourceArticle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, def.URL, nil)
	if err != nil {
		return nil, &RequestError{Op: "category_articles", Query: def.Name, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{Op: "category_articles", Query: def.Name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &RequestError{Op: "category_articles", Query: def.Name,
			Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, &RequestError{Op: "category_articles", Query: def.Name,
			Err: fmt.Errorf("failed to parse feed: %w", err)}
	}

	now := c.now()
	articles := make([]SourceArticle, 0, limit)
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}

		published := item.Published
		if item.PublishedParsed != nil {
			if now.Sub(*item.PublishedParsed) > c.freshnessWindow || item.PublishedParsed.After(now.Add(time.Hour)) {
				continue
			}
		} else if !IsFresh(published, now, c.freshnessWindow) {
			continue
		}

		source := ""
		if item.Author != nil {
			source = item.Author.Name
		}
		// Google News titles carry the outlet after the last dash.
		title := item.Title
		if idx := strings.LastIndex(title, " - "); idx > 0 {
			if source == "" {
				source = strings.TrimSpace(title[idx+3:])
			}
			title = strings.TrimSpace(title[:idx])
		}

		imageURL := ""
		if item.Image != nil {
			imageURL = item.Image.URL
		}

		articles = append(articles, SourceArticle{
			Source:      source,
			Title:       title,
			Snippet:     strings.TrimSpace(item.Description),
			Link:        item.Link,
			RawImageURL: imageURL,
			PublishedAt: published,
		})

		if len(articles) >= limit {
			break
		}
	}

	return articles, nil
}
