package synthesis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Prasoon2050/Indian-Observer/app/sources"
)

const maxExtractedChars = 6000

func buildPrompt(topic string, articles []sources.SourceArticle, extracted string, interest []sources.InterestPoint) string {
	var sections []string

	sections = append(sections,
		"You are a professional news editor. Combine the following source material into a single, factual news write-up.",
		fmt.Sprintf("Topic: %s", topic))

	if len(articles) > 0 {
		var b strings.Builder
		b.WriteString("Use the sources below:\n")
		for i, a := range articles {
			snippet := a.Snippet
			if snippet == "" {
				snippet = "No synopsis available"
			}
			source := a.Source
			if source == "" {
				source = "Unknown"
			}
			fmt.Fprintf(&b, "Article %d:\nTitle: %s\nSource: %s\nSummary: %s\nLink: %s\n\n",
				i+1, a.Title, source, snippet, a.Link)
		}
		sections = append(sections, strings.TrimSpace(b.String()))
	}

	if extracted != "" {
		if len(extracted) > maxExtractedChars {
			extracted = extracted[:maxExtractedChars]
		}
		sections = append(sections, "Full text of the primary source:\n"+extracted)
	}

	if len(interest) > 0 {
		var b strings.Builder
		b.WriteString("Search interest for the topic over recent days (date: relative volume):\n")
		for _, point := range interest {
			fmt.Fprintf(&b, "%s: %d\n", point.Date, point.Value)
		}
		sections = append(sections, strings.TrimSpace(b.String()))
	}

	sections = append(sections,
		`Respond with a single JSON object of this exact structure: {"title":"","summary":"","content":"","category":"","tags":["",""]}.`,
		"Content should be 4-6 paragraphs (300-500 words). Summary must be 2 sentences. Provide a relevant category and 3 tags.")

	return strings.Join(sections, "\n\n")
}

// parseArticle extracts the JSON object from a generative response. The
// model sometimes wraps its output in markdown fences or prose, so the first
// balanced-looking brace block is taken.
func parseArticle(text, topic string) (Article, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return Article{}, fmt.Errorf("response contains no JSON object")
	}

	var parsed Article
	if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err != nil {
		return Article{}, fmt.Errorf("failed to parse response JSON: %w", err)
	}

	if parsed.Title == "" {
		parsed.Title = topic
	}
	if parsed.Content == "" {
		parsed.Content = parsed.Summary
	}
	if parsed.Content == "" {
		return Article{}, fmt.Errorf("response JSON has no content")
	}
	if parsed.Summary == "" {
		parsed.Summary = truncate(parsed.Content, 200)
	}
	if parsed.Category == "" {
		parsed.Category = "General"
	}
	if parsed.Tags == nil {
		parsed.Tags = []string{}
	}

	return parsed, nil
}

// fallbackArticle builds a deterministic article directly from source
// snippets so a generative hiccup degrades quality, not availability.
func fallbackArticle(topic string, articles []sources.SourceArticle) Article {
	var content strings.Builder
	for i, a := range articles {
		fmt.Fprintf(&content, "%d. %s - %s\n", i+1, a.Title, a.Snippet)
	}

	highlights := make([]string, 0, 2)
	for _, a := range articles {
		if len(highlights) == 2 {
			break
		}
		if a.Snippet != "" {
			highlights = append(highlights, a.Snippet)
		} else {
			highlights = append(highlights, a.Title)
		}
	}

	return Article{
		Title:    fmt.Sprintf("Trending: %s", topic),
		Summary:  fmt.Sprintf("Highlights for %s: %s", topic, strings.Join(highlights, " / ")),
		Content:  strings.TrimSpace(content.String()),
		Category: "General",
		Tags:     []string{Slugify(topic), "trending"},
	}
}

// Slugify lowercases a topic and joins its words with hyphens for use as a
// tag or identity key.
func Slugify(topic string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(topic))), "-")
}
