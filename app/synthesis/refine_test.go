package synthesis

import (
	"testing"

	"github.com/Prasoon2050/Indian-Observer/app/sources"
)

func TestRefine_DropsUnusableArticles(t *testing.T) {
	articles := []sources.SourceArticle{
		{Title: "No link article with a reasonably long descriptive title attached", Snippet: "Some snippet text that makes this long enough."},
		{Title: "Short", Snippet: "", Link: "https://example.com/short"},
		{Title: "You won't believe what happened next in this viral clip", Snippet: "Absolutely shocking scenes from the stadium today.", Link: "https://example.com/clickbait"},
		{Title: "Parliament clears the long-pending amendment after marathon debate", Snippet: "The bill passed with a comfortable majority in the house.", Link: "https://example.com/good"},
	}

	refined := Refine(articles, 5)

	if len(refined) != 1 {
		t.Fatalf("Expected 1 usable article, got %d: %+v", len(refined), refined)
	}
	if refined[0].Link != "https://example.com/good" {
		t.Errorf("Wrong article survived refinement: %+v", refined[0])
	}
}

func TestRefine_DedupesByLink(t *testing.T) {
	article := sources.SourceArticle{
		Title:   "Parliament clears the long-pending amendment after marathon debate",
		Snippet: "The bill passed with a comfortable majority in the house.",
		Link:    "https://example.com/good",
	}

	refined := Refine([]sources.SourceArticle{article, article, article}, 5)
	if len(refined) != 1 {
		t.Errorf("Expected duplicates collapsed to 1, got %d", len(refined))
	}
}

func TestRefine_RanksTrustedSourcesFirst(t *testing.T) {
	articles := []sources.SourceArticle{
		{
			Source:  "Random Blog",
			Title:   "A long enough title describing the parliamentary proceedings today",
			Snippet: "Some text about what happened during the session.",
			Link:    "https://example.com/blog",
		},
		{
			Source:      "Reuters",
			Title:       "A long enough title describing the parliamentary proceedings today",
			Snippet:     "Some text about what happened during the session.",
			Link:        "https://example.com/reuters",
			PublishedAt: "2 hours ago",
		},
	}

	refined := Refine(articles, 5)
	if len(refined) != 2 {
		t.Fatalf("Expected both articles to survive, got %d", len(refined))
	}
	if refined[0].Source != "Reuters" {
		t.Errorf("Trusted source should rank first, got %q", refined[0].Source)
	}
}

func TestRefine_StripsHTMLAndLimits(t *testing.T) {
	articles := []sources.SourceArticle{}
	for i := 0; i < 8; i++ {
		articles = append(articles, sources.SourceArticle{
			Title:   "A long enough title <b>with markup</b> describing proceedings in detail",
			Snippet: "Some <i>snippet</i> text about what happened during the session.",
			Link:    "https://example.com/" + string(rune('a'+i)),
		})
	}

	refined := Refine(articles, 5)
	if len(refined) != 5 {
		t.Errorf("Expected refinement capped at 5, got %d", len(refined))
	}
	if refined[0].Title != "A long enough title with markup describing proceedings in detail" {
		t.Errorf("HTML should be stripped, got %q", refined[0].Title)
	}
}

func TestSlugify(t *testing.T) {
	if got := Slugify("  Lok Sabha  Session "); got != "lok-sabha-session" {
		t.Errorf("Slugify = %q", got)
	}
}

func TestParseArticle_FencedJSON(t *testing.T) {
	text := "Here is the article:\n```json\n{\"title\":\"T\",\"summary\":\"S\",\"content\":\"C\",\"category\":\"Politics\",\"tags\":[\"a\"]}\n```"

	article, err := parseArticle(text, "topic")
	if err != nil {
		t.Fatalf("parseArticle failed: %v", err)
	}
	if article.Title != "T" || article.Category != "Politics" {
		t.Errorf("Unexpected parse result: %+v", article)
	}
}

func TestParseArticle_MissingFieldsDefaulted(t *testing.T) {
	article, err := parseArticle(`{"content":"Only content here."}`, "fallback topic")
	if err != nil {
		t.Fatalf("parseArticle failed: %v", err)
	}
	if article.Title != "fallback topic" {
		t.Errorf("Missing title should default to topic, got %q", article.Title)
	}
	if article.Summary == "" || article.Category != "General" {
		t.Errorf("Missing fields should be defaulted: %+v", article)
	}
	if article.Tags == nil {
		t.Errorf("Tags should never be nil")
	}
}

func TestParseArticle_NoJSON(t *testing.T) {
	if _, err := parseArticle("no structured data at all", "topic"); err == nil {
		t.Errorf("Expected error for response without JSON")
	}
}
