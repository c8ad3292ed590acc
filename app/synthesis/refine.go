package synthesis

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Prasoon2050/Indian-Observer/app/sources"
)

// Refinement cleans, validates, dedupes, and ranks source articles before
// they reach the generative prompt.

var trustedSources = map[string]bool{
	"BBC":            true,
	"Reuters":        true,
	"The Hindu":      true,
	"Indian Express": true,
	"ANI":            true,
	"PTI":            true,
}

var (
	htmlTagRe   = regexp.MustCompile(`<[^>]*>`)
	clickbaitRe = regexp.MustCompile(`(?i)(shocking|breaking|you won.t believe|viral|must see|exclusive)`)
)

const minArticleTextLength = 80

func cleanText(text string) string {
	text = htmlTagRe.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

func isUsable(a sources.SourceArticle) bool {
	if a.Link == "" || a.Title == "" {
		return false
	}

	body := a.Title + " " + a.Snippet
	if len(body) < minArticleTextLength {
		return false
	}

	return !clickbaitRe.MatchString(body)
}

func scoreArticle(a sources.SourceArticle) int {
	score := 0
	if trustedSources[a.Source] {
		score += 4
	}
	if len(a.Snippet) > 120 {
		score += 2
	}
	if a.PublishedAt != "" {
		score++
	}
	if a.RawImageURL != "" {
		score++
	}
	return score
}

// Refine normalizes and filters articles, dedupes them by link, and returns
// the highest-scoring ones, at most limit.
func Refine(articles []sources.SourceArticle, limit int) []sources.SourceArticle {
	seen := make(map[string]bool, len(articles))
	refined := make([]sources.SourceArticle, 0, len(articles))

	for _, a := range articles {
		a.Title = cleanText(a.Title)
		a.Snippet = cleanText(a.Snippet)

		if !isUsable(a) || seen[a.Link] {
			continue
		}
		seen[a.Link] = true
		refined = append(refined, a)
	}

	sort.SliceStable(refined, func(i, j int) bool {
		return scoreArticle(refined[i]) > scoreArticle(refined[j])
	})

	if limit > 0 && len(refined) > limit {
		refined = refined[:limit]
	}

	return refined
}
