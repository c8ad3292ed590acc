package ingestion

import (
	"context"

	"github.com/Prasoon2050/Indian-Observer/app/sources"
	"github.com/Prasoon2050/Indian-Observer/app/synthesis"
)

// TopicSource discovers trending topics and searches news articles.
type TopicSource interface {
	DiscoverTrendingTopics(ctx context.Context, region string, categories []sources.TrendCategory, limit int) ([]sources.TopicCandidate, error)
	SearchArticles(ctx context.Context, topic string, limit int) ([]sources.SourceArticle, error)
	SearchCategoryArticles(ctx context.Context, def sources.FeedDefinition, limit int) ([]sources.SourceArticle, error)
	FetchTopicInsights(ctx context.Context, topic, region string) ([]sources.InterestPoint, error)
}

// RelevanceClassifier decides whether a headline is politically relevant.
type RelevanceClassifier interface {
	Classify(text string) bool
}

// ImageResolver resolves a usable image URL for an article, or "".
type ImageResolver interface {
	Resolve(ctx context.Context, candidateURL, pageURL, topic string) string
}

// Synthesizer turns source articles into a generated article.
type Synthesizer interface {
	Synthesize(ctx context.Context, topic string, articles []sources.SourceArticle, extracted string, interest []sources.InterestPoint) (synthesis.Article, error)
}

// ContentExtractor pulls readable text out of an article page.
type ContentExtractor interface {
	ExtractFromURL(ctx context.Context, pageURL string) (string, error)
}

type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	EnqueueRun() error
	EnqueueGeneration(req GenerateRequest) error
}
