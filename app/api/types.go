package api

import (
	"context"
	"time"

	"github.com/Prasoon2050/Indian-Observer/app/database"
	"github.com/Prasoon2050/Indian-Observer/app/ingestion"
	"github.com/Prasoon2050/Indian-Observer/app/sources"
)

type GeneratorInterface interface {
	GenerateFromTopic(ctx context.Context, req ingestion.GenerateRequest) (*database.Article, error)
}

var _ GeneratorInterface = (*ingestion.Orchestrator)(nil)

type Handler struct {
	articleRepo database.ArticleRepository
	statusRepo  database.StatusRepository
	generator   GeneratorInterface
	scheduler   ingestion.TaskSchedulerInterface
	version     string
}

// ArticleResponse is the wire shape of a stored article.
type ArticleResponse struct {
	ID               string                  `json:"id"`
	Topic            string                  `json:"topic,omitempty"`
	Title            string                  `json:"title"`
	Summary          string                  `json:"summary"`
	Content          string                  `json:"content"`
	Category         string                  `json:"category"`
	Tags             []string                `json:"tags"`
	InterestOverTime []sources.InterestPoint `json:"interestOverTime,omitempty"`
	SourceOptions    []sources.SourceArticle `json:"sourceOptions,omitempty"`
	AvailableSources []string                `json:"availableSources,omitempty"`
	SelectedSource   string                  `json:"selectedSource,omitempty"`
	PrimarySource    string                  `json:"primarySource,omitempty"`
	PrimaryLink      string                  `json:"primaryLink,omitempty"`
	ExternalURL      string                  `json:"externalUrl,omitempty"`
	ImageURL         string                  `json:"imageUrl,omitempty"`
	Status           string                  `json:"status"`
	PublishedAt      *time.Time              `json:"publishedAt,omitempty"`
	GeneratedAt      *time.Time              `json:"generatedAt,omitempty"`
	IsTrending       bool                    `json:"isTrending"`
	AutoGenerated    bool                    `json:"autoGenerated"`
	CreatedBy        string                  `json:"createdBy,omitempty"`
	CreatedAt        time.Time               `json:"createdAt"`
	UpdatedAt        time.Time               `json:"updatedAt"`
}

// RunStatusResponse is the wire shape of the ingestion status record.
type RunStatusResponse struct {
	Key               string     `json:"key"`
	LastRunAt         *time.Time `json:"lastRunAt,omitempty"`
	LastRunFinishedAt *time.Time `json:"lastRunFinishedAt,omitempty"`
	LastRunStatus     string     `json:"lastRunStatus"`
	Summary           string     `json:"summary,omitempty"`
	Issues            []string   `json:"issues"`
	TrendingCount     int        `json:"trendingCount"`
	CategoriesCount   int        `json:"categoriesCount"`
}

// GenerateNewsRequest is the body of a manual generation call. Async requests
// are queued behind the scheduler worker and acknowledged immediately.
type GenerateNewsRequest struct {
	Topic       string `json:"topic" binding:"required"`
	AutoPublish bool   `json:"autoPublish"`
	Async       bool   `json:"async"`
}

func toArticleResponse(a database.Article) ArticleResponse {
	return ArticleResponse{
		ID:               a.ID,
		Topic:            a.Topic,
		Title:            a.Title,
		Summary:          a.Summary,
		Content:          a.Content,
		Category:         a.Category,
		Tags:             a.Tags,
		InterestOverTime: a.InterestOverTime,
		SourceOptions:    a.SourceOptions,
		AvailableSources: a.AvailableSources,
		SelectedSource:   a.SelectedSource,
		PrimarySource:    a.PrimarySource,
		PrimaryLink:      a.PrimaryLink,
		ExternalURL:      a.ExternalURL,
		ImageURL:         a.ImageURL,
		Status:           a.Status,
		PublishedAt:      a.PublishedAt,
		GeneratedAt:      a.GeneratedAt,
		IsTrending:       a.IsTrending,
		AutoGenerated:    a.AutoGenerated,
		CreatedBy:        a.CreatedBy,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func toArticleResponses(articles []database.Article) []ArticleResponse {
	responses := make([]ArticleResponse, 0, len(articles))
	for _, a := range articles {
		responses = append(responses, toArticleResponse(a))
	}
	return responses
}

func toRunStatusResponse(s *database.RunStatus) RunStatusResponse {
	issues := s.Issues
	if issues == nil {
		issues = []string{}
	}
	return RunStatusResponse{
		Key:               s.Key,
		LastRunAt:         s.LastRunAt,
		LastRunFinishedAt: s.LastRunFinishedAt,
		LastRunStatus:     s.LastRunStatus,
		Summary:           s.Summary,
		Issues:            issues,
		TrendingCount:     s.TrendingCount,
		CategoriesCount:   s.CategoriesCount,
	}
}
