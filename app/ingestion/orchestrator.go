package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Prasoon2050/Indian-Observer/app/database"
	"github.com/Prasoon2050/Indian-Observer/app/sources"
	"github.com/Prasoon2050/Indian-Observer/app/synthesis"
)

// RunKey is the status record key for scheduled ingestion runs.
const RunKey = "trending"

const (
	CategoryPolitics = "Politics"
	CategoryGeneral  = "General"
)

// DefaultTrendCategories mirrors the provider's trending-now category IDs.
var DefaultTrendCategories = []sources.TrendCategory{
	{ID: 14, Name: "Politics"},
	{ID: 3, Name: "Business"},
	{ID: 17, Name: "Sports"},
	{ID: 18, Name: "Technology"},
	{ID: 4, Name: "Entertainment"},
}

// Settings holds the per-run knobs the orchestrator needs.
type Settings struct {
	Region           string
	TopicLimit       int
	ArticlesPerTopic int
	ArticlesPerFeed  int
}

func (s *Settings) applyDefaults() {
	if s.Region == "" {
		s.Region = "IN"
	}
	if s.TopicLimit <= 0 {
		s.TopicLimit = 20
	}
	if s.ArticlesPerTopic <= 0 {
		s.ArticlesPerTopic = 6
	}
	if s.ArticlesPerFeed <= 0 {
		s.ArticlesPerFeed = 3
	}
}

// GenerateRequest describes a manual single-topic generation.
type GenerateRequest struct {
	Topic       string
	AutoPublish bool
	Actor       string
}

// Orchestrator drives one ingestion run: trending discovery, per-topic
// synthesis, then the category feed pass. Items fail independently; only a
// provider configuration error aborts a run.
type Orchestrator struct {
	source      TopicSource
	classifier  RelevanceClassifier
	resolver    ImageResolver
	synthesizer Synthesizer
	extractor   ContentExtractor
	articleRepo database.ArticleRepository
	statusRepo  database.StatusRepository
	feeds       []sources.FeedDefinition
	categories  []sources.TrendCategory
	settings    Settings
	now         func() time.Time

	// Overlapping ticks and manual triggers collapse into the run in flight.
	runMu sync.Mutex
}

func NewOrchestrator(source TopicSource, classifier RelevanceClassifier,
	resolver ImageResolver, synthesizer Synthesizer, extractor ContentExtractor,
	articleRepo database.ArticleRepository, statusRepo database.StatusRepository,
	feeds []sources.FeedDefinition, settings Settings) *Orchestrator {
	settings.applyDefaults()

	return &Orchestrator{
		source:      source,
		classifier:  classifier,
		resolver:    resolver,
		synthesizer: synthesizer,
		extractor:   extractor,
		articleRepo: articleRepo,
		statusRepo:  statusRepo,
		feeds:       feeds,
		categories:  DefaultTrendCategories,
		settings:    settings,
		now:         time.Now,
	}
}

// Run executes a full ingestion pass and records its outcome in the status
// repository. Per-item failures become issues; the run keeps going.
func (o *Orchestrator) Run(ctx context.Context) error {
	if !o.runMu.TryLock() {
		slog.Warn("Ingestion run already in progress, skipping")
		return nil
	}
	defer o.runMu.Unlock()

	if err := o.statusRepo.StartRun(RunKey); err != nil {
		return fmt.Errorf("failed to mark run as started: %w", err)
	}

	started := o.now()
	var issues []string
	trendingCount := 0
	categoriesCount := 0

	topics, err := o.source.DiscoverTrendingTopics(ctx, o.settings.Region, o.categories, o.settings.TopicLimit)
	if err != nil {
		issues = append(issues, fmt.Sprintf("trend discovery: %v", err))
	}

	for _, candidate := range topics {
		if ctx.Err() != nil {
			issues = append(issues, fmt.Sprintf("run canceled: %v", ctx.Err()))
			break
		}

		if _, err := o.generateTopic(ctx, candidate.Text, candidate.Category, true, "system-trending"); err != nil {
			if synthesis.IsConfigError(err) {
				return o.abortRun(err, trendingCount, categoriesCount, issues)
			}
			issues = append(issues, fmt.Sprintf("topic %q: %v", candidate.Text, err))
			continue
		}
		trendingCount++
	}

	for _, def := range o.feeds {
		if ctx.Err() != nil {
			issues = append(issues, fmt.Sprintf("run canceled: %v", ctx.Err()))
			break
		}

		found, err := o.source.SearchCategoryArticles(ctx, def, o.settings.ArticlesPerFeed)
		if err != nil {
			issues = append(issues, fmt.Sprintf("feed %q: %v", def.Name, err))
			continue
		}

		for _, sourceArticle := range found {
			if err := o.generateFromSource(ctx, def, sourceArticle); err != nil {
				if synthesis.IsConfigError(err) {
					return o.abortRun(err, trendingCount, categoriesCount, issues)
				}
				issues = append(issues, fmt.Sprintf("feed %q article %q: %v", def.Name, sourceArticle.Title, err))
				continue
			}
			categoriesCount++
		}
	}

	status := runOutcome(trendingCount+categoriesCount, len(issues))
	summary := fmt.Sprintf("generated %d trending and %d category articles in %s",
		trendingCount, categoriesCount, o.now().Sub(started).Round(time.Second))

	if err := o.statusRepo.FinishRun(RunKey, status, summary, issues, trendingCount, categoriesCount); err != nil {
		return fmt.Errorf("failed to record run outcome: %w", err)
	}

	slog.Info("Ingestion run finished",
		"status", status,
		"trending", trendingCount,
		"categories", categoriesCount,
		"issues", len(issues))

	return nil
}

// GenerateFromTopic runs the trend path for a single manually requested topic.
func (o *Orchestrator) GenerateFromTopic(ctx context.Context, req GenerateRequest) (*database.Article, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	actor := req.Actor
	if actor == "" {
		actor = "manual"
	}

	saved, err := o.generateTopic(ctx, topic, "", false, actor)
	if err != nil {
		return nil, err
	}

	if req.AutoPublish {
		published, err := o.articleRepo.Publish(saved.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to publish generated article: %w", err)
		}
		return published, nil
	}

	return saved, nil
}

func (o *Orchestrator) abortRun(cause error, trending, categories int, issues []string) error {
	issues = append(issues, cause.Error())
	summary := "run aborted: provider rejected credentials or request"
	if err := o.statusRepo.FinishRun(RunKey, database.RunStatusFailed, summary, issues, trending, categories); err != nil {
		slog.Error("Failed to record aborted run", "error", err)
	}
	return cause
}

// generateTopic is the shared topic path: search, extract, synthesize,
// resolve image, upsert by topic.
func (o *Orchestrator) generateTopic(ctx context.Context, topic, hintedCategory string, trending bool, createdBy string) (*database.Article, error) {
	found, err := o.source.SearchArticles(ctx, topic, o.settings.ArticlesPerTopic)
	if err != nil {
		return nil, fmt.Errorf("article search failed: %w", err)
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("no fresh articles found")
	}

	primary := found[0]
	extracted := o.extractText(ctx, primary.Link)
	insights := o.fetchInsights(ctx, topic)

	generated, err := o.synthesizer.Synthesize(ctx, topic, found, extracted, insights)
	if err != nil {
		return nil, fmt.Errorf("synthesis failed: %w", err)
	}

	imageURL := o.resolver.Resolve(ctx, primary.RawImageURL, primary.Link, topic)
	generatedAt := o.now().UTC()

	record := database.Article{
		Topic:            topic,
		Title:            generated.Title,
		Summary:          generated.Summary,
		Content:          generated.Content,
		Category:         o.categorize(topic, primary.Title, hintedCategory, generated.Category),
		Tags:             generated.Tags,
		InterestOverTime: insights,
		SourceOptions:    found,
		AvailableSources: sourceNames(found),
		SelectedSource:   primary.Source,
		PrimarySource:    primary.Source,
		PrimaryLink:      primary.Link,
		ExternalURL:      primary.Link,
		ImageURL:         imageURL,
		GeneratedAt:      &generatedAt,
		IsTrending:       trending,
		AutoGenerated:    true,
		CreatedBy:        createdBy,
	}

	saved, err := o.articleRepo.UpsertByTopic(record)
	if err != nil {
		return nil, fmt.Errorf("failed to persist article: %w", err)
	}

	return saved, nil
}

// generateFromSource is the category path: one record per source article,
// keyed by its link.
func (o *Orchestrator) generateFromSource(ctx context.Context, def sources.FeedDefinition, sourceArticle sources.SourceArticle) error {
	extracted := o.extractText(ctx, sourceArticle.Link)

	generated, err := o.synthesizer.Synthesize(ctx, sourceArticle.Title, []sources.SourceArticle{sourceArticle}, extracted, nil)
	if err != nil {
		return fmt.Errorf("synthesis failed: %w", err)
	}

	imageURL := o.resolver.Resolve(ctx, sourceArticle.RawImageURL, sourceArticle.Link, sourceArticle.Title)
	generatedAt := o.now().UTC()

	category := def.Category
	if category == "" {
		category = CategoryGeneral
	}

	record := database.Article{
		Topic:            sourceArticle.Title,
		Title:            generated.Title,
		Summary:          generated.Summary,
		Content:          generated.Content,
		Category:         category,
		Tags:             generated.Tags,
		SourceOptions:    []sources.SourceArticle{sourceArticle},
		AvailableSources: []string{sourceArticle.Source},
		SelectedSource:   sourceArticle.Source,
		PrimarySource:    sourceArticle.Source,
		PrimaryLink:      sourceArticle.Link,
		ExternalURL:      sourceArticle.Link,
		ImageURL:         imageURL,
		GeneratedAt:      &generatedAt,
		AutoGenerated:    true,
		CreatedBy:        "system-categories",
	}

	if _, err := o.articleRepo.UpsertByLink(record); err != nil {
		return fmt.Errorf("failed to persist article: %w", err)
	}

	return nil
}

// fetchInsights pulls the topic's search-interest timeseries. Insights are
// enrichment only; a failure degrades to an empty series.
func (o *Orchestrator) fetchInsights(ctx context.Context, topic string) []sources.InterestPoint {
	points, err := o.source.FetchTopicInsights(ctx, topic, o.settings.Region)
	if err != nil {
		slog.Debug("Topic insights unavailable", "topic", topic, "error", err)
		return nil
	}
	return points
}

func (o *Orchestrator) extractText(ctx context.Context, pageURL string) string {
	if o.extractor == nil || pageURL == "" {
		return ""
	}

	text, err := o.extractor.ExtractFromURL(ctx, pageURL)
	if err != nil {
		slog.Debug("Content extraction failed, synthesizing from snippets", "url", pageURL, "error", err)
		return ""
	}
	return text
}

// categorize promotes politically relevant headlines, otherwise prefers the
// trend category hint over the model's own guess.
func (o *Orchestrator) categorize(topic, headline, hinted, generated string) string {
	if o.classifier != nil && (o.classifier.Classify(topic) || o.classifier.Classify(headline)) {
		return CategoryPolitics
	}
	if hinted != "" {
		return hinted
	}
	if generated != "" {
		return generated
	}
	return CategoryGeneral
}

func runOutcome(succeeded, issueCount int) string {
	switch {
	case issueCount == 0:
		return database.RunStatusSuccess
	case succeeded == 0:
		return database.RunStatusFailed
	default:
		return database.RunStatusPartial
	}
}

func sourceNames(articles []sources.SourceArticle) []string {
	seen := make(map[string]bool, len(articles))
	var names []string
	for _, a := range articles {
		if a.Source == "" || seen[a.Source] {
			continue
		}
		seen[a.Source] = true
		names = append(names, a.Source)
	}
	return names
}
