package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Prasoon2050/Indian-Observer/app/sources"
)

// SQLArticleRepository implements ArticleRepository on SQLite.
type SQLArticleRepository struct {
	db *DB
}

var _ ArticleRepository = (*SQLArticleRepository)(nil)

func NewArticleRepository(db *DB) *SQLArticleRepository {
	return &SQLArticleRepository{db: db}
}

// TopicKey builds the natural key for trend-derived records.
func TopicKey(topic string) string {
	return "topic:" + strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(topic))), " ")
}

// LinkKey builds the natural key for per-article category records.
func LinkKey(link string) string {
	return "link:" + strings.TrimSpace(link)
}

// UpsertByTopic upserts a trend-derived record keyed on its topic text.
func (r *SQLArticleRepository) UpsertByTopic(article Article) (*Article, error) {
	if article.Topic == "" {
		return nil, fmt.Errorf("article has no topic")
	}
	article.NaturalKey = TopicKey(article.Topic)
	return r.upsert(article)
}

// UpsertByLink upserts a category-derived record keyed on its canonical
// source link.
func (r *SQLArticleRepository) UpsertByLink(article Article) (*Article, error) {
	if article.PrimaryLink == "" {
		return nil, fmt.Errorf("article has no primary link")
	}
	article.NaturalKey = LinkKey(article.PrimaryLink)
	return r.upsert(article)
}

// upsert refreshes every content field on conflict but leaves a once-set
// image_url untouched: the CASE expression is the atomic
// compare-and-swap-on-empty, safe under overlapping runs. Insert-only
// defaults (id, status, created_by, created_at) are never repeated in the
// update clause.
func (r *SQLArticleRepository) upsert(article Article) (*Article, error) {
	tags, err := marshalJSON(article.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}
	sourceOptions, err := marshalJSON(article.SourceOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal source options: %w", err)
	}
	availableSources, err := marshalJSON(article.AvailableSources)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal available sources: %w", err)
	}
	interestOverTime, err := marshalJSON(article.InterestOverTime)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal interest over time: %w", err)
	}

	status := article.Status
	if status == "" {
		status = StatusDraft
	}

	_, err = r.db.Exec(`
		INSERT INTO articles (
			id, natural_key, topic, title, summary, content, category, tags,
			interest_over_time, source_options, available_sources, selected_source,
			primary_source, primary_link, external_url, image_url, status,
			published_at, generated_at, is_trending, auto_generated, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		ON CONFLICT (natural_key) DO UPDATE SET
			topic = excluded.topic,
			title = excluded.title,
			summary = excluded.summary,
			content = excluded.content,
			category = excluded.category,
			tags = excluded.tags,
			interest_over_time = excluded.interest_over_time,
			source_options = excluded.source_options,
			available_sources = excluded.available_sources,
			selected_source = excluded.selected_source,
			primary_source = excluded.primary_source,
			primary_link = excluded.primary_link,
			external_url = excluded.external_url,
			image_url = CASE
				WHEN COALESCE(articles.image_url, '') = '' THEN excluded.image_url
				ELSE articles.image_url
			END,
			generated_at = excluded.generated_at,
			is_trending = excluded.is_trending,
			auto_generated = excluded.auto_generated,
			updated_at = CURRENT_TIMESTAMP
	`, uuid.NewString(), article.NaturalKey, article.Topic, article.Title,
		article.Summary, article.Content, article.Category, tags,
		interestOverTime, sourceOptions, availableSources, article.SelectedSource,
		article.PrimarySource, article.PrimaryLink, article.ExternalURL,
		article.ImageURL, status, article.PublishedAt, article.GeneratedAt,
		article.IsTrending, article.AutoGenerated, article.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert article: %w", err)
	}

	return r.getByNaturalKey(article.NaturalKey)
}

const articleColumns = `id, natural_key, topic, title, summary, content, category, tags,
	interest_over_time, source_options, available_sources, selected_source,
	primary_source, primary_link, external_url, image_url, status, published_at,
	generated_at, is_trending, auto_generated, created_by, created_at, updated_at`

func (r *SQLArticleRepository) getByNaturalKey(naturalKey string) (*Article, error) {
	row := r.db.QueryRow(`SELECT `+articleColumns+` FROM articles WHERE natural_key = $1`, naturalKey)
	return scanArticle(row)
}

func (r *SQLArticleRepository) GetByID(id string) (*Article, error) {
	row := r.db.QueryRow(`SELECT `+articleColumns+` FROM articles WHERE id = $1`, id)
	return scanArticle(row)
}

func (r *SQLArticleRepository) GetPublished(category string, limit int) ([]Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE status = $1`
	args := []any{StatusPublished}

	if category != "" {
		query += ` AND category = $2 ORDER BY published_at DESC LIMIT $3`
		args = append(args, category, limit)
	} else {
		query += ` ORDER BY published_at DESC LIMIT $2`
		args = append(args, limit)
	}

	return r.queryArticles(query, args...)
}

func (r *SQLArticleRepository) GetTrending(limit int) ([]Article, error) {
	return r.queryArticles(`
		SELECT `+articleColumns+`
		FROM articles
		WHERE is_trending = 1
		ORDER BY generated_at DESC
		LIMIT $1
	`, limit)
}

func (r *SQLArticleRepository) GetDrafts(limit int) ([]Article, error) {
	return r.queryArticles(`
		SELECT `+articleColumns+`
		FROM articles
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, StatusDraft, limit)
}

func (r *SQLArticleRepository) GetCount() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM articles`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return count, nil
}

// Publish flips a draft to published. It never touches image_url.
func (r *SQLArticleRepository) Publish(id string) (*Article, error) {
	result, err := r.db.Exec(`
		UPDATE articles
		SET status = $1, published_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
	`, StatusPublished, id)
	if err != nil {
		return nil, fmt.Errorf("failed to publish article: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	return r.GetByID(id)
}

func (r *SQLArticleRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}
	return nil
}

func (r *SQLArticleRepository) queryArticles(query string, args ...any) ([]Article, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		article, err := scanArticleRow(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row *sql.Row) (*Article, error) {
	article, err := scanArticleRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return article, err
}

func scanArticleRow(row rowScanner) (*Article, error) {
	var a Article
	var tags, interestOverTime, sourceOptions, availableSources string
	var publishedAt, generatedAt sql.NullTime

	err := row.Scan(
		&a.ID, &a.NaturalKey, &a.Topic, &a.Title, &a.Summary, &a.Content,
		&a.Category, &tags, &interestOverTime, &sourceOptions, &availableSources,
		&a.SelectedSource, &a.PrimarySource, &a.PrimaryLink, &a.ExternalURL,
		&a.ImageURL, &a.Status, &publishedAt, &generatedAt,
		&a.IsTrending, &a.AutoGenerated, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan article row: %w", err)
	}

	if publishedAt.Valid {
		a.PublishedAt = &publishedAt.Time
	}
	if generatedAt.Valid {
		a.GeneratedAt = &generatedAt.Time
	}

	if err := json.Unmarshal([]byte(tags), &a.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	if err := json.Unmarshal([]byte(interestOverTime), &a.InterestOverTime); err != nil {
		return nil, fmt.Errorf("failed to unmarshal interest over time: %w", err)
	}
	if err := json.Unmarshal([]byte(sourceOptions), &a.SourceOptions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal source options: %w", err)
	}
	if err := json.Unmarshal([]byte(availableSources), &a.AvailableSources); err != nil {
		return nil, fmt.Errorf("failed to unmarshal available sources: %w", err)
	}

	return &a, nil
}

func marshalJSON(v any) (string, error) {
	if v == nil {
		return "[]", nil
	}
	switch typed := v.(type) {
	case []string:
		if typed == nil {
			return "[]", nil
		}
	case []sources.SourceArticle:
		if typed == nil {
			return "[]", nil
		}
	case []sources.InterestPoint:
		if typed == nil {
			return "[]", nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
