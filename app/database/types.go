package database

import (
	"time"

	"github.com/Prasoon2050/Indian-Observer/app/sources"
)

// Article statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Run statuses for the ingestion state machine.
const (
	RunStatusIdle    = "idle"
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusPartial = "partial"
	RunStatusFailed  = "failed"
)

// Article is the durable unit of the system. Identity is the natural key:
// the topic for trend-derived records, the primary link for per-article
// category records.
type Article struct {
	ID         string
	NaturalKey string

	Topic    string
	Title    string
	Summary  string
	Content  string
	Category string
	Tags     []string

	// Search-interest timeseries captured during trend discovery; empty for
	// category-derived and manual records.
	InterestOverTime []sources.InterestPoint

	SourceOptions    []sources.SourceArticle
	AvailableSources []string
	SelectedSource   string
	PrimarySource    string
	PrimaryLink      string
	ExternalURL      string

	ImageURL string

	Status        string
	PublishedAt   *time.Time
	GeneratedAt   *time.Time
	IsTrending    bool
	AutoGenerated bool
	CreatedBy     string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RunStatus is the singleton observability record for one logical run type.
type RunStatus struct {
	Key               string
	LastRunAt         *time.Time
	LastRunFinishedAt *time.Time
	LastRunStatus     string
	Summary           string
	Issues            []string
	TrendingCount     int
	CategoriesCount   int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
