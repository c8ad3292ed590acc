package sources

// TopicCandidate is a discovered trending topic. Candidates are transient:
// consumed once per ingestion run and never persisted directly.
type TopicCandidate struct {
	Text     string
	Category string
}

// SourceArticle is a single news result for a topic or category feed. An
// article without a link is unusable and is dropped before it gets here.
type SourceArticle struct {
	Source      string `json:"source,omitempty"`
	Title       string `json:"title"`
	Snippet     string `json:"snippet"`
	Link        string `json:"link"`
	RawImageURL string `json:"imageUrl,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
}

// InterestPoint is one sample of a topic's search-interest timeseries.
type InterestPoint struct {
	Date  string `json:"date"`
	Value int    `json:"value"`
}

// TrendCategory maps a provider category ID to the site category its topics
// land under. Discovery walks categories in slice order.
type TrendCategory struct {
	ID   int
	Name string
}

// FeedDefinition describes one category ingestion feed, loaded from the
// feeds YAML file.
type FeedDefinition struct {
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	URL      string `yaml:"url"`
}
