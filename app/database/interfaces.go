package database

// ArticleRepository persists synthesized articles keyed by natural identity.
type ArticleRepository interface {
	UpsertByTopic(article Article) (*Article, error)
	UpsertByLink(article Article) (*Article, error)

	GetByID(id string) (*Article, error)
	GetPublished(category string, limit int) ([]Article, error)
	GetTrending(limit int) ([]Article, error)
	GetDrafts(limit int) ([]Article, error)
	GetCount() (int, error)

	Publish(id string) (*Article, error)
	Delete(id string) error
}

// StatusRepository tracks the singleton run-status record per run key.
type StatusRepository interface {
	StartRun(key string) error
	FinishRun(key, status, summary string, issues []string, trending, categories int) error
	Get(key string) (*RunStatus, error)
}
