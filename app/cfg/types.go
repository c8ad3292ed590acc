package cfg

type Cfg struct {
	// HTTP server configuration
	Port         string
	APIAccessKey string

	// Database configuration
	DBPath string

	// External provider credentials
	SerpAPIKey        string
	GoogleAPIKey      string
	UnsplashAccessKey string

	// Ingestion configuration
	FeedsFile         string
	Region            string
	RefreshInterval   int // minutes
	SynthesisInterval int // seconds between generative calls
	FreshnessWindow   int // hours
	TopicLimit        int
	ArticlesPerTopic  int
	ArticlesPerFeed   int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
