package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// HTTP server configuration
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for admin endpoints (optional)"`

	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./observer.db" description:"Path to the SQLite database file"`

	// External provider credentials. Missing keys are a startup error, not a
	// per-call error.
	SerpAPIKey        string `long:"serpapi-key" env:"SERPAPI_KEY" required:"true" description:"SerpAPI key for trend discovery and news search"`
	GoogleAPIKey      string `long:"google-api-key" env:"GOOGLE_API_KEY" required:"true" description:"Google Generative Language API key"`
	UnsplashAccessKey string `long:"unsplash-access-key" env:"UNSPLASH_ACCESS_KEY" description:"Unsplash access key for stock photo fallback (optional)"`

	// Ingestion configuration
	FeedsFile         string `long:"feeds-file" env:"FEEDS_FILE" default:"./feeds.yml" description:"YAML file with category feed definitions"`
	Region            string `long:"region" env:"TREND_REGION" default:"IN" description:"Region code for trend discovery"`
	RefreshInterval   int    `long:"refresh-interval" env:"REFRESH_INTERVAL" default:"30" description:"Ingestion run interval in minutes"`
	SynthesisInterval int    `long:"synthesis-interval" env:"SYNTHESIS_INTERVAL" default:"15" description:"Minimum seconds between generative calls"`
	FreshnessWindow   int    `long:"freshness-window" env:"FRESHNESS_WINDOW" default:"48" description:"Maximum article age in hours"`
	TopicLimit        int    `long:"topic-limit" env:"TOPIC_LIMIT" default:"20" description:"Maximum trending topics per run"`
	ArticlesPerTopic  int    `long:"articles-per-topic" env:"ARTICLES_PER_TOPIC" default:"6" description:"Source articles fetched per topic"`
	ArticlesPerFeed   int    `long:"articles-per-feed" env:"ARTICLES_PER_FEED" default:"3" description:"Articles synthesized per category feed"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Indian Observer/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Asia/Kolkata)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Port:              raw.Port,
		APIAccessKey:      raw.APIAccessKey,
		DBPath:            raw.DBPath,
		SerpAPIKey:        raw.SerpAPIKey,
		GoogleAPIKey:      raw.GoogleAPIKey,
		UnsplashAccessKey: raw.UnsplashAccessKey,
		FeedsFile:         raw.FeedsFile,
		Region:            raw.Region,
		RefreshInterval:   raw.RefreshInterval,
		SynthesisInterval: raw.SynthesisInterval,
		FreshnessWindow:   raw.FreshnessWindow,
		TopicLimit:        raw.TopicLimit,
		ArticlesPerTopic:  raw.ArticlesPerTopic,
		ArticlesPerFeed:   raw.ArticlesPerFeed,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
