package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string            `mapstructure:"environment"`
	LogLevel    string            `mapstructure:"log_level"`
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Trends      TrendsConfig      `mapstructure:"trends"`
	YouTube     YouTubeConfig     `mapstructure:"youtube"`
	Marketplace MarketplaceConfig `mapstructure:"marketplace"`
	Taxonomy    TaxonomyConfig    `mapstructure:"taxonomy"`
	Fusion      FusionConfig      `mapstructure:"fusion"`
}

type ServerConfig struct {
	Port             int      `mapstructure:"port"`
	SupportedRegions []string `mapstructure:"supported_regions"`
}

type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	DatabaseURL string `mapstructure:"database_url"`
	Enabled     bool   `mapstructure:"enabled"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig controls the two-tier trend cache. StaleTTL must be strictly
// greater than TTL so a stale copy survives the fresh copy.
type CacheConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	StaleTTL      time.Duration `mapstructure:"stale_ttl"`
	SchemaVersion string        `mapstructure:"schema_version"`
}

// TrendsConfig parameterizes the acquisition orchestrator.
type TrendsConfig struct {
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryDelay   time.Duration `mapstructure:"retry_delay"`
	RequestDelay time.Duration `mapstructure:"request_delay"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Concurrency  int           `mapstructure:"concurrency"`
	MockMode     bool          `mapstructure:"mock_mode"`
	BaseURL      string        `mapstructure:"base_url"`
}

type YouTubeConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	MaxResults     int    `mapstructure:"max_results"`
	FilterByRegion bool   `mapstructure:"filter_by_region"`
}

type MarketplaceConfig struct {
	AppKey     string        `mapstructure:"app_key"`
	AppSecret  string        `mapstructure:"app_secret"`
	TrackingID string        `mapstructure:"tracking_id"`
	BaseURL    string        `mapstructure:"base_url"`
	TreeURL    string        `mapstructure:"tree_url"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
}

// TaxonomyConfig controls incremental category resolution.
type TaxonomyConfig struct {
	Mode             string        `mapstructure:"mode"` // none, api, hybrid
	MaxNewPerRequest int           `mapstructure:"max_new_per_request"`
	RescrapeInterval time.Duration `mapstructure:"rescrape_interval"`
	TreeTTL          time.Duration `mapstructure:"tree_ttl"`
	MaxDepth         int           `mapstructure:"max_depth"`
}

type FusionConfig struct {
	WeightPrimary   float64 `mapstructure:"weight_primary"`
	WeightSecondary float64 `mapstructure:"weight_secondary"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	if config.Cache.StaleTTL <= config.Cache.TTL {
		return nil, fmt.Errorf("cache stale_ttl (%s) must be greater than ttl (%s)",
			config.Cache.StaleTTL, config.Cache.TTL)
	}

	switch config.Taxonomy.Mode {
	case "none", "api", "hybrid":
	default:
		return nil, fmt.Errorf("invalid taxonomy mode %q: must be none, api or hybrid", config.Taxonomy.Mode)
	}

	if config.Trends.Concurrency < 1 {
		config.Trends.Concurrency = 1
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.supported_regions", []string{"MX", "CR", "ES"})

	// Database (query metadata log, optional)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "trendsight")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.database_url", "")
	viper.SetDefault("database.enabled", false)

	// Redis
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Cache: fresh copy lives 24h, stale fallback copy 48h
	viper.SetDefault("cache.ttl", "24h")
	viper.SetDefault("cache.stale_ttl", "48h")
	viper.SetDefault("cache.schema_version", "v4")

	// Trends acquisition
	viper.SetDefault("trends.max_retries", 3)
	viper.SetDefault("trends.retry_delay", "8s")
	viper.SetDefault("trends.request_delay", "6s")
	viper.SetDefault("trends.timeout", "60s")
	viper.SetDefault("trends.concurrency", 1)
	viper.SetDefault("trends.mock_mode", false)
	viper.SetDefault("trends.base_url", "https://trends.google.com/trends/api")

	// YouTube
	viper.SetDefault("youtube.api_key", "")
	viper.SetDefault("youtube.base_url", "https://www.googleapis.com/youtube/v3")
	viper.SetDefault("youtube.max_results", 25)
	viper.SetDefault("youtube.filter_by_region", false)

	// Marketplace
	viper.SetDefault("marketplace.app_key", "")
	viper.SetDefault("marketplace.app_secret", "")
	viper.SetDefault("marketplace.tracking_id", "")
	viper.SetDefault("marketplace.base_url", "https://api-sg.aliexpress.com/sync")
	viper.SetDefault("marketplace.tree_url", "https://eco.taobao.com/router/rest")
	viper.SetDefault("marketplace.cache_ttl", "6h")

	// Taxonomy
	viper.SetDefault("taxonomy.mode", "none")
	viper.SetDefault("taxonomy.max_new_per_request", 5)
	viper.SetDefault("taxonomy.rescrape_interval", "24h")
	viper.SetDefault("taxonomy.tree_ttl", "6h")
	viper.SetDefault("taxonomy.max_depth", 10)

	// Fusion
	viper.SetDefault("fusion.weight_primary", 0.7)
	viper.SetDefault("fusion.weight_secondary", 0.3)
}
