// Package models defines data structures for configuration and results.
package models

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is read when no --config flag is given. A missing file
// at this path is not an error.
const DefaultConfigPath = "wordcloud.yaml"

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Extract   ExtractConfig   `yaml:"extract"`
	Stopwords StopwordsConfig `yaml:"stopwords"`
	Rank      RankConfig      `yaml:"rank"`
	Cache     CacheConfig     `yaml:"cache"`
	Sink      SinkConfig      `yaml:"sink"`
	History   HistoryConfig   `yaml:"history"`
	Language  LanguageConfig  `yaml:"language"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// FetchConfig holds runtime configuration for the page fetcher.
type FetchConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	UserAgent    string        `yaml:"user_agent"`
}

type ExtractConfig struct {
	Selector            string `yaml:"selector"`
	ReadabilityFallback bool   `yaml:"readability_fallback"`
}

type StopwordsConfig struct {
	Source   string   `yaml:"source"` // snowball, file, none
	File     string   `yaml:"file"`
	Extra    []string `yaml:"extra"`
	Language string   `yaml:"language"`
}

type RankConfig struct {
	Limit int `yaml:"limit"` // 0 = unlimited
}

type CacheConfig struct {
	Policy    string        `yaml:"policy"`  // value, dedup, disabled
	Backend   string        `yaml:"backend"` // memory, redis, sqlite
	TTL       time.Duration `yaml:"ttl"`
	MarkerTTL time.Duration `yaml:"marker_ttl"`
	OpTimeout time.Duration `yaml:"op_timeout"`
	KeyPrefix string        `yaml:"key_prefix"`
	MaxItems  int           `yaml:"max_items"`
	Redis     RedisConfig   `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SinkConfig struct {
	Path string `yaml:"path"`
}

type HistoryConfig struct {
	Path string `yaml:"path"`
}

type LanguageConfig struct {
	Detect bool `yaml:"detect"`
}

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			RequestTimeout: 20 * time.Second,
		},
		Fetch: FetchConfig{
			Timeout:      15 * time.Second,
			MaxBodyBytes: 5 * 1024 * 1024,
			UserAgent:    "Mozilla/5.0",
		},
		Extract: ExtractConfig{
			Selector: "#productDescription",
		},
		Stopwords: StopwordsConfig{
			Source:   "snowball",
			Language: "en",
		},
		Cache: CacheConfig{
			Policy:    "value",
			Backend:   "sqlite",
			TTL:       time.Hour,
			MarkerTTL: 5 * time.Minute,
			OpTimeout: 2 * time.Second,
			KeyPrefix: "wordfreq:",
			MaxItems:  10000,
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		History: HistoryConfig{
			Path: "wordcloud.db",
		},
		Language: LanguageConfig{
			Detect: true,
		},
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig. When optional is
// true a missing file yields the defaults.
func LoadConfig(path string, optional bool) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated fields and required companions.
func (c *Config) Validate() error {
	switch c.Cache.Policy {
	case "value", "dedup", "disabled":
	default:
		return fmt.Errorf("invalid cache.policy %q (want value, dedup or disabled)", c.Cache.Policy)
	}
	switch c.Cache.Backend {
	case "memory", "redis", "sqlite":
	default:
		return fmt.Errorf("invalid cache.backend %q (want memory, redis or sqlite)", c.Cache.Backend)
	}
	if c.Cache.Backend == "sqlite" && c.History.Path == "" {
		return errors.New("cache.backend sqlite requires history.path")
	}
	switch c.Stopwords.Source {
	case "snowball", "none":
	case "file":
		if c.Stopwords.File == "" {
			return errors.New("stopwords.source file requires stopwords.file")
		}
	default:
		return fmt.Errorf("invalid stopwords.source %q (want snowball, file or none)", c.Stopwords.Source)
	}
	if c.Rank.Limit < 0 {
		return fmt.Errorf("invalid rank.limit %d", c.Rank.Limit)
	}
	return nil
}
