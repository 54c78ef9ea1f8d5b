// Configuration: defaults, then environment variables, then an optional YAML
// file, then command-line flags (applied in main).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port     int
	DBPath   string
	DataPath string

	// Scan engine
	ScanInterval time.Duration
	KeywordDelay time.Duration
	FetchTimeout time.Duration

	// Trends
	TrendsInterval time.Duration
	Geo            string
	Language       string

	// Seeded on first start when the keywords table is empty
	SeedKeywords []string

	// Suggestion mining
	StopWords      []string
	MinWordLen     int
	MinPairWordLen int
	WordThreshold  int
	PairThreshold  int
	TopN           int
	SuggestWindow  time.Duration
}

// GetConfig returns defaults overridden by NEWSWATCH_* environment variables.
// Defaults mirror the original deployment: Turkish news, region TR.
func GetConfig() Config {
	config := Config{
		Port:           3001,
		DBPath:         "data/newswatch.db",
		DataPath:       "data",
		ScanInterval:   10 * time.Minute,
		KeywordDelay:   500 * time.Millisecond,
		FetchTimeout:   30 * time.Second,
		TrendsInterval: 30 * time.Minute,
		Geo:            "TR",
		Language:       "tr",
		SeedKeywords: []string{
			"ne zaman", "kimdir", "neden", "deprem", "hamile", "ayrildi",
			"temettu", "hisse", "cekilis", "nerede", "tatil", "toki",
		},
		MinWordLen:     3,
		MinPairWordLen: 2,
		WordThreshold:  3,
		PairThreshold:  2,
		TopN:           10,
		SuggestWindow:  24 * time.Hour,
	}

	if port := os.Getenv("NEWSWATCH_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Port = p
		}
	}
	if dbPath := os.Getenv("NEWSWATCH_DB_PATH"); dbPath != "" {
		config.DBPath = dbPath
	}
	if dataPath := os.Getenv("NEWSWATCH_DATA_PATH"); dataPath != "" {
		config.DataPath = dataPath
	}
	if geo := os.Getenv("NEWSWATCH_GEO"); geo != "" {
		config.Geo = geo
	}
	if lang := os.Getenv("NEWSWATCH_LANGUAGE"); lang != "" {
		config.Language = lang
	}

	return config
}

// fileConfig is the YAML shape; durations are written as Go duration strings
// ("10m", "500ms").
type fileConfig struct {
	Port           int      `yaml:"port"`
	DBPath         string   `yaml:"db_path"`
	ScanInterval   string   `yaml:"scan_interval"`
	KeywordDelay   string   `yaml:"keyword_delay"`
	FetchTimeout   string   `yaml:"fetch_timeout"`
	TrendsInterval string   `yaml:"trends_interval"`
	Geo            string   `yaml:"geo"`
	Language       string   `yaml:"language"`
	SeedKeywords   []string `yaml:"seed_keywords"`

	Mining struct {
		Window         string   `yaml:"window"`
		StopWords      []string `yaml:"stop_words"`
		MinWordLen     int      `yaml:"min_word_length"`
		MinPairWordLen int      `yaml:"min_pair_word_length"`
		WordThreshold  int      `yaml:"word_threshold"`
		PairThreshold  int      `yaml:"pair_threshold"`
		TopN           int      `yaml:"top_n"`
	} `yaml:"mining"`
}

// LoadFile applies settings from a YAML file on top of the given config.
// A missing file is not an error; a malformed one is.
func LoadFile(path string, config Config) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return config, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return config, fmt.Errorf("error parsing config file %s: %w", path, err)
	}

	if fc.Port > 0 {
		config.Port = fc.Port
	}
	if fc.DBPath != "" {
		config.DBPath = fc.DBPath
	}
	if fc.Geo != "" {
		config.Geo = fc.Geo
	}
	if fc.Language != "" {
		config.Language = fc.Language
	}
	if len(fc.SeedKeywords) > 0 {
		config.SeedKeywords = fc.SeedKeywords
	}
	if len(fc.Mining.StopWords) > 0 {
		config.StopWords = fc.Mining.StopWords
	}
	if fc.Mining.MinWordLen > 0 {
		config.MinWordLen = fc.Mining.MinWordLen
	}
	if fc.Mining.MinPairWordLen > 0 {
		config.MinPairWordLen = fc.Mining.MinPairWordLen
	}
	if fc.Mining.WordThreshold > 0 {
		config.WordThreshold = fc.Mining.WordThreshold
	}
	if fc.Mining.PairThreshold > 0 {
		config.PairThreshold = fc.Mining.PairThreshold
	}
	if fc.Mining.TopN > 0 {
		config.TopN = fc.Mining.TopN
	}

	for _, d := range []struct {
		raw    string
		target *time.Duration
		name   string
	}{
		{fc.ScanInterval, &config.ScanInterval, "scan_interval"},
		{fc.KeywordDelay, &config.KeywordDelay, "keyword_delay"},
		{fc.FetchTimeout, &config.FetchTimeout, "fetch_timeout"},
		{fc.TrendsInterval, &config.TrendsInterval, "trends_interval"},
		{fc.Mining.Window, &config.SuggestWindow, "mining.window"},
	} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return config, fmt.Errorf("invalid duration for %s: %w", d.name, err)
		}
		*d.target = parsed
	}

	return config, nil
}

func (c Config) GetAddress() string {
	return fmt.Sprintf(":%d", c.Port)
}
