// Package config loads the pipeline configuration from a YAML file and
// applies defaults. Per-stage options live in explicit typed structs and
// are validated when the topology is built, not at first use.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration document.
type Config struct {
	Broker     BrokerConfig     `yaml:"broker"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Archive    ArchiveConfig    `yaml:"archive"`
	TTP        TTPConfig        `yaml:"ttp"`
	Wikifier   WikifierConfig   `yaml:"wikifier"`
	Workers    WorkersConfig    `yaml:"workers"`
	FeedSource FeedSourceConfig `yaml:"feed_source"`
}

// BrokerConfig names the topics the pipeline consumes and publishes.
type BrokerConfig struct {
	ConsumerGroup string `yaml:"consumer_group"`
	TextTopic     string `yaml:"text_topic"`
	CompleteTopic string `yaml:"complete_topic"`
	PartialTopic  string `yaml:"partial_topic"`
}

// PostgresConfig configures the process-state store connection.
type PostgresConfig struct {
	DSN          string `yaml:"dsn"`
	ProcessTable string `yaml:"process_table"`
}

// ArchiveConfig configures the optional material archive.
type ArchiveConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// TTPConfig configures the transcription platform stage.
type TTPConfig struct {
	URL                 string   `yaml:"url"`
	User                string   `yaml:"user"`
	Token               string   `yaml:"token"`
	Languages           []string `yaml:"languages"`
	Pivot               string   `yaml:"pivot"`
	PollIntervalSeconds int      `yaml:"poll_interval_seconds"`
	PollTimeoutSeconds  int      `yaml:"poll_timeout_seconds"`
	ScratchDir          string   `yaml:"scratch_dir"`
	TestMode            bool     `yaml:"test_mode"`
}

// PollInterval returns the poll interval as a duration.
func (c TTPConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// PollTimeout returns the poll timeout as a duration.
func (c TTPConfig) PollTimeout() time.Duration {
	return time.Duration(c.PollTimeoutSeconds) * time.Second
}

// WikifierConfig configures the concept-tagging service.
type WikifierConfig struct {
	URL     string `yaml:"url"`
	UserKey string `yaml:"user_key"`
}

// WorkersConfig sets per-stage worker replication. The transcription stage
// runs more workers because each in-flight material suspends on polling.
type WorkersConfig struct {
	Default       int `yaml:"default"`
	Transcription int `yaml:"transcription"`
}

// FeedSourceConfig configures the optional local feed ingestion source.
type FeedSourceConfig struct {
	URL      string `yaml:"url"`
	Language string `yaml:"language"`
}

// Load reads and validates the configuration file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Broker: BrokerConfig{
			ConsumerGroup: "oer-preproc",
			TextTopic:     "PROCESSING.MATERIAL.TEXT",
			CompleteTopic: "STORING.MATERIAL.COMPLETE",
			PartialTopic:  "STORING.MATERIAL.PARTIAL",
		},
		Postgres: PostgresConfig{
			ProcessTable: "material_process_pipeline",
		},
		TTP: TTPConfig{
			Languages:           []string{"en", "es", "sl", "de"},
			Pivot:               "en",
			PollIntervalSeconds: 2,
			PollTimeoutSeconds:  600,
		},
		Workers: WorkersConfig{
			Default:       1,
			Transcription: 4,
		},
	}
}

func (c *Config) validate() error {
	if c.Postgres.DSN == "" {
		return fmt.Errorf("config: postgres.dsn is required")
	}
	if c.TTP.URL == "" {
		return fmt.Errorf("config: ttp.url is required")
	}
	if c.Wikifier.URL == "" {
		return fmt.Errorf("config: wikifier.url is required")
	}
	if c.Workers.Default < 1 {
		c.Workers.Default = 1
	}
	if c.Workers.Transcription < 1 {
		c.Workers.Transcription = c.Workers.Default
	}
	return nil
}
