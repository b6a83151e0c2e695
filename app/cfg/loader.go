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
	// Storage
	DBPath string `long:"db-path" env:"DB_PATH" default:"./mena-signal.db" description:"Path to the SQLite database file"`

	// Application configuration
	SourcesFile    string `long:"sources-file" env:"SOURCES_FILE" default:"./sources.yaml" description:"YAML file describing ingestion sources"`
	Port           string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount    int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for ingestion and analysis"`
	IngestInterval int    `long:"ingest-interval" env:"INGEST_INTERVAL" default:"30" description:"Ingestion interval in minutes"`
	APIAccessKey   string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for mutating endpoints (optional)"`

	// Analysis backend
	OpenAIAPIKey  string `long:"openai-api-key" env:"OPENAI_API_KEY" description:"OpenAI-compatible API key (blank enables the stub analyzer)"`
	OpenAIBaseURL string `long:"openai-base-url" env:"OPENAI_BASE_URL" default:"https://api.openai.com/v1" description:"Base URL of the OpenAI-compatible endpoint"`
	OpenAIModel   string `long:"openai-model" env:"OPENAI_MODEL" default:"gpt-4o-mini" description:"Model used for market-fit analysis"`

	// Job queue (optional)
	KafkaBrokers []string `long:"kafka-broker" env:"KAFKA_BROKERS" env-delim:"," description:"Kafka broker address; repeatable (blank runs jobs in-process)"`
	KafkaTopic   string   `long:"kafka-topic" env:"KAFKA_TOPIC" default:"mena_signal_jobs" description:"Kafka topic for background jobs"`
	KafkaGroup   string   `long:"kafka-group" env:"KAFKA_GROUP" default:"mena_signal_workers" description:"Kafka consumer group for background jobs"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"MENA Signal/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Asia/Dubai)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

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
		DBPath:         raw.DBPath,
		SourcesFile:    raw.SourcesFile,
		Port:           raw.Port,
		WorkerCount:    raw.WorkerCount,
		IngestInterval: raw.IngestInterval,
		APIAccessKey:   raw.APIAccessKey,
		OpenAIAPIKey:   raw.OpenAIAPIKey,
		OpenAIBaseURL:  raw.OpenAIBaseURL,
		OpenAIModel:    raw.OpenAIModel,
		KafkaBrokers:   raw.KafkaBrokers,
		KafkaTopic:     raw.KafkaTopic,
		KafkaGroup:     raw.KafkaGroup,
		UserAgent:      raw.UserAgent,
		Timezone:       raw.Timezone,
		Debug:          raw.Debug,
		Version:        GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
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
