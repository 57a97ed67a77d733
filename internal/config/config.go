package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// CatalogPath points at a YAML request-type catalog. Empty uses the
	// embedded default.
	CatalogPath string

	// Report generation. With no ReportAPIURL links are built locally
	// against LinkBaseURL.
	LinkBaseURL      string
	ReportAPIURL     string
	ReportAPITimeout time.Duration
	ReportCacheSize  int
	MinGenerating    time.Duration

	SessionIdleTTL      time.Duration
	SessionReapSchedule string

	// Report outcome events.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaEventsTopic   string
	BatchSize          int
	BatchFlushInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	apiTimeout, err := parsePositiveDuration("REPORT_API_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	minGenerating, err := time.ParseDuration(sharedcfg.EnvOrDefault("MIN_GENERATING", "1s"))
	if err != nil || minGenerating < 0 {
		return nil, errors.New("invalid MIN_GENERATING")
	}

	idleTTL, err := parsePositiveDuration("SESSION_IDLE_TTL", "30m")
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		CatalogPath: os.Getenv("CATALOG_PATH"),

		LinkBaseURL:      sharedcfg.EnvOrDefault("LINK_BASE_URL", "https://data.lacity.org/resource/myla311.csv"),
		ReportAPIURL:     os.Getenv("REPORT_API_URL"),
		ReportAPITimeout: apiTimeout,
		ReportCacheSize:  parseReportCacheSize(),
		MinGenerating:    minGenerating,

		SessionIdleTTL:      idleTTL,
		SessionReapSchedule: sharedcfg.EnvOrDefault("SESSION_REAP_SCHEDULE", "@every 1m"),

		KafkaEnabled:       os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaEventsTopic:   sharedcfg.EnvOrDefault("KAFKA_EVENTS_TOPIC", "neighborhood-report-events"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}

	if cfg.ReportAPIURL == "" && cfg.LinkBaseURL == "" {
		return nil, errors.New("LINK_BASE_URL is required when REPORT_API_URL is not set")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaEventsTopic == "" {
			return nil, errors.New("KAFKA_EVENTS_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parseReportCacheSize() int {
	if s := os.Getenv("REPORT_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 500
}
