package config

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Server struct {
		Port string `env:"SERVER_PORT" envDefault:"5250"`

		// Origins allowed to call the API from a browser
		AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

		ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	}

	Database struct {
		Path string `env:"DATABASE_PATH" envDefault:"database/agrimap.db"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL" envDefault:"info"`
	}

	// BatchProcessing configuration
	BatchProcessing struct {
		// Maximum number of submitted batches buffered before rejecting
		MaxBatchSize int `env:"BATCH_MAX_SIZE" envDefault:"100"`

		// Number of concurrent batch processors
		ProcessorCount int `env:"BATCH_PROCESSOR_COUNT" envDefault:"2"`

		// Maximum number of retries for failed batches
		MaxRetries int `env:"BATCH_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"BATCH_RETRY_DELAY" envDefault:"5"`
	}

	Pipeline struct {
		// Quiet period after a change before recomputing
		Debounce time.Duration `env:"PIPELINE_DEBOUNCE" envDefault:"500ms"`

		CacheTTL      time.Duration `env:"PIPELINE_CACHE_TTL" envDefault:"1h"`
		MaxDistanceKm float64       `env:"PIPELINE_MAX_DISTANCE_KM" envDefault:"50"`

		// Most recent reports considered per snapshot
		SnapshotLimit int `env:"PIPELINE_SNAPSHOT_LIMIT" envDefault:"1000"`

		Timezone     string `env:"PIPELINE_TIMEZONE" envDefault:"Asia/Manila"`
		DefaultRange string `env:"PIPELINE_DEFAULT_RANGE" envDefault:"today"`
	}

	Retention struct {
		Days int `env:"RETENTION_DAYS" envDefault:"30"`
	}

	// Telegram alerts for new rebalancing pairs
	Telegram struct {
		Enabled  bool   `env:"TELEGRAM_ENABLED" envDefault:"false"`
		BotToken string `env:"TELEGRAM_BOT_TOKEN"`
		ChatID   string `env:"TELEGRAM_CHAT_ID"`
	}

	// Optional JSON file replacing the built-in city list
	CitiesFile string `env:"CITIES_FILE"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the services cannot run with
func (c *Config) Validate() error {
	if c.BatchProcessing.MaxBatchSize <= 0 {
		return fmt.Errorf("BATCH_MAX_SIZE must be positive, got %d", c.BatchProcessing.MaxBatchSize)
	}
	if c.BatchProcessing.MaxRetries < 0 {
		return fmt.Errorf("BATCH_MAX_RETRIES must not be negative, got %d", c.BatchProcessing.MaxRetries)
	}
	if c.Pipeline.MaxDistanceKm <= 0 {
		return fmt.Errorf("PIPELINE_MAX_DISTANCE_KM must be positive, got %v", c.Pipeline.MaxDistanceKm)
	}
	if c.Retention.Days < 0 {
		return fmt.Errorf("RETENTION_DAYS must not be negative, got %d", c.Retention.Days)
	}
	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == "") {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID are required when TELEGRAM_ENABLED is set")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the timezone used for calendar-day windows
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Pipeline.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid PIPELINE_TIMEZONE %q: %w", c.Pipeline.Timezone, err)
	}
	return loc, nil
}
