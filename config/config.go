package config

import "github.com/caarlos0/env/v6"

type Config struct {
	Server struct {
		// Port the HTTP service listens on
		Port string `env:"PORT" envDefault:"8080"`

		// Allowed CORS origins, comma separated
		AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

		// Maximum number of records accepted in one normalize call
		MaxBatchSize int `env:"MAX_BATCH_SIZE" envDefault:"1000"`

		// Log level: debug, info, warn, error
		LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	}

	Storage struct {
		// Driver selects the sink: none, sqlite, postgres, jsonl
		Driver string `env:"STORAGE_DRIVER" envDefault:"none"`

		SQLitePath  string `env:"SQLITE_PATH" envDefault:"data/listwise.db"`
		PostgresDSN string `env:"POSTGRES_DSN"`
		JSONLPath   string `env:"JSONL_PATH" envDefault:"data/enriched.jsonl"`
	}

	BatchProcessing struct {
		// Buffer size of the enriched-record queue
		QueueSize int `env:"QUEUE_SIZE" envDefault:"100"`

		// Maximum number of retries for failed batches
		MaxRetries int `env:"BATCH_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"BATCH_RETRY_DELAY" envDefault:"5"`
	}

	// Optional JSON file overriding the built-in city center table
	CityCentersPath string `env:"CITY_CENTERS_PATH"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
