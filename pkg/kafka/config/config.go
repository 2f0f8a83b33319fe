package kafka_config

import (
	"fmt"
	"time"
)

// Config holds producer settings for the event stream.
type Config struct {
	Brokers []string

	MaxAttempts  int
	BatchTimeout time.Duration
	RequireAcks  int    // -1 = all, 0 = none, 1 = leader only
	Compression  string // "none", "gzip", "snappy", "lz4", "zstd"
	Async        bool
}

// New returns a producer config with conservative defaults for the given
// broker list.
func New(brokers []string) *Config {
	return &Config{
		Brokers:      brokers,
		MaxAttempts:  3,
		BatchTimeout: 100 * time.Millisecond,
		RequireAcks:  -1,
		Compression:  "snappy",
		Async:        false,
	}
}

func (cfg *Config) Validate() error {
	if len(cfg.Brokers) == 0 {
		return fmt.Errorf("at least one Kafka broker is required")
	}
	for i, broker := range cfg.Brokers {
		if broker == "" {
			return fmt.Errorf("broker %d cannot be empty", i)
		}
	}

	if cfg.MaxAttempts <= 0 {
		return fmt.Errorf("MaxAttempts must be positive, got: %d", cfg.MaxAttempts)
	}
	if cfg.BatchTimeout <= 0 {
		return fmt.Errorf("BatchTimeout must be positive, got: %s", cfg.BatchTimeout)
	}

	switch cfg.Compression {
	case "none", "gzip", "snappy", "lz4", "zstd":
	default:
		return fmt.Errorf("Compression must be one of [none, gzip, snappy, lz4, zstd], got: %s", cfg.Compression)
	}

	switch cfg.RequireAcks {
	case -1, 0, 1:
	default:
		return fmt.Errorf("RequireAcks must be -1, 0, or 1, got: %d", cfg.RequireAcks)
	}

	return nil
}
