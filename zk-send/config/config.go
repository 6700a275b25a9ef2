package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// SubunitsPerCoin scales a decimal coin amount to ledger units.
	SubunitsPerCoin = 100_000_000
	// ExpirationDelta is added to the chain height when no expiration is given.
	ExpirationDelta = 30

	DefaultTimeout  = 10 * time.Second
	DefaultEndpoint = "127.0.0.1:8021"
	DefaultLogLevel = "info"
)

const (
	BackendNode    = "node"
	BackendIndexer = "indexer"
)

const (
	EnvEndpoint        = "ZKSEND_ENDPOINT"
	EnvIndexerURL      = "ZKSEND_INDEXER"
	EnvBackend         = "ZKSEND_BACKEND"
	EnvTimeout         = "ZKSEND_TIMEOUT"
	EnvLogLevel        = "ZKSEND_LOGLEVEL"
	EnvParallelWitness = "ZKSEND_PARALLEL_WITNESS"
)

type Config struct {
	Endpoint        string
	IndexerURL      string
	Backend         string
	Timeout         time.Duration
	LogLevel        string
	ParallelWitness bool
}

func Default() Config {
	return Config{
		Endpoint: DefaultEndpoint,
		Backend:  BackendNode,
		Timeout:  DefaultTimeout,
		LogLevel: DefaultLogLevel,
	}
}

// LoadEnv loads .env style files into the process environment. Variables
// already set win. Missing files are ignored.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// FromEnv starts from Default and overrides every field set in ZKSEND_*.
func FromEnv() (Config, error) {
	cfg := Default()
	cfg.Endpoint = getEnv(EnvEndpoint, cfg.Endpoint)
	cfg.IndexerURL = getEnv(EnvIndexerURL, cfg.IndexerURL)
	cfg.Backend = getEnv(EnvBackend, cfg.Backend)
	cfg.LogLevel = getEnv(EnvLogLevel, cfg.LogLevel)

	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		cfg.Timeout = d
	}
	if v := os.Getenv(EnvParallelWitness); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvParallelWitness, err)
		}
		cfg.ParallelWitness = b
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendNode:
	case BackendIndexer:
		if c.IndexerURL == "" {
			return errors.New("indexer backend requires an indexer url")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Endpoint == "" {
		return errors.New("empty endpoint")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
