// Package config loads and validates poller configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/fact-poller/internal/logging"
)

// Storage provider names accepted by storage.provider.
const (
	StorageLocal    = "local"
	StorageMemory   = "memory"
	StorageGCS      = "gcs"
	StoragePostgres = "postgres"
	StorageS3       = "s3"
	StorageSQLite   = "sqlite"
)

// Notify provider names accepted by notify.provider.
const (
	NotifyPubSub = "pubsub"
	NotifyMemory = "memory"
)

// DefaultURL is the upstream polled when poller.url is not set.
const DefaultURL = "https://cat-fact.herokuapp.com/facts/random"

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Poller  PollerConfig   `mapstructure:"poller"`
	HTTP    HTTPConfig     `mapstructure:"http"`
	Storage StorageConfig  `mapstructure:"storage"`
	Notify  NotifyConfig   `mapstructure:"notify"`
	Metrics MetricsConfig  `mapstructure:"metrics"`
	Logging logging.Config `mapstructure:"logging"`
}

// PollerConfig governs the run loop.
type PollerConfig struct {
	URL        string        `mapstructure:"url"`
	Iterations int           `mapstructure:"iterations"`
	Interval   time.Duration `mapstructure:"interval"`
}

// HTTPConfig configures the fetcher's HTTP client.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// StorageConfig selects and configures the record store.
type StorageConfig struct {
	Provider string         `mapstructure:"provider"`
	Local    LocalConfig    `mapstructure:"local"`
	GCS      GCSConfig      `mapstructure:"gcs"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	S3       S3Config       `mapstructure:"s3"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
}

// LocalConfig points the file store at its directory.
type LocalConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// GCSConfig names the bucket and object prefix for the GCS store.
type GCSConfig struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

// PostgresConfig controls the Postgres store connection pool.
type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// S3Config names the bucket and connection settings for the S3 store.
// Empty credentials use the default AWS credential chain.
type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

// SQLiteConfig locates the SQLite database file.
type SQLiteConfig struct {
	Path  string `mapstructure:"path"`
	Table string `mapstructure:"table"`
}

// NotifyConfig holds metadata for save notifications. An empty topic disables them.
type NotifyConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// MetricsConfig sets the listen address of the metrics server. Empty disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("POLLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("poller.url", DefaultURL)
	v.SetDefault("poller.iterations", 5)
	v.SetDefault("poller.interval", "5s")
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.user_agent", "")
	v.SetDefault("storage.provider", StorageLocal)
	v.SetDefault("storage.local.base_dir", "data")
	v.SetDefault("storage.gcs.bucket", "")
	v.SetDefault("storage.gcs.prefix", "facts")
	v.SetDefault("storage.postgres.dsn", "")
	v.SetDefault("storage.postgres.table", "facts")
	v.SetDefault("storage.postgres.max_conns", 2)
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.prefix", "facts")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key_id", "")
	v.SetDefault("storage.s3.secret_access_key", "")
	v.SetDefault("storage.s3.use_path_style", false)
	v.SetDefault("storage.sqlite.path", "data/facts.db")
	v.SetDefault("storage.sqlite.table", "facts")
	v.SetDefault("notify.provider", NotifyPubSub)
	v.SetDefault("notify.project_id", "")
	v.SetDefault("notify.topic", "")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Poller.URL) == "" {
		return fmt.Errorf("poller.url must be set")
	}
	if c.Poller.Iterations <= 0 {
		return fmt.Errorf("poller.iterations must be > 0")
	}
	if c.Poller.Interval < 0 {
		return fmt.Errorf("poller.interval must be >= 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	switch c.Storage.Provider {
	case StorageLocal:
		if strings.TrimSpace(c.Storage.Local.BaseDir) == "" {
			return fmt.Errorf("storage.local.base_dir must be set for the local provider")
		}
	case StorageMemory:
	case StorageGCS:
		if c.Storage.GCS.Bucket == "" {
			return fmt.Errorf("storage.gcs.bucket must be set for the gcs provider")
		}
	case StoragePostgres:
		if c.Storage.Postgres.DSN == "" {
			return fmt.Errorf("storage.postgres.dsn must be set for the postgres provider")
		}
	case StorageS3:
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket must be set for the s3 provider")
		}
		if (c.Storage.S3.AccessKeyID == "") != (c.Storage.S3.SecretAccessKey == "") {
			return fmt.Errorf("storage.s3.access_key_id and storage.s3.secret_access_key must be set together")
		}
	case StorageSQLite:
		if strings.TrimSpace(c.Storage.SQLite.Path) == "" {
			return fmt.Errorf("storage.sqlite.path must be set for the sqlite provider")
		}
	default:
		return fmt.Errorf("unknown storage.provider %q", c.Storage.Provider)
	}
	if c.Notify.Topic != "" {
		switch c.Notify.Provider {
		case NotifyPubSub:
			if c.Notify.ProjectID == "" {
				return fmt.Errorf("notify.project_id must be set when notify.topic is set")
			}
		case NotifyMemory:
		default:
			return fmt.Errorf("unknown notify.provider %q", c.Notify.Provider)
		}
	}
	return nil
}

// HTTPTimeout converts the configured timeout into a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}
