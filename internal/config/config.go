// Package config loads IceFlow's process configuration: a YAML file with
// environment-variable overrides for the credential-shaped settings.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/koustreak/IceFlow/internal/errs"
	"go.yaml.in/yaml/v3"
)

// Config is the full process configuration.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Catalog CatalogConfig `yaml:"catalog"`
	Store   StoreConfig   `yaml:"store"`
	Sink    SinkConfig    `yaml:"sink"`
}

// LogConfig selects log level and output format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CatalogConfig locates the destination catalog.
type CatalogConfig struct {
	// Name is the catalog name, e.g. "default".
	Name string `yaml:"name"`

	// Kind selects the backend: "rest" or "sql".
	Kind string `yaml:"kind"`

	// URI is the REST endpoint (kind rest) or Postgres DSN (kind sql).
	URI string `yaml:"uri"`

	// Token is an optional bearer token for REST catalogs.
	Token string `yaml:"token"`

	// Namespace is the target namespace tables are created under.
	Namespace string `yaml:"namespace"`
}

// StoreConfig locates the warehouse object store.
type StoreConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Region    string `yaml:"region"` // empty: resolved from the warehouse bucket
	Warehouse string `yaml:"warehouse"`
}

// SinkConfig tunes batch handling.
type SinkConfig struct {
	// MaxBatchSize caps records per processed batch.
	MaxBatchSize int `yaml:"max_batch_size"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Log:     LogConfig{Level: "info", Format: "json"},
		Catalog: CatalogConfig{Name: "default", Kind: "rest", Namespace: "default"},
		Sink:    SinkConfig{MaxBatchSize: 10000},
	}
}

// Load reads a YAML config file over the defaults, then applies
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, fmt.Sprintf("cannot read config file %q", path), err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, fmt.Sprintf("cannot parse config file %q", path), err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides settings from ICEFLOW_* environment variables.
// Credentials normally arrive this way rather than through the file.
func (c *Config) applyEnv() {
	setString(&c.Catalog.Name, "ICEFLOW_CATALOG_NAME")
	setString(&c.Catalog.Kind, "ICEFLOW_CATALOG_KIND")
	setString(&c.Catalog.URI, "ICEFLOW_CATALOG_URI")
	setString(&c.Catalog.Token, "ICEFLOW_CATALOG_TOKEN")
	setString(&c.Catalog.Namespace, "ICEFLOW_NAMESPACE")

	setString(&c.Store.Endpoint, "ICEFLOW_STORE_ENDPOINT")
	setString(&c.Store.AccessKey, "ICEFLOW_STORE_ACCESS_KEY")
	setString(&c.Store.SecretKey, "ICEFLOW_STORE_SECRET_KEY")
	setString(&c.Store.Region, "ICEFLOW_STORE_REGION")
	setString(&c.Store.Warehouse, "ICEFLOW_WAREHOUSE")
	setBool(&c.Store.UseSSL, "ICEFLOW_STORE_SSL")

	setInt(&c.Sink.MaxBatchSize, "ICEFLOW_MAX_BATCH_SIZE")
	setString(&c.Log.Level, "ICEFLOW_LOG_LEVEL")
	setString(&c.Log.Format, "ICEFLOW_LOG_FORMAT")
}

// Validate rejects configurations the process cannot start with.
func (c *Config) Validate() error {
	switch c.Catalog.Kind {
	case "rest", "sql":
	default:
		return errs.New(errs.ErrKindInvalidInput,
			fmt.Sprintf("unknown catalog kind %q (want rest or sql)", c.Catalog.Kind))
	}
	if c.Catalog.URI == "" {
		return errs.New(errs.ErrKindInvalidInput, "catalog uri is required")
	}
	if c.Catalog.Namespace == "" {
		return errs.New(errs.ErrKindInvalidInput, "namespace is required")
	}
	if c.Store.Warehouse == "" {
		return errs.New(errs.ErrKindInvalidInput, "warehouse bucket is required")
	}
	if c.Sink.MaxBatchSize <= 0 {
		return errs.New(errs.ErrKindInvalidInput, "max_batch_size must be positive")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
