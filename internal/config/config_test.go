package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/koustreak/IceFlow/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "iceflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
catalog:
  kind: rest
  uri: http://localhost:8181
  namespace: analytics
store:
  endpoint: localhost:9000
  warehouse: warehouse
sink:
  max_batch_size: 500
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format, "unset keys keep defaults")
	assert.Equal(t, "default", cfg.Catalog.Name)
	assert.Equal(t, "http://localhost:8181", cfg.Catalog.URI)
	assert.Equal(t, "analytics", cfg.Catalog.Namespace)
	assert.Equal(t, "warehouse", cfg.Store.Warehouse)
	assert.Equal(t, 500, cfg.Sink.MaxBatchSize)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
catalog:
  kind: rest
  uri: http://from-file:8181
store:
  warehouse: warehouse
`)

	t.Setenv("ICEFLOW_CATALOG_URI", "http://from-env:8181")
	t.Setenv("ICEFLOW_CATALOG_TOKEN", "secret")
	t.Setenv("ICEFLOW_STORE_SSL", "true")
	t.Setenv("ICEFLOW_MAX_BATCH_SIZE", "250")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://from-env:8181", cfg.Catalog.URI)
	assert.Equal(t, "secret", cfg.Catalog.Token)
	assert.True(t, cfg.Store.UseSSL)
	assert.Equal(t, 250, cfg.Sink.MaxBatchSize)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestLoad_UnparsableFile(t *testing.T) {
	path := writeConfig(t, "catalog: [unclosed")
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		c := Default()
		c.Catalog.URI = "http://localhost:8181"
		c.Store.Warehouse = "warehouse"
		return c
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		msg    string
	}{
		{"unknown kind", func(c *Config) { c.Catalog.Kind = "hive" }, "catalog kind"},
		{"missing uri", func(c *Config) { c.Catalog.URI = "" }, "uri"},
		{"missing namespace", func(c *Config) { c.Catalog.Namespace = "" }, "namespace"},
		{"missing warehouse", func(c *Config) { c.Store.Warehouse = "" }, "warehouse"},
		{"zero batch size", func(c *Config) { c.Sink.MaxBatchSize = 0 }, "max_batch_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errs.IsInvalidInput(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	require.NoError(t, base().Validate())
}
