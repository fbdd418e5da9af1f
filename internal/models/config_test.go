package models

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	v := viper.New()
	v.AddConfigPath(t.TempDir())
	cfg, err := LoadConfigFrom(v, "")
	require.NoError(t, err)

	assert.Equal(t, "csv", cfg.InputFormat)
	assert.Equal(t, "console", cfg.OutputDestination)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, DefaultCellLevel, cfg.CellLevel)
	assert.Equal(t, 24*time.Hour, cfg.VisitInterval)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 10000, cfg.ProducerTimeoutMs)
	assert.True(t, cfg.EndDate.After(cfg.StartDate))
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"input_format": "parquet",
		"output_destination": "s3",
		"output_format": "parquet",
		"cloud_storage": {"provider": "s3", "region": "eu-west-1", "bucket_name": "visits"},
		"database": {"host": "db", "user": "app"},
		"workers": 0,
		"start_date": "2024-01-01T00:00:00Z",
		"visit_interval": "90m"
	}`), 0o644))

	cfg, err := LoadConfigFrom(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "parquet", cfg.InputFormat)
	assert.Equal(t, "visits", cfg.CloudStorage.BucketName)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), cfg.StartDate)
	assert.Equal(t, 90*time.Minute, cfg.VisitInterval)
	assert.Equal(t, 1, cfg.Workers, "workers are clamped to one")
	assert.Equal(t, "host=db port=5432 user=app password= dbname= sslmode=disable", cfg.Database.DSN())
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfigFrom(viper.New(), filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{InputFormat: "csv", OutputDestination: "local", OutputFormat: "json", CellLevel: 16}
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(*Config){
		"input format":      func(c *Config) { c.InputFormat = "xlsx" },
		"destination":       func(c *Config) { c.OutputDestination = "ftp" },
		"output format":     func(c *Config) { c.OutputFormat = "avro" },
		"s3 needs parquet":  func(c *Config) { c.OutputDestination = "s3" },
		"cell level":        func(c *Config) { c.CellLevel = 31 },
		"filter level":      func(c *Config) { c.FilterLevel = "excellent" },
		"fraud ratio":       func(c *Config) { c.FraudRatio = 1.5 },
		"negative invalids": func(c *Config) { c.InvalidRatio = -0.1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	cfg := valid()
	cfg.FilterLevel = "weak"
	assert.NoError(t, cfg.Validate())
}

func TestLocationValid(t *testing.T) {
	assert.True(t, Location{Lat: -1.28, Lon: 36.81}.Valid())
	assert.False(t, Location{Lat: 0, Lon: 36.81}.Valid())
	assert.False(t, Location{Lat: -1.28, Lon: 0}.Valid())
	assert.False(t, Location{Lat: math.NaN(), Lon: 36.81}.Valid())
	assert.False(t, Location{Lat: math.Inf(-1), Lon: 36.81}.Valid())
	assert.Equal(t, "POINT(36.810000 -1.280000)", Location{Lat: -1.28, Lon: 36.81}.String())
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger(&Config{LogLevel: "debug", LogFormat: "json"})
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	logger = NewLogger(&Config{LogLevel: "loud"})
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}
