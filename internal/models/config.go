package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("invalid config")

type CloudStorageConfig struct {
	Provider   string `mapstructure:"provider"`
	Region     string `mapstructure:"region"`
	BucketName string `mapstructure:"bucket_name"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN returns a libpq style connection string, accepted by both lib/pq and pgx.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

type Config struct {
	// input
	InputPath   string `mapstructure:"input_path"`
	InputFormat string `mapstructure:"input_format"`

	// output
	OutputDestination string             `mapstructure:"output_destination"`
	OutputFormat      string             `mapstructure:"output_format"`
	OutputPath        string             `mapstructure:"output_path"`
	OutputFolder      string             `mapstructure:"output_folder"`
	CloudStorage      CloudStorageConfig `mapstructure:"cloud_storage"`
	KafkaBrokerList   string             `mapstructure:"kafka_broker_list"`
	KafkaTopicPrefix  string             `mapstructure:"kafka_topic_prefix"`
	ProducerTimeoutMs int                `mapstructure:"producer_timeout_ms"`
	Database          DatabaseConfig     `mapstructure:"database"`

	// engine
	Workers      int  `mapstructure:"workers"`
	CellLevel    int  `mapstructure:"cell_level"`
	ShowProgress bool `mapstructure:"show_progress"`

	// query
	FilterLevel    string `mapstructure:"filter_level"`
	FilterSalesman string `mapstructure:"filter_salesman"`
	Search         string `mapstructure:"search"`
	SortBy         string `mapstructure:"sort_by"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// generator
	Seed          int64         `mapstructure:"seed"`
	StartDate     time.Time     `mapstructure:"start_date"`
	EndDate       time.Time     `mapstructure:"end_date"`
	Shops         int           `mapstructure:"shops"`
	Salesmen      int           `mapstructure:"salesmen"`
	VisitsPerShop int           `mapstructure:"visits_per_shop"`
	FraudRatio    float64       `mapstructure:"fraud_ratio"`
	InvalidRatio  float64       `mapstructure:"invalid_ratio"`
	CityLat       float64       `mapstructure:"city_latitude"`
	CityLon       float64       `mapstructure:"city_longitude"`
	UrbanRadius   float64       `mapstructure:"urban_radius"` // km
	VisitInterval time.Duration `mapstructure:"visit_interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("input_format", "csv")
	v.SetDefault("output_destination", "console")
	v.SetDefault("output_format", "json")
	v.SetDefault("output_folder", "consensus")
	v.SetDefault("producer_timeout_ms", 10000)
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("workers", 1)
	v.SetDefault("cell_level", DefaultCellLevel)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("seed", 42)
	v.SetDefault("start_date", time.Now().AddDate(0, -1, 0).Format(time.RFC3339))
	v.SetDefault("end_date", time.Now().Format(time.RFC3339))
	v.SetDefault("shops", 50)
	v.SetDefault("salesmen", 8)
	v.SetDefault("visits_per_shop", 12)
	v.SetDefault("fraud_ratio", 0.05)
	v.SetDefault("invalid_ratio", 0.02)
	v.SetDefault("city_latitude", -1.286389)
	v.SetDefault("city_longitude", 36.817223)
	v.SetDefault("urban_radius", 10.0)
	v.SetDefault("visit_interval", "24h")
}

// LoadConfig initializes and reads the configuration using Viper
func LoadConfig(cfgFile string) (*Config, error) {
	return LoadConfigFrom(viper.GetViper(), cfgFile)
}

// LoadConfigFrom reads the configuration into v. A missing default config file is
// not an error; defaults, env and bound flags still apply.
func LoadConfigFrom(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		// Default config location
		v.AddConfigPath("examples")
		v.SetConfigName("config")
		v.SetConfigType("json")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv() // Read in environment variables that match
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			config.DecodeHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToTimeDurationHookFunc(),
		)
	})
	if err := v.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (cfg *Config) Validate() error {
	switch cfg.InputFormat {
	case "csv", "json", "parquet", "postgres":
	default:
		return fmt.Errorf("%w: unsupported input format %q", ErrInvalidConfig, cfg.InputFormat)
	}
	switch cfg.OutputDestination {
	case "console", "local", "s3", "kafka", "postgres":
	default:
		return fmt.Errorf("%w: unsupported output destination %q", ErrInvalidConfig, cfg.OutputDestination)
	}
	switch cfg.OutputFormat {
	case "json", "csv", "parquet":
	default:
		return fmt.Errorf("%w: unsupported output format %q", ErrInvalidConfig, cfg.OutputFormat)
	}
	if cfg.OutputDestination == "s3" && cfg.OutputFormat != "parquet" {
		return fmt.Errorf("%w: s3 destination only supports parquet output", ErrInvalidConfig)
	}
	if cfg.CellLevel < 0 || cfg.CellLevel > 30 {
		return fmt.Errorf("%w: cell_level must be within 0..30, got %d", ErrInvalidConfig, cfg.CellLevel)
	}
	if cfg.FilterLevel != "" && !ConsensusLevel(strings.ToUpper(cfg.FilterLevel)).Valid() {
		return fmt.Errorf("%w: unknown consensus level %q", ErrInvalidConfig, cfg.FilterLevel)
	}
	if cfg.FraudRatio < 0 || cfg.FraudRatio > 1 || cfg.InvalidRatio < 0 || cfg.InvalidRatio > 1 {
		return fmt.Errorf("%w: fraud_ratio and invalid_ratio must be within 0..1", ErrInvalidConfig)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return nil
}
