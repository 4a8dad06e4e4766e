package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Lake       LakeConfig       `yaml:"lake" mapstructure:"lake"`
	Dedupe     DedupeConfig     `yaml:"dedupe" mapstructure:"dedupe"`
	Validate   ValidateConfig   `yaml:"validate" mapstructure:"validate"`
	Geocode    GeocodeConfig    `yaml:"geocode" mapstructure:"geocode"`
	Region     RegionConfig     `yaml:"region" mapstructure:"region"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LakeConfig configures the raw data lake.
type LakeConfig struct {
	DataDir          string `yaml:"data_dir" mapstructure:"data_dir"` // durable blob copies land here
	ArchiveAfterDays int    `yaml:"archive_after_days" mapstructure:"archive_after_days"`
}

// DedupeConfig configures swarm prevention thresholds.
type DedupeConfig struct {
	FuzzyThreshold    float64 `yaml:"fuzzy_threshold" mapstructure:"fuzzy_threshold"`
	GeoNameThreshold  float64 `yaml:"geo_name_threshold" mapstructure:"geo_name_threshold"`
	GeoDistanceDeg    float64 `yaml:"geo_distance_deg" mapstructure:"geo_distance_deg"`
	CleaningThreshold float64 `yaml:"cleaning_threshold" mapstructure:"cleaning_threshold"`
}

// ValidateConfig configures quality scoring weights.
type ValidateConfig struct {
	Completeness float64 `yaml:"completeness" mapstructure:"completeness"`
	Accuracy     float64 `yaml:"accuracy" mapstructure:"accuracy"`
	Consistency  float64 `yaml:"consistency" mapstructure:"consistency"`
	Timeliness   float64 `yaml:"timeliness" mapstructure:"timeliness"`
	Uniqueness   float64 `yaml:"uniqueness" mapstructure:"uniqueness"`
}

// GeocodeConfig configures the geolocation enhancer.
type GeocodeConfig struct {
	NominatimBaseURL  string  `yaml:"nominatim_base_url" mapstructure:"nominatim_base_url"`
	PhotonBaseURL     string  `yaml:"photon_base_url" mapstructure:"photon_base_url"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	CacheTTLHours     int     `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	CacheMaxEntries   int     `yaml:"cache_max_entries" mapstructure:"cache_max_entries"`
	UserAgent         string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// RegionConfig is the accepted coordinate bounding region.
type RegionConfig struct {
	MinLat float64 `yaml:"min_lat" mapstructure:"min_lat"`
	MaxLat float64 `yaml:"max_lat" mapstructure:"max_lat"`
	MinLon float64 `yaml:"min_lon" mapstructure:"min_lon"`
	MaxLon float64 `yaml:"max_lon" mapstructure:"max_lon"`
}

// MonitoringConfig configures the quality monitor sweep.
type MonitoringConfig struct {
	WarningThreshold  float64 `yaml:"warning_threshold" mapstructure:"warning_threshold"`
	CriticalThreshold float64 `yaml:"critical_threshold" mapstructure:"critical_threshold"`
	TimelinessDays    int     `yaml:"timeliness_days" mapstructure:"timeliness_days"`
	CheckIntervalSecs int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	WebhookURL        string  `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// ServerConfig configures the read-only quality report server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FACILITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "facility.db")
	v.SetDefault("lake.data_dir", "data/lake")
	v.SetDefault("lake.archive_after_days", 30)
	v.SetDefault("dedupe.fuzzy_threshold", 0.85)
	v.SetDefault("dedupe.geo_name_threshold", 0.70)
	v.SetDefault("dedupe.geo_distance_deg", 0.1)
	v.SetDefault("dedupe.cleaning_threshold", 0.5)
	v.SetDefault("validate.completeness", 0.30)
	v.SetDefault("validate.accuracy", 0.25)
	v.SetDefault("validate.consistency", 0.20)
	v.SetDefault("validate.timeliness", 0.15)
	v.SetDefault("validate.uniqueness", 0.10)
	v.SetDefault("geocode.nominatim_base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.photon_base_url", "https://photon.komoot.io")
	v.SetDefault("geocode.requests_per_second", 1.0)
	v.SetDefault("geocode.timeout_secs", 10)
	v.SetDefault("geocode.cache_ttl_hours", 24)
	v.SetDefault("geocode.cache_max_entries", 10000)
	v.SetDefault("geocode.user_agent", "facility-cli/1.0 (data@hudumadata.org)")
	// Kenya bounding region.
	v.SetDefault("region.min_lat", -4.7)
	v.SetDefault("region.max_lat", 5.5)
	v.SetDefault("region.min_lon", 33.9)
	v.SetDefault("region.max_lon", 41.9)
	v.SetDefault("monitoring.warning_threshold", 0.90)
	v.SetDefault("monitoring.critical_threshold", 0.80)
	v.SetDefault("monitoring.timeliness_days", 90)
	v.SetDefault("monitoring.check_interval_secs", 3600)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
