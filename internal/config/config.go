package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Geo      GeoConfig      `mapstructure:"geo"`
	Location LocationConfig `mapstructure:"location"`
	Workers  WorkersConfig  `mapstructure:"workers"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
}

// APIConfig holds the registry backend configuration
type APIConfig struct {
	BaseURL              string `mapstructure:"base_url"`
	Timeout              int    `mapstructure:"timeout"`
	MaxRetries           int    `mapstructure:"max_retries"`
	MaxRequestsPerSecond int    `mapstructure:"max_requests_per_second"`
	BreakerCooldown      int    `mapstructure:"breaker_cooldown"`
}

// GeoConfig holds the geographic-division lookup configuration
type GeoConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"`
}

// LocationConfig stands in for the device location service
type LocationConfig struct {
	Granted   bool    `mapstructure:"granted"`
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
}

// WorkersConfig controls the submission retry workers
type WorkersConfig struct {
	Count       int `mapstructure:"count"`
	MaxAttempts int `mapstructure:"max_attempts"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Password      string `mapstructure:"password"`
	Database      int    `mapstructure:"database"`
	ConsumerGroup string `mapstructure:"consumer_group"`
	MinIdleTime   int    `mapstructure:"min_idle_time"`
	CacheTTL      int    `mapstructure:"cache_ttl"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func (c APIConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

func (c APIConfig) BreakerCooldownDuration() time.Duration {
	return time.Duration(c.BreakerCooldown) * time.Second
}

func (c GeoConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

func (c RedisConfig) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

func (c RedisConfig) MinIdleDuration() time.Duration {
	return time.Duration(c.MinIdleTime) * time.Second
}

// Load loads configuration from config.yaml in the current directory
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom loads configuration from a config.yaml under dir with environment
// variable overrides (api.base_url -> API_BASE_URL). A missing file leaves the
// defaults in place.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	config.API.BaseURL = strings.TrimRight(config.API.BaseURL, "/")
	config.Geo.BaseURL = strings.TrimRight(config.Geo.BaseURL, "/")

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:3333")
	v.SetDefault("api.timeout", 30)
	v.SetDefault("api.max_retries", 3)
	v.SetDefault("api.max_requests_per_second", 10)
	v.SetDefault("api.breaker_cooldown", 60)

	v.SetDefault("geo.base_url", "https://servicodados.ibge.gov.br/api/v1/localidades")
	v.SetDefault("geo.timeout", 30)

	v.SetDefault("location.granted", true)
	v.SetDefault("location.latitude", 0)
	v.SetDefault("location.longitude", 0)

	v.SetDefault("workers.count", 2)
	v.SetDefault("workers.max_attempts", 5)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "ecoleta")
	v.SetDefault("database.user", "ecoleta_user")
	v.SetDefault("database.password", "ecoleta_pass")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.consumer_group", "ecoleta_consumer")
	v.SetDefault("redis.min_idle_time", 120)
	v.SetDefault("redis.cache_ttl", 3600)

	v.SetDefault("log.level", "info")
}
