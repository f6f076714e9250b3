package config

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/viper"
)

// Config holds all application settings.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Generation GenerationConfig
	Runtime    RuntimeConfig
	CORS       CORSConfig
}

// CORSConfig lists the browser origins allowed to reach the REST and
// WebSocket surface.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port          string
	ReadTimeout   int
	WriteTimeout  int
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds unified Redis connection settings, supporting single,
// sentinel and cluster modes.
type RedisConfig struct {
	Mode            string `mapstructure:"mode"`
	Addrs           []string `mapstructure:"addrs"`
	Addr            string `mapstructure:"addr"`
	Password        string `mapstructure:"password"`
	DB              int    `mapstructure:"db"`
	MasterName      string `mapstructure:"master_name"`
	MaxRetries      int    `mapstructure:"max_retries"`
	MinRetryBackoff int    `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff int    `mapstructure:"max_retry_backoff"`
}

// GenerationConfig holds the Component E configuration surface (spec.md §6):
// consumed only by the generation adapter.
type GenerationConfig struct {
	OpenAIAPIKey  string `mapstructure:"openai_api_key"`
	OpenAIAPIBase string `mapstructure:"openai_api_base"`
	OpenAIModel   string `mapstructure:"openai_model"`
}

// RuntimeConfig holds the fixed timing constants of the session runtime
// (spec.md §4.7, §5), exposed so operators can tune them without a code
// change while keeping a fixed, enumerated structure (no dynamic lookup).
type RuntimeConfig struct {
	RevealDelaySec     int
	ResultsDisplaySec  int
	HeartbeatScanSec   int
	HeartbeatTimeoutSec int
}

func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Load loads configuration from an optional file plus explicitly bound
// environment variables.
func Load(configPath string) (*Config, error) {
	vip := viper.New()

	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("generation.openai_api_key", "OPENAI_API_KEY")
	vip.BindEnv("generation.openai_api_base", "OPENAI_API_BASE")
	vip.BindEnv("generation.openai_model", "OPENAI_MODEL")

	vip.BindEnv("server.port", "SERVER_PORT")

	vip.SetDefault("runtime.revealdelaysec", 2)
	vip.SetDefault("runtime.resultsdisplaysec", 5)
	vip.SetDefault("runtime.heartbeatscansec", 5)
	vip.SetDefault("runtime.heartbeattimeoutsec", 15)
	vip.SetDefault("generation.openai_api_base", "http://localhost:1234/v1")
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.readtimeout", 15)
	vip.SetDefault("server.writetimeout", 15)
	vip.SetDefault("cors.allowed_origins", []string{"*"})
	vip.SetDefault("server.public_base_url", "http://localhost:8080")

	vip.BindEnv("server.public_base_url", "SERVER_PUBLIC_BASE_URL")

	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Printf("config file '%s' not found, using environment variables/defaults", configPath)
			} else {
				log.Printf("warning: failed to read config file '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- loaded configuration ---")
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Addr: %s", cfg.Redis.Addr)
		log.Printf("Redis Mode: %s", cfg.Redis.Mode)
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("Generation API Base: %s", cfg.Generation.OpenAIAPIBase)
		log.Printf("----------------------------")
	}

	if cfg.Database.Host == "" || cfg.Database.DBName == "" || cfg.Database.User == "" {
		return nil, fmt.Errorf("database configuration (host, dbname, user) is incomplete (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}

	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "" {
		ginMode = "debug"
	}
	if ginMode != "debug" && cfg.Database.Password == "" {
		return nil, fmt.Errorf("database password is required in production mode (check DATABASE_PASSWORD env var)")
	}

	return &cfg, nil
}
