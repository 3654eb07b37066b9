package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Session   SessionConfig   `mapstructure:"session"`
	CTF       CTFConfig       `mapstructure:"ctf"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// Runtime flags set from the command line, not the config file.
	SeedOnly  bool `mapstructure:"-"` // load challenges, then exit
	ForceSeed bool `mapstructure:"-"` // load challenges on startup
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type SessionConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

// CTFConfig describes the competition itself: display name, the
// optional end time after which submissions are rejected, and where
// the per-category challenge manifests live.
type CTFConfig struct {
	Name          string   `mapstructure:"name"`
	EndTime       string   `mapstructure:"end_time"` // RFC 3339, empty = no deadline
	ChallengeDir  string   `mapstructure:"challenge_dir"`
	Categories    []string `mapstructure:"categories"`
	ExternalProxy bool     `mapstructure:"external_proxy"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"` // "local" or "minio"
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("WRATH")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Session
	viper.BindEnv("session.secret", "SECRET_KEY")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// CTF
	viper.BindEnv("ctf.end_time", "CTF_END_TIME")
	viper.BindEnv("ctf.challenge_dir", "CTF_CHALLENGE_DIR")

	// Storage
	viper.BindEnv("storage.type", "STORAGE_TYPE")
	viper.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Session.ExpireTime = cfg.Session.ExpireTime * time.Hour

	// Tokens are only as strong as the signing secret.
	if cfg.Server.Mode == "release" && len(cfg.Session.Secret) < 32 {
		return nil, fmt.Errorf("session secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.Session.Secret))
	}

	if cfg.CTF.EndTime != "" {
		if _, err := time.Parse(time.RFC3339, cfg.CTF.EndTime); err != nil {
			return nil, fmt.Errorf("ctf.end_time is not a valid RFC 3339 timestamp: %w", err)
		}
	}

	return &cfg, nil
}

// EndsAt parses the configured competition deadline. The zero time
// means the competition never ends.
func (c *CTFConfig) EndsAt() time.Time {
	if c.EndTime == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, c.EndTime)
	if err != nil {
		return time.Time{}
	}
	return t
}
