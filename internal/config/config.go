package config

import (
	"fmt"
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/vadim/igdm-console/internal/database"
	"github.com/vadim/igdm-console/internal/storage/tokenstore"
)

// Config holds all application configuration
type Config struct {
	Server   Server   `yaml:"server"`
	Backend  Backend  `yaml:"backend"`
	Session  Session  `yaml:"session"`
	Database Database `yaml:"database"`
	Export   Export   `yaml:"export"`
}

// Server holds HTTP server configuration
type Server struct {
	Host         string        `yaml:"host" env:"SERVER_HOST" env-default:"127.0.0.1"`
	Port         string        `yaml:"port" env:"SERVER_PORT" env-default:"3000"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
}

// Address returns the full server address
func (s Server) Address() string {
	return s.Host + ":" + s.Port
}

// Backend holds automation backend configuration.
// A zero Timeout leaves requests bounded only by their context.
type Backend struct {
	BaseURL string        `yaml:"base_url" env:"API_URL" env-default:"http://localhost:8000"`
	Timeout time.Duration `yaml:"timeout" env:"API_TIMEOUT" env-default:"0s"`
}

// Session holds token persistence configuration
type Session struct {
	Driver string `yaml:"driver" env:"SESSION_DRIVER" env-default:"file"`
	Path   string `yaml:"path" env:"SESSION_PATH" env-default:".igdm-console/state.json"`
	Key    string `yaml:"key" env:"SESSION_KEY" env-default:"auth_token"`
}

// Database holds database configuration, used by the postgres session driver
type Database struct {
	PostgresDSN string `yaml:"postgres_dsn" env:"DATABASE_URL"`

	// Connection pool settings
	MaxConns     int32         `yaml:"max_conns" env:"DB_MAX_CONNS" env-default:"4"`
	MinConns     int32         `yaml:"min_conns" env:"DB_MIN_CONNS" env-default:"1"`
	ConnLifetime time.Duration `yaml:"conn_lifetime" env:"DB_CONN_LIFETIME" env-default:"5m"`
}

// Pool returns the pgx pool settings
func (d Database) Pool() database.PoolConfig {
	return database.PoolConfig{
		DSN:          d.PostgresDSN,
		MaxConns:     d.MaxConns,
		MinConns:     d.MinConns,
		ConnLifetime: d.ConnLifetime,
	}
}

// Export holds S3/MinIO configuration for rule-set exports
type Export struct {
	Enabled         bool   `yaml:"enabled" env:"EXPORT_ENABLED" env-default:"false"`
	Endpoint        string `yaml:"endpoint" env:"S3_ENDPOINT" env-default:"http://localhost:9000"`
	AccessKeyID     string `yaml:"access_key_id" env:"S3_ACCESS_KEY_ID" env-default:"minioadmin"`
	SecretAccessKey string `yaml:"secret_access_key" env:"S3_SECRET_ACCESS_KEY" env-default:"minioadmin"`
	Bucket          string `yaml:"bucket" env:"S3_BUCKET" env-default:"automation-exports"`
	Region          string `yaml:"region" env:"S3_REGION" env-default:"us-east-1"`
	PublicURL       string `yaml:"public_url" env:"S3_PUBLIC_URL" env-default:"http://localhost:9000/automation-exports"`
}

// Validate checks settings that cleanenv cannot express
func (c Config) Validate() error {
	if err := tokenstore.ValidateDriver(c.Session.Driver); err != nil {
		return err
	}
	if c.Session.Driver == tokenstore.DriverPostgres && c.Database.PostgresDSN == "" {
		return fmt.Errorf("session driver %q requires DATABASE_URL", c.Session.Driver)
	}
	if c.Backend.Timeout < 0 {
		return fmt.Errorf("negative API_TIMEOUT %s", c.Backend.Timeout)
	}
	return nil
}

// MustLoad loads configuration from environment and panics on error
func MustLoad() Config {
	// Load .env file if exists (for development)
	_ = godotenv.Load()

	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	return cfg
}

// Load reads configuration from the environment
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}
