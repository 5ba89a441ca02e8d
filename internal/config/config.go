package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const defaultJWTSecret = "default_super_secret_key"

// Config is the process configuration read from the environment
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	GinMode     string `envconfig:"GIN_MODE" default:"debug"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBHost      string `envconfig:"DB_HOST" default:"localhost"`
	DBPort      string `envconfig:"DB_PORT" default:"5432"`
	DBUser      string `envconfig:"DB_USER" default:"postgres"`
	DBPassword  string `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName      string `envconfig:"DB_NAME" default:"postgres"`
	DBSSLMode   string `envconfig:"DB_SSLMODE" default:"disable"`
	JWTSecret   string `envconfig:"JWT_SECRET"`

	AccessTokenTTL  time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"24h"`
	RefreshTokenTTL time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"168h"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173,http://127.0.0.1:5173"`

	RabbitMQURL      string `envconfig:"RABBITMQ_URL"`
	RabbitMQExchange string `envconfig:"RABBITMQ_EXCHANGE" default:"orders.events"`

	OverdueSweepInterval time.Duration `envconfig:"OVERDUE_SWEEP_INTERVAL" default:"1h"`
	PermissionCacheTTL   time.Duration `envconfig:"PERMISSION_CACHE_TTL" default:"5m"`
}

// Load reads configs/.env (then .env) if present and fills Config from the environment
func Load(logger *logrus.Logger) (*Config, error) {
	for _, path := range []string{"configs/.env", ".env"} {
		err := godotenv.Load(path)
		switch {
		case err == nil:
			logger.WithField("path", path).Info("Loaded configuration file")
		case !os.IsNotExist(err):
			logger.WithError(err).WithField("path", path).Warn("Error loading env file (but continuing)")
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}

	if cfg.JWTSecret == "" {
		if cfg.IsRelease() {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required in release mode")
		}
		cfg.JWTSecret = defaultJWTSecret
		logger.Warn("JWT_SECRET not set, using development fallback")
	}

	return &cfg, nil
}

// IsRelease reports whether gin runs in release mode
func (c *Config) IsRelease() bool {
	return c.GinMode == "release"
}

// DSN returns DATABASE_URL when set, otherwise assembles one from the DB_* parts
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=" + c.DBSSLMode
}

// NewLogger builds the JSON logger used across the service
func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	logger.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		logger.WithField("level", level).Warn("Unknown log level, defaulting to info")
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}
