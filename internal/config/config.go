package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/snapcook/backend/pkg/config"
)

// Config holds all configuration for the SnapCook backend.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8000"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"snapcook"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"snapcook_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"snapcook_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`

	// Redis
	RedisAddr      string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass      string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB        int           `env:"REDIS_DB" envDefault:"0"`
	RecipeCacheTTL time.Duration `env:"RECIPE_CACHE_TTL" envDefault:"5m"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// JWT. Access and refresh tokens are signed with distinct secrets so a
	// refresh token can never pass as an access token.
	JWTAccessSecret  string        `env:"JWT_ACCESS_SECRET" envDefault:"change-this-access-secret"`
	JWTRefreshSecret string        `env:"JWT_REFRESH_SECRET" envDefault:"change-this-refresh-secret"`
	JWTAccessExpiry  time.Duration `env:"JWT_ACCESS_TOKEN_EXPIRY" envDefault:"15m"`
	JWTRefreshExpiry time.Duration `env:"JWT_REFRESH_TOKEN_EXPIRY" envDefault:"168h"`

	// Classifier
	ClassifierMode        string        `env:"CLASSIFIER_MODE" envDefault:"script"`
	ClassifierInterpreter string        `env:"CLASSIFIER_INTERPRETER" envDefault:"python3"`
	ClassifierScript      string        `env:"CLASSIFIER_SCRIPT" envDefault:"scripts/classify.py"`
	ClassifierURL         string        `env:"CLASSIFIER_URL" envDefault:"http://localhost:5001"`
	ClassifierTimeout     time.Duration `env:"CLASSIFIER_TIMEOUT" envDefault:"10s"`

	// Uploads
	UploadsDir    string `env:"UPLOADS_DIR" envDefault:"uploads"`
	MaxUploadSize int64  `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Pprof
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`

	// Tracing
	OTLPEndpoint     string  `env:"OTLP_ENDPOINT" envDefault:""`
	TraceSampleRatio float64 `env:"TRACE_SAMPLE_RATIO" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}
	if cfg.ClassifierMode != "script" && cfg.ClassifierMode != "remote" {
		return nil, fmt.Errorf("invalid classifier mode: %q", cfg.ClassifierMode)
	}
	if cfg.JWTAccessSecret == cfg.JWTRefreshSecret {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}

	// In non-development environments, require explicitly set, strong JWT secrets.
	if cfg.Environment != "development" {
		for name, secret := range map[string]string{
			"JWT_ACCESS_SECRET":  cfg.JWTAccessSecret,
			"JWT_REFRESH_SECRET": cfg.JWTRefreshSecret,
		} {
			if secret == "change-this-access-secret" || secret == "change-this-refresh-secret" {
				return nil, fmt.Errorf("%s must be explicitly set via environment variable in %q mode", name, cfg.Environment)
			}
			if len(secret) < 32 {
				return nil, fmt.Errorf("%s must be at least 32 characters long, got %d", name, len(secret))
			}
		}
	}

	return cfg, nil
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}
