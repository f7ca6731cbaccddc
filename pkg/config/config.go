package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Log      LogConfig
	Sentry   SentryConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Email    EmailConfig
	Import   ImportConfig
	Admin    AdminConfig
	Cron     CronConfig
}

type ServerConfig struct {
	Port        string
	Env         string
	CORSOrigins string
	BodyLimitMB int
}

type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

type JWTConfig struct {
	Secret   string
	TTLHours int
}

type LogConfig struct {
	Level           string
	SecurityLogPath string
}

type SentryConfig struct {
	DSN string
}

type RedisConfig struct {
	URL string
}

type StorageConfig struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	CDNBaseURL string
}

// Enabled reports whether object storage credentials were provided.
func (s StorageConfig) Enabled() bool {
	return s.AccountID != "" && s.AccessKey != "" && s.SecretKey != "" && s.BucketName != ""
}

type EmailConfig struct {
	ResendAPIKey string
	From         string
}

type ImportConfig struct {
	MaxBytes int64
	MaxRows  int
}

type CronConfig struct {
	Enabled bool
}

type AdminConfig struct {
	Email    string
	Password string
}

func Load() *Config {
	godotenv.Load() // .env is optional

	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "3000"),
			Env:         getEnv("APP_ENV", "development"),
			CORSOrigins: getEnv("CORS_ORIGINS", "*"),
			BodyLimitMB: getEnvInt("BODY_LIMIT_MB", 12),
		},
		Database: DatabaseConfig{
			URL:          getEnv("DATABASE_URL", ""),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 10),
		},
		JWT: JWTConfig{
			Secret:   getEnv("JWT_SECRET", ""),
			TTLHours: getEnvInt("JWT_TTL_HOURS", 24),
		},
		Log: LogConfig{
			Level:           getEnv("LOG_LEVEL", "info"),
			SecurityLogPath: getEnv("SECURITY_LOG_PATH", "logs/security.log"),
		},
		Sentry: SentryConfig{
			DSN: getEnv("SENTRY_DSN", ""),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		Storage: StorageConfig{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			CDNBaseURL: getEnv("CDN_BASE_URL", ""),
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			From:         getEnv("EMAIL_FROM", "EstaCRM <noreply@estacrm.com>"),
		},
		Import: ImportConfig{
			MaxBytes: int64(getEnvInt("IMPORT_MAX_BYTES", 10*1024*1024)),
			MaxRows:  getEnvInt("IMPORT_MAX_ROWS", 5000),
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
		Cron: CronConfig{
			Enabled: getEnvBool("CRON_ENABLED", true),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL is not set")
	}
	if c.JWT.Secret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET must be set in production")
		}
		c.JWT.Secret = "estacrm-development-secret"
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return b
}
