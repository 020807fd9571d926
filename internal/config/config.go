package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Institution  InstitutionConfig
	Roster       RosterConfig
	Policy       PolicyConfig
	Notification NotificationConfig
	Idempotency  IdempotencyConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values. An empty DSN selects the in-memory store.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines session parameters. UpstreamSecret guards the login
// endpoint, which trusts the email asserted by the upstream identity provider.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	UpstreamSecret        string
}

// InstitutionConfig describes the institution whose users may log in.
type InstitutionConfig struct {
	EmailDomain         string
	DeleteRejectedUsers bool
	SystemEmail         string
}

// RosterConfig points at the externally maintained CSV rosters.
type RosterConfig struct {
	AdminPath  string
	CoursePath string
}

// PolicyConfig optionally overrides the embedded routing policy.
type PolicyConfig struct {
	Path string
}

// NotificationConfig holds outbound delivery settings. Empty values disable a channel.
type NotificationConfig struct {
	EmailFrom    string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	WebhookURL   string
}

// IdempotencyConfig controls the complaint-creation replay guard.
type IdempotencyConfig struct {
	TTLSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	domain := strings.ToLower(strings.TrimPrefix(getEnv("INSTITUTION_EMAIL_DOMAIN", "ictuniversity.edu.cm"), "@"))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "complaint-desk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			UpstreamSecret:        os.Getenv("AUTH_UPSTREAM_SECRET"),
		},
		Institution: InstitutionConfig{
			EmailDomain:         domain,
			DeleteRejectedUsers: getEnvAsBool("INSTITUTION_DELETE_REJECTED_USERS", true),
			SystemEmail:         getEnv("INSTITUTION_SYSTEM_EMAIL", "system@"+domain),
		},
		Roster: RosterConfig{
			AdminPath:  getEnv("ROSTER_ADMINS_CSV", "data/admins.csv"),
			CoursePath: getEnv("ROSTER_COURSES_CSV", "data/courses.csv"),
		},
		Policy: PolicyConfig{
			Path: os.Getenv("POLICY_PATH"),
		},
		Notification: NotificationConfig{
			EmailFrom:    getEnv("NOTIFY_EMAIL_FROM", "noreply@"+domain),
			SMTPHost:     os.Getenv("NOTIFY_SMTP_HOST"),
			SMTPPort:     getEnvAsInt("NOTIFY_SMTP_PORT", 587),
			SMTPUser:     os.Getenv("NOTIFY_SMTP_USER"),
			SMTPPassword: os.Getenv("NOTIFY_SMTP_PASSWORD"),
			WebhookURL:   getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		Idempotency: IdempotencyConfig{
			TTLSeconds: getEnvAsInt("IDEMPOTENCY_TTL_SECONDS", 86400),
		},
	}

	if cfg.Institution.EmailDomain == "" {
		return nil, fmt.Errorf("INSTITUTION_EMAIL_DOMAIN must not be empty")
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the lifetime of issued session tokens.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// TTL returns how long an idempotency key is remembered.
func (i IdempotencyConfig) TTL() time.Duration {
	return time.Duration(i.TTLSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
