package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env  string
	Port int

	DBURL    string
	DBSchema string

	// Token service. The secret is never defaulted outside dev.
	JWTSecret   string
	JWTTokenTTL time.Duration

	// Startup admin seeding; skipped when unset.
	AdminUsername string
	AdminEmail    string
	AdminPassword string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CORSOrigins []string

	LoginRateLimit  int
	LoginRateWindow time.Duration

	OTLPEndpoint string
	MaxBodyBytes int64
}

func Load() Config {
	env := getEnv("APP_ENV", "dev")

	return Config{
		Env:  env,
		Port: getEnvInt("PORT", 8080),

		DBURL:    buildDBURL(),
		DBSchema: getEnv("DB_SCHEMA", "public"),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		JWTTokenTTL: time.Duration(getEnvInt("JWT_TTL_HOURS", 8)) * time.Hour,

		AdminUsername: getEnv("ADMIN_USERNAME", ""),
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "")),

		LoginRateLimit:  getEnvInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow: time.Duration(getEnvInt("LOGIN_RATE_WINDOW_SECONDS", 60)) * time.Second,

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		MaxBodyBytes: int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
	}
}

// Validate catches the config mistakes that must not make it to prod,
// chiefly a missing signing secret.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWTTokenTTL <= 0 {
		return fmt.Errorf("JWT_TTL_HOURS must be positive")
	}
	return nil
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "hrhub")
	pass := getEnv("DB_PASSWORD", "hrhub")
	name := getEnv("DB_NAME", "hrhub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}

	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			return fallback
		}

		return num
	}
	return fallback
}
