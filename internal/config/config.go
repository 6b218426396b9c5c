package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env   string
	Port  int
	DBURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	JWTSecret       string
	AccessTTL       time.Duration
	StationTokenTTL time.Duration

	VerifyBaseURL string

	PrinterTimeout     time.Duration
	PrinterDefaultPort int

	AssetTimeout     time.Duration
	AssetMaxBytes    int64
	AssetConcurrency int

	TemplateCacheTTL time.Duration

	CORSOrigins []string
	// requests per minute on public and station endpoints
	RateLimitPerMinute int

	S3 S3Config

	OTelEndpoint    string
	OTelSampleRatio float64
}

type S3Config struct {
	Endpoint     string
	Region       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// Enabled reports whether s3:// asset references can be served.
func (c S3Config) Enabled() bool {
	return c.AccessKey != "" && c.SecretKey != ""
}

// Load reads the environment. A .env file in the working directory is
// applied first when present; real environment variables win.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:   getEnv("APP_ENV", "dev"),
		Port:  getEnvInt("PORT", 8080),
		DBURL: buildDBURL(),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisPrefix:   getEnv("REDIS_KEY_PREFIX", "eventprint:"),

		JWTSecret:       getEnv("JWT_SECRET", "dev-secret-change-me"),
		AccessTTL:       time.Duration(getEnvInt("JWT_ACCESS_TTL_MINUTES", 15)) * time.Minute,
		StationTokenTTL: time.Duration(getEnvInt("STATION_TOKEN_TTL_HOURS", 72)) * time.Hour,

		VerifyBaseURL: getEnv("VERIFY_BASE_URL", "http://localhost:8080"),

		PrinterTimeout:     time.Duration(getEnvInt("PRINTER_TIMEOUT_MS", 10000)) * time.Millisecond,
		PrinterDefaultPort: getEnvInt("PRINTER_DEFAULT_PORT", 9100),

		AssetTimeout:     time.Duration(getEnvInt("ASSET_TIMEOUT_MS", 5000)) * time.Millisecond,
		AssetMaxBytes:    int64(getEnvInt("ASSET_MAX_BYTES", 10<<20)),
		AssetConcurrency: getEnvInt("ASSET_CONCURRENCY", 4),

		TemplateCacheTTL: time.Duration(getEnvInt("TEMPLATE_CACHE_TTL_SECONDS", 30)) * time.Second,

		CORSOrigins:        getEnvList("CORS_ALLOWED_ORIGINS"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		S3: S3Config{
			Endpoint:     getEnv("S3_ENDPOINT", ""),
			Region:       getEnv("S3_REGION", "us-east-1"),
			AccessKey:    getEnv("S3_ACCESS_KEY", ""),
			SecretKey:    getEnv("S3_SECRET_KEY", ""),
			UsePathStyle: getEnvBool("S3_USE_PATH_STYLE", true),
		},

		OTelEndpoint:    getEnv("OTEL_ENDPOINT", ""),
		OTelSampleRatio: getEnvFloat("OTEL_SAMPLE_RATIO", 1),
	}
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "eventprint")
	pass := getEnv("DB_PASSWORD", "eventprint")
	name := getEnv("DB_NAME", "eventprint")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	num, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer env, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return num
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("invalid float env, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return fallback
	}
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
