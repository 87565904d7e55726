package config

import (
	"os"
	"strconv"
	"time"

	"chartq/backend/helper"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	OpenAITimeout time.Duration

	// DatabaseURL enables query history and dataset introspection when set.
	DatabaseURL string

	StaticDir        string
	LogLevel         string
	GinMode          string
	RateLimit        float64 // requests per second on /query
	RateLimitBurst   int
	CORSAllowOrigins []string
	ShutdownTimeout  time.Duration
}

// Load reads the environment, first merging a .env file when one exists.
// Variables already set in the process take precedence over the file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:             getEnv("PORT", "8080"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		OpenAITimeout:    time.Duration(getEnvInt("OPENAI_TIMEOUT_SECONDS", 60)) * time.Second,
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		StaticDir:        getEnv("STATIC_DIR", "static"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		GinMode:          getEnv("GIN_MODE", "release"),
		RateLimit:        getEnvFloat("RATE_LIMIT", 10),
		RateLimitBurst:   getEnvInt("RATE_LIMIT_BURST", 20),
		CORSAllowOrigins: helper.SplitList(getEnv("CORS_ALLOW_ORIGINS", "*")),
		ShutdownTimeout:  time.Duration(getEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 15)) * time.Second,
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
