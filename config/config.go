package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds everything read from the environment. Loaded once in main
// after godotenv; every other package receives what it needs explicitly.
type Config struct {
	Port            string
	DatabaseURL     string
	SerpAPIKey      string
	SerpAPIURL      string // overridable for tests
	OpenAIKey       string
	OpenAIURL       string
	OpenAIModel     string
	DefaultOrigin   string // IATA code used when the query names no origin
	Currency        string
	ProviderTimeout time.Duration
}

func Load() Config {
	timeout := 15 * time.Second
	if s := os.Getenv("PROVIDER_TIMEOUT_SECONDS"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			timeout = time.Duration(n) * time.Second
		}
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		SerpAPIKey:      os.Getenv("SERPAPI_KEY"),
		SerpAPIURL:      getEnv("SERPAPI_URL", "https://serpapi.com/search.json"),
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIURL:       getEnv("OPENAI_API_URL", "https://api.openai.com/v1/chat/completions"),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		DefaultOrigin:   getEnv("DEFAULT_ORIGIN_AIRPORT", "BRU"),
		Currency:        getEnv("CURRENCY", "EUR"),
		ProviderTimeout: timeout,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
