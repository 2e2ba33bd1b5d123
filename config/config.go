package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort            string
	MaxConcurrentGames int
	GameTimeout        time.Duration
	BombChance         float64
	AllowedOrigins     []string
	LogLevel           string
	LogJSON            bool
}

// Load reads an optional .env file, then the environment. Missing or
// malformed values fall back to defaults.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppPort:            stringEnv("APP_PORT", "8080"),
		MaxConcurrentGames: intEnv("MAX_CONCURRENT_GAMES", 1000),
		GameTimeout:        durationEnv("GAME_TIMEOUT", 30*time.Minute),
		BombChance:         chanceEnv("BOMB_CHANCE", 0.15),
		AllowedOrigins:     listEnv("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:8080"}),
		LogLevel:           stringEnv("LOG_LEVEL", "info"),
		LogJSON:            os.Getenv("LOG_JSON") == "true",
	}
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}
	return ":" + c.AppPort
}

func stringEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func durationEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func chanceEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			return f
		}
	}
	return def
}

// listEnv splits a comma separated value, dropping empty entries.
func listEnv(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
