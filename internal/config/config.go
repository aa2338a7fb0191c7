package config

import (
	"fmt"
	"net/url"
	"sync"
	"time"

	"tubescout/internal/support"
)

// Config carries every runtime knob. Values come from the environment with
// conservative defaults; main loads .env first via godotenv.
type Config struct {
	Server struct {
		Port int
	}

	Proxy struct {
		File         string
		BanThreshold int
	}

	Fetcher struct {
		SearchURL    string
		Timeout      time.Duration
		MinBodyBytes int
		UserAgent    string
	}

	Checker struct {
		Enabled  bool
		Interval time.Duration
		Threads  int
		ProbeURL string
		Timeout  time.Duration
	}

	Cache struct {
		Enabled bool
		Addr    string
		DB      int
		TTL     time.Duration
	}

	Database struct {
		Enabled bool
	}

	Log struct {
		Level string
		Dir   string
	}
}

var (
	once   sync.Once
	loaded Config
)

func GetConfig() Config {
	once.Do(func() {
		loaded = Load()
	})
	return loaded
}

// Load reads the environment directly, bypassing the singleton. Tests use it
// to build isolated configurations.
func Load() Config {
	var cfg Config

	cfg.Server.Port = support.GetEnvInt("PORT", 8000)

	cfg.Proxy.File = support.GetEnv("PROXY_FILE", "proxies.txt")
	cfg.Proxy.BanThreshold = support.GetEnvInt("PROXY_BAN_THRESHOLD", 5)

	cfg.Fetcher.SearchURL = support.GetEnv("SEARCH_URL", "https://www.youtube.com/results")
	cfg.Fetcher.Timeout = support.GetEnvDuration("FETCH_TIMEOUT", 10*time.Second)
	cfg.Fetcher.MinBodyBytes = support.GetEnvInt("FETCH_MIN_BODY_BYTES", 1000)
	cfg.Fetcher.UserAgent = support.GetEnv("FETCH_USER_AGENT",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	cfg.Checker.Enabled = support.GetEnvBool("CHECKER_ENABLED", true)
	cfg.Checker.Interval = support.GetEnvDuration("CHECKER_INTERVAL", 5*time.Minute)
	cfg.Checker.Threads = support.GetEnvInt("CHECKER_THREADS", 8)
	cfg.Checker.ProbeURL = support.GetEnv("CHECKER_PROBE_URL", "https://www.youtube.com/generate_204")
	cfg.Checker.Timeout = support.GetEnvDuration("CHECKER_TIMEOUT", 10*time.Second)

	cfg.Cache.Enabled = support.GetEnvBool("CACHE_ENABLED", false)
	cfg.Cache.Addr = support.GetEnv("REDIS_ADDR", "localhost:6379")
	cfg.Cache.DB = support.GetEnvInt("REDIS_DB", 0)
	cfg.Cache.TTL = support.GetEnvDuration("CACHE_TTL", 15*time.Minute)

	cfg.Database.Enabled = support.GetEnvBool("DB_ENABLED", false)

	cfg.Log.Level = support.GetEnv("LOG_LEVEL", "info")
	cfg.Log.Dir = support.GetEnv("LOG_DIR", "logs")

	return cfg
}

// Validate ensures the configuration is coherent before startup continues.
func (c Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Proxy.BanThreshold < 1 {
		return fmt.Errorf("proxy ban threshold must be positive")
	}
	if c.Fetcher.Timeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}
	if c.Fetcher.MinBodyBytes < 0 {
		return fmt.Errorf("fetch min body bytes cannot be negative")
	}
	if _, err := url.ParseRequestURI(c.Fetcher.SearchURL); err != nil {
		return fmt.Errorf("invalid search url: %w", err)
	}
	if c.Checker.Enabled {
		if c.Checker.Interval <= 0 {
			return fmt.Errorf("checker interval must be positive")
		}
		if c.Checker.Threads < 1 {
			return fmt.Errorf("checker threads must be positive")
		}
		if _, err := url.ParseRequestURI(c.Checker.ProbeURL); err != nil {
			return fmt.Errorf("invalid checker probe url: %w", err)
		}
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}
	return nil
}
