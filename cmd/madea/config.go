package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/eringen/madea/github"
)

// serveConfig is the server configuration read from the environment.
type serveConfig struct {
	Addr            string
	BaseDomain      string
	SiteName        string
	DefaultUsername string

	UseLocalFS      bool
	LocalContentDir string

	Credentials github.Credentials
	APIURL      string
	Strategy    github.Strategy

	CacheBackend string
	CachePath    string
	RedisURL     string

	RateLimitRPS   float64
	RateLimitBurst int
	OTelEnabled    bool
}

// loadServeConfig reads the configuration through getenv. Every problem is
// reported, not just the first.
func loadServeConfig(getenv func(string) string) (serveConfig, error) {
	env := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	var errs []error
	parseBool := func(key string) bool {
		v := env(key, "false")
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid boolean %q", key, v))
		}
		return b
	}
	parseInt64 := func(key string) int64 {
		v := env(key, "")
		if v == "" {
			return 0
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid integer %q", key, v))
		}
		return n
	}

	cfg := serveConfig{
		Addr:            env("ADDR", ":3000"),
		BaseDomain:      env("BASE_DOMAIN", "madea.blog"),
		SiteName:        env("SITE_NAME", "madea"),
		DefaultUsername: env("DEFAULT_USERNAME", ""),
		UseLocalFS:      parseBool("USE_LOCAL_FS"),
		LocalContentDir: env("LOCAL_CONTENT_DIR", "test"),
		APIURL:          env("GITHUB_API_URL", ""),
		CacheBackend:    strings.ToLower(env("CACHE_BACKEND", "memory")),
		CachePath:       env("CACHE_PATH", "data/cache.db"),
		RedisURL:        env("REDIS_URL", ""),
		OTelEnabled:     parseBool("OTEL_ENABLED"),
	}

	cfg.Credentials = github.Credentials{
		Token:          env("GITHUB_TOKEN", env("GITHUB_PAT", "")),
		AppID:          parseInt64("GITHUB_APP_ID"),
		InstallationID: parseInt64("GITHUB_APP_INSTALLATION_ID"),
		PrivateKeyPath: env("GITHUB_APP_PRIVATE_KEY_PATH", ""),
	}

	strategy, err := github.ParseStrategy(env("GITHUB_STRATEGY", ""))
	if err != nil {
		errs = append(errs, fmt.Errorf("GITHUB_STRATEGY: %w", err))
	}
	cfg.Strategy = strategy

	if v := env("RATE_LIMIT_RPS", ""); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS: invalid number %q", v))
		}
		cfg.RateLimitRPS = rps
	}
	if v := env("RATE_LIMIT_BURST", ""); v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("RATE_LIMIT_BURST: invalid integer %q", v))
		}
		cfg.RateLimitBurst = burst
	}

	switch cfg.CacheBackend {
	case "memory", "sqlite":
	case "redis":
		if cfg.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when CACHE_BACKEND=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("CACHE_BACKEND: unknown backend %q", cfg.CacheBackend))
	}

	if cfg.UseLocalFS {
		if cfg.DefaultUsername == "" {
			cfg.DefaultUsername = "local"
		}
	} else if cfg.Credentials.Empty() {
		errs = append(errs, errors.New("GITHUB_TOKEN or GITHUB_PAT (or GITHUB_APP_ID, GITHUB_APP_INSTALLATION_ID and GITHUB_APP_PRIVATE_KEY_PATH) is required for GitHub mode"))
	}

	return cfg, errors.Join(errs...)
}
