package madea

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/eringen/madea/metrics"
)

// SiteConfig holds all configuration for a madea server.
type SiteConfig struct {
	Name       string // Site name (default "madea")
	BaseDomain string // Apex domain blogs are served under (default "madea.blog")

	// DefaultUsername is served when the host names no blog. Empty means
	// such requests get the landing page.
	DefaultUsername string

	Addr string // Listen address (default ":3000")

	RateLimitRPS   float64       // Per-IP requests per second (default 10, negative disables)
	RateLimitBurst int           // Per-IP burst (default 20)
	RateLimitTTL   time.Duration // Idle time before a client's limiter is dropped (default 10min)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "madea"
	}
	if c.BaseDomain == "" {
		c.BaseDomain = "madea.blog"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.RateLimitRPS == 0 {
		c.RateLimitRPS = 10
	}
	if c.RateLimitBurst == 0 {
		c.RateLimitBurst = 20
	}
	if c.RateLimitTTL == 0 {
		c.RateLimitTTL = 10 * time.Minute
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs after the built-in routes are installed.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithLogger sets the logger used for request logs and server errors.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithMetrics records outcomes and provider calls on c and serves g at
// /metrics.
func WithMetrics(c *metrics.Collector, g prometheus.Gatherer) Option {
	return func(a *App) {
		a.collector = c
		a.gatherer = g
	}
}

// WithDirectory enables /api/all-madea-blogs backed by d.
func WithDirectory(d Directory) Option {
	return func(a *App) {
		a.directory = d
	}
}
