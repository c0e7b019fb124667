package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/eringen/madea"
	"github.com/eringen/madea/blog"
	"github.com/eringen/madea/github"
	"github.com/eringen/madea/httpcache"
	"github.com/eringen/madea/localfs"
	"github.com/eringen/madea/logging"
	"github.com/eringen/madea/metrics"
	"github.com/eringen/madea/telemetry"
	"github.com/eringen/madea/views"
)

const shutdownTimeout = 10 * time.Second

func runServe(ctx context.Context) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	log := logging.New()
	slog.SetDefault(log)

	cfg, err := loadServeConfig(os.Getenv)
	if err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.New(ctx, cfg.OTelEnabled)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(sctx); err != nil {
			log.Error("telemetry shutdown", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	site := madea.SiteConfig{
		Name:            cfg.SiteName,
		BaseDomain:      cfg.BaseDomain,
		DefaultUsername: cfg.DefaultUsername,
		Addr:            cfg.Addr,
		RateLimitRPS:    cfg.RateLimitRPS,
		RateLimitBurst:  cfg.RateLimitBurst,
	}
	opts := []madea.Option{
		madea.WithLogger(log),
		madea.WithMetrics(collector, reg),
	}

	var factory madea.ProviderFactory
	if cfg.UseLocalFS {
		log.Info("using local content directory", "dir", cfg.LocalContentDir)
		factory = localFactory(cfg.LocalContentDir)
	} else {
		store, closeStore, err := openCache(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		transport := httpcache.NewTransport(http.DefaultTransport, store)
		transport.Observer = collector
		hc, err := github.NewHTTPClient(cfg.Credentials, cfg.APIURL, transport)
		if err != nil {
			return err
		}
		dir, err := github.NewDirectory(github.Options{HTTPClient: hc, BaseURL: cfg.APIURL})
		if err != nil {
			return err
		}
		opts = append(opts, madea.WithDirectory(dir))

		log.Info("using github", "strategy", cfg.Strategy, "cache", cfg.CacheBackend)
		factory = githubFactory(hc, cfg)
	}

	app := madea.New(site, views.Default(site), factory, opts...)
	defer app.Close()

	errc := make(chan error, 1)
	go func() { errc <- app.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return app.Shutdown(sctx)
}

func localFactory(dir string) madea.ProviderFactory {
	return func(username string) (blog.DataProvider, error) {
		return localfs.New(localfs.Options{ContentDir: dir, AuthorName: username})
	}
}

func githubFactory(hc *http.Client, cfg serveConfig) madea.ProviderFactory {
	return func(username string) (blog.DataProvider, error) {
		return github.New(github.Options{
			Username:   username,
			HTTPClient: hc,
			BaseURL:    cfg.APIURL,
			Strategy:   cfg.Strategy,
		})
	}
}

// openCache opens the response cache selected by CACHE_BACKEND. The returned
// function stops background purging and closes the store.
func openCache(ctx context.Context, cfg serveConfig) (httpcache.Store, func(), error) {
	switch cfg.CacheBackend {
	case "sqlite":
		s, err := httpcache.NewSQLiteStore(cfg.CachePath)
		if err != nil {
			return nil, nil, err
		}
		stopPurge := s.StartPurgeScheduler(time.Hour)
		return s, func() { stopPurge(); _ = s.Close() }, nil
	case "redis":
		s, err := httpcache.NewRedisStoreFromURL(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		s := httpcache.NewMemoryStore()
		pctx, cancel := context.WithCancel(ctx)
		go purgeEvery(pctx, 10*time.Minute, func() { s.Purge() })
		return s, cancel, nil
	}
}

func purgeEvery(ctx context.Context, interval time.Duration, purge func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purge()
		}
	}
}
