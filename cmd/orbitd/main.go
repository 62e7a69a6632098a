package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/star/orbitd/internal/api"
	"github.com/star/orbitd/internal/auth"
	"github.com/star/orbitd/internal/metrics"
	"github.com/star/orbitd/internal/propagation"
	"github.com/star/orbitd/internal/tle"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	addr := os.Getenv("ORBITD_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	authCfg, err := loadAuthConfig(logger)
	if err != nil {
		logger.Error("invalid auth configuration", "error", err)
		os.Exit(1)
	}

	tleCfg := loadTLEConfig(logger)
	store := tle.NewStore()
	tleCache := tle.NewCache(tleCfg.CacheDir, tleCfg.MaxFiles)

	// Attempt to load cached TLE data on startup.
	data, ts, err := tleCache.LoadLatest()
	if err != nil {
		logger.Info("no TLE cache found, starting without TLE data", "error", err)
	} else {
		loadDataset(store, logger, data, "cache", ts)
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if tleCfg.EnableFetch {
		fetcher := tle.NewFetcher(tleCfg.SourceURL, tleCfg.ExtraSourceURLs)
		go refreshLoop(ctx, logger, store, fetcher, tleCache, tleCfg.MaxAge)
	}

	propCfg := loadPropConfig(logger)
	engine := propagation.NewEngine(store, propCfg, logger)
	metrics.SetPropagationWorkersActive(propCfg.Workers)

	// Warm the batch path once a dataset is available so decayed or
	// malformed satellites are reported early.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if store.Get() == nil {
					continue
				}
				if _, err := engine.PropagateToTime(ctx, time.Now().UTC()); err != nil {
					logger.Warn("batch propagation failed", "error", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	srv := api.NewServer(addr, logger, authCfg, store)

	// Background goroutine to update TLE dataset age gauge.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				age := store.AgeSeconds()
				if age >= 0 {
					metrics.SetTLEDatasetAge(age)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info("starting server", "addr", addr, "auth_enabled", authCfg.Enabled, "tle_fetch_enabled", tleCfg.EnableFetch)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// loadDataset parses raw TLE text and installs it in the store.
func loadDataset(store *tle.Store, logger *slog.Logger, data []byte, source string, fetchedAt time.Time) {
	entries, err := tle.Parse(bytes.NewReader(data), logger)
	if err != nil {
		logger.Warn("failed to parse TLE data", "source", source, "error", err)
		return
	}
	if len(entries) == 0 {
		logger.Warn("TLE data contained no entries", "source", source)
		return
	}

	minEpoch := entries[0].Epoch.Time
	maxEpoch := entries[0].Epoch.Time
	for _, e := range entries[1:] {
		if e.Epoch.Time.Before(minEpoch) {
			minEpoch = e.Epoch.Time
		}
		if e.Epoch.Time.After(maxEpoch) {
			maxEpoch = e.Epoch.Time
		}
	}

	store.Set(&tle.Dataset{
		Source:    source,
		FetchedAt: fetchedAt,
		EpochRange: tle.EpochRange{
			Min: minEpoch,
			Max: maxEpoch,
		},
		Satellites: entries,
	})
	metrics.SetTLEDatasetCount(len(entries))
	logger.Info("loaded TLE data", "source", source, "count", len(entries), "fetched_at", fetchedAt.Format(time.RFC3339))
}

// refreshLoop fetches fresh TLE data whenever the current dataset grows
// older than maxAge.
func refreshLoop(ctx context.Context, logger *slog.Logger, store *tle.Store, fetcher *tle.Fetcher, cache *tle.Cache, maxAge time.Duration) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		age := store.AgeSeconds()
		if age < 0 || age > maxAge.Seconds() {
			store.Lock()
			data, err := fetcher.Fetch(ctx)
			if err != nil {
				logger.Warn("TLE fetch failed", "source_url", fetcher.SourceURL(), "error", err)
			} else {
				now := time.Now().UTC()
				loadDataset(store, logger, data, fetcher.SourceURL(), now)
				if err := cache.Write(data, now); err != nil {
					logger.Warn("TLE cache write failed", "error", err)
				}
			}
			store.Unlock()
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// TLEConfig holds TLE source configuration.
type TLEConfig struct {
	EnableFetch     bool
	SourceURL       string
	ExtraSourceURLs []string
	CacheDir        string
	MaxFiles        int
	MaxAge          time.Duration
}

func loadAuthConfig(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{}

	enabledStr := os.Getenv("ORBITD_AUTH_ENABLED")
	if enabledStr != "" {
		enabled, err := strconv.ParseBool(enabledStr)
		if err != nil {
			return cfg, errors.New("ORBITD_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		cfg.Token = os.Getenv("ORBITD_AUTH_TOKEN")
		if cfg.Token == "" {
			return cfg, errors.New("ORBITD_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled")
	}

	return cfg, nil
}

func loadPropConfig(logger *slog.Logger) propagation.PropConfig {
	cfg := propagation.PropConfig{
		Workers: runtime.NumCPU(),
		Step:    5 * time.Second,
		Horizon: 600 * time.Second,
	}

	if v := os.Getenv("ORBITD_PROP_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ORBITD_PROP_WORKERS value, using default", "value", v, "default", cfg.Workers)
		} else {
			cfg.Workers = n
		}
	}

	if v := os.Getenv("ORBITD_KEYFRAME_STEP"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ORBITD_KEYFRAME_STEP value, using default", "value", v, "default", 5)
		} else {
			cfg.Step = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("ORBITD_KEYFRAME_HORIZON"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ORBITD_KEYFRAME_HORIZON value, using default", "value", v, "default", 600)
		} else {
			cfg.Horizon = time.Duration(n) * time.Second
		}
	}

	logger.Info("propagation config",
		"workers", cfg.Workers,
		"step_seconds", cfg.Step.Seconds(),
		"horizon_seconds", cfg.Horizon.Seconds(),
	)

	return cfg
}

func loadTLEConfig(logger *slog.Logger) TLEConfig {
	cfg := TLEConfig{
		EnableFetch: true,
		CacheDir:    "/tmp/orbitd/tle",
		MaxFiles:    5,
		MaxAge:      24 * time.Hour,
		ExtraSourceURLs: []string{
			// ISS (NORAD 25544) — well-documented reference satellite for validation.
			"https://celestrak.org/NORAD/elements/gp.php?CATNR=25544&FORMAT=tle",
		},
	}

	if v := os.Getenv("ORBITD_ENABLE_TLE_FETCH"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid ORBITD_ENABLE_TLE_FETCH value, defaulting to true", "value", v)
		} else {
			cfg.EnableFetch = enabled
		}
	}

	if v := os.Getenv("ORBITD_TLE_SOURCE_URL"); v != "" {
		cfg.SourceURL = v
	}

	if v := os.Getenv("ORBITD_TLE_EXTRA_URLS"); v != "" {
		var urls []string
		for _, u := range strings.Split(v, ",") {
			u = strings.TrimSpace(u)
			if u != "" {
				urls = append(urls, u)
			}
		}
		cfg.ExtraSourceURLs = urls
	}

	if v := os.Getenv("ORBITD_TLE_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}

	if v := os.Getenv("ORBITD_TLE_MAX_AGE"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			logger.Warn("invalid ORBITD_TLE_MAX_AGE value, defaulting to 86400", "value", v)
		} else {
			cfg.MaxAge = time.Duration(seconds) * time.Second
		}
	}

	logger.Info("TLE config",
		"source_url", cfg.SourceURL,
		"extra_urls", cfg.ExtraSourceURLs,
		"cache_dir", cfg.CacheDir,
	)

	return cfg
}
