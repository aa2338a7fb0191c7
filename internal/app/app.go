package app

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"tubescout/internal/app/server"
	"tubescout/internal/cache"
	"tubescout/internal/config"
	"tubescout/internal/database"
	"tubescout/internal/extract"
	"tubescout/internal/fetcher"
	"tubescout/internal/jobs/checker"
	"tubescout/internal/proxypool"
	"tubescout/internal/requestlog"
	"tubescout/internal/support"
)

func Run() error {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found. Falling back to system environment variables.")
	}

	portFlag := flag.Int("port", 0, "Port for the API server (overridden by PORT)")
	flag.Parse()

	cfg := config.GetConfig()
	if *portFlag > 0 && support.GetEnv("PORT", "") == "" {
		cfg.Server.Port = *portFlag
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	applyLogLevel(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	endpoints, err := proxypool.LoadFile(cfg.Proxy.File)
	if err != nil {
		return fmt.Errorf("load proxy file: %w", err)
	}
	if len(endpoints) == 0 {
		log.Warn("No proxies loaded; every search will fail until proxies are configured.", "file", cfg.Proxy.File)
	}
	pool := proxypool.New(endpoints, proxypool.WithBanThreshold(cfg.Proxy.BanThreshold))
	log.Info("Proxy pool ready", "proxies", len(endpoints), "ban_threshold", cfg.Proxy.BanThreshold)

	metrics := fetcher.NewMetrics()

	fetcherOpts := []fetcher.Option{
		fetcher.WithMetrics(metrics),
		fetcher.WithSearchURL(cfg.Fetcher.SearchURL),
		fetcher.WithTimeout(cfg.Fetcher.Timeout),
		fetcher.WithMinBodyBytes(cfg.Fetcher.MinBodyBytes),
		fetcher.WithUserAgent(cfg.Fetcher.UserAgent),
	}

	requestLog, err := requestlog.New(cfg.Log.Dir)
	if err != nil {
		return fmt.Errorf("open request log: %w", err)
	}
	defer requestLog.Close()
	fetcherOpts = append(fetcherOpts, fetcher.WithSink(requestLog))

	if cfg.Database.Enabled {
		if _, err := database.SetupDB(); err != nil {
			return fmt.Errorf("setup database: %w", err)
		}
		fetcherOpts = append(fetcherOpts, fetcher.WithSink(database.SearchSink{}))
	}

	var resultCache *cache.ResultCache
	if cfg.Cache.Enabled {
		resultCache = cache.New(cfg.Cache.Addr, cfg.Cache.DB, cfg.Cache.TTL)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := resultCache.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Warn("Result cache unreachable; continuing without it.", "addr", cfg.Cache.Addr, "error", err)
			resultCache.Close()
			resultCache = nil
		} else {
			defer resultCache.Close()
		}
	}

	search := fetcher.New(pool, extract.NewYouTube(), fetcherOpts...)

	if cfg.Checker.Enabled && len(endpoints) > 0 {
		proxyChecker := checker.New(pool, endpoints,
			checker.WithInterval(cfg.Checker.Interval),
			checker.WithThreads(cfg.Checker.Threads),
			checker.WithProbeURL(cfg.Checker.ProbeURL),
			checker.WithTimeout(cfg.Checker.Timeout),
		)
		cancel := checker.Launch(ctx, proxyChecker)
		defer cancel()
	}

	serverOpts := []server.Option{
		server.WithMetricsRegistry(metrics.Registry),
		server.WithHistory(cfg.Database.Enabled),
	}
	if resultCache != nil {
		serverOpts = append(serverOpts, server.WithCache(resultCache))
	}

	api := server.New(search, pool, serverOpts...)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return api.OpenRoutes(groupCtx, cfg.Server.Port)
	})
	return group.Wait()
}

func applyLogLevel(level string) {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.Warn("Unknown log level, keeping info.", "level", level)
		return
	}
	log.SetLevel(parsed)
}
