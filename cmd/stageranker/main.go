package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"stageranker/internal/auth"
	"stageranker/internal/server"
	"stageranker/internal/storage/sqlite"
	"stageranker/internal/util"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using process environment")
	}

	addrFlag := flag.String("addr", util.EnvOrDefault("STAGERANKER_ADDR", ":8080"), "HTTP listen address")
	dbFlag := flag.String("db", util.EnvOrDefault("STAGERANKER_DB_PATH", "data/stageranker.db"), "Path to sqlite database file")
	staticFlag := flag.String("static", util.EnvOrDefault("STAGERANKER_STATIC_DIR", ""), "Directory with built frontend")
	ttlFlag := flag.Duration("token-ttl", util.EnvDurationOrDefault("STAGERANKER_TOKEN_TTL", 24*time.Hour), "Lifetime of issued tokens")
	proxiesFlag := flag.String("trusted-proxies", util.EnvOrDefault("STAGERANKER_TRUSTED_PROXIES", ""), "Comma separated proxy IPs or CIDRs allowed to set X-Forwarded-For")
	rateFlag := flag.Float64("rate-limit", util.EnvFloatOrDefault("STAGERANKER_RATE_LIMIT", 5), "Write requests per second allowed per client IP")
	flag.Parse()

	tokens, err := auth.NewIssuer(os.Getenv("STAGERANKER_JWT_SECRET"), *ttlFlag)
	if err != nil {
		logger.Error("invalid token configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	store, err := sqlite.Open(*dbFlag, logger)
	if err != nil {
		logger.Error("unable to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	created, err := auth.BootstrapSuperuser(ctx, store, auth.SuperuserConfig{
		Username: os.Getenv("STAGERANKER_SUPERUSER_USERNAME"),
		Password: os.Getenv("STAGERANKER_SUPERUSER_PASSWORD"),
		Email:    os.Getenv("STAGERANKER_SUPERUSER_EMAIL"),
	}, logger)
	if err != nil {
		logger.Error("superuser bootstrap failed", slog.String("error", err.Error()))
	} else if !created {
		logger.Info("superuser bootstrap skipped")
	}

	srv := server.New(store, tokens, logger, server.Options{
		StaticDir:      *staticFlag,
		RateLimit:      rate.Limit(*rateFlag),
		TrustedProxies: util.SplitList(*proxiesFlag),
	})
	go srv.RunLimiterCleanup(ctx)

	httpServer := &http.Server{
		Addr:              *addrFlag,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}
