package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"stock-trader/config"
	"stock-trader/database"
	"stock-trader/handlers"
	"stock-trader/jobs"
	"stock-trader/middleware"
	"stock-trader/quotes"
	"stock-trader/repository"
	"stock-trader/services"
	"stock-trader/session"
)

func main() {
	cfg := config.MustLoad()

	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL and Redis connections.
	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Failed to get database instance: ", err)
	}
	defer sqlDB.Close()

	rdb, err := config.InitRedis(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to redis: ", err)
	}
	defer rdb.Close()

	store := repository.NewStore(db)
	live := quotes.NewAlphaVantage(cfg.Quotes)
	provider := quotes.NewCached(live, rdb, cfg.Quotes.CacheTTL)
	sessions := session.NewStore(rdb, cfg.Session.Secret, cfg.Session.TTL)

	accounts := services.NewAccountService(store, cfg.PasswordPolicyStrict)
	trading := services.NewTradingService(store, provider, live)

	if cfg.Jobs.PriceSnapshotInterval > 0 {
		sched, err := jobs.NewScheduler()
		if err != nil {
			log.Fatal("Failed to create scheduler: ", err)
		}
		snapshot := jobs.NewPriceSnapshot(store, provider)
		if err := sched.NewIntervalJob("price snapshot", snapshot.Run, cfg.Jobs.PriceSnapshotInterval, false); err != nil {
			log.Fatal("Failed to schedule price snapshot: ", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(), middleware.NoCache())

	h := handlers.New(accounts, trading, sessions, handlers.CookieConfig{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.CookieSecure,
		TTL:    cfg.Session.TTL,
	})
	h.RegisterRoutes(router, sessions)

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router,
	}

	go func() {
		slog.Info("http server started", slog.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", slog.String("err", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", slog.String("err", err.Error()))
	}
}

func setupLogger(cfg *config.Config) {
	var logLevel slog.Level

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}
