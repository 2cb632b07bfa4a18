package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/neibo-app/neibo/internal/apperr"
	"github.com/neibo-app/neibo/internal/config"
	"github.com/neibo-app/neibo/internal/es"
	"github.com/neibo-app/neibo/internal/events"
	"github.com/neibo-app/neibo/internal/handlers"
	"github.com/neibo-app/neibo/internal/logging"
	"github.com/neibo-app/neibo/internal/middleware"
	"github.com/neibo-app/neibo/internal/service"
	"github.com/neibo-app/neibo/internal/service/search"
	"github.com/neibo-app/neibo/internal/service/tour"
	"github.com/neibo-app/neibo/internal/tokens"
	httpserver "github.com/neibo-app/neibo/internal/transport/http"
	"github.com/neibo-app/neibo/internal/validate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")
	config.MustNonEmptyBytes(cfg.JWTRefreshSecret, "JWT_REFRESH_SECRET")

	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()
	db, err := config.InitDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	tokenSvc := &tokens.Service{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	}
	authSvc := &service.AuthService{DB: db, Tokens: tokenSvc, BcryptCost: cfg.BcryptCost}
	walkSvc := &service.WalkService{DB: db}

	producer := events.NewProducer(cfg.KafkaBrokers)

	var walkIndex *search.Index
	if cfg.ESURL != "" {
		esClient, err := es.NewClient(es.Options{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword})
		if err != nil {
			log.Fatalf("elasticsearch init: %v", err)
		}
		walkIndex = search.NewIndex(esClient)
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis init: %v", err)
		}
	}

	tours, err := tour.NewGenerator(ctx, cfg.GeminiAPIKey)
	if err != nil {
		log.Fatalf("tour generator init: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover(), echomw.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Validator = validate.New()
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(logger, !cfg.IsProduction())

	httpserver.Register(e, &httpserver.Deps{
		DB:            db,
		Tokens:        tokenSvc,
		AuthHandler:   &handlers.AuthHandler{Auth: authSvc, Producer: producer},
		WalkHandler:   &handlers.WalkHandler{DB: db, Walks: walkSvc, Producer: producer, Search: walkIndex},
		UserHandler:   &handlers.UserHandler{DB: db, Walks: walkSvc},
		SearchHandler: &handlers.SearchHandler{Search: walkIndex},
		AIHandler:     &handlers.AIHandler{Tours: tours},
		Redis:         rdb,
		CacheTTL:      cfg.CacheTTL,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := producer.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
