package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/hmtran/clothes-shop/internal/cache"
	"github.com/hmtran/clothes-shop/internal/config"
	"github.com/hmtran/clothes-shop/internal/es"
	"github.com/hmtran/clothes-shop/internal/events"
	"github.com/hmtran/clothes-shop/internal/logging"
	"github.com/hmtran/clothes-shop/internal/mailer"
	"github.com/hmtran/clothes-shop/internal/middleware"
	"github.com/hmtran/clothes-shop/internal/service"
	"github.com/hmtran/clothes-shop/internal/storage"
	transport "github.com/hmtran/clothes-shop/internal/transport/http"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Exit(1)
	}

	log := logging.New(cfg.LOG_LEVEL)

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}

	var producer *events.Producer
	if cfg.KAFKA_ADDRESS != "" {
		producer = events.NewProducer(strings.Split(cfg.KAFKA_ADDRESS, ","))
	}

	deps := transport.Deps{
		DB:       db,
		Tokens:   &service.TokenService{DB: db, JWTSecret: []byte(cfg.JWT_SECRET), RefreshSecret: []byte(cfg.REFRESH_SECRET)},
		Producer: producer,
		ESIndex:  cfg.ES_INDEX,
	}

	if cfg.ES_URL != "" {
		client, err := es.NewClient(cfg)
		if err != nil {
			log.Warn("elasticsearch unavailable, search disabled", "error", err)
		} else {
			deps.ES = client
		}
	}

	productCache := cache.New(cfg.REDIS_ADDR, cfg.REDIS_PASSWORD)
	deps.Cache = productCache

	deps.Mailer = mailer.New(cfg.SMTP_HOST, cfg.SMTP_PORT, cfg.SMTP_USER, cfg.SMTP_PASSWORD, cfg.SMTP_FROM, log)

	if cfg.S3_BUCKET != "" {
		s3store, err := storage.NewS3Storage(cfg.S3_REGION, cfg.S3_BUCKET)
		if err != nil {
			log.Error("s3 init failed", "error", err)
			os.Exit(1)
		}
		deps.Storage = s3store
	} else {
		local, err := storage.NewLocalStorage(cfg.UPLOAD_DIR, cfg.PUBLIC_URL)
		if err != nil {
			log.Error("local storage init failed", "error", err)
			os.Exit(1)
		}
		deps.Storage = local
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.RateLimiter(productCache.Client()))

	if cfg.S3_BUCKET == "" {
		e.Static("/"+filepath.Base(cfg.UPLOAD_DIR), cfg.UPLOAD_DIR)
	}

	transport.Register(e, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.PORT,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
	}

	if err := producer.Close(); err != nil {
		log.Error("kafka close error", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
