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
	"time"

	"github.com/Skotchmaster/product_rating/internal/config"
	"github.com/Skotchmaster/product_rating/internal/db"
	"github.com/Skotchmaster/product_rating/internal/events"
	"github.com/Skotchmaster/product_rating/internal/httpserver"
	"github.com/Skotchmaster/product_rating/internal/logging"
	"github.com/Skotchmaster/product_rating/internal/middleware/auth"
	"github.com/Skotchmaster/product_rating/internal/repo"
	"github.com/Skotchmaster/product_rating/internal/search"
	"github.com/Skotchmaster/product_rating/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err == nil {
		err = db.Migrate(ctx, gdb)
	}
	cancel()
	if err != nil {
		log.Fatalf("db: %v", err)
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		p, err := events.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka: %v", err)
		}
		publisher = p
	}

	var index search.Index
	if cfg.ESURL != "" {
		client, err := search.NewClient(search.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword})
		if err != nil {
			logger.Warn("search_disabled", "reason", "elasticsearch unavailable", "error", err)
		} else {
			index = search.NewESIndex(client, cfg.ESIndex)
		}
	}

	r := &repo.GormRepo{DB: gdb}
	users := &service.UserService{Repo: r, Secret: []byte(cfg.JWTSecret), TokenTTL: cfg.TokenTTL}
	catalog := &service.CatalogService{Repo: r, Events: publisher, Index: index, Topic: cfg.KafkaTopic}
	ratings := &service.RatingService{Repo: r, Events: publisher, Topic: cfg.KafkaTopic}

	e := httpserver.New(logger, &httpserver.Deps{
		DB:       gdb,
		Products: &httpserver.ProductHTTP{Svc: catalog, PageSize: cfg.PageSize, MaxPageSize: cfg.MaxPageSize},
		Ratings:  &httpserver.RatingHTTP{Svc: ratings, PageSize: cfg.PageSize, MaxPageSize: cfg.MaxPageSize},
		Auth:     auth.NewRequireLogin([]byte(cfg.JWTSecret), users),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}

	if err := publisher.Close(); err != nil {
		logger.Error("kafka_close", "error", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("stopped")
}
