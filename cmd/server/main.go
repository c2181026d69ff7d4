package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sellpoint/pos-backend/internal/cache"
	"github.com/sellpoint/pos-backend/internal/config"
	"github.com/sellpoint/pos-backend/internal/es"
	"github.com/sellpoint/pos-backend/internal/httpserver"
	"github.com/sellpoint/pos-backend/internal/logging"
	"github.com/sellpoint/pos-backend/internal/mykafka"
	"github.com/sellpoint/pos-backend/internal/repo"
	"github.com/sellpoint/pos-backend/internal/service"
	"github.com/sellpoint/pos-backend/internal/service/search"
	"github.com/sellpoint/pos-backend/pkg/db"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	ctx := context.Background()
	database, err := db.Open(ctx, configuration.DatabaseDSN())
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}
	if err := config.Migrate(database); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	var producer *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		producer = mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
	}

	index := &search.Index{Name: "products"}
	if configuration.ES_URL != "" {
		esClient, err := es.NewClient(configuration)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		index.ES = esClient
	}

	sharedCache := cache.New(configuration.CACHE_TTL)
	store := &repo.GormRepo{DB: database}

	productSvc := &service.ProductService{Repo: store, Cache: sharedCache, Producer: producer, Search: index}
	orderSvc := &service.OrderService{Repo: store, Cache: sharedCache, Producer: producer, Search: index}
	cartSvc := &service.CartService{Repo: store, Cache: sharedCache, Producer: producer, Orders: orderSvc}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), httpserver.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		ProductHandler: &httpserver.ProductHandler{Svc: productSvc},
		CartHandler:    &httpserver.CartHandler{Svc: cartSvc},
		OrderHandler:   &httpserver.OrderHandler{Svc: orderSvc},
		JWTSecret:      []byte(configuration.JWT_SECRET),
	})

	srv := &http.Server{
		Addr:         configuration.HTTP_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := database.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if err := producer.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
