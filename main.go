package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/storefront-labs/catalog-api/config"
	"github.com/storefront-labs/catalog-api/db"
	"github.com/storefront-labs/catalog-api/metrics"
	"github.com/storefront-labs/catalog-api/middleware"
	"github.com/storefront-labs/catalog-api/routes"
	"github.com/storefront-labs/catalog-api/store"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger := newLogger(cfg.GinMode)
	defer logger.Sync()

	gormDB, err := db.Connect(cfg.Postgres)
	if err != nil {
		logger.Fatal("could not connect to database", zap.Error(err))
	}
	if err := db.Migrate(gormDB); err != nil {
		logger.Fatal("could not migrate schema", zap.Error(err))
	}
	logger.Info("connected to PostgreSQL", zap.String("db_name", cfg.Postgres.DBName))

	dataStore := store.New(gormDB, cfg.Postgres.QueryTimeout)

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	routes.RegisterValidators()

	router := gin.New()
	router.Use(gin.Recovery(), middleware.Metrics())

	routes.NewItemHandler(dataStore, logger).Register(router)
	routes.NewUserHandler(dataStore, logger).Register(router)
	routes.NewCategoryHandler(dataStore, logger).Register(router)
	routes.NewHealthHandler(dataStore, logger).Register(router)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger(mode string) *zap.Logger {
	if mode == gin.ReleaseMode {
		l, _ := zap.NewProduction()
		return l
	}
	l, _ := zap.NewDevelopment()
	return l
}
