package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"matlog/internal/auth"
	"matlog/internal/config"
	"matlog/internal/db"
	"matlog/internal/handlers"
	mw "matlog/internal/middleware"
	"matlog/internal/services"
	"matlog/internal/store"
)

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.Development() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}

	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	dbConn, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to open db", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer dbConn.Close()

	if err := db.RunMigrations(ctx, dbConn); err != nil {
		logger.Fatal("failed migrations", zap.Error(err))
	}

	encSvc, err := services.NewEncryptionService(cfg.EncryptionSecret, logger)
	if err != nil {
		logger.Fatal("invalid ENCRYPTION_SECRET", zap.Error(err))
	}
	if encSvc == nil {
		logger.Warn("ENCRYPTION_SECRET not set; journal text is stored in plaintext")
	}

	st := store.New(dbConn)
	svc := services.NewTrainingService(st, encSvc, logger)

	router := handlers.NewRouter(handlers.RouterConfig{
		Service:        svc,
		Health:         st,
		Auth:           mw.NewAuthMiddleware(auth.NewVerifier([]byte(cfg.JWTSecret), cfg.JWTIssuer), logger),
		Origin:         mw.NewOriginGuard(cfg.TrustForwardedHeaders, logger),
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown initiated")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
}
