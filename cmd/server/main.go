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

	"github.com/Freeeeeet/slotswapper/internal/app"
	"github.com/Freeeeeet/slotswapper/internal/auth"
	"github.com/Freeeeeet/slotswapper/internal/config"
	"github.com/Freeeeeet/slotswapper/internal/controller"
	"github.com/Freeeeeet/slotswapper/internal/repository"
	"github.com/Freeeeeet/slotswapper/internal/service"
	"github.com/Freeeeeet/slotswapper/internal/ws"
	"github.com/Freeeeeet/slotswapper/migrations"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting slotswapper server",
		zap.String("environment", cfg.Environment),
		zap.String("http_addr", cfg.HTTPAddr),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := app.NewPool(ctx, cfg.DBDSN, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, migrations.FS, logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	_ = migrator.Close()

	slotRepo := repository.NewSlotRepository(pool)
	swapRepo := repository.NewSwapRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)

	registry := ws.NewRegistry(logger)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	notificationService := service.NewNotificationService(notificationRepo, registry, logger)
	swapService := service.NewSwapService(swapRepo, slotRepo, notificationService, logger)

	ctrl := controller.NewController(
		swapService,
		notificationService,
		registry,
		tokens,
		cfg.WSAuthTimeout,
		logger,
	)

	srv := &http.Server{
		Addr:        cfg.HTTPAddr,
		Handler:     ctrl.Routes(),
		ReadTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shCtx); err != nil {
		logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	logger.Info("Server stopped")
}
