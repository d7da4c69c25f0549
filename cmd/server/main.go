package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"bankcards/docs"
	"bankcards/internal/auth"
	"bankcards/internal/cache"
	"bankcards/internal/config"
	"bankcards/internal/db"
	"bankcards/internal/handler"
	"bankcards/internal/logging"
	"bankcards/internal/router"
	"bankcards/internal/scheduler"
	"bankcards/internal/service"
)

// @title Bank Cards API
// @version 1.0
// @description Bank card management with transfers, status changes and scheduled expiration.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logging.New(cfg.Log.Level)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := db.OpenStore(cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database init: %w", err)
	}

	cacheClient := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer cacheClient.Close()
	if err := cacheClient.Ping(ctx); err != nil {
		log.WithError(err).Warn("redis unavailable, continuing without cache")
	}

	location, err := cfg.Sweeper.Location()
	if err != nil {
		return err
	}

	// Initialize services
	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret)
	cardService := service.NewCardService(store, cacheClient, log)
	transferService := service.NewTransferService(store, cacheClient, service.TransferPolicy{
		RequireActiveCards: cfg.Transfer.RequireActiveCards,
	}, log)
	sweeper := service.NewExpirationSweeper(store, cacheClient, location, cfg.Sweeper.LockTTL, log)

	jobs := scheduler.New(location, log)
	if cfg.Sweeper.Enabled {
		if err := jobs.RegisterSweep(cfg.Sweeper.Schedule, sweeper, cfg.Sweeper.Timeout); err != nil {
			return err
		}
		jobs.Start()
		log.WithFields(logrus.Fields{
			"schedule": cfg.Sweeper.Schedule,
			"timezone": location.String(),
		}).Info("expiration sweeper scheduled")
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, jwtService, log, router.Handlers{
		Cards:     handler.NewCardHandler(cardService),
		Transfers: handler.NewTransferHandler(transferService),
		Sweeps:    handler.NewSweepHandler(sweeper),
	})

	if cfg.Swagger.Host != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.Swagger.Host, "http://"), "https://")
	}
	log.Infof("Swagger documentation available at: http://%s/swagger/index.html", docs.SwaggerInfo.Host)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		log.WithField("addr", addr).Info("server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server start: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown")
	}
	if cfg.Sweeper.Enabled {
		if err := jobs.Stop(shutdownCtx); err != nil {
			log.WithError(err).Warn("sweeper did not finish before shutdown timeout")
		}
	}
	log.Info("server stopped")
	return nil
}
