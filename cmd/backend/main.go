// Package main provides the entry point for the Supernova link service.
//
//	@title			Supernova API
//	@version		1.0.0
//	@description	Link shortening with click attribution and creator rewards.
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Authorization header. Format: "Bearer {token}"
package main

import (
	"Supernova-Backend/internal/attribution"
	"Supernova-Backend/internal/auth"
	"Supernova-Backend/internal/captcha"
	"Supernova-Backend/internal/config"
	"Supernova-Backend/internal/database"
	httpHandler "Supernova-Backend/internal/handler/http"
	"Supernova-Backend/internal/repository/postgres"
	"Supernova-Backend/internal/service"
	"Supernova-Backend/pkg/logger"
	"Supernova-Backend/pkg/useragent"
	"context"
	"fmt"
	lg "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)
	defer func() {
		if err := log.Sync(); err != nil {
			lg.Printf("ERROR: failed to sync zap logger: %v\n", err)
		}
	}()

	log.Info("starting supernova backend", zap.String("env", cfg.Env))

	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, log); err != nil {
			log.Error("failed to close database connection", zap.Error(err))
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db, log); err != nil {
			log.Fatal("failed to run database migrations", zap.Error(err))
		}
	} else {
		log.Info("skipping database migrations (auto_migrate: false)")
	}

	if err := useragent.InitGlobalParser("assets/regexes.yaml", log); err != nil {
		log.Warn("failed to initialize User-Agent parser, using fallback", zap.Error(err))
	}

	storage := postgres.New(db, log)

	verifier := captcha.NewHTTPVerifier(&cfg.Captcha, log)
	guard := service.NewAbuseGuard(storage, verifier, &cfg.Abuse, log)

	propagator := attribution.NewPropagator(storage, log, attribution.Config{
		WorkerCount:     cfg.Attribution.Workers,
		BufferSize:      cfg.Attribution.BufferSize,
		RetryAttempts:   cfg.Attribution.RetryAttempts,
		RetryDelay:      cfg.Attribution.RetryDelay,
		ShutdownTimeout: 30 * time.Second,
	})
	if err := propagator.Start(); err != nil {
		log.Fatal("failed to start attribution propagator", zap.Error(err))
	}
	defer func() {
		if err := propagator.Stop(); err != nil {
			log.Error("failed to stop attribution propagator", zap.Error(err))
		}
	}()

	clickService := service.NewClickService(storage, guard, propagator, log)
	redirectService := service.NewRedirectService(storage, clickService, log)
	linkService := service.NewLinkService(storage, &cfg.URLShortener, log)
	rewardService := service.NewRewardService(storage, log)

	jwtService := auth.NewJWTService(&auth.JWTConfig{
		SecretKey:            []byte(cfg.Auth.JWTSecret),
		AccessTokenDuration:  cfg.Auth.AccessTokenTTL,
		RefreshTokenDuration: cfg.Auth.RefreshTokenTTL,
		Issuer:               cfg.Auth.Issuer,
	})
	passwordService := auth.NewPasswordService()

	apiServer := httpHandler.NewServer(
		storage,
		linkService,
		clickService,
		redirectService,
		rewardService,
		jwtService,
		passwordService,
		cfg.Abuse.CooldownMinutes,
		log,
		cfg.URLShortener.BaseURL,
	)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPServer.Port),
		Handler:      apiServer.SetupRoutes(),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting HTTP server", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down supernova backend")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown HTTP server", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}
	apiServer.Close()
}
