// Package main initializes and starts the GophAuth HTTP server,
// setting up configuration, logging, database connections, repositories,
// services, handlers and the invitation cleaner.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/GophAuth/internal/auth"
	"github.com/atinyakov/GophAuth/internal/config"
	"github.com/atinyakov/GophAuth/internal/db"
	"github.com/atinyakov/GophAuth/internal/logger"
	"github.com/atinyakov/GophAuth/internal/repository"
	"github.com/atinyakov/GophAuth/internal/server/handler/http"
	"github.com/atinyakov/GophAuth/internal/service"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line, file and environment configuration.
	options := config.Parse()
	addr := options.Port

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	// Remove invitations nobody accepted in time.
	db.StartInvitationCleaner(ctx, postgresDB,
		options.CleanupInterval,
		options.InvitationTTL,
		zapLogger,
	)

	// Initialize the repository and business-logic service.
	userRepo := repository.NewPostgresUserRepository(postgresDB)
	issuer := auth.NewIssuer(options.JWTSecret, options.TokenTTL)
	authService := service.NewAuthService(userRepo, issuer,
		service.WithInvitationTTL(options.InvitationTTL),
	)

	// Create HTTP handlers for account and invitation endpoints.
	authHandler := &http.AuthHandler{AuthService: authService, Log: zapLogger}
	invitationHandler := &http.InvitationHandler{Invitations: authService, Log: zapLogger}

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, invitationHandler, issuer, zapLogger)

	server := &nethttp.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("server shutdown failed", zap.Error(err))
		}
	}()

	zapLogger.Info("starting HTTP server", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}
