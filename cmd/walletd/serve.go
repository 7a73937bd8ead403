// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Walletd Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/walletd/walletd/internal/auth"
	authpg "github.com/walletd/walletd/internal/auth/postgres"
	authredis "github.com/walletd/walletd/internal/auth/redis"
	"github.com/walletd/walletd/internal/config"
	"github.com/walletd/walletd/internal/httpapi"
	"github.com/walletd/walletd/internal/logging"
	"github.com/walletd/walletd/internal/mail"
	"github.com/walletd/walletd/internal/observability"
	"github.com/walletd/walletd/internal/store"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	flags := config.Flags()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the walletd HTTP server",
		Long: `Start the walletd server: connect to PostgreSQL and Redis, load the
token signing keys, and serve the account API plus the observability
endpoints until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, flags)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, cmd)
		},
	}
	cmd.Flags().AddFlagSet(flags)

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, cmd *cobra.Command) error {
	logging.SetDefault("walletd", version, cfg.LogFormat)
	logger := slog.Default()

	slog.Info("starting walletd",
		"listen_addr", cfg.ListenAddr,
		"log_format", cfg.LogFormat,
	)

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	slog.Info("connected to database")

	redisClient, err := authredis.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := redisClient.Close(); closeErr != nil {
			slog.Debug("error closing redis client", "error", closeErr)
		}
	}()
	slog.Info("connected to redis")

	privatePEM, err := os.ReadFile(cfg.TokenPrivateKeyFile)
	if err != nil {
		return oops.Code("CONFIG_INVALID").
			With("path", cfg.TokenPrivateKeyFile).
			Wrapf(err, "read token private key")
	}
	publicPEM, err := os.ReadFile(cfg.TokenPublicKeyFile)
	if err != nil {
		return oops.Code("CONFIG_INVALID").
			With("path", cfg.TokenPublicKeyFile).
			Wrapf(err, "read token public key")
	}
	tokens, err := auth.NewJWTIssuer(privatePEM, publicPEM, cfg.TokenExpiry)
	if err != nil {
		return err
	}

	users := authpg.NewUserRepository(pool)
	resets := authredis.NewResetTokenStore(redisClient)

	service, err := auth.NewService(auth.ServiceConfig{
		Users:         users,
		Resets:        resets,
		Hasher:        auth.NewArgon2idHasher(),
		Tokens:        tokens,
		Mailer:        mail.NewLogMailer(logger),
		ResetTokenTTL: cfg.ResetTokenTTL,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	guard, err := auth.NewSessionGuard(tokens, users, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	obsServer := observability.NewServer(cfg.ObservabilityAddr, func() bool {
		pingCtx, pingCancel := context.WithTimeout(ctx, time.Second)
		defer pingCancel()
		return pool.Ping(pingCtx) == nil
	})
	obsErrChan, err := obsServer.Start()
	if err != nil {
		return err
	}
	go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
	slog.Info("observability server started", "addr", obsServer.Addr())

	router, err := httpapi.NewRouter(httpapi.RouterDeps{
		Auth:    service,
		Guard:   guard,
		Metrics: obsServer.Metrics(),
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	apiServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		if serveErr := apiServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("walletd started")
	slog.Info("walletd ready", "listen_addr", cfg.ListenAddr)

	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
	case err := <-errChan:
		return oops.Code("SERVER_FAILED").Wrap(err)
	case <-ctx.Done():
		slog.Info("context cancelled, shutting down")
	}

	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("error stopping api server", "error", err)
	}
	if err := obsServer.Stop(shutdownCtx); err != nil {
		slog.Warn("error stopping observability server", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// monitorServerErrors cancels the context when a background server fails,
// so one failing server shuts the whole process down cleanly.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
