// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the LexDesk server. It loads
// configuration, connects to services and runs the HTTP API and the
// delivery worker until a shutdown signal arrives.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"lexdesk/internal/autofill"
	"lexdesk/internal/cache"
	"lexdesk/internal/config"
	"lexdesk/internal/database"
	"lexdesk/internal/delivery"
	"lexdesk/internal/engine"
	"lexdesk/internal/execution"
	"lexdesk/internal/handlers"
	"lexdesk/internal/logger"
	"lexdesk/internal/middleware"
	"lexdesk/internal/router"
	"lexdesk/internal/storage"
	"lexdesk/internal/store"
)

// Records left in sent for longer than this are failed by the worker's
// startup sweep.
const staleSentAfter = 15 * time.Minute

const (
	roleAll    = "all"
	roleAPI    = "api"
	roleWorker = "worker"
)

func main() {
	var role string
	cmd := &cobra.Command{
		Use:           "lexdesk",
		Short:         "Petition template API and delivery worker",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch role {
			case roleAll, roleAPI, roleWorker:
			default:
				return fmt.Errorf("unknown role %q (want all, api or worker)", role)
			}
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, role)
		},
	}
	cmd.Flags().StringVar(&role, "role", roleAll, "components to run: all, api or worker")

	if err := cmd.Execute(); err != nil {
		slog.Error("lexdesk failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, role string) error {
	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	slog.SetDefault(logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "lexdesk"}))
	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"role", role,
		"timezone", cfg.Timezone,
	)

	// Connect to PostgreSQL.
	connectCtx, cancelConnect := context.WithTimeout(ctx, 10*time.Second)
	defer cancelConnect()

	db, err := database.Connect(connectCtx, cfg.DSN(), database.Pool{MaxOpen: cfg.DBMaxConns})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			return fmt.Errorf("seed database: %w", err)
		}
	}

	// Valkey backs the delivery queue and the document cache.
	valkeyClient, err := cache.ConnectValkey(connectCtx, cache.Options{
		Host:     cfg.ValkeyHost,
		Port:     cfg.ValkeyPort,
		Password: cfg.ValkeyPassword,
		DB:       cfg.ValkeyDB,
	})
	if err != nil {
		return fmt.Errorf("connect to valkey: %w", err)
	}
	defer valkeyClient.Close()

	loc := cfg.Location()

	templateStore := store.NewTemplateStore(db)
	fieldStore := store.NewFieldStore(db)
	executionStore := store.NewExecutionStore(db)
	clientStore := store.NewClientStore(db)
	processStore := store.NewProcessStore(db)

	// S3-compatible archive (optional, the app works without it).
	var archive *storage.Archive
	if cfg.S3Configured() {
		archive, err = storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket)
		if err != nil {
			return fmt.Errorf("initialize document archive: %w", err)
		}
		slog.Info("document archive enabled", "endpoint", cfg.S3Endpoint, "bucket", archive.Bucket())
	} else {
		slog.Warn("s3 storage not configured, document archive disabled")
	}

	queue := delivery.NewRedisQueue(valkeyClient, cfg.DeliveryQueue)
	transport := delivery.NewHTTPTransport(cfg.DeliveryTimeout, cfg.WebhookSecret)
	deliverer := delivery.NewDeliverer(executionStore, templateStore, transport, cfg.DeliveryTimeout)
	deliverer.SetParties(clientStore, processStore)

	g, gctx := errgroup.WithContext(ctx)

	if role == roleAll || role == roleWorker {
		worker := delivery.NewWorker(queue, deliverer, cfg.DeliveryWorkers, staleSentAfter)
		g.Go(func() error {
			slog.Info("delivery worker starting", "consumers", cfg.DeliveryWorkers, "queue", cfg.DeliveryQueue)
			return worker.Run(gctx)
		})
	}

	if role == roleAll || role == roleAPI {
		eng := engine.New(nil)

		manager := execution.New(templateStore, executionStore, eng, cfg.WorkspaceName, loc)
		manager.SetDispatcher(queue)
		manager.SetAutoFill(autofill.NewSource(clientStore, processStore))
		if archive != nil {
			manager.SetArchiver(archive)
		}

		api := handlers.NewAPI(templateStore, fieldStore, executionStore, manager, eng, deliverer)
		api.SetDocumentCache(cache.NewDocumentCache(valkeyClient, cache.DefaultDocumentTTL))
		api.SetParties(clientStore, processStore)
		api.SetHealthChecks(map[string]handlers.HealthCheck{
			"database": db.PingContext,
			"valkey":   func(ctx context.Context) error { return valkeyClient.Ping(ctx).Err() },
		})
		if archive != nil {
			api.SetArchive(archive)
		}

		limiter := middleware.NewRateLimiter(30, time.Minute)
		defer limiter.Stop()

		srv := &http.Server{
			Addr:         cfg.Addr(),
			Handler:      router.New(api, limiter),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: cfg.DeliveryTimeout + 30*time.Second, // retry waits on the endpoint
			IdleTimeout:  120 * time.Second,
		}

		g.Go(func() error {
			slog.Info("server starting", "addr", cfg.Addr())
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve http: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			slog.Info("shutting down http server")

			// Give active requests up to 30 seconds to complete.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown http server: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("lexdesk stopped gracefully")
	return nil
}
