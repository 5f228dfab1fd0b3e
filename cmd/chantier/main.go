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

	"chantier-backend/internal/config"
	"chantier-backend/internal/service/export"
	"chantier-backend/internal/service/ledger"
	"chantier-backend/internal/service/orders"
	"chantier-backend/internal/storage/sqlstore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "chantier",
		Short:        "Progress billing back office for construction projects",
		SilenceUsage: true,
	}

	root.AddCommand(newServeCmd(), newMigrateCmd())

	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustConfig()
			log := setupLogger(cfg.Env, cfg.ErrorLog)

			return serve(cmd.Context(), cfg, log)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustConfig()
			log := setupLogger(cfg.Env, cfg.ErrorLog)

			store, err := sqlstore.New(cfg.Storage)
			if err != nil {
				log.Error("failed to open db", slog.String("error", err.Error()))
				return err
			}
			defer store.Close()

			if err := store.Migrate(cmd.Context()); err != nil {
				log.Error("migration failed", slog.String("error", err.Error()))
				return err
			}

			log.Info("migration done", slog.String("driver", store.Driver()))
			return nil
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	taxRate, err := cfg.Tax()
	if err != nil {
		return err
	}
	if len(cfg.Accounts) == 0 {
		return fmt.Errorf("no accounts configured")
	}

	store, err := sqlstore.New(cfg.Storage)
	if err != nil {
		log.Error("failed to open db", slog.String("error", err.Error()))
		return err
	}
	defer store.Close()

	// sqlite создаётся на лету, mysql мигрируется отдельной командой
	if store.Driver() == sqlstore.DriverSQLite {
		if err := store.Migrate(ctx); err != nil {
			log.Error("migration failed", slog.String("error", err.Error()))
			return err
		}
	}

	projects := ledger.NewProjectLedger(store, taxRate)
	subcontractors := ledger.NewSubcontractorLedger(store, taxRate)

	svc := services{
		projects:            projects,
		subcontractors:      subcontractors,
		orders:              orders.New(store),
		projectSheets:       export.New(projects),
		subcontractorSheets: export.New(subcontractors),
	}

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      routes(*cfg, log, store, svc),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server started", slog.String("address", cfg.Address), slog.String("driver", store.Driver()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", slog.String("error", err.Error()))
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	log.Info("server stopped")
	return err
}
