package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/daily-reflections/core/internal/app"
	"github.com/daily-reflections/core/internal/database"
	"github.com/daily-reflections/core/internal/modules/content/diary"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Migrate the schema and run the HTTP server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync()

		if err := database.EnsureSchema(cfg); err != nil {
			return err
		}
		logger.Info("schema up to date", zap.String("driver", cfg.Database.Driver))
		return nil
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write a backup archive now",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync()

		db, err := database.Connect(cfg, false)
		if err != nil {
			return err
		}
		svc, err := app.NewBackupService(cfg, db, diary.NewService(db), logger)
		if err != nil {
			return err
		}
		art, err := svc.Run(cmd.Context())
		if art != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d bytes\t%s\n", art.Path, art.Size, art.RemoteURL)
		}
		return err
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), app.Version)
	},
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := database.EnsureSchema(cfg); err != nil {
		return fmt.Errorf("schema: %w", err)
	}

	application, err := app.New(logger, cfg)
	if err != nil {
		return fmt.Errorf("initialize app: %w", err)
	}

	srv := &http.Server{
		Addr:              application.Addr(),
		Handler:           application.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("forced shutdown", zap.Error(err))
	}
	if err := application.Shutdown(ctx); err != nil {
		logger.Warn("background work did not finish", zap.Error(err))
	}
	logger.Info("server exited")
	return nil
}
