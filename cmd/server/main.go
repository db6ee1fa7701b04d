package main

import (
	"fmt"
	"os"

	"github.com/daily-reflections/core/internal/app"
	"github.com/daily-reflections/core/internal/config"
	"github.com/daily-reflections/core/internal/pkg/nativelog"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "time/tzdata"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "reflections",
	Short:         "Daily Reflections journaling backend",
	Version:       app.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", fmt.Sprintf("path to YAML config file (default %q)", config.DefaultConfigPath))
	rootCmd.AddCommand(serveCmd, migrateCmd, backupCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// bootstrap loads config and builds the process logger.
func bootstrap() (*config.AppConfig, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := nativelog.NewZapLogger(cfg.LogDir(), cfg.IsDev())
	if err != nil {
		logger, _ = zap.NewProduction()
		logger.Warn("file log pipeline unavailable, falling back to stderr", zap.Error(err))
	}
	return cfg, logger, nil
}
