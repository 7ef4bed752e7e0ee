package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/anoixa/photo-album/config"
	"github.com/anoixa/photo-album/internal/app"
	"github.com/anoixa/photo-album/utils"
)

var configFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "photo-album",
	Short:        "A personal photo album web application",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunServer()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (eg: /etc/photo-album/config.yaml)")
}

// loadConfig reads the configuration and sets up logging. The closer
// releases the log file.
func loadConfig() (*config.Config, io.Closer, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}

	closer, err := utils.SetupLogger(utils.LoggerOptions{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Compress:   cfg.LogCompress,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return cfg, closer, nil
}

// openContainer loads config and builds every dependency for a one-shot command.
func openContainer(ctx context.Context) (*app.Container, func(), error) {
	cfg, logCloser, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	container := app.NewContainer(cfg)
	if err := container.Init(ctx); err != nil {
		_ = logCloser.Close()
		return nil, nil, fmt.Errorf("failed to initialize container: %w", err)
	}
	return container, func() {
		_ = container.Close()
		_ = logCloser.Close()
	}, nil
}
