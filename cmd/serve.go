package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/anoixa/photo-album/api/core"
	"github.com/anoixa/photo-album/config"
	"github.com/anoixa/photo-album/internal/app"
)

const shutdownTimeout = 5 * time.Second

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func RunServer() error {
	cfg, logCloser, err := loadConfig()
	if err != nil {
		return err
	}
	defer logCloser.Close()

	logrus.WithFields(logrus.Fields{
		"version": config.Version,
		"commit":  config.CommitHash,
	}).Info("Starting photo album")

	container := app.NewContainer(cfg)
	if err := container.Init(context.Background()); err != nil {
		logrus.WithError(err).Error("Failed to initialize")
		return err
	}

	server, cleanup, err := core.StartServer(container)
	if err != nil {
		_ = container.Close()
		return err
	}

	serverErr := make(chan error, 1)
	go func() {
		logrus.Infof("Server started on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// 处理退出signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		if err != nil {
			logrus.WithError(err).Error("Server failed")
			cleanup()
			_ = container.Close()
			return err
		}
	}

	logrus.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	shutdownErr := server.Shutdown(ctx)
	if shutdownErr != nil {
		logrus.WithError(shutdownErr).Error("Server forced to shutdown")
	}

	cleanup()
	if err := container.Close(); err != nil {
		logrus.WithError(err).Error("Error closing container")
	}

	logrus.Info("Server exited")
	return shutdownErr
}
