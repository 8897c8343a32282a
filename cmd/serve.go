package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkoster/querylens/internal/server"
	"github.com/mkoster/querylens/internal/service"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the REST API. If a database is configured it is connected at
startup; otherwise clients connect through POST /api/connect-database.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if servePort > 0 {
		cfg.Server.Port = servePort
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	session, err := service.NewSession(cfg, logger)
	if err != nil {
		return err
	}
	defer session.Close()

	if cfg.Database.ConnectionString != "" {
		model, err := session.Connect(ctx, cfg.Database.ConnectionString)
		if err != nil {
			return err
		}

		fmt.Printf("Connected to %s database (%d tables)\n", model.Dialect, len(model.Tables))
	}

	srv := server.New(cfg, session, logger)

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.WithField("signal", sig.String()).Info("shutting down")
	}

	shutdownTimeout, err := time.ParseDuration(cfg.Server.ShutdownTimeout)
	if err != nil {
		shutdownTimeout = 10 * time.Second
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
