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

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/terranocoder/terrano/internal/api/v1/handlers"
	"github.com/terranocoder/terrano/internal/config"
	"github.com/terranocoder/terrano/internal/infrastructure/postgres"
	"github.com/terranocoder/terrano/internal/metrics"
	"github.com/terranocoder/terrano/internal/services"
	"github.com/terranocoder/terrano/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

var rootCmd = &cobra.Command{
	Use:   "terrano",
	Short: "Terrano IDE backend",
	Long: `Terrano serves the IDE's project, file, search, git, runner, plugin
and AI assistant APIs.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			// .env is optional
			log.Debug().Err(err).Msg("No .env file loaded")
		}
		logger.Setup()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		url := config.GetDatabaseURL()
		if url == "" {
			return errors.New("DATABASE_URL is not set")
		}
		if err := postgres.Migrate(url); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
		log.Info().Msg("Migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func setupRouter(svcs *services.Services) *mux.Router {
	r := mux.NewRouter()
	handlers.RegisterSystemRoutes(r, svcs)
	handlers.RegisterV1Routes(r, svcs)
	return r
}

func serve(ctx context.Context) error {
	metrics.Init()

	svcs, err := services.InitializeServices(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svcs.Close()

	pollCtx, cancelPoll := context.WithCancel(ctx)
	defer cancelPoll()
	go svcs.GetGitPoller().Run(pollCtx)

	server := &http.Server{
		Addr:              config.GetServerAddr(),
		Handler:           setupRouter(svcs),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
