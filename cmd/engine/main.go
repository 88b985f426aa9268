package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/SAP-F-2025/exercise-engine/internal/cache"
	"github.com/SAP-F-2025/exercise-engine/internal/config"
	"github.com/SAP-F-2025/exercise-engine/internal/correction"
	"github.com/SAP-F-2025/exercise-engine/internal/grid"
	"github.com/SAP-F-2025/exercise-engine/internal/handlers"
	"github.com/SAP-F-2025/exercise-engine/internal/models"
	"github.com/SAP-F-2025/exercise-engine/internal/repositories"
	"github.com/SAP-F-2025/exercise-engine/internal/repositories/memory"
	"github.com/SAP-F-2025/exercise-engine/internal/repositories/postgres"
	"github.com/SAP-F-2025/exercise-engine/internal/services"
	"github.com/SAP-F-2025/exercise-engine/internal/utils"
	"github.com/SAP-F-2025/exercise-engine/internal/validator"
	"github.com/SAP-F-2025/exercise-engine/pkg"
)

var (
	// Global flags
	verbose bool

	// serve flags
	port            string
	shutdownTimeout time.Duration

	// slots flags
	compact bool

	cfg    *config.Config
	logger utils.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "engine",
	Short: "Adaptive exercise engine",
	Long: `engine runs interactive exercise instances for a presentation host.

It normalizes authored content, keeps the student's answer, sends it to the
Correction Service and projects the returned feedback back onto the exercise.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if verbose {
			logger = utils.NewDevelopmentLogger()
		} else {
			logger = utils.NewLogger(cfg.Environment)
		}
		return nil
	},
}

// serveCmd starts the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the exercise HTTP API",
	Long: `Starts the HTTP API under /api/v1. Storage, cache, event publishing and
the Correction Service endpoint are configured through the environment or a
.env file.`,
	RunE: serve,
}

// slotsCmd prints the crossword slots of a mask
var slotsCmd = &cobra.Command{
	Use:   "slots [mask.json]",
	Short: "Detect and number crossword slots",
	Long: `Reads {"mask": [[true, false, ...]], "clues": [...]} from the given file,
or from stdin when no file is given, and prints the numbered slots.

Example:
  engine slots grid.json
  echo '{"mask": [[true, true, true]]}' | engine slots`,
	Args: cobra.MaximumNArgs(1),
	RunE: printSlots,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	serveCmd.Flags().StringVarP(&port, "port", "p", "", "Listen port (default: PORT env)")
	serveCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 15*time.Second, "Graceful shutdown timeout")

	slotsCmd.Flags().BoolVar(&compact, "compact", false, "Print compact JSON")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(slotsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// serve wires storage, transport and events into the HTTP API
func serve(cmd *cobra.Command, args []string) error {
	slogger := utils.ToSlogLogger(logger)

	snapshots, closeStorage, err := openSnapshots()
	if err != nil {
		return err
	}
	defer closeStorage()

	client := correction.NewHTTPClient(correction.HTTPConfig{
		BaseURL:          cfg.Correction.BaseURL,
		Timeout:          cfg.Correction.Timeout,
		MaxAttempts:      cfg.Correction.MaxAttempts,
		InitialDelay:     200 * time.Millisecond,
		MaxDelay:         2 * time.Second,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		Logger:           logger,
	})
	defer client.Close()

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		return fmt.Errorf("failed to create event publisher: %w", err)
	}
	defer publisher.Close()

	serviceManager := services.NewServiceManager(snapshots, client, publisher, validator.New(), slogger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewHandlerManager(serviceManager, logger).NewRouter()

	addr := ":" + cfg.Port
	if port != "" {
		addr = ":" + port
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Exercise engine listening", "addr", addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("Received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("Exercise engine stopped")
	return nil
}

// openSnapshots builds the snapshot store selected by STORAGE_BACKEND,
// fronted by redis when REDIS_URL is set
func openSnapshots() (repositories.SnapshotRepository, func(), error) {
	slogger := utils.ToSlogLogger(logger)
	var (
		repo    repositories.SnapshotRepository
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.StorageBackend {
	case "postgres":
		db, err := pkg.InitDatabase(cfg)
		if err != nil {
			return nil, nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			closers = append(closers, func() { _ = sqlDB.Close() })
		}
		repo = postgres.NewSnapshotPostgreSQL(db)
		logger.Info("Using postgres snapshot storage")
	case "memory", "":
		repo = memory.NewSnapshotMemory()
		logger.Info("Using in-memory snapshot storage")
	default:
		return nil, nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}

	if cfg.RedisURL != "" {
		client, err := pkg.NewRedisClient(cfg)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = client.Close() })
		repo = cache.NewSnapshotCache(repo, cache.NewRedisCache(client, slogger), cfg.SnapshotCacheTTL, slogger)
		logger.Info("Snapshot cache enabled", "ttl", cfg.SnapshotCacheTTL.String())
	}

	return repo, closeAll, nil
}

// printSlots runs the slot analyzer on a mask read from a file or stdin
func printSlots(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open mask: %w", err)
		}
		defer f.Close()
		in = f
	}

	var req models.AnalyzeGridRequest
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return fmt.Errorf("invalid mask JSON: %w", err)
	}
	if err := validator.New().Validate(&req); err != nil {
		return err
	}

	analysis := grid.Analyze(req.Mask, req.Clues)
	logger.Debug("Slots detected", "rows", analysis.Rows, "cols", analysis.Cols, "slots", len(analysis.Slots))

	enc := json.NewEncoder(cmd.OutOrStdout())
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(analysis)
}
