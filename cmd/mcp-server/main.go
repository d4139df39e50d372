package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/manas-health/mcp-api/internal/config"
	"github.com/manas-health/mcp-api/internal/domain/records"
	"github.com/manas-health/mcp-api/internal/mcp"
	"github.com/manas-health/mcp-api/internal/platform/armoriq"
	"github.com/manas-health/mcp-api/internal/platform/db"
	"github.com/manas-health/mcp-api/internal/platform/gemini"
	"github.com/manas-health/mcp-api/internal/platform/middleware"
	"github.com/manas-health/mcp-api/internal/prescribe"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Patient data MCP backend",
	}

	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Outbound clients
	modelClient := gemini.NewClient(cfg.GeminiBaseURL, cfg.GeminiModel, cfg.GeminiAPIKey)
	if cfg.GeminiAPIKey == "" {
		logger.Warn().Msg("GEMINI_API_KEY not set; prescription generation will fail at call time")
	}

	var auditor prescribe.PlanAuditor
	if cfg.ArmorIQAPIKey != "" {
		auditor = armoriq.NewClient(cfg.ArmorIQAPIKey, cfg.ArmorIQBaseURL, cfg.ArmorIQUserID, cfg.ArmorIQAgentID, logger)
		logger.Info().Msg("plan auditing enabled")
	} else {
		logger.Warn().Msg("ARMORIQ_API_KEY not set; plan auditing disabled")
	}

	// Services
	recordsSvc := records.NewService(
		records.NewPatientRepoPG(pool),
		records.NewAppointmentRepoPG(pool),
		records.NewPrescriptionRepoPG(pool),
	)
	prescribeSvc := prescribe.NewService(recordsSvc, modelClient, auditor, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.Audit(logger))

	// Routes
	mcp.NewHandler(recordsSvc, logger).RegisterRoutes(e)
	prescribe.NewHandler(prescribeSvc, logger).RegisterRoutes(e)
	e.GET("/health", db.HealthHandler(pool))
	e.GET("/health/db", db.StatsHandler(pool))

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}
