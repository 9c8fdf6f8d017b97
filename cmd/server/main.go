// ratiodash serves the bank ratio dashboards over HTTP.
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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ratiodash/internal/api"
	"ratiodash/internal/config"
	"ratiodash/internal/dataset"
	"ratiodash/internal/logging"
	"ratiodash/internal/session"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
)

var cfg *config.Config

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "ratiodash",
	Short:         "Interactive bank financial-ratio dashboards",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		return cfg.Validate()
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ratiodash %s (%s)\n", version, commit)
	},
}

// --- Validate Command ---

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load every configured dataset and report its shape",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			return err
		}
		reg, err := dataset.Load(cmd.Context(), cfg.Datasets, logger)
		if err != nil {
			return err
		}
		for _, d := range reg.List() {
			st := d.Initial()
			fmt.Printf("%-12s rows=%d banks=%d periods=%d indicators=%d default=%s/%s status=%s\n",
				d.Name(), d.Table().Len(), len(d.Table().BankDict), len(d.Table().PeriodDict),
				len(d.Table().Indicators), st.Selection.Category, st.Selection.Indicator, st.Status)
		}
		return nil
	},
}

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load datasets and start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// 1. Load every dataset before accepting traffic
		reg, err := dataset.Load(ctx, cfg.Datasets, logger)
		if err != nil {
			logger.WithError(err).Fatal("startup failed")
		}

		// 2. Sessions and their sweeper
		store := session.NewStore(cfg.Session.TTL)
		go store.Run(ctx, cfg.Session.SweepInterval, logger)

		// 3. HTTP
		e := newEcho(logger)
		api.NewHandler(reg, store, logger).RegisterRoutes(e)

		errCh := make(chan error, 1)
		go func() {
			logger.WithField("addr", cfg.Server.Addr()).Info("server ready")
			if err := e.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		select {
		case <-ctx.Done():
			logger.Info("shutting down")
		case err := <-errCh:
			return fmt.Errorf("server: %w", err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	},
}

func newEcho(logger *logrus.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  cfg.Server.CORSOrigins,
		ExposeHeaders: []string{api.ChartStateHeader},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency.String(),
			})
			if v.Error != nil {
				entry.WithError(v.Error).Warn("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))
	return e
}
