package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/erasmus-writer/resource-engine/api"
	"github.com/erasmus-writer/resource-engine/config"
	"github.com/erasmus-writer/resource-engine/logging"
	"github.com/erasmus-writer/resource-engine/metrics"
	"github.com/erasmus-writer/resource-engine/store/sqlite"
)

var serveScenario string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveScenario, "scenario", "", "demo scenario to load on startup")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Log.Env)
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	log.Infow("database ready", "path", cfg.Database.Path)

	m := metrics.New()
	handler := api.NewHandler(store, m, log, api.Options{
		StandardRole:      cfg.Costing.StandardRole,
		ReportConcurrency: cfg.Report.Concurrency,
	})

	if serveScenario != "" {
		if err := handler.LoadScenarioByID(context.Background(), serveScenario); err != nil {
			return err
		}
	}

	monitor := api.NewWorkloadMonitor(store, handler.Workloads, m, log.Named("monitor"))
	monitor.Enabled = cfg.Monitor.Enabled
	monitor.Interval = cfg.Monitor.Interval
	monitor.Start()
	defer monitor.Stop()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewRouter(handler, cfg.CORS.AllowedOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("server starting", "addr", cfg.Addr(), "standard_role", cfg.Costing.StandardRole)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
	}
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
