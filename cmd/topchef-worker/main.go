// topchef-worker registers services with a TopChef server and runs jobs
// against them by piping parameters to a subprocess.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/TopChef/TopChefClient/api"
	"github.com/TopChef/TopChefClient/dispatcher"
	"github.com/TopChef/TopChefClient/internal/config"
	"github.com/TopChef/TopChefClient/internal/health"
	"github.com/TopChef/TopChefClient/internal/observability"
	"github.com/TopChef/TopChefClient/worker"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := newRootCmd().Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "topchef-worker",
		Short:         "Run tasks against a TopChef job server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRegisterCmd(), newRunCmd())
	return root
}

func newRegisterCmd() *cobra.Command {
	var manifestPath string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a service from a manifest and print its id",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadWorkerConfig()

			manifest, err := config.LoadServiceManifest(manifestPath)
			if err != nil {
				return err
			}

			gateway := api.NewHTTPGateway(cfg.Address, cfg.HTTPTimeout)
			id, err := gateway.CreateService(cmd.Context(), api.ServiceRegistration{
				Name:                  manifest.Name,
				Description:           manifest.Description,
				JobRegistrationSchema: manifest.JobRegistrationSchema,
				JobResultSchema:       resultSchemaOrDefault(manifest.JobResultSchema),
			})
			if err != nil {
				return err
			}

			slog.Info("Service registered", "name", manifest.Name, "serviceId", id)
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "service.yaml", "path to the service manifest")
	return cmd
}

func newRunCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run [-- command args...]",
		Short: "Run the worker loops, executing each job with a subprocess",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				cfg.Command = args
			}
			if cfg.ServiceID == "" {
				return errors.New("no service id configured; run register first")
			}
			if len(cfg.Command) == 0 {
				return errors.New("no task command configured")
			}
			return runWorker(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a worker config file")
	return cmd
}

func loadConfig(path string) (*config.WorkerConfig, error) {
	if path == "" {
		return config.LoadWorkerConfig(), nil
	}
	return config.LoadWorkerConfigFile(path)
}

func resultSchemaOrDefault(schema map[string]any) any {
	if schema == nil {
		return api.DefaultResultSchema()
	}
	return schema
}

func runWorker(ctx context.Context, cfg *config.WorkerConfig) error {
	metrics, metricsHandler, err := observability.NewMetrics(ctx)
	if err != nil {
		return err
	}

	gateway := api.NewHTTPGateway(cfg.Address, cfg.HTTPTimeout)

	opts := []worker.Option{
		worker.WithGateway(gateway),
		worker.WithCheckinInterval(cfg.CheckinInterval),
		worker.WithIdleInterval(cfg.IdleInterval),
		worker.WithMetrics(metrics),
	}

	var eventDispatcher *dispatcher.MemoryDispatcher
	if len(cfg.Listeners) > 0 {
		eventDispatcher = dispatcher.NewMemory(dispatcher.LoadConfigFromEnv(), metrics)
		signingKey := config.GetSecretFile(cfg.SigningKeyFile)
		opts = append(opts, worker.WithListeners(eventDispatcher, cfg.Listeners, signingKey))
	}

	w := worker.New(cfg.Address, cfg.ServiceID, newExecTask(cfg.Command), opts...)
	if err := w.Start(ctx); err != nil {
		return err
	}

	// Admin endpoint: liveness, readiness and Prometheus metrics.
	healthChecker := health.NewChecker(gateway)
	var adminServer *http.Server
	serverErr := make(chan error, 1)
	if cfg.AdminPort != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", metricsHandler)
		mux.HandleFunc("GET /healthz/live", serveHealth(healthChecker.Liveness))
		mux.HandleFunc("GET /healthz/ready", serveHealth(healthChecker.Readiness))

		adminServer = &http.Server{
			Addr:         ":" + cfg.AdminPort,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		go func() {
			slog.Info("Starting admin server", "port", cfg.AdminPort)
			if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
	}

	// The loops exit on their own when the server stops answering.
	workerDone := make(chan struct{})
	go func() {
		w.Wait()
		close(workerDone)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		slog.Info("Received shutdown signal", "signal", sig)
	case <-workerDone:
		slog.Info("Worker loops exited")
	case err := <-serverErr:
		slog.Error("Admin server failed", "error", err)
		runErr = err
	}

	healthChecker.SetShuttingDown()
	w.Stop()

	if adminServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := adminServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Admin server shutdown error", "error", err)
		}
	}

	if eventDispatcher != nil {
		slog.Info("Draining event dispatcher")
		drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := eventDispatcher.Close(drainCtx); err != nil {
			slog.Warn("Dispatcher shutdown error", "error", err)
		}
	}

	slog.Info("Shutdown complete")
	return runErr
}

func serveHealth(check func(ctx context.Context) *health.Response) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		response := check(r.Context())
		status := http.StatusOK
		if !response.IsHealthy() {
			status = http.StatusServiceUnavailable
		}
		writeJSON(rw, status, response)
	}
}
