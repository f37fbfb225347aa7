package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/julescmay/machina/internal/logging"
	httpadapter "github.com/julescmay/machina/pkg/adapters/http"
	"github.com/julescmay/machina/pkg/adapters/memory"
	redisadapter "github.com/julescmay/machina/pkg/adapters/redis"
	"github.com/julescmay/machina/pkg/flow"
	"github.com/julescmay/machina/pkg/observability"
	"github.com/julescmay/machina/pkg/ports"
	"github.com/julescmay/machina/pkg/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Serves the flow as a JSON API over HTTP, with session persistence and Prometheus metrics on /metrics.`,
	Run: func(cmd *cobra.Command, args []string) {
		path, _ := cmd.Flags().GetString("file")
		port, _ := cmd.Flags().GetString("port")
		redisAddr, _ := cmd.Flags().GetString("redis")
		redisDB, _ := cmd.Flags().GetInt("redis-db")
		debug, _ := cmd.Flags().GetBool("debug")

		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		logger := logging.NewJSON(os.Stderr, level)

		def, err := flow.Load(path)
		if err != nil {
			fmt.Printf("Error loading flow: %v\n", err)
			os.Exit(1)
		}
		for _, finding := range def.Validate() {
			logger.Warn("Definition issue", "err", finding)
		}

		// Persistence backend. Redis when configured, in-process otherwise.
		var store ports.SnapshotStore
		sessionOpts := []session.Option{session.WithLogger(logger)}
		if redisAddr != "" {
			rs := redisadapter.New(redisAddr, os.Getenv("MACHINA_REDIS_PASSWORD"), redisDB)
			defer rs.Close()
			store = rs
			locker := redisadapter.NewLocker(rs.Client(), "machina:lock:")
			sessionOpts = append(sessionOpts, session.WithLocker(locker))
		} else {
			store = memory.New()
		}
		sessions := session.NewManager(store, sessionOpts...)

		reg := prometheus.NewRegistry()
		collector := observability.NewCollector(reg)

		api := httpadapter.NewServer(def, sessions,
			httpadapter.WithLogger(logger),
			httpadapter.WithFlowOptions(
				flow.WithMaxRedirects(32),
				flow.WithHooks(collector.Hooks()),
			),
		)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		mux.Handle("/", api.Handler())

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: mux,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("Server starting", "addr", srv.Addr, "flow", def.Name, "redis", redisAddr != "")
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			logger.Info("Shutdown started", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("Graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					logger.Error("Error killing server", "err", err)
				}
			}
			logger.Info("Server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("redis", "", "Redis address for session persistence (empty uses in-memory)")
	serveCmd.Flags().Int("redis-db", 0, "Redis database number")
}
