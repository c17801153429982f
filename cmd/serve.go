package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/wastewise/internal/api"
)

var (
	servePort       int
	serveSampleData bool
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the waste prediction API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		zap.L().Info("initializing waste predictor")
		env.Predictor.Initialize(ctx)

		if serveSampleData {
			n, err := env.Inventory.Seed(ctx)
			if err != nil {
				return eris.Wrap(err, "seed sample inventory")
			}
			if n > 0 {
				zap.L().Info("seeded sample inventory", zap.Int("products", n))
			}
		}

		srv := api.NewServer(api.Deps{
			Model:     env.Predictor,
			Assessor:  env.Assessor,
			Inventory: env.Inventory,
			Analytics: env.Analytics,
		}, cfg.Server)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		httpSrv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := httpSrv.Shutdown(sctx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server",
			zap.Int("port", port),
			zap.Bool("model_trained", env.Predictor.Trained()),
		)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveSampleData, "sample-data", true, "seed sample products when the inventory is empty")
	rootCmd.AddCommand(serveCmd)
}
