package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"wineinventory/internal/app"
	"wineinventory/internal/metrics"
	"wineinventory/internal/server"
)

func serveCmd() *cobra.Command {
	var addr, basePath string
	var seed bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logrus.SetFormatter(&logrus.JSONFormatter{})
			if !cmd.Flags().Changed("log-level") && os.Getenv("WINEINV_LOG_LEVEL") == "" {
				logrus.SetLevel(logrus.InfoLevel)
			}
			ctx := cmd.Context()
			e, conn, err := app.Open(ctx, viper.GetString("workspace"))
			if err != nil {
				return err
			}
			defer conn.Close()
			if seed {
				if _, err := app.Seed(ctx, e); err != nil {
					return err
				}
			}
			if !cmd.Flags().Changed("addr") && e.Config.Server.Addr != "" {
				addr = e.Config.Server.Addr
			}
			if !cmd.Flags().Changed("base-path") && e.Config.Server.BasePath != "" {
				basePath = e.Config.Server.BasePath
			}
			handler, err := server.New(server.Config{
				Engine:   e,
				BasePath: basePath,
				Metrics:  metrics.NewServerMetrics(),
				Log:      logrus.StandardLogger(),
			})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(shutdownCtx)
			}()
			logrus.WithFields(logrus.Fields{
				"addr":      addr,
				"base_path": basePath,
			}).Info("serving wine inventory API")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:3000", "listen address (default from config)")
	cmd.Flags().StringVar(&basePath, "base-path", "/api", "API base path (default from config)")
	cmd.Flags().BoolVar(&seed, "seed", true, "seed an empty workspace before serving")
	return cmd
}
