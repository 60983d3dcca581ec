package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-skin-inspector/internal/container"
	"go-skin-inspector/internal/logger"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildContainer(container.Options{Metrics: true})
			if err != nil {
				return err
			}
			cfg := c.Config()
			if addr == "" {
				addr = cfg.ServerAddress()
			}

			ctx := cmd.Context()
			workers, stopWorkers := context.WithCancel(ctx)
			defer stopWorkers()
			c.Start(workers)

			server := &http.Server{
				Addr:              addr,
				Handler:           c.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       cfg.RequestTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				fmt.Fprintf(cmd.ErrOrStderr(), "Listening on %s\n", addr)
				logger.WithFields(logrus.Fields{"address": addr}).Info("Starting HTTP server")
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					c.Shutdown()
					return err
				}
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			err = server.Shutdown(shutdownCtx)
			stopWorkers()
			c.Shutdown()
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default HOST:PORT from the environment)")
	return cmd
}
