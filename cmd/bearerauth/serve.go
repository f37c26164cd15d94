package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lpforge/bearerauth/internal/config"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a protected API: GET /me requires a bearer token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if listenAddr != "" {
				cfg.ListenAddr = listenAddr
			}

			log := newLogger(cfg.LogLevel)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s, err := newStack(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer s.Close()

			// Warm the cache so the first request does not pay for the fetch.
			if err := s.cache.RefreshIfNeeded(ctx); err != nil {
				log.WithError(err).Warn("initial JWKS fetch failed, will retry on demand")
			}

			handler, err := newRouter(routerDeps{
				validator: s.validator,
				keys:      s.cache,
				gatherer:  s.registry,
				metrics:   s.metrics,
				logger:    s.logger,
			})
			if err != nil {
				return err
			}

			server := &http.Server{
				Addr:              cfg.ListenAddr,
				Handler:           handler,
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.WithField("addr", cfg.ListenAddr).Info("listening")
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", "", "listen address (env LISTEN_ADDR)")
	return cmd
}
