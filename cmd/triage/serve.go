package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abatilo/triage/internal/api"
)

const shutdownTimeout = 10 * time.Second

// serveCmd implements 'triage serve'.
func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the backlog as a JSON HTTP API",
		Run: func(cmd *cobra.Command, _ []string) {
			a := getApp(cmd)
			if addr == "" {
				addr = a.env.Addr
			}

			srv := api.NewServer(a.svc, a.metrics, a.registry, api.Options{
				Secret:      []byte(a.env.APISecret),
				CORSOrigins: a.env.CORSOrigins,
				Logger:      a.logger,
			})
			if a.env.APISecret == "" {
				a.logger.Warn("TRIAGE_API_SECRET is empty; /api is unauthenticated")
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer cancel()

			go func() {
				if err := srv.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					a.logger.Error("server error", "error", err)
					cancel()
				}
			}()

			<-ctx.Done()
			a.logger.Info("shutting down server")

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("shutdown error", "error", err)
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default $TRIAGE_HTTP_ADDR)")
	return cmd
}

// tokenCmd implements 'triage token'.
func tokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Mint a bearer token for the HTTP API",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a := getApp(cmd)
			if a.env.APISecret == "" {
				printError(MissingSecretError{})
			}

			token, err := api.GenerateToken([]byte(a.env.APISecret), args[0], ttl)
			if err != nil {
				printError(err)
			}
			printOutput(token + "\n")
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
