package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/storefront/credential-service/internal/app"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Connect to MongoDB (and Redis when configured), ensure the account
indexes exist and serve the HTTP API until SIGINT or SIGTERM.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, err := bootstrap(ctx)
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialise service")
		return err
	}

	if err := a.EnsureIndexes(ctx); err != nil {
		log.Error().Err(err).Msg("failed to ensure indexes")
		a.Close(context.WithoutCancel(ctx))
		return err
	}

	return a.Run(ctx)
}
