package main

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/storefront/credential-service/internal/infrastructure/config"
	"github.com/storefront/credential-service/pkg/logger"
)

const serviceName = "credential-service"

// NewRootCmd creates the root command. Without a subcommand it serves HTTP.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   serviceName,
		Short: "Account registration, login sessions and password recovery",
		Long: `credential-service manages account credentials: registration, login
sessions, password changes and emailed password resets.

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewEnsureIndexesCmd())

	return cmd
}

// bootstrap loads configuration and initialises the process logger.
func bootstrap(ctx context.Context) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		File:    cfg.LogFile,
		Service: serviceName,
	})
	return cfg, log, nil
}
