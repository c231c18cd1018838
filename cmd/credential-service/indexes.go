package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/storefront/credential-service/internal/app"
)

// NewEnsureIndexesCmd creates the ensure-indexes subcommand.
func NewEnsureIndexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ensure-indexes",
		Short: "Create the MongoDB indexes and exit",
		Long:  `Create the unique email index and the reset token index on the accounts collection.`,
		RunE:  runEnsureIndexes,
	}
}

func runEnsureIndexes(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, log, err := bootstrap(ctx)
	if err != nil {
		return err
	}

	cmd.Println("Connecting to database...")
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer a.Close(ctx)

	cmd.Println("Creating indexes...")
	if err := a.EnsureIndexes(ctx); err != nil {
		return oops.Code("INDEX_CREATE_FAILED").With("operation", "ensure indexes").Wrap(err)
	}

	cmd.Println("Indexes are up to date")
	return nil
}
