package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aniicone/cafe-api/config"
	"github.com/aniicone/cafe-api/database/seeders"
	"github.com/aniicone/cafe-api/pkg/database"
	"github.com/aniicone/cafe-api/pkg/migration"
)

// bootDB loads config and opens the database connection. The returned
// func disconnects.
func bootDB(ctx context.Context) (func(), error) {
	if err := config.Load(); err != nil {
		return nil, err
	}
	if err := database.Connect(ctx); err != nil {
		return nil, err
	}
	return func() { _ = database.Disconnect(context.Background()) }, nil
}

var rollback bool

// cafe migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create indexes and seed the order counter",
	RunE: func(cmd *cobra.Command, args []string) error {
		done, err := bootDB(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		r := migration.New(database.DB)
		r.SetOutput(cmd.OutOrStdout())
		if rollback {
			fmt.Fprintln(cmd.OutOrStdout(), "Rolling back last batch…")
			_, err = r.Rollback(cmd.Context())
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Running migrations…")
		_, err = r.Run(cmd.Context())
		return err
	},
}

// cafe seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the sample menu into an empty database",
	RunE: func(cmd *cobra.Command, args []string) error {
		done, err := bootDB(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		fmt.Fprintln(cmd.OutOrStdout(), "Running seeders…")
		return seeders.RunAll(cmd.Context(), database.DB, cmd.OutOrStdout())
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&rollback, "rollback", false, "roll back the last batch instead")
}
