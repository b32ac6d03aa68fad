package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rajatverma/kirana/database"
	db "github.com/rajatverma/kirana/pkg/database"
)

// bootDB opens the MongoDB connection for the db:* commands.
func bootDB(ctx context.Context) error {
	return db.Connect(ctx)
}

// kirana db:index
var dbIndexCmd = &cobra.Command{
	Use:   "db:index",
	Short: "Ensure all MongoDB indexes exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		if err := bootDB(ctx); err != nil {
			return err
		}
		defer db.Disconnect(context.Background())

		fmt.Println("Ensuring indexes…")
		return database.RunMigrations(ctx)
	},
}

// kirana db:seed
var dbSeedCmd = &cobra.Command{
	Use:   "db:seed",
	Short: "Insert the admin account and sample catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		if err := bootDB(ctx); err != nil {
			return err
		}
		defer db.Disconnect(context.Background())

		fmt.Println("Seeding…")
		return database.Seed(ctx)
	},
}
