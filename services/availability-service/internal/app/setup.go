package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/b1rigu/ZoomScheduleLister/services/availability-service/internal/db"
	"github.com/b1rigu/ZoomScheduleLister/services/availability-service/internal/store"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create database tables",
	Long:  "Creates the zoom_integrations table used by the credential store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		pool, err := db.Connect(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer pool.Close()

		fmt.Println("Running migrations...")
		if err := store.NewPostgresStore(pool).Migrate(ctx); err != nil {
			return err
		}

		fmt.Println("✓ Database setup complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
