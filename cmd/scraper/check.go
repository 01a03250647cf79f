package main

import (
	"context"
	"fmt"
	"time"

	"go-notice-crawler/internal/database"
	"go-notice-crawler/internal/notice"

	"github.com/spf13/cobra"
)

func newCheckDBCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check-db",
		Short: "Connect to DATABASE_URL, apply migrations and print what is stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(root.configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			fmt.Println("Attempting to connect to database...")
			store, err := database.Open(ctx, cfg.DatabaseURL, logger)
			if err != nil {
				return fmt.Errorf("❌ failed to connect to the database (check your connection string and network): %w", err)
			}
			defer store.Close()

			page, err := store.List(ctx, database.Filter{}, 1, notice.ItemsPerPage)
			if err != nil {
				return err
			}
			schools, err := store.Schools(ctx)
			if err != nil {
				return err
			}

			fmt.Println("✅ Successfully connected!")
			fmt.Printf("📦 Stored notices: %d\n", page.Total)
			fmt.Printf("🏫 Schools: %v\n", schools)
			if len(page.Items) > 0 {
				latest := page.Items[0]
				fmt.Printf("🆕 Latest: [%s] %s (%s)\n", latest.SourceSchool, latest.Title, latest.DatePosted)
			}
			return nil
		},
	}
}
