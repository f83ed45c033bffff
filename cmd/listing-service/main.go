package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"listing-service/internal"
	"listing-service/internal/configs"

	"github.com/spf13/cobra"
)

func main() {
	var envFile string

	loadConfig := func() (*configs.AppConfig, error) {
		if envFile != "" {
			return configs.LoadConfig(envFile)
		}
		return configs.LoadConfig()
	}

	rootCmd := &cobra.Command{
		Use:           "listing-service",
		Short:         "Rental property listings: search, details and transactional mutations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "path to .env file (optional)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("error loading application configuration: %w", err)
			}
			application, err := internal.NewApp(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return application.Run()
		},
	}

	var migrateTimeout time.Duration
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Applies embedded SQL migrations to PostgreSQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("error loading application configuration: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), migrateTimeout)
			defer cancel()

			applied, err := internal.RunMigrations(ctx, cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s)\n", applied)
			return nil
		},
	}
	migrateCmd.Flags().DurationVar(&migrateTimeout, "timeout", time.Minute, "migration timeout")

	rootCmd.AddCommand(serveCmd, migrateCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
