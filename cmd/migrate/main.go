package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"rentcard_service/internal/config"
	"rentcard_service/internal/storage/postgres"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	var configPath string

	rootCmd := &cobra.Command{
		Use:          "migrate",
		Short:        "Apply or revert the rentcard database schema",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.Path("./config/config.yaml"), "path to the service config")

	rootCmd.AddCommand(
		upCmd(&configPath),
		downCmd(&configPath),
		statusCmd(&configPath),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func upCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), *configPath, func(ctx context.Context, m *postgres.Migrator) error {
				applied, err := m.Up(ctx)
				for _, mig := range applied {
					fmt.Printf("applied %03d_%s (%s)\n", mig.Version, mig.Name, mig.Duration)
				}
				if err != nil {
					return err
				}

				if len(applied) == 0 {
					fmt.Println("no pending migrations")
				}

				return nil
			})
		},
	}
}

func downCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Revert the last applied migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), *configPath, func(ctx context.Context, m *postgres.Migrator) error {
				mig, err := m.Down(ctx)
				if errors.Is(err, postgres.ErrNoMigrations) {
					fmt.Println("nothing to revert")
					return nil
				}
				if err != nil {
					return err
				}

				fmt.Printf("reverted %03d_%s\n", mig.Version, mig.Name)

				return nil
			})
		},
	}
}

func statusCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show status of all migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), *configPath, func(ctx context.Context, m *postgres.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return err
				}

				fmt.Printf("%-8s  %-40s  %-8s\n", "Version", "Name", "Status")
				for _, st := range statuses {
					status := "Pending"
					if st.Applied() {
						status = "Applied"
					}
					fmt.Printf("%-8d  %-40s  %-8s\n", st.Version, st.Name, status)
				}

				return nil
			})
		},
	}
}

func withMigrator(ctx context.Context, configPath string, fn func(ctx context.Context, m *postgres.Migrator) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := config.MustLoad(configPath)

	db, err := postgres.OpenDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := postgres.NewMigrator(db)
	if err != nil {
		return err
	}

	return fn(ctx, m)
}
