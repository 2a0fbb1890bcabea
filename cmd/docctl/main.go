// Command docctl inspects extraction versions and runs duplicate checks
// against the same store the API uses.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dealdocs-backend/internal/bootstrap"
	"dealdocs-backend/internal/shared/config"
	"dealdocs-backend/internal/shared/storage/db"
)

var version = "dev"

var (
	configFile string
	app        *bootstrap.App
)

var rootCmd = &cobra.Command{
	Use:           "docctl",
	Short:         "Document extraction and duplicate-check tooling",
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       version,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if app == nil {
			return nil
		}
		err := app.Close()
		app = nil
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (same keys as the environment)")
}

// loadApp builds the shared dependencies once per invocation.
func loadApp(ctx context.Context) (*bootstrap.App, error) {
	if app != nil {
		return app, nil
	}
	if configFile != "" {
		if err := os.Setenv("CONFIG_FILE", configFile); err != nil {
			return nil, err
		}
	}
	cfg := config.Load()
	built, err := bootstrap.BuildWith(ctx, cfg, bootstrap.Options{
		DBOptions:     db.OptionsFromEnv(db.DefaultCLIOptions()),
		SkipMigration: true,
	})
	if err != nil {
		return nil, err
	}
	app = built
	return app, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
