package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/scholarstream/internal/server"
	"github.com/dmitrijs2005/scholarstream/internal/server/config"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "scholarstream",
		Short:   "ScholarStream scholarship and payment API server",
		Version: Version,
		// Configuration flags are parsed by internal/server/config.
		DisableFlagParsing: true,
		Args:               cobra.ArbitraryArgs,
		RunE:               runServe,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "serve",
		Short:              "Apply migrations and serve the HTTP API (default)",
		DisableFlagParsing: true,
		RunE:               runServe,
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "migrate",
		Short:              "Apply pending database migrations and exit",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Migrate(cmd.Context())
		},
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	return app.Run(cmd.Context())
}

func newApp(ctx context.Context) (*server.App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return server.NewApp(ctx, config.LoadConfig())
}
