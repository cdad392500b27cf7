package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var configFile string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "trocas: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trocas",
		Short: "Exchange and breakage reporting service",
		Long: `trocas records product exchanges and breakages with photo evidence,
routes submitted entries to managers for approval and exports the photos
of an entry as a zip archive.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "env file with settings (environment variables still win)")
	cmd.AddCommand(
		newServeCmd(),
		newInitCmd(),
		newExportCmd(),
		newCatalogCmd(),
	)
	return cmd
}
