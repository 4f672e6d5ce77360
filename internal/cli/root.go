// Package cli wires configuration, storage and services into the bookmarks commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd *cobra.Command

func init() {
	rootCmd = &cobra.Command{
		Use:   "bookmarks",
		Short: "Multi-site social bookmarking service",
		Long: `bookmarks lets users save URLs with their own descriptions, notes and tags,
and browse the bookmarks of the site they are on.

Configuration is read from config.yaml (in . or ./config), .env and the environment.`,
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// Execute runs the root command. Interrupts cancel the command's context.
func Execute(version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(sessionCmd)

	rootCmd.Version = version
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
