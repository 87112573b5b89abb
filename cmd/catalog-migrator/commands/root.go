package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"catalog-migrator/internal/components/telemetry"

	"github.com/spf13/cobra"
)

// errPartialFailure is returned in --strict mode when a run finished but
// some items could not be migrated.
var errPartialFailure = errors.New("some items could not be migrated")

var (
	configPath string
	verbose    bool
	strict     bool
)

var rootCmd = &cobra.Command{
	Use:   "catalog-migrator",
	Short: "catalog-migrator copies the product catalog, product images and gallery of the old shop onto the new storefront.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			telemetry.InitSlog(true)
		}
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "catalog-migrator.json5", "Path to the run configuration.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every request made.")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "Exit with status 2 when any item failed to migrate.")
}

// ExecuteContext runs the cli and returns the process exit code.
func ExecuteContext(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	fmt.Fprintln(os.Stderr, err)
	if errors.Is(err, errPartialFailure) {
		return 2
	}
	return 1
}
