package main

import (
	"fmt"
	"os"

	"github.com/OFFIS-RIT/tripalbum/backend/internal/bootstrap"
	"github.com/OFFIS-RIT/tripalbum/backend/internal/util"

	"github.com/spf13/cobra"
)

var cacheFlag string

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "albumctl",
		Short:         "Build and inspect trip albums from a photo export",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&cacheFlag, "cache", "c", "albums.db", "SQLite album cache file")

	rootCmd.AddCommand(newGenerateCmd(), newShowCmd(), newSchemaCmd())
	return rootCmd
}

func main() {
	util.LoadEnv()
	bootstrap.InitLogger("albumctl")

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
