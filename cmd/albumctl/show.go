package main

import (
	"context"
	"fmt"
	"io"

	"github.com/OFFIS-RIT/tripalbum/backend/pkg/album"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/store/sqlite"

	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show [ALBUM_KEY]",
		Short: "Print cached albums, or list the cached keys when no key is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			}
			return runShow(cmd.Context(), cacheFlag, key, asJSON, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the albums as JSON")
	return cmd
}

func runShow(ctx context.Context, cachePath, key string, asJSON bool, out io.Writer) error {
	cache, err := sqlite.Open(ctx, cachePath)
	if err != nil {
		return err
	}
	defer cache.Close()

	if key == "" {
		keys, err := cache.Keys(ctx)
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Fprintln(out, k)
		}
		return nil
	}

	albums, err := album.LoadAll(ctx, cache, key)
	if err != nil {
		return fmt.Errorf("album %q: %w", key, err)
	}
	if asJSON {
		return writeJSON(out, albums)
	}
	printSummary(out, albums)
	return nil
}
