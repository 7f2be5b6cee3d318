package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/OFFIS-RIT/tripalbum/backend/internal/bootstrap"
	"github.com/OFFIS-RIT/tripalbum/backend/internal/timing"
	"github.com/OFFIS-RIT/tripalbum/backend/internal/util"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/album"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/store"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/store/sqlite"

	"github.com/spf13/cobra"
)

type generateOptions struct {
	Input    string
	Key      string
	Strategy string
	TimeZone string
	Offline  bool
	JSON     bool
}

func newGenerateCmd() *cobra.Command {
	var opts generateOptions
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate albums from a JSON photo export and store them in the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), cacheFlag, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Photo export (array of photo records or {\"photos\": [...]})")
	cmd.Flags().StringVarP(&opts.Key, "key", "k", "", "Album key (generated when empty)")
	cmd.Flags().StringVarP(&opts.Strategy, "strategy", "s", "", "Moment clustering strategy: sequential or density")
	cmd.Flags().StringVar(&opts.TimeZone, "tz", "", "IANA time zone used for day grouping")
	cmd.Flags().BoolVar(&opts.Offline, "offline", false, "Skip place search and embedding backends")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Print the albums as JSON instead of a summary")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// readPhotos accepts both a bare array and an object with a photos field.
func readPhotos(path string) ([]common.PhotoRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var photos []common.PhotoRecord
	if err := util.UnmarshalFlexible(raw, &photos); err != nil {
		var wrapped struct {
			Photos []common.PhotoRecord `json:"photos"`
		}
		if err2 := util.UnmarshalFlexible(raw, &wrapped); err2 != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		photos = wrapped.Photos
	}
	if len(photos) == 0 {
		return nil, fmt.Errorf("%s: %w", path, store.ErrEmptyLibrary)
	}
	for _, p := range photos {
		if err := store.ValidatePhoto(p); err != nil {
			return nil, err
		}
	}
	return photos, nil
}

func newCLIAssembler(opts generateOptions) (*album.Assembler, error) {
	cfg, err := album.LoadConfig()
	if err != nil {
		return nil, err
	}
	if opts.Strategy != "" {
		cfg.Strategy = opts.Strategy
	}
	if opts.TimeZone != "" {
		cfg.TimeZone = opts.TimeZone
		cfg.Location = nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if opts.Offline {
		return album.NewAssembler(nil, nil, cfg), nil
	}
	embedder, err := bootstrap.NewEmbeddingClient()
	if err != nil {
		return nil, err
	}
	return album.NewAssembler(embedder, bootstrap.NewPlaceFinder(), cfg), nil
}

func runGenerate(ctx context.Context, cachePath string, opts generateOptions, out io.Writer) error {
	photos, err := readPhotos(opts.Input)
	if err != nil {
		return err
	}
	assembler, err := newCLIAssembler(opts)
	if err != nil {
		return err
	}

	cache, err := sqlite.Open(ctx, cachePath)
	if err != nil {
		return err
	}
	defer cache.Close()

	watch := timing.Start()
	albums, err := assembler.Assemble(ctx, photos)
	if err != nil {
		return err
	}

	key := opts.Key
	if key == "" {
		key = util.NewAlbumKey()
	}
	if _, err := album.DeleteAll(ctx, cache, key); err != nil && !errors.Is(err, album.ErrNotFound) {
		return err
	}
	if err := album.SaveAll(ctx, cache, key, albums); err != nil {
		return err
	}

	if opts.JSON {
		return writeJSON(out, albums)
	}
	fmt.Fprintf(out, "album key: %s (%d photos in %s)\n", key, len(photos), watch)
	printSummary(out, albums)
	return nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSummary(out io.Writer, albums []common.Album) {
	for _, a := range albums {
		fmt.Fprintf(out, "%s (%d days)\n", a.Title, len(a.Days))
		for _, d := range a.Days {
			fmt.Fprintf(out, "  %s  %s\n", d.Date, d.Summary)
			for _, m := range d.Moments {
				fmt.Fprintf(out, "    %s  %-32s %2d highlights %2d optional  [%s]\n",
					m.Time, m.Name, len(m.Highlights), len(m.OptionalAssetIDs), m.Status)
			}
		}
	}
}
