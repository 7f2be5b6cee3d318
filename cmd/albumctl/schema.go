package main

import (
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/album"

	"github.com/spf13/cobra"
)

func newSchemaCmd() *cobra.Command {
	var photos bool
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the album record or the photo export",
		RunE: func(cmd *cobra.Command, args []string) error {
			if photos {
				return writeJSON(cmd.OutOrStdout(), album.PhotoSchema())
			}
			return writeJSON(cmd.OutOrStdout(), album.Schema())
		},
	}
	cmd.Flags().BoolVar(&photos, "photos", false, "Print the photo export schema instead")
	return cmd
}
