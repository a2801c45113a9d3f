package main

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/vmrc/terraclip/internal/clip"
	"github.com/vmrc/terraclip/internal/model"
)

var sampleCmd = &cobra.Command{
	Use:   "sample <raster-id> <lon> <lat>",
	Short: "Read the raster value under a geographic point",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		lon, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return eris.Wrapf(model.ErrInvalidGeometry, "parse lon %q: %v", args[1], err)
		}
		lat, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return eris.Wrapf(model.ErrInvalidGeometry, "parse lat %q: %v", args[2], err)
		}

		cat, err := initCatalog(ctx)
		if err != nil {
			return err
		}
		defer cat.Close()
		if err := cat.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate catalog")
		}

		p := &clip.Pipeline{Catalog: cat}
		result, err := p.Sample(ctx, args[0], lon, lat)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	rootCmd.AddCommand(sampleCmd)
}
