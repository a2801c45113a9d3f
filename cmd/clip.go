package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vmrc/terraclip/internal/aoi"
	"github.com/vmrc/terraclip/internal/assets"
	"github.com/vmrc/terraclip/internal/clip"
	"github.com/vmrc/terraclip/internal/model"
)

var (
	clipRasterID string
	clipAOIPath  string
)

var clipCmd = &cobra.Command{
	Use:   "clip",
	Short: "Clip a cataloged raster to an AOI polygon",
	Long:  "Resolves the raster, clips it to the GeoJSON polygon, writes the colorized overlay PNG, and prints statistics, histogram, and overlay placement as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cat, err := initCatalog(ctx)
		if err != nil {
			return err
		}
		defer cat.Close()

		if err := cat.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate catalog")
		}

		var baseline *aoi.Baseline
		if cfg.AOI.BaselinePath != "" {
			baseline, err = aoi.Load(cfg.AOI.BaselinePath)
			if err != nil {
				return eris.Wrap(err, "load study area boundary")
			}
		}

		geojson, err := os.ReadFile(clipAOIPath)
		if err != nil {
			return eris.Wrapf(model.ErrInvalidGeometry, "read AOI file %s: %v", clipAOIPath, err)
		}

		p := &clip.Pipeline{
			Catalog:  cat,
			Assets:   assets.NewStore(cfg.Overlay.Dir),
			Baseline: baseline,
		}

		result, err := p.Run(ctx, clip.Request{RasterID: clipRasterID, AOI: geojson})
		if err != nil {
			fmt.Fprintf(os.Stderr, "clip failed (%s)\n", model.ErrorKind(err))
			return err
		}

		zap.L().Info("clip complete",
			zap.String("raster_id", clipRasterID),
			zap.String("overlay", result.OverlayRef),
			zap.Int("pixel_count", result.Stats.Count),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	clipCmd.Flags().StringVar(&clipRasterID, "raster", "", "catalog id of the raster layer (required)")
	clipCmd.Flags().StringVar(&clipAOIPath, "aoi", "", "path to the AOI GeoJSON file (required)")
	_ = clipCmd.MarkFlagRequired("raster")
	_ = clipCmd.MarkFlagRequired("aoi")
	rootCmd.AddCommand(clipCmd)
}
