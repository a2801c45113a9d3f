package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vmrc/terraclip/internal/raster"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <path>",
	Short: "Print GeoTIFF metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := raster.Open(args[0])
		if err != nil {
			return err
		}
		defer h.Close()

		tr := h.Transform()
		minX, minY, maxX, maxY := h.Bounds()

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "path\t%s\n", h.Path())
		fmt.Fprintf(w, "size\t%d x %d\n", h.Width(), h.Height())
		fmt.Fprintf(w, "bands\t%d\n", h.Bands())
		fmt.Fprintf(w, "dtype\t%s\n", h.DType())
		if h.EPSG() != 0 {
			fmt.Fprintf(w, "crs\tEPSG:%d\n", h.EPSG())
			if p, ok := raster.Proj4FromEPSG(h.EPSG()); ok {
				fmt.Fprintf(w, "proj4\t%s\n", p)
			}
		} else {
			fmt.Fprintf(w, "crs\tunknown\n")
		}
		fmt.Fprintf(w, "transform\t[%g %g %g | %g %g %g]\n", tr.A, tr.B, tr.C, tr.D, tr.E, tr.F)
		if nd := h.Nodata(); nd != nil {
			fmt.Fprintf(w, "nodata\t%g\n", *nd)
		} else {
			fmt.Fprintf(w, "nodata\tnone\n")
		}
		fmt.Fprintf(w, "bounds\t%g %g %g %g\n", minX, minY, maxX, maxY)
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
