package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vmrc/terraclip/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the raster layer catalog",
	Long:  "Commands for seeding, listing, and adding raster layers.",
}

// -- catalog load --

var catalogLoadCmd = &cobra.Command{
	Use:   "load <seed.yaml>",
	Short: "Upsert layers from a YAML seed file",
	Args:  cobra.ExactArgs(1),
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

		layers, err := catalog.LoadSeed(args[0])
		if err != nil {
			return err
		}
		for _, l := range layers {
			if err := cat.Put(ctx, l); err != nil {
				return eris.Wrapf(err, "upsert layer %s", l.ID)
			}
		}

		zap.L().Info("catalog seeded",
			zap.String("file", args[0]),
			zap.Int("layers", len(layers)),
		)
		fmt.Printf("Loaded %d layers.\n", len(layers))
		return nil
	},
}

// -- catalog list --

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cataloged raster layers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		cat, err := initCatalog(ctx)
		if err != nil {
			return err
		}
		defer cat.Close()
		if err := cat.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate catalog")
		}

		layers, err := cat.List(ctx)
		if err != nil {
			return eris.Wrap(err, "catalog list")
		}

		if len(layers) == 0 {
			fmt.Fprintln(os.Stderr, "No layers found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPATH\tPROJ4")
		for _, l := range layers {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", l.ID, l.Name, l.Path, l.Proj4)
		}
		return w.Flush()
	},
}

// -- catalog add --

var (
	addLayerName  string
	addLayerProj4 string
	addLayerDesc  string
)

var catalogAddCmd = &cobra.Command{
	Use:   "add <id> <path>",
	Short: "Add or update a single raster layer",
	Args:  cobra.ExactArgs(2),
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

		l := catalog.Layer{
			ID:          args[0],
			Path:        args[1],
			Name:        addLayerName,
			Proj4:       addLayerProj4,
			Description: addLayerDesc,
		}
		if l.Name == "" {
			l.Name = l.ID
		}
		if err := cat.Put(ctx, l); err != nil {
			return eris.Wrapf(err, "upsert layer %s", l.ID)
		}

		fmt.Printf("Layer %s -> %s\n", l.ID, l.Path)
		return nil
	},
}

func init() {
	catalogAddCmd.Flags().StringVar(&addLayerName, "name", "", "display name (defaults to the id)")
	catalogAddCmd.Flags().StringVar(&addLayerProj4, "proj4", "", "proj4 override for rasters with missing or wrong CRS tags")
	catalogAddCmd.Flags().StringVar(&addLayerDesc, "description", "", "layer description")

	catalogCmd.AddCommand(catalogLoadCmd)
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogAddCmd)
	rootCmd.AddCommand(catalogCmd)
}
