package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vmrc/terraclip/internal/config"
	"github.com/vmrc/terraclip/internal/model"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "terraclip",
	Short: "Raster clipping and statistics for user-drawn areas of interest",
	Long:  "Clips cataloged GeoTIFF layers to a GeoJSON polygon, renders a colorized overlay, and reports per-area statistics and a value histogram.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if model.IsUserError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
