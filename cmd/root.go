package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/contrib-search/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "contrib-search",
	Short: "Campaign contribution search and donor percentile ranking",
	Long:  "Searches FEC and CalAccess contributions with cascading filter relaxation, ranks donors against yearly giving percentiles, and maintains the derived lookup tables.",
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
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringP("source", "s", config.SourceFEC, "contribution source: fec, calaccess (or all, where supported)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
