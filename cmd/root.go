package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/glamapp/product-recs/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "product-recs",
	Short: "Beauty product recommendation service",
	Long:  "Retrieves catalog products for a query, enriches them with live commerce data (price, rating, image, buy link) from multiple sources with caching, and serves ranked results.",
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
		os.Exit(1)
	}
}
