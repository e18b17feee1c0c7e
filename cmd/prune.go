package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var pruneMaxAgeDays int

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete cache entries older than the staleness window",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, err := initCache(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		maxAge := pruneMaxAgeDays
		if maxAge == 0 {
			maxAge = cfg.Cache.MaxAgeDays
		}

		deleted, err := store.Prune(ctx, maxAge)
		if err != nil {
			return eris.Wrap(err, "prune cache")
		}

		zap.L().Info("cache pruned",
			zap.Int("max_age_days", maxAge),
			zap.Int("deleted", deleted))
		fmt.Printf("deleted %d entries older than %d days\n", deleted, maxAge)

		return nil
	},
}

func init() {
	pruneCmd.Flags().IntVar(&pruneMaxAgeDays, "max-age-days", 0, "staleness window in days (default from config)")
	rootCmd.AddCommand(pruneCmd)
}
