package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"mercator-hq/waybill/pkg/cli"
	"mercator-hq/waybill/pkg/draft"
	"mercator-hq/waybill/pkg/draft/retention"
)

var pruneFlags struct {
	maxAge time.Duration
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete drafts older than the retention period",
	Long: `Delete drafts whose last save is older than drafts.retention.max_age.
Drafts with an unreadable timestamp are deleted too.

Examples:
  waybill prune
  waybill prune --max-age 168h`,
	RunE: pruneDrafts,
}

func init() {
	rootCmd.AddCommand(pruneCmd)
	pruneCmd.Flags().DurationVar(&pruneFlags.maxAge, "max-age", 0, "override drafts.retention.max_age (e.g. 168h)")
}

func pruneDrafts(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, e *env, store *draft.Store) error {
		cfg := e.cfg.Drafts.Retention
		if pruneFlags.maxAge > 0 {
			cfg.MaxAge = pruneFlags.maxAge
		}

		n, err := retention.NewPruner(store, cfg, e.logger).Prune(ctx)
		if err != nil {
			return cli.NewCommandError("prune", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Pruned %d draft(s)\n", n)
		return nil
	})
}
