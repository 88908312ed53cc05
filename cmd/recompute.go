package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	recomputeSupplier string
	recomputeAll      bool
)

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Recompute supplier risk scores",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if recomputeSupplier == "" && !recomputeAll {
			return eris.New("either --supplier or --all is required")
		}

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if recomputeSupplier != "" {
			res, err := env.Driver.RecomputeOne(ctx, recomputeSupplier)
			if err != nil {
				return eris.Wrap(err, "recompute supplier")
			}
			zap.L().Info("recompute complete",
				zap.String("supplier_id", recomputeSupplier),
				zap.Int("previous_score", res.Delta.PreviousScore),
				zap.Int("new_score", res.Delta.NewScore),
				zap.String("level", string(res.Delta.NewLevel)),
				zap.Int("alerts", len(res.Alerts)),
			)
			return nil
		}

		res, err := env.Driver.RecomputeAll(ctx)
		if err != nil {
			return eris.Wrap(err, "recompute all")
		}
		zap.L().Info("batch recompute complete",
			zap.Int("updated", res.Updated),
			zap.Int("alerts", res.AlertsCreated),
			zap.Int("overdue", res.Overdue),
			zap.Int("failures", len(res.Failures)),
		)
		for id, msg := range res.Failures {
			zap.L().Warn("supplier recompute failed",
				zap.String("supplier_id", id),
				zap.String("error", msg),
			)
		}
		return nil
	},
}

func init() {
	recomputeCmd.Flags().StringVar(&recomputeSupplier, "supplier", "", "recompute a single supplier by ID")
	recomputeCmd.Flags().BoolVar(&recomputeAll, "all", false, "recompute every supplier")
	rootCmd.AddCommand(recomputeCmd)
}
