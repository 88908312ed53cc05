package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	assessTask      string
	assessResponses string
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Record questionnaire responses and run the verification cascade",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		var responses map[string]string
		if assessResponses != "" {
			data, err := os.ReadFile(assessResponses)
			if err != nil {
				return eris.Wrap(err, "read responses file")
			}
			if err := json.Unmarshal(data, &responses); err != nil {
				return eris.Wrap(err, "parse responses file")
			}
		}

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Driver.OnAssessmentCompleted(ctx, assessTask, responses)
		if err != nil {
			return eris.Wrap(err, "process assessment")
		}

		zap.L().Info("assessment processed",
			zap.String("task_id", assessTask),
			zap.Int("cascade_tasks", len(res.Cascade.Tasks)),
			zap.Int("cascade_alerts", len(res.Cascade.Alerts)),
			zap.Int("checks_dispatched", len(res.Cascade.Checks)),
			zap.Int("new_score", res.Recompute.Delta.NewScore),
			zap.String("level", string(res.Recompute.Delta.NewLevel)),
		)
		return nil
	},
}

func init() {
	assessCmd.Flags().StringVar(&assessTask, "task", "", "assessment task ID (required)")
	assessCmd.Flags().StringVar(&assessResponses, "responses", "", "path to a JSON file of question/answer pairs")
	_ = assessCmd.MarkFlagRequired("task")
	rootCmd.AddCommand(assessCmd)
}
