package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strokeguard/strokeguard/internal/ml/artifact"
	"github.com/strokeguard/strokeguard/internal/ml/schema"
	"github.com/strokeguard/strokeguard/internal/ml/training"
)

func newEvaluateCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score an existing artifact against a labelled dataset",
		Long: `Evaluate loads an artifact and a labelled CSV and prints the classification
report. Nothing is written unless --confusion-plot is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cmd, *configPath)
			if err != nil {
				return err
			}
			if cfg.Dataset == "" {
				return fmt.Errorf("a dataset is required")
			}

			a, err := artifact.Load(cfg.Artifact, schema.Stroke())
			if err != nil {
				return err
			}
			ds, err := training.LoadDataset(cfg.Dataset)
			if err != nil {
				return err
			}
			logger.Info("evaluating", "model_id", a.ID, "rows", len(ds.Records))

			report, err := training.EvaluatePipeline(a.Pipeline, ds.Rows(), ds.Labels)
			if err != nil {
				return err
			}
			if cfg.ConfusionPlot != "" {
				if err := training.PlotConfusion(report.Confusion, cfg.ConfusionPlot); err != nil {
					logger.Warn("confusion matrix plot failed", "error", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.String())
			return nil
		},
	}
	cmd.Flags().String("dataset", "", "labelled CSV dataset")
	cmd.Flags().String("artifact", "", "artifact to evaluate")
	cmd.Flags().String("confusion-plot", "", "write a confusion matrix image")
	return cmd
}
