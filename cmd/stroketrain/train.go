package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strokeguard/strokeguard/internal/ml/training"
)

func newTrainCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit a pipeline on a dataset and publish the artifact",
		Long: `Load the dataset, split it stratified by label, fit the encoder and the random
forest on the training part, report metrics on the held-out part and atomically
write the artifact.

Examples:
  stroketrain train --dataset healthcare-dataset-stroke-data.csv
  stroketrain train --dataset data.csv --trees 300 --confusion-plot cm.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cmd, *configPath)
			if err != nil {
				return err
			}

			result, err := training.NewDriver(cfg.trainingConfig(), logger).Run(cmd.Context())
			if err != nil {
				var stageErr *training.StageError
				if errors.As(err, &stageErr) {
					logger.Error("training failed", "stage", stageErr.Stage, "error", stageErr.Err)
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, result.Report.String())
			fmt.Fprintf(out, "artifact: %s\nmodel id: %s\n", result.ArtifactPath, result.ArtifactID)
			return nil
		},
	}

	f := cmd.Flags()
	f.String("dataset", "", "labelled CSV dataset")
	f.String("artifact", "", "artifact output path")
	f.Float64("test-ratio", 0, "held-out fraction in (0, 1)")
	f.Int64("seed", 0, "seed for the split and the forest")
	f.Int("trees", 0, "number of trees")
	f.Int("max-depth", 0, "maximum tree depth, 0 for unlimited")
	f.Int("max-features", 0, "candidate features per split, 0 for sqrt(width)")
	f.Int("min-samples-split", 0, "minimum samples to split a node")
	f.Int("min-samples-leaf", 0, "minimum samples per leaf")
	f.Int("workers", 0, "parallel tree builders, 0 for GOMAXPROCS")
	f.String("confusion-plot", "", "write a confusion matrix image (png, svg, pdf)")
	return cmd
}
