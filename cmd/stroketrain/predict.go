package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/strokeguard/strokeguard/internal/domain/model"
	"github.com/strokeguard/strokeguard/internal/domain/valueobject"
	"github.com/strokeguard/strokeguard/internal/ml/artifact"
	"github.com/strokeguard/strokeguard/internal/ml/schema"
)

func newPredictCmd(configPath *string) *cobra.Command {
	var (
		record model.PatientRecord
		bmi    string
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict stroke risk for one patient",
		Long: `Predict loads an artifact and scores a single patient described by flags.
The defaults describe a 67 year old male with hypertension.

Examples:
  stroketrain predict
  stroketrain predict --age 45 --hypertension 0 --bmi 24.1 --smoking-status "never smoked"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := setup(cmd, *configPath)
			if err != nil {
				return err
			}

			if bmi != "" {
				v, err := strconv.ParseFloat(bmi, 64)
				if err != nil {
					return fmt.Errorf("--bmi: %w", err)
				}
				record.BMI = &v
			}
			if err := record.Validate(); err != nil {
				return err
			}

			a, err := artifact.Load(cfg.Artifact, schema.Stroke())
			if err != nil {
				return err
			}
			pred, err := a.Pipeline.Evaluate(record.Row())
			if err != nil {
				return fmt.Errorf("predicting: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "prediction (1=stroke, 0=no): %d\n", pred.Label)
			fmt.Fprintf(out, "probability: %.5f\n", pred.Probability)
			fmt.Fprintln(out, valueobject.RiskLevelFromLabel(pred.Label).Advice())
			return nil
		},
	}

	f := cmd.Flags()
	f.String("artifact", "", "artifact to load")
	f.StringVar(&record.Gender, "gender", "Male", "Male, Female or Other")
	f.Float64Var(&record.Age, "age", 67, "age in years")
	f.IntVar(&record.Hypertension, "hypertension", 1, "0 or 1")
	f.IntVar(&record.HeartDisease, "heart-disease", 0, "0 or 1")
	f.StringVar(&record.EverMarried, "ever-married", "Yes", "Yes or No")
	f.StringVar(&record.WorkType, "work-type", "Private", "Private, Self-employed, Govt_job, children or Never_worked")
	f.StringVar(&record.ResidenceType, "residence-type", "Urban", "Urban or Rural")
	f.Float64Var(&record.AvgGlucoseLevel, "avg-glucose-level", 160.0, "average glucose level")
	f.StringVar(&bmi, "bmi", "31.2", "body mass index; required for prediction")
	f.StringVar(&record.SmokingStatus, "smoking-status", "formerly smoked", "never smoked, formerly smoked, smokes or Unknown")
	return cmd
}
