package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/strokeguard/strokeguard/internal/ml/artifact"
	"github.com/strokeguard/strokeguard/internal/ml/schema"
)

func newInspectCmd(configPath *string) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print artifact provenance and top feature importances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := setup(cmd, *configPath)
			if err != nil {
				return err
			}
			a, err := artifact.Load(cfg.Artifact, schema.Stroke())
			if err != nil {
				return err
			}

			m := a.Metadata
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "model id\t%s\n", a.ID)
			fmt.Fprintf(w, "format\t%s\n", artifact.Format)
			fmt.Fprintf(w, "trained at\t%s\n", m.TrainedAt.Format("2006-01-02 15:04:05 MST"))
			fmt.Fprintf(w, "dataset\t%s\n", m.DatasetPath)
			fmt.Fprintf(w, "dataset sha256\t%s\n", m.DatasetSHA256)
			fmt.Fprintf(w, "train / test\t%d / %d\n", m.TrainSize, m.TestSize)
			fmt.Fprintf(w, "class counts\t%d / %d\n", m.ClassCounts[0], m.ClassCounts[1])
			fmt.Fprintf(w, "accuracy\t%.4f\n", m.Accuracy)
			fmt.Fprintf(w, "trees\t%d\n", len(a.Forest.Trees))
			fmt.Fprintf(w, "width\t%d\n", a.Pipeline.Width())
			fmt.Fprintf(w, "seed\t%d\n", m.Forest.Seed)

			if imps := topImportances(m.FeatureNames, m.FeatureImportances, top); len(imps) > 0 {
				fmt.Fprintln(w)
				fmt.Fprintln(w, "feature\timportance")
				for _, fi := range imps {
					fmt.Fprintf(w, "%s\t%.4f\n", fi.name, fi.value)
				}
			}
			return w.Flush()
		},
	}
	cmd.Flags().String("artifact", "", "artifact to inspect")
	cmd.Flags().IntVar(&top, "top", 10, "number of feature importances to show, 0 for all")
	return cmd
}

type importance struct {
	name  string
	value float64
}

// topImportances pairs names with importances and keeps the n largest. Ties keep
// feature order.
func topImportances(names []string, values []float64, n int) []importance {
	if len(names) != len(values) {
		return nil
	}
	out := make([]importance, len(names))
	for i := range names {
		out[i] = importance{name: names[i], value: values[i]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].value > out[j].value })
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}
