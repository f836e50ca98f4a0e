package training

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/strokeguard/strokeguard/internal/ml/schema"
)

// Predictor is the inference surface evaluated here; *pipeline.Pipeline satisfies it.
type Predictor interface {
	Predict(row schema.Row) (int, error)
}

// ClassMetrics holds per-class precision, recall, F1 and support.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report summarises classifier quality on a labelled set.
type Report struct {
	Accuracy float64 `json:"accuracy"`
	// Confusion[actual][predicted]
	Confusion   [2][2]int       `json:"confusion"`
	Classes     [2]ClassMetrics `json:"classes"`
	MacroAvg    ClassMetrics    `json:"macro_avg"`
	WeightedAvg ClassMetrics    `json:"weighted_avg"`
}

// Evaluate predicts every row and compares against labels.
func Evaluate(p Predictor, rows []schema.Row, labels []int) (Report, error) {
	if len(rows) != len(labels) {
		return Report{}, fmt.Errorf("%d rows but %d labels", len(rows), len(labels))
	}
	if len(rows) == 0 {
		return Report{}, fmt.Errorf("%w: nothing to evaluate", ErrInvalidDataset)
	}

	var cm [2][2]int
	for i, row := range rows {
		pred, err := p.Predict(row)
		if err != nil {
			return Report{}, fmt.Errorf("predicting row %d: %w", i, err)
		}
		if labels[i] != 0 && labels[i] != 1 {
			return Report{}, fmt.Errorf("%w: label %d at row %d", ErrInvalidDataset, labels[i], i)
		}
		cm[labels[i]][pred]++
	}
	return ReportFromConfusion(cm), nil
}

// ReportFromConfusion derives all metrics from a confusion matrix. Undefined ratios
// (zero denominators) are reported as 0.
func ReportFromConfusion(cm [2][2]int) Report {
	r := Report{Confusion: cm}
	total := cm[0][0] + cm[0][1] + cm[1][0] + cm[1][1]
	if total > 0 {
		r.Accuracy = float64(cm[0][0]+cm[1][1]) / float64(total)
	}

	for c := 0; c < 2; c++ {
		tp := cm[c][c]
		predicted := cm[0][c] + cm[1][c]
		actual := cm[c][0] + cm[c][1]

		m := ClassMetrics{Support: actual}
		m.Precision = ratio(tp, predicted)
		m.Recall = ratio(tp, actual)
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		r.Classes[c] = m
	}

	for _, m := range r.Classes {
		r.MacroAvg.Precision += m.Precision / 2
		r.MacroAvg.Recall += m.Recall / 2
		r.MacroAvg.F1 += m.F1 / 2
		r.MacroAvg.Support += m.Support
		if total > 0 {
			w := float64(m.Support) / float64(total)
			r.WeightedAvg.Precision += m.Precision * w
			r.WeightedAvg.Recall += m.Recall * w
			r.WeightedAvg.F1 += m.F1 * w
		}
	}
	r.WeightedAvg.Support = total
	return r
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// String renders the report as a classification table followed by the confusion matrix.
func (r Report) String() string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintln(w, "\tprecision\trecall\tf1-score\tsupport\t")
	for c, m := range r.Classes {
		fmt.Fprintf(w, "%d\t%.2f\t%.2f\t%.2f\t%d\t\n", c, m.Precision, m.Recall, m.F1, m.Support)
	}
	fmt.Fprintln(w, "\t\t\t\t\t")
	fmt.Fprintf(w, "accuracy\t\t\t%.2f\t%d\t\n", r.Accuracy, r.WeightedAvg.Support)
	fmt.Fprintf(w, "macro avg\t%.2f\t%.2f\t%.2f\t%d\t\n", r.MacroAvg.Precision, r.MacroAvg.Recall, r.MacroAvg.F1, r.MacroAvg.Support)
	fmt.Fprintf(w, "weighted avg\t%.2f\t%.2f\t%.2f\t%d\t\n", r.WeightedAvg.Precision, r.WeightedAvg.Recall, r.WeightedAvg.F1, r.WeightedAvg.Support)
	_ = w.Flush()

	fmt.Fprintf(&b, "\nconfusion matrix (rows actual, columns predicted)\n")
	fmt.Fprintf(&b, "[[%d %d]\n [%d %d]]\n", r.Confusion[0][0], r.Confusion[0][1], r.Confusion[1][0], r.Confusion[1][1])
	return b.String()
}
