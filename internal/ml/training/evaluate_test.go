package training_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strokeguard/strokeguard/internal/ml/schema"
	"github.com/strokeguard/strokeguard/internal/ml/training"
)

type scriptedPredictor struct {
	labels []int
	next   int
	err    error
}

func (p *scriptedPredictor) Predict(schema.Row) (int, error) {
	if p.err != nil {
		return 0, p.err
	}
	l := p.labels[p.next]
	p.next++
	return l, nil
}

func TestEvaluate_Metrics(t *testing.T) {
	actual := []int{0, 0, 0, 0, 0, 0, 1, 1, 1, 1}
	predicted := []int{0, 0, 0, 0, 0, 1, 1, 1, 1, 0}
	rows := make([]schema.Row, len(actual))

	r, err := training.Evaluate(&scriptedPredictor{labels: predicted}, rows, actual)
	require.NoError(t, err)

	assert.Equal(t, [2][2]int{{5, 1}, {1, 3}}, r.Confusion)
	assert.InDelta(t, 0.8, r.Accuracy, 1e-9)

	assert.InDelta(t, 5.0/6.0, r.Classes[0].Precision, 1e-9)
	assert.InDelta(t, 5.0/6.0, r.Classes[0].Recall, 1e-9)
	assert.Equal(t, 6, r.Classes[0].Support)

	assert.InDelta(t, 0.75, r.Classes[1].Precision, 1e-9)
	assert.InDelta(t, 0.75, r.Classes[1].Recall, 1e-9)
	assert.InDelta(t, 0.75, r.Classes[1].F1, 1e-9)
	assert.Equal(t, 4, r.Classes[1].Support)

	assert.InDelta(t, (5.0/6.0+0.75)/2, r.MacroAvg.F1, 1e-9)
	assert.InDelta(t, 0.6*5.0/6.0+0.4*0.75, r.WeightedAvg.Recall, 1e-9)
	assert.Equal(t, 10, r.WeightedAvg.Support)

	out := r.String()
	assert.Contains(t, out, "precision")
	assert.Contains(t, out, "weighted avg")
	assert.Contains(t, out, "[[5 1]")
}

func TestReportFromConfusion_NoPositivePredictions(t *testing.T) {
	r := training.ReportFromConfusion([2][2]int{{9, 0}, {1, 0}})
	assert.Equal(t, 0.0, r.Classes[1].Precision)
	assert.Equal(t, 0.0, r.Classes[1].F1)
	assert.InDelta(t, 0.9, r.Accuracy, 1e-9)
}

func TestEvaluate_Errors(t *testing.T) {
	_, err := training.Evaluate(&scriptedPredictor{}, nil, nil)
	assert.ErrorIs(t, err, training.ErrInvalidDataset)

	_, err = training.Evaluate(&scriptedPredictor{}, make([]schema.Row, 2), []int{0})
	assert.Error(t, err)

	boom := errors.New("boom")
	_, err = training.Evaluate(&scriptedPredictor{err: boom}, make([]schema.Row, 1), []int{0})
	assert.ErrorIs(t, err, boom)
}

func TestPlotConfusion_WritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "confusion.png")
	require.NoError(t, training.PlotConfusion([2][2]int{{900, 12}, {40, 8}}, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.Equal(t, "\x89PNG", string(data[:4]))
}

func TestPlotConfusion_UniformMatrix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uniform.png")
	assert.NoError(t, training.PlotConfusion([2][2]int{{3, 3}, {3, 3}}, path))
}
