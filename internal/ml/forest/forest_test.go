package forest_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strokeguard/strokeguard/internal/ml/forest"
)

func depthTwoTree() forest.Tree {
	return forest.Tree{
		Nodes: []forest.Node{
			{FeatureIndex: 0, Threshold: 2.5, LeftChild: 1, RightChild: 2},
			{FeatureIndex: 1, Threshold: 0, LeftChild: 0, LeftIsLeaf: true, RightChild: 1, RightIsLeaf: true},
			{FeatureIndex: 1, Threshold: 1, LeftChild: 2, LeftIsLeaf: true, RightChild: 3, RightIsLeaf: true},
		},
		Outputs: []float64{0, 0.25, 0.75, 1},
		Width:   2,
		Depth:   2,
	}
}

func TestTree_Leaf(t *testing.T) {
	tree := depthTwoTree()
	require.NoError(t, tree.Validate())

	tests := []struct {
		x    []float64
		leaf int
		prob float64
	}{
		{[]float64{1, -1}, 0, 0},
		{[]float64{1, 0}, 1, 0.25},
		{[]float64{3, 0.5}, 2, 0.75},
		{[]float64{2.5, 1}, 3, 1},
	}
	for _, tt := range tests {
		leaf, err := tree.Leaf(tt.x)
		require.NoError(t, err)
		assert.Equal(t, tt.leaf, leaf, "x=%v", tt.x)

		p, err := tree.Probability(tt.x)
		require.NoError(t, err)
		assert.Equal(t, tt.prob, p)
	}
}

func TestTree_SingleLeaf(t *testing.T) {
	tree := forest.Tree{Outputs: []float64{0.4}, Width: 3}
	require.NoError(t, tree.Validate())

	p, err := tree.Probability([]float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 0.4, p)
}

func TestTree_ShapeMismatch(t *testing.T) {
	tree := depthTwoTree()
	_, err := tree.Leaf([]float64{1})
	assert.ErrorIs(t, err, forest.ErrShapeMismatch)
}

func TestTree_ValidateRejectsMalformed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*forest.Tree)
	}{
		{"feature out of range", func(tr *forest.Tree) { tr.Nodes[1].FeatureIndex = 7 }},
		{"missing leaf", func(tr *forest.Tree) { tr.Nodes[2].RightChild = 9 }},
		{"backward edge", func(tr *forest.Tree) { tr.Nodes[1].LeftIsLeaf = false; tr.Nodes[1].LeftChild = 0 }},
		{"output above one", func(tr *forest.Tree) { tr.Outputs[3] = 1.5 }},
		{"zero width", func(tr *forest.Tree) { tr.Width = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := depthTwoTree()
			tt.mutate(&tree)
			assert.ErrorIs(t, tree.Validate(), forest.ErrInvalidModel)
		})
	}
}

func TestLabel_Threshold(t *testing.T) {
	assert.Equal(t, 0, forest.Label(0.4999))
	assert.Equal(t, 1, forest.Label(0.5))
	assert.Equal(t, 1, forest.Label(1))
	assert.Equal(t, 0, forest.Label(0))
}

// separable returns samples whose first feature decides the label and whose
// second feature is constant noise.
func separable(n int) ([][]float64, []int) {
	x := make([][]float64, n)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		x[i] = []float64{float64(i), 7}
		if i >= n/2 {
			y[i] = 1
		}
	}
	return x, y
}

func smallConfig() forest.Config {
	cfg := forest.DefaultConfig()
	cfg.Trees = 12
	return cfg
}

func TestFit_LearnsSeparableData(t *testing.T) {
	x, y := separable(100)

	f, err := forest.Fit(context.Background(), x, y, smallConfig())
	require.NoError(t, err)
	require.NoError(t, f.Validate())
	assert.Len(t, f.Trees, 12)
	assert.Equal(t, 2, f.Width())

	low, err := f.PredictProbability([]float64{10, 7})
	require.NoError(t, err)
	assert.Equal(t, 0.0, low)

	high, err := f.Predict([]float64{90, 7})
	require.NoError(t, err)
	assert.Equal(t, 1, high)

	// the constant feature never splits
	require.Len(t, f.Importances, 2)
	assert.InDelta(t, 1.0, f.Importances[0], 1e-9)
	assert.Equal(t, 0.0, f.Importances[1])
}

func TestFit_DeterministicAcrossWorkerCounts(t *testing.T) {
	x, y := separable(80)
	// overlap the classes so trees grow past a single split
	y[10], y[70] = 1, 0

	cfg := smallConfig()
	cfg.Workers = 1
	a, err := forest.Fit(context.Background(), x, y, cfg)
	require.NoError(t, err)

	cfg.Workers = 4
	b, err := forest.Fit(context.Background(), x, y, cfg)
	require.NoError(t, err)

	ja, err := json.Marshal(a)
	require.NoError(t, err)
	jb, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, string(ja), string(jb))

	for i := 0; i < 80; i++ {
		pa, err := a.PredictProbability(x[i])
		require.NoError(t, err)
		pb, err := b.PredictProbability(x[i])
		require.NoError(t, err)
		assert.Equal(t, pa, pb)
		assert.GreaterOrEqual(t, pa, 0.0)
		assert.LessOrEqual(t, pa, 1.0)
	}
}

func TestFit_PredictAgreesWithProbability(t *testing.T) {
	x, y := separable(60)
	y[5], y[55] = 1, 0
	f, err := forest.Fit(context.Background(), x, y, smallConfig())
	require.NoError(t, err)

	for _, v := range x {
		p, err := f.PredictProbability(v)
		require.NoError(t, err)
		label, err := f.Predict(v)
		require.NoError(t, err)
		assert.Equal(t, p >= forest.Threshold, label == 1)
	}
}

func TestFit_RejectsBadInput(t *testing.T) {
	ctx := context.Background()
	cfg := smallConfig()

	_, err := forest.Fit(ctx, nil, nil, cfg)
	assert.ErrorIs(t, err, forest.ErrInvalidTrainingData)

	_, err = forest.Fit(ctx, [][]float64{{1}, {2}}, []int{0}, cfg)
	assert.ErrorIs(t, err, forest.ErrInvalidTrainingData)

	_, err = forest.Fit(ctx, [][]float64{{1}, {2, 3}}, []int{0, 1}, cfg)
	assert.ErrorIs(t, err, forest.ErrShapeMismatch)

	_, err = forest.Fit(ctx, [][]float64{{1}, {2}}, []int{0, 2}, cfg)
	assert.ErrorIs(t, err, forest.ErrInvalidTrainingData)

	bad := cfg
	bad.MinSamplesSplit = 1
	_, err = forest.Fit(ctx, [][]float64{{1}, {2}}, []int{0, 1}, bad)
	assert.ErrorIs(t, err, forest.ErrInvalidTrainingData)
}

func TestFit_HonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	x, y := separable(20)
	_, err := forest.Fit(ctx, x, y, smallConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFit_MaxDepthBoundsTrees(t *testing.T) {
	x, y := separable(60)
	for i := 0; i < 60; i += 3 {
		y[i] = 1 - y[i]
	}
	cfg := smallConfig()
	cfg.MaxDepth = 2

	f, err := forest.Fit(context.Background(), x, y, cfg)
	require.NoError(t, err)
	for _, tree := range f.Trees {
		assert.LessOrEqual(t, tree.Depth, 2)
	}
}

func TestForest_ShapeMismatch(t *testing.T) {
	x, y := separable(20)
	f, err := forest.Fit(context.Background(), x, y, smallConfig())
	require.NoError(t, err)

	_, err = f.PredictProbability([]float64{1, 2, 3})
	assert.ErrorIs(t, err, forest.ErrShapeMismatch)

	_, err = f.Predict(nil)
	assert.ErrorIs(t, err, forest.ErrShapeMismatch)
}

func TestForest_ValidateTreeWidth(t *testing.T) {
	f := &forest.Forest{Trees: []forest.Tree{depthTwoTree()}, NumFeatures: 3}
	assert.ErrorIs(t, f.Validate(), forest.ErrShapeMismatch)

	var empty *forest.Forest
	assert.ErrorIs(t, empty.Validate(), forest.ErrInvalidModel)
}

func TestForest_ProbabilityIsMeanOfTrees(t *testing.T) {
	x, y := separable(60)
	y[5], y[55] = 1, 0
	f, err := forest.Fit(context.Background(), x, y, smallConfig())
	require.NoError(t, err)

	for _, v := range x[:10] {
		var sum float64
		for i := range f.Trees {
			p, err := f.Trees[i].Probability(v)
			require.NoError(t, err)
			sum += p
		}
		got, err := f.PredictProbability(v)
		require.NoError(t, err)
		assert.InDelta(t, sum/float64(len(f.Trees)), got, 1e-12)
	}
}
