// Package forest implements a random forest binary classifier over dense feature
// vectors: bootstrap-sampled CART trees split on Gini impurity, averaged into a
// class-1 probability.
package forest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrShapeMismatch is returned when a vector's length differs from the fitted width.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrInvalidModel is returned when persisted forest parameters are malformed.
	ErrInvalidModel = errors.New("invalid model")
	// ErrInvalidTrainingData is returned when Fit receives unusable inputs.
	ErrInvalidTrainingData = errors.New("invalid training data")
)

// Threshold is the probability at or above which the positive class is predicted.
const Threshold = 0.5

// Label maps a class-1 probability to a label.
func Label(probability float64) int {
	if probability >= Threshold {
		return 1
	}
	return 0
}

// Config controls forest training.
type Config struct {
	Trees int `json:"trees"`
	// MaxFeatures is the number of candidate features per split; 0 means floor(sqrt(width)).
	MaxFeatures int `json:"max_features"`
	// MaxDepth bounds tree depth; 0 means unlimited.
	MaxDepth        int   `json:"max_depth"`
	MinSamplesSplit int   `json:"min_samples_split"`
	MinSamplesLeaf  int   `json:"min_samples_leaf"`
	Seed            int64 `json:"seed"`
	// Workers bounds parallel tree fitting; 0 means GOMAXPROCS. It never affects the result.
	Workers int `json:"-"`
}

// DefaultConfig returns the production training configuration.
func DefaultConfig() Config {
	return Config{
		Trees:           150,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Seed:            42,
	}
}

// Validate checks the configuration bounds.
func (c Config) Validate() error {
	switch {
	case c.Trees < 1:
		return fmt.Errorf("trees must be at least 1, got %d", c.Trees)
	case c.MaxFeatures < 0:
		return fmt.Errorf("max features must not be negative, got %d", c.MaxFeatures)
	case c.MaxDepth < 0:
		return fmt.Errorf("max depth must not be negative, got %d", c.MaxDepth)
	case c.MinSamplesSplit < 2:
		return fmt.Errorf("min samples split must be at least 2, got %d", c.MinSamplesSplit)
	case c.MinSamplesLeaf < 1:
		return fmt.Errorf("min samples leaf must be at least 1, got %d", c.MinSamplesLeaf)
	case c.Workers < 0:
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

func (c Config) maxFeatures(width int) int {
	m := c.MaxFeatures
	if m == 0 {
		m = int(math.Floor(math.Sqrt(float64(width))))
	}
	if m < 1 {
		m = 1
	}
	if m > width {
		m = width
	}
	return m
}

// A Forest averages the class-1 probability of its trees.
type Forest struct {
	Trees       []Tree    `json:"trees"`
	NumFeatures int       `json:"width"`
	Importances []float64 `json:"importances"`
}

// Fit trains a forest on x with binary labels y. Tree i is grown from seed cfg.Seed+i,
// so the result does not depend on cfg.Workers or scheduling.
func Fit(ctx context.Context, x [][]float64, y []int, cfg Config) (*Forest, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTrainingData, err)
	}
	if len(x) == 0 {
		return nil, fmt.Errorf("%w: no samples", ErrInvalidTrainingData)
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d samples but %d labels", ErrInvalidTrainingData, len(x), len(y))
	}
	width := len(x[0])
	if width == 0 {
		return nil, fmt.Errorf("%w: zero-width samples", ErrInvalidTrainingData)
	}
	for i := range x {
		if len(x[i]) != width {
			return nil, fmt.Errorf("%w: sample %d has %d features, expected %d", ErrShapeMismatch, i, len(x[i]), width)
		}
		if y[i] != 0 && y[i] != 1 {
			return nil, fmt.Errorf("%w: label %d of sample %d is not 0 or 1", ErrInvalidTrainingData, y[i], i)
		}
	}

	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	trees := make([]Tree, cfg.Trees)
	importances := make([][]float64, cfg.Trees)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < cfg.Trees; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			trees[i], importances[i] = fitTree(x, y, cfg, cfg.Seed+int64(i))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	avg := make([]float64, width)
	for _, imp := range importances {
		for j, v := range imp {
			avg[j] += v
		}
	}
	normalise(avg)

	return &Forest{Trees: trees, NumFeatures: width, Importances: avg}, nil
}

// Width returns the vector length the forest was trained on.
func (f *Forest) Width() int {
	return f.NumFeatures
}

// PredictProbability returns the mean of the class-1 fractions of the leaves x reaches.
func (f *Forest) PredictProbability(x []float64) (float64, error) {
	if len(x) != f.NumFeatures {
		return 0, fmt.Errorf("%w: forest expects %d features, got %d", ErrShapeMismatch, f.NumFeatures, len(x))
	}
	var sum float64
	for i := range f.Trees {
		p, err := f.Trees[i].Probability(x)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		sum += p
	}
	return sum / float64(len(f.Trees)), nil
}

// Predict returns 1 when the class-1 probability is at least Threshold.
func (f *Forest) Predict(x []float64) (int, error) {
	p, err := f.PredictProbability(x)
	if err != nil {
		return 0, err
	}
	return Label(p), nil
}

// Validate checks every tree against the forest width.
func (f *Forest) Validate() error {
	if f == nil || len(f.Trees) == 0 {
		return fmt.Errorf("%w: forest has no trees", ErrInvalidModel)
	}
	if f.NumFeatures <= 0 {
		return fmt.Errorf("%w: forest width %d", ErrInvalidModel, f.NumFeatures)
	}
	for i := range f.Trees {
		if f.Trees[i].Width != f.NumFeatures {
			return fmt.Errorf("%w: tree %d has width %d, forest has %d",
				ErrShapeMismatch, i, f.Trees[i].Width, f.NumFeatures)
		}
		if err := f.Trees[i].Validate(); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	if f.Importances != nil && len(f.Importances) != f.NumFeatures {
		return fmt.Errorf("%w: %d importances for width %d", ErrInvalidModel, len(f.Importances), f.NumFeatures)
	}
	return nil
}
