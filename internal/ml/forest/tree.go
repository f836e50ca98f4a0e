package forest

import (
	"fmt"
	"math"
)

// A Node represents a splitting decision of the form "x[FeatureIndex] < Threshold ?".
type Node struct {
	FeatureIndex int     `json:"feature_index"`
	Threshold    float64 `json:"threshold"`
	LeftChild    int     `json:"left_child"`
	LeftIsLeaf   bool    `json:"left_is_leaf"`
	RightChild   int     `json:"right_child"`
	RightIsLeaf  bool    `json:"right_is_leaf"`
}

// A Tree is a binary classification tree stored as a flat node list. Leaf indices
// point into Outputs, which hold the class-1 fraction of the training samples that
// reached the leaf. A tree with no nodes is a single leaf, Outputs[0].
type Tree struct {
	Nodes   []Node    `json:"nodes"`
	Outputs []float64 `json:"outputs"`
	Width   int       `json:"width"`
	// Depth is the maximum depth of any leaf in the tree
	Depth int `json:"depth"`
}

// Leaf drops x down the tree and returns the index of the leaf it ends up in.
func (t *Tree) Leaf(x []float64) (int, error) {
	if len(x) != t.Width {
		return 0, fmt.Errorf("%w: tree expects %d features, got %d", ErrShapeMismatch, t.Width, len(x))
	}
	return t.leaf(x), nil
}

// Probability returns the class-1 fraction of the leaf x reaches.
func (t *Tree) Probability(x []float64) (float64, error) {
	i, err := t.Leaf(x)
	if err != nil {
		return 0, err
	}
	return t.Outputs[i], nil
}

// leaf assumes a validated tree and a vector of the right width.
func (t *Tree) leaf(x []float64) int {
	if len(t.Nodes) == 0 {
		return 0
	}
	cur := t.Nodes[0]
	for {
		if x[cur.FeatureIndex] < cur.Threshold {
			if cur.LeftIsLeaf {
				return cur.LeftChild
			}
			cur = t.Nodes[cur.LeftChild]
		} else {
			if cur.RightIsLeaf {
				return cur.RightChild
			}
			cur = t.Nodes[cur.RightChild]
		}
	}
}

// Validate checks the tree is well formed: indices in range, internal children stored
// after their parent (so traversal terminates) and outputs within [0, 1].
func (t *Tree) Validate() error {
	if t.Width <= 0 {
		return fmt.Errorf("%w: tree width %d", ErrInvalidModel, t.Width)
	}
	if len(t.Outputs) == 0 {
		return fmt.Errorf("%w: tree has no outputs", ErrInvalidModel)
	}
	if len(t.Nodes) == 0 && len(t.Outputs) != 1 {
		return fmt.Errorf("%w: leaf-only tree has %d outputs", ErrInvalidModel, len(t.Outputs))
	}
	for _, o := range t.Outputs {
		if math.IsNaN(o) || o < 0 || o > 1 {
			return fmt.Errorf("%w: output %v outside [0, 1]", ErrInvalidModel, o)
		}
	}

	child := func(parent, idx int, isLeaf bool) error {
		if isLeaf {
			if idx < 0 || idx >= len(t.Outputs) {
				return fmt.Errorf("%w: node %d points to missing leaf %d", ErrInvalidModel, parent, idx)
			}
			return nil
		}
		if idx <= parent || idx >= len(t.Nodes) {
			return fmt.Errorf("%w: node %d points to invalid node %d", ErrInvalidModel, parent, idx)
		}
		return nil
	}
	for i, n := range t.Nodes {
		if n.FeatureIndex < 0 || n.FeatureIndex >= t.Width {
			return fmt.Errorf("%w: node %d splits on feature %d of %d", ErrInvalidModel, i, n.FeatureIndex, t.Width)
		}
		if math.IsNaN(n.Threshold) {
			return fmt.Errorf("%w: node %d has NaN threshold", ErrInvalidModel, i)
		}
		if err := child(i, n.LeftChild, n.LeftIsLeaf); err != nil {
			return err
		}
		if err := child(i, n.RightChild, n.RightIsLeaf); err != nil {
			return err
		}
	}
	return nil
}
