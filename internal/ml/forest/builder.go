package forest

import (
	"math"
	"math/rand"
	"sort"
)

// builder grows one CART tree on a bootstrap sample with Gini impurity.
type builder struct {
	x           [][]float64
	y           []int
	weights     []float64
	cfg         Config
	maxFeatures int
	rng         *rand.Rand

	tree       Tree
	importance []float64
	order      []int
}

type split struct {
	feature   int
	threshold float64
	// impurity is the weighted Gini impurity of both children
	impurity float64
	gain     float64
}

// fitTree grows a tree seeded with seed and returns it with its normalised
// impurity-decrease importances.
func fitTree(x [][]float64, y []int, cfg Config, seed int64) (Tree, []float64) {
	n := len(x)
	width := len(x[0])
	rng := rand.New(rand.NewSource(seed))

	weights := make([]float64, n)
	for i := 0; i < n; i++ {
		weights[rng.Intn(n)]++
	}
	idx := make([]int, 0, n)
	for i, w := range weights {
		if w > 0 {
			idx = append(idx, i)
		}
	}

	b := &builder{
		x:           x,
		y:           y,
		weights:     weights,
		cfg:         cfg,
		maxFeatures: cfg.maxFeatures(width),
		rng:         rng,
		tree:        Tree{Width: width},
		importance:  make([]float64, width),
		order:       make([]int, len(idx)),
	}
	b.grow(idx, 0)

	normalise(b.importance)
	return b.tree, b.importance
}

// grow returns the index of the node or leaf built for idx.
func (b *builder) grow(idx []int, depth int) (int, bool) {
	w0, w1 := b.classWeights(idx)

	if w0 == 0 || w1 == 0 ||
		len(idx) < b.cfg.MinSamplesSplit ||
		len(idx) < 2*b.cfg.MinSamplesLeaf ||
		(b.cfg.MaxDepth > 0 && depth >= b.cfg.MaxDepth) {
		return b.leaf(w0, w1, depth), true
	}

	s, ok := b.bestSplit(idx, w0, w1)
	if !ok {
		return b.leaf(w0, w1, depth), true
	}
	b.importance[s.feature] += s.gain

	id := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, Node{FeatureIndex: s.feature, Threshold: s.threshold})

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if b.x[i][s.feature] < s.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l, lLeaf := b.grow(left, depth+1)
	r, rLeaf := b.grow(right, depth+1)

	node := &b.tree.Nodes[id]
	node.LeftChild, node.LeftIsLeaf = l, lLeaf
	node.RightChild, node.RightIsLeaf = r, rLeaf
	return id, false
}

func (b *builder) leaf(w0, w1 float64, depth int) int {
	if depth > b.tree.Depth {
		b.tree.Depth = depth
	}
	b.tree.Outputs = append(b.tree.Outputs, w1/(w0+w1))
	return len(b.tree.Outputs) - 1
}

func (b *builder) classWeights(idx []int) (w0, w1 float64) {
	for _, i := range idx {
		if b.y[i] == 1 {
			w1 += b.weights[i]
		} else {
			w0 += b.weights[i]
		}
	}
	return w0, w1
}

// bestSplit scans candidate features in random order. It keeps drawing past
// maxFeatures only while every feature seen so far was constant on idx.
func (b *builder) bestSplit(idx []int, w0, w1 float64) (split, bool) {
	best := split{impurity: math.Inf(1)}
	found := false
	visited := 0
	minLeaf := b.cfg.MinSamplesLeaf
	order := b.order[:len(idx)]

	for _, f := range b.rng.Perm(b.tree.Width) {
		if visited >= b.maxFeatures && found {
			break
		}

		copy(order, idx)
		sort.Slice(order, func(a, c int) bool { return b.x[order[a]][f] < b.x[order[c]][f] })
		if b.x[order[0]][f] == b.x[order[len(order)-1]][f] {
			continue
		}
		visited++

		var l0, l1 float64
		for k := 0; k < len(order)-1; k++ {
			i := order[k]
			if b.y[i] == 1 {
				l1 += b.weights[i]
			} else {
				l0 += b.weights[i]
			}

			lo, hi := b.x[i][f], b.x[order[k+1]][f]
			if lo == hi || k+1 < minLeaf || len(order)-k-1 < minLeaf {
				continue
			}

			r0, r1 := w0-l0, w1-l1
			impurity := (l0+l1)*gini(l0, l1) + (r0+r1)*gini(r0, r1)
			if impurity < best.impurity {
				threshold := lo + (hi-lo)/2
				if threshold <= lo {
					threshold = hi
				}
				best = split{feature: f, threshold: threshold, impurity: impurity}
				found = true
			}
		}
	}

	if !found {
		return split{}, false
	}
	best.gain = (w0+w1)*gini(w0, w1) - best.impurity
	return best, true
}

func gini(w0, w1 float64) float64 {
	total := w0 + w1
	if total == 0 {
		return 0
	}
	p0, p1 := w0/total, w1/total
	return 1 - p0*p0 - p1*p1
}

func normalise(v []float64) {
	var sum float64
	for _, x := range v {
		sum += x
	}
	if sum == 0 {
		return
	}
	for i := range v {
		v[i] /= sum
	}
}
