package forest

import (
	"math"
	"sort"
)

// Node is one node of a regression tree stored in a flat slice. Leaves have Left == -1.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
}

// Tree is a CART regression tree.
type Tree struct {
	Nodes []Node
}

// predict walks the tree for one sample.
func (t *Tree) predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Left < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// treeBuilder grows one tree over column-major features.
type treeBuilder struct {
	cols    [][]float64 // cols[f][row]
	y       []float64
	minLeaf int
	nodes   []Node
}

func (b *treeBuilder) build(idx []int) Tree {
	b.nodes = b.nodes[:0]
	b.grow(idx)
	return Tree{Nodes: append([]Node(nil), b.nodes...)}
}

// grow appends the subtree for idx and returns its node index.
func (b *treeBuilder) grow(idx []int) int {
	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{Left: -1, Right: -1, Value: b.mean(idx)})
	if len(idx) < 2*b.minLeaf {
		return id
	}
	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		return id
	}
	var left, right []int
	for _, i := range idx {
		if b.cols[feature][i] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return id
	}
	l := b.grow(left)
	r := b.grow(right)
	b.nodes[id].Feature = feature
	b.nodes[id].Threshold = threshold
	b.nodes[id].Left = l
	b.nodes[id].Right = r
	return id
}

func (b *treeBuilder) mean(idx []int) float64 {
	s := 0.0
	for _, i := range idx {
		s += b.y[i]
	}
	return s / float64(len(idx))
}

// bestSplit finds the split with the largest reduction of the summed squared error.
// Thresholds lie halfway between consecutive distinct values.
func (b *treeBuilder) bestSplit(idx []int) (int, float64, bool) {
	n := float64(len(idx))
	total, totalSq := 0.0, 0.0
	for _, i := range idx {
		total += b.y[i]
		totalSq += b.y[i] * b.y[i]
	}
	parent := totalSq - total*total/n
	if parent <= 1e-12 {
		return 0, 0, false
	}

	best, bestFeature, bestThreshold := parent, -1, 0.0
	sorted := make([]int, len(idx))
	for f, col := range b.cols {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, c int) bool { return col[sorted[a]] < col[sorted[c]] })
		left, leftSq := 0.0, 0.0
		for k := 0; k < len(sorted)-1; k++ {
			v := b.y[sorted[k]]
			left += v
			leftSq += v * v
			nl := float64(k + 1)
			if k+1 < b.minLeaf || len(sorted)-k-1 < b.minLeaf {
				continue
			}
			lo, hi := col[sorted[k]], col[sorted[k+1]]
			if lo == hi {
				continue
			}
			nr := n - nl
			right, rightSq := total-left, totalSq-leftSq
			sse := (leftSq - left*left/nl) + (rightSq - right*right/nr)
			if sse < best-1e-12 {
				best, bestFeature = sse, f
				bestThreshold = lo + (hi-lo)/2
				if bestThreshold >= hi || math.IsInf(bestThreshold, 0) {
					bestThreshold = lo
				}
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}
