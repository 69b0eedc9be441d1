package predict

import (
	"math/rand"
	"sort"
)

// treeNode is one node of a regression tree stored in a flat slice.
// Leaves have Feature == -1 and carry the mean label in Value.
type treeNode struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
}

type regressionTree struct {
	Nodes []treeNode
}

// predict walks the tree for one feature vector.
func (t regressionTree) predict(values []float64) float64 {
	i := 0
	for t.Nodes[i].Feature >= 0 {
		if values[t.Nodes[i].Feature] <= t.Nodes[i].Threshold {
			i = t.Nodes[i].Left
		} else {
			i = t.Nodes[i].Right
		}
	}
	return t.Nodes[i].Value
}

// grower builds one tree over a shared training matrix. Splits greedily
// maximize variance reduction; a fresh random feature subset is drawn at
// every node so bagged trees decorrelate.
type grower struct {
	x          [][]float64
	y          []float64
	rng        *rand.Rand
	maxDepth   int
	minLeaf    int
	subsetSize int
	importance []float64
}

func (g *grower) grow(indices []int) regressionTree {
	t := &regressionTree{}
	g.node(t, indices, 0)
	return *t
}

// node appends the subtree over the given samples and returns its index.
func (g *grower) node(t *regressionTree, indices []int, depth int) int {
	idx := len(t.Nodes)
	t.Nodes = append(t.Nodes, treeNode{Feature: -1, Value: indexMean(g.y, indices)})

	if depth >= g.maxDepth || len(indices) < 2*g.minLeaf {
		return idx
	}

	feature, threshold, gain := g.bestSplit(indices)
	if feature < 0 {
		return idx
	}
	g.importance[feature] += gain

	var left, right []int
	for _, i := range indices {
		if g.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	t.Nodes[idx].Feature = feature
	t.Nodes[idx].Threshold = threshold
	t.Nodes[idx].Left = g.node(t, left, depth+1)
	t.Nodes[idx].Right = g.node(t, right, depth+1)
	return idx
}

// bestSplit scans the node's random feature subset for the threshold with
// the largest squared-error reduction. Returns feature -1 when no split
// satisfies the minimum leaf size.
func (g *grower) bestSplit(indices []int) (int, float64, float64) {
	parentSSE := indexSSE(g.y, indices)
	bestFeature := -1
	var bestThreshold, bestGain float64

	sorted := make([]int, len(indices))
	for _, f := range g.rng.Perm(len(g.x[0]))[:g.subsetSize] {
		copy(sorted, indices)
		sort.Slice(sorted, func(a, b int) bool { return g.x[sorted[a]][f] < g.x[sorted[b]][f] })

		var totalSum, totalSq float64
		for _, i := range sorted {
			totalSum += g.y[i]
			totalSq += g.y[i] * g.y[i]
		}

		var leftSum, leftSq float64
		for i := 0; i < len(sorted)-1; i++ {
			yv := g.y[sorted[i]]
			leftSum += yv
			leftSq += yv * yv

			// Only cut between distinct feature values.
			if g.x[sorted[i]][f] == g.x[sorted[i+1]][f] {
				continue
			}
			nLeft := i + 1
			nRight := len(sorted) - nLeft
			if nLeft < g.minLeaf || nRight < g.minLeaf {
				continue
			}

			leftSSE := leftSq - leftSum*leftSum/float64(nLeft)
			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			rightSSE := rightSq - rightSum*rightSum/float64(nRight)

			if gain := parentSSE - leftSSE - rightSSE; gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (g.x[sorted[i]][f] + g.x[sorted[i+1]][f]) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestGain
}

func indexMean(y []float64, indices []int) float64 {
	var sum float64
	for _, i := range indices {
		sum += y[i]
	}
	return sum / float64(len(indices))
}

func indexSSE(y []float64, indices []int) float64 {
	mean := indexMean(y, indices)
	var sse float64
	for _, i := range indices {
		d := y[i] - mean
		sse += d * d
	}
	return sse
}
