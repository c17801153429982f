package classifier

import (
	"math/rand/v2"
	"slices"
)

// Node is one node of a flattened regression tree. Leaves carry Value;
// internal nodes route x[Feature] <= Threshold to Left, otherwise Right.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Value     float64 `json:"v"`
	Leaf      bool    `json:"leaf"`
}

// Tree is a CART regression tree stored as a flat node slice, root at 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// leafIndex walks x down to its leaf and returns the node index.
func (t *Tree) leafIndex(x []float64) int {
	i := 0
	for !t.Nodes[i].Leaf {
		n := t.Nodes[i]
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return i
}

// Predict returns the leaf value for x.
func (t *Tree) Predict(x []float64) float64 {
	return t.Nodes[t.leafIndex(x)].Value
}

type treeParams struct {
	maxDepth       int
	minSamplesLeaf int
	maxFeatures    int
	rng            *rand.Rand // required when maxFeatures < feature count
}

type treeBuilder struct {
	X      [][]float64
	target []float64
	weight []float64
	p      treeParams
	nodes  []Node
}

// growTree fits a weighted least-squares regression tree on the rows in idx.
func growTree(X [][]float64, target, weight []float64, idx []int, p treeParams) Tree {
	if p.minSamplesLeaf < 1 {
		p.minSamplesLeaf = 1
	}
	b := &treeBuilder{X: X, target: target, weight: weight, p: p}
	b.build(slices.Clone(idx), 0)
	return Tree{Nodes: b.nodes}
}

func (b *treeBuilder) build(idx []int, depth int) int {
	var sw, swt float64
	for _, i := range idx {
		sw += b.weight[i]
		swt += b.weight[i] * b.target[i]
	}
	value := 0.0
	if sw > 0 {
		value = swt / sw
	}

	self := len(b.nodes)
	b.nodes = append(b.nodes, Node{Leaf: true, Value: value})

	if depth >= b.p.maxDepth || len(idx) < 2*b.p.minSamplesLeaf || b.pure(idx) {
		return self
	}

	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		return self
	}

	var left, right []int
	for _, i := range idx {
		if b.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[self] = Node{Feature: feature, Threshold: threshold, Left: l, Right: r, Value: value}
	return self
}

func (b *treeBuilder) pure(idx []int) bool {
	first := b.target[idx[0]]
	for _, i := range idx[1:] {
		if b.target[i] != first {
			return false
		}
	}
	return true
}

func (b *treeBuilder) features() []int {
	d := len(b.X[0])
	if b.p.maxFeatures <= 0 || b.p.maxFeatures >= d {
		all := make([]int, d)
		for j := range all {
			all[j] = j
		}
		return all
	}
	return b.p.rng.Perm(d)[:b.p.maxFeatures]
}

// bestSplit scans every candidate feature for the threshold minimizing the
// weighted sum of squared errors of the two children.
func (b *treeBuilder) bestSplit(idx []int) (int, float64, bool) {
	n := len(idx)
	minLeaf := b.p.minSamplesLeaf

	var totW, totWT, totWTT float64
	for _, i := range idx {
		w, t := b.weight[i], b.target[i]
		totW += w
		totWT += w * t
		totWTT += w * t * t
	}
	parentSSE := sse(totW, totWT, totWTT)

	bestFeature, bestThreshold := -1, 0.0
	bestSSE := parentSSE
	sorted := make([]int, n)

	for _, f := range b.features() {
		copy(sorted, idx)
		slices.SortFunc(sorted, func(a, c int) int {
			switch va, vc := b.X[a][f], b.X[c][f]; {
			case va < vc:
				return -1
			case va > vc:
				return 1
			default:
				return 0
			}
		})

		var lw, lwt, lwtt float64
		for k := 0; k < n-1; k++ {
			i := sorted[k]
			w, t := b.weight[i], b.target[i]
			lw += w
			lwt += w * t
			lwtt += w * t * t

			if k+1 < minLeaf || n-(k+1) < minLeaf {
				continue
			}
			cur, next := b.X[i][f], b.X[sorted[k+1]][f]
			if cur == next {
				continue
			}
			total := sse(lw, lwt, lwtt) + sse(totW-lw, totWT-lwt, totWTT-lwtt)
			if total < bestSSE-1e-12 {
				bestSSE = total
				bestFeature = f
				bestThreshold = (cur + next) / 2
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

func sse(w, wt, wtt float64) float64 {
	if w <= 0 {
		return 0
	}
	return wtt - wt*wt/w
}
