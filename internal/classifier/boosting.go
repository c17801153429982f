package classifier

import "math"

// GradientBoosting fits shallow regression trees to log-loss residuals,
// with Newton-step leaf values.
type GradientBoosting struct {
	Init           float64 `json:"init"`
	Trees          []Tree  `json:"trees"`
	Rounds         int     `json:"rounds"`
	MaxDepth       int     `json:"max_depth"`
	MinSamplesLeaf int     `json:"min_samples_leaf"`
	LearningRate   float64 `json:"learning_rate"`
}

// NewGradientBoosting returns an unfitted booster.
func NewGradientBoosting(rounds, maxDepth, minSamplesLeaf int, learningRate float64) *GradientBoosting {
	return &GradientBoosting{
		Rounds:         rounds,
		MaxDepth:       maxDepth,
		MinSamplesLeaf: minSamplesLeaf,
		LearningRate:   learningRate,
	}
}

func (m *GradientBoosting) Name() string { return nameBoosting }

func (m *GradientBoosting) Fit(X [][]float64, y []int) error {
	if _, err := checkTrainingSet(X, y); err != nil {
		return err
	}
	n := len(X)

	var pos float64
	for _, label := range y {
		pos += float64(label)
	}
	p0 := math.Min(math.Max(pos/float64(n), 1e-6), 1-1e-6)
	m.Init = math.Log(p0 / (1 - p0))

	idx := make([]int, n)
	ones := make([]float64, n)
	for i := range idx {
		idx[i] = i
		ones[i] = 1
	}
	F := make([]float64, n)
	for i := range F {
		F[i] = m.Init
	}
	resid := make([]float64, n)
	prob := make([]float64, n)
	params := treeParams{maxDepth: m.MaxDepth, minSamplesLeaf: m.MinSamplesLeaf}

	m.Trees = make([]Tree, 0, m.Rounds)
	for round := 0; round < m.Rounds; round++ {
		for i := range F {
			prob[i] = sigmoid(F[i])
			resid[i] = float64(y[i]) - prob[i]
		}
		tree := growTree(X, resid, ones, idx, params)

		num := make([]float64, len(tree.Nodes))
		den := make([]float64, len(tree.Nodes))
		leaves := make([]int, n)
		for i, row := range X {
			leaf := tree.leafIndex(row)
			leaves[i] = leaf
			num[leaf] += resid[i]
			den[leaf] += prob[i] * (1 - prob[i])
		}
		for j := range tree.Nodes {
			if !tree.Nodes[j].Leaf {
				continue
			}
			if den[j] < 1e-12 {
				tree.Nodes[j].Value = 0
				continue
			}
			tree.Nodes[j].Value = num[j] / den[j]
		}
		for i := range F {
			F[i] += m.LearningRate * tree.Nodes[leaves[i]].Value
		}
		m.Trees = append(m.Trees, tree)
	}
	return nil
}

func (m *GradientBoosting) PredictProba(x []float64) float64 {
	f := m.Init
	for i := range m.Trees {
		f += m.LearningRate * m.Trees[i].Predict(x)
	}
	return sigmoid(f)
}
