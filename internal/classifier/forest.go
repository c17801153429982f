package classifier

import (
	"math"
	"math/rand/v2"
)

// RandomForest averages bootstrap-trained regression trees over 0/1 labels,
// so each leaf holds the weighted fraction of positives.
type RandomForest struct {
	Trees          []Tree `json:"trees"`
	NTrees         int    `json:"n_trees"`
	MaxDepth       int    `json:"max_depth"`
	MinSamplesLeaf int    `json:"min_samples_leaf"`
	Seed           uint64 `json:"seed"`
}

// NewRandomForest returns an unfitted forest.
func NewRandomForest(trees, maxDepth, minSamplesLeaf int, seed uint64) *RandomForest {
	return &RandomForest{
		NTrees:         trees,
		MaxDepth:       maxDepth,
		MinSamplesLeaf: minSamplesLeaf,
		Seed:           seed,
	}
}

func (m *RandomForest) Name() string { return nameForest }

func (m *RandomForest) Fit(X [][]float64, y []int) error {
	d, err := checkTrainingSet(X, y)
	if err != nil {
		return err
	}
	n := len(X)
	rng := rand.New(rand.NewPCG(m.Seed, m.Seed^0x9e3779b97f4a7c15))

	target := make([]float64, n)
	for i, label := range y {
		target[i] = float64(label)
	}
	weight := balancedWeights(y)
	params := treeParams{
		maxDepth:       m.MaxDepth,
		minSamplesLeaf: m.MinSamplesLeaf,
		maxFeatures:    max(1, int(math.Sqrt(float64(d)))),
		rng:            rng,
	}

	m.Trees = make([]Tree, 0, m.NTrees)
	sample := make([]int, n)
	for t := 0; t < m.NTrees; t++ {
		for i := range sample {
			sample[i] = rng.IntN(n)
		}
		m.Trees = append(m.Trees, growTree(X, target, weight, sample, params))
	}
	return nil
}

func (m *RandomForest) PredictProba(x []float64) float64 {
	if len(m.Trees) == 0 {
		return math.NaN()
	}
	var sum float64
	for i := range m.Trees {
		sum += m.Trees[i].Predict(x)
	}
	return clip01(sum / float64(len(m.Trees)))
}
