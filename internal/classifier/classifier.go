// Package classifier implements the small binary classifiers used to learn
// waste risk: logistic regression, random forest and gradient boosting, plus
// the scaling, cross-validation and selection helpers around them.
package classifier

import (
	"math"

	"github.com/rotisserie/eris"
)

// Classifier is a binary classifier producing positive-class probabilities.
type Classifier interface {
	Name() string
	Fit(X [][]float64, y []int) error
	PredictProba(x []float64) float64
}

// Candidate is a named constructor for a fresh, unfitted classifier.
type Candidate struct {
	Name string
	New  func() Classifier
}

// Params tunes the default candidate set.
type Params struct {
	Trees          int
	MaxDepth       int
	BoostRounds    int
	BoostDepth     int
	LearningRate   float64
	MinSamplesLeaf int
	Seed           uint64
}

// DefaultParams mirrors the production training setup.
func DefaultParams() Params {
	return Params{
		Trees:          100,
		MaxDepth:       10,
		BoostRounds:    100,
		BoostDepth:     6,
		LearningRate:   0.1,
		MinSamplesLeaf: 1,
		Seed:           42,
	}
}

// DefaultCandidates returns the candidate set in evaluation order. Order
// matters: ties in cross-validation go to the earlier entry.
func DefaultCandidates(p Params) []Candidate {
	return []Candidate{
		{Name: nameForest, New: func() Classifier {
			return NewRandomForest(p.Trees, p.MaxDepth, p.MinSamplesLeaf, p.Seed)
		}},
		{Name: nameBoosting, New: func() Classifier {
			return NewGradientBoosting(p.BoostRounds, p.BoostDepth, p.MinSamplesLeaf, p.LearningRate)
		}},
		{Name: nameLogistic, New: func() Classifier {
			return NewLogisticRegression()
		}},
	}
}

const (
	nameForest   = "RandomForest"
	nameBoosting = "GradientBoosting"
	nameLogistic = "LogisticRegression"
)

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func checkTrainingSet(X [][]float64, y []int) (int, error) {
	if len(X) == 0 {
		return 0, eris.New("classifier: empty training set")
	}
	if len(X) != len(y) {
		return 0, eris.Errorf("classifier: %d rows but %d labels", len(X), len(y))
	}
	d := len(X[0])
	if d == 0 {
		return 0, eris.New("classifier: rows have no features")
	}
	for i, row := range X {
		if len(row) != d {
			return 0, eris.Errorf("classifier: row %d has %d features, want %d", i, len(row), d)
		}
	}
	for i, label := range y {
		if label != 0 && label != 1 {
			return 0, eris.Errorf("classifier: label %d at row %d is not binary", label, i)
		}
	}
	return d, nil
}

// balancedWeights returns per-sample weights n / (2 * count(class)).
func balancedWeights(y []int) []float64 {
	var pos int
	for _, label := range y {
		pos += label
	}
	neg := len(y) - pos
	n := float64(len(y))
	w := make([]float64, len(y))
	for i, label := range y {
		count := neg
		if label == 1 {
			count = pos
		}
		w[i] = n / (2 * float64(count))
	}
	return w
}

func clip01(p float64) float64 {
	return math.Max(0, math.Min(1, p))
}
