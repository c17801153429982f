package classifier

import (
	"math/rand/v2"

	"github.com/rotisserie/eris"
)

// StratifiedKFold partitions row indices into k folds, dealing each class
// round-robin so every fold keeps the overall class balance. It returns the
// held-out indices of each fold.
func StratifiedKFold(y []int, k int) ([][]int, error) {
	if k < 2 {
		return nil, eris.Errorf("classifier: k-fold needs k >= 2, got %d", k)
	}
	byClass := splitByClass(y)
	for label, rows := range byClass {
		if len(rows) < k {
			return nil, eris.Errorf("classifier: class %d has %d samples, fewer than %d folds", label, len(rows), k)
		}
	}

	folds := make([][]int, k)
	for _, rows := range byClass {
		for j, i := range rows {
			folds[j%k] = append(folds[j%k], i)
		}
	}
	return folds, nil
}

// TrainTestSplit shuffles each class and holds out testFraction of it.
func TrainTestSplit(y []int, testFraction float64, rng *rand.Rand) (train, test []int, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, eris.Errorf("classifier: test fraction %.2f outside (0,1)", testFraction)
	}
	for label, rows := range splitByClass(y) {
		if len(rows) < 2 {
			return nil, nil, eris.Errorf("classifier: class %d has %d samples, need at least 2 to split", label, len(rows))
		}
		rng.Shuffle(len(rows), func(a, b int) { rows[a], rows[b] = rows[b], rows[a] })
		nTest := max(1, int(float64(len(rows))*testFraction+0.5))
		if nTest >= len(rows) {
			nTest = len(rows) - 1
		}
		test = append(test, rows[:nTest]...)
		train = append(train, rows[nTest:]...)
	}
	return train, test, nil
}

// CrossValidate returns the F1 score of a fresh model on each fold.
func CrossValidate(newModel func() Classifier, X [][]float64, y []int, k int) ([]float64, error) {
	folds, err := StratifiedKFold(y, k)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, 0, k)
	for f, held := range folds {
		inFold := make(map[int]bool, len(held))
		for _, i := range held {
			inFold[i] = true
		}
		var trainX, testX [][]float64
		var trainY, testY []int
		for i := range X {
			if inFold[i] {
				testX = append(testX, X[i])
				testY = append(testY, y[i])
			} else {
				trainX = append(trainX, X[i])
				trainY = append(trainY, y[i])
			}
		}

		m := newModel()
		if err := m.Fit(trainX, trainY); err != nil {
			return nil, eris.Wrapf(err, "classifier: fit %s fold %d", m.Name(), f)
		}
		scores = append(scores, Evaluate(testY, PredictLabels(m, testX)).F1)
	}
	return scores, nil
}

// Subset gathers the rows and labels at idx.
func Subset(X [][]float64, y []int, idx []int) ([][]float64, []int) {
	sx := make([][]float64, len(idx))
	sy := make([]int, len(idx))
	for j, i := range idx {
		sx[j] = X[i]
		sy[j] = y[i]
	}
	return sx, sy
}

// splitByClass returns row indices per label, 0 first, in input order.
func splitByClass(y []int) [][]int {
	byClass := make([][]int, 2)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	return byClass
}
