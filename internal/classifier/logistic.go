package classifier

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LogisticRegression is an L2-regularized logistic model fitted by
// full-batch gradient descent with balanced class weights.
type LogisticRegression struct {
	Weights      []float64 `json:"weights"`
	Bias         float64   `json:"bias"`
	LearningRate float64   `json:"learning_rate"`
	Epochs       int       `json:"epochs"`
	L2           float64   `json:"l2"`
}

// NewLogisticRegression returns an unfitted model with default settings.
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{
		LearningRate: 0.5,
		Epochs:       1000,
		L2:           1e-3,
	}
}

func (m *LogisticRegression) Name() string { return nameLogistic }

func (m *LogisticRegression) Fit(X [][]float64, y []int) error {
	d, err := checkTrainingSet(X, y)
	if err != nil {
		return err
	}
	n := len(X)

	data := make([]float64, 0, n*d)
	for _, row := range X {
		data = append(data, row...)
	}
	xm := mat.NewDense(n, d, data)

	sw := balancedWeights(y)
	m.Weights = make([]float64, d)
	m.Bias = 0

	w := mat.NewVecDense(d, m.Weights)
	z := mat.NewVecDense(n, nil)
	diff := make([]float64, n)
	grad := mat.NewVecDense(d, nil)
	nf := float64(n)

	for epoch := 0; epoch < m.Epochs; epoch++ {
		z.MulVec(xm, w)
		for i := 0; i < n; i++ {
			p := sigmoid(z.AtVec(i) + m.Bias)
			diff[i] = sw[i] * (p - float64(y[i]))
		}
		grad.MulVec(xm.T(), mat.NewVecDense(n, diff))
		for j := 0; j < d; j++ {
			m.Weights[j] -= m.LearningRate * (grad.AtVec(j)/nf + m.L2*m.Weights[j])
		}
		m.Bias -= m.LearningRate * floats.Sum(diff) / nf
	}
	return nil
}

func (m *LogisticRegression) PredictProba(x []float64) float64 {
	if len(x) != len(m.Weights) {
		return math.NaN()
	}
	return sigmoid(floats.Dot(m.Weights, x) + m.Bias)
}
