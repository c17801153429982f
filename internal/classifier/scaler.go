package classifier

import (
	"math"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/stat"
)

// StandardScaler standardizes features to zero mean and unit variance.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// FitScaler computes per-column mean and standard deviation. Constant
// columns get a scale of 1 so they pass through centered.
func FitScaler(X [][]float64) (*StandardScaler, error) {
	if len(X) == 0 {
		return nil, eris.New("classifier: fit scaler on empty set")
	}
	d := len(X[0])
	s := &StandardScaler{Mean: make([]float64, d), Scale: make([]float64, d)}
	col := make([]float64, len(X))
	for j := 0; j < d; j++ {
		for i, row := range X {
			if len(row) != d {
				return nil, eris.Errorf("classifier: row %d has %d features, want %d", i, len(row), d)
			}
			col[i] = row[j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		s.Mean[j] = mean
		s.Scale[j] = std
	}
	return s, nil
}

// Transform returns a standardized copy of x.
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) {
		return nil, eris.Errorf("classifier: scaler expects %d features, got %d", len(s.Mean), len(x))
	}
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out, nil
}

// TransformAll standardizes every row of X.
func (s *StandardScaler) TransformAll(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, row := range X {
		t, err := s.Transform(row)
		if err != nil {
			return nil, eris.Wrapf(err, "classifier: transform row %d", i)
		}
		out[i] = t
	}
	return out, nil
}
