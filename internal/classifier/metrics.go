package classifier

// Scores holds binary classification metrics. Undefined ratios are 0.
type Scores struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1_score"`
}

// Evaluate compares predicted labels against truth.
func Evaluate(yTrue, yPred []int) Scores {
	var tp, fp, fn, correct int
	for i := range yTrue {
		t, p := yTrue[i], yPred[i]
		if t == p {
			correct++
		}
		switch {
		case p == 1 && t == 1:
			tp++
		case p == 1 && t == 0:
			fp++
		case p == 0 && t == 1:
			fn++
		}
	}

	var s Scores
	if len(yTrue) > 0 {
		s.Accuracy = float64(correct) / float64(len(yTrue))
	}
	if tp+fp > 0 {
		s.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		s.Recall = float64(tp) / float64(tp+fn)
	}
	if s.Precision+s.Recall > 0 {
		s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
	}
	return s
}

// PredictLabels thresholds probabilities at 0.5.
func PredictLabels(c Classifier, X [][]float64) []int {
	out := make([]int, len(X))
	for i, x := range X {
		if c.PredictProba(x) > 0.5 {
			out[i] = 1
		}
	}
	return out
}
