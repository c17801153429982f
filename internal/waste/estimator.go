package waste

import "github.com/sells-group/wastewise/internal/model"

// Estimator turns a snapshot and its derived features into a waste
// probability.
type Estimator interface {
	Source() model.Source
	Confidence() float64
	Probability(s model.ItemSnapshot, d model.DerivedFeatures) (float64, error)
}

type ruleEstimator struct{}

func (ruleEstimator) Source() model.Source { return model.SourceRuleBased }
func (ruleEstimator) Confidence() float64  { return 0.65 }

func (ruleEstimator) Probability(s model.ItemSnapshot, d model.DerivedFeatures) (float64, error) {
	return ruleProbability(s, d), nil
}

type modelEstimator struct {
	bundle *Bundle
}

func (modelEstimator) Source() model.Source { return model.SourceModel }
func (modelEstimator) Confidence() float64  { return 0.85 }

func (e modelEstimator) Probability(s model.ItemSnapshot, d model.DerivedFeatures) (float64, error) {
	return e.bundle.probability(s, d)
}
