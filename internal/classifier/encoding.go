package classifier

import "github.com/rotisserie/eris"

// Encoded is a serializable tagged union over the concrete classifiers.
type Encoded struct {
	Kind     string              `json:"kind"`
	Logistic *LogisticRegression `json:"logistic,omitempty"`
	Forest   *RandomForest       `json:"forest,omitempty"`
	Boosting *GradientBoosting   `json:"boosting,omitempty"`
}

// Encode wraps a fitted classifier for persistence.
func Encode(c Classifier) (Encoded, error) {
	switch m := c.(type) {
	case *LogisticRegression:
		return Encoded{Kind: nameLogistic, Logistic: m}, nil
	case *RandomForest:
		return Encoded{Kind: nameForest, Forest: m}, nil
	case *GradientBoosting:
		return Encoded{Kind: nameBoosting, Boosting: m}, nil
	default:
		return Encoded{}, eris.Errorf("classifier: cannot encode %T", c)
	}
}

// Decode returns the classifier held by e.
func (e Encoded) Decode() (Classifier, error) {
	switch {
	case e.Kind == nameLogistic && e.Logistic != nil:
		return e.Logistic, nil
	case e.Kind == nameForest && e.Forest != nil:
		return e.Forest, nil
	case e.Kind == nameBoosting && e.Boosting != nil:
		return e.Boosting, nil
	default:
		return nil, eris.Errorf("classifier: cannot decode kind %q", e.Kind)
	}
}
