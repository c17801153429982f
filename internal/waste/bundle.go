package waste

import (
	"slices"

	"github.com/rotisserie/eris"

	"github.com/sells-group/wastewise/internal/classifier"
	"github.com/sells-group/wastewise/internal/model"
)

// Bundle is the complete trained state of the predictor. A bundle is never
// mutated after it is published; retraining builds a new one.
type Bundle struct {
	Model        classifier.Encoded        `json:"model"`
	Scaler       classifier.StandardScaler `json:"scaler"`
	Categories   []model.Category          `json:"categories"`
	FeatureNames []string                  `json:"feature_names"`
	Metrics      model.TrainingMetrics     `json:"metrics"`
	Trained      bool                      `json:"is_trained"`

	clf classifier.Classifier
}

// prepare decodes the classifier and checks the bundle is usable.
func (b *Bundle) prepare() error {
	if !b.Trained {
		return eris.New("waste: bundle is not trained")
	}
	if !slices.Equal(b.FeatureNames, FeatureNames) {
		return eris.Errorf("waste: bundle features %v do not match %v", b.FeatureNames, FeatureNames)
	}
	if len(b.Scaler.Mean) != len(FeatureNames) || len(b.Scaler.Scale) != len(FeatureNames) {
		return eris.Errorf("waste: scaler has %d columns, want %d", len(b.Scaler.Mean), len(FeatureNames))
	}
	if !slices.Contains(b.Categories, model.CategoryOther) {
		return eris.New("waste: category encoding has no fallback entry")
	}
	clf, err := b.Model.Decode()
	if err != nil {
		return eris.Wrap(err, "waste: decode classifier")
	}
	b.clf = clf
	return nil
}

// probability scores one snapshot with the bundled scaler and classifier.
func (b *Bundle) probability(s model.ItemSnapshot, d model.DerivedFeatures) (float64, error) {
	x, err := b.Scaler.Transform(featureVector(b.Categories, s, d))
	if err != nil {
		return 0, eris.Wrap(err, "waste: scale features")
	}
	return b.clf.PredictProba(x), nil
}
