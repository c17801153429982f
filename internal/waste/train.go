package waste

import (
	"context"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/wastewise/internal/classifier"
	"github.com/sells-group/wastewise/internal/model"
)

// Options tune training.
type Options struct {
	SyntheticSamples int    // initial training set size
	RetrainSamples   int    // regenerated set size for a retrain without data
	Seed             uint64 // seeds synthetic data and the split
	CVFolds          int
	TestFraction     float64
	Classifier       classifier.Params
}

// DefaultOptions returns the production training setup.
func DefaultOptions() Options {
	return Options{
		SyntheticSamples: 1000,
		RetrainSamples:   1200,
		Seed:             42,
		CVFolds:          5,
		TestFraction:     0.2,
		Classifier:       classifier.DefaultParams(),
	}
}

// fit trains a new bundle on samples. It neither saves nor publishes it.
func fit(ctx context.Context, opts Options, samples []model.TrainingSample, now time.Time) (*Bundle, error) {
	categories := slices.Clone(model.Categories)
	X := make([][]float64, len(samples))
	y := make([]int, len(samples))
	for i, ts := range samples {
		s := ts.ItemSnapshot
		s.Category = model.ParseCategory(string(s.Category))
		seasonal := ts.SeasonalFactor
		if seasonal == 0 {
			seasonal = DefaultSeasonalFactor
		}
		X[i] = featureVector(categories, s, Derive(s, seasonal))
		if ts.WillExpireUnsold {
			y[i] = 1
		}
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed+1))
	trainIdx, testIdx, err := classifier.TrainTestSplit(y, opts.TestFraction, rng)
	if err != nil {
		return nil, eris.Wrap(err, "waste: split training data")
	}
	trainX, trainY := classifier.Subset(X, y, trainIdx)
	testX, testY := classifier.Subset(X, y, testIdx)

	scaler, err := classifier.FitScaler(trainX)
	if err != nil {
		return nil, eris.Wrap(err, "waste: fit scaler")
	}
	if trainX, err = scaler.TransformAll(trainX); err != nil {
		return nil, err
	}
	if testX, err = scaler.TransformAll(testX); err != nil {
		return nil, err
	}

	sel, err := classifier.SelectBest(ctx, classifier.DefaultCandidates(opts.Classifier), trainX, trainY, opts.CVFolds)
	if err != nil {
		return nil, eris.Wrap(err, "waste: select classifier")
	}

	clf := sel.Candidate.New()
	if err := clf.Fit(trainX, trainY); err != nil {
		return nil, eris.Wrapf(err, "waste: fit %s", sel.Candidate.Name)
	}
	scores := classifier.Evaluate(testY, classifier.PredictLabels(clf, testX))

	enc, err := classifier.Encode(clf)
	if err != nil {
		return nil, err
	}

	b := &Bundle{
		Model:        enc,
		Scaler:       *scaler,
		Categories:   categories,
		FeatureNames: slices.Clone(FeatureNames),
		Metrics: model.TrainingMetrics{
			ModelName:       sel.Candidate.Name,
			Accuracy:        scores.Accuracy,
			Precision:       scores.Precision,
			Recall:          scores.Recall,
			F1:              scores.F1,
			CVScore:         sel.CVScore,
			TrainedAt:       now,
			TrainingSamples: len(trainIdx),
		},
		Trained: true,
		clf:     clf,
	}

	zap.L().Info("waste: trained classifier",
		zap.String("model", sel.Candidate.Name),
		zap.Float64("cv_f1", sel.CVScore),
		zap.Float64("test_f1", scores.F1),
		zap.Int("samples", len(samples)),
	)
	return b, nil
}
