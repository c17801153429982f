package waste

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/wastewise/internal/model"
)

// Predictor estimates waste probability for inventory snapshots. Predict is
// safe for concurrent use with Train and Retrain: readers see either the
// previous bundle or the new one, never a mix.
type Predictor struct {
	opts   Options
	store  ModelStore
	bundle atomic.Pointer[Bundle]
	mu     sync.Mutex // serializes training
	now    func() time.Time
}

// NewPredictor returns an untrained predictor. Call Initialize to load or
// train a classifier; until then predictions use the rule.
func NewPredictor(opts Options, store ModelStore) *Predictor {
	return &Predictor{opts: opts, store: store, now: time.Now}
}

// Initialize loads the persisted bundle, or trains and saves a new one from
// synthetic data. Failures are logged and leave the predictor on the rule.
func (p *Predictor) Initialize(ctx context.Context) {
	log := zap.L().With(zap.String("component", "waste"))

	b, err := p.store.Load()
	if err == nil {
		p.bundle.Store(b)
		log.Info("waste: loaded classifier", zap.String("model", b.Metrics.ModelName))
		return
	}
	if !eris.Is(err, ErrNoModel) {
		log.Warn("waste: load classifier failed, retraining", zap.Error(err))
	}

	samples, err := synthetic(p.opts.SyntheticSamples, p.opts.Seed)
	if err != nil {
		log.Error("waste: initial training skipped, using rule-based estimates", zap.Error(err))
		return
	}
	if res := p.Train(ctx, samples); res.Status != model.TrainStatusSuccess {
		p.bundle.Store(nil)
		log.Error("waste: initial training failed, using rule-based estimates", zap.String("error", res.Error))
	}
}

// Trained reports whether a classifier is loaded.
func (p *Predictor) Trained() bool {
	return p.bundle.Load() != nil
}

// Predict estimates waste for s. It never fails: internal errors produce a
// fallback estimate carrying the error text.
func (p *Predictor) Predict(s model.ItemSnapshot) (est model.WasteEstimate) {
	defer func() {
		if r := recover(); r != nil {
			est = fallbackEstimate(s, eris.Errorf("waste: prediction panicked: %v", r))
		}
	}()

	s.Category = model.ParseCategory(string(s.Category))
	d := Derive(s, DefaultSeasonalFactor)
	e := p.estimator()

	prob, err := e.Probability(s, d)
	if err == nil && (math.IsNaN(prob) || math.IsInf(prob, 0)) {
		err = eris.Errorf("waste: %s produced non-finite probability", e.Source())
	}
	if err != nil {
		return fallbackEstimate(s, err)
	}
	prob = math.Max(0, math.Min(1, prob))

	return model.WasteEstimate{
		WasteProbability:     prob,
		PredictedWasteAmount: wasteAmount(s.CurrentStock, prob),
		Confidence:           e.Confidence(),
		RiskFactors:          riskFactors(s, d, prob),
		Source:               e.Source(),
	}
}

func (p *Predictor) estimator() Estimator {
	if b := p.bundle.Load(); b != nil {
		return modelEstimator{bundle: b}
	}
	return ruleEstimator{}
}

// Train fits a new classifier on samples, persists it and swaps it in. The
// current bundle stays in place when any step fails.
func (p *Predictor) Train(ctx context.Context, samples []model.TrainingSample) (res model.TrainResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	defer func() {
		if r := recover(); r != nil {
			err := eris.Errorf("waste: training panicked: %v", r)
			zap.L().Error("waste: training failed", zap.Error(err))
			res = model.TrainResult{Status: model.TrainStatusError, Error: err.Error(), RetrainedAt: now}
		}
	}()

	b, err := fit(ctx, p.opts, samples, now)
	if err == nil {
		err = p.store.Save(b)
	}
	if err != nil {
		zap.L().Error("waste: training failed", zap.Int("samples", len(samples)), zap.Error(err))
		return model.TrainResult{Status: model.TrainStatusError, Error: err.Error(), RetrainedAt: now}
	}

	p.bundle.Store(b)
	metrics := b.Metrics
	return model.TrainResult{
		Status:          model.TrainStatusSuccess,
		TrainingSamples: len(samples),
		Metrics:         &metrics,
		RetrainedAt:     now,
	}
}

// Retrain trains on samples, or on a freshly generated synthetic set when
// samples is empty.
func (p *Predictor) Retrain(ctx context.Context, samples []model.TrainingSample) model.TrainResult {
	if len(samples) == 0 {
		var err error
		if samples, err = synthetic(p.opts.RetrainSamples, p.opts.Seed); err != nil {
			zap.L().Error("waste: retrain skipped", zap.Error(err))
			return model.TrainResult{Status: model.TrainStatusError, Error: err.Error(), RetrainedAt: p.now()}
		}
	}
	return p.Train(ctx, samples)
}

func synthetic(n int, seed uint64) ([]model.TrainingSample, error) {
	if n <= 0 {
		return nil, eris.Errorf("waste: synthetic sample count must be positive, got %d", n)
	}
	return GenerateSynthetic(n, seed), nil
}

// PerformanceMetrics returns the metrics of the loaded classifier.
func (p *Predictor) PerformanceMetrics() (model.TrainingMetrics, bool) {
	b := p.bundle.Load()
	if b == nil {
		return model.TrainingMetrics{}, false
	}
	return b.Metrics, true
}

func wasteAmount(stock int, prob float64) int {
	return int(math.Floor(float64(max(stock, 0)) * prob))
}

func fallbackEstimate(s model.ItemSnapshot, err error) model.WasteEstimate {
	zap.L().Error("waste: prediction failed, returning fallback", zap.Error(err))
	return model.WasteEstimate{
		WasteProbability:     0.3,
		PredictedWasteAmount: wasteAmount(s.CurrentStock, 0.3),
		Confidence:           0.5,
		RiskFactors:          []model.RiskFactor{model.RiskPredictionError},
		Source:               model.SourceFallback,
		Error:                err.Error(),
	}
}
