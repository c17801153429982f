// Package assess runs the waste predictor and action recommender over
// batches of inventory items.
package assess

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/wastewise/internal/model"
)

// Predictor produces a waste estimate for a snapshot.
type Predictor interface {
	Predict(s model.ItemSnapshot) model.WasteEstimate
}

// Recommender turns an estimate into an action decision.
type Recommender interface {
	RecommendFor(s model.ItemSnapshot, est model.WasteEstimate) model.ActionDecision
}

// Recorder persists assessments to the prediction log.
type Recorder interface {
	Log(ctx context.Context, rec *model.PredictionRecord) error
}

// Result is the assessment of one item.
type Result struct {
	ProductID            string               `json:"product_id"`
	Category             model.Category       `json:"category,omitempty"`
	WillExpireUnsold     int                  `json:"will_expire_unsold"` // 1 when probability > 0.5
	WasteProbability     float64              `json:"waste_probability"`  // rounded to 3 places
	PredictedWasteAmount int                  `json:"predicted_waste_amount"`
	ConfidenceScore      float64              `json:"confidence_score"`
	Source               model.Source         `json:"source,omitempty"`
	RecommendedAction    model.Action         `json:"recommended_action"`
	ActionUrgency        model.Urgency        `json:"action_urgency,omitempty"`
	SuggestedDiscount    int                  `json:"suggested_discount"`
	Reasoning            []string             `json:"reasoning,omitempty"`
	RiskFactors          []model.RiskFactor   `json:"risk_factors,omitempty"`
	DaysUntilExpiry      int                  `json:"days_until_expiry"`
	PredictedAt          time.Time            `json:"prediction_timestamp"`
	Error                string               `json:"error,omitempty"`
	Decision             model.ActionDecision `json:"-"`
}

// Failed reports whether the item could not be assessed.
func (r Result) Failed() bool { return r.Error != "" }

// Record converts a successful result into a prediction log entry.
func (r Result) Record() *model.PredictionRecord {
	return &model.PredictionRecord{
		ProductID:            r.ProductID,
		Category:             r.Category,
		PredictedAt:          r.PredictedAt,
		WasteProbability:     r.WasteProbability,
		PredictedWasteAmount: r.PredictedWasteAmount,
		ConfidenceScore:      r.ConfidenceScore,
		Source:               r.Source,
		RecommendedAction:    r.RecommendedAction,
		ActionUrgency:        r.ActionUrgency,
		SuggestedDiscount:    r.SuggestedDiscount,
		DaysUntilExpiry:      r.DaysUntilExpiry,
		RiskFactors:          r.RiskFactors,
		Reasoning:            r.Reasoning,
	}
}

// Assessor fans assessments out over a bounded number of goroutines.
type Assessor struct {
	predictor   Predictor
	recommender Recommender
	recorder    Recorder
	limit       int
	now         func() time.Time
}

// New creates an Assessor running at most limit items at once.
func New(p Predictor, r Recommender, limit int) *Assessor {
	return &Assessor{
		predictor:   p,
		recommender: r,
		limit:       max(limit, 1),
		now:         time.Now,
	}
}

// WithRecorder logs every successful assessment through rec.
func (a *Assessor) WithRecorder(rec Recorder) *Assessor {
	a.recorder = rec
	return a
}

// Assess evaluates items concurrently. Results are in input order; an item
// that cannot be assessed yields a monitor result and never aborts the batch.
func (a *Assessor) Assess(ctx context.Context, items []model.InventoryItem) []Result {
	now := a.now()
	results := make([]Result, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.limit)

	var failed atomic.Int64
	for i, it := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = failure(it.ProductID, err, now)
				failed.Add(1)
				return nil
			}

			s, err := it.Snapshot(now)
			if err != nil {
				zap.L().Error("assess: bad item", zap.String("product_id", it.ProductID), zap.Error(err))
				results[i] = failure(it.ProductID, err, now)
				failed.Add(1)
				return nil
			}

			results[i] = a.AssessSnapshot(gctx, it.ProductID, s)
			return nil
		})
	}
	_ = g.Wait() // every task returns nil

	zap.L().Info("assess: batch complete",
		zap.Int("items", len(items)),
		zap.Int64("failed", failed.Load()),
	)
	return results
}

// AssessSnapshot evaluates a single item and records it when a recorder is
// set. Recording failures are logged, not returned.
func (a *Assessor) AssessSnapshot(ctx context.Context, productID string, s model.ItemSnapshot) Result {
	est := a.predictor.Predict(s)
	d := a.recommender.RecommendFor(s, est)

	res := Result{
		ProductID:            productID,
		Category:             s.Category,
		WasteProbability:     round3(est.WasteProbability),
		PredictedWasteAmount: est.PredictedWasteAmount,
		ConfidenceScore:      est.Confidence,
		Source:               est.Source,
		RecommendedAction:    d.Action,
		ActionUrgency:        d.Urgency,
		SuggestedDiscount:    d.SuggestedDiscount,
		Reasoning:            d.Reasoning,
		RiskFactors:          est.RiskFactors,
		DaysUntilExpiry:      s.DaysUntilExpiry,
		PredictedAt:          a.now(),
		Decision:             d,
	}
	if est.WasteProbability > 0.5 {
		res.WillExpireUnsold = 1
	}

	if a.recorder != nil {
		if err := a.recorder.Log(ctx, res.Record()); err != nil {
			zap.L().Warn("assess: failed to log prediction",
				zap.String("product_id", productID),
				zap.Error(err),
			)
		}
	}
	return res
}

func failure(productID string, err error, now time.Time) Result {
	return Result{
		ProductID:         productID,
		RecommendedAction: model.ActionMonitor,
		PredictedAt:       now,
		Error:             "Prediction failed: " + err.Error(),
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
