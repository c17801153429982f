package action

import (
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/wastewise/internal/model"
)

const monitorReason = "Error in recommendation system - defaulting to monitoring"

// Recommender maps waste risk to an ActionDecision. It holds only static
// tables and is safe for concurrent use.
type Recommender struct {
	now func() time.Time
}

// NewRecommender returns a Recommender.
func NewRecommender() *Recommender {
	return &Recommender{now: time.Now}
}

// Recommend decides what to do with an item. It never fails: an internal
// error yields a monitor decision carrying the error text.
func (r *Recommender) Recommend(prob float64, days, stock int, velocity float64, category model.Category) (d model.ActionDecision) {
	defer func() {
		if rec := recover(); rec != nil {
			d = r.monitor(eris.Errorf("action: recommendation panicked: %v", rec))
		}
	}()

	if math.IsNaN(prob) || math.IsInf(prob, 0) {
		return r.monitor(eris.Errorf("action: waste probability %v is not finite", prob))
	}

	category = model.ParseCategory(string(category))
	ratio := float64(stock) / math.Max(velocity, 1)
	sit := situation{prob: prob, days: days, ratio: ratio, profile: ProfileFor(category)}
	b := evaluate(sit)
	urgency := b.urgency(sit)

	discount := 0
	if b.action == model.ActionDiscount {
		discount = OptimalDiscount(prob, days, category, stock, velocity)
	}

	return model.ActionDecision{
		Action:             b.action,
		Urgency:            urgency,
		Trigger:            b.reason,
		SuggestedDiscount:  discount,
		Reasoning:          reasoning(b.action, prob, days, ratio, category),
		Timeline:           timeline(b.action, urgency),
		Confidence:         confidence(prob, days),
		AlternativeActions: alternatives(b.action, prob, days),
		RecommendedAt:      r.now(),
	}
}

// RecommendFor is Recommend driven by a snapshot and its estimate.
func (r *Recommender) RecommendFor(s model.ItemSnapshot, est model.WasteEstimate) model.ActionDecision {
	return r.Recommend(est.WasteProbability, s.DaysUntilExpiry, s.CurrentStock, s.SalesVelocity7d, s.Category)
}

func (r *Recommender) monitor(err error) model.ActionDecision {
	zap.L().Error("action: recommendation failed, returning monitor", zap.Error(err))
	return model.ActionDecision{
		Action:             model.ActionMonitor,
		Urgency:            model.UrgencyLow,
		Reasoning:          []string{monitorReason},
		Timeline:           model.Timeline{Immediate: []string{}, ShortTerm: []string{}, LongTerm: []string{}},
		Confidence:         0.5,
		AlternativeActions: []model.Alternative{},
		Error:              err.Error(),
		RecommendedAt:      r.now(),
	}
}
