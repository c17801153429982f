// Package analytics aggregates the prediction log and the waste and action
// outcomes recorded against it: risk distribution, waste trends, prediction
// accuracy, action effectiveness and exports.
package analytics

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/wastewise/internal/model"
	"github.com/sells-group/wastewise/internal/store"
)

// RiskLevel buckets a prediction by probability and time left.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskLevels lists the levels from least to most severe.
var RiskLevels = []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskCritical}

// RiskLevelFor returns the band for a prediction. Either a high probability
// or a near expiry is enough to escalate.
func RiskLevelFor(prob float64, daysUntilExpiry int) RiskLevel {
	switch {
	case prob >= 0.8 || daysUntilExpiry <= 1:
		return RiskCritical
	case prob >= 0.6 || daysUntilExpiry <= 3:
		return RiskHigh
	case prob >= 0.3 || daysUntilExpiry <= 7:
		return RiskMedium
	default:
		return RiskLow
	}
}

// riskWindow is how far back RiskDistribution looks.
const riskWindow = 24 * time.Hour

// exportLimit bounds the rows one export or trend query reads.
const exportLimit = 100000

// Distribution counts recent predictions per risk level.
type Distribution struct {
	Counts      map[RiskLevel]int     `json:"counts"`
	Percentages map[RiskLevel]float64 `json:"percentages"`
	Total       int                   `json:"total_products"`
}

// Service answers analytics queries over the prediction log.
type Service struct {
	store store.Store
	now   func() time.Time
}

// NewService creates a Service backed by st.
func NewService(st store.Store) *Service {
	return &Service{store: st, now: time.Now}
}

// Log appends one assessment to the prediction log.
func (s *Service) Log(ctx context.Context, rec *model.PredictionRecord) error {
	if err := s.store.InsertPrediction(ctx, rec); err != nil {
		return err
	}
	zap.L().Debug("analytics: prediction logged",
		zap.String("product_id", rec.ProductID),
		zap.Float64("waste_probability", rec.WasteProbability),
	)
	return nil
}

// RiskDistribution buckets the predictions of the last 24 hours.
func (s *Service) RiskDistribution(ctx context.Context) (*Distribution, error) {
	recs, err := s.store.ListPredictions(ctx, store.PredictionFilter{
		Since: s.now().Add(-riskWindow),
		Limit: exportLimit,
	})
	if err != nil {
		return nil, err
	}

	d := &Distribution{
		Counts:      make(map[RiskLevel]int, len(RiskLevels)),
		Percentages: make(map[RiskLevel]float64, len(RiskLevels)),
		Total:       len(recs),
	}
	for _, lvl := range RiskLevels {
		d.Counts[lvl] = 0
		d.Percentages[lvl] = 0
	}
	for _, r := range recs {
		d.Counts[RiskLevelFor(r.WasteProbability, r.DaysUntilExpiry)]++
	}
	if d.Total > 0 {
		for lvl, n := range d.Counts {
			d.Percentages[lvl] = round(float64(n)/float64(d.Total)*100, 1)
		}
	}
	return d, nil
}

// Recent returns the newest n predictions, newest first.
func (s *Service) Recent(ctx context.Context, n int) ([]model.PredictionRecord, error) {
	recs, err := s.store.ListPredictions(ctx, store.PredictionFilter{Limit: n})
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []model.PredictionRecord{}
	}
	return recs, nil
}

// Latest returns the newest prediction for a product.
func (s *Service) Latest(ctx context.Context, productID string) (*model.PredictionRecord, error) {
	return s.store.LatestPrediction(ctx, productID)
}

func round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
