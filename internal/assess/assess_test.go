package assess

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/wastewise/internal/action"
	"github.com/sells-group/wastewise/internal/model"
	"github.com/sells-group/wastewise/internal/waste"
)

var testNow = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

func ptr(f float64) *float64 { return &f }

func item(id, category, expiry string, stock, velocity float64) model.InventoryItem {
	return model.InventoryItem{
		ProductID:       id,
		ProductName:     id,
		Category:        category,
		CurrentStock:    ptr(stock),
		ExpiryDate:      expiry,
		SalesVelocity7d: ptr(velocity),
	}
}

func newTestAssessor(limit int) *Assessor {
	a := New(waste.NewPredictor(waste.DefaultOptions(), nil), action.NewRecommender(), limit)
	a.now = func() time.Time { return testNow }
	return a
}

type memRecorder struct {
	mu   sync.Mutex
	recs []*model.PredictionRecord
	err  error
}

func (m *memRecorder) Log(_ context.Context, rec *model.PredictionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.recs = append(m.recs, rec)
	return nil
}

func TestAssess_PreservesOrderAndIsolatesFailures(t *testing.T) {
	a := newTestAssessor(3)

	items := []model.InventoryItem{
		item("PROD_001", "produce", "2025-01-17", 50, 2),
		item("BAD", "dairy", "not-a-date", 10, 1),
		item("PROD_003", "frozen", "2025-03-01", 10, 5),
		item("PROD_004", "bakery", "2025-01-14", 40, 3),
	}

	results := a.Assess(context.Background(), items)
	require.Len(t, results, 4)
	for i, r := range results {
		assert.Equal(t, items[i].ProductID, r.ProductID)
	}

	bad := results[1]
	assert.True(t, bad.Failed())
	assert.Equal(t, model.ActionMonitor, bad.RecommendedAction)
	assert.Contains(t, bad.Error, "Prediction failed")
	assert.Zero(t, bad.WillExpireUnsold)

	urgent := results[0]
	assert.False(t, urgent.Failed())
	assert.Equal(t, 1, urgent.DaysUntilExpiry)
	assert.Equal(t, model.SourceRuleBased, urgent.Source)
	assert.Equal(t, 1, urgent.WillExpireUnsold)
	assert.Equal(t, urgent.Decision.Action, urgent.RecommendedAction)
	assert.LessOrEqual(t, urgent.PredictedWasteAmount, 50)

	expired := results[3]
	assert.Equal(t, -2, expired.DaysUntilExpiry)
	assert.InDelta(t, 1.0, expired.WasteProbability, 1e-9)
	assert.Equal(t, model.ActionDonate, expired.RecommendedAction)
	assert.Equal(t, model.UrgencyCritical, expired.ActionUrgency)
}

func TestAssess_RoundsProbability(t *testing.T) {
	a := New(stubPredictor{prob: 0.123456}, action.NewRecommender(), 1)
	a.now = func() time.Time { return testNow }

	res := a.Assess(context.Background(), []model.InventoryItem{item("X", "meat", "2025-01-30", 5, 1)})
	require.Len(t, res, 1)
	assert.Equal(t, 0.123, res[0].WasteProbability)
	assert.Zero(t, res[0].WillExpireUnsold)
}

func TestAssess_Empty(t *testing.T) {
	assert.Empty(t, newTestAssessor(4).Assess(context.Background(), nil))
}

func TestAssess_CancelledContext(t *testing.T) {
	a := newTestAssessor(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := a.Assess(ctx, []model.InventoryItem{item("A", "produce", "2025-01-20", 5, 1)})
	require.Len(t, results, 1)
	assert.True(t, results[0].Failed())
	assert.Equal(t, model.ActionMonitor, results[0].RecommendedAction)
}

type stubPredictor struct {
	prob     float64
	inFlight *atomic.Int32
	peak     *atomic.Int32
}

func (s stubPredictor) Predict(snap model.ItemSnapshot) model.WasteEstimate {
	if s.inFlight != nil {
		n := s.inFlight.Add(1)
		for {
			p := s.peak.Load()
			if n <= p || s.peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		s.inFlight.Add(-1)
	}
	return model.WasteEstimate{
		WasteProbability:     s.prob,
		PredictedWasteAmount: int(float64(snap.CurrentStock) * s.prob),
		Confidence:           0.85,
		RiskFactors:          []model.RiskFactor{},
		Source:               model.SourceModel,
	}
}

func TestAssess_RespectsLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	a := New(stubPredictor{prob: 0.4, inFlight: &inFlight, peak: &peak}, action.NewRecommender(), 2)

	items := make([]model.InventoryItem, 12)
	for i := range items {
		items[i] = item("P", "dairy", "2099-01-01", 10, 2)
	}
	results := a.Assess(context.Background(), items)
	assert.Len(t, results, 12)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestAssessSnapshot_Records(t *testing.T) {
	rec := &memRecorder{}
	a := newTestAssessor(1).WithRecorder(rec)

	s := model.NewSnapshot(45, 2, 8.5, model.CategoryDairy)
	res := a.AssessSnapshot(context.Background(), "PROD_002", s)
	require.Len(t, rec.recs, 1)

	logged := rec.recs[0]
	assert.Equal(t, "PROD_002", logged.ProductID)
	assert.Equal(t, model.CategoryDairy, logged.Category)
	assert.Equal(t, res.WasteProbability, logged.WasteProbability)
	assert.Equal(t, res.RecommendedAction, logged.RecommendedAction)
	assert.Equal(t, testNow, logged.PredictedAt)
	assert.Equal(t, 2, logged.DaysUntilExpiry)
}

func TestAssessSnapshot_RecorderErrorIsNotFatal(t *testing.T) {
	a := newTestAssessor(1).WithRecorder(&memRecorder{err: errors.New("disk full")})

	res := a.AssessSnapshot(context.Background(), "PROD_001", model.NewSnapshot(10, 5, 2, model.CategoryMeat))
	assert.False(t, res.Failed())
	assert.NotEmpty(t, res.RecommendedAction)
}
