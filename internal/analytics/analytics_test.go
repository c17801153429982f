package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/wastewise/internal/model"
	"github.com/sells-group/wastewise/internal/store"
)

var testNow = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "analytics.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	svc := NewService(st)
	svc.now = func() time.Time { return testNow }
	return svc
}

func logRecord(t *testing.T, svc *Service, id string, at time.Time, prob float64, days, amount int, cat model.Category) *model.PredictionRecord {
	t.Helper()
	rec := &model.PredictionRecord{
		ProductID:            id,
		Category:             cat,
		PredictedAt:          at,
		WasteProbability:     prob,
		PredictedWasteAmount: amount,
		ConfidenceScore:      0.85,
		Source:               model.SourceModel,
		RecommendedAction:    model.ActionKeep,
		ActionUrgency:        model.UrgencyLow,
		DaysUntilExpiry:      days,
		RiskFactors:          []model.RiskFactor{},
		Reasoning:            []string{"ok"},
	}
	require.NoError(t, svc.Log(context.Background(), rec))
	return rec
}

func TestRiskLevelFor(t *testing.T) {
	tests := []struct {
		prob float64
		days int
		want RiskLevel
	}{
		{0.85, 10, RiskCritical},
		{0.1, 1, RiskCritical},
		{0.1, -2, RiskCritical},
		{0.65, 10, RiskHigh},
		{0.1, 3, RiskHigh},
		{0.35, 10, RiskMedium},
		{0.1, 7, RiskMedium},
		{0.29, 8, RiskLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RiskLevelFor(tt.prob, tt.days), "p=%v days=%d", tt.prob, tt.days)
	}
}

func TestRiskDistribution(t *testing.T) {
	svc := newTestService(t)

	logRecord(t, svc, "A", testNow.Add(-time.Hour), 0.9, 5, 10, model.CategoryProduce)
	logRecord(t, svc, "B", testNow.Add(-2*time.Hour), 0.2, 2, 3, model.CategoryDairy)
	logRecord(t, svc, "C", testNow.Add(-3*time.Hour), 0.1, 20, 0, model.CategoryDairy)
	logRecord(t, svc, "D", testNow.Add(-4*time.Hour), 0.1, 30, 0, model.CategoryMeat)
	logRecord(t, svc, "E", testNow.Add(-48*time.Hour), 0.95, 0, 20, model.CategoryBakery)

	d, err := svc.RiskDistribution(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, d.Total, "older than 24h is excluded")
	assert.Equal(t, map[RiskLevel]int{RiskCritical: 1, RiskHigh: 1, RiskMedium: 0, RiskLow: 2}, d.Counts)
	assert.InDelta(t, 50.0, d.Percentages[RiskLow], 1e-9)
	assert.InDelta(t, 25.0, d.Percentages[RiskCritical], 1e-9)
	assert.InDelta(t, 0.0, d.Percentages[RiskMedium], 1e-9)
}

func TestRiskDistribution_Empty(t *testing.T) {
	svc := newTestService(t)

	d, err := svc.RiskDistribution(context.Background())
	require.NoError(t, err)
	assert.Zero(t, d.Total)
	assert.Len(t, d.Counts, 4)
	assert.Len(t, d.Percentages, 4)
}

func TestRecentAndLatest(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	logRecord(t, svc, "A", testNow.Add(-3*time.Hour), 0.3, 5, 1, model.CategoryProduce)
	want := logRecord(t, svc, "A", testNow.Add(-time.Hour), 0.6, 4, 5, model.CategoryProduce)
	logRecord(t, svc, "B", testNow.Add(-2*time.Hour), 0.4, 6, 2, model.CategoryDairy)

	recent, err := svc.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, want.ID, recent[0].ID)
	assert.Equal(t, "B", recent[1].ProductID)

	latest, err := svc.Latest(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, want.ID, latest.ID)

	_, err = svc.Latest(ctx, "Z")
	assert.ErrorIs(t, err, store.ErrNotFound)

	none, err := newTestService(t).Recent(ctx, 5)
	require.NoError(t, err)
	assert.NotNil(t, none)
}

func logEvent(t *testing.T, svc *Service, id string, at time.Time, amount int, value float64, cat model.Category) *model.WasteEvent {
	t.Helper()
	ev := &model.WasteEvent{
		ProductID:   id,
		Category:    cat,
		WasteAmount: amount,
		Reason:      model.ReasonExpired,
		ValueLost:   value,
		WastedAt:    at,
	}
	require.NoError(t, svc.LogWasteEvent(context.Background(), ev))
	return ev
}

func TestWasteTrends(t *testing.T) {
	svc := newTestService(t)

	logRecord(t, svc, "A", testNow.Add(-26*time.Hour), 0.8, 5, 4, model.CategoryProduce)
	logRecord(t, svc, "B", testNow.Add(-25*time.Hour), 0.3, 2, 1, model.CategoryDairy)
	logRecord(t, svc, "C", testNow.Add(-2*time.Hour), 0.9, 1, 8, model.CategoryProduce)
	logRecord(t, svc, "D", testNow.AddDate(0, 0, -40), 0.9, 1, 50, model.CategoryProduce)

	logEvent(t, svc, "A", testNow.Add(-20*time.Hour), 4, 10, model.CategoryProduce)
	logEvent(t, svc, "B", testNow.Add(-time.Hour), 2, 5.5, model.CategoryDairy)
	logEvent(t, svc, "E", testNow.AddDate(0, 0, -40), 9, 30, model.CategoryProduce)

	tr, err := svc.WasteTrends(context.Background(), 30, "")
	require.NoError(t, err)
	assert.Equal(t, 2, tr.TotalEvents, "older than the period is excluded")
	assert.Equal(t, 6, tr.TotalWasteAmount)
	assert.InDelta(t, 15.5, tr.TotalValueLost, 1e-9)
	assert.InDelta(t, 0.2, tr.AverageDailyWaste, 1e-9)
	assert.InDelta(t, 0.52, tr.AverageDailyValueLost, 1e-9)

	require.Len(t, tr.Daily, 2)
	assert.Equal(t, DailyTrend{Date: "2025-01-14", Events: 1, WasteAmount: 4, ValueLost: 10}, tr.Daily[0])
	assert.Equal(t, DailyTrend{Date: "2025-01-15", Events: 1, WasteAmount: 2, ValueLost: 5.5}, tr.Daily[1])

	assert.Equal(t, CategoryTrend{Amount: 4, Value: 10, Count: 1}, tr.CategoryBreakdown[model.CategoryProduce])
	assert.Equal(t, CategoryTrend{Amount: 2, Value: 5.5, Count: 1}, tr.CategoryBreakdown[model.CategoryDairy])
	assert.Equal(t, TrendInsufficientData, tr.TrendDirection)

	// A called waste and was wasted; B called no waste but was wasted; C
	// called waste and was not.
	assert.Equal(t, 3, tr.PredictionAccuracy.Total)
	assert.Equal(t, 1, tr.PredictionAccuracy.Correct)
	assert.InDelta(t, 0.333, tr.PredictionAccuracy.Overall, 1e-9)

	dairy, err := svc.WasteTrends(context.Background(), 30, model.CategoryDairy)
	require.NoError(t, err)
	assert.Equal(t, 1, dairy.TotalEvents)
	assert.Equal(t, model.CategoryDairy, dairy.Category)
	assert.Equal(t, Accuracy{Overall: 0, Correct: 0, Total: 1}, dairy.PredictionAccuracy)
}

func TestWasteTrends_Empty(t *testing.T) {
	svc := newTestService(t)
	logRecord(t, svc, "A", testNow.Add(-time.Hour), 0.9, 1, 8, model.CategoryProduce)

	tr, err := svc.WasteTrends(context.Background(), 0, "")
	require.NoError(t, err)
	assert.Equal(t, 1, tr.PeriodDays)
	assert.Zero(t, tr.TotalEvents)
	assert.Zero(t, tr.TotalValueLost)
	assert.NotNil(t, tr.Daily)
	assert.Empty(t, tr.CategoryBreakdown)
	assert.Equal(t, TrendStable, tr.TrendDirection)
	assert.Equal(t, Accuracy{}, tr.PredictionAccuracy)
}

func TestWasteTrends_AccuracyMatchWindow(t *testing.T) {
	svc := newTestService(t)

	// Wasted eight days after the prediction: too late to count.
	logRecord(t, svc, "A", testNow.AddDate(0, 0, -9), 0.9, 3, 5, model.CategoryMeat)
	logEvent(t, svc, "A", testNow.AddDate(0, 0, -1), 5, 20, model.CategoryMeat)
	// Low probability and never wasted: a correct call.
	logRecord(t, svc, "B", testNow.AddDate(0, 0, -2), 0.2, 9, 0, model.CategoryMeat)

	tr, err := svc.WasteTrends(context.Background(), 30, "")
	require.NoError(t, err)
	assert.Equal(t, Accuracy{Overall: 0.5, Correct: 1, Total: 2}, tr.PredictionAccuracy)
}

func TestDirection(t *testing.T) {
	weeks := func(prev, recent int) []DailyTrend {
		var out []DailyTrend
		for range 7 {
			out = append(out, DailyTrend{WasteAmount: prev})
		}
		for range 7 {
			out = append(out, DailyTrend{WasteAmount: recent})
		}
		return out
	}

	assert.Equal(t, TrendIncreasing, direction(weeks(10, 12)))
	assert.Equal(t, TrendDecreasing, direction(weeks(10, 8)))
	assert.Equal(t, TrendStable, direction(weeks(10, 11)))
	assert.Equal(t, TrendInsufficientData, direction(weeks(10, 10)[:13]))
}

func TestWasteTrends_DirectionFromDailyEvents(t *testing.T) {
	svc := newTestService(t)
	for i := range 14 {
		amount := 10
		if i >= 7 {
			amount = 2
		}
		logEvent(t, svc, "A", testNow.AddDate(0, 0, -(13-i)).Add(-time.Hour), amount, 1, model.CategoryProduce)
	}

	tr, err := svc.WasteTrends(context.Background(), 30, "")
	require.NoError(t, err)
	require.Len(t, tr.Daily, 14)
	assert.Equal(t, TrendDecreasing, tr.TrendDirection)
}

func TestLogWasteEvent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	logRecord(t, svc, "X", testNow.AddDate(0, 0, -10), 0.9, 1, 5, model.CategoryBakery)
	logRecord(t, svc, "Y", testNow.Add(-time.Hour), 0.9, 1, 5, model.CategoryBakery)
	logRecord(t, svc, "Z", testNow.AddDate(0, 0, -3), 0.7, 1, 5, model.CategoryBakery)
	logRecord(t, svc, "W", testNow.AddDate(0, 0, -1), 0.5, 1, 5, model.CategoryBakery)

	tests := []struct {
		product string
		want    bool
	}{
		{"X", false}, // prediction older than a week
		{"Y", false}, // prediction made after the waste
		{"Z", true},
		{"W", false}, // 0.5 does not call waste
		{"V", false}, // never predicted
	}
	for _, tt := range tests {
		ev := &model.WasteEvent{ProductID: tt.product, Category: " Bakery ", WasteAmount: 3,
			Reason: model.ReasonExpired, ValueLost: 4.5, WastedAt: testNow.Add(-2 * time.Hour)}
		require.NoError(t, svc.LogWasteEvent(ctx, ev))
		assert.Equal(t, tt.want, ev.WasPredicted, tt.product)
		assert.Equal(t, model.CategoryBakery, ev.Category)
		assert.NotEmpty(t, ev.ID)
	}

	dated := &model.WasteEvent{ProductID: "Q", Category: model.CategoryDairy, Reason: model.ReasonDamaged}
	require.NoError(t, svc.LogWasteEvent(ctx, dated))
	assert.True(t, testNow.Equal(dated.WastedAt), "waste date defaults to now")
}

func TestActionEffectiveness(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, o := range []*model.ActionOutcome{
		{ProductID: "A", ActionTaken: model.ActionDiscount, Outcome: " Sold ", ValueRecovered: 12.5},
		{ProductID: "B", ActionTaken: model.ActionDiscount, Outcome: "wasted"},
		{ProductID: "C", ActionTaken: model.ActionDonate, Outcome: model.OutcomeDonated},
		{ProductID: "D", ActionTaken: model.ActionKeep, Outcome: "expired", Success: true},
	} {
		require.NoError(t, svc.LogActionOutcome(ctx, o))
		assert.True(t, testNow.Equal(o.ActionDate))
	}

	e, err := svc.ActionEffectiveness(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, e.TotalActions)
	assert.InDelta(t, 0.5, e.PreventionRate, 1e-9)
	assert.Equal(t, ActionStats{TotalAttempts: 2, SuccessfulOutcomes: 1, TotalValueRecovered: 12.5, SuccessRate: 0.5},
		e.Actions[model.ActionDiscount])
	assert.Equal(t, ActionStats{TotalAttempts: 1, SuccessfulOutcomes: 1, SuccessRate: 1},
		e.Actions[model.ActionDonate])
	assert.Equal(t, ActionStats{TotalAttempts: 1}, e.Actions[model.ActionKeep], "success comes from the outcome")
}

func TestActionEffectiveness_Empty(t *testing.T) {
	svc := newTestService(t)

	e, err := svc.ActionEffectiveness(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, e.Actions)
	assert.Zero(t, e.TotalActions)
	assert.Zero(t, e.PreventionRate)
}

func TestExport(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first := logRecord(t, svc, "A", testNow.Add(-2*time.Hour), 0.3, 5, 1, model.CategoryProduce)
	logRecord(t, svc, "B", testNow.Add(-time.Hour), 0.7, 2, 8, model.CategoryDairy)
	logRecord(t, svc, "C", testNow.AddDate(0, 0, -10), 0.5, 3, 2, model.CategoryMeat)

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, svc.Export(ctx, &buf, 7, FormatJSON))

		var recs []model.PredictionRecord
		require.NoError(t, json.Unmarshal(buf.Bytes(), &recs))
		require.Len(t, recs, 2)
		assert.Equal(t, first.ID, recs[0].ID, "oldest first")
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, svc.Export(ctx, &buf, 7, FormatCSV))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[0], "id,product_id,category,prediction_timestamp,waste_probability"))
		assert.Contains(t, lines[1], ",A,produce,")
		assert.NotContains(t, lines[0], "risk_factors")
	})

	t.Run("unsupported", func(t *testing.T) {
		err := svc.Export(ctx, &bytes.Buffer{}, 7, "xml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported export format")
	})
}

func TestExport_Empty(t *testing.T) {
	svc := newTestService(t)

	var csvBuf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), &csvBuf, 7, FormatCSV))
	assert.Empty(t, csvBuf.String())

	var jsonBuf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), &jsonBuf, 7, FormatJSON))
	assert.JSONEq(t, "[]", jsonBuf.String())
}
