package analytics

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/sells-group/wastewise/internal/model"
	"github.com/sells-group/wastewise/internal/store"
)

// Trend directions compare the last week of recorded waste with the week
// before it.
const (
	TrendIncreasing       = "increasing"
	TrendDecreasing       = "decreasing"
	TrendStable           = "stable"
	TrendInsufficientData = "insufficient_data"
)

// matchWindow is how far a waste event may sit from a prediction, either
// side, and still count as that prediction coming true.
const matchWindow = 7 * 24 * time.Hour

// DailyTrend aggregates one calendar day (UTC) of waste events.
type DailyTrend struct {
	Date        string  `json:"date"`
	Events      int     `json:"events"`
	WasteAmount int     `json:"waste_amount"`
	ValueLost   float64 `json:"value_lost"`
}

// CategoryTrend aggregates one category over the period.
type CategoryTrend struct {
	Amount int     `json:"amount"`
	Value  float64 `json:"value"`
	Count  int     `json:"count"`
}

// Accuracy scores logged predictions against the waste that followed.
type Accuracy struct {
	Overall float64 `json:"overall_accuracy"`
	Correct int     `json:"correct_predictions"`
	Total   int     `json:"total_predictions"`
}

// Trends is the waste trend report for a period.
type Trends struct {
	PeriodDays            int                              `json:"period_days"`
	Category              model.Category                   `json:"category_filter,omitempty"`
	TotalEvents           int                              `json:"total_events"`
	TotalWasteAmount      int                              `json:"total_waste_amount"`
	TotalValueLost        float64                          `json:"total_value_lost"`
	AverageDailyWaste     float64                          `json:"average_daily_waste"`
	AverageDailyValueLost float64                          `json:"average_daily_value_lost"`
	Daily                 []DailyTrend                     `json:"daily_breakdown"`
	CategoryBreakdown     map[model.Category]CategoryTrend `json:"category_breakdown"`
	TrendDirection        string                           `json:"trend_direction"`
	PredictionAccuracy    Accuracy                         `json:"prediction_accuracy"`
}

// WasteTrends summarizes recorded waste over the last days, optionally for a
// single category, and scores the predictions made in the same period.
func (s *Service) WasteTrends(ctx context.Context, days int, category model.Category) (*Trends, error) {
	days = max(days, 1)
	since := s.now().AddDate(0, 0, -days)
	events, err := s.store.ListWasteEvents(ctx, store.EventFilter{
		Category: category,
		Since:    since,
		Limit:    exportLimit,
	})
	if err != nil {
		return nil, err
	}

	t := buildTrends(events, days, category)
	if len(events) == 0 {
		return t, nil
	}
	if t.PredictionAccuracy, err = s.predictionAccuracy(ctx, since, category); err != nil {
		return nil, err
	}
	return t, nil
}

func buildTrends(events []model.WasteEvent, days int, category model.Category) *Trends {
	t := &Trends{
		PeriodDays:        days,
		Category:          category,
		TotalEvents:       len(events),
		Daily:             []DailyTrend{},
		CategoryBreakdown: make(map[model.Category]CategoryTrend),
		TrendDirection:    TrendStable,
	}
	if len(events) == 0 {
		return t
	}

	daily := make(map[string]*DailyTrend)
	for _, ev := range events {
		t.TotalWasteAmount += ev.WasteAmount
		t.TotalValueLost += ev.ValueLost

		key := ev.WastedAt.UTC().Format(model.DateLayout)
		d, ok := daily[key]
		if !ok {
			d = &DailyTrend{Date: key}
			daily[key] = d
		}
		d.Events++
		d.WasteAmount += ev.WasteAmount
		d.ValueLost += ev.ValueLost

		ct := t.CategoryBreakdown[ev.Category]
		ct.Amount += ev.WasteAmount
		ct.Value += ev.ValueLost
		ct.Count++
		t.CategoryBreakdown[ev.Category] = ct
	}

	for _, key := range slices.Sorted(maps.Keys(daily)) {
		d := daily[key]
		d.ValueLost = round(d.ValueLost, 2)
		t.Daily = append(t.Daily, *d)
	}
	for c, ct := range t.CategoryBreakdown {
		ct.Value = round(ct.Value, 2)
		t.CategoryBreakdown[c] = ct
	}
	t.AverageDailyWaste = round(float64(t.TotalWasteAmount)/float64(days), 2)
	t.AverageDailyValueLost = round(t.TotalValueLost/float64(days), 2)
	t.TotalValueLost = round(t.TotalValueLost, 2)
	t.TrendDirection = direction(t.Daily)
	return t
}

// predictionAccuracy counts a prediction as correct when its call (waste or
// no waste) matches whether the product was actually wasted within
// matchWindow of it.
func (s *Service) predictionAccuracy(ctx context.Context, since time.Time, category model.Category) (Accuracy, error) {
	recs, err := s.store.ListPredictions(ctx, store.PredictionFilter{
		Category: category,
		Since:    since,
		Limit:    exportLimit,
	})
	if err != nil {
		return Accuracy{}, err
	}
	events, err := s.store.ListWasteEvents(ctx, store.EventFilter{
		Category: category,
		Since:    since.Add(-matchWindow),
		Limit:    exportLimit,
	})
	if err != nil {
		return Accuracy{}, err
	}

	wasted := make(map[string][]time.Time)
	for _, ev := range events {
		wasted[ev.ProductID] = append(wasted[ev.ProductID], ev.WastedAt)
	}

	acc := Accuracy{Total: len(recs)}
	for _, r := range recs {
		actual := slices.ContainsFunc(wasted[r.ProductID], func(at time.Time) bool {
			return absDuration(at.Sub(r.PredictedAt)) <= matchWindow
		})
		if predictsWaste(r.WasteProbability) == actual {
			acc.Correct++
		}
	}
	acc.Overall = round(float64(acc.Correct)/float64(max(acc.Total, 1)), 3)
	return acc, nil
}

// predictsWaste is the probability above which a prediction calls waste.
func predictsWaste(prob float64) bool {
	return prob > 0.5
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// direction needs two full weeks of days with waste. The last seven are
// compared with the seven before; a 10% move either way is a trend.
func direction(daily []DailyTrend) string {
	if len(daily) < 14 {
		return TrendInsufficientData
	}
	recent := meanWaste(daily[len(daily)-7:])
	previous := meanWaste(daily[len(daily)-14 : len(daily)-7])
	switch {
	case recent > previous*1.1:
		return TrendIncreasing
	case recent < previous*0.9:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

func meanWaste(days []DailyTrend) float64 {
	var sum int
	for _, d := range days {
		sum += d.WasteAmount
	}
	return float64(sum) / float64(len(days))
}
