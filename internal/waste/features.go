// Package waste estimates the probability that perishable stock goes unsold
// before it expires. A trained classifier is used when one is loaded;
// otherwise a deterministic rule produces the estimate.
package waste

import (
	"math"

	"github.com/sells-group/wastewise/internal/model"
)

// FeatureNames is the classifier input order. It is persisted with every
// bundle and checked on load.
var FeatureNames = []string{
	"current_stock",
	"days_until_expiry",
	"sales_velocity_7d",
	"temperature",
	"humidity",
	"discount_rate",
	"is_weekend",
	"promotion_active",
	"category_encoded",
	"stock_to_velocity_ratio",
	"expiry_urgency",
	"environmental_risk",
	"seasonal_factor",
}

// DefaultSeasonalFactor is used at prediction time.
const DefaultSeasonalFactor = 1.0

// Derive computes the derived features of s. Velocity below 1 unit/day is
// treated as 1 when computing the stock ratio.
func Derive(s model.ItemSnapshot, seasonal float64) model.DerivedFeatures {
	return model.DerivedFeatures{
		StockToVelocityRatio: float64(s.CurrentStock) / math.Max(s.SalesVelocity7d, 1),
		ExpiryUrgency:        math.Max(0, math.Min(1, float64(7-s.DaysUntilExpiry)/7)),
		EnvironmentalRisk:    (math.Abs(s.Temperature-70)/70 + math.Abs(s.Humidity-50)/50) / 2,
		SeasonalFactor:       seasonal,
	}
}

// encodeCategory maps a category to its index in categories, falling back
// to the index of "other".
func encodeCategory(categories []model.Category, c model.Category) float64 {
	other := -1
	for i, known := range categories {
		if known == c {
			return float64(i)
		}
		if known == model.CategoryOther {
			other = i
		}
	}
	return float64(other)
}

// featureVector lays out s and d in FeatureNames order.
func featureVector(categories []model.Category, s model.ItemSnapshot, d model.DerivedFeatures) []float64 {
	return []float64{
		float64(s.CurrentStock),
		float64(s.DaysUntilExpiry),
		s.SalesVelocity7d,
		s.Temperature,
		s.Humidity,
		s.DiscountRate,
		boolFloat(s.IsWeekend),
		boolFloat(s.PromotionActive),
		encodeCategory(categories, s.Category),
		d.StockToVelocityRatio,
		d.ExpiryUrgency,
		d.EnvironmentalRisk,
		d.SeasonalFactor,
	}
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
