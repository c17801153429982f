package model

// ItemSnapshot is the point-in-time view of an inventory item the scoring
// engine works from. It carries no identity.
type ItemSnapshot struct {
	CurrentStock    int      `json:"current_stock"`
	DaysUntilExpiry int      `json:"days_until_expiry"` // negative once expired
	SalesVelocity7d float64  `json:"sales_velocity_7d"` // units/day, 7-day trailing
	Category        Category `json:"category"`
	Temperature     float64  `json:"temperature"` // °F
	Humidity        float64  `json:"humidity"`    // 0-100
	DiscountRate    float64  `json:"discount_rate"`
	IsWeekend       bool     `json:"is_weekend"`
	PromotionActive bool     `json:"promotion_active"`
}

// Storage defaults applied when a caller has no sensor readings.
const (
	DefaultTemperature = 70.0
	DefaultHumidity    = 60.0
)

// NewSnapshot returns a snapshot with default storage conditions.
func NewSnapshot(stock, daysUntilExpiry int, velocity float64, category Category) ItemSnapshot {
	return ItemSnapshot{
		CurrentStock:    stock,
		DaysUntilExpiry: daysUntilExpiry,
		SalesVelocity7d: velocity,
		Category:        category,
		Temperature:     DefaultTemperature,
		Humidity:        DefaultHumidity,
	}
}

// DerivedFeatures are computed from a snapshot and never stored.
type DerivedFeatures struct {
	StockToVelocityRatio float64 `json:"stock_to_velocity_ratio"`
	ExpiryUrgency        float64 `json:"expiry_urgency"`
	EnvironmentalRisk    float64 `json:"environmental_risk"`
	SeasonalFactor       float64 `json:"seasonal_factor"`
}
