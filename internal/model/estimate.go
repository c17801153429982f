package model

// Source identifies where a waste probability came from.
type Source string

const (
	SourceModel     Source = "model"
	SourceRuleBased Source = "rule_based"
	SourceFallback  Source = "fallback"
)

// RiskFactor is a named condition contributing to waste risk.
type RiskFactor string

const (
	RiskExpiringSoon          RiskFactor = "expiring_soon"
	RiskOverstocked           RiskFactor = "overstocked"
	RiskPoorStorageConditions RiskFactor = "poor_storage_conditions"
	RiskLowSalesVelocity      RiskFactor = "low_sales_velocity"
	RiskPerishableCategory    RiskFactor = "perishable_category"
	RiskHighWaste             RiskFactor = "high_waste_risk"
	RiskMediumWaste           RiskFactor = "medium_waste_risk"
	RiskPredictionError       RiskFactor = "prediction_error"
)

// WasteEstimate is the output of the waste predictor.
type WasteEstimate struct {
	WasteProbability     float64      `json:"waste_probability"`
	PredictedWasteAmount int          `json:"predicted_waste_amount"`
	Confidence           float64      `json:"confidence"`
	RiskFactors          []RiskFactor `json:"risk_factors"`
	Source               Source       `json:"source"`
	Error                string       `json:"error,omitempty"`
}
