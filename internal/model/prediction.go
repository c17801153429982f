package model

import "time"

// PredictionRecord is one logged assessment, kept for analytics.
type PredictionRecord struct {
	ID                   string       `json:"id" csv:"id"`
	ProductID            string       `json:"product_id" csv:"product_id"`
	Category             Category     `json:"category" csv:"category"`
	PredictedAt          time.Time    `json:"prediction_timestamp" csv:"prediction_timestamp"`
	WasteProbability     float64      `json:"waste_probability" csv:"waste_probability"`
	PredictedWasteAmount int          `json:"predicted_waste_amount" csv:"predicted_waste_amount"`
	ConfidenceScore      float64      `json:"confidence_score" csv:"confidence_score"`
	Source               Source       `json:"source" csv:"source"`
	RecommendedAction    Action       `json:"recommended_action" csv:"recommended_action"`
	ActionUrgency        Urgency      `json:"action_urgency" csv:"action_urgency"`
	SuggestedDiscount    int          `json:"suggested_discount" csv:"suggested_discount"`
	DaysUntilExpiry      int          `json:"days_until_expiry" csv:"days_until_expiry"`
	RiskFactors          []RiskFactor `json:"risk_factors" csv:"-"`
	Reasoning            []string     `json:"reasoning" csv:"-"`
}
