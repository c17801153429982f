package model

import "time"

// WasteReason says why stock was thrown out.
type WasteReason string

const (
	ReasonExpired       WasteReason = "expired"
	ReasonDamaged       WasteReason = "damaged"
	ReasonOverstocked   WasteReason = "overstocked"
	ReasonQualityIssues WasteReason = "quality_issues"
)

// WasteEvent records stock that was actually wasted. WasPredicted is set when
// it is logged, from the predictions that preceded it.
type WasteEvent struct {
	ID           string      `json:"id"`
	ProductID    string      `json:"product_id" validate:"required,notblank"`
	Category     Category    `json:"category" validate:"required,category"`
	WasteAmount  int         `json:"waste_amount" validate:"gte=0"`
	Reason       WasteReason `json:"reason" validate:"required,oneof=expired damaged overstocked quality_issues"`
	ValueLost    float64     `json:"value_lost" validate:"gte=0"`
	WasPredicted bool        `json:"was_predicted"`
	WastedAt     time.Time   `json:"waste_date"`
}

// Outcomes that count as waste prevented.
const (
	OutcomeSold        = "sold"
	OutcomeDonated     = "donated"
	OutcomeTransferred = "transferred"
)

// ActionOutcome records what happened after an action was carried out.
type ActionOutcome struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"product_id" validate:"required,notblank"`
	ActionTaken    Action    `json:"action_taken" validate:"required,oneof=keep discount donate reroute monitor"`
	Outcome        string    `json:"outcome" validate:"required,notblank"`
	ValueRecovered float64   `json:"value_recovered" validate:"gte=0"`
	Success        bool      `json:"success"`
	ActionDate     time.Time `json:"action_date"`
}

// OutcomeSucceeded reports whether outcome kept the stock out of the bin.
func OutcomeSucceeded(outcome string) bool {
	switch outcome {
	case OutcomeSold, OutcomeDonated, OutcomeTransferred:
		return true
	}
	return false
}
