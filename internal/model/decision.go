package model

import "time"

// Action is a recommended handling for at-risk stock.
type Action string

const (
	ActionKeep     Action = "keep"
	ActionDiscount Action = "discount"
	ActionDonate   Action = "donate"
	ActionReroute  Action = "reroute"

	// ActionMonitor is the degraded result returned when the recommender
	// itself failed. It is not part of the normal decision set.
	ActionMonitor Action = "monitor"
)

// Urgency escalates how quickly an action should be carried out.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Feasibility rates how well an alternative action suits the item.
type Feasibility string

const (
	FeasibilityHigh   Feasibility = "high"
	FeasibilityMedium Feasibility = "medium"
)

// Timeline buckets the next steps for carrying out an action.
type Timeline struct {
	Immediate []string `json:"immediate"`
	ShortTerm []string `json:"short_term"`
	LongTerm  []string `json:"long_term"`
}

// IsEmpty reports whether every bucket is empty.
func (t Timeline) IsEmpty() bool {
	return len(t.Immediate) == 0 && len(t.ShortTerm) == 0 && len(t.LongTerm) == 0
}

// Alternative is a non-primary action the operator could take instead.
type Alternative struct {
	Action      Action      `json:"action"`
	Feasibility Feasibility `json:"feasibility"`
	Description string      `json:"description"`
}

// ActionDecision is the output of the action recommender.
type ActionDecision struct {
	Action             Action        `json:"action"`
	Urgency            Urgency       `json:"urgency"`
	Trigger            string        `json:"trigger,omitempty"` // cascade branch that fired
	SuggestedDiscount  int           `json:"suggested_discount"`
	Reasoning          []string      `json:"reasoning"`
	Timeline           Timeline      `json:"timeline"`
	Confidence         float64       `json:"confidence"`
	AlternativeActions []Alternative `json:"alternative_actions"`
	Error              string        `json:"error,omitempty"`
	RecommendedAt      time.Time     `json:"recommendation_timestamp"`
}
