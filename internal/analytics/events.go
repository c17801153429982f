package analytics

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/wastewise/internal/model"
	"github.com/sells-group/wastewise/internal/store"
)

// LogWasteEvent records stock that was actually thrown out. The event is
// marked predicted when any prediction for the product in the week before it
// called waste.
func (s *Service) LogWasteEvent(ctx context.Context, ev *model.WasteEvent) error {
	if ev.WastedAt.IsZero() {
		ev.WastedAt = s.now()
	}
	ev.Category = model.ParseCategory(string(ev.Category))

	recs, err := s.store.ListPredictions(ctx, store.PredictionFilter{
		ProductID: ev.ProductID,
		Since:     ev.WastedAt.Add(-matchWindow),
		Limit:     exportLimit,
	})
	if err != nil {
		return err
	}
	ev.WasPredicted = false
	for _, r := range recs {
		if !r.PredictedAt.After(ev.WastedAt) && predictsWaste(r.WasteProbability) {
			ev.WasPredicted = true
			break
		}
	}

	if err := s.store.InsertWasteEvent(ctx, ev); err != nil {
		return err
	}
	zap.L().Info("analytics: waste event logged",
		zap.String("product_id", ev.ProductID),
		zap.Int("waste_amount", ev.WasteAmount),
		zap.String("reason", string(ev.Reason)),
		zap.Bool("was_predicted", ev.WasPredicted),
	)
	return nil
}

// LogActionOutcome records what came of an action. Success is derived from
// the outcome, never taken from the caller.
func (s *Service) LogActionOutcome(ctx context.Context, o *model.ActionOutcome) error {
	if o.ActionDate.IsZero() {
		o.ActionDate = s.now()
	}
	o.Outcome = strings.ToLower(strings.TrimSpace(o.Outcome))
	o.Success = model.OutcomeSucceeded(o.Outcome)

	if err := s.store.InsertActionOutcome(ctx, o); err != nil {
		return err
	}
	zap.L().Info("analytics: action outcome logged",
		zap.String("product_id", o.ProductID),
		zap.String("action", string(o.ActionTaken)),
		zap.String("outcome", o.Outcome),
	)
	return nil
}

// ActionStats aggregates the recorded outcomes of one action.
type ActionStats struct {
	TotalAttempts       int     `json:"total_attempts"`
	SuccessfulOutcomes  int     `json:"successful_outcomes"`
	TotalValueRecovered float64 `json:"total_value_recovered"`
	SuccessRate         float64 `json:"success_rate"`
}

// Effectiveness reports how often each action kept stock out of the bin.
type Effectiveness struct {
	Actions        map[model.Action]ActionStats `json:"action_effectiveness"`
	TotalActions   int                          `json:"total_actions_taken"`
	PreventionRate float64                      `json:"waste_prevention_rate"`
}

// ActionEffectiveness aggregates every recorded action outcome.
func (s *Service) ActionEffectiveness(ctx context.Context) (*Effectiveness, error) {
	outcomes, err := s.store.ListActionOutcomes(ctx, store.EventFilter{Limit: exportLimit})
	if err != nil {
		return nil, err
	}

	e := &Effectiveness{
		Actions:      make(map[model.Action]ActionStats),
		TotalActions: len(outcomes),
	}
	var prevented int
	for _, o := range outcomes {
		st := e.Actions[o.ActionTaken]
		st.TotalAttempts++
		if o.Success {
			st.SuccessfulOutcomes++
			prevented++
		}
		st.TotalValueRecovered += o.ValueRecovered
		e.Actions[o.ActionTaken] = st
	}
	for a, st := range e.Actions {
		st.SuccessRate = round(float64(st.SuccessfulOutcomes)/float64(st.TotalAttempts), 3)
		st.TotalValueRecovered = round(st.TotalValueRecovered, 2)
		e.Actions[a] = st
	}
	e.PreventionRate = round(float64(prevented)/float64(max(e.TotalActions, 1)), 3)
	return e, nil
}
