package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/wastewise/internal/action"
	"github.com/sells-group/wastewise/internal/analytics"
	"github.com/sells-group/wastewise/internal/assess"
	"github.com/sells-group/wastewise/internal/model"
	"github.com/sells-group/wastewise/internal/store"
	"github.com/sells-group/wastewise/internal/validate"
)

const (
	defaultTrendDays  = 30
	defaultExportDays = 7
	recentLimit       = 10
	highRiskThreshold = 0.6
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.format.Write(w, r, http.StatusOK, map[string]any{
		"status":        "healthy",
		"version":       Version,
		"model_trained": s.model.Trained(),
		"timestamp":     timestamp(s.now()),
	})
}

type predictionSummary struct {
	TotalProducts   int                  `json:"total_products_analyzed"`
	HighRisk        int                  `json:"high_risk_products"`
	TotalWasteUnits int                  `json:"total_predicted_waste_units"`
	Failed          int                  `json:"failed_products"`
	ActionBreakdown map[model.Action]int `json:"action_breakdown"`
}

func summarize(results []assess.Result) predictionSummary {
	sum := predictionSummary{
		TotalProducts:   len(results),
		ActionBreakdown: map[model.Action]int{},
	}
	for _, r := range results {
		sum.ActionBreakdown[r.RecommendedAction]++
		if r.Failed() {
			sum.Failed++
			continue
		}
		if r.WasteProbability > highRiskThreshold {
			sum.HighRisk++
		}
		sum.TotalWasteUnits += r.PredictedWasteAmount
	}
	return sum
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req model.PredictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}
	if errs := validate.Request(req); len(errs) > 0 {
		s.respondValidation(w, r, errs)
		return
	}

	results := s.assessor.Assess(r.Context(), req.InventoryItems)
	s.metrics.observeResults(results)
	zap.L().Info("api: generated predictions", zap.Int("products", len(results)))

	s.format.Write(w, r, http.StatusOK, map[string]any{
		"status":      statusSuccess,
		"api_version": Version,
		"timestamp":   timestamp(s.now()),
		"summary":     summarize(results),
		"predictions": results,
	})
}

func (s *Server) handleInventoryStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, err := s.inventory.Summary(ctx)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "Failed to get inventory status", err)
		return
	}
	dist, err := s.analytics.RiskDistribution(ctx)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "Failed to get inventory status", err)
		return
	}
	recent, err := s.analytics.Recent(ctx, recentLimit)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "Failed to get inventory status", err)
		return
	}

	s.format.Write(w, r, http.StatusOK, map[string]any{
		"inventory_summary":  summary,
		"risk_distribution":  dist,
		"recent_predictions": recent,
		"timestamp":          timestamp(s.now()),
		"status":             statusSuccess,
	})
}

func (s *Server) handleWasteTrends(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r, "days", defaultTrendDays)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "Invalid days parameter", err)
		return
	}
	category := model.Category(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("category"))))

	trends, err := s.analytics.WasteTrends(r.Context(), days, category)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "Failed to get waste trends", err)
		return
	}

	body := map[string]any{
		"trends":          trends,
		"period_days":     trends.PeriodDays,
		"category_filter": nil,
		"timestamp":       timestamp(s.now()),
		"status":          statusSuccess,
	}
	if category != "" {
		body["category_filter"] = category
	}
	s.format.Write(w, r, http.StatusOK, body)
}

func (s *Server) handleWasteEvent(w http.ResponseWriter, r *http.Request) {
	var ev model.WasteEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}
	if errs := validate.Event(ev); len(errs) > 0 {
		s.respondValidation(w, r, errs)
		return
	}
	ev.ID = ""

	if err := s.analytics.LogWasteEvent(r.Context(), &ev); err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "Failed to log waste event", err)
		return
	}
	s.format.Write(w, r, http.StatusCreated, map[string]any{
		"waste_event": ev,
		"timestamp":   timestamp(s.now()),
		"status":      statusSuccess,
	})
}

func (s *Server) handleActionOutcome(w http.ResponseWriter, r *http.Request) {
	var o model.ActionOutcome
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}
	if errs := validate.Outcome(o); len(errs) > 0 {
		s.respondValidation(w, r, errs)
		return
	}
	o.ID = ""

	if err := s.analytics.LogActionOutcome(r.Context(), &o); err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "Failed to log action outcome", err)
		return
	}
	s.format.Write(w, r, http.StatusCreated, map[string]any{
		"action_outcome": o,
		"timestamp":      timestamp(s.now()),
		"status":         statusSuccess,
	})
}

func (s *Server) handleActionEffectiveness(w http.ResponseWriter, r *http.Request) {
	eff, err := s.analytics.ActionEffectiveness(r.Context())
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "Failed to get action effectiveness", err)
		return
	}
	s.format.Write(w, r, http.StatusOK, map[string]any{
		"effectiveness": eff,
		"timestamp":     timestamp(s.now()),
		"status":        statusSuccess,
	})
}

type recommendation struct {
	ProductID         string        `json:"product_id"`
	RecommendedAction model.Action  `json:"recommended_action"`
	Urgency           model.Urgency `json:"urgency,omitempty"`
	Reasoning         []string      `json:"reasoning,omitempty"`
	SuggestedDiscount int           `json:"suggested_discount"`
	LastUpdated       *time.Time    `json:"last_updated,omitempty"`
	Error             string        `json:"error,omitempty"`
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductIDs []string `json:"product_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductIDs == nil {
		s.respondError(w, r, http.StatusBadRequest, "Missing product_ids in request body", nil)
		return
	}

	out := make([]recommendation, 0, len(req.ProductIDs))
	for _, id := range req.ProductIDs {
		rec, err := s.recommendationFor(r.Context(), id)
		if err != nil {
			s.respondError(w, r, http.StatusInternalServerError, "Failed to get action recommendations", err)
			return
		}
		out = append(out, rec)
	}

	s.format.Write(w, r, http.StatusOK, map[string]any{
		"recommendations": out,
		"timestamp":       timestamp(s.now()),
		"status":          statusSuccess,
	})
}

func (s *Server) recommendationFor(ctx context.Context, productID string) (recommendation, error) {
	if _, err := s.inventory.Product(ctx, productID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return recommendation{
				ProductID:         productID,
				RecommendedAction: model.ActionMonitor,
				Error:             "Product not found",
			}, nil
		}
		return recommendation{}, err
	}

	latest, err := s.analytics.Latest(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		return recommendation{
			ProductID:         productID,
			RecommendedAction: model.ActionMonitor,
			Urgency:           model.UrgencyLow,
			Reasoning:         []string{"No recent predictions available"},
		}, nil
	}
	if err != nil {
		return recommendation{}, err
	}

	at := latest.PredictedAt
	return recommendation{
		ProductID:         productID,
		RecommendedAction: latest.RecommendedAction,
		Urgency:           latest.ActionUrgency,
		Reasoning:         latest.Reasoning,
		SuggestedDiscount: latest.SuggestedDiscount,
		LastUpdated:       &at,
	}, nil
}

func (s *Server) handleRetrain(w http.ResponseWriter, r *http.Request) {
	if !s.retrain.Allow() {
		s.metrics.observeRetrain("rate_limited")
		s.respondError(w, r, http.StatusTooManyRequests, "Retrain rate limit exceeded", nil)
		return
	}

	var req struct {
		TrainingData []model.TrainingSample `json:"training_data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.respondError(w, r, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}

	res := s.model.Retrain(r.Context(), req.TrainingData)
	s.metrics.observeRetrain(res.Status)
	if res.Status != model.TrainStatusSuccess {
		s.respondError(w, r, http.StatusInternalServerError, "Failed to retrain model", eris.New(res.Error))
		return
	}

	zap.L().Info("api: model retrained", zap.Int("samples", res.TrainingSamples))
	s.format.Write(w, r, http.StatusOK, map[string]any{
		"message":         "Model retrained successfully",
		"training_result": res,
		"timestamp":       timestamp(s.now()),
		"status":          statusSuccess,
	})
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"model_trained":       false,
		"performance_metrics": nil,
		"timestamp":           timestamp(s.now()),
		"status":              statusSuccess,
	}
	if m, ok := s.model.PerformanceMetrics(); ok {
		body["model_trained"] = true
		body["performance_metrics"] = m
	}
	s.format.Write(w, r, http.StatusOK, body)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = analytics.FormatJSON
	}
	if format != analytics.FormatJSON && format != analytics.FormatCSV {
		s.respondError(w, r, http.StatusBadRequest, "Unsupported export format", eris.Errorf("format %q", format))
		return
	}
	days, err := intParam(r, "days", defaultExportDays)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "Invalid days parameter", err)
		return
	}

	var buf bytes.Buffer
	if err := s.analytics.Export(r.Context(), &buf, days, format); err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "Failed to export predictions", err)
		return
	}

	now := s.now()
	if format == analytics.FormatCSV {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=predictions_%s.csv", now.Format("20060102")))
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes()) //nolint:errcheck
		return
	}

	// The export's own format parameter rules out msgpack here.
	s.format.writeJSON(w, http.StatusOK, map[string]any{ //nolint:errcheck
		"predictions": json.RawMessage(bytes.TrimSpace(buf.Bytes())),
		"export_date": timestamp(now),
		"period_days": days,
		"status":      statusSuccess,
	})
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	s.format.Write(w, r, http.StatusOK, map[string]any{
		"rules":    action.Rules(),
		"profiles": action.Profiles(),
		"status":   statusSuccess,
	})
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, eris.Wrapf(err, "api: parse %s", name)
	}
	if n < 1 {
		return 0, eris.Errorf("api: %s must be >= 1", name)
	}
	return n, nil
}
