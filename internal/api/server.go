// Package api serves the waste engine over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/wastewise/internal/analytics"
	"github.com/sells-group/wastewise/internal/assess"
	"github.com/sells-group/wastewise/internal/config"
	"github.com/sells-group/wastewise/internal/inventory"
	"github.com/sells-group/wastewise/internal/model"
)

// Version is reported by /health.
const Version = "1.0.0"

const (
	statusSuccess = "success"
	statusError   = "error"

	requestTimeout = 60 * time.Second
	maxBodyBytes   = 8 << 20
)

// Model is the trainable waste predictor behind the API.
type Model interface {
	assess.Predictor
	Trained() bool
	Retrain(ctx context.Context, samples []model.TrainingSample) model.TrainResult
	PerformanceMetrics() (model.TrainingMetrics, bool)
}

// Deps are the services a Server routes to.
type Deps struct {
	Model     Model
	Assessor  *assess.Assessor
	Inventory *inventory.Service
	Analytics *analytics.Service
	Metrics   *Metrics
}

// Server holds the handlers and their shared state.
type Server struct {
	model     Model
	assessor  *assess.Assessor
	inventory *inventory.Service
	analytics *analytics.Service
	metrics   *Metrics
	retrain   *rate.Limiter
	origins   []string
	format    Formatter
	now       func() time.Time
}

// NewServer wires d into a Server. Retrains are limited to
// cfg.RetrainPerHour, refilled evenly over the hour.
func NewServer(d Deps, cfg config.ServerConfig) *Server {
	perHour := max(cfg.RetrainPerHour, 1)
	m := d.Metrics
	if m == nil {
		m = NewMetrics()
	}
	return &Server{
		model:     d.Model,
		assessor:  d.Assessor,
		inventory: d.Inventory,
		analytics: d.Analytics,
		metrics:   m,
		retrain:   rate.NewLimiter(rate.Every(time.Hour/time.Duration(perHour)), perHour),
		origins:   cfg.CORSOrigins,
		now:       time.Now,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.RequestSize(maxBodyBytes))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.format.Write(w, r, http.StatusNotFound, errorBody{
			Error:   "Endpoint not found",
			Message: "The requested endpoint does not exist",
			Status:  statusError,
		})
	})

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/predict/waste", s.handlePredict)
		r.Get("/inventory/status", s.handleInventoryStatus)
		r.Get("/analytics/waste-trends", s.handleWasteTrends)
		r.Post("/analytics/waste-events", s.handleWasteEvent)
		r.Post("/analytics/action-outcomes", s.handleActionOutcome)
		r.Get("/analytics/action-effectiveness", s.handleActionEffectiveness)
		r.Post("/recommendations/actions", s.handleRecommendations)
		r.Post("/model/retrain", s.handleRetrain)
		r.Get("/model/performance", s.handlePerformance)
		r.Get("/export/predictions", s.handleExport)
		r.Get("/rules", s.handleRules)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
