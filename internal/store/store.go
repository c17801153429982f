// Package store persists inventory products, the prediction log, waste events
// and action outcomes.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/wastewise/internal/config"
	"github.com/sells-group/wastewise/internal/model"
)

// ErrNotFound is returned (wrapped) when a product or prediction does not exist.
var ErrNotFound = eris.New("store: not found")

// ProductFilter specifies criteria for listing products.
type ProductFilter struct {
	Category model.Category `json:"category,omitempty"`
	Limit    int            `json:"limit,omitempty"`
}

// PredictionFilter specifies criteria for listing logged predictions. Zero
// fields are ignored; results are newest first.
type PredictionFilter struct {
	ProductID string         `json:"product_id,omitempty"`
	Category  model.Category `json:"category,omitempty"`
	Since     time.Time      `json:"since,omitempty"`
	Limit     int            `json:"limit,omitempty"`
}

// EventFilter specifies criteria for listing waste events and action
// outcomes. Zero fields are ignored; results are newest first. Outcomes carry
// no category, so Category applies to waste events only.
type EventFilter struct {
	ProductID string         `json:"product_id,omitempty"`
	Category  model.Category `json:"category,omitempty"`
	Since     time.Time      `json:"since,omitempty"`
	Limit     int            `json:"limit,omitempty"`
}

// Store defines the persistence interface for inventory, predictions and
// what actually happened to the stock.
type Store interface {
	// Products
	UpsertProduct(ctx context.Context, p model.Product) error
	GetProduct(ctx context.Context, productID string) (*model.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]model.Product, error)
	DeleteProduct(ctx context.Context, productID string) error

	// Prediction log
	InsertPrediction(ctx context.Context, rec *model.PredictionRecord) error
	ListPredictions(ctx context.Context, filter PredictionFilter) ([]model.PredictionRecord, error)
	LatestPrediction(ctx context.Context, productID string) (*model.PredictionRecord, error)

	// Waste events and action outcomes
	InsertWasteEvent(ctx context.Context, ev *model.WasteEvent) error
	ListWasteEvents(ctx context.Context, filter EventFilter) ([]model.WasteEvent, error)
	InsertActionOutcome(ctx context.Context, o *model.ActionOutcome) error
	ListActionOutcomes(ctx context.Context, filter EventFilter) ([]model.ActionOutcome, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the backend selected by cfg.Driver and migrates it.
// Postgres connections are retried while the server is unreachable.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "sqlite":
		s, err = NewSQLite(cfg.DatabaseURL)
	case "postgres":
		s, err = withRetry(ctx, cfg.ConnectAttempts, "postgres connect", func(ctx context.Context) (Store, error) {
			return NewPostgres(ctx, cfg.DatabaseURL)
		})
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

const defaultListLimit = 100

func listLimit(n int) int {
	if n <= 0 {
		return defaultListLimit
	}
	return n
}

// prepareRecord fills the id and timestamp of a record about to be logged.
func prepareRecord(rec *model.PredictionRecord) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.PredictedAt.IsZero() {
		rec.PredictedAt = time.Now()
	}
	rec.PredictedAt = rec.PredictedAt.UTC()
}

func prepareEvent(ev *model.WasteEvent) {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.WastedAt.IsZero() {
		ev.WastedAt = time.Now()
	}
	ev.WastedAt = ev.WastedAt.UTC()
}

func prepareOutcome(o *model.ActionOutcome) {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.ActionDate.IsZero() {
		o.ActionDate = time.Now()
	}
	o.ActionDate = o.ActionDate.UTC()
}
