package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/wastewise/internal/model"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS products (
	product_id        TEXT PRIMARY KEY,
	product_name      TEXT NOT NULL,
	category          TEXT NOT NULL,
	current_stock     INTEGER NOT NULL DEFAULT 0,
	purchase_date     TIMESTAMPTZ,
	expiry_date       TIMESTAMPTZ NOT NULL,
	price             DOUBLE PRECISION NOT NULL DEFAULT 0,
	discount_rate     DOUBLE PRECISION NOT NULL DEFAULT 0,
	sales_velocity_7d DOUBLE PRECISION NOT NULL DEFAULT 0,
	temperature       DOUBLE PRECISION NOT NULL DEFAULT 0,
	humidity          DOUBLE PRECISION NOT NULL DEFAULT 0,
	location          TEXT NOT NULL DEFAULT '',
	supplier          TEXT NOT NULL DEFAULT '',
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS predictions (
	id                     TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	product_id             TEXT NOT NULL,
	category               TEXT NOT NULL,
	predicted_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	waste_probability      DOUBLE PRECISION NOT NULL,
	predicted_waste_amount INTEGER NOT NULL,
	confidence_score       DOUBLE PRECISION NOT NULL,
	source                 TEXT NOT NULL,
	recommended_action     TEXT NOT NULL,
	action_urgency         TEXT NOT NULL,
	suggested_discount     INTEGER NOT NULL DEFAULT 0,
	days_until_expiry      INTEGER NOT NULL,
	risk_factors           JSONB NOT NULL DEFAULT '[]',
	reasoning              JSONB NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS waste_events (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	product_id    TEXT NOT NULL,
	category      TEXT NOT NULL,
	waste_amount  INTEGER NOT NULL,
	reason        TEXT NOT NULL,
	value_lost    DOUBLE PRECISION NOT NULL DEFAULT 0,
	was_predicted BOOLEAN NOT NULL DEFAULT false,
	wasted_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS action_outcomes (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	product_id      TEXT NOT NULL,
	action_taken    TEXT NOT NULL,
	outcome         TEXT NOT NULL,
	value_recovered DOUBLE PRECISION NOT NULL DEFAULT 0,
	success         BOOLEAN NOT NULL DEFAULT false,
	action_date     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);
CREATE INDEX IF NOT EXISTS idx_predictions_product_time ON predictions(product_id, predicted_at DESC);
CREATE INDEX IF NOT EXISTS idx_predictions_predicted_at ON predictions(predicted_at);
CREATE INDEX IF NOT EXISTS idx_waste_events_wasted_at ON waste_events(wasted_at);
CREATE INDEX IF NOT EXISTS idx_action_outcomes_action_date ON action_outcomes(action_date);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertProduct(ctx context.Context, p model.Product) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	var purchase *time.Time
	if !p.PurchaseDate.IsZero() {
		purchase = &p.PurchaseDate
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (product_id) DO UPDATE SET
			product_name = EXCLUDED.product_name,
			category = EXCLUDED.category,
			current_stock = EXCLUDED.current_stock,
			purchase_date = EXCLUDED.purchase_date,
			expiry_date = EXCLUDED.expiry_date,
			price = EXCLUDED.price,
			discount_rate = EXCLUDED.discount_rate,
			sales_velocity_7d = EXCLUDED.sales_velocity_7d,
			temperature = EXCLUDED.temperature,
			humidity = EXCLUDED.humidity,
			location = EXCLUDED.location,
			supplier = EXCLUDED.supplier,
			updated_at = EXCLUDED.updated_at`,
		p.ProductID, p.ProductName, string(p.Category), p.CurrentStock, purchase, p.ExpiryDate,
		p.Price, p.DiscountRate, p.SalesVelocity7d, p.Temperature, p.Humidity, p.Location, p.Supplier,
		p.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: upsert product %s", p.ProductID)
}

func (s *PostgresStore) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE product_id = $1`, productID)
	p, err := scanPgProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: product %s", productID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get product %s", productID)
	}
	return p, nil
}

func (s *PostgresStore) ListProducts(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Category != "" {
		query += fmt.Sprintf(` AND category = $%d`, argIdx)
		args = append(args, string(filter.Category))
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY product_id LIMIT $%d`, argIdx)
	args = append(args, listLimit(filter.Limit))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list products")
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanPgProduct(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan product")
		}
		products = append(products, *p)
	}
	return products, eris.Wrap(rows.Err(), "postgres: list products iterate")
}

func (s *PostgresStore) DeleteProduct(ctx context.Context, productID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE product_id = $1`, productID)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete product %s", productID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: product %s", productID)
	}
	return nil
}

func (s *PostgresStore) InsertPrediction(ctx context.Context, rec *model.PredictionRecord) error {
	prepareRecord(rec)
	risks, reasoning, err := marshalRecordLists(rec)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal prediction")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO predictions (`+predictionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		rec.ID, rec.ProductID, string(rec.Category), rec.PredictedAt, rec.WasteProbability,
		rec.PredictedWasteAmount, rec.ConfidenceScore, string(rec.Source), string(rec.RecommendedAction),
		string(rec.ActionUrgency), rec.SuggestedDiscount, rec.DaysUntilExpiry, risks, reasoning,
	)
	return eris.Wrapf(err, "postgres: insert prediction %s", rec.ProductID)
}

func (s *PostgresStore) ListPredictions(ctx context.Context, filter PredictionFilter) ([]model.PredictionRecord, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE true`
	args := []any{}
	argIdx := 1

	if filter.ProductID != "" {
		query += fmt.Sprintf(` AND product_id = $%d`, argIdx)
		args = append(args, filter.ProductID)
		argIdx++
	}
	if filter.Category != "" {
		query += fmt.Sprintf(` AND category = $%d`, argIdx)
		args = append(args, string(filter.Category))
		argIdx++
	}
	if !filter.Since.IsZero() {
		query += fmt.Sprintf(` AND predicted_at >= $%d`, argIdx)
		args = append(args, filter.Since)
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY predicted_at DESC LIMIT $%d`, argIdx)
	args = append(args, listLimit(filter.Limit))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list predictions")
	}
	defer rows.Close()

	var records []model.PredictionRecord
	for rows.Next() {
		rec, err := scanPgPrediction(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan prediction")
		}
		records = append(records, *rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list predictions iterate")
}

func (s *PostgresStore) LatestPrediction(ctx context.Context, productID string) (*model.PredictionRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+predictionColumns+` FROM predictions WHERE product_id = $1 ORDER BY predicted_at DESC LIMIT 1`,
		productID)
	rec, err := scanPgPrediction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: prediction for %s", productID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: latest prediction %s", productID)
	}
	return rec, nil
}

func (s *PostgresStore) InsertWasteEvent(ctx context.Context, ev *model.WasteEvent) error {
	prepareEvent(ev)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO waste_events (`+wasteEventColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		ev.ID, ev.ProductID, string(ev.Category), ev.WasteAmount, string(ev.Reason), ev.ValueLost,
		ev.WasPredicted, ev.WastedAt,
	)
	return eris.Wrapf(err, "postgres: insert waste event %s", ev.ProductID)
}

func (s *PostgresStore) ListWasteEvents(ctx context.Context, filter EventFilter) ([]model.WasteEvent, error) {
	query := `SELECT ` + wasteEventColumns + ` FROM waste_events WHERE true`
	args := []any{}
	argIdx := 1

	if filter.ProductID != "" {
		query += fmt.Sprintf(` AND product_id = $%d`, argIdx)
		args = append(args, filter.ProductID)
		argIdx++
	}
	if filter.Category != "" {
		query += fmt.Sprintf(` AND category = $%d`, argIdx)
		args = append(args, string(filter.Category))
		argIdx++
	}
	if !filter.Since.IsZero() {
		query += fmt.Sprintf(` AND wasted_at >= $%d`, argIdx)
		args = append(args, filter.Since)
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY wasted_at DESC LIMIT $%d`, argIdx)
	args = append(args, listLimit(filter.Limit))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list waste events")
	}
	defer rows.Close()

	var events []model.WasteEvent
	for rows.Next() {
		var ev model.WasteEvent
		var category, reason string
		if err := rows.Scan(&ev.ID, &ev.ProductID, &category, &ev.WasteAmount, &reason, &ev.ValueLost,
			&ev.WasPredicted, &ev.WastedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan waste event")
		}
		ev.Category = model.Category(category)
		ev.Reason = model.WasteReason(reason)
		events = append(events, ev)
	}
	return events, eris.Wrap(rows.Err(), "postgres: list waste events iterate")
}

func (s *PostgresStore) InsertActionOutcome(ctx context.Context, o *model.ActionOutcome) error {
	prepareOutcome(o)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO action_outcomes (`+outcomeColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		o.ID, o.ProductID, string(o.ActionTaken), o.Outcome, o.ValueRecovered, o.Success, o.ActionDate,
	)
	return eris.Wrapf(err, "postgres: insert action outcome %s", o.ProductID)
}

func (s *PostgresStore) ListActionOutcomes(ctx context.Context, filter EventFilter) ([]model.ActionOutcome, error) {
	query := `SELECT ` + outcomeColumns + ` FROM action_outcomes WHERE true`
	args := []any{}
	argIdx := 1

	if filter.ProductID != "" {
		query += fmt.Sprintf(` AND product_id = $%d`, argIdx)
		args = append(args, filter.ProductID)
		argIdx++
	}
	if !filter.Since.IsZero() {
		query += fmt.Sprintf(` AND action_date >= $%d`, argIdx)
		args = append(args, filter.Since)
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY action_date DESC LIMIT $%d`, argIdx)
	args = append(args, listLimit(filter.Limit))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list action outcomes")
	}
	defer rows.Close()

	var outcomes []model.ActionOutcome
	for rows.Next() {
		var o model.ActionOutcome
		var action string
		if err := rows.Scan(&o.ID, &o.ProductID, &action, &o.Outcome, &o.ValueRecovered, &o.Success,
			&o.ActionDate); err != nil {
			return nil, eris.Wrap(err, "postgres: scan action outcome")
		}
		o.ActionTaken = model.Action(action)
		outcomes = append(outcomes, o)
	}
	return outcomes, eris.Wrap(rows.Err(), "postgres: list action outcomes iterate")
}

func scanPgProduct(row scannable) (*model.Product, error) {
	var p model.Product
	var category string
	var purchase *time.Time

	err := row.Scan(&p.ProductID, &p.ProductName, &category, &p.CurrentStock, &purchase, &p.ExpiryDate,
		&p.Price, &p.DiscountRate, &p.SalesVelocity7d, &p.Temperature, &p.Humidity, &p.Location, &p.Supplier,
		&p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Category = model.Category(category)
	if purchase != nil {
		p.PurchaseDate = *purchase
	}
	return &p, nil
}

func scanPgPrediction(row scannable) (*model.PredictionRecord, error) {
	var rec model.PredictionRecord
	var category, source, action, urgency string
	var risks, reasoning []byte

	err := row.Scan(&rec.ID, &rec.ProductID, &category, &rec.PredictedAt, &rec.WasteProbability,
		&rec.PredictedWasteAmount, &rec.ConfidenceScore, &source, &action, &urgency,
		&rec.SuggestedDiscount, &rec.DaysUntilExpiry, &risks, &reasoning)
	if err != nil {
		return nil, err
	}

	rec.Category = model.Category(category)
	rec.Source = model.Source(source)
	rec.RecommendedAction = model.Action(action)
	rec.ActionUrgency = model.Urgency(urgency)
	if err := unmarshalRecordLists(&rec, risks, reasoning); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal prediction")
	}
	return &rec, nil
}
