package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/wastewise/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS products (
	product_id        TEXT PRIMARY KEY,
	product_name      TEXT NOT NULL,
	category          TEXT NOT NULL,
	current_stock     INTEGER NOT NULL DEFAULT 0,
	purchase_date     DATETIME,
	expiry_date       DATETIME NOT NULL,
	price             REAL NOT NULL DEFAULT 0,
	discount_rate     REAL NOT NULL DEFAULT 0,
	sales_velocity_7d REAL NOT NULL DEFAULT 0,
	temperature       REAL NOT NULL DEFAULT 0,
	humidity          REAL NOT NULL DEFAULT 0,
	location          TEXT NOT NULL DEFAULT '',
	supplier          TEXT NOT NULL DEFAULT '',
	updated_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS predictions (
	id                     TEXT PRIMARY KEY,
	product_id             TEXT NOT NULL,
	category               TEXT NOT NULL,
	predicted_at           DATETIME NOT NULL,
	waste_probability      REAL NOT NULL,
	predicted_waste_amount INTEGER NOT NULL,
	confidence_score       REAL NOT NULL,
	source                 TEXT NOT NULL,
	recommended_action     TEXT NOT NULL,
	action_urgency         TEXT NOT NULL,
	suggested_discount     INTEGER NOT NULL DEFAULT 0,
	days_until_expiry      INTEGER NOT NULL,
	risk_factors           TEXT NOT NULL DEFAULT '[]',
	reasoning              TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS waste_events (
	id            TEXT PRIMARY KEY,
	product_id    TEXT NOT NULL,
	category      TEXT NOT NULL,
	waste_amount  INTEGER NOT NULL,
	reason        TEXT NOT NULL,
	value_lost    REAL NOT NULL DEFAULT 0,
	was_predicted INTEGER NOT NULL DEFAULT 0,
	wasted_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS action_outcomes (
	id              TEXT PRIMARY KEY,
	product_id      TEXT NOT NULL,
	action_taken    TEXT NOT NULL,
	outcome         TEXT NOT NULL,
	value_recovered REAL NOT NULL DEFAULT 0,
	success         INTEGER NOT NULL DEFAULT 0,
	action_date     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);
CREATE INDEX IF NOT EXISTS idx_predictions_product_id ON predictions(product_id);
CREATE INDEX IF NOT EXISTS idx_predictions_predicted_at ON predictions(predicted_at);
CREATE INDEX IF NOT EXISTS idx_waste_events_wasted_at ON waste_events(wasted_at);
CREATE INDEX IF NOT EXISTS idx_action_outcomes_action_date ON action_outcomes(action_date);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const productColumns = `product_id, product_name, category, current_stock, purchase_date, expiry_date,
	price, discount_rate, sales_velocity_7d, temperature, humidity, location, supplier, updated_at`

func (s *SQLiteStore) UpsertProduct(ctx context.Context, p model.Product) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	var purchase sql.NullTime
	if !p.PurchaseDate.IsZero() {
		purchase = sql.NullTime{Time: p.PurchaseDate.UTC(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(product_id) DO UPDATE SET
			product_name = excluded.product_name,
			category = excluded.category,
			current_stock = excluded.current_stock,
			purchase_date = excluded.purchase_date,
			expiry_date = excluded.expiry_date,
			price = excluded.price,
			discount_rate = excluded.discount_rate,
			sales_velocity_7d = excluded.sales_velocity_7d,
			temperature = excluded.temperature,
			humidity = excluded.humidity,
			location = excluded.location,
			supplier = excluded.supplier,
			updated_at = excluded.updated_at`,
		p.ProductID, p.ProductName, string(p.Category), p.CurrentStock, purchase, p.ExpiryDate.UTC(),
		p.Price, p.DiscountRate, p.SalesVelocity7d, p.Temperature, p.Humidity, p.Location, p.Supplier,
		p.UpdatedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert product %s", p.ProductID)
}

func (s *SQLiteStore) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE product_id = ?`, productID)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: product %s", productID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get product %s", productID)
	}
	return p, nil
}

func (s *SQLiteStore) ListProducts(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1`
	var args []any

	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, string(filter.Category))
	}
	query += ` ORDER BY product_id LIMIT ?`
	args = append(args, listLimit(filter.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list products")
	}
	defer rows.Close() //nolint:errcheck

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan product")
		}
		products = append(products, *p)
	}
	return products, eris.Wrap(rows.Err(), "sqlite: list products iterate")
}

func (s *SQLiteStore) DeleteProduct(ctx context.Context, productID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE product_id = ?`, productID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete product %s", productID)
	}
	return checkRowsAffected(res, "product", productID)
}

const predictionColumns = `id, product_id, category, predicted_at, waste_probability, predicted_waste_amount,
	confidence_score, source, recommended_action, action_urgency, suggested_discount, days_until_expiry,
	risk_factors, reasoning`

func (s *SQLiteStore) InsertPrediction(ctx context.Context, rec *model.PredictionRecord) error {
	prepareRecord(rec)
	risks, reasoning, err := marshalRecordLists(rec)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal prediction")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO predictions (`+predictionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ProductID, string(rec.Category), rec.PredictedAt, rec.WasteProbability,
		rec.PredictedWasteAmount, rec.ConfidenceScore, string(rec.Source), string(rec.RecommendedAction),
		string(rec.ActionUrgency), rec.SuggestedDiscount, rec.DaysUntilExpiry, string(risks), string(reasoning),
	)
	return eris.Wrapf(err, "sqlite: insert prediction %s", rec.ProductID)
}

func (s *SQLiteStore) ListPredictions(ctx context.Context, filter PredictionFilter) ([]model.PredictionRecord, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE 1=1`
	var args []any

	if filter.ProductID != "" {
		query += ` AND product_id = ?`
		args = append(args, filter.ProductID)
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, string(filter.Category))
	}
	if !filter.Since.IsZero() {
		query += ` AND predicted_at >= ?`
		args = append(args, filter.Since.UTC())
	}
	query += ` ORDER BY predicted_at DESC LIMIT ?`
	args = append(args, listLimit(filter.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list predictions")
	}
	defer rows.Close() //nolint:errcheck

	var records []model.PredictionRecord
	for rows.Next() {
		rec, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list predictions iterate")
}

func (s *SQLiteStore) LatestPrediction(ctx context.Context, productID string) (*model.PredictionRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+predictionColumns+` FROM predictions WHERE product_id = ? ORDER BY predicted_at DESC LIMIT 1`,
		productID)
	rec, err := scanPrediction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: prediction for %s", productID)
	}
	return rec, err
}

const wasteEventColumns = `id, product_id, category, waste_amount, reason, value_lost, was_predicted, wasted_at`

func (s *SQLiteStore) InsertWasteEvent(ctx context.Context, ev *model.WasteEvent) error {
	prepareEvent(ev)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO waste_events (`+wasteEventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.ProductID, string(ev.Category), ev.WasteAmount, string(ev.Reason), ev.ValueLost,
		ev.WasPredicted, ev.WastedAt,
	)
	return eris.Wrapf(err, "sqlite: insert waste event %s", ev.ProductID)
}

func (s *SQLiteStore) ListWasteEvents(ctx context.Context, filter EventFilter) ([]model.WasteEvent, error) {
	query := `SELECT ` + wasteEventColumns + ` FROM waste_events WHERE 1=1`
	var args []any

	if filter.ProductID != "" {
		query += ` AND product_id = ?`
		args = append(args, filter.ProductID)
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, string(filter.Category))
	}
	if !filter.Since.IsZero() {
		query += ` AND wasted_at >= ?`
		args = append(args, filter.Since.UTC())
	}
	query += ` ORDER BY wasted_at DESC LIMIT ?`
	args = append(args, listLimit(filter.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list waste events")
	}
	defer rows.Close() //nolint:errcheck

	var events []model.WasteEvent
	for rows.Next() {
		var ev model.WasteEvent
		var category, reason string
		if err := rows.Scan(&ev.ID, &ev.ProductID, &category, &ev.WasteAmount, &reason, &ev.ValueLost,
			&ev.WasPredicted, &ev.WastedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan waste event")
		}
		ev.Category = model.Category(category)
		ev.Reason = model.WasteReason(reason)
		events = append(events, ev)
	}
	return events, eris.Wrap(rows.Err(), "sqlite: list waste events iterate")
}

const outcomeColumns = `id, product_id, action_taken, outcome, value_recovered, success, action_date`

func (s *SQLiteStore) InsertActionOutcome(ctx context.Context, o *model.ActionOutcome) error {
	prepareOutcome(o)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO action_outcomes (`+outcomeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.ProductID, string(o.ActionTaken), o.Outcome, o.ValueRecovered, o.Success, o.ActionDate,
	)
	return eris.Wrapf(err, "sqlite: insert action outcome %s", o.ProductID)
}

func (s *SQLiteStore) ListActionOutcomes(ctx context.Context, filter EventFilter) ([]model.ActionOutcome, error) {
	query := `SELECT ` + outcomeColumns + ` FROM action_outcomes WHERE 1=1`
	var args []any

	if filter.ProductID != "" {
		query += ` AND product_id = ?`
		args = append(args, filter.ProductID)
	}
	if !filter.Since.IsZero() {
		query += ` AND action_date >= ?`
		args = append(args, filter.Since.UTC())
	}
	query += ` ORDER BY action_date DESC LIMIT ?`
	args = append(args, listLimit(filter.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list action outcomes")
	}
	defer rows.Close() //nolint:errcheck

	var outcomes []model.ActionOutcome
	for rows.Next() {
		var o model.ActionOutcome
		var action string
		if err := rows.Scan(&o.ID, &o.ProductID, &action, &o.Outcome, &o.ValueRecovered, &o.Success,
			&o.ActionDate); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan action outcome")
		}
		o.ActionTaken = model.Action(action)
		outcomes = append(outcomes, o)
	}
	return outcomes, eris.Wrap(rows.Err(), "sqlite: list action outcomes iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: %s %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanProduct(row scannable) (*model.Product, error) {
	var p model.Product
	var category string
	var purchase sql.NullTime

	err := row.Scan(&p.ProductID, &p.ProductName, &category, &p.CurrentStock, &purchase, &p.ExpiryDate,
		&p.Price, &p.DiscountRate, &p.SalesVelocity7d, &p.Temperature, &p.Humidity, &p.Location, &p.Supplier,
		&p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Category = model.Category(category)
	if purchase.Valid {
		p.PurchaseDate = purchase.Time
	}
	return &p, nil
}

func scanPrediction(row scannable) (*model.PredictionRecord, error) {
	var rec model.PredictionRecord
	var category, source, action, urgency, risks, reasoning string

	err := row.Scan(&rec.ID, &rec.ProductID, &category, &rec.PredictedAt, &rec.WasteProbability,
		&rec.PredictedWasteAmount, &rec.ConfidenceScore, &source, &action, &urgency,
		&rec.SuggestedDiscount, &rec.DaysUntilExpiry, &risks, &reasoning)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan prediction")
	}

	rec.Category = model.Category(category)
	rec.Source = model.Source(source)
	rec.RecommendedAction = model.Action(action)
	rec.ActionUrgency = model.Urgency(urgency)
	if err := unmarshalRecordLists(&rec, []byte(risks), []byte(reasoning)); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal prediction")
	}
	return &rec, nil
}

func marshalRecordLists(rec *model.PredictionRecord) ([]byte, []byte, error) {
	risks := rec.RiskFactors
	if risks == nil {
		risks = []model.RiskFactor{}
	}
	reasoning := rec.Reasoning
	if reasoning == nil {
		reasoning = []string{}
	}
	riskJSON, err := json.Marshal(risks)
	if err != nil {
		return nil, nil, err
	}
	reasoningJSON, err := json.Marshal(reasoning)
	if err != nil {
		return nil, nil, err
	}
	return riskJSON, reasoningJSON, nil
}

func unmarshalRecordLists(rec *model.PredictionRecord, risks, reasoning []byte) error {
	if err := json.Unmarshal(risks, &rec.RiskFactors); err != nil {
		return err
	}
	return json.Unmarshal(reasoning, &rec.Reasoning)
}
