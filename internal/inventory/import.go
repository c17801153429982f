package inventory

import (
	"context"
	"encoding/csv"
	"errors"
	"io"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/wastewise/internal/model"
	"github.com/sells-group/wastewise/internal/validate"
)

// RowError describes an import row that was rejected.
type RowError struct {
	Row       int      `json:"row"` // 1-based, header excluded
	ProductID string   `json:"product_id,omitempty"`
	Errors    []string `json:"errors"`
}

// ImportResult reports the outcome of a bulk import.
type ImportResult struct {
	Imported int        `json:"imported"`
	Rejected []RowError `json:"rejected,omitempty"`
}

// ImportCSV reads products from CSV with a header row naming the item fields
// (product_id, product_name, category, current_stock, expiry_date, ...).
// Invalid rows are skipped and reported; valid rows are upserted.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	return s.importRows(ctx, csv.NewReader(r))
}

// ImportXLSX reads products from the first sheet of an XLSX workbook laid out
// like the CSV import.
func (s *Service) ImportXLSX(ctx context.Context, path string) (*ImportResult, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "inventory: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("inventory: xlsx %s has no sheets", path)
	}

	rows := make([][]string, 0, len(f.Sheets[0].Rows))
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return s.importRows(ctx, &sheetReader{rows: rows})
}

func (s *Service) importRows(ctx context.Context, r csvutil.Reader) (*ImportResult, error) {
	res := &ImportResult{}
	dec, err := csvutil.NewDecoder(r)
	if errors.Is(err, io.EOF) {
		return res, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "inventory: read header")
	}

	now := s.now()
	for row := 1; ; row++ {
		if err := ctx.Err(); err != nil {
			return res, eris.Wrap(err, "inventory: import cancelled")
		}

		var it model.InventoryItem
		err := dec.Decode(&it)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if !rowError(err) {
				return res, eris.Wrapf(err, "inventory: read row %d", row)
			}
			res.Rejected = append(res.Rejected, RowError{Row: row, Errors: []string{err.Error()}})
			continue
		}
		if msgs := validate.Item(it); len(msgs) > 0 {
			res.Rejected = append(res.Rejected, RowError{Row: row, ProductID: it.ProductID, Errors: msgs})
			continue
		}

		p, err := it.Product(now)
		if err != nil {
			res.Rejected = append(res.Rejected, RowError{Row: row, ProductID: it.ProductID, Errors: []string{err.Error()}})
			continue
		}
		if err := s.store.UpsertProduct(ctx, p); err != nil {
			return res, err
		}
		res.Imported++
	}

	zap.L().Info("inventory: import complete",
		zap.Int("imported", res.Imported),
		zap.Int("rejected", len(res.Rejected)),
	)
	return res, nil
}

// rowError reports whether err is confined to a single record, so the import
// can reject that row and keep reading. Anything else comes from the reader
// and would recur on every call.
func rowError(err error) bool {
	var (
		parseErr  *csv.ParseError
		decodeErr *csvutil.DecodeError
		typeErr   *csvutil.UnmarshalTypeError
	)
	return errors.As(err, &parseErr) ||
		errors.As(err, &decodeErr) ||
		errors.As(err, &typeErr) ||
		errors.Is(err, csvutil.ErrFieldCount)
}

// sheetReader feeds spreadsheet rows to csvutil, padding short rows to the
// header width since trailing empty cells are not stored.
type sheetReader struct {
	rows  [][]string
	next  int
	width int
}

func (r *sheetReader) Read() ([]string, error) {
	if r.next >= len(r.rows) {
		return nil, io.EOF
	}
	row := r.rows[r.next]
	r.next++
	if r.width == 0 {
		r.width = len(row)
	}
	for len(row) < r.width {
		row = append(row, "")
	}
	return row, nil
}
