package analytics

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"slices"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/sells-group/wastewise/internal/model"
	"github.com/sells-group/wastewise/internal/store"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Export writes the predictions of the last days to w, oldest first, as a
// JSON array or CSV with a header row. An empty CSV export writes nothing.
func (s *Service) Export(ctx context.Context, w io.Writer, days int, format string) error {
	if format != FormatJSON && format != FormatCSV {
		return eris.Errorf("analytics: unsupported export format %q", format)
	}

	recs, err := s.store.ListPredictions(ctx, store.PredictionFilter{
		Since: s.now().AddDate(0, 0, -max(days, 1)),
		Limit: exportLimit,
	})
	if err != nil {
		return err
	}
	slices.Reverse(recs)
	if recs == nil {
		recs = []model.PredictionRecord{}
	}

	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(recs), "analytics: encode json")
	}
	if len(recs) == 0 {
		return nil
	}

	cw := csv.NewWriter(w)
	if err := csvutil.NewEncoder(cw).Encode(recs); err != nil {
		return eris.Wrap(err, "analytics: encode csv")
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "analytics: flush csv")
}
