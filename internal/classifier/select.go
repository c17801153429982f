package classifier

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Selection is the outcome of cross-validated model selection.
type Selection struct {
	Candidate Candidate
	CVScore   float64
	CVScores  map[string]float64
}

// SelectBest cross-validates every candidate concurrently and returns the
// one with the highest mean F1. Ties go to the earliest candidate.
func SelectBest(ctx context.Context, candidates []Candidate, X [][]float64, y []int, folds int) (*Selection, error) {
	if len(candidates) == 0 {
		return nil, eris.New("classifier: no candidates")
	}

	means := make([]float64, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scores, err := CrossValidate(c.New, X, y, folds)
			if err != nil {
				return eris.Wrapf(err, "classifier: cross-validate %s", c.Name)
			}
			mean, std := stat.MeanStdDev(scores, nil)
			means[i] = mean
			zap.L().Info("classifier: cross-validated candidate",
				zap.String("model", c.Name),
				zap.Float64("cv_f1", mean),
				zap.Float64("cv_f1_2std", 2*std),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := 0
	for i := 1; i < len(means); i++ {
		if means[i] > means[best] {
			best = i
		}
	}

	sel := &Selection{
		Candidate: candidates[best],
		CVScore:   means[best],
		CVScores:  make(map[string]float64, len(candidates)),
	}
	for i, c := range candidates {
		sel.CVScores[c.Name] = means[i]
	}
	return sel, nil
}
