package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/wastewise/internal/action"
	"github.com/sells-group/wastewise/internal/analytics"
	"github.com/sells-group/wastewise/internal/assess"
	"github.com/sells-group/wastewise/internal/classifier"
	"github.com/sells-group/wastewise/internal/config"
	"github.com/sells-group/wastewise/internal/inventory"
	"github.com/sells-group/wastewise/internal/store"
	"github.com/sells-group/wastewise/internal/waste"
)

// appEnv holds the services shared by the commands.
type appEnv struct {
	Store     store.Store
	Predictor *waste.Predictor
	Assessor  *assess.Assessor
	Inventory *inventory.Service
	Analytics *analytics.Service
}

// Close releases the store.
func (e *appEnv) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("close store", zap.Error(err))
	}
}

func wasteOptions(p config.PredictorConfig) waste.Options {
	params := classifier.DefaultParams()
	params.Trees = p.Trees
	params.MaxDepth = p.MaxDepth
	params.BoostRounds = p.BoostRounds
	params.BoostDepth = p.BoostDepth
	params.LearningRate = p.LearningRate
	params.Seed = p.Seed

	return waste.Options{
		SyntheticSamples: p.SyntheticSamples,
		RetrainSamples:   p.RetrainSamples,
		Seed:             p.Seed,
		CVFolds:          p.CVFolds,
		TestFraction:     p.TestFraction,
		Classifier:       params,
	}
}

func newPredictor(c *config.Config) *waste.Predictor {
	return waste.NewPredictor(wasteOptions(c.Predictor), waste.NewFileModelStore(c.Predictor.ModelPath))
}

// initEnv validates the config for each mode, opens the store and wires the
// services. The predictor is not initialized.
func initEnv(ctx context.Context, modes ...string) (*appEnv, error) {
	for _, mode := range append([]string{"store"}, modes...) {
		if err := cfg.Validate(mode); err != nil {
			return nil, err
		}
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}

	pred := newPredictor(cfg)
	an := analytics.NewService(st)
	return &appEnv{
		Store:     st,
		Predictor: pred,
		Assessor:  assess.New(pred, action.NewRecommender(), cfg.Batch.MaxConcurrent).WithRecorder(an),
		Inventory: inventory.NewService(st),
		Analytics: an,
	}, nil
}
