package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/wastewise/internal/assess"
	"github.com/sells-group/wastewise/internal/inventory"
	"github.com/sells-group/wastewise/internal/model"
	"github.com/sells-group/wastewise/internal/validate"
)

var (
	predictFile     string
	predictCategory string
	predictOutput   string
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict waste and recommend actions for inventory items",
	Long:  "Assesses the items of a prediction request file (--file, - for stdin), or every stored product when no file is given. Results are logged for analytics.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "predict")
		if err != nil {
			return err
		}
		defer env.Close()

		env.Predictor.Initialize(ctx)

		var results []assess.Result
		if predictFile != "" {
			req, err := readPredictionRequest(cmd.InOrStdin(), predictFile)
			if err != nil {
				return err
			}
			if errs := validate.Request(*req); len(errs) > 0 {
				return eris.Errorf("invalid prediction request: %s", strings.Join(errs, "; "))
			}
			results = env.Assessor.Assess(ctx, req.InventoryItems)
		} else {
			results, err = assessStored(ctx, env.Assessor, env.Inventory, model.Category(strings.ToLower(predictCategory)))
			if err != nil {
				return err
			}
		}

		zap.L().Info("predictions complete",
			zap.Int("products", len(results)),
			zap.Bool("model_trained", env.Predictor.Trained()),
		)
		return render(cmd.OutOrStdout(), predictOutput, results)
	},
}

func readPredictionRequest(stdin io.Reader, path string) (*model.PredictionRequest, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "open prediction request")
		}
		defer f.Close() //nolint:errcheck
		r = f
	}

	var req model.PredictionRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, eris.Wrap(err, "decode prediction request")
	}
	return &req, nil
}

func assessStored(ctx context.Context, a *assess.Assessor, inv *inventory.Service, category model.Category) ([]assess.Result, error) {
	products, err := inv.Products(ctx, category)
	if err != nil {
		return nil, eris.Wrap(err, "list products")
	}

	results := make([]assess.Result, 0, len(products))
	for _, p := range products {
		s, err := inv.Snapshot(ctx, p.ProductID)
		if err != nil {
			return nil, eris.Wrapf(err, "snapshot %s", p.ProductID)
		}
		results = append(results, a.AssessSnapshot(ctx, p.ProductID, s))
	}
	return results, nil
}

func init() {
	predictCmd.Flags().StringVar(&predictFile, "file", "", "prediction request JSON file, - for stdin")
	predictCmd.Flags().StringVar(&predictCategory, "category", "", "only assess stored products in this category")
	predictCmd.Flags().StringVarP(&predictOutput, "output", "o", "json", "output format: json or yaml")
	rootCmd.AddCommand(predictCmd)
}
