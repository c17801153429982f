package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/wastewise/internal/model"
	"github.com/sells-group/wastewise/internal/waste"
)

var (
	retrainData   string
	retrainOutput string
)

var retrainCmd = &cobra.Command{
	Use:   "retrain",
	Short: "Retrain the waste classifier and persist it",
	Long:  "Trains on the samples in --data, or on a freshly generated synthetic set, and replaces the persisted model on success.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("train"); err != nil {
			return err
		}

		samples, err := readSamples(retrainData)
		if err != nil {
			return err
		}

		res := newPredictor(cfg).Retrain(cmd.Context(), samples)
		if err := render(cmd.OutOrStdout(), retrainOutput, res); err != nil {
			return err
		}
		if res.Status != model.TrainStatusSuccess {
			return eris.Errorf("retrain failed: %s", res.Error)
		}

		zap.L().Info("model retrained",
			zap.String("model", res.Metrics.ModelName),
			zap.Int("samples", res.TrainingSamples),
			zap.String("path", cfg.Predictor.ModelPath),
		)
		return nil
	},
}

func readSamples(path string) ([]model.TrainingSample, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read training data")
	}
	var samples []model.TrainingSample
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, eris.Wrap(err, "decode training data")
	}
	return samples, nil
}

var metricsOutput string

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show the persisted model's performance metrics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("predict"); err != nil {
			return err
		}

		b, err := waste.NewFileModelStore(cfg.Predictor.ModelPath).Load()
		if eris.Is(err, waste.ErrNoModel) {
			return eris.Errorf("no trained model at %s: run wastewise retrain", cfg.Predictor.ModelPath)
		}
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), metricsOutput, b.Metrics)
	},
}

func init() {
	retrainCmd.Flags().StringVar(&retrainData, "data", "", "JSON array of training samples (default: synthetic)")
	retrainCmd.Flags().StringVarP(&retrainOutput, "output", "o", "json", "output format: json or yaml")
	metricsCmd.Flags().StringVarP(&metricsOutput, "output", "o", "json", "output format: json or yaml")
	rootCmd.AddCommand(retrainCmd, metricsCmd)
}
