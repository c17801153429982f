package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/wastewise/internal/api"
	"github.com/sells-group/wastewise/internal/config"
)

var cfg *config.Config

// Global flags.
var (
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:     "wastewise",
	Short:   "Perishable inventory waste prediction and action recommendations",
	Long:    "Scores perishable stock for waste risk, recommends keep/discount/donate/reroute actions, and serves both over HTTP.",
	Version: api.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.LoadFile(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if logLevel != "" {
			c.Log.Level = logLevel
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		zap.L().Debug("wastewise: config loaded",
			zap.String("command", cmd.Name()),
			zap.String("store_driver", cfg.Store.Driver),
			zap.String("model_path", cfg.Predictor.ModelPath),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
