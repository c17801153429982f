package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/wastewise/internal/action"
	"github.com/sells-group/wastewise/internal/analytics"
)

var (
	exportDays   int
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export logged predictions as JSON or CSV",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		w := cmd.OutOrStdout()
		if exportOut != "" {
			f, err := os.Create(exportOut)
			if err != nil {
				return eris.Wrap(err, "create export file")
			}
			defer f.Close() //nolint:errcheck
			w = f
		}

		if err := env.Analytics.Export(ctx, w, exportDays, exportFormat); err != nil {
			return err
		}
		if exportOut != "" {
			zap.L().Info("export complete", zap.String("file", exportOut), zap.Int("days", exportDays))
		}
		return nil
	},
}

var rulesOutput string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the action rules and category profiles",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return render(cmd.OutOrStdout(), rulesOutput, map[string]any{
			"rules":    action.Rules(),
			"profiles": action.Profiles(),
		})
	},
}

func init() {
	exportCmd.Flags().IntVar(&exportDays, "days", 7, "days of predictions to export")
	exportCmd.Flags().StringVar(&exportFormat, "format", analytics.FormatJSON, "export format: json or csv")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default stdout)")
	rulesCmd.Flags().StringVarP(&rulesOutput, "output", "o", "yaml", "output format: json or yaml")
	rootCmd.AddCommand(exportCmd, rulesCmd)
}
