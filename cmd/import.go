package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/wastewise/internal/inventory"
)

var (
	importPath   string
	importOutput string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import inventory products from a CSV or XLSX file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := importFile(cmd, env.Inventory, importPath)
		if err != nil {
			return err
		}

		zap.L().Info("import complete",
			zap.Int("imported", res.Imported),
			zap.Int("rejected", len(res.Rejected)),
			zap.String("file", importPath),
		)
		return render(cmd.OutOrStdout(), importOutput, res)
	},
}

func importFile(cmd *cobra.Command, svc *inventory.Service, path string) (*inventory.ImportResult, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "open csv")
		}
		defer f.Close() //nolint:errcheck
		return svc.ImportCSV(cmd.Context(), f)
	case ".xlsx":
		return svc.ImportXLSX(cmd.Context(), path)
	default:
		return nil, eris.Errorf("unsupported import file %q: want .csv or .xlsx", path)
	}
}

func init() {
	importCmd.Flags().StringVar(&importPath, "file", "", "path to CSV or XLSX file (required)")
	importCmd.Flags().StringVarP(&importOutput, "output", "o", "json", "output format: json or yaml")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
