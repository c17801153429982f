package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/wastewise/internal/action"
	"github.com/sells-group/wastewise/internal/assess"
	"github.com/sells-group/wastewise/internal/config"
	"github.com/sells-group/wastewise/internal/inventory"
	"github.com/sells-group/wastewise/internal/model"
	"github.com/sells-group/wastewise/internal/store"
	"github.com/sells-group/wastewise/internal/waste"
)

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, "json", model.TrainResult{Status: model.TrainStatusError, Error: "boom"}))

	out := buf.String()
	assert.Contains(t, out, `"status": "error"`)
	assert.Contains(t, out, `"error": "boom"`)
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func TestRender_YAMLUsesJSONNames(t *testing.T) {
	var buf bytes.Buffer
	v := map[string]any{
		"rules": action.Rules()[:1],
		"count": "007",
	}
	require.NoError(t, render(&buf, "yaml", v))

	out := buf.String()
	assert.Contains(t, out, "action: donate")
	assert.Contains(t, out, "waste_probability: 0.8")
	assert.NotContains(t, out, "{")

	var back map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, "007", back["count"], "numeric-looking strings stay strings")
}

func TestRender_Unsupported(t *testing.T) {
	err := render(&bytes.Buffer{}, "xml", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestWasteOptions(t *testing.T) {
	opts := wasteOptions(config.PredictorConfig{
		SyntheticSamples: 500,
		RetrainSamples:   600,
		Seed:             7,
		CVFolds:          3,
		TestFraction:     0.25,
		Trees:            20,
		MaxDepth:         4,
		BoostRounds:      30,
		BoostDepth:       3,
		LearningRate:     0.2,
	})

	assert.Equal(t, 500, opts.SyntheticSamples)
	assert.Equal(t, 600, opts.RetrainSamples)
	assert.Equal(t, uint64(7), opts.Seed)
	assert.Equal(t, 3, opts.CVFolds)
	assert.Equal(t, 0.25, opts.TestFraction)
	assert.Equal(t, 20, opts.Classifier.Trees)
	assert.Equal(t, 4, opts.Classifier.MaxDepth)
	assert.Equal(t, 30, opts.Classifier.BoostRounds)
	assert.Equal(t, 3, opts.Classifier.BoostDepth)
	assert.Equal(t, 0.2, opts.Classifier.LearningRate)
	assert.Equal(t, uint64(7), opts.Classifier.Seed)
	assert.Equal(t, 1, opts.Classifier.MinSamplesLeaf)
}

func TestReadPredictionRequest_Stdin(t *testing.T) {
	in := strings.NewReader(`{"inventory_items": [{"product_id": "P1", "category": "dairy"}]}`)
	req, err := readPredictionRequest(in, "-")
	require.NoError(t, err)
	require.Len(t, req.InventoryItems, 1)
	assert.Equal(t, "P1", req.InventoryItems[0].ProductID)
}

func TestReadPredictionRequest_Errors(t *testing.T) {
	_, err := readPredictionRequest(nil, filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = readPredictionRequest(strings.NewReader("not json"), "-")
	assert.Error(t, err)
}

func TestReadSamples(t *testing.T) {
	samples, err := readSamples("")
	require.NoError(t, err)
	assert.Nil(t, samples)

	path := filepath.Join(t.TempDir(), "samples.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"current_stock": 30, "days_until_expiry": 1, "category": "bakery", "will_expire_unsold": true},
		{"current_stock": 5, "days_until_expiry": 9, "category": "frozen"}
	]`), 0o644))

	samples, err = readSamples(path)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, 30, samples[0].CurrentStock)
	assert.True(t, samples[0].WillExpireUnsold)
	assert.Equal(t, model.CategoryFrozen, samples[1].Category)
}

func newCmdInventory(t *testing.T) *inventory.Service {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "cmd.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return inventory.NewService(st)
}

func TestAssessStored(t *testing.T) {
	ctx := context.Background()
	inv := newCmdInventory(t)
	_, err := inv.Seed(ctx)
	require.NoError(t, err)

	a := assess.New(waste.NewPredictor(waste.DefaultOptions(), nil), action.NewRecommender(), 2)

	all, err := assessStored(ctx, a, inv, "")
	require.NoError(t, err)
	require.Len(t, all, 5)
	for _, r := range all {
		assert.False(t, r.Failed(), r.ProductID)
		assert.Equal(t, model.SourceRuleBased, r.Source)
	}

	dairy, err := assessStored(ctx, a, inv, model.CategoryDairy)
	require.NoError(t, err)
	for _, r := range dairy {
		assert.Equal(t, model.CategoryDairy, r.Category)
	}
}

func TestImportFile(t *testing.T) {
	inv := newCmdInventory(t)
	dir := t.TempDir()
	expiry := time.Now().UTC().AddDate(0, 0, 5).Format(model.DateLayout)

	path := filepath.Join(dir, "items.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"product_id,product_name,category,current_stock,expiry_date,sales_velocity_7d\n"+
			"P1,Milk,dairy,12,"+expiry+",3\n"), 0o644))

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	res, err := importFile(cmd, inv, path)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)

	_, err = importFile(cmd, inv, filepath.Join(dir, "items.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported import file")
}

func TestRulesCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"rules", "-o", "json"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), `"rules"`)
	assert.Contains(t, buf.String(), `"donate_threshold_days"`)
}
