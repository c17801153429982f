package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml or .env is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "wastewise.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 3, cfg.Store.ConnectAttempts)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Empty(t, cfg.Log.File)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, 6, cfg.Server.RetrainPerHour)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "models/waste_predictor.msgpack", cfg.Predictor.ModelPath)
	assert.Equal(t, 1000, cfg.Predictor.SyntheticSamples)
	assert.Equal(t, 1200, cfg.Predictor.RetrainSamples)
	assert.Equal(t, uint64(42), cfg.Predictor.Seed)
	assert.Equal(t, 5, cfg.Predictor.CVFolds)
	assert.InDelta(t, 0.2, cfg.Predictor.TestFraction, 0.001)
	assert.Equal(t, 100, cfg.Predictor.Trees)
	assert.Equal(t, 10, cfg.Predictor.MaxDepth)
	assert.Equal(t, 100, cfg.Predictor.BoostRounds)
	assert.Equal(t, 6, cfg.Predictor.BoostDepth)
	assert.InDelta(t, 0.1, cfg.Predictor.LearningRate, 0.001)
	assert.Equal(t, 8, cfg.Batch.MaxConcurrent)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/wastewise
log:
  level: debug
  format: console
server:
  port: 9090
predictor:
  trees: 25
batch:
  max_concurrent: 10
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/wastewise", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 25, cfg.Predictor.Trees)
	assert.Equal(t, 10, cfg.Batch.MaxConcurrent)
	// Defaults still apply for unset values
	assert.Equal(t, 10, cfg.Predictor.MaxDepth)
}

func TestLoadFile_ExplicitPath(t *testing.T) {
	chdirTemp(t)
	path := filepath.Join(t.TempDir(), "wastewise.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  database_url: /var/lib/wastewise.db\n"), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/wastewise.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "sqlite", cfg.Store.Driver)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("WASTEWISE_STORE_DRIVER", "postgres")
	t.Setenv("WASTEWISE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("WASTEWISE_SERVER_PORT", "3000")
	t.Setenv("WASTEWISE_PREDICTOR_SEED", "7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, uint64(7), cfg.Predictor.Seed)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("WASTEWISE_BATCH_MAX_CONCURRENT=3\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("WASTEWISE_BATCH_MAX_CONCURRENT") }) //nolint:errcheck

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Batch.MaxConcurrent)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wastewise.log")
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json", File: path, MaxSizeMB: 1, MaxBackups: 1}))
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })

	zap.L().Info("hello")
	require.NoError(t, zap.L().Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "wastewise.db"
	cfg.Server.Port = 5000
	cfg.Server.RetrainPerHour = 6
	cfg.Batch.MaxConcurrent = 8
	cfg.Predictor = PredictorConfig{
		ModelPath:        "models/waste.msgpack",
		SyntheticSamples: 1000,
		RetrainSamples:   1200,
		CVFolds:          5,
		TestFraction:     0.2,
		Trees:            100,
		MaxDepth:         10,
		BoostRounds:      100,
		BoostDepth:       6,
		LearningRate:     0.1,
	}
	return cfg
}

func TestValidateServe_Valid(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("serve"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateStore(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("store")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidatePredictor(t *testing.T) {
	cfg := validDefaults()
	cfg.Predictor.CVFolds = 1
	cfg.Predictor.TestFraction = 1
	cfg.Predictor.LearningRate = 0

	err := cfg.Validate("train")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cv_folds")
	assert.Contains(t, err.Error(), "test_fraction")
	assert.Contains(t, err.Error(), "learning_rate")

	cfg = validDefaults()
	cfg.Predictor.SyntheticSamples = 20
	err = cfg.Validate("predict")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "at least 10 per fold")
}

func TestValidatePredictor_TreeShape(t *testing.T) {
	cfg := validDefaults()
	cfg.Predictor.Trees = 0
	cfg.Predictor.MaxDepth = -1
	cfg.Predictor.BoostRounds = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "predictor.trees must be >= 1")
	assert.Contains(t, err.Error(), "predictor.max_depth must be >= 1")
	assert.Contains(t, err.Error(), "predictor.boost_rounds must be >= 1")
	assert.NotContains(t, err.Error(), "boost_depth")

	cfg.Predictor.Trees, cfg.Predictor.MaxDepth, cfg.Predictor.BoostRounds = 1, 1, 1
	assert.NoError(t, cfg.Validate("train"))
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Batch.MaxConcurrent = 0
	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "max_concurrent must be between 1 and 64")

	cfg.Batch.MaxConcurrent = 65
	err = cfg.Validate("serve")
	assert.Error(t, err)

	cfg.Batch.MaxConcurrent = 64
	assert.NoError(t, cfg.Validate("serve"))
}
