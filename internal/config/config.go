package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Predictor PredictorConfig `yaml:"predictor" mapstructure:"predictor"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver          string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL     string `yaml:"database_url" mapstructure:"database_url"`
	ConnectAttempts int    `yaml:"connect_attempts" mapstructure:"connect_attempts"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	RetrainPerHour int      `yaml:"retrain_per_hour" mapstructure:"retrain_per_hour"`
	CORSOrigins    []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging. When File is set, output is written there
// and rotated.
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	Format     string `yaml:"format" mapstructure:"format"`
	File       string `yaml:"file" mapstructure:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
}

// PredictorConfig configures the waste classifier and its training.
type PredictorConfig struct {
	ModelPath        string  `yaml:"model_path" mapstructure:"model_path"`
	SyntheticSamples int     `yaml:"synthetic_samples" mapstructure:"synthetic_samples"`
	RetrainSamples   int     `yaml:"retrain_samples" mapstructure:"retrain_samples"`
	Seed             uint64  `yaml:"seed" mapstructure:"seed"`
	CVFolds          int     `yaml:"cv_folds" mapstructure:"cv_folds"`
	TestFraction     float64 `yaml:"test_fraction" mapstructure:"test_fraction"`
	Trees            int     `yaml:"trees" mapstructure:"trees"`
	MaxDepth         int     `yaml:"max_depth" mapstructure:"max_depth"`
	BoostRounds      int     `yaml:"boost_rounds" mapstructure:"boost_rounds"`
	BoostDepth       int     `yaml:"boost_depth" mapstructure:"boost_depth"`
	LearningRate     float64 `yaml:"learning_rate" mapstructure:"learning_rate"`
}

// BatchConfig configures batch assessment.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// Load reads configuration from .env, ./config.yaml and environment.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path searches the
// working directory; a named file must exist.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("WASTEWISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "wastewise.db")
	v.SetDefault("store.connect_attempts", 3)
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.retrain_per_hour", 6)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("predictor.model_path", "models/waste_predictor.msgpack")
	v.SetDefault("predictor.synthetic_samples", 1000)
	v.SetDefault("predictor.retrain_samples", 1200)
	v.SetDefault("predictor.seed", 42)
	v.SetDefault("predictor.cv_folds", 5)
	v.SetDefault("predictor.test_fraction", 0.2)
	v.SetDefault("predictor.trees", 100)
	v.SetDefault("predictor.max_depth", 10)
	v.SetDefault("predictor.boost_rounds", 100)
	v.SetDefault("predictor.boost_depth", 6)
	v.SetDefault("predictor.learning_rate", 0.1)
	v.SetDefault("batch.max_concurrent", 8)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrapf(err, "config: read file %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.RetrainPerHour <= 0 {
			errs = append(errs, "server.retrain_per_hour must be > 0")
		}
		errs = append(errs, c.validateStore()...)
		errs = append(errs, c.validatePredictor()...)
	case "store":
		errs = append(errs, c.validateStore()...)
	case "predict", "train":
		errs = append(errs, c.validatePredictor()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Batch.MaxConcurrent < 1 || c.Batch.MaxConcurrent > 64 {
		errs = append(errs, "batch.max_concurrent must be between 1 and 64")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateStore() []string {
	var errs []string
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	return errs
}

func (c *Config) validatePredictor() []string {
	var errs []string
	p := c.Predictor
	if p.ModelPath == "" {
		errs = append(errs, "predictor.model_path is required")
	}
	if p.CVFolds < 2 {
		errs = append(errs, "predictor.cv_folds must be >= 2")
	}
	if p.TestFraction <= 0 || p.TestFraction >= 1 {
		errs = append(errs, "predictor.test_fraction must be between 0 and 1")
	}
	if p.SyntheticSamples < 10*p.CVFolds || p.RetrainSamples < 10*p.CVFolds {
		errs = append(errs, "predictor sample counts must be at least 10 per fold")
	}
	if p.LearningRate <= 0 {
		errs = append(errs, "predictor.learning_rate must be > 0")
	}
	for _, f := range []struct {
		name string
		v    int
	}{
		{"trees", p.Trees},
		{"max_depth", p.MaxDepth},
		{"boost_rounds", p.BoostRounds},
		{"boost_depth", p.BoostDepth},
	} {
		if f.v < 1 {
			errs = append(errs, fmt.Sprintf("predictor.%s must be >= 1", f.name))
		}
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}

	if cfg.File != "" {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		var enc zapcore.Encoder = zapcore.NewJSONEncoder(encCfg)
		if cfg.Format == "console" {
			enc = zapcore.NewConsoleEncoder(encCfg)
		}
		sink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			Compress:   true,
		})
		zap.ReplaceGlobals(zap.New(zapcore.NewCore(enc, sink, level), zap.AddCaller()))
		return nil
	}

	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
