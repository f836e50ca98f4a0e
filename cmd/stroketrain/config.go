package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"

	"github.com/strokeguard/strokeguard/internal/ml/forest"
	"github.com/strokeguard/strokeguard/internal/ml/training"
)

const envPrefix = "STROKETRAIN_"

// defaultConfig is loaded first so every key exists before the file, env and flags
// override it.
var defaultConfig = []byte(`
artifact: stroke_model.pipeline
test_ratio: 0.2
seed: 42
trees: 150
max_depth: 0
max_features: 0
min_samples_split: 2
min_samples_leaf: 1
workers: 0
confusion_plot: ""
log_level: info
`)

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"dataset":           "dataset",
	"artifact":          "artifact",
	"test-ratio":        "test_ratio",
	"seed":              "seed",
	"trees":             "trees",
	"max-depth":         "max_depth",
	"max-features":      "max_features",
	"min-samples-split": "min_samples_split",
	"min-samples-leaf":  "min_samples_leaf",
	"workers":           "workers",
	"confusion-plot":    "confusion_plot",
	"log-level":         "log_level",
}

// fileConfig is the resolved CLI configuration.
type fileConfig struct {
	Dataset         string  `koanf:"dataset"`
	Artifact        string  `koanf:"artifact"`
	ConfusionPlot   string  `koanf:"confusion_plot"`
	LogLevel        string  `koanf:"log_level"`
	TestRatio       float64 `koanf:"test_ratio"`
	Seed            int64   `koanf:"seed"`
	Trees           int     `koanf:"trees"`
	MaxDepth        int     `koanf:"max_depth"`
	MaxFeatures     int     `koanf:"max_features"`
	MinSamplesSplit int     `koanf:"min_samples_split"`
	MinSamplesLeaf  int     `koanf:"min_samples_leaf"`
	Workers         int     `koanf:"workers"`
}

// loadConfig resolves configuration with precedence defaults < YAML file < STROKETRAIN_
// environment < explicitly set flags.
func loadConfig(path string, cmd *cobra.Command) (fileConfig, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaultConfig), yaml.Parser()); err != nil {
		return fileConfig{}, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return fileConfig{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return fileConfig{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	// STROKETRAIN_MIN_SAMPLES_LEAF -> min_samples_leaf
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return fileConfig{}, fmt.Errorf("loading environment: %w", err)
	}

	if cmd != nil {
		for flag, key := range flagKeys {
			f := cmd.Flags().Lookup(flag)
			if f == nil || !f.Changed {
				continue
			}
			if err := k.Set(key, f.Value.String()); err != nil {
				return fileConfig{}, fmt.Errorf("applying --%s: %w", flag, err)
			}
		}
	}

	var cfg fileConfig
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fileConfig{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// trainingConfig converts the resolved configuration into a driver configuration.
func (c fileConfig) trainingConfig() training.Config {
	return training.Config{
		DatasetPath:   c.Dataset,
		ArtifactPath:  c.Artifact,
		ConfusionPlot: c.ConfusionPlot,
		TestRatio:     c.TestRatio,
		SplitSeed:     c.Seed,
		Forest: forest.Config{
			Trees:           c.Trees,
			MaxFeatures:     c.MaxFeatures,
			MaxDepth:        c.MaxDepth,
			MinSamplesSplit: c.MinSamplesSplit,
			MinSamplesLeaf:  c.MinSamplesLeaf,
			Seed:            c.Seed,
			Workers:         c.Workers,
		},
	}
}
