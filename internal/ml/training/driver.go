// Package training fits the stroke pipeline offline: load a labelled CSV, split it,
// fit encoder and forest on the train partition, evaluate on the test partition and
// publish the artifact. Each stage runs once; any failure ends the run with no artifact.
package training

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/strokeguard/strokeguard/internal/ml/artifact"
	"github.com/strokeguard/strokeguard/internal/ml/forest"
	"github.com/strokeguard/strokeguard/internal/ml/pipeline"
	"github.com/strokeguard/strokeguard/internal/ml/schema"
)

// Stage names a step of a training run.
type Stage string

const (
	StageLoad     Stage = "load"
	StageSplit    Stage = "split"
	StageFit      Stage = "fit"
	StageEvaluate Stage = "evaluate"
	StagePersist  Stage = "persist"
)

// StageError reports which stage ended a run.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// Config controls a training run.
type Config struct {
	DatasetPath  string
	ArtifactPath string
	// ConfusionPlot, when set, is where the confusion matrix heat map is written.
	ConfusionPlot string
	TestRatio     float64
	// SplitSeed drives the train/test split; the forest has its own seed.
	SplitSeed int64
	Forest    forest.Config
}

// DefaultConfig returns the production training configuration.
func DefaultConfig() Config {
	return Config{
		ArtifactPath: "stroke_model.pipeline",
		TestRatio:    0.2,
		SplitSeed:    42,
		Forest:       forest.DefaultConfig(),
	}
}

// Validate checks that the run is fully specified.
func (c Config) Validate() error {
	if c.DatasetPath == "" {
		return errors.New("dataset path is required")
	}
	if c.ArtifactPath == "" {
		return errors.New("artifact path is required")
	}
	if c.TestRatio <= 0 || c.TestRatio >= 1 {
		return fmt.Errorf("test ratio must be in (0, 1), got %v", c.TestRatio)
	}
	return c.Forest.Validate()
}

// Result describes a completed run.
type Result struct {
	ArtifactID   string
	ArtifactPath string
	Report       Report
	Metadata     artifact.Metadata
}

// Driver runs training.
type Driver struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// NewDriver creates a Driver.
func NewDriver(cfg Config, logger *slog.Logger) *Driver {
	return &Driver{cfg: cfg, logger: logger, now: time.Now}
}

// Run executes load, split, fit, evaluate and persist in order.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	if err := d.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid training config: %w", err)
	}

	d.logger.Info("loading dataset", "stage", StageLoad, "path", d.cfg.DatasetPath)
	ds, err := LoadDataset(d.cfg.DatasetPath)
	if err != nil {
		return nil, &StageError{Stage: StageLoad, Err: err}
	}
	counts := ds.ClassCounts()
	d.logger.Info("dataset loaded",
		"stage", StageLoad,
		"rows", len(ds.Records),
		"negatives", counts[0],
		"positives", counts[1],
		"sha256", ds.SHA256,
	)

	trainIdx, testIdx, err := StratifiedSplit(ds.Labels, d.cfg.TestRatio, d.cfg.SplitSeed)
	if err != nil {
		return nil, &StageError{Stage: StageSplit, Err: err}
	}
	rows := ds.Rows()
	trainRows, trainLabels := subset(rows, ds.Labels, trainIdx)
	testRows, testLabels := subset(rows, ds.Labels, testIdx)
	d.logger.Info("dataset split", "stage", StageSplit, "train", len(trainIdx), "test", len(testIdx))

	if err := ctx.Err(); err != nil {
		return nil, &StageError{Stage: StageFit, Err: err}
	}
	started := d.now()
	p, err := pipeline.Fit(ctx, schema.Stroke(), trainRows, trainLabels, d.cfg.Forest)
	if err != nil {
		return nil, &StageError{Stage: StageFit, Err: err}
	}
	d.logger.Info("pipeline fitted",
		"stage", StageFit,
		"trees", d.cfg.Forest.Trees,
		"width", p.Width(),
		"duration", d.now().Sub(started).String(),
	)

	report, err := EvaluatePipeline(p, testRows, testLabels)
	if err != nil {
		return nil, &StageError{Stage: StageEvaluate, Err: err}
	}
	d.logger.Info("pipeline evaluated",
		"stage", StageEvaluate,
		"accuracy", report.Accuracy,
		"precision_positive", report.Classes[1].Precision,
		"recall_positive", report.Classes[1].Recall,
	)
	if d.cfg.ConfusionPlot != "" {
		if err := PlotConfusion(report.Confusion, d.cfg.ConfusionPlot); err != nil {
			// diagnostic only
			d.logger.Warn("confusion matrix plot failed", "stage", StageEvaluate, "error", err)
		}
	}

	meta := artifact.Metadata{
		TrainedAt:       d.now().UTC(),
		DatasetPath:     d.cfg.DatasetPath,
		DatasetSHA256:   ds.SHA256,
		TrainSize:       len(trainIdx),
		TestSize:        len(testIdx),
		ClassCounts:     counts,
		Accuracy:        report.Accuracy,
		ConfusionMatrix: report.Confusion,
		Forest:          d.cfg.Forest,
		FeatureNames:    p.Encoder().FeatureNames(),
	}
	if f, ok := p.Classifier().(*forest.Forest); ok {
		meta.FeatureImportances = f.Importances
	}

	id, err := artifact.Save(d.cfg.ArtifactPath, p, meta)
	if err != nil {
		return nil, &StageError{Stage: StagePersist, Err: err}
	}
	d.logger.Info("artifact published", "stage", StagePersist, "path", d.cfg.ArtifactPath, "model_id", id)

	return &Result{
		ArtifactID:   id,
		ArtifactPath: d.cfg.ArtifactPath,
		Report:       report,
		Metadata:     meta,
	}, nil
}

func subset(rows []schema.Row, labels []int, idx []int) ([]schema.Row, []int) {
	outRows := make([]schema.Row, len(idx))
	outLabels := make([]int, len(idx))
	for i, j := range idx {
		outRows[i] = rows[j]
		outLabels[i] = labels[j]
	}
	return outRows, outLabels
}

// imputingPredictor evaluates held-out training rows, which may lack bmi, the same way
// they were encoded for fitting.
type imputingPredictor struct {
	p *pipeline.Pipeline
}

func (ip imputingPredictor) Predict(row schema.Row) (int, error) {
	x, err := ip.p.Encoder().EncodeImputed(row)
	if err != nil {
		return 0, err
	}
	prob, err := ip.p.Classifier().PredictProbability(x)
	if err != nil {
		return 0, err
	}
	return forest.Label(prob), nil
}

// EvaluatePipeline scores p on labelled dataset rows, imputing missing bmi as in training.
func EvaluatePipeline(p *pipeline.Pipeline, rows []schema.Row, labels []int) (Report, error) {
	return Evaluate(imputingPredictor{p: p}, rows, labels)
}
