package ml

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/strokeguard/strokeguard/internal/domain/model"
	"github.com/strokeguard/strokeguard/internal/domain/port"
	"github.com/strokeguard/strokeguard/internal/ml/artifact"
	"github.com/strokeguard/strokeguard/internal/ml/schema"
)

// PipelineModel implements port.RiskModel over a loaded pipeline artifact. It is
// read-only after construction and safe for concurrent use.
type PipelineModel struct {
	artifact *artifact.Artifact
	info     port.ModelInfo
	metrics  *predictionMetrics
}

var _ port.RiskModel = (*PipelineModel)(nil)

// LoadPipelineModel reads the artifact at path and validates it against the stroke schema.
func LoadPipelineModel(path string, meter metric.Meter, logger *slog.Logger) (*PipelineModel, error) {
	a, err := artifact.Load(path, schema.Stroke())
	if err != nil {
		return nil, err
	}
	m, err := NewPipelineModel(a, meter)
	if err != nil {
		return nil, err
	}

	logger.Info("model loaded",
		slog.String("path", path),
		slog.String("model_id", a.ID),
		slog.Int("trees", len(a.Forest.Trees)),
		slog.Int("width", a.Pipeline.Width()),
		slog.Time("trained_at", a.Metadata.TrainedAt),
	)
	return m, nil
}

// NewPipelineModel wraps an already loaded artifact.
func NewPipelineModel(a *artifact.Artifact, meter metric.Meter) (*PipelineModel, error) {
	metrics, err := newPredictionMetrics(meter)
	if err != nil {
		return nil, err
	}
	return &PipelineModel{
		artifact: a,
		info:     describe(a),
		metrics:  metrics,
	}, nil
}

// Predict encodes the record and runs one classifier pass.
func (m *PipelineModel) Predict(ctx context.Context, record model.PatientRecord) (port.Prediction, error) {
	start := time.Now()
	pred, err := m.artifact.Pipeline.Evaluate(record.Row())
	m.metrics.record(ctx, pred.Label, pred.Probability, time.Since(start), err)
	if err != nil {
		return port.Prediction{}, err
	}
	return port.Prediction{Label: pred.Label, Probability: pred.Probability}, nil
}

// Info describes the loaded artifact.
func (m *PipelineModel) Info() port.ModelInfo {
	return m.info
}

func describe(a *artifact.Artifact) port.ModelInfo {
	names := a.Metadata.FeatureNames
	if len(names) != len(a.Forest.Importances) {
		names = a.Pipeline.Encoder().FeatureNames()
	}

	importances := make([]port.FeatureImportance, 0, len(a.Forest.Importances))
	for i, v := range a.Forest.Importances {
		if i >= len(names) {
			break
		}
		importances = append(importances, port.FeatureImportance{Feature: names[i], Importance: v})
	}
	sort.SliceStable(importances, func(i, j int) bool {
		return importances[i].Importance > importances[j].Importance
	})

	return port.ModelInfo{
		ID:            a.ID,
		Format:        artifact.Format,
		TrainedAt:     a.Metadata.TrainedAt,
		DatasetSHA256: a.Metadata.DatasetSHA256,
		Accuracy:      a.Metadata.Accuracy,
		Trees:         len(a.Forest.Trees),
		Width:         a.Pipeline.Width(),
		TrainSize:     a.Metadata.TrainSize,
		TestSize:      a.Metadata.TestSize,
		Importances:   importances,
	}
}

type predictionMetrics struct {
	predictions metric.Int64Counter
	duration    metric.Float64Histogram
	probability metric.Float64Histogram
}

func newPredictionMetrics(meter metric.Meter) (*predictionMetrics, error) {
	predictions, err := meter.Int64Counter("strokeguard.predictions",
		metric.WithDescription("Predictions served, by outcome."))
	if err != nil {
		return nil, fmt.Errorf("creating prediction counter: %w", err)
	}
	duration, err := meter.Float64Histogram("strokeguard.prediction.duration",
		metric.WithDescription("Time spent encoding and classifying one record."),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}
	probability, err := meter.Float64Histogram("strokeguard.prediction.probability",
		metric.WithDescription("Class-1 probability of served predictions."),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9))
	if err != nil {
		return nil, fmt.Errorf("creating probability histogram: %w", err)
	}
	return &predictionMetrics{predictions: predictions, duration: duration, probability: probability}, nil
}

func (pm *predictionMetrics) record(ctx context.Context, label int, probability float64, elapsed time.Duration, err error) {
	outcome := "low"
	switch {
	case err != nil:
		outcome = "error"
	case label == 1:
		outcome = "high"
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))

	pm.predictions.Add(ctx, 1, attrs)
	pm.duration.Record(ctx, elapsed.Seconds(), attrs)
	if err == nil {
		pm.probability.Record(ctx, probability)
	}
}
