package training_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strokeguard/strokeguard/internal/ml/artifact"
	"github.com/strokeguard/strokeguard/internal/ml/mltest"
	"github.com/strokeguard/strokeguard/internal/ml/schema"
	"github.com/strokeguard/strokeguard/internal/ml/training"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeDataset(t *testing.T, n int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "healthcare-dataset-stroke-data.csv")
	require.NoError(t, os.WriteFile(path, []byte(mltest.CSV(n, 42)), 0o600))
	return path
}

func testConfig(t *testing.T, dataset string) training.Config {
	t.Helper()
	cfg := training.DefaultConfig()
	cfg.DatasetPath = dataset
	cfg.ArtifactPath = filepath.Join(t.TempDir(), "out", "stroke.pipeline")
	cfg.Forest.Trees = 15
	return cfg
}

func TestDriver_RunPublishesLoadableArtifact(t *testing.T) {
	cfg := testConfig(t, writeDataset(t, 400))
	cfg.ConfusionPlot = filepath.Join(t.TempDir(), "confusion.png")

	res, err := training.NewDriver(cfg, discardLogger()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, cfg.ArtifactPath, res.ArtifactPath)
	assert.Equal(t, 320, res.Metadata.TrainSize)
	assert.Equal(t, 80, res.Metadata.TestSize)
	assert.Equal(t, 400, res.Metadata.ClassCounts[0]+res.Metadata.ClassCounts[1])
	assert.Greater(t, res.Report.Accuracy, 0.5)
	assert.Len(t, res.Metadata.FeatureImportances, len(res.Metadata.FeatureNames))
	assert.FileExists(t, cfg.ConfusionPlot)

	loaded, err := artifact.Load(cfg.ArtifactPath, schema.Stroke())
	require.NoError(t, err)
	assert.Equal(t, res.ArtifactID, loaded.ID)
	assert.Equal(t, res.Metadata.DatasetSHA256, loaded.Metadata.DatasetSHA256)

	_, err = loaded.Pipeline.Evaluate(mltest.RegressionRow())
	require.NoError(t, err)
}

func TestDriver_RunIsReproducible(t *testing.T) {
	dataset := writeDataset(t, 250)

	first, err := training.NewDriver(testConfig(t, dataset), discardLogger()).Run(context.Background())
	require.NoError(t, err)
	second, err := training.NewDriver(testConfig(t, dataset), discardLogger()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Report, second.Report)

	a, err := artifact.Load(first.ArtifactPath, schema.Stroke())
	require.NoError(t, err)
	b, err := artifact.Load(second.ArtifactPath, schema.Stroke())
	require.NoError(t, err)

	pa, err := a.Pipeline.Evaluate(mltest.RegressionRow())
	require.NoError(t, err)
	pb, err := b.Pipeline.Evaluate(mltest.RegressionRow())
	require.NoError(t, err)
	assert.Equal(t, pa, pb)

	unseen := mltest.RegressionRow()
	unseen[schema.FieldSmokingStatus] = "this_value_never_seen"
	_, err = a.Pipeline.Evaluate(unseen)
	assert.NoError(t, err)
}

func TestDriver_LoadFailureWritesNoArtifact(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("gender,age\nMale,50\n"), 0o600))
	cfg := testConfig(t, bad)

	_, err := training.NewDriver(cfg, discardLogger()).Run(context.Background())
	require.Error(t, err)

	var stageErr *training.StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, training.StageLoad, stageErr.Stage)
	assert.ErrorIs(t, err, training.ErrInvalidDataset)
	assert.NoFileExists(t, cfg.ArtifactPath)
}

func TestDriver_InvalidConfig(t *testing.T) {
	cfg := training.DefaultConfig()
	_, err := training.NewDriver(cfg, discardLogger()).Run(context.Background())
	assert.Error(t, err)

	cfg = testConfig(t, "x.csv")
	cfg.TestRatio = 1.5
	_, err = training.NewDriver(cfg, discardLogger()).Run(context.Background())
	assert.Error(t, err)
}

func TestDriver_CancelledBeforeFit(t *testing.T) {
	cfg := testConfig(t, writeDataset(t, 50))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := training.NewDriver(cfg, discardLogger()).Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, cfg.ArtifactPath)
}
