// Package pipeline combines a schema, fitted encoder parameters and a classifier into
// an immutable handle. It is the only inference entry point: rows go in by field name,
// labels and probabilities come out.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/strokeguard/strokeguard/internal/ml/encoder"
	"github.com/strokeguard/strokeguard/internal/ml/forest"
	"github.com/strokeguard/strokeguard/internal/ml/schema"
)

// Row is a single observation keyed by field name.
type Row = schema.Row

// Classifier maps an encoded vector to a class-1 probability.
type Classifier interface {
	PredictProbability(x []float64) (float64, error)
	Width() int
}

// Prediction is the outcome for one row.
type Prediction struct {
	Label       int
	Probability float64
}

// Pipeline is safe for concurrent use; nothing in it changes after New.
type Pipeline struct {
	schema     schema.Schema
	encoder    encoder.Params
	classifier Classifier
}

// New assembles a pipeline after checking that the encoder covers the schema and that
// its output width matches the classifier's input width.
func New(s schema.Schema, enc encoder.Params, clf Classifier) (*Pipeline, error) {
	if clf == nil {
		return nil, errors.New("classifier is required")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := enc.Validate(s); err != nil {
		return nil, err
	}
	if enc.Width() != clf.Width() {
		return nil, fmt.Errorf("%w: encoder produces %d features, classifier expects %d",
			forest.ErrShapeMismatch, enc.Width(), clf.Width())
	}
	return &Pipeline{schema: s, encoder: enc, classifier: clf}, nil
}

// Fit learns encoder parameters and a random forest from labelled rows. Missing
// nullable numeric values are imputed with the fitted mean during training only.
func Fit(ctx context.Context, s schema.Schema, rows []Row, labels []int, cfg forest.Config) (*Pipeline, error) {
	if len(rows) != len(labels) {
		return nil, fmt.Errorf("%w: %d rows but %d labels", forest.ErrInvalidTrainingData, len(rows), len(labels))
	}
	enc, err := encoder.Fit(s, rows)
	if err != nil {
		return nil, fmt.Errorf("fitting encoder: %w", err)
	}

	x := make([][]float64, len(rows))
	for i, row := range rows {
		if err := s.CheckRow(row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		x[i], err = enc.EncodeImputed(row)
		if err != nil {
			return nil, fmt.Errorf("encoding row %d: %w", i, err)
		}
	}

	f, err := forest.Fit(ctx, x, labels, cfg)
	if err != nil {
		return nil, fmt.Errorf("fitting forest: %w", err)
	}
	return New(s, enc, f)
}

// Schema returns the field contract.
func (p *Pipeline) Schema() schema.Schema { return p.schema }

// Encoder returns the fitted encoder parameters.
func (p *Pipeline) Encoder() encoder.Params { return p.encoder }

// Classifier returns the underlying classifier.
func (p *Pipeline) Classifier() Classifier { return p.classifier }

// Width returns the encoded vector width.
func (p *Pipeline) Width() int { return p.encoder.Width() }

// Encode checks row keys against the schema and encodes the row.
func (p *Pipeline) Encode(row Row) ([]float64, error) {
	if err := p.schema.CheckRow(row); err != nil {
		return nil, err
	}
	return p.encoder.Encode(row)
}

// PredictProbability returns the class-1 probability for row.
func (p *Pipeline) PredictProbability(row Row) (float64, error) {
	x, err := p.Encode(row)
	if err != nil {
		return 0, err
	}
	return p.classifier.PredictProbability(x)
}

// Predict returns the label for row.
func (p *Pipeline) Predict(row Row) (int, error) {
	pr, err := p.Evaluate(row)
	if err != nil {
		return 0, err
	}
	return pr.Label, nil
}

// Evaluate returns label and probability from a single classifier pass, so the two
// always agree.
func (p *Pipeline) Evaluate(row Row) (Prediction, error) {
	prob, err := p.PredictProbability(row)
	if err != nil {
		return Prediction{}, err
	}
	return Prediction{Label: forest.Label(prob), Probability: prob}, nil
}
