package service

import (
	"context"
	"fmt"

	"github.com/strokeguard/strokeguard/internal/domain/model"
	"github.com/strokeguard/strokeguard/internal/domain/port"
)

// ScoreOutput is the classifier outcome with the detected risk factors.
type ScoreOutput struct {
	ModelID     string
	RiskFactors []string
	Probability float64
	Label       int
}

// StrokeScorer is a domain service that runs the fitted model over a validated record.
// Unlike rule-based scoring there is no fallback: a model failure fails the assessment.
type StrokeScorer struct {
	model   port.RiskModel
	factors *RiskFactorDetector
}

// NewStrokeScorer creates a StrokeScorer over the given model.
func NewStrokeScorer(m port.RiskModel, factors *RiskFactorDetector) *StrokeScorer {
	return &StrokeScorer{model: m, factors: factors}
}

// Score validates the record and predicts its label and probability.
func (s *StrokeScorer) Score(ctx context.Context, record model.PatientRecord) (ScoreOutput, error) {
	if err := record.Validate(); err != nil {
		return ScoreOutput{}, err
	}

	pred, err := s.model.Predict(ctx, record)
	if err != nil {
		return ScoreOutput{}, fmt.Errorf("predicting stroke risk: %w", err)
	}

	return ScoreOutput{
		Label:       pred.Label,
		Probability: pred.Probability,
		ModelID:     s.model.Info().ID,
		RiskFactors: s.factors.Detect(record),
	}, nil
}
