package usecase

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/strokeguard/strokeguard/internal/application/dto"
	"github.com/strokeguard/strokeguard/internal/domain/model"
	"github.com/strokeguard/strokeguard/internal/domain/port"
	"github.com/strokeguard/strokeguard/internal/domain/service"
)

const tracerName = "github.com/strokeguard/strokeguard/internal/application/usecase"

// AssessPatient is the use case for scoring a patient record and persisting the assessment.
// Domain events are stored by the repository in the same transaction as the assessment.
type AssessPatient struct {
	repo   port.AssessmentRepository
	scorer *service.StrokeScorer
}

// NewAssessPatient creates a new AssessPatient use case.
func NewAssessPatient(repo port.AssessmentRepository, scorer *service.StrokeScorer) *AssessPatient {
	return &AssessPatient{
		repo:   repo,
		scorer: scorer,
	}
}

// Execute validates the record, predicts, completes the assessment and saves it.
func (uc *AssessPatient) Execute(ctx context.Context, req dto.AssessPatientRequest) (dto.AssessmentResponse, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "AssessPatient")
	defer span.End()
	span.SetAttributes(attribute.String("tenant_id", req.TenantID.String()))

	resp, err := uc.execute(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dto.AssessmentResponse{}, err
	}
	span.SetAttributes(
		attribute.String("risk_level", resp.RiskLevel),
		attribute.String("model_id", resp.ModelID),
	)
	return resp, nil
}

func (uc *AssessPatient) execute(ctx context.Context, req dto.AssessPatientRequest) (dto.AssessmentResponse, error) {
	// 1. Create the assessment aggregate; this validates the record.
	assessment, err := model.NewStrokeAssessment(req.TenantID, req.PatientID, req.Record)
	if err != nil {
		return dto.AssessmentResponse{}, fmt.Errorf("failed to create assessment: %w", err)
	}

	// 2. Run the model via the domain service.
	out, err := uc.scorer.Score(ctx, req.Record)
	if err != nil {
		return dto.AssessmentResponse{}, fmt.Errorf("failed to score patient: %w", err)
	}

	// 3. Apply the outcome; this derives the risk level and raises events.
	if err := assessment.Assess(out.Label, out.Probability, out.ModelID, out.RiskFactors); err != nil {
		return dto.AssessmentResponse{}, fmt.Errorf("failed to assess patient: %w", err)
	}

	// 4. Persist the assessment and its outbox events.
	if err := uc.repo.Save(ctx, assessment); err != nil {
		return dto.AssessmentResponse{}, fmt.Errorf("failed to save assessment: %w", err)
	}

	return dto.FromModel(assessment), nil
}
