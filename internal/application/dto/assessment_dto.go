package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/strokeguard/strokeguard/internal/domain/model"
	"github.com/strokeguard/strokeguard/internal/domain/port"
)

// AssessPatientRequest is the input DTO for the AssessPatient use case.
type AssessPatientRequest struct {
	Record    model.PatientRecord `json:"record"`
	PatientID string              `json:"patient_id"`
	TenantID  uuid.UUID           `json:"tenant_id"`
}

// AssessmentResponse is the output DTO returned after an assessment.
type AssessmentResponse struct {
	AssessedAt  time.Time           `json:"assessed_at"`
	CreatedAt   time.Time           `json:"created_at"`
	Record      model.PatientRecord `json:"record"`
	RiskFactors []string            `json:"risk_factors"`
	PatientID   string              `json:"patient_id"`
	Probability string              `json:"probability"`
	RiskLevel   string              `json:"risk_level"`
	Advice      string              `json:"advice"`
	ModelID     string              `json:"model_id"`
	Label       int                 `json:"label"`
	Version     int                 `json:"version"`
	ID          uuid.UUID           `json:"id"`
	TenantID    uuid.UUID           `json:"tenant_id"`
}

// GetAssessmentRequest is the input DTO for retrieving an assessment.
type GetAssessmentRequest struct {
	TenantID     uuid.UUID `json:"tenant_id"`
	AssessmentID uuid.UUID `json:"assessment_id"`
}

// ListPatientAssessmentsRequest selects one page of a patient's assessments.
type ListPatientAssessmentsRequest struct {
	PatientID string    `json:"patient_id"`
	PageSize  int       `json:"page_size"`
	Offset    int       `json:"offset"`
	TenantID  uuid.UUID `json:"tenant_id"`
}

// ListAssessmentsResponse is one page of assessments plus the unpaged total.
type ListAssessmentsResponse struct {
	Assessments []AssessmentResponse `json:"assessments"`
	TotalCount  int                  `json:"total_count"`
}

// FeatureImportance is one encoded column and its importance.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// ModelInfoResponse describes the model serving predictions.
type ModelInfoResponse struct {
	TrainedAt     time.Time           `json:"trained_at"`
	ID            string              `json:"id"`
	Format        string              `json:"format"`
	DatasetSHA256 string              `json:"dataset_sha256"`
	Importances   []FeatureImportance `json:"importances"`
	Accuracy      float64             `json:"accuracy"`
	Trees         int                 `json:"trees"`
	Width         int                 `json:"width"`
	TrainSize     int                 `json:"train_size"`
	TestSize      int                 `json:"test_size"`
}

// FromModel maps a domain model to the response DTO.
func FromModel(a *model.StrokeAssessment) AssessmentResponse {
	return AssessmentResponse{
		ID:          a.ID(),
		TenantID:    a.TenantID(),
		PatientID:   a.PatientID(),
		Record:      a.Record(),
		Label:       a.Label(),
		Probability: a.Probability().StringFixed(model.ProbabilityPlaces),
		RiskLevel:   a.RiskLevel().String(),
		Advice:      a.Advice(),
		ModelID:     a.ModelID(),
		RiskFactors: a.RiskFactors(),
		Version:     a.Version(),
		AssessedAt:  a.AssessedAt(),
		CreatedAt:   a.CreatedAt(),
	}
}

// FromModelInfo maps the model port description to the response DTO.
func FromModelInfo(info port.ModelInfo) ModelInfoResponse {
	importances := make([]FeatureImportance, len(info.Importances))
	for i, fi := range info.Importances {
		importances[i] = FeatureImportance{Feature: fi.Feature, Importance: fi.Importance}
	}
	return ModelInfoResponse{
		ID:            info.ID,
		Format:        info.Format,
		TrainedAt:     info.TrainedAt,
		DatasetSHA256: info.DatasetSHA256,
		Accuracy:      info.Accuracy,
		Trees:         info.Trees,
		Width:         info.Width,
		TrainSize:     info.TrainSize,
		TestSize:      info.TestSize,
		Importances:   importances,
	}
}
