package usecase

import (
	"context"
	"fmt"

	"github.com/strokeguard/strokeguard/internal/application/dto"
	"github.com/strokeguard/strokeguard/internal/domain/port"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListPatientAssessments is the use case for paging through a patient's assessment history.
type ListPatientAssessments struct {
	repo port.AssessmentRepository
}

// NewListPatientAssessments creates a new ListPatientAssessments use case.
func NewListPatientAssessments(repo port.AssessmentRepository) *ListPatientAssessments {
	return &ListPatientAssessments{repo: repo}
}

// Execute returns one page of assessments, newest first. A zero page size selects the default;
// larger sizes are capped.
func (uc *ListPatientAssessments) Execute(ctx context.Context, req dto.ListPatientAssessmentsRequest) (dto.ListAssessmentsResponse, error) {
	if req.PatientID == "" {
		return dto.ListAssessmentsResponse{}, fmt.Errorf("%w: patient ID is required", ErrInvalidRequest)
	}
	if req.PageSize < 0 || req.Offset < 0 {
		return dto.ListAssessmentsResponse{}, fmt.Errorf("%w: page size and offset must not be negative", ErrInvalidRequest)
	}

	limit := req.PageSize
	if limit == 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	assessments, total, err := uc.repo.FindByPatientID(ctx, req.TenantID, req.PatientID, limit, req.Offset)
	if err != nil {
		return dto.ListAssessmentsResponse{}, fmt.Errorf("failed to list assessments: %w", err)
	}

	resp := dto.ListAssessmentsResponse{
		Assessments: make([]dto.AssessmentResponse, 0, len(assessments)),
		TotalCount:  total,
	}
	for _, a := range assessments {
		resp.Assessments = append(resp.Assessments, dto.FromModel(a))
	}
	return resp, nil
}
