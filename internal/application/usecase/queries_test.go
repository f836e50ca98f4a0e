package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strokeguard/strokeguard/internal/application/dto"
	"github.com/strokeguard/strokeguard/internal/application/usecase"
	"github.com/strokeguard/strokeguard/internal/domain/model"
	"github.com/strokeguard/strokeguard/internal/domain/port"
)

func TestGetAssessment_Execute(t *testing.T) {
	tenantID := uuid.New()

	t.Run("returns the stored assessment", func(t *testing.T) {
		stored := assessedFixture(tenantID, "P-1", 1, 0.77)
		repo := &mockAssessmentRepository{
			findByIDFunc: func(_ context.Context, tid, id uuid.UUID) (*model.StrokeAssessment, error) {
				assert.Equal(t, tenantID, tid)
				assert.Equal(t, stored.ID(), id)
				return stored, nil
			},
		}

		resp, err := usecase.NewGetAssessment(repo).Execute(context.Background(), dto.GetAssessmentRequest{
			TenantID:     tenantID,
			AssessmentID: stored.ID(),
		})

		require.NoError(t, err)
		assert.Equal(t, stored.ID(), resp.ID)
		assert.Equal(t, "HIGH", resp.RiskLevel)
		assert.Equal(t, "0.77000", resp.Probability)
	})

	t.Run("reports a missing assessment as not found", func(t *testing.T) {
		_, err := usecase.NewGetAssessment(&mockAssessmentRepository{}).Execute(context.Background(), dto.GetAssessmentRequest{
			TenantID:     tenantID,
			AssessmentID: uuid.New(),
		})

		assert.ErrorIs(t, err, usecase.ErrAssessmentNotFound)
	})

	t.Run("wraps repository errors", func(t *testing.T) {
		repo := &mockAssessmentRepository{
			findByIDFunc: func(context.Context, uuid.UUID, uuid.UUID) (*model.StrokeAssessment, error) {
				return nil, errors.New("connection reset")
			},
		}

		_, err := usecase.NewGetAssessment(repo).Execute(context.Background(), dto.GetAssessmentRequest{TenantID: tenantID})

		require.Error(t, err)
		assert.NotErrorIs(t, err, usecase.ErrAssessmentNotFound)
		assert.Contains(t, err.Error(), "failed to find assessment")
	})
}

func TestListPatientAssessments_Execute(t *testing.T) {
	tenantID := uuid.New()

	tests := []struct {
		name      string
		pageSize  int
		offset    int
		wantLimit int
	}{
		{name: "default page size", pageSize: 0, wantLimit: 20},
		{name: "explicit page size", pageSize: 5, offset: 10, wantLimit: 5},
		{name: "page size is capped", pageSize: 1000, wantLimit: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotLimit, gotOffset int
			repo := &mockAssessmentRepository{
				findByPatient: func(_ context.Context, _ uuid.UUID, patientID string, limit, offset int) ([]*model.StrokeAssessment, int, error) {
					assert.Equal(t, "P-1", patientID)
					gotLimit, gotOffset = limit, offset
					return []*model.StrokeAssessment{
						assessedFixture(tenantID, "P-1", 0, 0.1),
						assessedFixture(tenantID, "P-1", 1, 0.9),
					}, 42, nil
				},
			}

			resp, err := usecase.NewListPatientAssessments(repo).Execute(context.Background(), dto.ListPatientAssessmentsRequest{
				TenantID:  tenantID,
				PatientID: "P-1",
				PageSize:  tt.pageSize,
				Offset:    tt.offset,
			})

			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, gotLimit)
			assert.Equal(t, tt.offset, gotOffset)
			assert.Equal(t, 42, resp.TotalCount)
			require.Len(t, resp.Assessments, 2)
			assert.Equal(t, "LOW", resp.Assessments[0].RiskLevel)
			assert.Equal(t, "HIGH", resp.Assessments[1].RiskLevel)
		})
	}

	t.Run("rejects invalid input", func(t *testing.T) {
		uc := usecase.NewListPatientAssessments(&mockAssessmentRepository{})

		_, err := uc.Execute(context.Background(), dto.ListPatientAssessmentsRequest{TenantID: tenantID})
		assert.ErrorIs(t, err, usecase.ErrInvalidRequest)

		_, err = uc.Execute(context.Background(), dto.ListPatientAssessmentsRequest{TenantID: tenantID, PatientID: "P-1", Offset: -1})
		assert.ErrorIs(t, err, usecase.ErrInvalidRequest)
	})

	t.Run("empty history", func(t *testing.T) {
		resp, err := usecase.NewListPatientAssessments(&mockAssessmentRepository{}).Execute(context.Background(),
			dto.ListPatientAssessmentsRequest{TenantID: tenantID, PatientID: "P-404"})

		require.NoError(t, err)
		assert.Empty(t, resp.Assessments)
		assert.NotNil(t, resp.Assessments)
		assert.Zero(t, resp.TotalCount)
	})
}

func TestGetModelInfo_Execute(t *testing.T) {
	m := &mockRiskModel{info: port.ModelInfo{
		ID:        "abc",
		Format:    "strokeguard.pipeline/v1",
		TrainedAt: fixedTime,
		Trees:     150,
		Width:     21,
		Accuracy:  0.94,
		Importances: []port.FeatureImportance{
			{Feature: "age", Importance: 0.4},
			{Feature: "bmi", Importance: 0.2},
		},
	}}

	resp := usecase.NewGetModelInfo(m).Execute()

	assert.Equal(t, "abc", resp.ID)
	assert.Equal(t, fixedTime, resp.TrainedAt)
	assert.Equal(t, 150, resp.Trees)
	assert.Equal(t, 21, resp.Width)
	assert.Equal(t, []dto.FeatureImportance{
		{Feature: "age", Importance: 0.4},
		{Feature: "bmi", Importance: 0.2},
	}, resp.Importances)
}
