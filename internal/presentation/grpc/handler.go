package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/strokeguard/strokeguard/internal/application/dto"
	"github.com/strokeguard/strokeguard/internal/application/usecase"
	"github.com/strokeguard/strokeguard/internal/domain/model"
	"github.com/strokeguard/strokeguard/internal/ml/schema"
	"github.com/strokeguard/strokeguard/pkg/auth"
)

var (
	assessRoles = []string{auth.RoleClinician, auth.RoleAdmin, auth.RoleAPIClient}
	readRoles   = []string{auth.RoleClinician, auth.RoleAdmin, auth.RoleAuditor, auth.RoleAPIClient}
)

// RiskServiceHandler implements RiskServiceServer on top of the application use cases.
type RiskServiceHandler struct {
	UnimplementedRiskServiceServer
	assessPatient          *usecase.AssessPatient
	getAssessment          *usecase.GetAssessment
	listPatientAssessments *usecase.ListPatientAssessments
	getModelInfo           *usecase.GetModelInfo
	logger                 *slog.Logger
}

// NewRiskServiceHandler creates a new handler.
func NewRiskServiceHandler(
	assessPatient *usecase.AssessPatient,
	getAssessment *usecase.GetAssessment,
	listPatientAssessments *usecase.ListPatientAssessments,
	getModelInfo *usecase.GetModelInfo,
	logger *slog.Logger,
) *RiskServiceHandler {
	return &RiskServiceHandler{
		assessPatient:          assessPatient,
		getAssessment:          getAssessment,
		listPatientAssessments: listPatientAssessments,
		getModelInfo:           getModelInfo,
		logger:                 logger,
	}
}

// AssessPatient scores a patient record and stores the assessment.
func (h *RiskServiceHandler) AssessPatient(ctx context.Context, req *AssessPatientRequest) (*AssessPatientResponse, error) {
	claims, err := auth.RequireAnyRole(ctx, assessRoles...)
	if err != nil {
		return nil, err
	}
	if req.Record == nil {
		return nil, status.Error(codes.InvalidArgument, "record is required")
	}

	record, err := recordFromProto(req.Record)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	result, err := h.assessPatient.Execute(ctx, dto.AssessPatientRequest{
		TenantID:  claims.TenantID,
		PatientID: req.PatientID,
		Record:    record,
	})
	if err != nil {
		return nil, h.toStatus(ctx, "assess patient", err)
	}

	h.logger.InfoContext(ctx, "patient assessed",
		slog.String("assessment_id", result.ID.String()),
		slog.String("risk_level", result.RiskLevel),
		slog.String("user_id", claims.UserID.String()),
	)
	return &AssessPatientResponse{Assessment: assessmentToProto(result)}, nil
}

// GetAssessment returns one assessment of the caller's tenant.
func (h *RiskServiceHandler) GetAssessment(ctx context.Context, req *GetAssessmentRequest) (*GetAssessmentResponse, error) {
	claims, err := auth.RequireAnyRole(ctx, readRoles...)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid assessment id: %v", err)
	}

	result, err := h.getAssessment.Execute(ctx, dto.GetAssessmentRequest{
		TenantID:     claims.TenantID,
		AssessmentID: id,
	})
	if err != nil {
		return nil, h.toStatus(ctx, "get assessment", err)
	}
	return &GetAssessmentResponse{Assessment: assessmentToProto(result)}, nil
}

// ListPatientAssessments pages through a patient's history, newest first.
func (h *RiskServiceHandler) ListPatientAssessments(ctx context.Context, req *ListPatientAssessmentsRequest) (*ListPatientAssessmentsResponse, error) {
	claims, err := auth.RequireAnyRole(ctx, readRoles...)
	if err != nil {
		return nil, err
	}

	result, err := h.listPatientAssessments.Execute(ctx, dto.ListPatientAssessmentsRequest{
		TenantID:  claims.TenantID,
		PatientID: req.PatientID,
		PageSize:  int(req.PageSize),
		Offset:    int(req.Offset),
	})
	if err != nil {
		return nil, h.toStatus(ctx, "list patient assessments", err)
	}

	resp := &ListPatientAssessmentsResponse{
		Assessments: make([]*StrokeAssessment, len(result.Assessments)),
		TotalCount:  int32(result.TotalCount),
	}
	for i, a := range result.Assessments {
		resp.Assessments[i] = assessmentToProto(a)
	}
	if next := int(req.Offset) + len(result.Assessments); len(result.Assessments) > 0 && next < result.TotalCount {
		resp.NextOffset = int32(next)
	}
	return resp, nil
}

// GetModelInfo describes the model serving predictions.
func (h *RiskServiceHandler) GetModelInfo(ctx context.Context, _ *GetModelInfoRequest) (*GetModelInfoResponse, error) {
	if _, err := auth.RequireAnyRole(ctx, readRoles...); err != nil {
		return nil, err
	}
	info := h.getModelInfo.Execute()

	resp := &GetModelInfoResponse{
		ID:            info.ID,
		Format:        info.Format,
		TrainedAt:     info.TrainedAt.Format(time.RFC3339),
		DatasetSHA256: info.DatasetSHA256,
		Accuracy:      info.Accuracy,
		Trees:         int32(info.Trees),
		Width:         int32(info.Width),
		TrainSize:     int32(info.TrainSize),
		TestSize:      int32(info.TestSize),
		Importances:   make([]*FeatureImportance, len(info.Importances)),
	}
	for i, fi := range info.Importances {
		resp.Importances[i] = &FeatureImportance{Feature: fi.Feature, Importance: fi.Importance}
	}
	return resp, nil
}

// toStatus maps application errors to gRPC status codes. Unexpected errors are logged
// and returned without internal detail.
func (h *RiskServiceHandler) toStatus(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, model.ErrInvalidPatientRecord),
		errors.Is(err, model.ErrInvalidAssessment),
		errors.Is(err, schema.ErrMissingField),
		errors.Is(err, schema.ErrInvalidField),
		errors.Is(err, schema.ErrSchemaMismatch),
		errors.Is(err, usecase.ErrInvalidRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, usecase.ErrAssessmentNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	h.logger.ErrorContext(ctx, fmt.Sprintf("failed to %s", op), slog.String("error", err.Error()))
	return status.Errorf(codes.Internal, "failed to %s", op)
}

// recordFromProto rejects absent numerics with schema.ErrMissingField. bmi is left
// nil so the pipeline reports it the same way.
func recordFromProto(r *PatientRecord) (model.PatientRecord, error) {
	var missing []string
	if r.Age == nil {
		missing = append(missing, schema.FieldAge)
	}
	if r.AvgGlucoseLevel == nil {
		missing = append(missing, schema.FieldAvgGlucoseLevel)
	}
	if r.Hypertension == nil {
		missing = append(missing, schema.FieldHypertension)
	}
	if r.HeartDisease == nil {
		missing = append(missing, schema.FieldHeartDisease)
	}
	if len(missing) > 0 {
		return model.PatientRecord{}, fmt.Errorf("%w: %s", schema.ErrMissingField, strings.Join(missing, ", "))
	}

	return model.PatientRecord{
		Gender:          r.Gender,
		Age:             *r.Age,
		Hypertension:    int(*r.Hypertension),
		HeartDisease:    int(*r.HeartDisease),
		EverMarried:     r.EverMarried,
		WorkType:        r.WorkType,
		ResidenceType:   r.ResidenceType,
		AvgGlucoseLevel: *r.AvgGlucoseLevel,
		BMI:             r.BMI,
		SmokingStatus:   r.SmokingStatus,
	}, nil
}

func recordToProto(r model.PatientRecord) *PatientRecord {
	hypertension, heart := int32(r.Hypertension), int32(r.HeartDisease)
	age, glucose := r.Age, r.AvgGlucoseLevel
	return &PatientRecord{
		Gender:          r.Gender,
		Age:             &age,
		Hypertension:    &hypertension,
		HeartDisease:    &heart,
		EverMarried:     r.EverMarried,
		WorkType:        r.WorkType,
		ResidenceType:   r.ResidenceType,
		AvgGlucoseLevel: &glucose,
		BMI:             r.BMI,
		SmokingStatus:   r.SmokingStatus,
	}
}

func assessmentToProto(a dto.AssessmentResponse) *StrokeAssessment {
	return &StrokeAssessment{
		ID:          a.ID.String(),
		TenantID:    a.TenantID.String(),
		PatientID:   a.PatientID,
		Record:      recordToProto(a.Record),
		Label:       int32(a.Label),
		Probability: a.Probability,
		RiskLevel:   a.RiskLevel,
		Advice:      a.Advice,
		ModelID:     a.ModelID,
		RiskFactors: a.RiskFactors,
		AssessedAt:  a.AssessedAt.Format(time.RFC3339Nano),
		CreatedAt:   a.CreatedAt.Format(time.RFC3339Nano),
		Version:     int32(a.Version),
	}
}
