package usecase_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/strokeguard/strokeguard/internal/domain/model"
	"github.com/strokeguard/strokeguard/internal/domain/port"
)

// --- Mock implementations ---

type mockAssessmentRepository struct {
	savedAssessment *model.StrokeAssessment
	saveFunc        func(ctx context.Context, assessment *model.StrokeAssessment) error
	findByIDFunc    func(ctx context.Context, tenantID, id uuid.UUID) (*model.StrokeAssessment, error)
	findByPatient   func(ctx context.Context, tenantID uuid.UUID, patientID string, limit, offset int) ([]*model.StrokeAssessment, int, error)
}

func (m *mockAssessmentRepository) Save(ctx context.Context, assessment *model.StrokeAssessment) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, assessment)
	}
	m.savedAssessment = assessment
	return nil
}

func (m *mockAssessmentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.StrokeAssessment, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, tenantID, id)
	}
	return nil, nil
}

func (m *mockAssessmentRepository) FindByPatientID(ctx context.Context, tenantID uuid.UUID, patientID string, limit, offset int) ([]*model.StrokeAssessment, int, error) {
	if m.findByPatient != nil {
		return m.findByPatient(ctx, tenantID, patientID, limit, offset)
	}
	return nil, 0, nil
}

type mockRiskModel struct {
	prediction port.Prediction
	err        error
	info       port.ModelInfo
}

func (m *mockRiskModel) Predict(_ context.Context, _ model.PatientRecord) (port.Prediction, error) {
	return m.prediction, m.err
}

func (m *mockRiskModel) Info() port.ModelInfo {
	return m.info
}

func bmi(v float64) *float64 { return &v }

func validRecord() model.PatientRecord {
	return model.PatientRecord{
		Gender:          "Female",
		Age:             61,
		Hypertension:    0,
		HeartDisease:    0,
		EverMarried:     "Yes",
		WorkType:        "Self-employed",
		ResidenceType:   "Rural",
		AvgGlucoseLevel: 202.21,
		BMI:             bmi(28.1),
		SmokingStatus:   "never smoked",
	}
}

func assessedFixture(tenantID uuid.UUID, patientID string, label int, probability float64) *model.StrokeAssessment {
	a, err := model.NewStrokeAssessment(tenantID, patientID, validRecord())
	if err != nil {
		panic(err)
	}
	if err := a.Assess(label, probability, "digest", nil); err != nil {
		panic(err)
	}
	return a
}

var fixedTime = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
