package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/strokeguard/strokeguard/internal/domain/model"
)

// AssessmentRepository defines the persistence port for stroke assessments.
type AssessmentRepository interface {
	// Save persists an assessment together with its pending domain events.
	Save(ctx context.Context, assessment *model.StrokeAssessment) error

	// FindByID retrieves an assessment by its unique identifier. It returns nil, nil when absent.
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.StrokeAssessment, error)

	// FindByPatientID retrieves a page of a patient's assessments, newest first, and the total count.
	FindByPatientID(ctx context.Context, tenantID uuid.UUID, patientID string, limit, offset int) ([]*model.StrokeAssessment, int, error)
}

// Prediction is the classifier outcome for one patient record.
type Prediction struct {
	Label       int
	Probability float64
}

// FeatureImportance is one encoded column's share of the forest's impurity decrease.
type FeatureImportance struct {
	Feature    string
	Importance float64
}

// ModelInfo describes the loaded model.
type ModelInfo struct {
	TrainedAt     time.Time
	ID            string
	Format        string
	DatasetSHA256 string
	Importances   []FeatureImportance
	Accuracy      float64
	Trees         int
	Width         int
	TrainSize     int
	TestSize      int
}

// RiskModel is the port to the fitted stroke classification pipeline.
type RiskModel interface {
	Predict(ctx context.Context, record model.PatientRecord) (Prediction, error)
	Info() ModelInfo
}
