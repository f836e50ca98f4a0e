package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/strokeguard/strokeguard/internal/domain/event"
	"github.com/strokeguard/strokeguard/internal/domain/valueobject"
	"github.com/strokeguard/strokeguard/pkg/events"
)

// ProbabilityPlaces is the number of decimal places a stored probability keeps.
const ProbabilityPlaces = 5

// ErrInvalidAssessment is returned when an assessment cannot be created for its inputs.
var ErrInvalidAssessment = errors.New("invalid assessment")

// StrokeAssessment is the aggregate root for a patient's stroke risk assessment.
type StrokeAssessment struct {
	assessedAt  time.Time
	createdAt   time.Time
	updatedAt   time.Time
	probability decimal.Decimal
	riskLevel   valueobject.RiskLevel
	patientID   string
	modelID     string
	riskFactors []string
	record      PatientRecord
	collector   events.EventCollector
	label       int
	version     int
	tenantID    uuid.UUID
	id          uuid.UUID
}

// NewStrokeAssessment creates an unassessed assessment for a patient record.
// Call Assess() with the classifier outcome to complete it.
func NewStrokeAssessment(tenantID uuid.UUID, patientID string, record PatientRecord) (*StrokeAssessment, error) {
	if tenantID == uuid.Nil {
		return nil, fmt.Errorf("%w: tenant ID is required", ErrInvalidAssessment)
	}
	if patientID == "" {
		return nil, fmt.Errorf("%w: patient ID is required", ErrInvalidAssessment)
	}
	if len(patientID) > 64 {
		return nil, fmt.Errorf("%w: patient ID must be at most 64 characters", ErrInvalidAssessment)
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	return &StrokeAssessment{
		id:          uuid.New(),
		tenantID:    tenantID,
		patientID:   patientID,
		record:      record,
		riskFactors: make([]string, 0),
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// Assess records the classifier outcome, derives the risk level and raises events.
// An assessment can only be assessed once.
func (a *StrokeAssessment) Assess(label int, probability float64, modelID string, riskFactors []string) error {
	if a.IsAssessed() {
		return fmt.Errorf("assessment %s is already assessed", a.id)
	}
	if label != 0 && label != 1 {
		return fmt.Errorf("label must be 0 or 1, got %d", label)
	}
	if probability < 0 || probability > 1 {
		return fmt.Errorf("probability must be between 0 and 1, got %v", probability)
	}
	if modelID == "" {
		return fmt.Errorf("model ID is required")
	}

	a.label = label
	a.probability = decimal.NewFromFloat(probability).Round(ProbabilityPlaces)
	a.riskLevel = valueobject.RiskLevelFromLabel(label)
	a.modelID = modelID
	if riskFactors != nil {
		a.riskFactors = riskFactors
	}
	a.assessedAt = time.Now().UTC()
	a.updatedAt = a.assessedAt
	a.version++

	completed, err := event.NewAssessmentCompleted(event.AssessmentCompleted{
		AssessmentID: a.id,
		TenantID:     a.tenantID,
		PatientID:    a.patientID,
		Label:        a.label,
		Probability:  a.probability.StringFixed(ProbabilityPlaces),
		RiskLevel:    a.riskLevel.String(),
		ModelID:      a.modelID,
		AssessedAt:   a.assessedAt,
	})
	if err != nil {
		return err
	}
	a.collector.Record(completed)

	if a.riskLevel.Equal(valueobject.RiskLevelHigh) {
		detected, err := event.NewHighRiskDetected(event.HighRiskDetected{
			AssessmentID: a.id,
			TenantID:     a.tenantID,
			PatientID:    a.patientID,
			Probability:  a.probability.StringFixed(ProbabilityPlaces),
			RiskFactors:  a.riskFactors,
			DetectedAt:   a.assessedAt,
		})
		if err != nil {
			return err
		}
		a.collector.Record(detected)
	}

	return nil
}

// Reconstruct rebuilds a StrokeAssessment from persisted data (no validation, no events).
func Reconstruct(
	id, tenantID uuid.UUID,
	patientID string,
	record PatientRecord,
	label int,
	probability decimal.Decimal,
	riskLevel valueobject.RiskLevel,
	modelID string,
	riskFactors []string,
	assessedAt time.Time,
	version int,
	createdAt, updatedAt time.Time,
) *StrokeAssessment {
	return &StrokeAssessment{
		id:          id,
		tenantID:    tenantID,
		patientID:   patientID,
		record:      record,
		label:       label,
		probability: probability,
		riskLevel:   riskLevel,
		modelID:     modelID,
		riskFactors: riskFactors,
		assessedAt:  assessedAt,
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// --- Accessors ---

func (a *StrokeAssessment) ID() uuid.UUID                    { return a.id }
func (a *StrokeAssessment) TenantID() uuid.UUID              { return a.tenantID }
func (a *StrokeAssessment) PatientID() string                { return a.patientID }
func (a *StrokeAssessment) Record() PatientRecord            { return a.record }
func (a *StrokeAssessment) Label() int                       { return a.label }
func (a *StrokeAssessment) Probability() decimal.Decimal     { return a.probability }
func (a *StrokeAssessment) RiskLevel() valueobject.RiskLevel { return a.riskLevel }
func (a *StrokeAssessment) ModelID() string                  { return a.modelID }
func (a *StrokeAssessment) RiskFactors() []string            { return a.riskFactors }
func (a *StrokeAssessment) AssessedAt() time.Time            { return a.assessedAt }
func (a *StrokeAssessment) Version() int                     { return a.version }
func (a *StrokeAssessment) CreatedAt() time.Time             { return a.createdAt }
func (a *StrokeAssessment) UpdatedAt() time.Time             { return a.updatedAt }

// IsAssessed reports whether the classifier outcome has been recorded.
func (a *StrokeAssessment) IsAssessed() bool { return !a.assessedAt.IsZero() }

// Advice returns the patient-facing guidance for the assessed risk level.
func (a *StrokeAssessment) Advice() string { return a.riskLevel.Advice() }

// DomainEvents returns all accumulated domain events and clears them.
func (a *StrokeAssessment) DomainEvents() []events.DomainEvent {
	return a.collector.ClearEvents()
}
