package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/strokeguard/strokeguard/pkg/events"
)

const (
	// AggregateTypeStrokeAssessment names the aggregate in outbox rows and message headers.
	AggregateTypeStrokeAssessment = "StrokeAssessment"

	// EventTypeAssessmentCompleted is emitted when a patient assessment finishes.
	EventTypeAssessmentCompleted = "stroke.assessment.completed"

	// EventTypeHighRiskDetected is emitted when the classifier labels a patient high risk.
	EventTypeHighRiskDetected = "stroke.high_risk.detected"
)

// AssessmentCompleted is the payload published for every finished assessment.
type AssessmentCompleted struct {
	AssessedAt   time.Time `json:"assessed_at"`
	PatientID    string    `json:"patient_id"`
	RiskLevel    string    `json:"risk_level"`
	Probability  string    `json:"probability"`
	ModelID      string    `json:"model_id"`
	Label        int       `json:"label"`
	AssessmentID uuid.UUID `json:"assessment_id"`
	TenantID     uuid.UUID `json:"tenant_id"`
}

// HighRiskDetected is the payload published when a patient is labelled high risk,
// so care teams can be alerted.
type HighRiskDetected struct {
	DetectedAt   time.Time `json:"detected_at"`
	PatientID    string    `json:"patient_id"`
	Probability  string    `json:"probability"`
	RiskFactors  []string  `json:"risk_factors"`
	AssessmentID uuid.UUID `json:"assessment_id"`
	TenantID     uuid.UUID `json:"tenant_id"`
}

// NewAssessmentCompleted wraps the payload in a domain event.
func NewAssessmentCompleted(p AssessmentCompleted) (events.DomainEvent, error) {
	return events.NewBaseEvent(EventTypeAssessmentCompleted, p.AssessmentID,
		AggregateTypeStrokeAssessment, p.TenantID, p.AssessedAt, p)
}

// NewHighRiskDetected wraps the payload in a domain event.
func NewHighRiskDetected(p HighRiskDetected) (events.DomainEvent, error) {
	return events.NewBaseEvent(EventTypeHighRiskDetected, p.AssessmentID,
		AggregateTypeStrokeAssessment, p.TenantID, p.DetectedAt, p)
}
