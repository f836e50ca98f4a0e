package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strokeguard/strokeguard/internal/domain/event"
	"github.com/strokeguard/strokeguard/internal/domain/model"
	"github.com/strokeguard/strokeguard/internal/domain/valueobject"
)

func validRecord() model.PatientRecord {
	bmi := 34.5
	return model.PatientRecord{
		Age:             72,
		Hypertension:    1,
		HeartDisease:    1,
		EverMarried:     "Yes",
		WorkType:        "Private",
		ResidenceType:   "Urban",
		AvgGlucoseLevel: 180,
		BMI:             &bmi,
		SmokingStatus:   "formerly smoked",
		Gender:          "Male",
	}
}

func newValidAssessment(t *testing.T) *model.StrokeAssessment {
	t.Helper()
	a, err := model.NewStrokeAssessment(uuid.New(), "MRN-0042", validRecord())
	require.NoError(t, err)
	return a
}

func TestNewStrokeAssessment_Valid(t *testing.T) {
	a := newValidAssessment(t)

	assert.NotEqual(t, uuid.Nil, a.ID())
	assert.Equal(t, "MRN-0042", a.PatientID())
	assert.Equal(t, 1, a.Version())
	assert.False(t, a.IsAssessed())
	assert.True(t, a.RiskLevel().IsZero())
	assert.False(t, a.CreatedAt().IsZero())
	assert.Empty(t, a.DomainEvents())
}

func TestNewStrokeAssessment_Validation(t *testing.T) {
	long := make([]byte, 65)
	for i := range long {
		long[i] = 'x'
	}

	tests := []struct {
		name      string
		patientID string
		mutate    func(*model.PatientRecord)
		wantErr   string
		tenantID  uuid.UUID
	}{
		{name: "nil tenant ID", patientID: "p1", wantErr: "tenant ID is required"},
		{name: "empty patient ID", tenantID: uuid.New(), wantErr: "patient ID is required"},
		{name: "long patient ID", tenantID: uuid.New(), patientID: string(long), wantErr: "at most 64"},
		{
			name: "invalid record", tenantID: uuid.New(), patientID: "p1",
			mutate:  func(r *model.PatientRecord) { r.Age = 0 },
			wantErr: "age must be in",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := validRecord()
			if tt.mutate != nil {
				tt.mutate(&record)
			}
			a, err := model.NewStrokeAssessment(tt.tenantID, tt.patientID, record)
			require.Error(t, err)
			assert.Nil(t, a)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAssess_HighRiskEmitsBothEvents(t *testing.T) {
	a := newValidAssessment(t)

	err := a.Assess(1, 0.8266666666, "model-abc", []string{"hypertension", "heart_disease"})
	require.NoError(t, err)

	assert.True(t, a.IsAssessed())
	assert.Equal(t, 1, a.Label())
	assert.True(t, valueobject.RiskLevelHigh.Equal(a.RiskLevel()))
	assert.Equal(t, "0.82667", a.Probability().StringFixed(5))
	assert.Equal(t, "model-abc", a.ModelID())
	assert.Equal(t, 2, a.Version())
	assert.Contains(t, a.Advice(), "High Stroke Risk Detected")

	evts := a.DomainEvents()
	require.Len(t, evts, 2)
	assert.Equal(t, event.EventTypeAssessmentCompleted, evts[0].EventType())
	assert.Equal(t, event.EventTypeHighRiskDetected, evts[1].EventType())
	assert.Equal(t, a.ID(), evts[0].AggregateID())
	assert.Equal(t, a.TenantID(), evts[1].TenantID())

	var payload event.AssessmentCompleted
	require.NoError(t, json.Unmarshal(evts[0].Payload(), &payload))
	assert.Equal(t, "0.82667", payload.Probability)
	assert.Equal(t, "HIGH", payload.RiskLevel)
	assert.Equal(t, "MRN-0042", payload.PatientID)

	assert.Empty(t, a.DomainEvents(), "events are cleared after retrieval")
}

func TestAssess_LowRiskEmitsCompletedOnly(t *testing.T) {
	a := newValidAssessment(t)

	require.NoError(t, a.Assess(0, 0.12, "model-abc", nil))

	assert.True(t, valueobject.RiskLevelLow.Equal(a.RiskLevel()))
	assert.Contains(t, a.Advice(), "Low Stroke Risk Detected")
	assert.NotNil(t, a.RiskFactors())

	evts := a.DomainEvents()
	require.Len(t, evts, 1)
	assert.Equal(t, event.EventTypeAssessmentCompleted, evts[0].EventType())
}

func TestAssess_Validation(t *testing.T) {
	tests := []struct {
		name    string
		label   int
		prob    float64
		modelID string
		wantErr string
	}{
		{"label out of range", 2, 0.5, "m", "label must be 0 or 1"},
		{"negative probability", 0, -0.1, "m", "probability must be between"},
		{"probability above one", 1, 1.1, "m", "probability must be between"},
		{"missing model", 1, 0.9, "", "model ID is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newValidAssessment(t)
			err := a.Assess(tt.label, tt.prob, tt.modelID, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.False(t, a.IsAssessed())
		})
	}
}

func TestAssess_OnlyOnce(t *testing.T) {
	a := newValidAssessment(t)
	require.NoError(t, a.Assess(0, 0.1, "m", nil))

	err := a.Assess(1, 0.9, "m", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already assessed")
	assert.Equal(t, 0, a.Label())
}

func TestReconstruct(t *testing.T) {
	id, tenant := uuid.New(), uuid.New()
	now := time.Now().UTC()

	a := model.Reconstruct(id, tenant, "p-7", validRecord(), 1, decimal.RequireFromString("0.91333"),
		valueobject.RiskLevelHigh, "model-x", []string{"age_65_plus"}, now, 2, now, now)

	assert.Equal(t, id, a.ID())
	assert.Equal(t, tenant, a.TenantID())
	assert.True(t, a.IsAssessed())
	assert.Equal(t, "0.91333", a.Probability().String())
	assert.Equal(t, []string{"age_65_plus"}, a.RiskFactors())
	assert.Empty(t, a.DomainEvents())
}
