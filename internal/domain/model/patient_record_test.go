package model_test

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strokeguard/strokeguard/internal/domain/model"
	"github.com/strokeguard/strokeguard/internal/ml/schema"
)

func TestPatientRecord_Validate(t *testing.T) {
	require.NoError(t, validRecord().Validate())

	noBMI := validRecord()
	noBMI.BMI = nil
	require.NoError(t, noBMI.Validate(), "bmi is nullable")

	unseen := validRecord()
	unseen.SmokingStatus = "this_value_never_seen"
	require.NoError(t, unseen.Validate(), "unknown categories are the encoder's concern")

	long := validRecord()
	long.WorkType = strings.Repeat("x", 200)
	require.NoError(t, long.Validate(), "category length is not bounded")

	zero := 0.0
	tests := []struct {
		name   string
		mutate func(*model.PatientRecord)
	}{
		{"zero age", func(r *model.PatientRecord) { r.Age = 0 }},
		{"age above 120", func(r *model.PatientRecord) { r.Age = 121 }},
		{"nan age", func(r *model.PatientRecord) { r.Age = math.NaN() }},
		{"zero glucose", func(r *model.PatientRecord) { r.AvgGlucoseLevel = 0 }},
		{"zero bmi", func(r *model.PatientRecord) { r.BMI = &zero }},
		{"hypertension 2", func(r *model.PatientRecord) { r.Hypertension = 2 }},
		{"heart disease -1", func(r *model.PatientRecord) { r.HeartDisease = -1 }},
		{"empty gender", func(r *model.PatientRecord) { r.Gender = "" }},
		{"empty work type", func(r *model.PatientRecord) { r.WorkType = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecord()
			tt.mutate(&r)
			assert.ErrorIs(t, r.Validate(), model.ErrInvalidPatientRecord)
		})
	}
}

func TestPatientRecord_Row(t *testing.T) {
	row := validRecord().Row()

	require.NoError(t, schema.Stroke().CheckRow(row))
	assert.Equal(t, 72.0, row[schema.FieldAge])
	assert.Equal(t, 34.5, row[schema.FieldBMI])
	assert.Equal(t, "formerly smoked", row[schema.FieldSmokingStatus])

	noBMI := validRecord()
	noBMI.BMI = nil
	row = noBMI.Row()
	v, present := row[schema.FieldBMI]
	assert.True(t, present)
	assert.Nil(t, v)
}
