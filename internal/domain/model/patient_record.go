package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/strokeguard/strokeguard/internal/ml/schema"
)

// ErrInvalidPatientRecord is returned when a record falls outside its clinical domain.
var ErrInvalidPatientRecord = errors.New("invalid patient record")

// PatientRecord is one patient's raw clinical attributes. Field names match the
// dataset columns and the pipeline schema.
type PatientRecord struct {
	BMI             *float64 `json:"bmi"`
	Gender          string   `json:"gender"`
	EverMarried     string   `json:"ever_married"`
	WorkType        string   `json:"work_type"`
	ResidenceType   string   `json:"residence_type"`
	SmokingStatus   string   `json:"smoking_status"`
	Age             float64  `json:"age"`
	AvgGlucoseLevel float64  `json:"avg_glucose_level"`
	Hypertension    int      `json:"hypertension"`
	HeartDisease    int      `json:"heart_disease"`
}

// Validate checks numeric domains and that categorical values are present. Categorical
// values outside the known sets are accepted; the encoder maps them to zero blocks.
func (r PatientRecord) Validate() error {
	if !finite(r.Age) || r.Age <= 0 || r.Age > 120 {
		return fmt.Errorf("%w: age must be in (0, 120], got %v", ErrInvalidPatientRecord, r.Age)
	}
	if !finite(r.AvgGlucoseLevel) || r.AvgGlucoseLevel <= 0 {
		return fmt.Errorf("%w: avg_glucose_level must be positive, got %v", ErrInvalidPatientRecord, r.AvgGlucoseLevel)
	}
	if r.BMI != nil && (!finite(*r.BMI) || *r.BMI <= 0) {
		return fmt.Errorf("%w: bmi must be positive, got %v", ErrInvalidPatientRecord, *r.BMI)
	}
	if r.Hypertension != 0 && r.Hypertension != 1 {
		return fmt.Errorf("%w: hypertension must be 0 or 1, got %d", ErrInvalidPatientRecord, r.Hypertension)
	}
	if r.HeartDisease != 0 && r.HeartDisease != 1 {
		return fmt.Errorf("%w: heart_disease must be 0 or 1, got %d", ErrInvalidPatientRecord, r.HeartDisease)
	}

	for name, v := range map[string]string{
		schema.FieldGender:        r.Gender,
		schema.FieldEverMarried:   r.EverMarried,
		schema.FieldWorkType:      r.WorkType,
		schema.FieldResidenceType: r.ResidenceType,
		schema.FieldSmokingStatus: r.SmokingStatus,
	} {
		if v == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidPatientRecord, name)
		}
	}
	return nil
}

// Row converts the record into a pipeline row. A nil BMI is carried as a nil value.
func (r PatientRecord) Row() schema.Row {
	var bmi any
	if r.BMI != nil {
		bmi = *r.BMI
	}
	return schema.Row{
		schema.FieldAge:             r.Age,
		schema.FieldHypertension:    r.Hypertension,
		schema.FieldHeartDisease:    r.HeartDisease,
		schema.FieldEverMarried:     r.EverMarried,
		schema.FieldWorkType:        r.WorkType,
		schema.FieldResidenceType:   r.ResidenceType,
		schema.FieldAvgGlucoseLevel: r.AvgGlucoseLevel,
		schema.FieldBMI:             bmi,
		schema.FieldSmokingStatus:   r.SmokingStatus,
		schema.FieldGender:          r.Gender,
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
