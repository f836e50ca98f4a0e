package service

import "github.com/strokeguard/strokeguard/internal/domain/model"

// Risk factor signals reported alongside a prediction.
const (
	FactorHypertension   = "hypertension"
	FactorHeartDisease   = "heart_disease"
	FactorAge65Plus      = "age_65_plus"
	FactorHighGlucose    = "high_glucose"
	FactorObesity        = "obesity"
	FactorCurrentSmoker  = "current_smoker"
	FactorFormerSmoker   = "former_smoker"
	highGlucoseThreshold = 140.0
	obesityBMIThreshold  = 30.0
	seniorAgeThreshold   = 65.0
)

// RiskFactorDetector lists the recognised clinical risk factors present in a record.
// The factors are descriptive only; they never change the classifier's label.
type RiskFactorDetector struct{}

// NewRiskFactorDetector creates a new RiskFactorDetector instance.
func NewRiskFactorDetector() *RiskFactorDetector {
	return &RiskFactorDetector{}
}

// Detect returns the risk factors in a fixed order.
func (d *RiskFactorDetector) Detect(r model.PatientRecord) []string {
	factors := make([]string, 0)

	if r.Hypertension == 1 {
		factors = append(factors, FactorHypertension)
	}
	if r.HeartDisease == 1 {
		factors = append(factors, FactorHeartDisease)
	}
	if r.Age >= seniorAgeThreshold {
		factors = append(factors, FactorAge65Plus)
	}
	if r.AvgGlucoseLevel >= highGlucoseThreshold {
		factors = append(factors, FactorHighGlucose)
	}
	if r.BMI != nil && *r.BMI >= obesityBMIThreshold {
		factors = append(factors, FactorObesity)
	}

	switch r.SmokingStatus {
	case "smokes":
		factors = append(factors, FactorCurrentSmoker)
	case "formerly smoked":
		factors = append(factors, FactorFormerSmoker)
	}

	return factors
}
