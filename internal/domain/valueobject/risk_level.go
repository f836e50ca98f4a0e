package valueobject

import "fmt"

// RiskLevel is an immutable value object representing the stroke risk classification.
type RiskLevel struct {
	value string
}

var (
	RiskLevelLow  = RiskLevel{value: "LOW"}
	RiskLevelHigh = RiskLevel{value: "HIGH"}
)

// RiskLevelFromString reconstructs a RiskLevel from its string representation.
func RiskLevelFromString(s string) (RiskLevel, error) {
	switch s {
	case "LOW":
		return RiskLevelLow, nil
	case "HIGH":
		return RiskLevelHigh, nil
	default:
		return RiskLevel{}, fmt.Errorf("invalid risk level: %s", s)
	}
}

// RiskLevelFromLabel maps a classifier label to a risk level: 1 is HIGH, anything else LOW.
func RiskLevelFromLabel(label int) RiskLevel {
	if label == 1 {
		return RiskLevelHigh
	}
	return RiskLevelLow
}

// String returns the string representation.
func (r RiskLevel) String() string {
	return r.value
}

// Advice returns the patient-facing guidance shown with an assessment.
func (r RiskLevel) Advice() string {
	switch r.value {
	case "HIGH":
		return "High Stroke Risk Detected. Immediate medical consultation is recommended."
	case "LOW":
		return "Low Stroke Risk Detected. Maintain a healthy lifestyle and regular checkups."
	default:
		return ""
	}
}

// IsZero returns true if the RiskLevel has not been set.
func (r RiskLevel) IsZero() bool {
	return r.value == ""
}

// Equal checks equality with another RiskLevel.
func (r RiskLevel) Equal(other RiskLevel) bool {
	return r.value == other.value
}
