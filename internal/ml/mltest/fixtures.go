// Package mltest provides deterministic synthetic patient data for tests.
package mltest

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/strokeguard/strokeguard/internal/ml/schema"
)

var (
	genders        = []string{"Male", "Female", "Other"}
	workTypes      = []string{"Private", "Self-employed", "Govt_job", "children", "Never_worked"}
	residenceTypes = []string{"Urban", "Rural"}
	smokingStatus  = []string{"never smoked", "formerly smoked", "smokes", "Unknown"}
)

// Patient is one synthetic labelled record.
type Patient struct {
	Gender          string
	Age             float64
	Hypertension    int
	HeartDisease    int
	EverMarried     string
	WorkType        string
	ResidenceType   string
	AvgGlucoseLevel float64
	BMI             *float64
	SmokingStatus   string
	Stroke          int
}

// Row converts the patient to a schema row.
func (p Patient) Row() schema.Row {
	var bmi any
	if p.BMI != nil {
		bmi = *p.BMI
	}
	return schema.Row{
		schema.FieldAge:             p.Age,
		schema.FieldHypertension:    p.Hypertension,
		schema.FieldHeartDisease:    p.HeartDisease,
		schema.FieldEverMarried:     p.EverMarried,
		schema.FieldWorkType:        p.WorkType,
		schema.FieldResidenceType:   p.ResidenceType,
		schema.FieldAvgGlucoseLevel: p.AvgGlucoseLevel,
		schema.FieldBMI:             bmi,
		schema.FieldSmokingStatus:   p.SmokingStatus,
		schema.FieldGender:          p.Gender,
	}
}

// Patients generates n records. Older patients with hypertension, heart disease or high
// glucose are far more likely to be labelled 1, and every fifth patient is labelled 1
// regardless, so both classes are always present for n >= 5.
func Patients(n int, seed int64) []Patient {
	rng := rand.New(rand.NewSource(seed))
	out := make([]Patient, n)
	for i := range out {
		p := Patient{
			Gender:          genders[rng.Intn(2)],
			Age:             float64(1+rng.Intn(82)) + float64(rng.Intn(10))/10,
			EverMarried:     []string{"Yes", "No"}[rng.Intn(2)],
			WorkType:        workTypes[rng.Intn(len(workTypes))],
			ResidenceType:   residenceTypes[rng.Intn(2)],
			AvgGlucoseLevel: 55 + rng.Float64()*220,
			SmokingStatus:   smokingStatus[rng.Intn(len(smokingStatus))],
		}
		if rng.Intn(10) == 0 {
			p.Gender = genders[2]
		}
		if rng.Intn(4) == 0 {
			p.Hypertension = 1
		}
		if rng.Intn(6) == 0 {
			p.HeartDisease = 1
		}
		if rng.Intn(20) != 0 {
			bmi := 15 + rng.Float64()*30
			p.BMI = &bmi
		}

		score := p.Age/80 + 0.4*float64(p.Hypertension) + 0.4*float64(p.HeartDisease) + (p.AvgGlucoseLevel-100)/300
		if score > 1.1 || i%5 == 0 {
			p.Stroke = 1
		}
		out[i] = p
	}
	return out
}

// Rows returns n schema rows and their labels.
func Rows(n int, seed int64) ([]schema.Row, []int) {
	patients := Patients(n, seed)
	rows := make([]schema.Row, n)
	labels := make([]int, n)
	for i, p := range patients {
		rows[i] = p.Row()
		labels[i] = p.Stroke
	}
	return rows, labels
}

// CSV renders n records in the public dataset layout, including the id column,
// the capitalised Residence_type header and "N/A" for missing bmi.
func CSV(n int, seed int64) string {
	var b strings.Builder
	b.WriteString("id,gender,age,hypertension,heart_disease,ever_married,work_type,Residence_type,avg_glucose_level,bmi,smoking_status,stroke\n")
	for i, p := range Patients(n, seed) {
		bmi := "N/A"
		if p.BMI != nil {
			bmi = fmt.Sprintf("%.1f", *p.BMI)
		}
		fmt.Fprintf(&b, "%d,%s,%.1f,%d,%d,%s,%s,%s,%.2f,%s,%s,%d\n",
			9000+i, p.Gender, p.Age, p.Hypertension, p.HeartDisease, p.EverMarried,
			p.WorkType, p.ResidenceType, p.AvgGlucoseLevel, bmi, p.SmokingStatus, p.Stroke)
	}
	return b.String()
}

// RegressionRow is the fixed high-risk record used to pin inference behaviour.
func RegressionRow() schema.Row {
	return schema.Row{
		schema.FieldAge:             72.0,
		schema.FieldHypertension:    1,
		schema.FieldHeartDisease:    1,
		schema.FieldEverMarried:     "Yes",
		schema.FieldAvgGlucoseLevel: 180.0,
		schema.FieldBMI:             34.5,
		schema.FieldSmokingStatus:   "formerly smoked",
		schema.FieldGender:          "Male",
		schema.FieldWorkType:        "Private",
		schema.FieldResidenceType:   "Urban",
	}
}
