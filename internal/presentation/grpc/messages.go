package grpc

// Wire messages for strokeguard.risk.v1.RiskService. JSON names follow the dataset
// column names so a record can be pasted straight from a CSV row.

// PatientRecord carries one patient's clinical attributes. Numeric fields are
// pointers so an absent key stays distinguishable from zero; absent or null numerics
// are rejected at serving time.
type PatientRecord struct {
	Age             *float64 `json:"age"`
	AvgGlucoseLevel *float64 `json:"avg_glucose_level"`
	BMI             *float64 `json:"bmi"`
	Hypertension    *int32   `json:"hypertension"`
	HeartDisease    *int32   `json:"heart_disease"`
	Gender          string   `json:"gender"`
	EverMarried     string   `json:"ever_married"`
	WorkType        string   `json:"work_type"`
	ResidenceType   string   `json:"residence_type"`
	SmokingStatus   string   `json:"smoking_status"`
}

// StrokeAssessment is the wire form of a completed assessment.
type StrokeAssessment struct {
	Record      *PatientRecord `json:"record"`
	ID          string         `json:"id"`
	TenantID    string         `json:"tenant_id"`
	PatientID   string         `json:"patient_id"`
	Probability string         `json:"probability"`
	RiskLevel   string         `json:"risk_level"`
	Advice      string         `json:"advice"`
	ModelID     string         `json:"model_id"`
	AssessedAt  string         `json:"assessed_at"`
	CreatedAt   string         `json:"created_at"`
	RiskFactors []string       `json:"risk_factors"`
	Label       int32          `json:"label"`
	Version     int32          `json:"version"`
}

type AssessPatientRequest struct {
	Record    *PatientRecord `json:"record"`
	PatientID string         `json:"patient_id"`
}

type AssessPatientResponse struct {
	Assessment *StrokeAssessment `json:"assessment"`
}

type GetAssessmentRequest struct {
	ID string `json:"id"`
}

type GetAssessmentResponse struct {
	Assessment *StrokeAssessment `json:"assessment"`
}

type ListPatientAssessmentsRequest struct {
	PatientID string `json:"patient_id"`
	PageSize  int32  `json:"page_size"`
	Offset    int32  `json:"offset"`
}

// ListPatientAssessmentsResponse holds one page. NextOffset is zero on the last page.
type ListPatientAssessmentsResponse struct {
	Assessments []*StrokeAssessment `json:"assessments"`
	TotalCount  int32               `json:"total_count"`
	NextOffset  int32               `json:"next_offset"`
}

type GetModelInfoRequest struct{}

type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

type GetModelInfoResponse struct {
	ID            string               `json:"id"`
	Format        string               `json:"format"`
	TrainedAt     string               `json:"trained_at"`
	DatasetSHA256 string               `json:"dataset_sha256"`
	Importances   []*FeatureImportance `json:"importances"`
	Accuracy      float64              `json:"accuracy"`
	Trees         int32                `json:"trees"`
	Width         int32                `json:"width"`
	TrainSize     int32                `json:"train_size"`
	TestSize      int32                `json:"test_size"`
}
