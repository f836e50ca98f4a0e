package testutil

import (
	"github.com/google/uuid"
)

// Fixed identifiers for deterministic tests.
var (
	TestTenantID    = uuid.MustParse("00000000-0000-0000-0000-000000000010")
	OtherTenantID   = uuid.MustParse("00000000-0000-0000-0000-000000000011")
	TestClinicianID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	TestPatientID   = "P-000042"
)
