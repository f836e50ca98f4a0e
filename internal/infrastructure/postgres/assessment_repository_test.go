//go:build integration

package postgres_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strokeguard/strokeguard/internal/domain/event"
	"github.com/strokeguard/strokeguard/internal/domain/model"
	"github.com/strokeguard/strokeguard/internal/infrastructure/postgres"
	"github.com/strokeguard/strokeguard/pkg/events"
	"github.com/strokeguard/strokeguard/pkg/testutil"
)

func setupDB(t *testing.T) *testutil.PostgresContainer {
	t.Helper()
	pc := testutil.NewPostgresContainer(context.Background(), t)
	pc.Migrate(t, filepath.Join("..", "..", "..", "migrations"))
	return pc
}

func bmi(v float64) *float64 { return &v }

func newAssessed(t *testing.T, tenantID uuid.UUID, patientID string, label int, probability float64, bmiValue *float64) *model.StrokeAssessment {
	t.Helper()
	a, err := model.NewStrokeAssessment(tenantID, patientID, model.PatientRecord{
		Gender:          "Male",
		Age:             80,
		Hypertension:    1,
		HeartDisease:    0,
		EverMarried:     "Yes",
		WorkType:        "Private",
		ResidenceType:   "Rural",
		AvgGlucoseLevel: 105.92,
		BMI:             bmiValue,
		SmokingStatus:   "never smoked",
	})
	require.NoError(t, err)
	require.NoError(t, a.Assess(label, probability, "f00d", []string{"hypertension", "age_65_plus"}))
	return a
}

func TestAssessmentRepository_Integration(t *testing.T) {
	pc := setupDB(t)
	ctx := context.Background()
	repo := postgres.NewAssessmentRepository(pc.Pool)
	outbox := postgres.NewOutboxRepository(pc.Pool)
	tenantID := testutil.TestTenantID

	t.Run("save and find round-trips the aggregate", func(t *testing.T) {
		a := newAssessed(t, tenantID, "P-100", 1, 0.8123456, bmi(32.5))
		require.NoError(t, repo.Save(ctx, a))

		got, err := repo.FindByID(ctx, tenantID, a.ID())
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, a.PatientID(), got.PatientID())
		assert.Equal(t, a.Record(), got.Record())
		assert.Equal(t, "0.81235", got.Probability().StringFixed(model.ProbabilityPlaces))
		assert.Equal(t, "HIGH", got.RiskLevel().String())
		assert.Equal(t, []string{"hypertension", "age_65_plus"}, got.RiskFactors())
		assert.Equal(t, a.Version(), got.Version())
		assert.WithinDuration(t, a.AssessedAt(), got.AssessedAt(), time.Microsecond)
	})

	t.Run("missing bmi is stored as null", func(t *testing.T) {
		a := newAssessed(t, tenantID, "P-101", 0, 0.02, nil)
		require.NoError(t, repo.Save(ctx, a))

		got, err := repo.FindByID(ctx, tenantID, a.ID())
		require.NoError(t, err)
		assert.Nil(t, got.Record().BMI)
	})

	t.Run("long unseen categories are stored verbatim", func(t *testing.T) {
		record := newAssessed(t, tenantID, testutil.TestPatientID, 0, 0.04, bmi(22)).Record()
		record.WorkType = strings.Repeat("freelance_contractor_", 4)
		record.SmokingStatus = "this_value_never_seen_in_the_training_data"

		a, err := model.NewStrokeAssessment(tenantID, testutil.TestPatientID, record)
		require.NoError(t, err)
		require.NoError(t, a.Assess(0, 0.04, "f00d", nil))
		require.NoError(t, repo.Save(ctx, a))

		got, err := repo.FindByID(ctx, tenantID, a.ID())
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, record, got.Record())
	})

	t.Run("other tenants cannot read the assessment", func(t *testing.T) {
		a := newAssessed(t, tenantID, "P-102", 0, 0.1, bmi(25))
		require.NoError(t, repo.Save(ctx, a))

		got, err := repo.FindByID(ctx, testutil.OtherTenantID, a.ID())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("pages a patient's history newest first", func(t *testing.T) {
		var ids []uuid.UUID
		for i := 0; i < 3; i++ {
			a := newAssessed(t, tenantID, "P-200", 0, 0.1, bmi(24))
			require.NoError(t, repo.Save(ctx, a))
			ids = append(ids, a.ID())
		}

		page, total, err := repo.FindByPatientID(ctx, tenantID, "P-200", 2, 0)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, page, 2)
		assert.Equal(t, ids[2], page[0].ID())

		page, total, err = repo.FindByPatientID(ctx, tenantID, "P-200", 2, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, page, 1)
		assert.Equal(t, ids[0], page[0].ID())
	})

	t.Run("events land in the outbox with the assessment", func(t *testing.T) {
		pending, err := outbox.FetchUnpublished(ctx, 100)
		require.NoError(t, err)
		require.NoError(t, outbox.MarkPublished(ctx, idsOf(pending)))

		a := newAssessed(t, tenantID, "P-300", 1, 0.97, bmi(30))
		require.NoError(t, repo.Save(ctx, a))

		pending, err = outbox.FetchUnpublished(ctx, 100)
		require.NoError(t, err)
		require.Len(t, pending, 2)
		assert.ElementsMatch(t,
			[]string{event.EventTypeAssessmentCompleted, event.EventTypeHighRiskDetected},
			[]string{pending[0].EventType, pending[1].EventType},
		)
		for _, e := range pending {
			assert.Equal(t, a.ID(), e.AggregateID)
			assert.Equal(t, tenantID, e.TenantID)
			assert.Contains(t, string(e.Payload), `"patient_id"`)
		}

		require.NoError(t, outbox.MarkPublished(ctx, idsOf(pending)))
		pending, err = outbox.FetchUnpublished(ctx, 100)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("saving the same version twice conflicts", func(t *testing.T) {
		a := newAssessed(t, tenantID, "P-400", 0, 0.3, bmi(22))
		require.NoError(t, repo.Save(ctx, a))
		assert.ErrorIs(t, repo.Save(ctx, a), postgres.ErrVersionConflict)
	})
}

func idsOf(entries []events.OutboxEntry) []uuid.UUID {
	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}
