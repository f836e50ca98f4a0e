package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/strokeguard/strokeguard/internal/domain/model"
	"github.com/strokeguard/strokeguard/internal/domain/valueobject"
	"github.com/strokeguard/strokeguard/pkg/events"
	pgutil "github.com/strokeguard/strokeguard/pkg/postgres"
)

// ErrVersionConflict is returned when a concurrent writer has already saved a newer version.
var ErrVersionConflict = errors.New("assessment version conflict")

// DB is the subset of *pgxpool.Pool the repositories need.
type DB interface {
	pgutil.Querier
	pgutil.TxBeginner
}

// AssessmentRepository implements port.AssessmentRepository using PostgreSQL.
type AssessmentRepository struct {
	db DB
}

// NewAssessmentRepository creates a new PostgreSQL-backed assessment repository.
func NewAssessmentRepository(db DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

const assessmentColumns = `
	id, tenant_id, patient_id,
	gender, age, hypertension, heart_disease, ever_married,
	work_type, residence_type, avg_glucose_level, bmi, smoking_status,
	label, probability, risk_level, model_id, risk_factors,
	assessed_at, version, created_at, updated_at`

// Save upserts the assessment and writes its pending domain events to the outbox
// within the same transaction.
func (r *AssessmentRepository) Save(ctx context.Context, assessment *model.StrokeAssessment) error {
	return pgutil.WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		const upsertSQL = `
			INSERT INTO stroke_assessments (` + assessmentColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
				$14, $15, $16, $17, $18, $19, $20, $21, $22)
			ON CONFLICT (id) DO UPDATE SET
				label = EXCLUDED.label,
				probability = EXCLUDED.probability,
				risk_level = EXCLUDED.risk_level,
				model_id = EXCLUDED.model_id,
				risk_factors = EXCLUDED.risk_factors,
				assessed_at = EXCLUDED.assessed_at,
				version = EXCLUDED.version,
				updated_at = EXCLUDED.updated_at
			WHERE stroke_assessments.version < EXCLUDED.version
		`

		rec := assessment.Record()
		var assessedAt *time.Time
		if assessment.IsAssessed() {
			t := assessment.AssessedAt()
			assessedAt = &t
		}

		tag, err := tx.Exec(ctx, upsertSQL,
			assessment.ID(),
			assessment.TenantID(),
			assessment.PatientID(),
			rec.Gender,
			rec.Age,
			rec.Hypertension,
			rec.HeartDisease,
			rec.EverMarried,
			rec.WorkType,
			rec.ResidenceType,
			rec.AvgGlucoseLevel,
			rec.BMI,
			rec.SmokingStatus,
			assessment.Label(),
			assessment.Probability(),
			riskLevelColumn(assessment.RiskLevel()),
			assessment.ModelID(),
			assessment.RiskFactors(),
			assessedAt,
			assessment.Version(),
			assessment.CreatedAt(),
			assessment.UpdatedAt(),
		)
		if err != nil {
			return fmt.Errorf("failed to save assessment: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s at version %d", ErrVersionConflict, assessment.ID(), assessment.Version())
		}

		return insertOutbox(ctx, tx, assessment.DomainEvents())
	})
}

func insertOutbox(ctx context.Context, q pgutil.Querier, evts []events.DomainEvent) error {
	const insertOutboxSQL = `
		INSERT INTO outbox (id, aggregate_id, aggregate_type, tenant_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, evt := range evts {
		entry := events.NewOutboxEntry(evt)
		_, err := q.Exec(ctx, insertOutboxSQL,
			entry.ID,
			entry.AggregateID,
			entry.AggregateType,
			entry.TenantID,
			entry.EventType,
			entry.Payload,
			entry.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert outbox event %s: %w", entry.EventType, err)
		}
	}
	return nil
}

// FindByID retrieves an assessment by its unique identifier. It returns nil, nil when absent.
func (r *AssessmentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.StrokeAssessment, error) {
	query := `SELECT ` + assessmentColumns + `
		FROM stroke_assessments
		WHERE tenant_id = $1 AND id = $2
	`

	assessment, err := scanAssessment(r.db.QueryRow(ctx, query, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return assessment, nil
}

// FindByPatientID retrieves a page of a patient's assessments, newest first, and the total count.
func (r *AssessmentRepository) FindByPatientID(
	ctx context.Context,
	tenantID uuid.UUID,
	patientID string,
	limit, offset int,
) ([]*model.StrokeAssessment, int, error) {
	var total int
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM stroke_assessments WHERE tenant_id = $1 AND patient_id = $2`,
		tenantID, patientID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count assessments: %w", err)
	}

	query := `SELECT ` + assessmentColumns + `
		FROM stroke_assessments
		WHERE tenant_id = $1 AND patient_id = $2
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, tenantID, patientID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query assessments: %w", err)
	}
	defer rows.Close()

	assessments := make([]*model.StrokeAssessment, 0, limit)
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, 0, err
		}
		assessments = append(assessments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate assessments: %w", err)
	}

	return assessments, total, nil
}

// scanner is implemented by pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAssessment(row scanner) (*model.StrokeAssessment, error) {
	var (
		id, tenantID uuid.UUID
		patientID    string
		rec          model.PatientRecord
		label        int
		probability  decimal.Decimal
		riskLevelStr string
		modelID      string
		riskFactors  []string
		assessedAt   *time.Time
		version      int
		createdAt    time.Time
		updatedAt    time.Time
	)

	err := row.Scan(
		&id, &tenantID, &patientID,
		&rec.Gender, &rec.Age, &rec.Hypertension, &rec.HeartDisease, &rec.EverMarried,
		&rec.WorkType, &rec.ResidenceType, &rec.AvgGlucoseLevel, &rec.BMI, &rec.SmokingStatus,
		&label, &probability, &riskLevelStr, &modelID, &riskFactors,
		&assessedAt, &version, &createdAt, &updatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan assessment: %w", err)
	}

	var riskLevel valueobject.RiskLevel
	if riskLevelStr != "" {
		riskLevel, err = valueobject.RiskLevelFromString(riskLevelStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse risk level: %w", err)
		}
	}

	var assessedAtVal time.Time
	if assessedAt != nil {
		assessedAtVal = assessedAt.UTC()
	}
	if riskFactors == nil {
		riskFactors = make([]string, 0)
	}

	return model.Reconstruct(
		id, tenantID, patientID, rec,
		label, probability, riskLevel, modelID, riskFactors,
		assessedAtVal, version, createdAt.UTC(), updatedAt.UTC(),
	), nil
}

// riskLevelColumn stores an unassessed aggregate's zero level as an empty string.
func riskLevelColumn(l valueobject.RiskLevel) string {
	if l.IsZero() {
		return ""
	}
	return l.String()
}
