package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/segyhp/amortization-engine/internal/domain"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
)

// uniqueViolation is the postgres SQLSTATE for a duplicate key
const uniqueViolation = "23505"

const scheduleColumns = `id, liability_id, loan_type, principal, rate, rate_type, start_date, end_date,
	term_periods, frequency, periodic_payment, total_interest, total_cost, payments_made,
	next_due_date, remaining_principal, imported_raw, is_imported, notes, created_at, updated_at`

const paymentColumns = `id, schedule_id, sequence_number, scheduled_date, principal_portion,
	interest_portion, total_amount, remaining_principal_after, status, actual_date,
	actual_amount, notes, created_at, updated_at`

type scheduleRepository struct {
	db *sqlx.DB
}

func NewScheduleRepository(db *sqlx.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) Create(ctx context.Context, schedule *domain.Schedule, entries []domain.PaymentEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	defer tx.Rollback()

	if err := insertSchedule(ctx, tx, schedule, entries); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return customError.WrapDatabaseError(err)
	}
	return nil
}

func (r *scheduleRepository) Replace(ctx context.Context, schedule *domain.Schedule, entries []domain.PaymentEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	defer tx.Rollback()

	deleteEntries := `
		DELETE FROM payment_entries
		WHERE schedule_id IN (SELECT id FROM schedules WHERE liability_id = $1)
	`
	if _, err := tx.ExecContext(ctx, deleteEntries, schedule.LiabilityID); err != nil {
		return customError.WrapDatabaseError(err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM schedules WHERE liability_id = $1`, schedule.LiabilityID); err != nil {
		return customError.WrapDatabaseError(err)
	}

	if err := insertSchedule(ctx, tx, schedule, entries); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return customError.WrapDatabaseError(err)
	}
	return nil
}

func (r *scheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = $1`

	var schedule domain.Schedule
	err := r.db.GetContext(ctx, &schedule, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapScheduleNotFound(id.String())
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return &schedule, nil
}

func (r *scheduleRepository) GetByLiabilityID(ctx context.Context, liabilityID string) (*domain.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE liability_id = $1`

	var schedule domain.Schedule
	err := r.db.GetContext(ctx, &schedule, query, liabilityID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapScheduleNotFound("liability " + liabilityID)
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return &schedule, nil
}

func (r *scheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM payment_entries WHERE schedule_id = $1`, id); err != nil {
		return customError.WrapDatabaseError(err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	if affected == 0 {
		return customError.WrapScheduleNotFound(id.String())
	}

	if err := tx.Commit(); err != nil {
		return customError.WrapDatabaseError(err)
	}
	return nil
}

func insertSchedule(ctx context.Context, tx *sqlx.Tx, schedule *domain.Schedule, entries []domain.PaymentEntry) error {
	query := `
		INSERT INTO schedules (` + scheduleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	_, err := tx.ExecContext(ctx, query,
		schedule.ID,
		schedule.LiabilityID,
		schedule.LoanType,
		schedule.Principal,
		schedule.Rate,
		schedule.RateType,
		schedule.StartDate,
		schedule.EndDate,
		schedule.TermPeriods,
		schedule.Frequency,
		schedule.PeriodicPayment,
		schedule.TotalInterest,
		schedule.TotalCost,
		schedule.PaymentsMade,
		schedule.NextDueDate,
		schedule.RemainingPrincipal,
		schedule.ImportedRaw,
		schedule.IsImported,
		schedule.Notes,
		schedule.CreatedAt,
		schedule.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return customError.WrapScheduleAlreadyExists(schedule.LiabilityID)
		}
		return customError.WrapDatabaseError(err)
	}

	entryQuery := `
		INSERT INTO payment_entries (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	for _, entry := range entries {
		_, err = tx.ExecContext(ctx, entryQuery,
			entry.ID,
			entry.ScheduleID,
			entry.SequenceNumber,
			entry.ScheduledDate,
			entry.PrincipalPortion,
			entry.InterestPortion,
			entry.TotalAmount,
			entry.RemainingPrincipalAfter,
			entry.Status,
			entry.ActualDate,
			entry.ActualAmount,
			entry.Notes,
			entry.CreatedAt,
			entry.UpdatedAt,
		)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
	}

	return nil
}
