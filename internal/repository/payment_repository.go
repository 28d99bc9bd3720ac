package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/amortization-engine/internal/domain"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
)

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) ListByScheduleID(ctx context.Context, scheduleID uuid.UUID) ([]domain.PaymentEntry, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payment_entries
		WHERE schedule_id = $1
		ORDER BY sequence_number
	`

	var entries []domain.PaymentEntry
	if err := r.db.SelectContext(ctx, &entries, query, scheduleID); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return entries, nil
}

func (r *paymentRepository) GetByID(ctx context.Context, scheduleID, entryID uuid.UUID) (*domain.PaymentEntry, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payment_entries
		WHERE schedule_id = $1 AND id = $2
	`

	var entry domain.PaymentEntry
	err := r.db.GetContext(ctx, &entry, query, scheduleID, entryID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapPaymentNotFound(entryID.String())
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return &entry, nil
}

// Settle only touches an entry that is still scheduled, so a concurrent
// settlement of the same entry fails instead of overwriting.
func (r *paymentRepository) Settle(ctx context.Context, entry *domain.PaymentEntry, summary domain.ScheduleSummary) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	defer tx.Rollback()

	entryQuery := `
		UPDATE payment_entries
		SET status = $3, actual_date = $4, actual_amount = $5, notes = $6, updated_at = $7
		WHERE id = $1 AND schedule_id = $2 AND status = 'scheduled'
	`

	result, err := tx.ExecContext(ctx, entryQuery,
		entry.ID,
		entry.ScheduleID,
		entry.Status,
		entry.ActualDate,
		entry.ActualAmount,
		entry.Notes,
		entry.UpdatedAt,
	)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	if affected == 0 {
		return customError.WrapPaymentAlreadySettled(entry.SequenceNumber)
	}

	summaryQuery := `
		UPDATE schedules
		SET payments_made = $2, next_due_date = $3, remaining_principal = $4, updated_at = $5
		WHERE id = $1
	`

	_, err = tx.ExecContext(ctx, summaryQuery,
		entry.ScheduleID,
		summary.PaymentsMade,
		summary.NextDueDate,
		summary.RemainingPrincipal,
		entry.UpdatedAt,
	)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}

	if err := tx.Commit(); err != nil {
		return customError.WrapDatabaseError(err)
	}
	return nil
}

func (r *paymentRepository) ListScheduledDueBefore(ctx context.Context, before time.Time) ([]domain.PaymentEntry, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payment_entries
		WHERE status = 'scheduled' AND scheduled_date < $1
		ORDER BY schedule_id, sequence_number
	`

	var entries []domain.PaymentEntry
	if err := r.db.SelectContext(ctx, &entries, query, before); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return entries, nil
}

func (r *paymentRepository) ListScheduledBetween(ctx context.Context, from, to time.Time) ([]domain.PaymentEntry, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payment_entries
		WHERE status = 'scheduled' AND scheduled_date >= $1 AND scheduled_date < $2
		ORDER BY scheduled_date, schedule_id, sequence_number
	`

	var entries []domain.PaymentEntry
	if err := r.db.SelectContext(ctx, &entries, query, from, to); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return entries, nil
}
