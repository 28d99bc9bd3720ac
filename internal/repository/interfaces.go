package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/amortization-engine/internal/domain"
)

// ScheduleRepository persists a schedule together with its payment ledger.
// Every write runs in a single transaction.
type ScheduleRepository interface {
	// Create inserts the schedule and all of its entries
	Create(ctx context.Context, schedule *domain.Schedule, entries []domain.PaymentEntry) error

	// Replace drops any schedule of the same liability and inserts the new one
	Replace(ctx context.Context, schedule *domain.Schedule, entries []domain.PaymentEntry) error

	GetByID(ctx context.Context, id uuid.UUID) (*domain.Schedule, error)

	GetByLiabilityID(ctx context.Context, liabilityID string) (*domain.Schedule, error)

	// Delete removes the schedule and its entries
	Delete(ctx context.Context, id uuid.UUID) error
}

// PaymentRepository reads and settles payment entries
type PaymentRepository interface {
	// ListByScheduleID returns the ledger ordered by sequence number
	ListByScheduleID(ctx context.Context, scheduleID uuid.UUID) ([]domain.PaymentEntry, error)

	GetByID(ctx context.Context, scheduleID, entryID uuid.UUID) (*domain.PaymentEntry, error)

	// Settle stores a paid entry and the schedule summary derived from it
	Settle(ctx context.Context, entry *domain.PaymentEntry, summary domain.ScheduleSummary) error

	// ListScheduledDueBefore returns unpaid entries of every schedule due before the given day
	ListScheduledDueBefore(ctx context.Context, before time.Time) ([]domain.PaymentEntry, error)

	// ListScheduledBetween returns unpaid entries due in [from, to)
	ListScheduledBetween(ctx context.Context, from, to time.Time) ([]domain.PaymentEntry, error)
}
