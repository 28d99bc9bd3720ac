package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the lifecycle state of a payment entry
type PaymentStatus string

const (
	PaymentStatusScheduled PaymentStatus = "scheduled"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusMissed    PaymentStatus = "missed"
)

// PaymentEntry is one period of a schedule
type PaymentEntry struct {
	ID                      uuid.UUID           `json:"id" db:"id"`
	ScheduleID              uuid.UUID           `json:"schedule_id" db:"schedule_id"`
	SequenceNumber          int                 `json:"sequence_number" db:"sequence_number"`
	ScheduledDate           time.Time           `json:"scheduled_date" db:"scheduled_date"`
	PrincipalPortion        decimal.Decimal     `json:"principal_portion" db:"principal_portion"`
	InterestPortion         decimal.Decimal     `json:"interest_portion" db:"interest_portion"`
	TotalAmount             decimal.Decimal     `json:"total_amount" db:"total_amount"`
	RemainingPrincipalAfter decimal.Decimal     `json:"remaining_principal_after" db:"remaining_principal_after"`
	Status                  PaymentStatus       `json:"status" db:"status"`
	ActualDate              *time.Time          `json:"actual_date" db:"actual_date"`
	ActualAmount            decimal.NullDecimal `json:"actual_amount" db:"actual_amount"`
	Notes                   *string             `json:"notes,omitempty" db:"notes"`
	CreatedAt               time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt               time.Time           `json:"updated_at" db:"updated_at"`
}

// PaymentView is a payment entry with its read-side overdue flag
type PaymentView struct {
	PaymentEntry
	Overdue bool `json:"overdue"`
}

type MarkPaidRequest struct {
	ActualAmount *decimal.Decimal `json:"actual_amount,omitempty"`
	ActualDate   *time.Time       `json:"actual_date,omitempty"`
	Notes        *string          `json:"notes,omitempty"`
}
