package domain

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Schedule represents the repayment schedule of one liability.
// PaymentsMade, NextDueDate and RemainingPrincipal are a projection of the
// payment ledger and are only written by the reconciliation step.
type Schedule struct {
	ID                 uuid.UUID           `json:"id" db:"id"`
	LiabilityID        string              `json:"liability_id" db:"liability_id"`
	LoanType           LoanType            `json:"loan_type" db:"loan_type"`
	Principal          decimal.Decimal     `json:"principal" db:"principal"`
	Rate               decimal.NullDecimal `json:"rate" db:"rate"`
	RateType           RateType            `json:"rate_type" db:"rate_type"`
	StartDate          time.Time           `json:"start_date" db:"start_date"`
	EndDate            time.Time           `json:"end_date" db:"end_date"`
	TermPeriods        int                 `json:"term_periods" db:"term_periods"`
	Frequency          Frequency           `json:"frequency" db:"frequency"`
	PeriodicPayment    decimal.NullDecimal `json:"periodic_payment" db:"periodic_payment"`
	TotalInterest      decimal.NullDecimal `json:"total_interest" db:"total_interest"`
	TotalCost          decimal.NullDecimal `json:"total_cost" db:"total_cost"`
	PaymentsMade       int                 `json:"payments_made" db:"payments_made"`
	NextDueDate        *time.Time          `json:"next_due_date" db:"next_due_date"`
	RemainingPrincipal decimal.NullDecimal `json:"remaining_principal" db:"remaining_principal"`
	ImportedRaw        ImportSnapshot      `json:"imported_raw,omitempty" db:"imported_raw"`
	IsImported         bool                `json:"is_imported" db:"is_imported"`
	Notes              *string             `json:"notes,omitempty" db:"notes"`
	CreatedAt          time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at" db:"updated_at"`
}

// ScheduleSummary holds the derived progress counters of a schedule.
type ScheduleSummary struct {
	PaymentsMade       int                 `json:"payments_made"`
	NextDueDate        *time.Time          `json:"next_due_date"`
	RemainingPrincipal decimal.NullDecimal `json:"remaining_principal"`
}

// Apply copies the summary onto the schedule.
func (s *Schedule) Apply(summary ScheduleSummary) {
	s.PaymentsMade = summary.PaymentsMade
	s.NextDueDate = summary.NextDueDate
	s.RemainingPrincipal = summary.RemainingPrincipal
}

// ImportSnapshot is the opaque JSON snapshot of the rows an imported
// schedule was built from. It is kept for auditing and never read back
// into the ledger.
type ImportSnapshot []byte

func (s *ImportSnapshot) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = nil
	case []byte:
		*s = append(ImportSnapshot(nil), v...)
	case string:
		*s = ImportSnapshot(v)
	default:
		return fmt.Errorf("cannot scan %T into ImportSnapshot", src)
	}
	return nil
}

func (s ImportSnapshot) Value() (driver.Value, error) {
	if len(s) == 0 {
		return nil, nil
	}
	return []byte(s), nil
}

func (s ImportSnapshot) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("null"), nil
	}
	return s, nil
}

func (s *ImportSnapshot) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = nil
		return nil
	}
	*s = append(ImportSnapshot(nil), data...)
	return nil
}

type ScheduleResponse struct {
	Schedule *Schedule     `json:"schedule"`
	Payments []PaymentView `json:"payments"`
}

// PreviewResponse is a computed schedule that has not been persisted
type PreviewResponse struct {
	PeriodicPayment decimal.Decimal `json:"periodic_payment"`
	TotalInterest   decimal.Decimal `json:"total_interest"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	EndDate         time.Time       `json:"end_date"`
	Payments        []PaymentEntry  `json:"payments"`
}

// OverdueSummary reports the derived overdue state of one schedule
type OverdueSummary struct {
	ScheduleID      uuid.UUID       `json:"schedule_id"`
	OverdueCount    int             `json:"overdue_count"`
	OverdueAmount   decimal.Decimal `json:"overdue_amount"`
	OldestDueDate   time.Time       `json:"oldest_due_date"`
	OverdueSequence []int           `json:"overdue_sequence"`
}
