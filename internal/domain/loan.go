package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanType describes the repayment shape of a liability
type LoanType string

const (
	LoanTypeAmortizing   LoanType = "amortizing"
	LoanTypeBullet       LoanType = "bullet"
	LoanTypeBalloon      LoanType = "balloon"
	LoanTypeInterestOnly LoanType = "interest_only"
)

// RateType describes how the nominal rate behaves over the loan life
type RateType string

const (
	RateTypeFixed    RateType = "fixed"
	RateTypeVariable RateType = "variable"
	RateTypeCapped   RateType = "capped"
)

// Frequency is the payment period of a schedule
type Frequency string

const (
	FrequencyMonthly    Frequency = "monthly"
	FrequencyQuarterly  Frequency = "quarterly"
	FrequencySemiAnnual Frequency = "semi_annual"
	FrequencyAnnual     Frequency = "annual"
)

// PeriodsPerYear returns the periodic rate divisor, or 0 for an unknown frequency.
func (f Frequency) PeriodsPerYear() int {
	switch f {
	case FrequencyMonthly:
		return 12
	case FrequencyQuarterly:
		return 4
	case FrequencySemiAnnual:
		return 2
	case FrequencyAnnual:
		return 1
	}
	return 0
}

// MonthsPerPeriod returns the date increment of one period in months.
func (f Frequency) MonthsPerPeriod() int {
	if n := f.PeriodsPerYear(); n > 0 {
		return 12 / n
	}
	return 0
}

func (f Frequency) Valid() bool {
	return f.PeriodsPerYear() > 0
}

// DTOs for requests

type GenerateScheduleRequest struct {
	LoanType    LoanType        `json:"loan_type" validate:"omitempty,oneof=amortizing bullet balloon interest_only"`
	Principal   decimal.Decimal `json:"principal" validate:"decimal_gt=0,decimal_max_scale=2"`
	Rate        decimal.Decimal `json:"rate" validate:"decimal_gte=0"`
	RateType    RateType        `json:"rate_type" validate:"omitempty,oneof=fixed variable capped"`
	TermPeriods int             `json:"term_periods" validate:"required,gt=0,lte=1200"`
	Frequency   Frequency       `json:"frequency" validate:"omitempty,oneof=monthly quarterly semi_annual annual"`
	StartDate   time.Time       `json:"start_date" validate:"required"`
	Notes       *string         `json:"notes,omitempty"`
	Replace     bool            `json:"replace"`
}

type ImportScheduleRequest struct {
	LoanType  LoanType            `json:"loan_type" validate:"omitempty,oneof=amortizing bullet balloon interest_only"`
	Rate      decimal.NullDecimal `json:"rate"`
	RateType  RateType            `json:"rate_type" validate:"omitempty,oneof=fixed variable capped"`
	Frequency Frequency           `json:"frequency" validate:"omitempty,oneof=monthly quarterly semi_annual annual"`
	Notes     *string             `json:"notes,omitempty"`
	Replace   bool                `json:"replace"`
	Content   string              `json:"-" validate:"required"`
}

// WithDefaults fills the optional enum fields left empty by the caller.
func (r *GenerateScheduleRequest) WithDefaults(frequency Frequency) {
	if r.LoanType == "" {
		r.LoanType = LoanTypeAmortizing
	}
	if r.RateType == "" {
		r.RateType = RateTypeFixed
	}
	if r.Frequency == "" {
		r.Frequency = frequency
	}
}

func (r *ImportScheduleRequest) WithDefaults(frequency Frequency) {
	if r.LoanType == "" {
		r.LoanType = LoanTypeAmortizing
	}
	if r.RateType == "" {
		r.RateType = RateTypeFixed
	}
	if r.Frequency == "" {
		r.Frequency = frequency
	}
}
