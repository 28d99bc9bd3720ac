package amortization

import (
	"fmt"
	"math"
	"time"

	"github.com/segyhp/amortization-engine/internal/domain"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
	"github.com/segyhp/amortization-engine/pkg/utils"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// MaxTermPeriods caps a schedule at 100 years of monthly payments
const MaxTermPeriods = 1200

// Result is a generated schedule together with its derived totals
type Result struct {
	PeriodicPayment decimal.Decimal
	TotalInterest   decimal.Decimal
	TotalCost       decimal.Decimal
	EndDate         time.Time
	Entries         []domain.PaymentEntry
}

// PeriodicRate converts a nominal annual percentage into the rate applied per period.
func PeriodicRate(annualRatePercent decimal.Decimal, frequency domain.Frequency) decimal.Decimal {
	return annualRatePercent.Div(hundred).Div(decimal.NewFromInt(int64(frequency.PeriodsPerYear())))
}

// ComputePeriodicPayment calculates the fixed payment of an annuity loan
// Formula: P * r * (1+r)^n / ((1+r)^n - 1), or P / n when r is zero
func ComputePeriodicPayment(principal, annualRatePercent decimal.Decimal, termPeriods int, frequency domain.Frequency) (decimal.Decimal, error) {
	if err := validateTerms(principal, annualRatePercent, termPeriods, frequency); err != nil {
		return decimal.Zero, err
	}

	rate := PeriodicRate(annualRatePercent, frequency)
	evenSplit := utils.RoundCurrency(principal.Div(decimal.NewFromInt(int64(termPeriods))))
	if rate.IsZero() {
		return evenSplit, nil
	}

	// The power is taken in float64; monetary arithmetic stays in decimal.
	r := rate.InexactFloat64()
	factor := math.Pow(1+r, float64(termPeriods))
	if factor-1 == 0 {
		// rate too small to register in float64
		return evenSplit, nil
	}
	payment := principal.InexactFloat64() * r * factor / (factor - 1)
	if math.IsNaN(payment) || math.IsInf(payment, 0) {
		return decimal.Zero, customError.WrapInvalidLoanTerms("loan terms overflow the payment calculation")
	}

	return utils.RoundCurrency(decimal.NewFromFloat(payment)), nil
}

// GenerateSchedule builds the payment-by-payment breakdown of an amortizing loan.
// Amounts are rounded to cents per period; the final period takes whatever
// principal is left so the closing balance is exactly zero.
func GenerateSchedule(principal, annualRatePercent decimal.Decimal, termPeriods int, startDate time.Time, frequency domain.Frequency) ([]domain.PaymentEntry, error) {
	payment, err := ComputePeriodicPayment(principal, annualRatePercent, termPeriods, frequency)
	if err != nil {
		return nil, err
	}

	rate := PeriodicRate(annualRatePercent, frequency)
	monthsPerPeriod := frequency.MonthsPerPeriod()

	entries := make([]domain.PaymentEntry, 0, termPeriods)
	remaining := principal

	for period := 1; period <= termPeriods; period++ {
		interest := utils.RoundCurrency(remaining.Mul(rate))
		principalPart := payment.Sub(interest)

		if period == termPeriods || principalPart.GreaterThan(remaining) {
			principalPart = remaining
		}
		if principalPart.IsNegative() {
			principalPart = decimal.Zero
		}

		remaining = remaining.Sub(principalPart)

		entries = append(entries, domain.PaymentEntry{
			SequenceNumber:          period,
			ScheduledDate:           utils.AddPeriods(startDate, monthsPerPeriod, period),
			PrincipalPortion:        principalPart,
			InterestPortion:         interest,
			TotalAmount:             principalPart.Add(interest),
			RemainingPrincipalAfter: remaining,
			Status:                  domain.PaymentStatusScheduled,
		})
	}

	return entries, nil
}

// Calculate generates the schedule and the totals cached on the Schedule record.
func Calculate(principal, annualRatePercent decimal.Decimal, termPeriods int, startDate time.Time, frequency domain.Frequency) (*Result, error) {
	payment, err := ComputePeriodicPayment(principal, annualRatePercent, termPeriods, frequency)
	if err != nil {
		return nil, err
	}

	entries, err := GenerateSchedule(principal, annualRatePercent, termPeriods, startDate, frequency)
	if err != nil {
		return nil, err
	}

	totalInterest := decimal.Zero
	for _, entry := range entries {
		totalInterest = totalInterest.Add(entry.InterestPortion)
	}

	return &Result{
		PeriodicPayment: payment,
		TotalInterest:   totalInterest,
		TotalCost:       principal.Add(totalInterest),
		EndDate:         EndDate(startDate, termPeriods, frequency),
		Entries:         entries,
	}, nil
}

// EndDate is the date of the last period of a schedule
func EndDate(startDate time.Time, termPeriods int, frequency domain.Frequency) time.Time {
	return utils.AddPeriods(startDate, frequency.MonthsPerPeriod(), termPeriods)
}

func validateTerms(principal, annualRatePercent decimal.Decimal, termPeriods int, frequency domain.Frequency) error {
	switch {
	case !principal.IsPositive():
		return customError.WrapInvalidLoanTerms("principal must be greater than 0")
	case termPeriods <= 0:
		return customError.WrapInvalidLoanTerms("term must be at least one period")
	case termPeriods > MaxTermPeriods:
		return customError.WrapInvalidLoanTerms(fmt.Sprintf("term must not exceed %d periods", MaxTermPeriods))
	case annualRatePercent.IsNegative():
		return customError.WrapInvalidLoanTerms("rate must not be negative")
	case !frequency.Valid():
		return customError.WrapInvalidLoanTerms("unknown payment frequency " + string(frequency))
	}
	return nil
}
