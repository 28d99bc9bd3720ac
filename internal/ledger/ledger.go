package ledger

import (
	"fmt"
	"time"

	"github.com/segyhp/amortization-engine/internal/domain"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
	"github.com/segyhp/amortization-engine/pkg/utils"

	"github.com/shopspring/decimal"
)

// roundingTolerance is the allowed drift between a total and its parts
var roundingTolerance = decimal.NewFromFloat(0.01)

// Summarize derives the progress counters of a schedule from its ledger.
// Entries may arrive in any order; sequence numbers decide.
func Summarize(principal decimal.Decimal, entries []domain.PaymentEntry) domain.ScheduleSummary {
	summary := domain.ScheduleSummary{
		RemainingPrincipal: decimal.NewNullDecimal(principal),
	}

	lastPaid, nextDue := 0, 0
	for _, e := range entries {
		switch e.Status {
		case domain.PaymentStatusPaid:
			summary.PaymentsMade++
			if e.SequenceNumber > lastPaid {
				lastPaid = e.SequenceNumber
				summary.RemainingPrincipal = decimal.NewNullDecimal(e.RemainingPrincipalAfter)
			}
		case domain.PaymentStatusScheduled:
			if nextDue == 0 || e.SequenceNumber < nextDue {
				nextDue = e.SequenceNumber
				due := e.ScheduledDate
				summary.NextDueDate = &due
			}
		}
	}

	return summary
}

// ClassifyImported settles every imported row dated before today at its
// scheduled values; the rest stay scheduled. Dates compare by day, the same
// rule that derives overdue, so a row due today is never paid on import.
func ClassifyImported(entries []domain.PaymentEntry, now time.Time) {
	for i := range entries {
		e := &entries[i]
		if utils.IsDateOverdue(e.ScheduledDate, now) {
			paidOn := e.ScheduledDate
			e.Status = domain.PaymentStatusPaid
			e.ActualDate = &paidOn
			e.ActualAmount = decimal.NewNullDecimal(e.TotalAmount)
			continue
		}
		e.Status = domain.PaymentStatusScheduled
		e.ActualDate = nil
		e.ActualAmount = decimal.NullDecimal{}
	}
}

// ImportTotals derives the loan figures of an imported ledger. The original
// principal is what the rows repay plus whatever the last row leaves owing.
func ImportTotals(entries []domain.PaymentEntry) (principal, totalInterest, totalCost decimal.Decimal) {
	for _, e := range entries {
		principal = principal.Add(e.PrincipalPortion)
		totalInterest = totalInterest.Add(e.InterestPortion)
	}
	if n := len(entries); n > 0 {
		principal = principal.Add(entries[n-1].RemainingPrincipalAfter)
	}
	return principal, totalInterest, principal.Add(totalInterest)
}

// MarkPaid moves a scheduled entry to paid. A nil amount settles the
// scheduled total.
func MarkPaid(entry *domain.PaymentEntry, actualAmount *decimal.Decimal, actualDate time.Time, notes *string) error {
	switch entry.Status {
	case domain.PaymentStatusScheduled:
	case domain.PaymentStatusPaid:
		return customError.WrapPaymentAlreadySettled(entry.SequenceNumber)
	default:
		return customError.WrapInvalidTransition(string(entry.Status), string(domain.PaymentStatusPaid))
	}

	amount := entry.TotalAmount
	if actualAmount != nil {
		if actualAmount.IsNegative() {
			return customError.WrapInvalidPaymentAmount(actualAmount.String())
		}
		amount = *actualAmount
	}

	entry.Status = domain.PaymentStatusPaid
	entry.ActualDate = &actualDate
	entry.ActualAmount = decimal.NewNullDecimal(amount)
	if notes != nil {
		entry.Notes = notes
	}
	return nil
}

// IsOverdue is derived on read and never stored.
func IsOverdue(entry domain.PaymentEntry, now time.Time) bool {
	return entry.Status == domain.PaymentStatusScheduled && utils.IsDateOverdue(entry.ScheduledDate, now)
}

func OverdueEntries(entries []domain.PaymentEntry, now time.Time) []domain.PaymentEntry {
	var overdue []domain.PaymentEntry
	for _, e := range entries {
		if IsOverdue(e, now) {
			overdue = append(overdue, e)
		}
	}
	return overdue
}

// Views attaches the overdue flag to each entry for the read side.
func Views(entries []domain.PaymentEntry, now time.Time) []domain.PaymentView {
	views := make([]domain.PaymentView, 0, len(entries))
	for _, e := range entries {
		views = append(views, domain.PaymentView{PaymentEntry: e, Overdue: IsOverdue(e, now)})
	}
	return views
}

// Validate checks a ledger before it is persisted. Generated ledgers must
// also satisfy the amortization arithmetic; imported ones keep the bank's.
func Validate(entries []domain.PaymentEntry, principal decimal.Decimal, generated bool) error {
	if len(entries) == 0 {
		return customError.WrapInconsistentLedger("ledger has no entries")
	}

	for i, e := range entries {
		if e.SequenceNumber != i+1 {
			return customError.WrapInconsistentLedger(
				fmt.Sprintf("entry %d has sequence number %d", i+1, e.SequenceNumber))
		}
	}
	if !generated {
		return nil
	}

	repaid := decimal.Zero
	previous := principal
	for _, e := range entries {
		if !utils.WithinTolerance(e.TotalAmount, e.PrincipalPortion.Add(e.InterestPortion), roundingTolerance) {
			return customError.WrapInconsistentLedger(
				fmt.Sprintf("entry %d total %s does not match its parts", e.SequenceNumber, e.TotalAmount))
		}
		if e.RemainingPrincipalAfter.IsNegative() {
			return customError.WrapInconsistentLedger(
				fmt.Sprintf("entry %d has a negative balance", e.SequenceNumber))
		}
		if e.RemainingPrincipalAfter.GreaterThan(previous) {
			return customError.WrapInconsistentLedger(
				fmt.Sprintf("balance increases at entry %d", e.SequenceNumber))
		}
		previous = e.RemainingPrincipalAfter
		repaid = repaid.Add(e.PrincipalPortion)
	}

	if !entries[len(entries)-1].RemainingPrincipalAfter.IsZero() {
		return customError.WrapInconsistentLedger("final balance is not zero")
	}
	if !repaid.Equal(principal) {
		return customError.WrapInconsistentLedger(
			fmt.Sprintf("principal portions sum to %s, expected %s", repaid, principal))
	}
	return nil
}
