package importer

import (
	"strconv"
	"strings"
	"time"

	"github.com/segyhp/amortization-engine/internal/domain"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
	"github.com/segyhp/amortization-engine/pkg/utils"

	"github.com/shopspring/decimal"
)

const byteOrderMark = "\ufeff"

// ParseImportFile turns a bank-exported delimited schedule into payment
// entries. The header decides which column holds which value; rows whose
// date cannot be read are skipped, unreadable amounts count as zero.
// Entries are numbered 1..N in file order and all start as scheduled.
func ParseImportFile(rawText string) ([]domain.PaymentEntry, error) {
	lines := splitLines(strings.TrimPrefix(rawText, byteOrderMark))
	if len(lines) == 0 {
		return nil, customError.WrapNoDateColumn("")
	}

	header := splitRow(lines[0])
	for i := range header {
		header[i] = strings.ToLower(header[i])
	}

	columns := classifyColumns(header)
	if !columns.has(roleDate) {
		return nil, customError.WrapNoDateColumn(lines[0])
	}

	rows := lines[1:]
	entries := make([]domain.PaymentEntry, 0, len(rows))
	for _, line := range rows {
		entry, ok := parseRow(splitRow(line), columns)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, customError.WrapNoValidRows(len(rows))
	}

	for i := range entries {
		entries[i].SequenceNumber = i + 1
	}

	return entries, nil
}

func parseRow(cells []string, columns columnMap) (domain.PaymentEntry, bool) {
	date, ok := parseDate(cellAt(cells, columns.date))
	if !ok {
		return domain.PaymentEntry{}, false
	}

	// stored money columns hold cents
	amountAt := func(idx int) decimal.Decimal {
		return utils.RoundCurrency(parseAmount(cellAt(cells, idx)))
	}

	interest := amountAt(columns.interest)
	principal := amountAt(columns.principal)

	var total decimal.Decimal
	switch {
	case !columns.has(rolePayment):
		total = principal.Add(interest)
	case !columns.has(rolePrincipal):
		total = amountAt(columns.payment)
		principal = total.Sub(interest)
	default:
		total = amountAt(columns.payment)
	}

	return domain.PaymentEntry{
		ScheduledDate:           date,
		PrincipalPortion:        principal,
		InterestPortion:         interest,
		TotalAmount:             total,
		RemainingPrincipalAfter: amountAt(columns.balance),
		Status:                  domain.PaymentStatusScheduled,
	}, true
}

// parseDate reads YYYY-MM-DD or DD/MM/YYYY style dates; the 4-digit token
// decides the order. Any time of day after the date is ignored.
func parseDate(cell string) (time.Time, bool) {
	fields := strings.Fields(cell)
	if len(fields) == 0 {
		return time.Time{}, false
	}
	token := fields[0]
	if i := strings.IndexByte(token, 'T'); i > 0 {
		token = token[:i]
	}

	parts := strings.FieldsFunc(token, func(r rune) bool {
		return r == '-' || r == '/' || r == '.'
	})
	if len(parts) != 3 {
		return time.Time{}, false
	}

	var y, m, d string
	switch {
	case len(parts[0]) == 4:
		y, m, d = parts[0], parts[1], parts[2]
	case len(parts[2]) == 4:
		d, m, y = parts[0], parts[1], parts[2]
	default:
		return time.Time{}, false
	}

	year, okY := atoi(y)
	month, okM := atoi(m)
	day, okD := atoi(d)
	if !okY || !okM || !okD || month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Day() != day || date.Month() != time.Month(month) {
		return time.Time{}, false
	}
	return date, true
}

// parseAmount keeps digits, '.' and '-' and reads the longest number at the
// start of what is left, so trailing signs and extra separators are ignored.
// A cell without a leading number is zero.
func parseAmount(cell string) decimal.Decimal {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, cell)

	end, digits := 0, 0
	if strings.HasPrefix(cleaned, "-") {
		end++
	}
	for end < len(cleaned) && isDigit(cleaned[end]) {
		end++
		digits++
	}
	if end < len(cleaned) && cleaned[end] == '.' {
		end++
		for end < len(cleaned) && isDigit(cleaned[end]) {
			end++
			digits++
		}
	}
	if digits == 0 {
		return decimal.Zero
	}

	number := strings.TrimSuffix(cleaned[:end], ".")
	if strings.HasPrefix(number, "-.") || strings.HasPrefix(number, ".") {
		number = strings.Replace(number, ".", "0.", 1)
	}
	amount, err := decimal.NewFromString(number)
	if err != nil {
		return decimal.Zero
	}
	return amount
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func atoi(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

func cellAt(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return cells[idx]
}
