package importer

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/segyhp/amortization-engine/internal/domain"
)

const dateLayout = "2006-01-02"

var exportHeader = []string{"Date", "Payment", "Principal", "Interest", "Balance"}

// Export writes entries in the delimited shape ParseImportFile reads back.
func Export(w io.Writer, entries []domain.PaymentEntry) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return fmt.Errorf("write export header: %w", err)
	}

	for _, e := range entries {
		record := []string{
			e.ScheduledDate.Format(dateLayout),
			e.TotalAmount.StringFixed(2),
			e.PrincipalPortion.StringFixed(2),
			e.InterestPortion.StringFixed(2),
			e.RemainingPrincipalAfter.StringFixed(2),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write payment %d: %w", e.SequenceNumber, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

type snapshotRow struct {
	Row       string `json:"row"`
	Date      string `json:"date"`
	Payment   string `json:"payment"`
	Principal string `json:"principal"`
	Interest  string `json:"interest"`
	Balance   string `json:"balance"`
}

// Snapshot records the parsed rows of an import for auditing.
func Snapshot(entries []domain.PaymentEntry) (domain.ImportSnapshot, error) {
	rows := make([]snapshotRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, snapshotRow{
			Row:       strconv.Itoa(e.SequenceNumber),
			Date:      e.ScheduledDate.Format(dateLayout),
			Payment:   e.TotalAmount.String(),
			Principal: e.PrincipalPortion.String(),
			Interest:  e.InterestPortion.String(),
			Balance:   e.RemainingPrincipalAfter.String(),
		})
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("marshal import snapshot: %w", err)
	}
	return domain.ImportSnapshot(data), nil
}
