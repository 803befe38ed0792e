// Package xlsx exports document lists and the leave ledger as spreadsheets.
package xlsx

import (
	"fmt"
	"time"

	"docflow/internal/core"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// moneyFormat is the built-in "#,##0.00" number format.
const moneyFormat = 4

var documentHeader = []any{"Numéro", "Client", "Catégorie", "Statut", "Créé le", "Total HT", "TVA", "Total TTC", "Net à payer"}

// Documents renders one sheet listing docs, one row per document. Payment
// receipts get an extra "Reste à payer" column.
func Documents(docType core.DocumentType, docs []core.Document) ([]byte, error) {
	header := documentHeader
	receipts := docType == core.DocumentTypePaymentReceipt
	if receipts {
		header = append(append([]any{}, documentHeader...), "Reste à payer")
	}

	rows := make([][]any, 0, len(docs))
	for i := range docs {
		d := &docs[i]
		number := d.Number
		if number == "" {
			number = d.ID
		}
		row := []any{
			number,
			d.Client.Name,
			string(d.Category),
			string(d.Status),
			formatTime(d.CreatedAt),
			money(d.Totals.TotalExclTax),
			money(d.Totals.TaxAmount),
			money(d.Totals.TotalInclTax),
			money(d.Totals.FinalAmount),
		}
		if receipts {
			row = append(row, money(d.Remaining()))
		}
		rows = append(rows, row)
	}

	return render(docType.Label(), header, rows, 6, len(header))
}

// Ledger renders the leave ledger followed by a total row.
func Ledger(entries []core.LeaveLedgerEntry) ([]byte, error) {
	header := []any{"Salarié", "Demande", "Du", "Au", "Jours", "Nature", "Saisi par", "Saisi le"}

	rows := make([][]any, 0, len(entries)+1)
	total := 0
	for _, e := range entries {
		rows = append(rows, []any{
			e.EmployeeID,
			e.LeaveRequestID,
			e.StartDate.String(),
			e.EndDate.String(),
			e.DayCount,
			e.Nature,
			e.CreatedBy,
			formatTime(e.CreatedAt),
		})
		total += e.DayCount
	}
	rows = append(rows, []any{"Total", "", "", "", total})

	return render("Congés", header, rows, 0, 0)
}

// render writes header and rows to a single sheet named sheet. Columns
// firstMoney through lastMoney (1-based, inclusive) get the money format;
// pass 0 to skip.
func render(sheet string, header []any, rows [][]any, firstMoney, lastMoney int) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if firstMoney > 0 && len(rows) > 0 {
		style, err := f.NewStyle(&excelize.Style{NumFmt: moneyFormat})
		if err != nil {
			return nil, fmt.Errorf("failed to create money style: %w", err)
		}
		from, _ := excelize.CoordinatesToCellName(firstMoney, 2)
		to, _ := excelize.CoordinatesToCellName(lastMoney, len(rows)+1)
		if err := f.SetCellStyle(sheet, from, to, style); err != nil {
			return nil, fmt.Errorf("failed to style amounts: %w", err)
		}
	}

	last, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetColWidth(sheet, "A", last, 16); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename is the download name of a workbook exported for subject.
func Filename(subject string, now time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", subject, now.Format("2006-01-02"))
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
