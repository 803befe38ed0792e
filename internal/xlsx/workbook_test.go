package xlsx_test

import (
	"bytes"
	"strconv"
	"testing"
	"time"

	"docflow/internal/core"
	"docflow/internal/xlsx"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func open(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestDocuments(t *testing.T) {
	tests := []struct {
		name    string
		docType core.DocumentType
		sheet   string
		columns int
	}{
		{"quotes", core.DocumentTypeQuote, "Devis", 9},
		{"receipts", core.DocumentTypePaymentReceipt, "Reçu de paiement", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := core.NewDraft(tt.docType, core.ClientBusiness)
			doc.Number = tt.docType.NumberPrefix() + "-00007"
			doc.Client.Name = "SARL Fabre"
			doc.Items[0] = core.LineItem{Quantity: 3, Description: "Porte", BasePrice: decimal.NewFromInt(200)}
			doc.SetTaxRate(decimal.NewFromInt(20))

			data, err := xlsx.Documents(tt.docType, []core.Document{*doc})
			if err != nil {
				t.Fatalf("Documents: %v", err)
			}
			f := open(t, data)

			rows, err := f.GetRows(tt.sheet)
			if err != nil {
				t.Fatalf("GetRows(%q): %v", tt.sheet, err)
			}
			if len(rows) != 2 {
				t.Fatalf("got %d rows, want header + 1", len(rows))
			}
			if len(rows[0]) != tt.columns {
				t.Errorf("header has %d columns, want %d", len(rows[0]), tt.columns)
			}
			if rows[1][0] != doc.Number || rows[1][1] != "SARL Fabre" {
				t.Errorf("row = %v", rows[1])
			}

			raw, err := f.GetCellValue(tt.sheet, "I2", excelize.Options{RawCellValue: true})
			if err != nil {
				t.Fatal(err)
			}
			got, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				t.Fatalf("final amount %q is not numeric", raw)
			}
			if want := doc.Totals.FinalAmount.Round(2).InexactFloat64(); got != want {
				t.Errorf("final amount = %v, want %v", got, want)
			}
		})
	}
}

func TestDocumentsEmpty(t *testing.T) {
	data, err := xlsx.Documents(core.DocumentTypeInvoice, nil)
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	rows, err := open(t, data).GetRows("Facture")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("got %d rows, want header only", len(rows))
	}
}

func TestLedger(t *testing.T) {
	day := func(s string) core.Date {
		d, err := core.ParseDate(s)
		if err != nil {
			t.Fatal(err)
		}
		return d
	}
	entries := []core.LeaveLedgerEntry{
		{EmployeeID: "emp-1", LeaveRequestID: "lv-1", StartDate: day("2026-03-02"), EndDate: day("2026-03-04"), DayCount: 3, Nature: "congé payé"},
		{EmployeeID: "emp-2", LeaveRequestID: "lv-2", StartDate: day("2026-04-10"), EndDate: day("2026-04-10"), DayCount: 1, Nature: "RTT"},
	}

	data, err := xlsx.Ledger(entries)
	if err != nil {
		t.Fatalf("Ledger: %v", err)
	}
	rows, err := open(t, data).GetRows("Congés")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want header + 2 + total", len(rows))
	}
	if rows[1][2] != "2026-03-02" || rows[1][3] != "2026-03-04" {
		t.Errorf("dates = %v", rows[1][2:4])
	}
	if total := rows[3]; total[0] != "Total" || total[4] != "4" {
		t.Errorf("total row = %v, want 4 days", total)
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	if got := xlsx.Filename("facture", now); got != "facture_2026-05-01.xlsx" {
		t.Errorf("Filename = %q", got)
	}
}
