// Package pdf renders priced documents locally.
package pdf

import (
	"bytes"
	"fmt"
	"log"
	"time"

	"docflow/internal/core"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

type Generator interface {
	Generate(doc core.Document) ([]byte, error)
}

// FPDF renders with the PDF core fonts, translated to cp1252 so accented
// French labels print correctly.
type FPDF struct {
	Company string
	now     func() time.Time
}

func New(company string) *FPDF {
	return &FPDF{Company: company, now: time.Now}
}

// Filename is the download name of a rendered document.
func Filename(doc core.Document) string {
	if doc.Number != "" {
		return doc.Number + ".pdf"
	}
	return fmt.Sprintf("%s-%s.pdf", doc.Type.NumberPrefix(), doc.ID)
}

func (g *FPDF) Generate(doc core.Document) ([]byte, error) {
	doc.Recompute()

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(doc.Type.Label()+" "+doc.Number), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(doc.Type.Label()))
	pdf.Ln(9)

	pdf.SetFont("Helvetica", "", 10)
	header := doc.Number
	if !doc.CreatedAt.IsZero() {
		header = fmt.Sprintf("%s du %s", doc.Number, doc.CreatedAt.Format("02/01/2006"))
	}
	pdf.Cell(0, 6, tr(header))
	pdf.Ln(6)
	pdf.Cell(0, 6, tr("Statut : "+string(doc.Status)))
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 6, tr(doc.Client.Name))
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range []string{doc.Client.Address, doc.Client.Phone, doc.Client.Email} {
		if line != "" {
			pdf.Cell(0, 5, tr(line))
			pdf.Ln(5)
		}
	}
	pdf.Ln(4)

	priced := doc.Type != core.DocumentTypeDeliveryNote
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	if priced {
		pdf.CellFormat(80, 7, tr("Désignation"), "1", 0, "L", true, 0, "")
		pdf.CellFormat(15, 7, tr("Qté"), "1", 0, "R", true, 0, "")
		pdf.CellFormat(25, 7, "P.U.", "1", 0, "R", true, 0, "")
		pdf.CellFormat(20, 7, "Remise", "1", 0, "R", true, 0, "")
		pdf.CellFormat(30, 7, "Total HT", "1", 0, "R", true, 0, "")
	} else {
		pdf.CellFormat(110, 7, tr("Désignation"), "1", 0, "L", true, 0, "")
		pdf.CellFormat(30, 7, tr("Référence"), "1", 0, "L", true, 0, "")
		pdf.CellFormat(30, 7, tr("Qté"), "1", 0, "R", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	prices := doc.LinePrices()
	for i, item := range doc.Items {
		label := item.Description
		if item.OptionName != "" {
			label += " + " + item.OptionName
		}
		if item.Color != "" {
			label += " (" + item.Color + ")"
		}
		if priced {
			pdf.CellFormat(80, 6, tr(trim(label, 48)), "1", 0, "L", false, 0, "")
			pdf.CellFormat(15, 6, fmt.Sprintf("%d", item.Quantity), "1", 0, "R", false, 0, "")
			pdf.CellFormat(25, 6, money(item.BasePrice.Add(item.OptionPrice)), "1", 0, "R", false, 0, "")
			pdf.CellFormat(20, 6, item.Discount.StringFixed(0)+" %", "1", 0, "R", false, 0, "")
			pdf.CellFormat(30, 6, money(prices[i].Total), "1", 0, "R", false, 0, "")
		} else {
			pdf.CellFormat(110, 6, tr(trim(label, 66)), "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, 6, tr(item.Ref), "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, 6, fmt.Sprintf("%d", item.Quantity), "1", 0, "R", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if priced {
		pdf.Ln(4)
		rows := [][2]string{
			{"Sous-total", money(doc.Totals.Subtotal)},
			{"Remises", money(doc.Totals.TotalDiscount)},
			{"Total HT", money(doc.Totals.TotalExclTax)},
		}
		if doc.Category == core.ClientBusiness {
			rows = append(rows,
				[2]string{"TVA", money(doc.Totals.TaxAmount)},
				[2]string{"Total TTC", money(doc.Totals.TotalInclTax)},
			)
		}
		if doc.Type == core.DocumentTypePaymentReceipt {
			rows = append(rows,
				[2]string{"Déjà réglé", money(doc.AmountPaid())},
				[2]string{"Reste à payer", money(doc.Remaining())},
			)
		}
		for _, r := range rows {
			pdf.SetFont("Helvetica", "", 10)
			pdf.CellFormat(140, 6, tr(r[0]), "", 0, "R", false, 0, "")
			pdf.SetFont("Helvetica", "B", 10)
			pdf.CellFormat(30, 6, r[1], "", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
	}

	if doc.Notes != "" {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 5, tr(doc.Notes), "", "L", false)
	}

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 8)
	if g.Company != "" {
		pdf.Cell(0, 4, tr(g.Company))
		pdf.Ln(4)
	}
	pdf.Cell(0, 4, tr("Généré le "+g.now().Format("02/01/2006 15:04")))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		log.Printf("document pdf: output failed: %v", err)
		return nil, fmt.Errorf("failed to render %s %s: %w", doc.Type, doc.ID, err)
	}
	return buf.Bytes(), nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func trim(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
