package repl

import (
	"fmt"
	"io"
	"strings"

	"docflow/internal/ai"
	"docflow/internal/app"
	"docflow/internal/core"
)

func printDocument(out io.Writer, doc *core.Document) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 78))
	title := strings.ToUpper(doc.Type.Label())
	if doc.Number != "" {
		title += " " + doc.Number
	}
	fmt.Fprintf(out, "  %-52s %23s\n", title, doc.Status)
	fmt.Fprintf(out, "  Client : %s (%s)\n", doc.Client.Name, doc.Category)
	fmt.Fprintln(out, strings.Repeat("=", 78))
	fmt.Fprintf(out, "  %-3s %-34s %5s %10s %8s %12s\n", "#", "DESCRIPTION", "QTY", "PRICE", "REMISE", "TOTAL HT")
	fmt.Fprintln(out, strings.Repeat("-", 78))
	for i, lp := range doc.LinePrices() {
		item := doc.Items[i]
		desc := item.Description
		if item.OptionName != "" {
			desc += " + " + item.OptionName
		}
		if len(desc) > 34 {
			desc = desc[:31] + "..."
		}
		fmt.Fprintf(out, "  %-3d %-34s %5d %10s %7s%% %12s\n",
			i+1, desc, item.Quantity, item.BasePrice.StringFixed(2), item.Discount.StringFixed(0), lp.Total.StringFixed(2))
	}
	fmt.Fprintln(out, strings.Repeat("-", 78))
	t := doc.Totals
	fmt.Fprintf(out, "  %-60s %15s\n", "Sous-total", t.Subtotal.StringFixed(2))
	fmt.Fprintf(out, "  %-60s %15s\n", "Remise", t.TotalDiscount.StringFixed(2))
	fmt.Fprintf(out, "  %-60s %15s\n", "Total HT", t.TotalExclTax.StringFixed(2))
	if doc.Category == core.ClientBusiness {
		fmt.Fprintf(out, "  %-60s %15s\n", "TVA ("+doc.TaxRate.String()+" %)", t.TaxAmount.StringFixed(2))
		fmt.Fprintf(out, "  %-60s %15s\n", "Total TTC", t.TotalInclTax.StringFixed(2))
	}
	if doc.Type == core.DocumentTypePaymentReceipt {
		fmt.Fprintf(out, "  %-60s %15s\n", "Payé", doc.AmountPaid().StringFixed(2))
		fmt.Fprintf(out, "  %-60s %15s\n", "Reste à payer", doc.Remaining().StringFixed(2))
	}
	fmt.Fprintln(out, strings.Repeat("=", 78))
}

func printDocumentList(out io.Writer, result *app.DocumentListResult) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 78))
	fmt.Fprintf(out, "  %s\n", strings.ToUpper(result.Type.Label()))
	fmt.Fprintln(out, strings.Repeat("=", 78))
	if len(result.Documents) == 0 {
		fmt.Fprintln(out, "  No documents found.")
		fmt.Fprintln(out, strings.Repeat("=", 78))
		return
	}
	fmt.Fprintf(out, "  %-12s %-26s %-14s %-12s %10s\n", "NUMBER", "CLIENT", "STATUS", "DATE", "AMOUNT")
	fmt.Fprintln(out, strings.Repeat("-", 78))
	for _, d := range result.Documents {
		client := d.Client.Name
		if len(client) > 26 {
			client = client[:23] + "..."
		}
		date := ""
		if !d.CreatedAt.IsZero() {
			date = d.CreatedAt.Format("2006-01-02")
		}
		fmt.Fprintf(out, "  %-12s %-26s %-14s %-12s %10s\n", numberOrID(&d), client, d.Status, date, d.Totals.FinalAmount.StringFixed(2))
	}
	fmt.Fprintln(out, strings.Repeat("=", 78))
}

func printProposal(out io.Writer, p *ai.DraftProposal) {
	fmt.Fprintf(out, "\nCLIENT:     %s (%s)\n", p.ClientName, p.ClientCategory)
	fmt.Fprintf(out, "TVA:        %s %%\n", p.TaxRate)
	fmt.Fprintf(out, "REASONING:  %s\n", p.Reasoning)
	fmt.Fprintf(out, "CONFIDENCE: %.2f\n", p.Confidence)
}

func printLeaves(out io.Writer, result *app.LeaveListResult) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 78))
	fmt.Fprintln(out, "  LEAVE REQUESTS")
	fmt.Fprintln(out, strings.Repeat("=", 78))
	if len(result.Requests) == 0 {
		fmt.Fprintln(out, "  No leave requests found.")
		fmt.Fprintln(out, strings.Repeat("=", 78))
		return
	}
	fmt.Fprintf(out, "  %-10s %-20s %-12s %-12s %-14s\n", "ID", "EMPLOYEE", "FROM", "TO", "DECISION")
	fmt.Fprintln(out, strings.Repeat("-", 78))
	for _, r := range result.Requests {
		who := r.EmployeeName
		if who == "" {
			who = r.EmployeeID
		}
		fmt.Fprintf(out, "  %-10s %-20s %-12s %-12s %-14s\n", r.ID, who, r.StartDate, r.EndDate, r.Decision)
	}
	fmt.Fprintln(out, strings.Repeat("=", 78))
}

func printLedger(out io.Writer, result *app.LedgerResult) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 78))
	fmt.Fprintln(out, "  LEAVE LEDGER")
	fmt.Fprintln(out, strings.Repeat("=", 78))
	fmt.Fprintf(out, "  %-14s %-14s %-12s %-12s %6s\n", "EMPLOYEE", "NATURE", "FROM", "TO", "DAYS")
	fmt.Fprintln(out, strings.Repeat("-", 78))
	for _, e := range result.Entries {
		fmt.Fprintf(out, "  %-14s %-14s %-12s %-12s %6d\n", e.EmployeeID, e.Nature, e.StartDate, e.EndDate, e.DayCount)
	}
	fmt.Fprintln(out, strings.Repeat("-", 78))
	fmt.Fprintf(out, "  %-56s %6d\n", "Total", result.TotalDays)
	fmt.Fprintln(out, strings.Repeat("=", 78))
}

func printProducts(out io.Writer, products []core.Product) {
	if len(products) == 0 {
		fmt.Fprintln(out, "No catalog loaded.")
		return
	}
	for _, p := range products {
		fmt.Fprintf(out, "  %-12s %-36s %10s  TVA %s%%\n", p.ID, p.Name, p.BasePrice.StringFixed(2), p.TaxRate.String())
		for _, o := range p.Options {
			fmt.Fprintf(out, "      + %-34s %10s\n", o.Name, o.Price.StringFixed(2))
		}
	}
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Editing:")
	fmt.Fprintln(out, "  /new <type> [individual|business]   start a draft (devis, facture, bon_livraison, recu_paiement)")
	fmt.Fprintln(out, "  /add <qty> <price> <description>    append a line")
	fmt.Fprintln(out, "  /set <line> <field> <value>         edit qty, price, discount, tax, option, option-price or desc")
	fmt.Fprintln(out, "  /rm <line>                          remove a line")
	fmt.Fprintln(out, "  /product <line> <id> [option]       fill a line from the catalog (/products lists it)")
	fmt.Fprintln(out, "  /client <name>  /category <c>  /tax <rate>  /show")
	fmt.Fprintln(out, "  /save                               create or update the open document")
	fmt.Fprintln(out, "Documents:")
	fmt.Fprintln(out, "  /list <type>  /open <type> <id>  /status <status>  /pay <amount> [method]  /pdf [file]")
	fmt.Fprintln(out, "  /convert <source-type> <target-type> <id> [id...]")
	fmt.Fprintln(out, "  /export <type|ledger> [file]        spreadsheet of a document list or the leave ledger")
	fmt.Fprintln(out, "Leave:")
	fmt.Fprintln(out, "  /leaves [employee]  /ledger [employee]")
	fmt.Fprintln(out, "Anything without a slash is sent to the AI agent as a drafting request.")
	fmt.Fprintln(out, "  /help  /exit")
}
