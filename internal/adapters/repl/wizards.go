package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"docflow/internal/core"
)

// handleNewDocument runs an interactive draft creation session. It returns
// the unsaved draft, or nil when the user cancels.
func handleNewDocument(reader *bufio.Reader, out io.Writer, docType core.DocumentType, category core.ClientCategory) *core.Document {
	if !category.Valid() {
		fmt.Fprintf(out, "Unknown client category %q. Use individual or business.\n", category)
		return nil
	}
	doc := core.NewDraft(docType, category)

	fmt.Fprintf(out, "New %s for a %s client.\n", docType.Label(), category)
	fmt.Fprint(out, "Client name: ")
	name, _ := reader.ReadString('\n')
	doc.Client.Name = strings.TrimSpace(name)

	if category == core.ClientBusiness {
		fmt.Fprint(out, "TVA rate [20]: ")
		raw, _ := reader.ReadString('\n')
		raw = strings.TrimSpace(raw)
		if raw == "" {
			raw = "20"
		}
		rate, err := parseAmount(raw)
		if err != nil {
			fmt.Fprintln(out, "  Invalid rate, using 20.")
			rate, _ = parseAmount("20")
		}
		doc.SetTaxRate(rate)
	}

	fmt.Fprintln(out, "Enter line items. Type 'done' when finished, 'cancel' to abort.")
	fmt.Fprintln(out, "Format per line: <quantity> <unit-price> <description>")
	fmt.Fprintln(out, "  Example: 2 450 Fenêtre PVC 120x80")

	var items []core.LineItem
	for {
		fmt.Fprintf(out, "  Line %d: ", len(items)+1)
		raw, err := reader.ReadString('\n')
		raw = strings.TrimSpace(raw)
		if strings.ToLower(raw) == "cancel" {
			fmt.Fprintln(out, "Draft cancelled.")
			return nil
		}
		if strings.ToLower(raw) == "done" || (raw == "" && err != nil) {
			break
		}
		if raw == "" {
			continue
		}

		parts := strings.Fields(raw)
		if len(parts) < 3 {
			fmt.Fprintln(out, "  Invalid format. Use: <quantity> <unit-price> <description>")
			continue
		}
		item, perr := parseLine(parts)
		if perr != nil {
			fmt.Fprintf(out, "  %v\n", perr)
			continue
		}
		items = append(items, item)
	}

	// The draft starts with one empty line; replace it with what was entered.
	for i, item := range items {
		if i == 0 {
			_ = doc.SetItem(0, item)
			continue
		}
		doc.AddItem(item)
	}

	fmt.Fprint(out, "Notes (optional): ")
	notes, _ := reader.ReadString('\n')
	doc.Notes = strings.TrimSpace(notes)

	printDocument(out, doc)
	fmt.Fprintln(out, "Use /save to store it, or keep editing with /add, /set and /rm.")
	return doc
}
