package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"docflow/internal/app"
	"docflow/internal/core"

	"github.com/shopspring/decimal"
)

var errExit = errors.New("exit")

// session is the state of one interactive editing session: the document being
// edited, if any, and where input and output go.
type session struct {
	ctx     context.Context
	svc     app.ApplicationService
	caller  core.Caller
	reader  *bufio.Reader
	out     io.Writer
	current *core.Document
}

// Run starts the interactive REPL loop.
// It reads commands from reader, dispatches slash commands deterministically,
// and routes free text through the AI agent as a drafting request.
func Run(ctx context.Context, svc app.ApplicationService, caller core.Caller, reader *bufio.Reader, out io.Writer) {
	s := &session{ctx: ctx, svc: svc, caller: caller, reader: reader, out: out}

	fmt.Fprintln(out, "Document editor")
	fmt.Fprintf(out, "Signed in as %s. Describe a document to draft it, or use /help for commands.\n", callerLabel(caller))
	fmt.Fprintln(out, strings.Repeat("-", 70))

	for {
		fmt.Fprint(out, "\n> ")
		input, err := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input == "" {
			if err != nil {
				return
			}
			continue
		}

		// Slash prefix → deterministic command dispatcher, no AI invoked.
		if strings.HasPrefix(input, "/") {
			if err := s.dispatch(input); err != nil {
				if errors.Is(err, errExit) {
					fmt.Fprintln(out, "Goodbye!")
					return
				}
				fmt.Fprintf(out, "Error: %v\n", err)
			}
			continue
		}

		s.draft(input)
	}
}

func (s *session) dispatch(input string) error {
	tokens := strings.Fields(strings.TrimPrefix(input, "/"))
	if len(tokens) == 0 {
		return nil
	}
	cmd := strings.ToLower(tokens[0])
	args := tokens[1:]

	switch cmd {
	case "new":
		if len(args) < 1 {
			fmt.Fprintln(s.out, "Usage: /new <devis|facture|bon_livraison|recu_paiement> [individual|business]")
			return nil
		}
		docType, err := core.ParseDocumentType(args[0])
		if err != nil {
			return err
		}
		category := core.ClientIndividual
		if len(args) > 1 {
			category = core.ClientCategory(strings.ToLower(args[1]))
		}
		if doc := handleNewDocument(s.reader, s.out, docType, category); doc != nil {
			s.current = doc
		}

	case "add":
		doc, err := s.editable()
		if err != nil {
			return err
		}
		if len(args) < 3 {
			fmt.Fprintln(s.out, "Usage: /add <quantity> <unit-price> <description>")
			return nil
		}
		item, err := parseLine(args)
		if err != nil {
			return err
		}
		doc.AddItem(item)
		printDocument(s.out, doc)

	case "set":
		doc, err := s.editable()
		if err != nil {
			return err
		}
		if len(args) < 3 {
			fmt.Fprintln(s.out, "Usage: /set <line> <qty|price|discount|tax|option|option-price|desc> <value>")
			return nil
		}
		if err := setField(doc, args[0], strings.ToLower(args[1]), strings.Join(args[2:], " ")); err != nil {
			return err
		}
		printDocument(s.out, doc)

	case "rm":
		doc, err := s.editable()
		if err != nil {
			return err
		}
		if len(args) < 1 {
			fmt.Fprintln(s.out, "Usage: /rm <line>")
			return nil
		}
		i, err := lineIndex(args[0])
		if err != nil {
			return err
		}
		if err := doc.RemoveItem(i); err != nil {
			return err
		}
		printDocument(s.out, doc)

	case "product":
		doc, err := s.editable()
		if err != nil {
			return err
		}
		if len(args) < 2 {
			fmt.Fprintln(s.out, "Usage: /product <line> <product-id> [option]")
			return nil
		}
		i, err := lineIndex(args[0])
		if err != nil {
			return err
		}
		req := app.ProductRequest{Line: i, ProductID: args[1], Option: strings.Join(args[2:], " ")}
		if _, err := s.svc.ApplyProduct(doc, req); err != nil {
			return err
		}
		printDocument(s.out, doc)

	case "products":
		printProducts(s.out, s.svc.ListProducts())

	case "client":
		doc, err := s.editable()
		if err != nil {
			return err
		}
		doc.Client.Name = strings.Join(args, " ")
		printDocument(s.out, doc)

	case "category":
		doc, err := s.editable()
		if err != nil {
			return err
		}
		if len(args) < 1 {
			fmt.Fprintln(s.out, "Usage: /category <individual|business>")
			return nil
		}
		if err := doc.SetCategory(core.ClientCategory(strings.ToLower(args[0]))); err != nil {
			return err
		}
		printDocument(s.out, doc)

	case "tax":
		doc, err := s.editable()
		if err != nil {
			return err
		}
		if len(args) < 1 {
			fmt.Fprintln(s.out, "Usage: /tax <rate>")
			return nil
		}
		rate, err := parseAmount(args[0])
		if err != nil {
			return err
		}
		doc.SetTaxRate(rate)
		printDocument(s.out, doc)

	case "show":
		doc, err := s.editable()
		if err != nil {
			return err
		}
		printDocument(s.out, doc)

	case "save":
		doc, err := s.editable()
		if err != nil {
			return err
		}
		var result *app.DocumentResult
		if doc.ID == "" {
			result, err = s.svc.CreateDocument(s.ctx, s.caller, doc)
		} else {
			result, err = s.svc.UpdateDocument(s.ctx, s.caller, doc)
		}
		if err != nil {
			return err
		}
		s.current = result.Document
		fmt.Fprintf(s.out, "Saved %s %s.\n", result.Document.Type.Label(), numberOrID(result.Document))

	case "list":
		if len(args) < 1 {
			fmt.Fprintln(s.out, "Usage: /list <type>")
			return nil
		}
		docType, err := core.ParseDocumentType(args[0])
		if err != nil {
			return err
		}
		result, err := s.svc.ListDocuments(s.ctx, docType)
		if err != nil {
			// The list is unknown, not empty.
			return err
		}
		printDocumentList(s.out, result)

	case "open":
		if len(args) < 2 {
			fmt.Fprintln(s.out, "Usage: /open <type> <id>")
			return nil
		}
		docType, err := core.ParseDocumentType(args[0])
		if err != nil {
			return err
		}
		result, err := s.svc.GetDocument(s.ctx, docType, args[1])
		if err != nil {
			return err
		}
		s.current = result.Document
		printDocument(s.out, s.current)

	case "status":
		doc, err := s.saved()
		if err != nil {
			return err
		}
		if len(args) < 1 {
			fmt.Fprintf(s.out, "Usage: /status <status>   (now %s)\n", doc.Status)
			return nil
		}
		result, err := s.svc.TransitionDocument(s.ctx, s.caller, app.TransitionRequest{
			Type:   doc.Type,
			ID:     doc.ID,
			Status: core.Status(strings.ToLower(args[0])),
		})
		if err != nil {
			return err
		}
		s.current = result.Document
		fmt.Fprintf(s.out, "%s %s is now %s.\n", doc.Type.Label(), numberOrID(doc), result.Document.Status)

	case "pay":
		doc, err := s.saved()
		if err != nil {
			return err
		}
		if len(args) < 1 {
			fmt.Fprintln(s.out, "Usage: /pay <amount> [method]")
			return nil
		}
		amount, err := parseAmount(args[0])
		if err != nil {
			return err
		}
		p := core.Payment{Amount: amount}
		if len(args) > 1 {
			p.Method = strings.Join(args[1:], " ")
		}
		result, err := s.svc.RecordPayment(s.ctx, s.caller, app.PaymentRequest{ReceiptID: doc.ID, Payment: p})
		if err != nil {
			return err
		}
		s.current = result.Document
		fmt.Fprintf(s.out, "Payment recorded. Status: %s, remaining %s.\n", result.Document.Status, result.Remaining)

	case "convert":
		if len(args) < 3 {
			fmt.Fprintln(s.out, "Usage: /convert <source-type> <target-type> <id> [id...]")
			return nil
		}
		source, err := core.ParseDocumentType(args[0])
		if err != nil {
			return err
		}
		target, err := core.ParseDocumentType(args[1])
		if err != nil {
			return err
		}
		result, err := s.svc.ConvertDocuments(s.ctx, s.caller, core.ConvertRequest{SourceType: source, TargetType: target, SourceIDs: args[2:]})
		if err != nil {
			return err
		}
		s.current = result.Document
		fmt.Fprintf(s.out, "Created %s %s from %d source(s).\n", target.Label(), numberOrID(result.Document), len(args[2:]))
		for _, id := range result.Skipped {
			fmt.Fprintf(s.out, "  skipped %s: no line items found\n", id)
		}
		printDocument(s.out, s.current)

	case "pdf":
		doc, err := s.saved()
		if err != nil {
			return err
		}
		result, err := s.svc.ExportPDF(s.ctx, doc.Type, doc.ID)
		if err != nil {
			return err
		}
		path := result.Filename
		if len(args) > 0 {
			path = args[0]
		}
		if err := os.WriteFile(path, result.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Fprintf(s.out, "Wrote %s (%d bytes).\n", path, len(result.Data))

	case "export":
		if len(args) < 1 {
			fmt.Fprintln(s.out, "Usage: /export <type|ledger> [file]")
			return nil
		}
		var (
			result *app.WorkbookResult
			err    error
		)
		if strings.EqualFold(args[0], "ledger") {
			result, err = s.svc.ExportLedgerXLSX(s.ctx, "")
		} else {
			docType, perr := core.ParseDocumentType(args[0])
			if perr != nil {
				return perr
			}
			result, err = s.svc.ExportDocumentsXLSX(s.ctx, docType)
		}
		if err != nil {
			return err
		}
		path := result.Filename
		if len(args) > 1 {
			path = args[1]
		}
		if err := os.WriteFile(path, result.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Fprintf(s.out, "Wrote %s (%d bytes).\n", path, len(result.Data))

	case "leaves":
		employee := ""
		if len(args) > 0 {
			employee = args[0]
		}
		result, err := s.svc.ListLeaves(s.ctx, employee)
		if err != nil {
			return err
		}
		printLeaves(s.out, result)

	case "ledger":
		employee := ""
		if len(args) > 0 {
			employee = args[0]
		}
		result, err := s.svc.ListLedger(s.ctx, employee)
		if err != nil {
			return err
		}
		printLedger(s.out, result)

	case "help", "h":
		printHelp(s.out)

	case "exit", "quit", "e", "q":
		return errExit

	default:
		fmt.Fprintf(s.out, "Unknown command: /%s  (type /help for all commands)\n", cmd)
	}
	return nil
}

// draft sends free text to the AI agent and, once approved, makes the
// proposal the document being edited. Nothing is saved until /save.
func (s *session) draft(text string) {
	docType := core.DocumentTypeQuote
	if s.current != nil && s.current.ID == "" {
		docType = s.current.Type
	}

	fmt.Fprintln(s.out, "[AI] Drafting...")
	result, err := s.svc.DraftDocument(s.ctx, app.DraftRequest{Text: text, Type: docType})
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}

	printProposal(s.out, result.Proposal)
	printDocument(s.out, result.Document)
	if result.Proposal.Confidence < 0.6 {
		fmt.Fprintln(s.out, "\nWARNING: Low confidence draft.")
	}

	fmt.Fprint(s.out, "\nEdit this draft? (y/n): ")
	choice, _ := s.reader.ReadString('\n')
	choice = strings.TrimSpace(strings.ToLower(choice))
	if choice == "y" || choice == "yes" {
		s.current = result.Document
		fmt.Fprintln(s.out, "Draft loaded. Use /save to store it.")
		return
	}
	fmt.Fprintln(s.out, "Draft discarded.")
}

func (s *session) editable() (*core.Document, error) {
	if s.current == nil {
		return nil, errors.New("no document open: use /new or /open")
	}
	return s.current, nil
}

func (s *session) saved() (*core.Document, error) {
	doc, err := s.editable()
	if err != nil {
		return nil, err
	}
	if doc.ID == "" {
		return nil, errors.New("document is not saved yet: use /save")
	}
	return doc, nil
}

// parseLine reads "<quantity> <unit-price> <description...>".
func parseLine(args []string) (core.LineItem, error) {
	qty, err := strconv.Atoi(args[0])
	if err != nil || qty < 1 {
		return core.LineItem{}, fmt.Errorf("invalid quantity: %s", args[0])
	}
	price, err := parseAmount(args[1])
	if err != nil {
		return core.LineItem{}, err
	}
	return core.LineItem{
		Quantity:    qty,
		BasePrice:   price,
		Description: strings.Join(args[2:], " "),
	}, nil
}

func setField(doc *core.Document, line, field, value string) error {
	i, err := lineIndex(line)
	if err != nil {
		return err
	}
	if i < 0 || i >= len(doc.Items) {
		return &core.ValidationError{Field: "items", Err: core.ErrInvalidLineIndex, Details: line}
	}
	item := doc.Items[i]

	switch field {
	case "qty", "quantity":
		qty, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid quantity: %s", value)
		}
		item.Quantity = qty
	case "price":
		if item.BasePrice, err = parseAmount(value); err != nil {
			return err
		}
	case "discount":
		if item.Discount, err = parseAmount(value); err != nil {
			return err
		}
	case "tax":
		rate, err := parseAmount(value)
		if err != nil {
			return err
		}
		item.TaxRate = decimal.NewNullDecimal(rate)
	case "option":
		item.OptionName = value
	case "option-price":
		if item.OptionPrice, err = parseAmount(value); err != nil {
			return err
		}
	case "desc", "description":
		item.Description = value
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	return doc.SetItem(i, item)
}

// lineIndex converts a 1-based line number as shown to a slice index.
func lineIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid line number: %s", s)
	}
	return n - 1, nil
}

// parseAmount accepts dot or comma decimals.
func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount: %s", s)
	}
	return d, nil
}

func callerLabel(c core.Caller) string {
	if c.Name != "" {
		return c.Name
	}
	return c.UserID
}

func numberOrID(doc *core.Document) string {
	if doc.Number != "" {
		return doc.Number
	}
	return doc.ID
}
