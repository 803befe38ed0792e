package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"docflow/internal/app"
	"docflow/internal/core"
)

// ErrUsage is returned for a malformed command line.
var ErrUsage = errors.New("usage")

const usage = `Available commands:
  price [type]                              price a document read from stdin
  list <type>                               list documents
  get <type> <id>                           show one document
  status <type> <id> <status>               change a document's status
  pay <receipt-id> <amount> [method]        record a payment on a receipt
  convert <source> <target> <id> [id...]    create a document from sources
  pdf <type> <id> [file]                    export a document as PDF
  export <type|ledger> [file]               export a list as a spreadsheet
  products                                  list the product catalog
  decide <leave-id> <decision> [from to]    decide a leave request
  ledger [employee-id]                      list the leave ledger
  draft "<description>" [type]              draft a document with the AI agent`

// Offline reports whether cmd runs without any store.
func Offline(cmd string) bool {
	return cmd == "price"
}

// Run executes a one-shot CLI command. args is os.Args[1:]; the first element
// is the subcommand name. Results are written to out as JSON.
func Run(ctx context.Context, svc app.ApplicationService, caller core.Caller, args []string, in io.Reader, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w\n%s", ErrUsage, usage)
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case "price":
		var doc core.Document
		if err := json.NewDecoder(in).Decode(&doc); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}
		docType := core.DocumentTypeQuote
		if len(args) > 0 {
			t, err := core.ParseDocumentType(args[0])
			if err != nil {
				return err
			}
			docType = t
		}
		doc.DefaultType(docType)
		return encode(out, svc.PriceDocument(&doc))

	case "list":
		if len(args) < 1 {
			return usageError("list <type>")
		}
		docType, err := core.ParseDocumentType(args[0])
		if err != nil {
			return err
		}
		result, err := svc.ListDocuments(ctx, docType)
		if err != nil {
			return fmt.Errorf("document list unknown: %w", err)
		}
		return encode(out, result)

	case "get":
		if len(args) < 2 {
			return usageError("get <type> <id>")
		}
		docType, err := core.ParseDocumentType(args[0])
		if err != nil {
			return err
		}
		result, err := svc.GetDocument(ctx, docType, args[1])
		if err != nil {
			return err
		}
		return encode(out, result)

	case "status":
		if len(args) < 3 {
			return usageError("status <type> <id> <status>")
		}
		docType, err := core.ParseDocumentType(args[0])
		if err != nil {
			return err
		}
		result, err := svc.TransitionDocument(ctx, caller, app.TransitionRequest{
			Type:   docType,
			ID:     args[1],
			Status: core.Status(strings.ToLower(args[2])),
		})
		if err != nil {
			return err
		}
		return encode(out, result)

	case "pay":
		if len(args) < 2 {
			return usageError("pay <receipt-id> <amount> [method]")
		}
		var p core.Payment
		if err := p.Amount.UnmarshalText([]byte(strings.ReplaceAll(args[1], ",", "."))); err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[1], err)
		}
		if len(args) > 2 {
			p.Method = strings.Join(args[2:], " ")
		}
		result, err := svc.RecordPayment(ctx, caller, app.PaymentRequest{ReceiptID: args[0], Payment: p})
		if err != nil {
			return err
		}
		return encode(out, result)

	case "convert":
		if len(args) < 3 {
			return usageError("convert <source> <target> <id> [id...]")
		}
		source, err := core.ParseDocumentType(args[0])
		if err != nil {
			return err
		}
		target, err := core.ParseDocumentType(args[1])
		if err != nil {
			return err
		}
		result, err := svc.ConvertDocuments(ctx, caller, core.ConvertRequest{SourceType: source, TargetType: target, SourceIDs: args[2:]})
		if err != nil {
			return err
		}
		return encode(out, result)

	case "pdf":
		if len(args) < 2 {
			return usageError("pdf <type> <id> [file]")
		}
		docType, err := core.ParseDocumentType(args[0])
		if err != nil {
			return err
		}
		result, err := svc.ExportPDF(ctx, docType, args[1])
		if err != nil {
			return err
		}
		path := result.Filename
		if len(args) > 2 {
			path = args[2]
		}
		return writeFile(out, path, result.Data)

	case "export":
		if len(args) < 1 {
			return usageError("export <type|ledger> [file]")
		}
		var (
			result *app.WorkbookResult
			err    error
		)
		if strings.EqualFold(args[0], "ledger") {
			result, err = svc.ExportLedgerXLSX(ctx, "")
		} else {
			docType, perr := core.ParseDocumentType(args[0])
			if perr != nil {
				return perr
			}
			result, err = svc.ExportDocumentsXLSX(ctx, docType)
		}
		if err != nil {
			return err
		}
		path := result.Filename
		if len(args) > 1 {
			path = args[1]
		}
		return writeFile(out, path, result.Data)

	case "products":
		return encode(out, svc.ListProducts())

	case "decide":
		if len(args) < 2 {
			return usageError("decide <leave-id> <decision> [from to]")
		}
		decision := core.LeaveDecisionInput{Decision: core.LeaveDecision(strings.ToLower(args[1]))}
		if len(args) >= 4 {
			var err error
			if decision.GrantedStart, err = core.ParseDate(args[2]); err != nil {
				return err
			}
			if decision.GrantedEnd, err = core.ParseDate(args[3]); err != nil {
				return err
			}
		}
		result, err := svc.DecideLeave(ctx, caller, args[0], decision)
		if err != nil {
			if core.IsPartialFailure(err) && result != nil {
				_ = encode(out, result)
			}
			return err
		}
		return encode(out, result)

	case "ledger":
		employee := ""
		if len(args) > 0 {
			employee = args[0]
		}
		result, err := svc.ListLedger(ctx, employee)
		if err != nil {
			return err
		}
		return encode(out, result)

	case "draft":
		if len(args) < 1 {
			return usageError(`draft "<description>" [type]`)
		}
		req := app.DraftRequest{Text: args[0]}
		if len(args) > 1 {
			req.Type = core.DocumentType(args[1])
		}
		result, err := svc.DraftDocument(ctx, req)
		if err != nil {
			return err
		}
		return encode(out, result)
	}

	return fmt.Errorf("unknown command: %s\n%s", cmd, usage)
}

func usageError(s string) error {
	return fmt.Errorf("%w: app %s", ErrUsage, s)
}

func writeFile(out io.Writer, path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(out, "Wrote %s (%d bytes).\n", path, len(data))
	return nil
}

func encode(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
