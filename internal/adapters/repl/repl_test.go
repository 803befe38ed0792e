package repl_test

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"docflow/internal/adapters/repl"
	"docflow/internal/app"
	"docflow/internal/catalog"
	"docflow/internal/core"
)

type stubApp struct {
	app.ApplicationService
	saved *core.Document
}

func (s *stubApp) CreateDocument(ctx context.Context, caller core.Caller, doc *core.Document) (*app.DocumentResult, error) {
	out := *doc
	out.ID = "d1"
	out.Number = "DEV-00001"
	out.CreatedBy = caller.UserID
	s.saved = &out
	return &app.DocumentResult{Document: &out}, nil
}

func (s *stubApp) ListDocuments(ctx context.Context, t core.DocumentType) (*app.DocumentListResult, error) {
	return &app.DocumentListResult{Type: t, Documents: []core.Document{}, Unknown: true}, &core.TransportError{Op: "list", StatusCode: 503}
}

func run(t *testing.T, svc app.ApplicationService, script string) string {
	t.Helper()
	var out bytes.Buffer
	repl.Run(context.Background(), svc, core.Caller{UserID: "u1", Name: "Claire"}, bufio.NewReader(strings.NewReader(script)), &out)
	return out.String()
}

func TestNewDocumentWizardAndSave(t *testing.T) {
	stub := &stubApp{}
	script := strings.Join([]string{
		"/new devis business",
		"SARL Dupont",
		"20",
		"2 450 Fenêtre PVC",
		"1 100 Pose",
		"done",
		"",
		"/set 2 discount 10",
		"/save",
		"/exit",
	}, "\n") + "\n"

	out := run(t, stub, script)

	if stub.saved == nil {
		t.Fatalf("document was not saved:\n%s", out)
	}
	if stub.saved.CreatedBy != "u1" || stub.saved.Client.Name != "SARL Dupont" {
		t.Errorf("saved = %+v", stub.saved)
	}
	if len(stub.saved.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(stub.saved.Items))
	}
	// 900 + 90 HT, TVA 20 %.
	if got := stub.saved.Totals.FinalAmount.StringFixed(2); got != "1188.00" {
		t.Errorf("final = %s, want 1188.00", got)
	}
	if !strings.Contains(out, "DEV-00001") || !strings.Contains(out, "Goodbye!") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestCommandsNeedAnOpenDocument(t *testing.T) {
	out := run(t, &stubApp{}, "/add 1 10 Vis\n/status accepted\n/exit\n")
	if strings.Count(out, "no document open") != 2 {
		t.Errorf("expected two 'no document open' errors:\n%s", out)
	}
}

func TestListFailureIsReported(t *testing.T) {
	out := run(t, &stubApp{}, "/list factures\n/exit\n")
	if !strings.Contains(out, "Error:") || strings.Contains(out, "No documents found") {
		t.Errorf("a failed list must not read as empty:\n%s", out)
	}
}

func TestEndOfInputStops(t *testing.T) {
	out := run(t, &stubApp{}, "/help")
	if !strings.Contains(out, "/convert") {
		t.Errorf("help not printed:\n%s", out)
	}
}

func TestProductFillsLine(t *testing.T) {
	products, err := catalog.Parse([]byte("products:\n  - id: FEN-120\n    name: Fenêtre\n    base_price: 450\n    tax_rate: 20\n    options:\n      - name: Pose\n        price: 60\n"))
	if err != nil {
		t.Fatal(err)
	}
	svc := app.NewAppService(nil, nil, nil, nil, nil, products)
	script := strings.Join([]string{
		"/products",
		"/new devis business",
		"SARL Dupont",
		"20",
		"1 1 placeholder",
		"done",
		"",
		"/product 1 NOPE",
		"/product 1 FEN-120 Pose",
		"/exit",
	}, "\n") + "\n"

	out := run(t, svc, script)

	for _, want := range []string{"FEN-120", "product not in catalog", "Fenêtre + Pose", "612.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
