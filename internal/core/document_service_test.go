package core_test

import (
	"context"
	"errors"
	"testing"

	"docflow/internal/core"
)

func newQuote() *core.Document {
	doc := core.NewDraft(core.DocumentTypeQuote, core.ClientBusiness)
	doc.Client = core.ClientIdentity{Name: "Atelier Nord", Email: "contact@atelier-nord.fr"}
	doc.TaxRate = dec("20")
	doc.Items[0] = core.LineItem{Quantity: 2, Description: "Porte", BasePrice: dec("250")}
	return doc
}

func TestDocumentService_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := newMemDocumentStore()
	svc := core.NewDocumentService(store)

	created, err := svc.CreateDocument(ctx, clerk, newQuote())
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if created.ID == "" || created.Status != core.StatusDraft || created.CreatedBy != clerk.UserID {
		t.Fatalf("created = %+v", created)
	}

	got, err := svc.GetDocument(ctx, core.DocumentTypeQuote, created.ID)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if !got.Totals.FinalAmount.Equal(dec("600")) {
		t.Errorf("FinalAmount = %s, want 600", got.Totals.FinalAmount)
	}
	if got.Client.Email != "contact@atelier-nord.fr" {
		t.Errorf("client = %+v", got.Client)
	}
}

func TestDocumentService_ValidationBeforeStore(t *testing.T) {
	ctx := context.Background()
	store := newMemDocumentStore()
	svc := core.NewDocumentService(store)

	empty := newQuote()
	empty.Items = nil
	if _, err := svc.CreateDocument(ctx, clerk, empty); !errors.Is(err, core.ErrNoLineItems) {
		t.Errorf("error = %v, want ErrNoLineItems", err)
	}

	anonymous := newQuote()
	anonymous.Client.Name = ""
	if _, err := svc.CreateDocument(ctx, clerk, anonymous); !errors.Is(err, core.ErrMissingClient) {
		t.Errorf("error = %v, want ErrMissingClient", err)
	}
	if store.creates != 0 {
		t.Errorf("store called %d times for invalid documents", store.creates)
	}
}

func TestDocumentService_TransitionDocument(t *testing.T) {
	ctx := context.Background()
	store := newMemDocumentStore()
	svc := core.NewDocumentService(store)

	quote, err := svc.CreateDocument(ctx, clerk, newQuote())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.TransitionDocument(ctx, clerk, core.DocumentTypeQuote, quote.ID, core.StatusAccepted); !errors.Is(err, core.ErrInvalidTransition) {
		t.Fatalf("draft → accepted error = %v", err)
	}
	for _, to := range []core.Status{core.StatusSent, core.StatusAccepted} {
		if _, err := svc.TransitionDocument(ctx, clerk, core.DocumentTypeQuote, quote.ID, to); err != nil {
			t.Fatalf("→ %s: %v", to, err)
		}
	}

	updates := store.updates
	doc, err := svc.TransitionDocument(ctx, clerk, core.DocumentTypeQuote, quote.ID, core.StatusAccepted)
	if err != nil || doc.Status != core.StatusAccepted {
		t.Fatalf("re-accept: %v, %+v", err, doc)
	}
	if store.updates != updates {
		t.Errorf("no-op transition wrote to the store")
	}

	if _, err := svc.TransitionDocument(ctx, clerk, core.DocumentTypeQuote, "missing", core.StatusSent); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing document error = %v", err)
	}
}

func TestDocumentService_UpdateDocument(t *testing.T) {
	ctx := context.Background()
	svc := core.NewDocumentService(newMemDocumentStore())

	quote, err := svc.CreateDocument(ctx, clerk, newQuote())
	if err != nil {
		t.Fatal(err)
	}

	quote.AddItem(core.LineItem{Quantity: 1, Description: "Poignée", BasePrice: dec("50")})
	updated, err := svc.UpdateDocument(ctx, clerk, quote)
	if err != nil {
		t.Fatalf("UpdateDocument: %v", err)
	}
	if len(updated.Items) != 2 || !updated.Totals.FinalAmount.Equal(dec("660")) {
		t.Errorf("updated = %d items, final %s", len(updated.Items), updated.Totals.FinalAmount)
	}

	updated.Status = core.StatusExpired
	if _, err := svc.UpdateDocument(ctx, clerk, updated); !errors.Is(err, core.ErrInvalidTransition) {
		t.Errorf("draft → expired through update: %v", err)
	}
}

func TestDocumentService_ListFailureIsNotEmpty(t *testing.T) {
	ctx := context.Background()
	store := newMemDocumentStore()
	store.failList = &core.TransportError{Op: "list factures", Err: context.DeadlineExceeded}
	svc := core.NewDocumentService(store)

	docs, err := svc.ListDocuments(ctx, core.DocumentTypeInvoice)
	if !core.IsTransport(err) {
		t.Fatalf("error = %v, want TransportError", err)
	}
	if docs == nil || len(docs) != 0 {
		t.Errorf("docs = %v, want empty non-nil slice", docs)
	}

	store.failList = nil
	store.seed(core.DocumentTypeInvoice, "fac-1", invoiceWithArticles)
	docs, err = svc.ListDocuments(ctx, core.DocumentTypeInvoice)
	if err != nil || len(docs) != 1 {
		t.Fatalf("docs = %v, err = %v", docs, err)
	}
	if len(docs[0].Items) != 2 || docs[0].Totals.FinalAmount.IsZero() {
		t.Errorf("listed document not normalised: %+v", docs[0])
	}
}

func TestDocumentService_RecordPayment(t *testing.T) {
	ctx := context.Background()
	svc := core.NewDocumentService(newMemDocumentStore())

	receipt, err := svc.CreateDocument(ctx, clerk, newReceipt("500"))
	if err != nil {
		t.Fatal(err)
	}

	doc, err := svc.RecordPayment(ctx, clerk, receipt.ID, core.Payment{Amount: dec("200"), Method: "espèces"})
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if doc.Status != core.StatusPartial || !doc.Remaining().Equal(dec("300")) {
		t.Errorf("status %s remaining %s", doc.Status, doc.Remaining())
	}
	if doc.Payments[0].RecordedBy != clerk.UserID {
		t.Errorf("payment not stamped: %+v", doc.Payments[0])
	}

	if _, err := svc.RecordPayment(ctx, clerk, receipt.ID, core.Payment{Amount: dec("301")}); !errors.Is(err, core.ErrOverpayment) {
		t.Errorf("overpayment error = %v", err)
	}

	doc, err = svc.RecordPayment(ctx, clerk, receipt.ID, core.Payment{Amount: dec("300")})
	if err != nil || doc.Status != core.StatusPaid {
		t.Fatalf("settlement: %v, %+v", err, doc)
	}
}

func TestDocumentService_DeleteDocument(t *testing.T) {
	ctx := context.Background()
	svc := core.NewDocumentService(newMemDocumentStore())

	quote, err := svc.CreateDocument(ctx, clerk, newQuote())
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteDocument(ctx, clerk, core.DocumentTypeQuote, quote.ID); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if _, err := svc.GetDocument(ctx, core.DocumentTypeQuote, quote.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("deleted document still readable: %v", err)
	}
}
