package app

import (
	"context"

	"docflow/internal/core"
)

// ApplicationService is the single interface all UI adapters (CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println and no display logic of any kind.
type ApplicationService interface {
	// PriceDocument recomputes a document's totals without touching any store.
	PriceDocument(doc *core.Document) *PriceResult

	// ListProducts returns the catalog, empty when none is configured.
	ListProducts() []core.Product

	// ApplyProduct fills one line of an unsaved document from the catalog.
	ApplyProduct(doc *core.Document, req ProductRequest) (*DocumentResult, error)

	// ListDocuments lists documents of one type. On a store failure the result
	// is empty and marked Unknown, and the error is returned alongside it.
	ListDocuments(ctx context.Context, docType core.DocumentType) (*DocumentListResult, error)

	GetDocument(ctx context.Context, docType core.DocumentType, id string) (*DocumentResult, error)
	CreateDocument(ctx context.Context, caller core.Caller, doc *core.Document) (*DocumentResult, error)
	UpdateDocument(ctx context.Context, caller core.Caller, doc *core.Document) (*DocumentResult, error)
	DeleteDocument(ctx context.Context, caller core.Caller, docType core.DocumentType, id string) error

	// TransitionDocument moves a document to another status of its state machine.
	TransitionDocument(ctx context.Context, caller core.Caller, req TransitionRequest) (*DocumentResult, error)

	// RecordPayment adds an advance or settlement to a payment receipt.
	RecordPayment(ctx context.Context, caller core.Caller, req PaymentRequest) (*DocumentResult, error)

	// ConvertDocuments creates a target document from one or more sources.
	ConvertDocuments(ctx context.Context, caller core.Caller, req core.ConvertRequest) (*ConversionResult, error)

	// ExportPDF returns the document rendered as PDF. The backend renders it when
	// an exporter is configured; otherwise it is rendered locally.
	ExportPDF(ctx context.Context, docType core.DocumentType, id string) (*PDFResult, error)

	// ExportDocumentsXLSX returns every document of one type as a spreadsheet.
	// A store failure is an error, never an empty sheet.
	ExportDocumentsXLSX(ctx context.Context, docType core.DocumentType) (*WorkbookResult, error)

	SubmitLeave(ctx context.Context, caller core.Caller, req core.LeaveRequest) (*core.LeaveRequest, error)

	// DecideLeave applies a manager decision. A PartialFailureError comes back
	// with a non-nil result holding the state that was applied.
	DecideLeave(ctx context.Context, caller core.Caller, id string, in core.LeaveDecisionInput) (*core.LeaveDecisionResult, error)

	GetLeave(ctx context.Context, id string) (*core.LeaveRequest, error)
	ListLeaves(ctx context.Context, employeeID string) (*LeaveListResult, error)
	ListLedger(ctx context.Context, employeeID string) (*LedgerResult, error)
	ExportLedgerXLSX(ctx context.Context, employeeID string) (*WorkbookResult, error)

	// DraftDocument asks the AI agent to turn free text into an unsaved draft.
	DraftDocument(ctx context.Context, req DraftRequest) (*DraftResult, error)
}
