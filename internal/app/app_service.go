package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"docflow/internal/ai"
	"docflow/internal/core"
	"docflow/internal/pdf"
	"docflow/internal/xlsx"
)

// ErrAgentUnavailable is returned by DraftDocument when no AI agent is configured.
var ErrAgentUnavailable = errors.New("AI drafting is not configured")

// ErrEmptyDraftText is returned by DraftDocument when there is nothing to draft from.
var ErrEmptyDraftText = errors.New("describe the document to draft")

// PDFExporter renders a stored document remotely. The backend REST client
// implements it.
type PDFExporter interface {
	ExportPDF(ctx context.Context, docType core.DocumentType, id string) ([]byte, string, error)
}

// ErrUnknownProduct is returned by ApplyProduct for an ID missing from the catalog.
var ErrUnknownProduct = errors.New("product not in catalog")

// ProductCatalog is the read-only product list used to fill line items.
type ProductCatalog interface {
	Get(id string) (core.Product, bool)
	List() []core.Product
}

type appService struct {
	docService   core.DocumentService
	leaveService core.LeaveService
	generator    pdf.Generator
	exporter     PDFExporter
	agent        ai.AgentService
	products     ProductCatalog
}

// NewAppService constructs an appService that satisfies ApplicationService.
// exporter, agent and products may be nil.
func NewAppService(
	docService core.DocumentService,
	leaveService core.LeaveService,
	generator pdf.Generator,
	exporter PDFExporter,
	agent ai.AgentService,
	products ProductCatalog,
) ApplicationService {
	return &appService{
		docService:   docService,
		leaveService: leaveService,
		generator:    generator,
		exporter:     exporter,
		agent:        agent,
		products:     products,
	}
}

func (s *appService) PriceDocument(doc *core.Document) *PriceResult {
	doc.Recompute()
	return &PriceResult{Lines: doc.LinePrices(), Totals: doc.Totals}
}

func (s *appService) ListProducts() []core.Product {
	if s.products == nil {
		return []core.Product{}
	}
	return s.products.List()
}

func (s *appService) ApplyProduct(doc *core.Document, req ProductRequest) (*DocumentResult, error) {
	if s.products == nil {
		return nil, &core.ValidationError{Field: "productId", Err: ErrUnknownProduct, Details: req.ProductID}
	}
	product, ok := s.products.Get(req.ProductID)
	if !ok {
		return nil, &core.ValidationError{Field: "productId", Err: ErrUnknownProduct, Details: req.ProductID}
	}
	if err := doc.ApplyProduct(req.Line, product, req.Option); err != nil {
		return nil, err
	}
	return documentResult(doc), nil
}

func (s *appService) ListDocuments(ctx context.Context, docType core.DocumentType) (*DocumentListResult, error) {
	docs, err := s.docService.ListDocuments(ctx, docType)
	if err != nil {
		return &DocumentListResult{Type: docType, Documents: []core.Document{}, Unknown: true}, err
	}
	return &DocumentListResult{Type: docType, Documents: docs}, nil
}

func (s *appService) GetDocument(ctx context.Context, docType core.DocumentType, id string) (*DocumentResult, error) {
	doc, err := s.docService.GetDocument(ctx, docType, id)
	if err != nil {
		return nil, err
	}
	return documentResult(doc), nil
}

func (s *appService) CreateDocument(ctx context.Context, caller core.Caller, doc *core.Document) (*DocumentResult, error) {
	created, err := s.docService.CreateDocument(ctx, caller, doc)
	if err != nil {
		return nil, err
	}
	return documentResult(created), nil
}

func (s *appService) UpdateDocument(ctx context.Context, caller core.Caller, doc *core.Document) (*DocumentResult, error) {
	updated, err := s.docService.UpdateDocument(ctx, caller, doc)
	if err != nil {
		return nil, err
	}
	return documentResult(updated), nil
}

func (s *appService) DeleteDocument(ctx context.Context, caller core.Caller, docType core.DocumentType, id string) error {
	return s.docService.DeleteDocument(ctx, caller, docType, id)
}

func (s *appService) TransitionDocument(ctx context.Context, caller core.Caller, req TransitionRequest) (*DocumentResult, error) {
	doc, err := s.docService.TransitionDocument(ctx, caller, req.Type, req.ID, req.Status)
	if err != nil {
		return nil, err
	}
	return documentResult(doc), nil
}

func (s *appService) RecordPayment(ctx context.Context, caller core.Caller, req PaymentRequest) (*DocumentResult, error) {
	doc, err := s.docService.RecordPayment(ctx, caller, req.ReceiptID, req.Payment)
	if err != nil {
		return nil, err
	}
	return documentResult(doc), nil
}

func (s *appService) ConvertDocuments(ctx context.Context, caller core.Caller, req core.ConvertRequest) (*ConversionResult, error) {
	conv, err := s.docService.ConvertDocuments(ctx, caller, req)
	if err != nil {
		return nil, err
	}
	result := &ConversionResult{Document: conv.Target}
	for _, skipped := range conv.Skipped {
		result.Skipped = append(result.Skipped, skipped.DocumentID)
	}
	return result, nil
}

func (s *appService) ExportPDF(ctx context.Context, docType core.DocumentType, id string) (*PDFResult, error) {
	if s.exporter != nil {
		data, filename, err := s.exporter.ExportPDF(ctx, docType, id)
		if err != nil {
			return nil, fmt.Errorf("failed to export %s %s: %w", docType, id, err)
		}
		return &PDFResult{Data: data, Filename: filename}, nil
	}

	doc, err := s.docService.GetDocument(ctx, docType, id)
	if err != nil {
		return nil, err
	}
	data, err := s.generator.Generate(*doc)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s %s: %w", docType, id, err)
	}
	return &PDFResult{Data: data, Filename: pdf.Filename(*doc)}, nil
}

func (s *appService) ExportDocumentsXLSX(ctx context.Context, docType core.DocumentType) (*WorkbookResult, error) {
	docs, err := s.docService.ListDocuments(ctx, docType)
	if err != nil {
		return nil, err
	}
	data, err := xlsx.Documents(docType, docs)
	if err != nil {
		return nil, fmt.Errorf("failed to export %s list: %w", docType, err)
	}
	return &WorkbookResult{Data: data, Filename: xlsx.Filename(string(docType), time.Now())}, nil
}

func (s *appService) ExportLedgerXLSX(ctx context.Context, employeeID string) (*WorkbookResult, error) {
	entries, err := s.leaveService.ListLedger(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	data, err := xlsx.Ledger(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to export leave ledger: %w", err)
	}
	subject := "conges"
	if employeeID != "" {
		subject += "_" + employeeID
	}
	return &WorkbookResult{Data: data, Filename: xlsx.Filename(subject, time.Now())}, nil
}

func (s *appService) SubmitLeave(ctx context.Context, caller core.Caller, req core.LeaveRequest) (*core.LeaveRequest, error) {
	return s.leaveService.SubmitLeave(ctx, caller, req)
}

func (s *appService) DecideLeave(ctx context.Context, caller core.Caller, id string, in core.LeaveDecisionInput) (*core.LeaveDecisionResult, error) {
	return s.leaveService.DecideLeave(ctx, caller, id, in)
}

func (s *appService) GetLeave(ctx context.Context, id string) (*core.LeaveRequest, error) {
	return s.leaveService.GetLeave(ctx, id)
}

func (s *appService) ListLeaves(ctx context.Context, employeeID string) (*LeaveListResult, error) {
	reqs, err := s.leaveService.ListLeaves(ctx, employeeID)
	if err != nil {
		return &LeaveListResult{Requests: []core.LeaveRequest{}, Unknown: true}, err
	}
	return &LeaveListResult{Requests: reqs}, nil
}

func (s *appService) ListLedger(ctx context.Context, employeeID string) (*LedgerResult, error) {
	entries, err := s.leaveService.ListLedger(ctx, employeeID)
	if err != nil {
		return &LedgerResult{Entries: []core.LeaveLedgerEntry{}, Unknown: true}, err
	}
	total := 0
	for _, e := range entries {
		total += e.DayCount
	}
	return &LedgerResult{Entries: entries, TotalDays: total}, nil
}

func (s *appService) DraftDocument(ctx context.Context, req DraftRequest) (*DraftResult, error) {
	if s.agent == nil {
		return nil, ErrAgentUnavailable
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, &core.ValidationError{Field: "text", Err: ErrEmptyDraftText}
	}
	if req.Type == "" {
		req.Type = core.DocumentTypeQuote
	}
	docType, err := core.ParseDocumentType(string(req.Type))
	if err != nil {
		return nil, err
	}
	req.Type = docType

	proposal, err := s.agent.DraftDocument(ctx, req.Text, req.Type)
	if err != nil {
		return nil, fmt.Errorf("failed to draft %s: %w", req.Type, err)
	}
	return &DraftResult{Proposal: proposal, Document: proposal.ToDocument(req.Type)}, nil
}

func documentResult(doc *core.Document) *DocumentResult {
	r := &DocumentResult{Document: doc, Lines: doc.LinePrices()}
	if doc.Type == core.DocumentTypePaymentReceipt {
		r.Remaining = doc.Remaining().StringFixed(2)
	}
	return r
}
