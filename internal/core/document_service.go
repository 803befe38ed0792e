package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ConvertRequest selects the sources of a conversion by id, in selection order.
type ConvertRequest struct {
	SourceType DocumentType `json:"sourceType"`
	TargetType DocumentType `json:"targetType"`
	SourceIDs  []string     `json:"sourceIds"`
}

type DocumentService interface {
	CreateDocument(ctx context.Context, caller Caller, doc *Document) (*Document, error)
	// UpdateDocument saves edits. A status change in doc must be a legal transition.
	UpdateDocument(ctx context.Context, caller Caller, doc *Document) (*Document, error)
	DeleteDocument(ctx context.Context, caller Caller, docType DocumentType, id string) error
	GetDocument(ctx context.Context, docType DocumentType, id string) (*Document, error)
	// ListDocuments returns an empty, non-nil slice together with the error when
	// the store fails. Callers must treat that result as unknown, not as empty.
	ListDocuments(ctx context.Context, docType DocumentType) ([]Document, error)
	TransitionDocument(ctx context.Context, caller Caller, docType DocumentType, id string, to Status) (*Document, error)
	RecordPayment(ctx context.Context, caller Caller, id string, p Payment) (*Document, error)
	// ConvertDocuments fetches the sources, builds the target and creates it.
	ConvertDocuments(ctx context.Context, caller Caller, req ConvertRequest) (*Conversion, error)
}

type documentService struct {
	store DocumentStore
	now   func() time.Time
}

func NewDocumentService(store DocumentStore) DocumentService {
	return &documentService{store: store, now: func() time.Time { return time.Now().UTC() }}
}

func (s *documentService) CreateDocument(ctx context.Context, caller Caller, doc *Document) (*Document, error) {
	if doc == nil {
		return nil, &ValidationError{Field: "document", Err: ErrNoLineItems}
	}
	if doc.Status == "" {
		doc.Status = InitialStatus(doc.Type)
	}
	if doc.CreatedBy == "" {
		doc.CreatedBy = caller.UserID
	}
	doc.touch(s.now())
	doc.Recompute()
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	created, err := s.store.CreateDocument(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", doc.Type, err)
	}
	created.Recompute()
	return created, nil
}

func (s *documentService) UpdateDocument(ctx context.Context, caller Caller, doc *Document) (*Document, error) {
	if doc == nil || strings.TrimSpace(doc.ID) == "" {
		return nil, &ValidationError{Field: "id", Err: ErrNotFound, Details: "document id is required"}
	}
	doc.Recompute()
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	current, err := s.store.GetDocument(ctx, doc.Type, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s %s: %w", doc.Type, doc.ID, err)
	}
	if err := ValidateTransition(doc.Type, current.Status, doc.Status); err != nil {
		return nil, err
	}
	doc.CreatedBy = current.CreatedBy
	doc.CreatedAt = current.CreatedAt
	doc.touch(s.now())

	updated, err := s.store.UpdateDocument(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s %s: %w", doc.Type, doc.ID, err)
	}
	updated.Recompute()
	return updated, nil
}

func (s *documentService) DeleteDocument(ctx context.Context, caller Caller, docType DocumentType, id string) error {
	if !isKnownType(docType) {
		return &ValidationError{Field: "type", Err: ErrUnknownDocumentType, Details: string(docType)}
	}
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: "id", Err: ErrNotFound, Details: "document id is required"}
	}
	if err := s.store.DeleteDocument(ctx, docType, id); err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", docType, id, err)
	}
	return nil
}

func (s *documentService) GetDocument(ctx context.Context, docType DocumentType, id string) (*Document, error) {
	if !isKnownType(docType) {
		return nil, &ValidationError{Field: "type", Err: ErrUnknownDocumentType, Details: string(docType)}
	}
	doc, err := s.store.GetDocument(ctx, docType, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %s: %w", docType, id, err)
	}
	doc.Recompute()
	return doc, nil
}

func (s *documentService) ListDocuments(ctx context.Context, docType DocumentType) ([]Document, error) {
	if !isKnownType(docType) {
		return []Document{}, &ValidationError{Field: "type", Err: ErrUnknownDocumentType, Details: string(docType)}
	}
	docs, err := s.store.ListDocuments(ctx, docType)
	if err != nil {
		return []Document{}, fmt.Errorf("failed to list %s: %w", docType, err)
	}
	if docs == nil {
		docs = []Document{}
	}
	for i := range docs {
		docs[i].Recompute()
	}
	return docs, nil
}

func (s *documentService) TransitionDocument(ctx context.Context, caller Caller, docType DocumentType, id string, to Status) (*Document, error) {
	doc, err := s.GetDocument(ctx, docType, id)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(docType, doc.Status, to); err != nil {
		return nil, err
	}
	if doc.Status == to {
		return doc, nil
	}

	doc.Status = to
	doc.touch(s.now())
	updated, err := s.store.UpdateDocument(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to move %s %s to %s: %w", docType, id, to, err)
	}
	updated.Recompute()
	return updated, nil
}

func (s *documentService) RecordPayment(ctx context.Context, caller Caller, id string, p Payment) (*Document, error) {
	doc, err := s.GetDocument(ctx, DocumentTypePaymentReceipt, id)
	if err != nil {
		return nil, err
	}
	if p.RecordedBy == "" {
		p.RecordedBy = caller.UserID
	}
	if p.PaidAt.IsZero() {
		p.PaidAt = s.now()
	}
	if err := doc.RecordPayment(p); err != nil {
		return nil, err
	}
	doc.touch(s.now())

	updated, err := s.store.UpdateDocument(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to record payment on receipt %s: %w", id, err)
	}
	updated.Recompute()
	return updated, nil
}

func (s *documentService) ConvertDocuments(ctx context.Context, caller Caller, req ConvertRequest) (*Conversion, error) {
	if len(req.SourceIDs) == 0 {
		return nil, &ValidationError{Field: "sourceIds", Err: ErrNoSources}
	}
	if !CanConvert(req.SourceType, req.TargetType) {
		return nil, &ValidationError{Field: "target", Err: ErrUnsupportedConversion, Details: fmt.Sprintf("%s → %s", req.SourceType, req.TargetType)}
	}

	sources := make([]Document, 0, len(req.SourceIDs))
	for _, id := range req.SourceIDs {
		src, err := s.store.GetDocument(ctx, req.SourceType, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load source %s %s: %w", req.SourceType, id, err)
		}
		sources = append(sources, *src)
	}

	conv, err := Convert(caller, sources, req.SourceType, req.TargetType, s.now())
	if err != nil {
		return nil, err
	}

	created, err := s.store.CreateDocument(ctx, conv.Target)
	if err != nil {
		return nil, fmt.Errorf("failed to create converted %s: %w", req.TargetType, err)
	}
	created.Recompute()
	conv.Target = created
	return conv, nil
}
