package core

import "context"

// DocumentStore persists documents. The backend REST client and the Postgres
// store both implement it. Lookups of a missing document return an error
// wrapping ErrNotFound.
type DocumentStore interface {
	ListDocuments(ctx context.Context, docType DocumentType) ([]Document, error)
	GetDocument(ctx context.Context, docType DocumentType, id string) (*Document, error)
	CreateDocument(ctx context.Context, doc *Document) (*Document, error)
	UpdateDocument(ctx context.Context, doc *Document) (*Document, error)
	DeleteDocument(ctx context.Context, docType DocumentType, id string) error
}

// LeaveStore persists leave requests and the leave ledger.
type LeaveStore interface {
	GetLeaveRequest(ctx context.Context, id string) (*LeaveRequest, error)
	// ListLeaveRequests lists every request when employeeID is empty.
	ListLeaveRequests(ctx context.Context, employeeID string) ([]LeaveRequest, error)
	CreateLeaveRequest(ctx context.Context, req *LeaveRequest) (*LeaveRequest, error)
	UpdateLeaveRequest(ctx context.Context, req *LeaveRequest) (*LeaveRequest, error)
	CreateLeaveLedgerEntry(ctx context.Context, entry *LeaveLedgerEntry) (*LeaveLedgerEntry, error)
	// LedgerEntryFor returns the entry booked for a request, or nil when none is.
	LedgerEntryFor(ctx context.Context, leaveRequestID string) (*LeaveLedgerEntry, error)
	// ListLedger lists the whole ledger when employeeID is empty.
	ListLedger(ctx context.Context, employeeID string) ([]LeaveLedgerEntry, error)
}

// AtomicLeaveStore commits a decision and its ledger entry together. entry may
// be nil when the decision books nothing.
type AtomicLeaveStore interface {
	LeaveStore
	DecideLeave(ctx context.Context, req *LeaveRequest, entry *LeaveLedgerEntry) (*LeaveRequest, *LeaveLedgerEntry, error)
}
