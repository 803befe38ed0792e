package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// LeaveDecisionResult is the request after a decision and the ledger entry the
// decision booked, if any.
type LeaveDecisionResult struct {
	Request *LeaveRequest     `json:"request"`
	Entry   *LeaveLedgerEntry `json:"ledgerEntry,omitempty"`
}

type LeaveService interface {
	SubmitLeave(ctx context.Context, caller Caller, req LeaveRequest) (*LeaveRequest, error)
	// DecideLeave applies a decision and books the ledger entry a grant requires.
	// With a store that cannot commit both together, a failed booking returns a
	// PartialFailureError alongside the applied request.
	DecideLeave(ctx context.Context, caller Caller, id string, in LeaveDecisionInput) (*LeaveDecisionResult, error)
	GetLeave(ctx context.Context, id string) (*LeaveRequest, error)
	ListLeaves(ctx context.Context, employeeID string) ([]LeaveRequest, error)
	ListLedger(ctx context.Context, employeeID string) ([]LeaveLedgerEntry, error)
}

type leaveService struct {
	store LeaveStore
	now   func() time.Time
}

func NewLeaveService(store LeaveStore) LeaveService {
	return &leaveService{store: store, now: func() time.Time { return time.Now().UTC() }}
}

func (s *leaveService) SubmitLeave(ctx context.Context, caller Caller, req LeaveRequest) (*LeaveRequest, error) {
	req.Decision = LeavePending
	req.GrantedStart, req.GrantedEnd = Date{}, Date{}
	req.LedgerEntryID = ""
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req.CreatedBy = caller.UserID
	req.CreatedAt = s.now()

	created, err := s.store.CreateLeaveRequest(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to submit leave request: %w", err)
	}
	return created, nil
}

func (s *leaveService) DecideLeave(ctx context.Context, caller Caller, id string, in LeaveDecisionInput) (*LeaveDecisionResult, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &ValidationError{Field: "id", Err: ErrNotFound, Details: "leave request id is required"}
	}
	req, err := s.store.GetLeaveRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get leave request %s: %w", id, err)
	}

	entry, err := req.ApplyDecision(in, caller, s.now())
	if err != nil {
		return nil, err
	}

	if atomic, ok := s.store.(AtomicLeaveStore); ok {
		updated, booked, err := atomic.DecideLeave(ctx, req, entry)
		if err != nil {
			return nil, fmt.Errorf("failed to decide leave request %s: %w", id, err)
		}
		return &LeaveDecisionResult{Request: updated, Entry: booked}, nil
	}
	return s.decideStepwise(ctx, req, entry)
}

// decideStepwise saves the decision first, then books the entry. The decision
// is never rolled back when booking fails; LedgerEntryFor keeps a retry from
// booking twice.
func (s *leaveService) decideStepwise(ctx context.Context, req *LeaveRequest, entry *LeaveLedgerEntry) (*LeaveDecisionResult, error) {
	if entry != nil {
		existing, err := s.store.LedgerEntryFor(ctx, req.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check ledger for leave request %s: %w", req.ID, err)
		}
		if existing != nil {
			req.LedgerEntryID = existing.ID
			entry = nil
		}
	}

	updated, err := s.store.UpdateLeaveRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update leave request %s: %w", req.ID, err)
	}
	if entry == nil {
		return &LeaveDecisionResult{Request: updated}, nil
	}

	booked, err := s.store.CreateLeaveLedgerEntry(ctx, entry)
	if err != nil {
		return &LeaveDecisionResult{Request: updated}, &PartialFailureError{Op: "leave decision " + string(updated.Decision), Err: err}
	}

	updated.LedgerEntryID = booked.ID
	linked, err := s.store.UpdateLeaveRequest(ctx, updated)
	if err != nil {
		return &LeaveDecisionResult{Request: updated, Entry: booked}, &PartialFailureError{Op: "ledger link", Err: err}
	}
	return &LeaveDecisionResult{Request: linked, Entry: booked}, nil
}

func (s *leaveService) GetLeave(ctx context.Context, id string) (*LeaveRequest, error) {
	req, err := s.store.GetLeaveRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get leave request %s: %w", id, err)
	}
	return req, nil
}

func (s *leaveService) ListLeaves(ctx context.Context, employeeID string) ([]LeaveRequest, error) {
	reqs, err := s.store.ListLeaveRequests(ctx, employeeID)
	if err != nil {
		return []LeaveRequest{}, fmt.Errorf("failed to list leave requests: %w", err)
	}
	if reqs == nil {
		reqs = []LeaveRequest{}
	}
	return reqs, nil
}

func (s *leaveService) ListLedger(ctx context.Context, employeeID string) ([]LeaveLedgerEntry, error) {
	entries, err := s.store.ListLedger(ctx, employeeID)
	if err != nil {
		return []LeaveLedgerEntry{}, fmt.Errorf("failed to list leave ledger: %w", err)
	}
	if entries == nil {
		entries = []LeaveLedgerEntry{}
	}
	return entries, nil
}
