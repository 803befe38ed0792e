package core_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"docflow/internal/core"
)

// memDocumentStore keeps documents as JSON, so every read goes through the
// same decoding path as a backend response.
type memDocumentStore struct {
	mu      sync.Mutex
	docs    map[string][]byte
	nextID  int
	creates int
	updates int

	failCreate error
	failList   error
}

func newMemDocumentStore() *memDocumentStore {
	return &memDocumentStore{docs: make(map[string][]byte)}
}

func docKey(t core.DocumentType, id string) string { return string(t) + "/" + id }

// seed stores raw backend JSON as-is.
func (s *memDocumentStore) seed(t core.DocumentType, id, raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[docKey(t, id)] = []byte(raw)
}

func (s *memDocumentStore) decode(raw []byte) (*core.Document, error) {
	var doc core.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *memDocumentStore) ListDocuments(ctx context.Context, t core.DocumentType) ([]core.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList != nil {
		return nil, s.failList
	}
	var keys []string
	prefix := string(t) + "/"
	for k := range s.docs {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := make([]core.Document, 0, len(keys))
	for _, k := range keys {
		doc, err := s.decode(s.docs[k])
		if err != nil {
			return nil, err
		}
		out = append(out, *doc)
	}
	return out, nil
}

func (s *memDocumentStore) GetDocument(ctx context.Context, t core.DocumentType, id string) (*core.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.docs[docKey(t, id)]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", t, id, core.ErrNotFound)
	}
	return s.decode(raw)
}

func (s *memDocumentStore) CreateDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate != nil {
		return nil, s.failCreate
	}
	s.creates++
	s.nextID++
	created := *doc
	created.ID = fmt.Sprintf("%s-%d", doc.Type, s.nextID)
	raw, err := json.Marshal(created)
	if err != nil {
		return nil, err
	}
	s.docs[docKey(doc.Type, created.ID)] = raw
	return s.decode(raw)
}

func (s *memDocumentStore) UpdateDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := docKey(doc.Type, doc.ID)
	if _, ok := s.docs[key]; !ok {
		return nil, fmt.Errorf("%s %s: %w", doc.Type, doc.ID, core.ErrNotFound)
	}
	s.updates++
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	s.docs[key] = raw
	return s.decode(raw)
}

func (s *memDocumentStore) DeleteDocument(ctx context.Context, t core.DocumentType, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := docKey(t, id)
	if _, ok := s.docs[key]; !ok {
		return fmt.Errorf("%s %s: %w", t, id, core.ErrNotFound)
	}
	delete(s.docs, key)
	return nil
}

// memLeaveStore is a LeaveStore whose ledger writes can be made to fail.
type memLeaveStore struct {
	mu       sync.Mutex
	requests map[string]core.LeaveRequest
	ledger   []core.LeaveLedgerEntry
	nextID   int

	failLedger error
}

func newMemLeaveStore() *memLeaveStore {
	return &memLeaveStore{requests: make(map[string]core.LeaveRequest)}
}

func (s *memLeaveStore) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

func (s *memLeaveStore) GetLeaveRequest(ctx context.Context, id string) (*core.LeaveRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, fmt.Errorf("leave %s: %w", id, core.ErrNotFound)
	}
	return &r, nil
}

func (s *memLeaveStore) ListLeaveRequests(ctx context.Context, employeeID string) ([]core.LeaveRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.LeaveRequest
	for _, r := range s.requests {
		if employeeID == "" || r.EmployeeID == employeeID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memLeaveStore) CreateLeaveRequest(ctx context.Context, req *core.LeaveRequest) (*core.LeaveRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := *req
	r.ID = s.id("leave")
	s.requests[r.ID] = r
	return &r, nil
}

func (s *memLeaveStore) UpdateLeaveRequest(ctx context.Context, req *core.LeaveRequest) (*core.LeaveRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[req.ID]; !ok {
		return nil, fmt.Errorf("leave %s: %w", req.ID, core.ErrNotFound)
	}
	r := *req
	s.requests[r.ID] = r
	return &r, nil
}

func (s *memLeaveStore) CreateLeaveLedgerEntry(ctx context.Context, entry *core.LeaveLedgerEntry) (*core.LeaveLedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLedger != nil {
		return nil, s.failLedger
	}
	e := *entry
	e.ID = s.id("ledger")
	s.ledger = append(s.ledger, e)
	return &e, nil
}

func (s *memLeaveStore) LedgerEntryFor(ctx context.Context, leaveRequestID string) (*core.LeaveLedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.ledger {
		if e.LeaveRequestID == leaveRequestID {
			e := e
			return &e, nil
		}
	}
	return nil, nil
}

func (s *memLeaveStore) ListLedger(ctx context.Context, employeeID string) ([]core.LeaveLedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.LeaveLedgerEntry
	for _, e := range s.ledger {
		if employeeID == "" || e.EmployeeID == employeeID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memLeaveStore) ledgerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ledger)
}

// atomicLeaveStore commits decision and ledger entry together, or neither.
type atomicLeaveStore struct {
	*memLeaveStore
	decideCalls int
}

func (s *atomicLeaveStore) DecideLeave(ctx context.Context, req *core.LeaveRequest, entry *core.LeaveLedgerEntry) (*core.LeaveRequest, *core.LeaveLedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decideCalls++
	if _, ok := s.requests[req.ID]; !ok {
		return nil, nil, fmt.Errorf("leave %s: %w", req.ID, core.ErrNotFound)
	}
	r := *req
	var booked *core.LeaveLedgerEntry
	if entry != nil {
		for _, e := range s.ledger {
			if e.LeaveRequestID == r.ID {
				e := e
				booked = &e
			}
		}
		if booked == nil {
			if s.failLedger != nil {
				return nil, nil, s.failLedger
			}
			e := *entry
			e.ID = s.id("ledger")
			s.ledger = append(s.ledger, e)
			booked = &e
		}
		r.LedgerEntryID = booked.ID
	}
	s.requests[r.ID] = r
	return &r, booked, nil
}
