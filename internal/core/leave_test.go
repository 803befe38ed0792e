package core_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"docflow/internal/core"
)

func mustDate(t *testing.T, s string) core.Date {
	t.Helper()
	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

var manager = core.Caller{UserID: "u-manager", Name: "Responsable RH"}

func TestDayCount(t *testing.T) {
	tests := []struct {
		start, end string
		want       int
	}{
		{"2024-01-10", "2024-01-12", 3},
		{"2024-01-10", "2024-01-10", 1},
		{"2024-02-28", "2024-03-01", 3},
		{"2024-01-12", "2024-01-10", 3},
	}
	for _, tt := range tests {
		if got := core.DayCount(mustDate(t, tt.start), mustDate(t, tt.end)); got != tt.want {
			t.Errorf("DayCount(%s, %s) = %d, want %d", tt.start, tt.end, got, tt.want)
		}
	}
}

func TestDate_JSON(t *testing.T) {
	var req core.LeaveRequest
	raw := `{"employeeId":"e1","startDate":"2024-01-10T00:00:00Z","endDate":"2024-01-12","grantedStartDate":""}`
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if req.StartDate.String() != "2024-01-10" || req.EndDate.String() != "2024-01-12" {
		t.Errorf("dates = %s, %s", req.StartDate, req.EndDate)
	}
	if !req.GrantedStart.IsZero() {
		t.Errorf("empty granted start decoded as %s", req.GrantedStart)
	}
	out, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatal(err)
	}
	if back["startDate"] != "2024-01-10" || back["grantedStartDate"] != nil {
		t.Errorf("encoded = %s", out)
	}
}

func TestApplyDecision(t *testing.T) {
	now := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	base := func() core.LeaveRequest {
		return core.LeaveRequest{
			ID:         "leave-1",
			EmployeeID: "e1",
			Nature:     "congé annuel",
			StartDate:  mustDate(t, "2024-01-10"),
			EndDate:    mustDate(t, "2024-01-12"),
			Decision:   core.LeavePending,
		}
	}

	t.Run("total grant books the requested range", func(t *testing.T) {
		req := base()
		entry, err := req.ApplyDecision(core.LeaveDecisionInput{Decision: core.LeaveTotalGrant}, manager, now)
		if err != nil {
			t.Fatalf("ApplyDecision: %v", err)
		}
		if entry == nil || entry.DayCount != 3 {
			t.Fatalf("entry = %+v, want dayCount 3", entry)
		}
		if entry.EmployeeID != "e1" || entry.LeaveRequestID != "leave-1" || entry.CreatedBy != manager.UserID {
			t.Errorf("entry = %+v", entry)
		}
		if req.DecidedBy != manager.UserID || req.DecidedAt == nil {
			t.Errorf("decision not stamped: %+v", req)
		}
	})

	t.Run("partial grant books the granted range", func(t *testing.T) {
		req := base()
		entry, err := req.ApplyDecision(core.LeaveDecisionInput{
			Decision:     core.LeavePartialGrant,
			GrantedStart: mustDate(t, "2024-01-11"),
			GrantedEnd:   mustDate(t, "2024-01-12"),
		}, manager, now)
		if err != nil {
			t.Fatalf("ApplyDecision: %v", err)
		}
		if entry == nil || entry.DayCount != 2 || entry.StartDate.String() != "2024-01-11" {
			t.Fatalf("entry = %+v", entry)
		}
	})

	t.Run("partial grant outside the request", func(t *testing.T) {
		req := base()
		_, err := req.ApplyDecision(core.LeaveDecisionInput{
			Decision:     core.LeavePartialGrant,
			GrantedStart: mustDate(t, "2024-01-09"),
			GrantedEnd:   mustDate(t, "2024-01-11"),
		}, manager, now)
		if !errors.Is(err, core.ErrInvalidDateRange) {
			t.Errorf("error = %v, want ErrInvalidDateRange", err)
		}
		if req.Decision != core.LeavePending {
			t.Errorf("rejected decision was applied: %s", req.Decision)
		}
	})

	t.Run("refusal books nothing", func(t *testing.T) {
		req := base()
		entry, err := req.ApplyDecision(core.LeaveDecisionInput{Decision: core.LeaveRefusal, Reason: "période chargée"}, manager, now)
		if err != nil || entry != nil {
			t.Fatalf("entry = %+v, err = %v", entry, err)
		}
	})

	t.Run("booked request never books again", func(t *testing.T) {
		req := base()
		req.Decision = core.LeaveTotalGrant
		req.LedgerEntryID = "ledger-9"
		for _, d := range []core.LeaveDecision{core.LeaveTotalGrant, core.LeaveRefusal, core.LeavePartialGrant} {
			in := core.LeaveDecisionInput{Decision: d, GrantedStart: req.StartDate, GrantedEnd: req.StartDate}
			entry, err := req.ApplyDecision(in, manager, now)
			if err != nil || entry != nil {
				t.Fatalf("%s: entry = %+v, err = %v", d, entry, err)
			}
		}
	})
}

func submitLeave(t *testing.T, svc core.LeaveService) *core.LeaveRequest {
	t.Helper()
	req, err := svc.SubmitLeave(context.Background(), core.Caller{UserID: "e1"}, core.LeaveRequest{
		EmployeeID: "e1",
		Nature:     "congé annuel",
		StartDate:  mustDate(t, "2024-01-10"),
		EndDate:    mustDate(t, "2024-01-12"),
	})
	if err != nil {
		t.Fatalf("SubmitLeave: %v", err)
	}
	return req
}

func TestLeaveService_GrantIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newMemLeaveStore()
	svc := core.NewLeaveService(store)
	req := submitLeave(t, svc)

	grant := core.LeaveDecisionInput{Decision: core.LeaveTotalGrant}
	res, err := svc.DecideLeave(ctx, manager, req.ID, grant)
	if err != nil {
		t.Fatalf("DecideLeave: %v", err)
	}
	if res.Entry == nil || res.Entry.DayCount != 3 || res.Request.LedgerEntryID != res.Entry.ID {
		t.Fatalf("result = %+v / %+v", res.Request, res.Entry)
	}

	for i := 0; i < 2; i++ {
		if _, err := svc.DecideLeave(ctx, manager, req.ID, grant); err != nil {
			t.Fatalf("repeat %d: %v", i, err)
		}
	}
	if _, err := svc.DecideLeave(ctx, manager, req.ID, core.LeaveDecisionInput{Decision: core.LeaveRefusal}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.DecideLeave(ctx, manager, req.ID, grant); err != nil {
		t.Fatal(err)
	}
	entries, err := svc.ListLedger(ctx, "e1")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].DayCount != 3 {
		t.Errorf("ledger = %+v, want one 3-day entry", entries)
	}
}

func TestLeaveService_LaterDecisionsKeepFirstBooking(t *testing.T) {
	ctx := context.Background()
	svc := core.NewLeaveService(newMemLeaveStore())
	req := submitLeave(t, svc)

	decisions := []core.LeaveDecisionInput{
		{Decision: core.LeaveTotalGrant},
		{Decision: core.LeaveRefusal},
		{Decision: core.LeavePartialGrant, GrantedStart: mustDate(t, "2024-01-11"), GrantedEnd: mustDate(t, "2024-01-11")},
	}
	var last *core.LeaveDecisionResult
	for _, in := range decisions {
		res, err := svc.DecideLeave(ctx, manager, req.ID, in)
		if err != nil {
			t.Fatalf("%s: %v", in.Decision, err)
		}
		last = res
	}
	if last.Entry != nil {
		t.Errorf("partial grant after refusal booked %+v", last.Entry)
	}
	if last.Request.GrantedStart.String() != "2024-01-11" || last.Request.GrantedEnd.String() != "2024-01-11" {
		t.Errorf("granted range = %s..%s", last.Request.GrantedStart, last.Request.GrantedEnd)
	}

	// The ledger holds what was booked at the first grant.
	entries, err := svc.ListLedger(ctx, "e1")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].DayCount != 3 {
		t.Errorf("ledger = %+v, want the first 3-day entry only", entries)
	}
}

func TestLeaveService_PartialFailureKeepsDecision(t *testing.T) {
	ctx := context.Background()
	store := newMemLeaveStore()
	svc := core.NewLeaveService(store)
	req := submitLeave(t, svc)

	store.failLedger = errors.New("ledger endpoint timed out")
	res, err := svc.DecideLeave(ctx, manager, req.ID, core.LeaveDecisionInput{Decision: core.LeaveTotalGrant})
	if !core.IsPartialFailure(err) {
		t.Fatalf("error = %v, want PartialFailureError", err)
	}
	if res == nil || res.Request.Decision != core.LeaveTotalGrant {
		t.Fatalf("applied decision not returned: %+v", res)
	}

	stored, err := svc.GetLeave(ctx, req.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Decision != core.LeaveTotalGrant {
		t.Errorf("decision rolled back to %s", stored.Decision)
	}
	if stored.LedgerEntryID != "" || store.ledgerCount() != 0 {
		t.Errorf("unexpected ledger state: id %q, count %d", stored.LedgerEntryID, store.ledgerCount())
	}

	store.failLedger = nil
	res, err = svc.DecideLeave(ctx, manager, req.ID, core.LeaveDecisionInput{Decision: core.LeaveTotalGrant})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if res.Entry == nil || store.ledgerCount() != 1 {
		t.Errorf("retry did not book the missing entry")
	}
}

func TestLeaveService_AtomicStore(t *testing.T) {
	ctx := context.Background()
	store := &atomicLeaveStore{memLeaveStore: newMemLeaveStore()}
	svc := core.NewLeaveService(store)
	req := submitLeave(t, svc)

	store.failLedger = errors.New("constraint violation")
	if _, err := svc.DecideLeave(ctx, manager, req.ID, core.LeaveDecisionInput{Decision: core.LeaveTotalGrant}); err == nil || core.IsPartialFailure(err) {
		t.Fatalf("error = %v, want a full failure", err)
	}
	stored, _ := svc.GetLeave(ctx, req.ID)
	if stored.Decision != core.LeavePending {
		t.Errorf("decision = %s, want pending after a failed atomic decide", stored.Decision)
	}

	store.failLedger = nil
	res, err := svc.DecideLeave(ctx, manager, req.ID, core.LeaveDecisionInput{Decision: core.LeaveTotalGrant})
	if err != nil {
		t.Fatalf("DecideLeave: %v", err)
	}
	if res.Entry == nil || res.Request.LedgerEntryID == "" {
		t.Fatalf("result = %+v", res)
	}
	if store.decideCalls != 2 || store.ledgerCount() != 1 {
		t.Errorf("decideCalls = %d, ledger = %d", store.decideCalls, store.ledgerCount())
	}
}

func TestLeaveService_SubmitValidation(t *testing.T) {
	svc := core.NewLeaveService(newMemLeaveStore())
	_, err := svc.SubmitLeave(context.Background(), manager, core.LeaveRequest{
		EmployeeID: "e1",
		StartDate:  mustDate(t, "2024-01-12"),
		EndDate:    mustDate(t, "2024-01-10"),
	})
	if !errors.Is(err, core.ErrInvalidDateRange) {
		t.Errorf("error = %v, want ErrInvalidDateRange", err)
	}

	_, err = svc.SubmitLeave(context.Background(), manager, core.LeaveRequest{
		StartDate: mustDate(t, "2024-01-10"),
		EndDate:   mustDate(t, "2024-01-12"),
	})
	if !errors.Is(err, core.ErrMissingEmployee) {
		t.Errorf("error = %v, want ErrMissingEmployee", err)
	}
}
