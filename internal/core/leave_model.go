package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day. It encodes as YYYY-MM-DD and also accepts RFC 3339
// timestamps from the backend.
type Date struct {
	time.Time
}

// NewDate truncates t to its UTC calendar day.
func NewDate(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses YYYY-MM-DD or an RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return NewDate(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return NewDate(t), nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// LeaveDecision is the state of a leave request. Decisions stay editable: a
// refusal can later become a grant and vice versa.
type LeaveDecision string

const (
	LeavePending      LeaveDecision = "pending"
	LeaveTotalGrant   LeaveDecision = "total_grant"
	LeavePartialGrant LeaveDecision = "partial_grant"
	LeaveRefusal      LeaveDecision = "refusal"
)

// Valid reports whether d is a known decision.
func (d LeaveDecision) Valid() bool {
	switch d {
	case LeavePending, LeaveTotalGrant, LeavePartialGrant, LeaveRefusal:
		return true
	}
	return false
}

// IsGrant reports whether d grants days off.
func (d LeaveDecision) IsGrant() bool {
	return d == LeaveTotalGrant || d == LeavePartialGrant
}

// LeaveRequest is an employee's request for days off and the decision on it.
// LedgerEntryID is set once the grant has been booked in the leave ledger.
type LeaveRequest struct {
	ID            string        `json:"id,omitempty"`
	EmployeeID    string        `json:"employeeId"`
	EmployeeName  string        `json:"employeeName,omitempty"`
	Nature        string        `json:"nature"`
	StartDate     Date          `json:"startDate"`
	EndDate       Date          `json:"endDate"`
	GrantedStart  Date          `json:"grantedStartDate"`
	GrantedEnd    Date          `json:"grantedEndDate"`
	Decision      LeaveDecision `json:"decision"`
	Reason        string        `json:"reason,omitempty"`
	LedgerEntryID string        `json:"ledgerEntryId,omitempty"`
	DecidedBy     string        `json:"decidedBy,omitempty"`
	DecidedAt     *time.Time    `json:"decidedAt,omitempty"`
	CreatedBy     string        `json:"createdBy,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// LeaveLedgerEntry is the authoritative record of days consumed by a grant.
type LeaveLedgerEntry struct {
	ID             string    `json:"id,omitempty"`
	LeaveRequestID string    `json:"leaveRequestId"`
	EmployeeID     string    `json:"employeeId"`
	DayCount       int       `json:"dayCount"`
	StartDate      Date      `json:"startDate"`
	EndDate        Date      `json:"endDate"`
	Nature         string    `json:"nature"`
	CreatedBy      string    `json:"createdBy,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// DayCount counts the days of a range inclusive of both endpoints:
// ceil(|end − start| in days) + 1.
func DayCount(start, end Date) int {
	diff := math.Abs(end.Sub(start.Time).Hours()) / 24
	return int(math.Ceil(diff)) + 1
}

// Validate checks the requested range and the employee reference.
func (r *LeaveRequest) Validate() error {
	if strings.TrimSpace(r.EmployeeID) == "" {
		return &ValidationError{Field: "employeeId", Err: ErrMissingEmployee}
	}
	if r.StartDate.IsZero() || r.EndDate.IsZero() || r.EndDate.Before(r.StartDate.Time) {
		return &ValidationError{Field: "endDate", Err: ErrInvalidDateRange, Details: r.StartDate.String() + " → " + r.EndDate.String()}
	}
	if r.Decision == "" {
		r.Decision = LeavePending
	}
	if !r.Decision.Valid() {
		return &ValidationError{Field: "decision", Err: ErrUnknownStatus, Details: string(r.Decision)}
	}
	return nil
}

// GrantedRange returns the range a grant covers: the partial range for a
// partial grant, the requested range otherwise.
func (r LeaveRequest) GrantedRange(decision LeaveDecision) (Date, Date) {
	if decision == LeavePartialGrant {
		return r.GrantedStart, r.GrantedEnd
	}
	return r.StartDate, r.EndDate
}

// LeaveDecisionInput is the decision a manager applies to a request.
type LeaveDecisionInput struct {
	Decision     LeaveDecision `json:"decision"`
	GrantedStart Date          `json:"grantedStartDate"`
	GrantedEnd   Date          `json:"grantedEndDate"`
	Reason       string        `json:"reason,omitempty"`
}

// ApplyDecision validates and applies a decision. It returns the ledger entry
// the transition must produce, or nil when none is due.
//
// A grant derives an entry only while the request has none booked: the first
// move from pending or refusal into a grant books it, re-confirming a grant
// never books a second one. A grant whose booking failed earlier is booked
// when the grant is confirmed again.
func (r *LeaveRequest) ApplyDecision(in LeaveDecisionInput, caller Caller, now time.Time) (*LeaveLedgerEntry, error) {
	if !in.Decision.Valid() {
		return nil, &ValidationError{Field: "decision", Err: ErrUnknownStatus, Details: string(in.Decision)}
	}
	if in.Decision == LeavePartialGrant {
		if in.GrantedStart.IsZero() || in.GrantedEnd.IsZero() || in.GrantedEnd.Before(in.GrantedStart.Time) {
			return nil, &ValidationError{Field: "grantedEndDate", Err: ErrInvalidDateRange, Details: "partial grant needs a granted range"}
		}
		if in.GrantedStart.Before(r.StartDate.Time) || in.GrantedEnd.After(r.EndDate.Time) {
			return nil, &ValidationError{Field: "grantedStartDate", Err: ErrInvalidDateRange, Details: "granted range must lie within the requested range"}
		}
	}

	r.Decision = in.Decision
	if in.Decision == LeavePartialGrant {
		r.GrantedStart, r.GrantedEnd = in.GrantedStart, in.GrantedEnd
	} else if in.Decision == LeaveTotalGrant {
		r.GrantedStart, r.GrantedEnd = r.StartDate, r.EndDate
	}
	if in.Reason != "" {
		r.Reason = in.Reason
	}
	r.DecidedBy = caller.UserID
	decidedAt := now
	r.DecidedAt = &decidedAt

	return DeriveLedgerEntry(*r, caller, now), nil
}

// DeriveLedgerEntry returns the ledger entry a request in its current decision
// must have booked, or nil when the decision is not a grant or an entry is
// already booked. The day count covers the granted range inclusively. Only the
// first grant books: a later refusal or a narrower grant leaves that entry as is.
func DeriveLedgerEntry(r LeaveRequest, caller Caller, now time.Time) *LeaveLedgerEntry {
	if !r.Decision.IsGrant() || r.LedgerEntryID != "" {
		return nil
	}
	start, end := r.GrantedRange(r.Decision)
	return &LeaveLedgerEntry{
		LeaveRequestID: r.ID,
		EmployeeID:     r.EmployeeID,
		DayCount:       DayCount(start, end),
		StartDate:      start,
		EndDate:        end,
		Nature:         r.Nature,
		CreatedBy:      caller.UserID,
		CreatedAt:      now,
	}
}
