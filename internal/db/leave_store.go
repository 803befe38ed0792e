package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docflow/internal/core"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const leaveColumns = `
	id, employee_id, employee_name, nature, start_date, end_date, granted_start, granted_end,
	decision, reason, COALESCE(ledger_entry_id, ''), COALESCE(decided_by, ''), decided_at,
	COALESCE(created_by, ''), created_at`

const ledgerColumns = `
	id, leave_request_id, employee_id, day_count, start_date, end_date, nature,
	COALESCE(created_by, ''), created_at`

func scanLeave(row pgx.Row) (*core.LeaveRequest, error) {
	var (
		r                        core.LeaveRequest
		start, end               time.Time
		grantedStart, grantedEnd *time.Time
		decision                 string
	)
	err := row.Scan(&r.ID, &r.EmployeeID, &r.EmployeeName, &r.Nature, &start, &end, &grantedStart, &grantedEnd,
		&decision, &r.Reason, &r.LedgerEntryID, &r.DecidedBy, &r.DecidedAt, &r.CreatedBy, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.StartDate, r.EndDate = core.NewDate(start), core.NewDate(end)
	if grantedStart != nil {
		r.GrantedStart = core.NewDate(*grantedStart)
	}
	if grantedEnd != nil {
		r.GrantedEnd = core.NewDate(*grantedEnd)
	}
	r.Decision = core.LeaveDecision(decision)
	return &r, nil
}

func scanLedgerEntry(row pgx.Row) (*core.LeaveLedgerEntry, error) {
	var (
		e          core.LeaveLedgerEntry
		start, end time.Time
	)
	err := row.Scan(&e.ID, &e.LeaveRequestID, &e.EmployeeID, &e.DayCount, &start, &end, &e.Nature, &e.CreatedBy, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.StartDate, e.EndDate = core.NewDate(start), core.NewDate(end)
	return &e, nil
}

func nullDate(d core.Date) *time.Time {
	if d.IsZero() {
		return nil
	}
	return &d.Time
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *PgStore) GetLeaveRequest(ctx context.Context, id string) (*core.LeaveRequest, error) {
	r, err := scanLeave(s.pool.QueryRow(ctx, `SELECT `+leaveColumns+` FROM leave_requests WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("leave request %s: %w", id, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch leave request %s: %w", id, err)
	}
	return r, nil
}

func (s *PgStore) ListLeaveRequests(ctx context.Context, employeeID string) ([]core.LeaveRequest, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+leaveColumns+` FROM leave_requests
		WHERE $1::text = '' OR employee_id = $1
		ORDER BY start_date DESC, created_at DESC
	`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query leave requests: %w", err)
	}
	defer rows.Close()

	var out []core.LeaveRequest
	for rows.Next() {
		r, err := scanLeave(rows)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *PgStore) CreateLeaveRequest(ctx context.Context, req *core.LeaveRequest) (*core.LeaveRequest, error) {
	id := uuid.NewString()
	r, err := scanLeave(s.pool.QueryRow(ctx, `
		INSERT INTO leave_requests (id, employee_id, employee_name, nature, start_date, end_date, decision, reason, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+leaveColumns,
		id, req.EmployeeID, req.EmployeeName, req.Nature, req.StartDate.Time, req.EndDate.Time,
		string(req.Decision), req.Reason, nullString(req.CreatedBy), req.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to insert leave request: %w", err)
	}
	return r, nil
}

func (s *PgStore) UpdateLeaveRequest(ctx context.Context, req *core.LeaveRequest) (*core.LeaveRequest, error) {
	return updateLeave(ctx, s.pool, req)
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func updateLeave(ctx context.Context, q querier, req *core.LeaveRequest) (*core.LeaveRequest, error) {
	r, err := scanLeave(q.QueryRow(ctx, `
		UPDATE leave_requests
		SET granted_start = $1, granted_end = $2, decision = $3, reason = $4,
		    ledger_entry_id = $5, decided_by = $6, decided_at = $7
		WHERE id = $8
		RETURNING `+leaveColumns,
		nullDate(req.GrantedStart), nullDate(req.GrantedEnd), string(req.Decision), req.Reason,
		nullString(req.LedgerEntryID), nullString(req.DecidedBy), req.DecidedAt, req.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("leave request %s: %w", req.ID, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update leave request %s: %w", req.ID, err)
	}
	return r, nil
}

func (s *PgStore) CreateLeaveLedgerEntry(ctx context.Context, entry *core.LeaveLedgerEntry) (*core.LeaveLedgerEntry, error) {
	return insertLedgerEntry(ctx, s.pool, entry)
}

// insertLedgerEntry books entry, or returns the row already booked for the
// same request.
func insertLedgerEntry(ctx context.Context, q querier, entry *core.LeaveLedgerEntry) (*core.LeaveLedgerEntry, error) {
	e, err := scanLedgerEntry(q.QueryRow(ctx, `
		INSERT INTO leave_ledger (id, leave_request_id, employee_id, day_count, start_date, end_date, nature, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (leave_request_id) DO NOTHING
		RETURNING `+ledgerColumns,
		uuid.NewString(), entry.LeaveRequestID, entry.EmployeeID, entry.DayCount, entry.StartDate.Time, entry.EndDate.Time,
		entry.Nature, nullString(entry.CreatedBy), entry.CreatedAt))
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	e, err = scanLedgerEntry(q.QueryRow(ctx, `SELECT `+ledgerColumns+` FROM leave_ledger WHERE leave_request_id = $1`, entry.LeaveRequestID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch existing ledger entry: %w", err)
	}
	return e, nil
}

func (s *PgStore) LedgerEntryFor(ctx context.Context, leaveRequestID string) (*core.LeaveLedgerEntry, error) {
	e, err := scanLedgerEntry(s.pool.QueryRow(ctx, `SELECT `+ledgerColumns+` FROM leave_ledger WHERE leave_request_id = $1`, leaveRequestID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch ledger entry for %s: %w", leaveRequestID, err)
	}
	return e, nil
}

// ListLedger returns the ledger of one employee, or of everyone when
// employeeID is empty.
func (s *PgStore) ListLedger(ctx context.Context, employeeID string) ([]core.LeaveLedgerEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+ledgerColumns+` FROM leave_ledger
		WHERE $1::text = '' OR employee_id = $1
		ORDER BY start_date
	`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query leave ledger: %w", err)
	}
	defer rows.Close()

	var out []core.LeaveLedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// DecideLeave saves the decision and books entry in one transaction.
func (s *PgStore) DecideLeave(ctx context.Context, req *core.LeaveRequest, entry *core.LeaveLedgerEntry) (*core.LeaveRequest, *core.LeaveLedgerEntry, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var locked string
	err = tx.QueryRow(ctx, `SELECT id FROM leave_requests WHERE id = $1 FOR UPDATE`, req.ID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, fmt.Errorf("leave request %s: %w", req.ID, core.ErrNotFound)
		}
		return nil, nil, fmt.Errorf("failed to lock leave request %s: %w", req.ID, err)
	}

	var booked *core.LeaveLedgerEntry
	if entry != nil {
		booked, err = insertLedgerEntry(ctx, tx, entry)
		if err != nil {
			return nil, nil, err
		}
		req.LedgerEntryID = booked.ID
	}

	updated, err := updateLeave(ctx, tx, req)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return updated, booked, nil
}
