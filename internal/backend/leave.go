package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"docflow/internal/core"
)

func (c *Client) GetLeaveRequest(ctx context.Context, id string) (*core.LeaveRequest, error) {
	var req core.LeaveRequest
	if err := c.do(ctx, "get leave request", http.MethodGet, leavePath+"/"+url.PathEscape(id), nil, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (c *Client) ListLeaveRequests(ctx context.Context, employeeID string) ([]core.LeaveRequest, error) {
	path := leavePath
	if employeeID != "" {
		path += "?" + url.Values{"employeeId": {employeeID}}.Encode()
	}
	var raw json.RawMessage
	if err := c.do(ctx, "list leave requests", http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	reqs, err := decodeList[core.LeaveRequest](raw)
	if err != nil {
		return nil, &core.TransportError{Op: "list leave requests", StatusCode: http.StatusOK, Err: fmt.Errorf("invalid response body: %w", err)}
	}
	return reqs, nil
}

func (c *Client) CreateLeaveRequest(ctx context.Context, req *core.LeaveRequest) (*core.LeaveRequest, error) {
	var created core.LeaveRequest
	if err := c.do(ctx, "create leave request", http.MethodPost, leavePath, req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateLeaveRequest(ctx context.Context, req *core.LeaveRequest) (*core.LeaveRequest, error) {
	var updated core.LeaveRequest
	if err := c.do(ctx, "update leave request", http.MethodPut, leavePath+"/"+url.PathEscape(req.ID), req, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) CreateLeaveLedgerEntry(ctx context.Context, entry *core.LeaveLedgerEntry) (*core.LeaveLedgerEntry, error) {
	var created core.LeaveLedgerEntry
	if err := c.do(ctx, "create leave ledger entry", http.MethodPost, ledgerPath, entry, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) LedgerEntryFor(ctx context.Context, leaveRequestID string) (*core.LeaveLedgerEntry, error) {
	entries, err := c.listLedger(ctx, url.Values{"leaveRequestId": {leaveRequestID}})
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.LeaveRequestID == leaveRequestID {
			return &e, nil
		}
	}
	return nil, nil
}

func (c *Client) ListLedger(ctx context.Context, employeeID string) ([]core.LeaveLedgerEntry, error) {
	q := url.Values{}
	if employeeID != "" {
		q.Set("employeeId", employeeID)
	}
	return c.listLedger(ctx, q)
}

func (c *Client) listLedger(ctx context.Context, q url.Values) ([]core.LeaveLedgerEntry, error) {
	path := ledgerPath
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var raw json.RawMessage
	if err := c.do(ctx, "list leave ledger", http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	entries, err := decodeList[core.LeaveLedgerEntry](raw)
	if err != nil {
		return nil, &core.TransportError{Op: "list leave ledger", StatusCode: http.StatusOK, Err: fmt.Errorf("invalid response body: %w", err)}
	}
	return entries, nil
}
