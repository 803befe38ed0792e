// Package backend talks to the document backend's REST API. Client implements
// core.DocumentStore and core.LeaveStore.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"docflow/internal/core"
)

var documentPaths = map[core.DocumentType]string{
	core.DocumentTypeQuote:          "/devis",
	core.DocumentTypeInvoice:        "/factures",
	core.DocumentTypeDeliveryNote:   "/bon-livraisons",
	core.DocumentTypePaymentReceipt: "/recus-paiement",
}

const (
	leavePath  = "/conges"
	ledgerPath = "/conges/ledger"
)

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// New returns a client with the given per-call timeout. Calls are never retried.
func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

func documentPath(t core.DocumentType) (string, error) {
	p, ok := documentPaths[t]
	if !ok {
		return "", &core.ValidationError{Field: "type", Err: core.ErrUnknownDocumentType, Details: string(t)}
	}
	return p, nil
}

// do sends one request and decodes a 2xx JSON answer into out (when non-nil).
// Transport failures and non-2xx answers become core.TransportError.
func (c *Client) do(ctx context.Context, op, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode %s payload: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	resp, err := c.send(ctx, method, path, body, "application/json")
	if err != nil {
		return &core.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if err := checkStatus(op, resp); err != nil {
		return err
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &core.TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("invalid response body: %w", err)}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader, accept string) (*http.Response, error) {
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return nil, fmt.Errorf("invalid backend url %q", c.BaseURL)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", accept)
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return c.HTTP.Do(req)
}

func checkStatus(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	err := errors.New(strings.TrimSpace(string(msg)))
	if resp.StatusCode == http.StatusNotFound {
		err = fmt.Errorf("%w: %s", core.ErrNotFound, strings.TrimSpace(string(msg)))
	}
	return &core.TransportError{Op: op, StatusCode: resp.StatusCode, Err: err}
}

// decodeList accepts a bare JSON array or an object wrapping it under "data".
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var wrapped struct {
			Data []T `json:"data"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, err
		}
		return wrapped.Data, nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListDocuments(ctx context.Context, docType core.DocumentType) ([]core.Document, error) {
	path, err := documentPath(docType)
	if err != nil {
		return nil, err
	}
	op := "list " + string(docType)
	var raw json.RawMessage
	if err := c.do(ctx, op, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	docs, err := decodeList[core.Document](raw)
	if err != nil {
		return nil, &core.TransportError{Op: op, StatusCode: http.StatusOK, Err: fmt.Errorf("invalid response body: %w", err)}
	}
	// The backend may omit the type on list rows.
	for i := range docs {
		docs[i].DefaultType(docType)
	}
	return docs, nil
}

func (c *Client) GetDocument(ctx context.Context, docType core.DocumentType, id string) (*core.Document, error) {
	path, err := documentPath(docType)
	if err != nil {
		return nil, err
	}
	var doc core.Document
	if err := c.do(ctx, "get "+string(docType), http.MethodGet, path+"/"+url.PathEscape(id), nil, &doc); err != nil {
		return nil, err
	}
	doc.DefaultType(docType)
	return &doc, nil
}

func (c *Client) CreateDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	path, err := documentPath(doc.Type)
	if err != nil {
		return nil, err
	}
	var created core.Document
	if err := c.do(ctx, "create "+string(doc.Type), http.MethodPost, path, doc, &created); err != nil {
		return nil, err
	}
	created.DefaultType(doc.Type)
	return &created, nil
}

func (c *Client) UpdateDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	path, err := documentPath(doc.Type)
	if err != nil {
		return nil, err
	}
	var updated core.Document
	if err := c.do(ctx, "update "+string(doc.Type), http.MethodPut, path+"/"+url.PathEscape(doc.ID), doc, &updated); err != nil {
		return nil, err
	}
	updated.DefaultType(doc.Type)
	return &updated, nil
}

func (c *Client) DeleteDocument(ctx context.Context, docType core.DocumentType, id string) error {
	path, err := documentPath(docType)
	if err != nil {
		return err
	}
	return c.do(ctx, "delete "+string(docType), http.MethodDelete, path+"/"+url.PathEscape(id), nil, nil)
}

// ExportPDF downloads the backend rendering of a document. The filename comes
// from Content-Disposition, falling back to the document number.
func (c *Client) ExportPDF(ctx context.Context, docType core.DocumentType, id string) ([]byte, string, error) {
	path, err := documentPath(docType)
	if err != nil {
		return nil, "", err
	}
	op := "export " + string(docType)
	resp, err := c.send(ctx, http.MethodGet, path+"/"+url.PathEscape(id)+"/pdf", nil, "application/pdf")
	if err != nil {
		return nil, "", &core.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	if err := checkStatus(op, resp); err != nil {
		return nil, "", err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &core.TransportError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	return data, filenameFrom(resp.Header.Get("Content-Disposition"), docType, id), nil
}

func filenameFrom(disposition string, docType core.DocumentType, id string) string {
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		if name := strings.TrimSpace(params["filename"]); name != "" {
			return name
		}
	}
	return fmt.Sprintf("%s-%s.pdf", docType.NumberPrefix(), id)
}
