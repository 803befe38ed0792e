package core

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers match them with errors.Is through the typed
// wrappers below.
var (
	ErrNoLineItems           = errors.New("document must have at least one line item")
	ErrMissingClient         = errors.New("client name is required")
	ErrMissingEmployee       = errors.New("employee is required")
	ErrInvalidCategory       = errors.New("client category must be individual or business")
	ErrUnknownDocumentType   = errors.New("unknown document type")
	ErrInvalidTransition     = errors.New("status transition not allowed")
	ErrUnknownStatus         = errors.New("unknown status")
	ErrNotFound              = errors.New("not found")
	ErrUnsupportedConversion = errors.New("conversion between these document types is not supported")
	ErrSourceNotEligible     = errors.New("source document is not eligible for conversion")
	ErrNoSources             = errors.New("at least one source document must be selected")
	ErrMixedSourceTypes      = errors.New("all selected sources must share the declared source type")
	ErrOverpayment           = errors.New("payment exceeds the amount remaining")
	ErrInvalidPayment        = errors.New("payment amount must be greater than zero")
	ErrNotAReceipt           = errors.New("payments can only be recorded on payment receipts")
	ErrUnknownOption         = errors.New("product has no such option")
	ErrInvalidDateRange      = errors.New("invalid leave date range")
	ErrInvalidLineIndex      = errors.New("line item index out of range")
)

// ValidationError is raised before any store call: the operation is aborted
// and nothing is persisted.
type ValidationError struct {
	Field   string
	Err     error
	Details string
}

func (e *ValidationError) Error() string {
	msg := e.Err.Error()
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Details != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Details)
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// TransportError wraps a failed or timed-out backend call. It is never retried.
type TransportError struct {
	Op         string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: backend returned status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: backend unavailable: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NotFound reports whether the backend answered 404.
func (e *TransportError) NotFound() bool { return e.StatusCode == 404 }

// PartialFailureError means the primary change was applied but a mandated
// derived record could not be created. The applied change is not rolled back.
type PartialFailureError struct {
	Op  string
	Err error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s applied but derived record failed: %v", e.Op, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

// DataShapeError means a source document exposes none of the item fields its
// type is known to use.
type DataShapeError struct {
	DocumentID string
	Type       DocumentType
	Fields     []string
}

func (e *DataShapeError) Error() string {
	return fmt.Sprintf("document %q (%s) has none of the item fields %v", e.DocumentID, e.Type, e.Fields)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var t *TransportError
	return errors.As(err, &t)
}

// IsPartialFailure reports whether err is (or wraps) a PartialFailureError.
func IsPartialFailure(err error) bool {
	var p *PartialFailureError
	return errors.As(err, &p)
}
