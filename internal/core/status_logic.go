package core

import "fmt"

// Status is the lifecycle state of a document. The valid set depends on the
// document type.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusExpired   Status = "expired"
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusPartial   Status = "partial"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// transitions lists, per document type, every known status and the statuses
// reachable from it. A status with no outgoing edges is terminal.
//
//	Quote:          draft → sent → {accepted, rejected, expired}
//	Invoice:        pending ⇄ paid, both → cancelled
//	DeliveryNote:   pending → delivered, both → cancelled
//	PaymentReceipt: pending → {paid, partial}, partial → {partial, paid}, open → cancelled
var transitions = map[DocumentType]map[Status][]Status{
	DocumentTypeQuote: {
		StatusDraft:    {StatusSent},
		StatusSent:     {StatusAccepted, StatusRejected, StatusExpired},
		StatusAccepted: nil,
		StatusRejected: nil,
		StatusExpired:  nil,
	},
	DocumentTypeInvoice: {
		StatusPending:   {StatusPaid, StatusCancelled},
		StatusPaid:      {StatusPending, StatusCancelled},
		StatusCancelled: nil,
	},
	DocumentTypeDeliveryNote: {
		StatusPending:   {StatusDelivered, StatusCancelled},
		StatusDelivered: {StatusCancelled},
		StatusCancelled: nil,
	},
	DocumentTypePaymentReceipt: {
		StatusPending:   {StatusPaid, StatusPartial, StatusCancelled},
		StatusPartial:   {StatusPartial, StatusPaid, StatusCancelled},
		StatusPaid:      nil,
		StatusCancelled: nil,
	},
}

// InitialStatus is the status a freshly created document starts in.
func InitialStatus(t DocumentType) Status {
	if t == DocumentTypeQuote {
		return StatusDraft
	}
	return StatusPending
}

// KnownStatus reports whether s is valid for documents of type t.
func KnownStatus(t DocumentType, s Status) bool {
	_, ok := transitions[t][s]
	return ok
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(t DocumentType, s Status) bool {
	next, ok := transitions[t][s]
	return ok && len(next) == 0
}

// CanTransition reports whether a document of type t may move from one status
// to another. Re-setting the current status is always accepted as a no-op.
func CanTransition(t DocumentType, from, to Status) bool {
	if !KnownStatus(t, from) || !KnownStatus(t, to) {
		return false
	}
	if from == to {
		return true
	}
	for _, s := range transitions[t][from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidateTransition is CanTransition returning a ValidationError.
func ValidateTransition(t DocumentType, from, to Status) error {
	if !KnownStatus(t, to) {
		return &ValidationError{Field: "status", Err: ErrUnknownStatus, Details: fmt.Sprintf("%s for %s", to, t)}
	}
	if !CanTransition(t, from, to) {
		return &ValidationError{Field: "status", Err: ErrInvalidTransition, Details: fmt.Sprintf("%s: %s → %s", t, from, to)}
	}
	return nil
}

// ConvertibleFrom reports whether a document in status s may be used as a
// conversion source. Only accepted quotes convert; cancelled documents never do.
func ConvertibleFrom(t DocumentType, s Status) bool {
	switch t {
	case DocumentTypeQuote:
		return s == StatusAccepted
	case DocumentTypeInvoice, DocumentTypeDeliveryNote:
		return s != StatusCancelled
	}
	return false
}
