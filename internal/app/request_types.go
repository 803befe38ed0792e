package app

import "docflow/internal/core"

// TransitionRequest is the input for a status change.
type TransitionRequest struct {
	Type   core.DocumentType
	ID     string
	Status core.Status
}

// PaymentRequest is the input for recording a payment on a receipt.
type PaymentRequest struct {
	ReceiptID string
	Payment   core.Payment
}

// DraftRequest is the input for an AI-assisted draft.
type DraftRequest struct {
	Text string
	Type core.DocumentType
}

// ProductRequest selects a catalog product, and optionally one of its
// options, for the line at zero-based index Line.
type ProductRequest struct {
	Line      int
	ProductID string
	Option    string
}
