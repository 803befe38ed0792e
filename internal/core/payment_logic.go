package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentKind distinguishes the up-front advance (avance) from later
// settlements (règlements).
type PaymentKind string

const (
	PaymentAdvance    PaymentKind = "avance"
	PaymentSettlement PaymentKind = "reglement"
)

// Payment is one amount received against a payment receipt.
type Payment struct {
	Kind       PaymentKind     `json:"kind"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method,omitempty"`
	PaidAt     time.Time       `json:"paidAt"`
	RecordedBy string          `json:"recordedBy,omitempty"`
}

// AmountPaid sums every payment recorded on the document.
func (d *Document) AmountPaid() decimal.Decimal {
	total := decimal.Zero
	for _, p := range d.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

// Remaining is the amount still owed (reste à payer), never below zero.
func (d *Document) Remaining() decimal.Decimal {
	return nonNegative(d.Totals.FinalAmount.Sub(d.AmountPaid()))
}

// RecordPayment adds a payment to a receipt and moves it to partial or paid.
// Overpayment is rejected; cancelled and fully paid receipts accept nothing.
func (d *Document) RecordPayment(p Payment) error {
	if d.Type != DocumentTypePaymentReceipt {
		return &ValidationError{Field: "type", Err: ErrNotAReceipt, Details: string(d.Type)}
	}
	if !p.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Err: ErrInvalidPayment, Details: p.Amount.String()}
	}
	if p.Kind == "" {
		p.Kind = PaymentSettlement
		if len(d.Payments) == 0 {
			p.Kind = PaymentAdvance
		}
	}
	if p.PaidAt.IsZero() {
		p.PaidAt = time.Now().UTC()
	}

	d.Recompute()
	remaining := d.Remaining()
	if p.Amount.GreaterThan(remaining) {
		return &ValidationError{
			Field:   "amount",
			Err:     ErrOverpayment,
			Details: "remaining " + remaining.StringFixed(2) + ", got " + p.Amount.StringFixed(2),
		}
	}

	next := StatusPartial
	if remaining.Sub(p.Amount).IsZero() {
		next = StatusPaid
	}
	if err := ValidateTransition(d.Type, d.Status, next); err != nil {
		return err
	}

	d.Payments = append(d.Payments, p)
	d.Status = next
	return nil
}
