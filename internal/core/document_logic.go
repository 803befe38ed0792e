package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ComputeTotals sums priced line items into document totals.
//
// Individual-client documents never carry tax: their final amount is the
// tax-excluded total. Business-client documents always end tax-inclusive.
func ComputeTotals(items []LineItem, category ClientCategory, taxRate decimal.Decimal) Totals {
	t := Totals{
		Subtotal:      decimal.Zero,
		TotalDiscount: decimal.Zero,
		TaxAmount:     decimal.Zero,
	}
	lineTax := decimal.Zero
	for _, item := range items {
		lp := PriceLine(item, category, taxRate)
		t.Subtotal = t.Subtotal.Add(lp.Subtotal)
		t.TotalDiscount = t.TotalDiscount.Add(lp.Discount)
		lineTax = lineTax.Add(lp.Tax)
	}

	t.TotalExclTax = t.Subtotal.Sub(t.TotalDiscount)
	if category == ClientBusiness {
		t.TaxAmount = lineTax
	}
	t.TotalInclTax = t.TotalExclTax.Add(t.TaxAmount)
	if category == ClientBusiness {
		t.FinalAmount = t.TotalInclTax
	} else {
		t.FinalAmount = t.TotalExclTax
	}
	return t
}

// NewDraft returns a new document of the given type holding one empty line.
func NewDraft(docType DocumentType, category ClientCategory) *Document {
	d := &Document{
		Type:     docType,
		Category: category,
		Items:    []LineItem{NewLineItem()},
		Status:   InitialStatus(docType),
	}
	d.Recompute()
	return d
}

// Recompute sanitises every line and re-derives the totals. Every mutator
// calls it; callers that edit fields directly must call it themselves.
func (d *Document) Recompute() {
	for i := range d.Items {
		d.Items[i].Sanitize()
	}
	d.Totals = ComputeTotals(d.Items, d.Category, d.TaxRate)
}

// LinePrices returns the priced contribution of every line, in order.
func (d *Document) LinePrices() []LinePrice {
	out := make([]LinePrice, len(d.Items))
	for i, item := range d.Items {
		out[i] = PriceLine(item, d.Category, d.TaxRate)
	}
	return out
}

// AddItem appends a line and recomputes.
func (d *Document) AddItem(item LineItem) {
	d.Items = append(d.Items, item)
	d.rawItems = nil
	d.Recompute()
}

// SetItem replaces the line at index i and recomputes.
func (d *Document) SetItem(i int, item LineItem) error {
	if i < 0 || i >= len(d.Items) {
		return &ValidationError{Field: "items", Err: ErrInvalidLineIndex}
	}
	d.Items[i] = item
	d.rawItems = nil
	d.Recompute()
	return nil
}

// RemoveItem deletes the line at index i and recomputes. Removing the last line
// is allowed while editing; Validate rejects the document on save.
func (d *Document) RemoveItem(i int) error {
	if i < 0 || i >= len(d.Items) {
		return &ValidationError{Field: "items", Err: ErrInvalidLineIndex}
	}
	d.Items = append(d.Items[:i], d.Items[i+1:]...)
	d.rawItems = nil
	d.Recompute()
	return nil
}

// SetCategory switches the tax regime and recomputes.
func (d *Document) SetCategory(c ClientCategory) error {
	if !c.Valid() {
		return &ValidationError{Field: "clientCategory", Err: ErrInvalidCategory, Details: string(c)}
	}
	d.Category = c
	d.Recompute()
	return nil
}

// SetTaxRate sets the document tax rate (business only) and recomputes.
func (d *Document) SetTaxRate(rate decimal.Decimal) {
	d.TaxRate = nonNegative(rate)
	d.Recompute()
}

// ApplyProduct fills line i from catalog data. The option's own tax rate wins,
// otherwise the product's rate applies. The product is not modified.
func (d *Document) ApplyProduct(i int, p Product, optionName string) error {
	if i < 0 || i >= len(d.Items) {
		return &ValidationError{Field: "items", Err: ErrInvalidLineIndex}
	}
	item := d.Items[i]
	item.ProductID = p.ID
	item.Description = p.Name
	item.BasePrice = p.BasePrice
	item.TaxRate = decimal.NewNullDecimal(p.TaxRate)
	item.OptionName = ""
	item.OptionPrice = decimal.Zero
	item.OptionTaxRate = decimal.NullDecimal{}

	if optionName != "" {
		opt, ok := p.Option(optionName)
		if !ok {
			return &ValidationError{Field: "option", Err: ErrUnknownOption, Details: optionName}
		}
		item.OptionName = opt.Name
		item.OptionPrice = opt.Price
		item.OptionTaxRate = decimal.NewNullDecimal(p.TaxRate)
		if opt.TaxRate.Valid {
			item.OptionTaxRate = opt.TaxRate
		}
	}

	d.Items[i] = item
	d.rawItems = nil
	d.Recompute()
	return nil
}

// Validate checks what must hold before a document is saved or a conversion
// payload is sent: a known type and category, a client name and at least one line.
func (d *Document) Validate() error {
	if !isKnownType(d.Type) {
		return &ValidationError{Field: "type", Err: ErrUnknownDocumentType, Details: string(d.Type)}
	}
	if !d.Category.Valid() {
		return &ValidationError{Field: "clientCategory", Err: ErrInvalidCategory, Details: string(d.Category)}
	}
	if strings.TrimSpace(d.Client.Name) == "" {
		return &ValidationError{Field: "clientName", Err: ErrMissingClient}
	}
	if len(d.Items) == 0 {
		return &ValidationError{Field: "items", Err: ErrNoLineItems}
	}
	if _, ok := transitions[d.Type][d.Status]; !ok {
		return &ValidationError{Field: "status", Err: ErrUnknownStatus, Details: string(d.Status)}
	}
	return nil
}

// touch stamps the modification time.
func (d *Document) touch(now time.Time) {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
}

func isKnownType(t DocumentType) bool {
	for _, known := range DocumentTypes {
		if t == known {
			return true
		}
	}
	return false
}
