package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType identifies one of the business document kinds handled by the engine.
// The string values are the identifiers used by the backend.
type DocumentType string

const (
	DocumentTypeQuote          DocumentType = "devis"
	DocumentTypeInvoice        DocumentType = "facture"
	DocumentTypeDeliveryNote   DocumentType = "bon_livraison"
	DocumentTypePaymentReceipt DocumentType = "recu_paiement"
)

// DocumentTypes lists every document type in display order.
var DocumentTypes = []DocumentType{
	DocumentTypeQuote,
	DocumentTypeInvoice,
	DocumentTypeDeliveryNote,
	DocumentTypePaymentReceipt,
}

// ParseDocumentType accepts the backend identifier or its English alias.
func ParseDocumentType(s string) (DocumentType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "devis", "quote", "quotes":
		return DocumentTypeQuote, nil
	case "facture", "factures", "invoice", "invoices":
		return DocumentTypeInvoice, nil
	case "bon_livraison", "bonlivraison", "bon-livraison", "delivery_note", "delivery-note", "delivery-notes":
		return DocumentTypeDeliveryNote, nil
	case "recu_paiement", "recu-paiement", "receipt", "receipts", "payment_receipt", "payment-receipt":
		return DocumentTypePaymentReceipt, nil
	}
	return "", &ValidationError{Field: "type", Err: ErrUnknownDocumentType, Details: s}
}

// Label returns a human-readable name for the type.
func (t DocumentType) Label() string {
	switch t {
	case DocumentTypeQuote:
		return "Devis"
	case DocumentTypeInvoice:
		return "Facture"
	case DocumentTypeDeliveryNote:
		return "Bon de livraison"
	case DocumentTypePaymentReceipt:
		return "Reçu de paiement"
	}
	return string(t)
}

// NumberPrefix is the prefix of human-facing document numbers (e.g. FAC-00042).
func (t DocumentType) NumberPrefix() string {
	switch t {
	case DocumentTypeQuote:
		return "DEV"
	case DocumentTypeInvoice:
		return "FAC"
	case DocumentTypeDeliveryNote:
		return "BL"
	case DocumentTypePaymentReceipt:
		return "REC"
	}
	return "DOC"
}

// ClientCategory selects the tax regime applied to a document.
type ClientCategory string

const (
	ClientIndividual ClientCategory = "individual"
	ClientBusiness   ClientCategory = "business"
)

// Valid reports whether c is a known category.
func (c ClientCategory) Valid() bool {
	return c == ClientIndividual || c == ClientBusiness
}

// ClientIdentity holds the client fields carried on every document.
// They are flattened into the document JSON.
type ClientIdentity struct {
	Name    string `json:"clientName"`
	Phone   string `json:"clientPhone,omitempty"`
	Address string `json:"clientAddress,omitempty"`
	Email   string `json:"clientEmail,omitempty"`
}

// LineItem is one priced row of a document.
// TaxRate and OptionTaxRate are optional: an unset TaxRate falls back to the
// document tax rate, an unset OptionTaxRate falls back to the effective base rate.
type LineItem struct {
	ProductID     string              `json:"productId,omitempty"`
	Quantity      int                 `json:"quantity"`
	Description   string              `json:"description"`
	Ref           string              `json:"ref,omitempty"`
	Color         string              `json:"color,omitempty"`
	BasePrice     decimal.Decimal     `json:"unitPrice"`
	OptionName    string              `json:"option,omitempty"`
	OptionPrice   decimal.Decimal     `json:"optionPrice"`
	Discount      decimal.Decimal     `json:"discount"` // percent, 0–100, base price only
	TaxRate       decimal.NullDecimal `json:"taxRate"`
	OptionTaxRate decimal.NullDecimal `json:"optionTaxRate"`
}

// NewLineItem returns the empty row a user gets when adding a line.
func NewLineItem() LineItem {
	return LineItem{Quantity: 1}
}

// LinePrice is the contribution of one line item to the document totals.
type LinePrice struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"` // tax excluded
}

// Totals are the derived document-level amounts. They are recomputed from the
// line items on every mutation and never trusted from storage.
type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalDiscount decimal.Decimal `json:"totalDiscount"`
	TotalExclTax  decimal.Decimal `json:"totalHT"`
	TaxAmount     decimal.Decimal `json:"taxAmount"`
	TotalInclTax  decimal.Decimal `json:"totalTTC"`
	FinalAmount   decimal.Decimal `json:"finalAmount"`
}

// Lineage records which documents a converted document was derived from.
type Lineage struct {
	SourceType DocumentType `json:"sourceType"`
	SourceIDs  []string     `json:"sourceIds"`
}

// LineageField is the backend field name carrying source ids for a given source type.
func LineageField(sourceType DocumentType) string {
	switch sourceType {
	case DocumentTypeInvoice:
		return "sourceFactures"
	case DocumentTypeDeliveryNote:
		return "sourceBonLivraisons"
	case DocumentTypeQuote:
		return "sourceDevis"
	}
	return ""
}

// Caller identifies the session performing a mutating operation.
type Caller struct {
	UserID string `json:"userId"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role,omitempty"`
}

// Document is a Quote, Invoice, DeliveryNote or PaymentReceipt.
//
// Status progresses through the per-type state machine in status_logic.go.
// Payments are only meaningful on payment receipts.
type Document struct {
	ID       string          `json:"id,omitempty"`
	Type     DocumentType    `json:"type"`
	Number   string          `json:"number,omitempty"`
	Category ClientCategory  `json:"clientCategory"`
	Client   ClientIdentity  `json:"-"`
	Items    []LineItem      `json:"items"`
	TaxRate  decimal.Decimal `json:"taxRate"`
	Totals   Totals          `json:"totals"`
	Status   Status          `json:"status"`
	Lineage  *Lineage        `json:"-"`
	Payments []Payment       `json:"payments,omitempty"`
	Notes    string          `json:"notes,omitempty"`

	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// rawItems keeps the item collections exactly as received, keyed by field
	// name, so the converter can apply the per-type adapter table. Item
	// mutators drop it.
	rawItems map[string]json.RawMessage
}

// documentAlias strips the methods from Document to avoid recursion.
type documentAlias Document

// documentWire is the backend JSON shape: client fields and lineage are flat,
// and item collections may appear under several names.
type documentWire struct {
	*documentAlias
	ClientIdentity

	Items    json.RawMessage `json:"items,omitempty"`
	Articles json.RawMessage `json:"articles,omitempty"`
	Products json.RawMessage `json:"products,omitempty"`

	SourceFactures      []string `json:"sourceFactures,omitempty"`
	SourceBonLivraisons []string `json:"sourceBonLivraisons,omitempty"`
	SourceDevis         []string `json:"sourceDevis,omitempty"`
}

// MarshalJSON writes the canonical shape: items under "items" and lineage under
// the field named after the source type.
func (d Document) MarshalJSON() ([]byte, error) {
	alias := documentAlias(d)
	items, err := json.Marshal(nonNilItems(d.Items))
	if err != nil {
		return nil, fmt.Errorf("failed to encode line items: %w", err)
	}
	w := documentWire{documentAlias: &alias, ClientIdentity: d.Client, Items: items}
	if d.Lineage != nil {
		switch d.Lineage.SourceType {
		case DocumentTypeInvoice:
			w.SourceFactures = d.Lineage.SourceIDs
		case DocumentTypeDeliveryNote:
			w.SourceBonLivraisons = d.Lineage.SourceIDs
		case DocumentTypeQuote:
			w.SourceDevis = d.Lineage.SourceIDs
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts any of the known item field names. Items are normalised
// through the adapter of the document's own type; totals are recomputed.
func (d *Document) UnmarshalJSON(data []byte) error {
	var alias documentAlias
	w := documentWire{documentAlias: &alias}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*d = Document(alias)
	d.Client = w.ClientIdentity
	d.Items = nil

	d.rawItems = make(map[string]json.RawMessage)
	for name, raw := range map[string]json.RawMessage{"items": w.Items, "articles": w.Articles, "products": w.Products} {
		if len(raw) > 0 && string(raw) != "null" {
			d.rawItems[name] = raw
		}
	}

	switch {
	case len(w.SourceFactures) > 0:
		d.Lineage = &Lineage{SourceType: DocumentTypeInvoice, SourceIDs: w.SourceFactures}
	case len(w.SourceBonLivraisons) > 0:
		d.Lineage = &Lineage{SourceType: DocumentTypeDeliveryNote, SourceIDs: w.SourceBonLivraisons}
	case len(w.SourceDevis) > 0:
		d.Lineage = &Lineage{SourceType: DocumentTypeQuote, SourceIDs: w.SourceDevis}
	}

	// A document whose items cannot be located still decodes; the converter
	// reports the shape problem when it is used as a source.
	if items, err := sourceItems(*d, d.Type); err == nil {
		d.Items = items
	}
	d.Recompute()
	return nil
}

func nonNilItems(items []LineItem) []LineItem {
	if items == nil {
		return []LineItem{}
	}
	return items
}

// Product is immutable catalog data used to fill a line item.
type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	BasePrice decimal.Decimal `json:"basePrice"`
	TaxRate   decimal.Decimal `json:"taxRate"`
	Options   []ProductOption `json:"options,omitempty"`
}

// ProductOption is an add-on priced on top of the base price. A nil tax rate
// means the product's rate applies.
type ProductOption struct {
	Name    string              `json:"name"`
	Price   decimal.Decimal     `json:"price"`
	TaxRate decimal.NullDecimal `json:"taxRate"`
}

// Option returns the named option, if the product offers it.
func (p Product) Option(name string) (ProductOption, bool) {
	for _, o := range p.Options {
		if strings.EqualFold(o.Name, name) {
			return o, true
		}
	}
	return ProductOption{}, false
}
