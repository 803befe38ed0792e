package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PlaceholderUnitPrice is the unit price given to rows converted from a
// document that carries no pricing (delivery note → invoice). It is a stand-in
// until rows can be priced from the catalog; the server may override it.
var PlaceholderUnitPrice = decimal.NewFromInt(100)

// itemFields are the names under which any document may carry its line items,
// in precedence order. The first non-empty one wins.
var itemFields = []string{"items", "articles", "products"}

// sourceAdapter describes how one document type exposes its line items: the
// field names it may use, in precedence order, and whether its rows carry prices.
type sourceAdapter struct {
	fields []string
	priced bool
}

// sourceAdapters is the explicit table of known item layouts. A document that
// exposes none of its type's fields is a DataShapeError, never a silent guess.
var sourceAdapters = map[DocumentType]sourceAdapter{
	DocumentTypeQuote:          {fields: itemFields, priced: true},
	DocumentTypeInvoice:        {fields: itemFields, priced: true},
	DocumentTypeDeliveryNote:   {fields: itemFields, priced: false},
	DocumentTypePaymentReceipt: {fields: itemFields, priced: true},
}

// conversions lists the supported source → target pairs.
var conversions = map[DocumentType][]DocumentType{
	DocumentTypeQuote:        {DocumentTypeInvoice},
	DocumentTypeInvoice:      {DocumentTypeDeliveryNote},
	DocumentTypeDeliveryNote: {DocumentTypeInvoice},
}

// CanConvert reports whether documents of type from can be converted into to.
func CanConvert(from, to DocumentType) bool {
	for _, t := range conversions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Conversion is the outcome of Convert: the repriced target payload and the
// sources whose items could not be located.
type Conversion struct {
	Target  *Document
	Skipped []*DataShapeError
}

// Convert builds the creation payload of a targetType document from the
// selected sources.
//
// Items are concatenated in selection order. Client identity, category and tax
// rate come from the first source only, even when later sources name a
// different client. The payload is rejected when no line item was found.
func Convert(caller Caller, sources []Document, sourceType, targetType DocumentType, now time.Time) (*Conversion, error) {
	if len(sources) == 0 {
		return nil, &ValidationError{Field: "sources", Err: ErrNoSources}
	}
	if !CanConvert(sourceType, targetType) {
		return nil, &ValidationError{Field: "target", Err: ErrUnsupportedConversion, Details: fmt.Sprintf("%s → %s", sourceType, targetType)}
	}

	targetPriced := sourceAdapters[targetType].priced
	sourcePriced := sourceAdapters[sourceType].priced

	var (
		items   []LineItem
		ids     []string
		skipped []*DataShapeError
	)
	for _, src := range sources {
		if src.Type != "" && src.Type != sourceType {
			return nil, &ValidationError{Field: "sources", Err: ErrMixedSourceTypes, Details: fmt.Sprintf("%s is a %s", src.ID, src.Type)}
		}
		if !ConvertibleFrom(sourceType, src.Status) {
			return nil, &ValidationError{Field: "sources", Err: ErrSourceNotEligible, Details: fmt.Sprintf("%s %s is %s", sourceType, src.ID, src.Status)}
		}
		ids = append(ids, src.ID)

		found, err := sourceItems(src, sourceType)
		if err != nil {
			if shapeErr, ok := err.(*DataShapeError); ok {
				skipped = append(skipped, shapeErr)
				continue
			}
			return nil, &ValidationError{Field: "items", Err: err, Details: src.ID}
		}
		for _, item := range found {
			items = append(items, shapeForTarget(item, sourcePriced, targetPriced))
		}
	}

	if len(items) == 0 {
		details := ""
		if len(skipped) > 0 {
			msgs := make([]string, len(skipped))
			for i, s := range skipped {
				msgs[i] = s.Error()
			}
			details = strings.Join(msgs, "; ")
		}
		return nil, &ValidationError{Field: "items", Err: ErrNoLineItems, Details: details}
	}

	first := sources[0]
	target := &Document{
		Type:      targetType,
		Category:  first.Category,
		Client:    first.Client,
		Items:     items,
		TaxRate:   first.TaxRate,
		Status:    InitialStatus(targetType),
		Lineage:   &Lineage{SourceType: sourceType, SourceIDs: ids},
		CreatedBy: caller.UserID,
	}
	if !target.Category.Valid() {
		target.Category = ClientIndividual
	}
	target.touch(now)
	target.Recompute()

	if err := target.Validate(); err != nil {
		return nil, err
	}
	return &Conversion{Target: target, Skipped: skipped}, nil
}

// sourceItems locates and normalises the line items of doc using the adapter
// of docType. Documents built in memory already hold canonical items.
func sourceItems(doc Document, docType DocumentType) ([]LineItem, error) {
	adapter, ok := sourceAdapters[docType]
	if !ok {
		return nil, &ValidationError{Field: "type", Err: ErrUnknownDocumentType, Details: string(docType)}
	}
	if doc.rawItems == nil {
		out := make([]LineItem, len(doc.Items))
		copy(out, doc.Items)
		return out, nil
	}

	seen := false
	for _, field := range adapter.fields {
		raw, present := doc.rawItems[field]
		if !present {
			continue
		}
		seen = true
		var rows []rawLine
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("failed to decode %q of %s %s: %w", field, docType, doc.ID, err)
		}
		if len(rows) == 0 {
			continue
		}
		items := make([]LineItem, len(rows))
		for i, row := range rows {
			items[i] = row.normalize(adapter.priced)
		}
		return items, nil
	}
	if !seen {
		return nil, &DataShapeError{DocumentID: doc.ID, Type: docType, Fields: adapter.fields}
	}
	return nil, nil
}

// DefaultType sets the type of a document decoded without one and re-reads its
// items through that type's adapter. Documents that carry a type are untouched.
func (d *Document) DefaultType(t DocumentType) {
	if d.Type != "" {
		return
	}
	d.Type = t
	if d.rawItems == nil {
		return
	}
	if items, err := sourceItems(*d, t); err == nil {
		d.Items = items
	}
	if d.Status == "" {
		d.Status = InitialStatus(t)
	}
	d.Recompute()
}

// shapeForTarget fills what the target needs and the source lacks: priced
// targets get the placeholder price for rows from unpriced sources; unpriced
// targets drop pricing entirely.
func shapeForTarget(item LineItem, sourcePriced, targetPriced bool) LineItem {
	switch {
	case targetPriced && !sourcePriced:
		item.BasePrice = PlaceholderUnitPrice
		item.OptionPrice = decimal.Zero
		item.Discount = decimal.Zero
	case !targetPriced:
		item.BasePrice = decimal.Zero
		item.OptionPrice = decimal.Zero
		item.Discount = decimal.Zero
		item.TaxRate = decimal.NullDecimal{}
		item.OptionTaxRate = decimal.NullDecimal{}
	}
	item.Sanitize()
	return item
}

// rawLine accepts the field spellings found across document types.
type rawLine struct {
	ProductID     string      `json:"productId"`
	Quantity      flexDecimal `json:"quantity"`
	Quantite      flexDecimal `json:"quantite"`
	Qty           flexDecimal `json:"qty"`
	Description   string      `json:"description"`
	Designation   string      `json:"designation"`
	Name          string      `json:"name"`
	Ref           string      `json:"ref"`
	Reference     string      `json:"reference"`
	Color         string      `json:"color"`
	Couleur       string      `json:"couleur"`
	UnitPrice     flexDecimal `json:"unitPrice"`
	PrixUnitaire  flexDecimal `json:"prixUnitaire"`
	Price         flexDecimal `json:"price"`
	Option        string      `json:"option"`
	OptionPrice   flexDecimal `json:"optionPrice"`
	Discount      flexDecimal `json:"discount"`
	Remise        flexDecimal `json:"remise"`
	TaxRate       flexDecimal `json:"taxRate"`
	TVA           flexDecimal `json:"tva"`
	OptionTaxRate flexDecimal `json:"optionTaxRate"`
}

func (r rawLine) normalize(priced bool) LineItem {
	item := LineItem{
		ProductID:   r.ProductID,
		Quantity:    quantityOf(firstSet(r.Quantity, r.Quantite, r.Qty)),
		Description: firstNonEmpty(r.Description, r.Designation, r.Name),
		Ref:         firstNonEmpty(r.Ref, r.Reference),
		Color:       firstNonEmpty(r.Color, r.Couleur),
		OptionName:  r.Option,
	}
	if priced {
		item.BasePrice = firstSet(r.UnitPrice, r.PrixUnitaire, r.Price).Decimal
		item.OptionPrice = r.OptionPrice.Decimal
		item.Discount = firstSet(r.Discount, r.Remise).Decimal
		item.TaxRate = firstSet(r.TaxRate, r.TVA).NullDecimal
		item.OptionTaxRate = r.OptionTaxRate.NullDecimal
	}
	item.Sanitize()
	return item
}

// quantityOf keeps positive whole quantities and maps anything else to 1.
func quantityOf(v flexDecimal) int {
	if !v.Valid || !v.Decimal.IsInteger() || !v.Decimal.IsPositive() {
		return 1
	}
	return int(v.Decimal.IntPart())
}

func firstSet(values ...flexDecimal) flexDecimal {
	for _, v := range values {
		if v.Valid {
			return v
		}
	}
	return flexDecimal{}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// flexDecimal decodes numbers, numeric strings (comma or dot decimals), empty
// strings and null. Anything unparseable is treated as unset.
type flexDecimal struct {
	decimal.NullDecimal
}

func (f *flexDecimal) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		f.NullDecimal = decimal.NullDecimal{}
		return nil
	}
	s = strings.Trim(s, `"`)
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		f.NullDecimal = decimal.NullDecimal{}
		return nil
	}
	f.NullDecimal = decimal.NewNullDecimal(d)
	return nil
}
