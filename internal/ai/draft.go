package ai

import (
	"fmt"
	"strings"

	"docflow/internal/core"

	"github.com/shopspring/decimal"
)

// DraftProposal is the structured answer requested from the model. Amounts are
// strings so the model never rounds them through a float.
type DraftProposal struct {
	ClientName     string      `json:"client_name" jsonschema_description:"Client or company name, empty when not given"`
	ClientCategory string      `json:"client_category" jsonschema:"enum=individual,enum=business"`
	TaxRate        string      `json:"tax_rate" jsonschema_description:"VAT percentage, e.g. 20"`
	Lines          []DraftLine `json:"lines"`
	Notes          string      `json:"notes"`
	Confidence     float64     `json:"confidence"`
	Reasoning      string      `json:"reasoning"`
}

type DraftLine struct {
	Description     string `json:"description"`
	Quantity        int    `json:"quantity"`
	UnitPrice       string `json:"unit_price"`
	DiscountPercent string `json:"discount_percent"`
	Option          string `json:"option"`
	OptionPrice     string `json:"option_price"`
}

// Normalize trims text and fills blank amounts with zero.
func (p *DraftProposal) Normalize() {
	p.ClientName = strings.TrimSpace(p.ClientName)
	p.ClientCategory = strings.ToLower(strings.TrimSpace(p.ClientCategory))
	p.TaxRate = normalizeAmount(p.TaxRate)
	for i := range p.Lines {
		l := &p.Lines[i]
		l.Description = strings.TrimSpace(l.Description)
		l.Option = strings.TrimSpace(l.Option)
		l.UnitPrice = normalizeAmount(l.UnitPrice)
		l.DiscountPercent = normalizeAmount(l.DiscountPercent)
		l.OptionPrice = normalizeAmount(l.OptionPrice)
	}
}

func normalizeAmount(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSuffix(s, "€")
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return "0"
	}
	return s
}

func (p *DraftProposal) Validate() error {
	if !core.ClientCategory(p.ClientCategory).Valid() {
		return fmt.Errorf("client_category must be individual or business, got %q", p.ClientCategory)
	}
	if len(p.Lines) == 0 {
		return fmt.Errorf("draft must have at least one line")
	}
	if _, err := decimal.NewFromString(p.TaxRate); err != nil {
		return fmt.Errorf("invalid tax_rate %q", p.TaxRate)
	}
	for i, l := range p.Lines {
		if l.Description == "" {
			return fmt.Errorf("line %d: description is required", i+1)
		}
		for name, v := range map[string]string{"unit_price": l.UnitPrice, "discount_percent": l.DiscountPercent, "option_price": l.OptionPrice} {
			if _, err := decimal.NewFromString(v); err != nil {
				return fmt.Errorf("line %d: invalid %s %q", i+1, name, v)
			}
		}
	}
	return nil
}

// ToDocument builds the unsaved, priced draft. Quantities and discounts go
// through the same sanitising as user input.
func (p *DraftProposal) ToDocument(docType core.DocumentType) *core.Document {
	doc := core.NewDraft(docType, core.ClientCategory(p.ClientCategory))
	doc.Client.Name = p.ClientName
	doc.Notes = p.Notes
	doc.Items = doc.Items[:0]
	for _, l := range p.Lines {
		doc.Items = append(doc.Items, core.LineItem{
			Quantity:    l.Quantity,
			Description: l.Description,
			BasePrice:   decimal.RequireFromString(l.UnitPrice),
			Discount:    decimal.RequireFromString(l.DiscountPercent),
			OptionName:  l.Option,
			OptionPrice: decimal.RequireFromString(l.OptionPrice),
		})
	}
	doc.SetTaxRate(decimal.RequireFromString(p.TaxRate))
	return doc
}
