package ai

import (
	"testing"

	"docflow/internal/core"
)

func TestParseDraft(t *testing.T) {
	content := `{
		"client_name": " SARL Dupont ",
		"client_category": "Business",
		"tax_rate": "20 %",
		"lines": [
			{"description": "Fenêtre PVC", "quantity": 2, "unit_price": "450,00", "discount_percent": "", "option": "Pose", "option_price": "80"},
			{"description": "Volet roulant", "quantity": 0, "unit_price": "300", "discount_percent": "150", "option": "", "option_price": ""}
		],
		"notes": "", "confidence": 0.9, "reasoning": "SARL is a company"
	}`

	proposal, err := ParseDraft([]byte(content))
	if err != nil {
		t.Fatalf("ParseDraft: %v", err)
	}
	if proposal.ClientName != "SARL Dupont" || proposal.ClientCategory != "business" {
		t.Errorf("client = %q / %q", proposal.ClientName, proposal.ClientCategory)
	}

	doc := proposal.ToDocument(core.DocumentTypeQuote)
	if len(doc.Items) != 2 || doc.Status != core.StatusDraft {
		t.Fatalf("doc = %+v", doc)
	}
	// line 2 is sanitised: qty 1, discount 100 %
	// HT = 2×(450+80) + 0 = 1060, TVA 20 %
	if got := doc.Totals.TotalExclTax.String(); got != "1060" {
		t.Errorf("TotalExclTax = %s, want 1060", got)
	}
	if got := doc.Totals.FinalAmount.String(); got != "1272" {
		t.Errorf("FinalAmount = %s, want 1272", got)
	}
}

func TestParseDraft_Rejects(t *testing.T) {
	tests := map[string]string{
		"bad category": `{"client_category": "vip", "tax_rate": "0", "lines": [{"description": "x", "quantity": 1, "unit_price": "1"}]}`,
		"no lines":     `{"client_category": "individual", "tax_rate": "0", "lines": []}`,
		"bad price":    `{"client_category": "individual", "tax_rate": "0", "lines": [{"description": "x", "quantity": 1, "unit_price": "cheap"}]}`,
		"not json":     `sorry, I cannot help`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseDraft([]byte(content)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestDraftSchema_IsStrict(t *testing.T) {
	schema, err := draftSchema()
	if err != nil {
		t.Fatalf("draftSchema: %v", err)
	}
	if schema["additionalProperties"] != false {
		t.Errorf("additionalProperties = %v, want false", schema["additionalProperties"])
	}
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("schema has no properties: %v", schema)
	}
	for _, key := range []string{"client_name", "client_category", "tax_rate", "lines", "confidence"} {
		if _, ok := props[key]; !ok {
			t.Errorf("schema is missing %q", key)
		}
	}
	required, _ := schema["required"].([]any)
	if len(required) != len(props) {
		t.Errorf("required = %v, want every property for strict mode", required)
	}
}
