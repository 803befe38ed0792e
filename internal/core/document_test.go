package core_test

import (
	"errors"
	"math/rand"
	"testing"

	"docflow/internal/core"

	"github.com/shopspring/decimal"
)

func TestComputeTotals_Scenarios(t *testing.T) {
	t.Run("individual client", func(t *testing.T) {
		items := []core.LineItem{{Quantity: 2, BasePrice: dec("100"), Discount: dec("10")}}
		totals := core.ComputeTotals(items, core.ClientIndividual, dec("20"))

		if !totals.TotalDiscount.Equal(dec("20")) {
			t.Errorf("TotalDiscount = %s, want 20", totals.TotalDiscount)
		}
		if !totals.FinalAmount.Equal(dec("180")) {
			t.Errorf("FinalAmount = %s, want 180", totals.FinalAmount)
		}
		if !totals.TaxAmount.IsZero() {
			t.Errorf("TaxAmount = %s, want 0", totals.TaxAmount)
		}
	})

	t.Run("business client", func(t *testing.T) {
		items := []core.LineItem{{Quantity: 1, BasePrice: dec("1000"), OptionPrice: dec("200")}}
		totals := core.ComputeTotals(items, core.ClientBusiness, dec("19"))

		if !totals.TaxAmount.Equal(dec("228")) {
			t.Errorf("TaxAmount = %s, want 228", totals.TaxAmount)
		}
		if !totals.TotalExclTax.Equal(dec("1200")) {
			t.Errorf("TotalExclTax = %s, want 1200", totals.TotalExclTax)
		}
		if !totals.TotalInclTax.Equal(dec("1428")) || !totals.FinalAmount.Equal(dec("1428")) {
			t.Errorf("TotalInclTax = %s, FinalAmount = %s, want 1428", totals.TotalInclTax, totals.FinalAmount)
		}
	})
}

func TestComputeTotals_Invariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		n := rng.Intn(6)
		items := make([]core.LineItem, n)
		for j := range items {
			items[j] = core.LineItem{
				Quantity:    rng.Intn(10) + 1,
				BasePrice:   decimal.New(rng.Int63n(100000), -2),
				OptionPrice: decimal.New(rng.Int63n(5000), -2),
				Discount:    decimal.NewFromInt(rng.Int63n(101)),
			}
			if rng.Intn(2) == 0 {
				items[j].TaxRate = decimal.NewNullDecimal(decimal.NewFromInt(rng.Int63n(25)))
			}
		}
		docRate := decimal.NewFromInt(rng.Int63n(25))

		ind := core.ComputeTotals(items, core.ClientIndividual, docRate)
		if !ind.TotalExclTax.Equal(ind.Subtotal.Sub(ind.TotalDiscount)) {
			t.Fatalf("case %d: individual TotalExclTax %s != Subtotal − TotalDiscount", i, ind.TotalExclTax)
		}
		if !ind.TaxAmount.IsZero() || !ind.FinalAmount.Equal(ind.TotalExclTax) {
			t.Fatalf("case %d: individual tax %s final %s", i, ind.TaxAmount, ind.FinalAmount)
		}

		biz := core.ComputeTotals(items, core.ClientBusiness, docRate)
		lineTax := decimal.Zero
		for _, item := range items {
			lineTax = lineTax.Add(core.PriceLine(item, core.ClientBusiness, docRate).Tax)
		}
		if !biz.TotalExclTax.Equal(biz.Subtotal.Sub(biz.TotalDiscount)) {
			t.Fatalf("case %d: business TotalExclTax %s != Subtotal − TotalDiscount", i, biz.TotalExclTax)
		}
		if !biz.TaxAmount.Equal(lineTax) {
			t.Fatalf("case %d: TaxAmount %s != Σ line tax %s", i, biz.TaxAmount, lineTax)
		}
		if !biz.FinalAmount.Equal(biz.TotalExclTax.Add(biz.TaxAmount)) {
			t.Fatalf("case %d: business FinalAmount %s", i, biz.FinalAmount)
		}
	}
}

func TestDocument_MutatorsRecompute(t *testing.T) {
	doc := core.NewDraft(core.DocumentTypeInvoice, core.ClientIndividual)
	if len(doc.Items) != 1 || doc.Items[0].Quantity != 1 {
		t.Fatalf("draft items = %+v, want one empty line", doc.Items)
	}
	if doc.Status != core.StatusPending {
		t.Errorf("draft status = %s, want pending", doc.Status)
	}

	if err := doc.SetItem(0, core.LineItem{Quantity: 2, BasePrice: dec("50")}); err != nil {
		t.Fatalf("SetItem: %v", err)
	}
	doc.SetTaxRate(dec("20"))
	if !doc.Totals.FinalAmount.Equal(dec("100")) {
		t.Errorf("individual FinalAmount = %s, want 100", doc.Totals.FinalAmount)
	}

	if err := doc.SetCategory(core.ClientBusiness); err != nil {
		t.Fatalf("SetCategory: %v", err)
	}
	if !doc.Totals.FinalAmount.Equal(dec("120")) {
		t.Errorf("business FinalAmount = %s, want 120", doc.Totals.FinalAmount)
	}

	doc.AddItem(core.LineItem{Quantity: 1, BasePrice: dec("10")})
	if !doc.Totals.TotalExclTax.Equal(dec("110")) {
		t.Errorf("TotalExclTax after add = %s, want 110", doc.Totals.TotalExclTax)
	}

	if err := doc.RemoveItem(0); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if !doc.Totals.FinalAmount.Equal(dec("12")) {
		t.Errorf("FinalAmount after remove = %s, want 12", doc.Totals.FinalAmount)
	}

	if err := doc.RemoveItem(5); !errors.Is(err, core.ErrInvalidLineIndex) {
		t.Errorf("RemoveItem(5) error = %v, want ErrInvalidLineIndex", err)
	}
	if err := doc.SetCategory("wholesale"); !errors.Is(err, core.ErrInvalidCategory) {
		t.Errorf("SetCategory(wholesale) error = %v, want ErrInvalidCategory", err)
	}
}

func TestDocument_Validate(t *testing.T) {
	valid := func() *core.Document {
		doc := core.NewDraft(core.DocumentTypeQuote, core.ClientBusiness)
		doc.Client.Name = "Atelier Nord"
		return doc
	}

	tests := []struct {
		name    string
		mutate  func(*core.Document)
		wantErr error
	}{
		{"valid", func(*core.Document) {}, nil},
		{"no items", func(d *core.Document) { d.Items = nil }, core.ErrNoLineItems},
		{"no client", func(d *core.Document) { d.Client.Name = "  " }, core.ErrMissingClient},
		{"bad category", func(d *core.Document) { d.Category = "" }, core.ErrInvalidCategory},
		{"unknown type", func(d *core.Document) { d.Type = "avoir" }, core.ErrUnknownDocumentType},
		{"status of another type", func(d *core.Document) { d.Status = core.StatusDelivered }, core.ErrUnknownStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := valid()
			tt.mutate(doc)
			err := doc.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if !core.IsValidation(err) {
				t.Errorf("error %T is not a ValidationError", err)
			}
		})
	}
}

func TestDocument_ApplyProduct(t *testing.T) {
	product := core.Product{
		ID:        "p-1",
		Name:      "Fenêtre PVC",
		BasePrice: dec("300"),
		TaxRate:   dec("20"),
		Options: []core.ProductOption{
			{Name: "Volet", Price: dec("100"), TaxRate: rate("10")},
			{Name: "Pose", Price: dec("50")},
		},
	}

	doc := core.NewDraft(core.DocumentTypeQuote, core.ClientBusiness)
	if err := doc.ApplyProduct(0, product, "volet"); err != nil {
		t.Fatalf("ApplyProduct: %v", err)
	}
	// 300×0.20 + 100×0.10
	if !doc.Totals.TaxAmount.Equal(dec("70")) {
		t.Errorf("TaxAmount = %s, want 70", doc.Totals.TaxAmount)
	}
	if doc.Items[0].Description != "Fenêtre PVC" || doc.Items[0].OptionName != "Volet" {
		t.Errorf("item = %+v", doc.Items[0])
	}

	if err := doc.ApplyProduct(0, product, "Pose"); err != nil {
		t.Fatalf("ApplyProduct: %v", err)
	}
	// option without its own rate uses the product rate: 300×0.20 + 50×0.20
	if !doc.Totals.TaxAmount.Equal(dec("70")) {
		t.Errorf("TaxAmount = %s, want 70", doc.Totals.TaxAmount)
	}

	if err := doc.ApplyProduct(0, product, "Moustiquaire"); !errors.Is(err, core.ErrUnknownOption) {
		t.Errorf("unknown option error = %v", err)
	}
	if len(product.Options) != 2 || !product.BasePrice.Equal(dec("300")) {
		t.Errorf("product was modified: %+v", product)
	}
}
