package core

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Sanitize clamps user input into the ranges the pricer accepts:
// quantity ≥ 1, discount in [0,100], prices and tax rates ≥ 0.
// A zero price is valid.
func (li *LineItem) Sanitize() {
	if li.Quantity < 1 {
		li.Quantity = 1
	}
	li.Discount = clamp(li.Discount, decimal.Zero, hundred)
	li.BasePrice = nonNegative(li.BasePrice)
	li.OptionPrice = nonNegative(li.OptionPrice)
	if li.TaxRate.Valid {
		li.TaxRate.Decimal = nonNegative(li.TaxRate.Decimal)
	}
	if li.OptionTaxRate.Valid {
		li.OptionTaxRate.Decimal = nonNegative(li.OptionTaxRate.Decimal)
	}
}

// EffectiveTaxRates returns the base and option tax rates that apply to the
// line given the document default rate.
func (li LineItem) EffectiveTaxRates(defaultRate decimal.Decimal) (base, option decimal.Decimal) {
	base = nonNegative(defaultRate)
	if li.TaxRate.Valid {
		base = li.TaxRate.Decimal
	}
	option = base
	if li.OptionTaxRate.Valid {
		option = li.OptionTaxRate.Decimal
	}
	return base, option
}

// PriceLine computes one line's contribution. The discount applies to the base
// price only, never to the option price. Tax is only levied for business
// clients and is never folded into the line total.
func PriceLine(item LineItem, category ClientCategory, defaultTaxRate decimal.Decimal) LinePrice {
	item.Sanitize()

	qty := decimal.NewFromInt(int64(item.Quantity))
	discountRatio := item.Discount.Div(hundred)
	discountedBase := item.BasePrice.Mul(decimal.NewFromInt(1).Sub(discountRatio))

	lp := LinePrice{
		Subtotal: qty.Mul(item.BasePrice.Add(item.OptionPrice)),
		Discount: qty.Mul(item.BasePrice).Mul(discountRatio),
		Tax:      decimal.Zero,
		Total:    qty.Mul(discountedBase.Add(item.OptionPrice)),
	}

	if category == ClientBusiness {
		baseRate, optionRate := item.EffectiveTaxRates(defaultTaxRate)
		baseTax := qty.Mul(discountedBase).Mul(baseRate).Div(hundred)
		optionTax := qty.Mul(item.OptionPrice).Mul(optionRate).Div(hundred)
		lp.Tax = baseTax.Add(optionTax)
	}
	return lp
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}

func nonNegative(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}
