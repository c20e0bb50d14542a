package enrich

import "github.com/shopspring/decimal"

// TaxRate is the sales tax estimate shown with the cart total.
var TaxRate = decimal.RequireFromString("0.07")

// Summary is the cart footer: item count, subtotal, estimated tax and total.
type Summary struct {
	Items    int             `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Summarize totals r. Tax is rounded to cents.
func Summarize(r Result) Summary {
	items := 0
	for _, l := range r.Lines {
		items += l.Quantity
	}
	tax := r.Total.Mul(TaxRate).Round(2)
	return Summary{
		Items:    items,
		Subtotal: r.Total,
		Tax:      tax,
		Total:    r.Total.Add(tax),
	}
}
