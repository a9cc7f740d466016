package estimate

import "github.com/shopspring/decimal"

// LineItem prices are minor units; TotalCost is always recomputed
// server-side, never trusted from the caller.
type LineItem struct {
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Quantity    int    `json:"quantity"`
	UnitCost    int64  `json:"unitCost"`
	TotalCost   int64  `json:"totalCost"`
}

func LineTotal(quantity int, unitCost int64) int64 {
	return decimal.NewFromInt(int64(quantity)).
		Mul(decimal.NewFromInt(unitCost)).
		IntPart()
}

// Totals fills each line's TotalCost and returns subtotal, tax and
// grand total. taxRateBps is the tax rate in basis points (1900 = 19%);
// tax rounds half up to a whole minor unit.
func Totals(lines []LineItem, taxRateBps int64) (subtotal, tax, total int64) {
	sub := decimal.Zero
	for i := range lines {
		lines[i].TotalCost = LineTotal(lines[i].Quantity, lines[i].UnitCost)
		sub = sub.Add(decimal.NewFromInt(lines[i].TotalCost))
	}
	taxD := sub.Mul(decimal.NewFromInt(taxRateBps)).Div(decimal.NewFromInt(10000)).Round(0)
	subtotal = sub.IntPart()
	tax = taxD.IntPart()
	total = sub.Add(taxD).IntPart()
	return subtotal, tax, total
}
