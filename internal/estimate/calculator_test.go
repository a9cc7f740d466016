package estimate

import "testing"

func TestTotals_FillsLineTotals(t *testing.T) {
	lines := []LineItem{
		{Description: "Brake pads", Quantity: 2, UnitCost: 8950},
		{Description: "Labor", Quantity: 1, UnitCost: 12000},
	}
	sub, tax, total := Totals(lines, 0)
	if lines[0].TotalCost != 17900 {
		t.Fatalf("line total = %d, want 17900", lines[0].TotalCost)
	}
	if sub != 29900 || tax != 0 || total != 29900 {
		t.Fatalf("got sub=%d tax=%d total=%d", sub, tax, total)
	}
}

func TestTotals_TaxRoundsHalfUp(t *testing.T) {
	// 19% of 10005 = 1900.95, rounds to 1901.
	lines := []LineItem{{Quantity: 1, UnitCost: 10005}}
	sub, tax, total := Totals(lines, 1900)
	if sub != 10005 {
		t.Fatalf("subtotal = %d, want 10005", sub)
	}
	if tax != 1901 {
		t.Fatalf("tax = %d, want 1901", tax)
	}
	if total != 11906 {
		t.Fatalf("total = %d, want 11906", total)
	}
}

func TestTotals_IgnoresCallerSuppliedLineTotals(t *testing.T) {
	lines := []LineItem{{Quantity: 3, UnitCost: 1000, TotalCost: 1}}
	sub, _, _ := Totals(lines, 0)
	if lines[0].TotalCost != 3000 || sub != 3000 {
		t.Fatalf("line total = %d, sub = %d; want 3000/3000", lines[0].TotalCost, sub)
	}
}

func TestTotals_Empty(t *testing.T) {
	sub, tax, total := Totals(nil, 1900)
	if sub != 0 || tax != 0 || total != 0 {
		t.Fatalf("got sub=%d tax=%d total=%d, want zeros", sub, tax, total)
	}
}

func TestCanTransition(t *testing.T) {
	legal := [][2]Status{
		{StatusDraft, StatusPending},
		{StatusPending, StatusApproved},
		{StatusPending, StatusRejected},
		{StatusPending, StatusExpired},
	}
	for _, e := range legal {
		if !CanTransition(e[0], e[1]) {
			t.Errorf("%s -> %s should be legal", e[0], e[1])
		}
	}
	illegal := [][2]Status{
		{StatusDraft, StatusApproved},
		{StatusApproved, StatusRejected},
		{StatusExpired, StatusPending},
		{StatusRejected, StatusPending},
	}
	for _, e := range illegal {
		if CanTransition(e[0], e[1]) {
			t.Errorf("%s -> %s should be illegal", e[0], e[1])
		}
	}
}
