package job

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestActualHours_RoundsToTwoPlaces(t *testing.T) {
	start := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(100 * time.Minute)

	got := ActualHours(start, end)
	if want := decimal.RequireFromString("1.67"); !got.Equal(want) {
		t.Fatalf("expected %s hours, got %s", want, got)
	}
}

func TestActualHours_NegativeSpanClampsToZero(t *testing.T) {
	start := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)
	if got := ActualHours(start, start.Add(-time.Hour)); !got.IsZero() {
		t.Fatalf("expected zero, got %s", got)
	}
}

func TestLaborCost_WholeMinorUnits(t *testing.T) {
	// 1.67h at 75.00/h = 125.25
	got := LaborCost(decimal.RequireFromString("1.67"), 7500)
	if got != 12525 {
		t.Fatalf("expected 12525, got %d", got)
	}
}

func TestLaborCost_RoundsHalfUp(t *testing.T) {
	// 0.33h at 99.99/h = 32.9967 -> 33.00
	got := LaborCost(decimal.RequireFromString("0.33"), 9999)
	if got != 3300 {
		t.Fatalf("expected 3300, got %d", got)
	}
}
