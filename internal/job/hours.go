package job

import (
	"time"

	"github.com/shopspring/decimal"
)

// ActualHours computes the elapsed working time of a job in hours,
// rounded to two decimal places. Negative spans clamp to zero rather
// than producing a nonsense negative bill.
func ActualHours(start, end time.Time) decimal.Decimal {
	if !end.After(start) {
		return decimal.Zero
	}
	seconds := decimal.NewFromInt(int64(end.Sub(start) / time.Second))
	return seconds.Div(decimal.NewFromInt(3600)).Round(2)
}

// LaborCost prices hours against an hourly rate in minor currency
// units, rounding to a whole minor unit.
func LaborCost(hours decimal.Decimal, ratePerHour int64) int64 {
	return hours.Mul(decimal.NewFromInt(ratePerHour)).Round(0).IntPart()
}
