package reconciliation

import (
	"github.com/shopspring/decimal"
)

// ToCents rounds to two decimals and returns the integer number of cents.
func ToCents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

// FromCents converts integer cents back to a two-decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// SplitCents divides total into count parts at cent granularity. The first
// total%count parts carry one extra cent, so the parts always sum to total.
func SplitCents(total decimal.Decimal, count int) []decimal.Decimal {
	if count <= 0 {
		return nil
	}
	cents := ToCents(total)
	base := cents / int64(count)
	remainder := cents - base*int64(count)

	parts := make([]decimal.Decimal, count)
	for i := range parts {
		c := base
		if int64(i) < remainder {
			c++
		}
		parts[i] = FromCents(c)
	}
	return parts
}

// Sum adds installment-sized amounts.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
