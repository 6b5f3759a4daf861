// Package pricing holds the money arithmetic shared by checkout and order
// placement. Amounts are rounded to currency minor units (two decimal places).
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const minorUnitPlaces = 2

var hundred = decimal.NewFromInt(100)

type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

func Subtotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(LineTotal(l.UnitPrice, l.Quantity))
	}
	return total
}

// ApplyDiscount returns total × (1 − percent/100) rounded to minor units.
func ApplyDiscount(total decimal.Decimal, percent int) (decimal.Decimal, error) {
	if err := ValidatePercent(percent, true); err != nil {
		return decimal.Zero, err
	}
	if percent == 0 {
		return total.Round(minorUnitPlaces), nil
	}

	factor := hundred.Sub(decimal.NewFromInt(int64(percent))).Div(hundred)
	return total.Mul(factor).Round(minorUnitPlaces), nil
}

// ValidatePercent accepts 1..100, and 0 as well when allowZero is set.
func ValidatePercent(percent int, allowZero bool) error {
	if allowZero && percent == 0 {
		return nil
	}
	if percent < 1 || percent > 100 {
		return fmt.Errorf("discount percent %d out of range 1-100", percent)
	}
	return nil
}
