package binance

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// roundToStep rounds qty down to a whole multiple of the venue's
// quantity step and renders it the way the exchange expects. Rounding
// down never risks more than the engine sized for. A quantity that
// rounds to zero is rejected here rather than bounced by the exchange.
func roundToStep(qty float64, step string) (string, error) {
	stepDec, err := decimal.NewFromString(step)
	if err != nil {
		return "", fmt.Errorf("bad step size %q: %w", step, err)
	}
	if stepDec.IsZero() || stepDec.IsNegative() {
		return "", fmt.Errorf("step size %q not positive", step)
	}

	q := decimal.NewFromFloat(qty)
	rounded := q.Div(stepDec).Floor().Mul(stepDec)
	if rounded.IsZero() || rounded.IsNegative() {
		return "", fmt.Errorf("quantity %g below step %s", qty, step)
	}
	return rounded.String(), nil
}
