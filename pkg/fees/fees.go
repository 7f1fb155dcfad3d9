package fees

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const bpsDenominator = 10000

// Calculator derives marketplace fees from an order subtotal. Rates are in
// basis points; every intermediate amount rounds half-up to the cent before
// the next step so stored components always sum to the total.
type Calculator struct {
	commissionRate decimal.Decimal
	vatRate        decimal.Decimal
}

// Breakdown is the fee decomposition for one order.
type Breakdown struct {
	SubtotalCents   int64
	CommissionCents int64
	VATCents        int64
	TotalCents      int64
}

// NewCalculator validates the configured rates and builds a Calculator.
func NewCalculator(commissionRateBps, vatRateBps int) (*Calculator, error) {
	if commissionRateBps < 0 || commissionRateBps > bpsDenominator {
		return nil, fmt.Errorf("commission rate must be within [0, %d] bps, got %d", bpsDenominator, commissionRateBps)
	}
	if vatRateBps < 0 || vatRateBps > bpsDenominator {
		return nil, fmt.Errorf("vat rate must be within [0, %d] bps, got %d", bpsDenominator, vatRateBps)
	}
	denom := decimal.NewFromInt(bpsDenominator)
	return &Calculator{
		commissionRate: decimal.NewFromInt(int64(commissionRateBps)).Div(denom),
		vatRate:        decimal.NewFromInt(int64(vatRateBps)).Div(denom),
	}, nil
}

// Calculate returns the commission, the VAT charged on that commission, and
// the buyer-facing total for the given subtotal.
func (c *Calculator) Calculate(subtotalCents int64) (Breakdown, error) {
	if subtotalCents < 0 {
		return Breakdown{}, fmt.Errorf("subtotal must be non-negative, got %d", subtotalCents)
	}

	subtotal := decimal.NewFromInt(subtotalCents)
	commission := subtotal.Mul(c.commissionRate).Round(0)
	vat := commission.Mul(c.vatRate).Round(0)

	breakdown := Breakdown{
		SubtotalCents:   subtotalCents,
		CommissionCents: commission.IntPart(),
		VATCents:        vat.IntPart(),
	}
	breakdown.TotalCents = breakdown.SubtotalCents + breakdown.CommissionCents + breakdown.VATCents
	return breakdown, nil
}
