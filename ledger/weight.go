package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/ourfinance/ast"
)

// weight is the contribution of a posting to its transaction's balance.
type weight struct {
	Amount   decimal.Decimal
	Currency string
}

// parseAmount converts an ast amount to a decimal.
func parseAmount(amount *ast.Amount) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(amount.Value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", amount.Value, err)
	}
	return d, nil
}

// postingWeight computes the balancing weight of a posting with an amount.
// When a cost is given only the cost counts; a price applies otherwise.
//
//	10 HOOL {518.73 USD}    → 5187.30 USD
//	10 HOOL {{5187.30 USD}} → 5187.30 USD
//	-100 EUR @ 1.10 USD     → -110.00 USD
//	-100 EUR @@ 110 USD     → -110 USD
//	100 USD                 → 100 USD
//
// ok is false for postings whose weight cannot be known, such as an empty
// cost "{}" that relies on lot booking.
func postingWeight(posting *ast.Posting, units decimal.Decimal) (w weight, ok bool, err error) {
	if cost := posting.Cost; cost != nil && cost.Amount != nil {
		costAmount, err := parseAmount(cost.Amount)
		if err != nil {
			return weight{}, false, err
		}
		if cost.IsTotal {
			if units.IsNegative() {
				costAmount = costAmount.Neg()
			}
			return weight{Amount: costAmount, Currency: cost.Amount.Currency}, true, nil
		}
		return weight{Amount: units.Mul(costAmount), Currency: cost.Amount.Currency}, true, nil
	}

	if posting.Cost != nil {
		return weight{}, false, nil
	}

	if posting.Price != nil {
		price, err := parseAmount(posting.Price)
		if err != nil {
			return weight{}, false, err
		}
		if posting.PriceTotal {
			if units.IsNegative() {
				price = price.Neg()
			}
			return weight{Amount: price, Currency: posting.Price.Currency}, true, nil
		}
		return weight{Amount: units.Mul(price), Currency: posting.Price.Currency}, true, nil
	}

	return weight{Amount: units, Currency: posting.Amount.Currency}, true, nil
}
