package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/ourfinance/ast"
)

// Tolerance decides how far a transaction's residual may drift from zero
// before it is reported as unbalanced.
//
// The tolerance of a currency is inferred from the most precise amount in
// that currency: multiplier × 10^-decimals, so 0.005 for an amount written
// with two decimals. Integer amounts infer no tolerance and fall back to the
// configured default.
//
//	option "inferred_tolerance_default" "*:0.005"
//	option "inferred_tolerance_default" "JPY:1"
//	option "inferred_tolerance_multiplier" "0.6"
type Tolerance struct {
	defaults   map[string]decimal.Decimal
	multiplier decimal.Decimal
}

// NewTolerance returns the default tolerance: a 0.5 multiplier and no
// per-currency defaults.
func NewTolerance() *Tolerance {
	return &Tolerance{
		defaults:   make(map[string]decimal.Decimal),
		multiplier: decimal.NewFromFloat(0.5),
	}
}

// toleranceFromOptions reads the tolerance options of tree. Malformed values
// are skipped and returned as warnings.
func toleranceFromOptions(tree *ast.AST) (*Tolerance, []error) {
	tol := NewTolerance()
	var warnings []error

	for _, opt := range tree.Options {
		switch opt.Name {
		case "inferred_tolerance_multiplier", "tolerance_multiplier":
			multiplier, err := decimal.NewFromString(strings.TrimSpace(opt.Value))
			if err != nil || !multiplier.IsPositive() {
				warnings = append(warnings, &InvalidOptionError{
					Pos: opt.Pos, Name: opt.Name, Value: opt.Value,
					Reason: "expected a positive number",
				})
				continue
			}
			tol.multiplier = multiplier

		case "inferred_tolerance_default":
			currency, value, err := parseToleranceDefault(opt.Value)
			if err != nil {
				warnings = append(warnings, &InvalidOptionError{
					Pos: opt.Pos, Name: opt.Name, Value: opt.Value, Reason: err.Error(),
				})
				continue
			}
			tol.defaults[currency] = value
		}
	}

	return tol, warnings
}

func parseToleranceDefault(value string) (string, decimal.Decimal, error) {
	currency, amount, ok := strings.Cut(value, ":")
	if !ok {
		return "", decimal.Zero, fmt.Errorf("expected CURRENCY:TOLERANCE")
	}
	currency = strings.TrimSpace(currency)
	if currency == "" {
		return "", decimal.Zero, fmt.Errorf("missing currency")
	}
	tol, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil || tol.IsNegative() {
		return "", decimal.Zero, fmt.Errorf("tolerance must be a non-negative number")
	}
	return currency, tol, nil
}

// Default returns the configured tolerance for currency, falling back to the
// "*" wildcard and then to zero.
func (t *Tolerance) Default(currency string) decimal.Decimal {
	if tol, ok := t.defaults[currency]; ok {
		return tol
	}
	if tol, ok := t.defaults["*"]; ok {
		return tol
	}
	return decimal.Zero
}

// Infer returns the tolerance implied by a single amount as written.
func (t *Tolerance) Infer(amount decimal.Decimal) decimal.Decimal {
	exp := amount.Exponent()
	if exp >= 0 {
		return decimal.Zero
	}
	return decimal.New(1, exp).Mul(t.multiplier)
}

// toleranceSet accumulates the tolerance per currency over the amounts of
// one transaction.
type toleranceSet struct {
	config *Tolerance
	values map[string]decimal.Decimal
}

func (t *Tolerance) newSet() *toleranceSet {
	return &toleranceSet{config: t, values: make(map[string]decimal.Decimal)}
}

func (s *toleranceSet) observe(amount decimal.Decimal, currency string) {
	inferred := s.config.Infer(amount)
	if current, ok := s.values[currency]; !ok || inferred.GreaterThan(current) {
		s.values[currency] = inferred
	}
}

func (s *toleranceSet) get(currency string) decimal.Decimal {
	return decimal.Max(s.values[currency], s.config.Default(currency))
}

// exceeds reports whether residual is outside tolerance for currency.
func (s *toleranceSet) exceeds(residual decimal.Decimal, currency string) bool {
	return residual.Abs().GreaterThan(s.get(currency))
}
