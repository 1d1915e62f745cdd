// Package calc computes loan totals under the product's simple (flat)
// interest rules: interest is charged once on the principal and does not
// depend on the term length or compound over time.
package calc

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidPrincipal = errors.New("principal must be positive")
	ErrNegativeRate     = errors.New("interest rate cannot be negative")
	ErrInvalidTerm      = errors.New("term count must be a positive integer")
)

var hundred = decimal.NewFromInt(100)

// Totals is the result of a loan computation. InstallmentAmount is the exact
// per-installment quotient before any currency rounding; rounding is a
// schedule concern, not a calculator one.
type Totals struct {
	Interest          decimal.Decimal
	Total             decimal.Decimal
	InstallmentAmount decimal.Decimal
}

// Compute derives interest, total and per-installment amounts from principal,
// rate (percent) and term count. Pure function, no side effects.
func Compute(principal, rate decimal.Decimal, termCount int) (Totals, error) {
	if principal.LessThanOrEqual(decimal.Zero) {
		return Totals{}, ErrInvalidPrincipal
	}
	if rate.IsNegative() {
		return Totals{}, ErrNegativeRate
	}
	if termCount <= 0 {
		return Totals{}, ErrInvalidTerm
	}

	interest := principal.Mul(rate).Div(hundred)
	total := principal.Add(interest)
	return Totals{
		Interest:          interest,
		Total:             total,
		InstallmentAmount: total.Div(decimal.NewFromInt(int64(termCount))),
	}, nil
}
