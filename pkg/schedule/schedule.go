// Package schedule generates and reconciles installment schedules.
package schedule

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkamanzi/loanbook/pkg/calc"
	"github.com/mkamanzi/loanbook/pkg/models"
)

var (
	ErrInvalidCount = errors.New("installment count must be positive")
	ErrInvalidDates = errors.New("end date must be after start date")
)

// Generate produces an ordered schedule of count installments dividing total.
//
// Due dates advance one calendar month per installment from start (day-of-month
// clamped in shorter months); the final installment's due date is forced to
// end, so the schedule always closes on the user-chosen end date. Every
// installment but the last carries the per-installment amount rounded to the
// nearest whole currency unit; the last absorbs the rounding remainder, so the
// schedule sums to exactly total.
func Generate(start, end models.Date, count int, total decimal.Decimal) ([]*models.Installment, error) {
	if count <= 0 {
		return nil, ErrInvalidCount
	}
	if !end.After(start.Time) {
		return nil, ErrInvalidDates
	}

	per := total.Div(decimal.NewFromInt(int64(count))).Round(0)

	installments := make([]*models.Installment, 0, count)
	allocated := decimal.Zero
	for seq := 1; seq <= count; seq++ {
		due := start.AddMonths(seq)
		amount := per
		if seq == count {
			due = end
			amount = total.Sub(allocated)
		}
		allocated = allocated.Add(amount)

		installments = append(installments, &models.Installment{
			ID:       uuid.New(),
			Sequence: seq,
			DueDate:  due,
			Amount:   amount,
		})
	}
	return installments, nil
}

// Recalculate reassigns every unpaid installment's amount from freshly
// computed totals, leaving paid installments untouched. The last unpaid
// installment absorbs the remainder so that paid amounts plus unpaid amounts
// equal the new total. Idempotent for unchanged inputs.
func Recalculate(installments []*models.Installment, totals calc.Totals) {
	var unpaid []*models.Installment
	paidSum := decimal.Zero
	for _, inst := range installments {
		if inst.Paid {
			paidSum = paidSum.Add(inst.Amount)
		} else {
			unpaid = append(unpaid, inst)
		}
	}
	if len(unpaid) == 0 {
		return
	}

	per := totals.InstallmentAmount.Round(0)
	allocated := paidSum
	for i, inst := range unpaid {
		if i == len(unpaid)-1 {
			inst.Amount = totals.Total.Sub(allocated)
			break
		}
		inst.Amount = per
		allocated = allocated.Add(per)
	}
}
