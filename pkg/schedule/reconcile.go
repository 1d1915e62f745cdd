package schedule

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/mkamanzi/loanbook/pkg/models"
)

// SkippedEdit records an attempted change to a paid installment that the
// reconciler refused to apply. The persisted version wins; the caller is told
// rather than left guessing.
type SkippedEdit struct {
	InstallmentID uuid.UUID `json:"installment_id"`
	Sequence      int       `json:"sequence"`
	Reason        string    `json:"reason"`
}

// Plan is the set of persistence operations that converge storage to an
// edited schedule. Final is the resulting schedule in sequence order.
type Plan struct {
	Creates []*models.Installment
	Updates []*models.Installment
	Deletes []uuid.UUID
	Skipped []SkippedEdit
	Final   []*models.Installment
}

// Empty reports whether the plan would write anything.
func (p *Plan) Empty() bool {
	return len(p.Creates) == 0 && len(p.Updates) == 0 && len(p.Deletes) == 0
}

// Reconcile diffs the persisted schedule against a user-edited one.
//
// Paid installments are immutable: removing one from the edited list fails
// the whole reconciliation with models.ErrInstallmentPaid (nothing is
// applied), and field edits to one are dropped from the plan and reported in
// Skipped. Unpaid installments are renumbered, in edited order, into the
// sequence slots not occupied by paid installments, ascending from 1, so the
// overall numbering stays contiguous without disturbing paid rows. Entries
// with no persisted counterpart become creates.
func Reconcile(persisted, edited []*models.Installment) (*Plan, error) {
	persistedByID := make(map[uuid.UUID]*models.Installment, len(persisted))
	for _, p := range persisted {
		persistedByID[p.ID] = p
	}

	editedIDs := make(map[uuid.UUID]bool, len(edited))
	for _, e := range edited {
		if e.ID != uuid.Nil {
			editedIDs[e.ID] = true
		}
	}

	paidSeqs := make(map[int]bool)
	for _, p := range persisted {
		if !p.Paid {
			continue
		}
		if !editedIDs[p.ID] {
			return nil, fmt.Errorf("installment %d: %w", p.Sequence, models.ErrInstallmentPaid)
		}
		paidSeqs[p.Sequence] = true
	}

	nextSeq := 0
	nextFree := func() int {
		nextSeq++
		for paidSeqs[nextSeq] {
			nextSeq++
		}
		return nextSeq
	}

	plan := &Plan{}
	for _, e := range edited {
		p, exists := persistedByID[e.ID]
		if !exists {
			created := &models.Installment{
				ID:       uuid.New(),
				LoanID:   e.LoanID,
				Sequence: nextFree(),
				DueDate:  e.DueDate,
				Amount:   e.Amount,
			}
			plan.Creates = append(plan.Creates, created)
			plan.Final = append(plan.Final, created)
			continue
		}

		if p.Paid {
			if !e.Amount.Equal(p.Amount) || !e.DueDate.Equal(p.DueDate.Time) || e.Sequence != p.Sequence {
				plan.Skipped = append(plan.Skipped, SkippedEdit{
					InstallmentID: p.ID,
					Sequence:      p.Sequence,
					Reason:        models.ErrInstallmentPaid.Error(),
				})
			}
			kept := *p
			plan.Final = append(plan.Final, &kept)
			continue
		}

		updated := *p
		updated.Sequence = nextFree()
		updated.DueDate = e.DueDate
		updated.Amount = e.Amount
		if updated.Sequence != p.Sequence || !updated.DueDate.Equal(p.DueDate.Time) || !updated.Amount.Equal(p.Amount) {
			u := updated
			plan.Updates = append(plan.Updates, &u)
		}
		f := updated
		plan.Final = append(plan.Final, &f)
	}

	for _, p := range persisted {
		if !p.Paid && !editedIDs[p.ID] {
			plan.Deletes = append(plan.Deletes, p.ID)
		}
	}

	sort.Slice(plan.Final, func(i, j int) bool {
		return plan.Final[i].Sequence < plan.Final[j].Sequence
	})
	return plan, nil
}
