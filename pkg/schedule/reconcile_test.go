package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkamanzi/loanbook/pkg/models"
)

func testSchedule(t *testing.T, count int, total int64) []*models.Installment {
	t.Helper()
	installments, err := Generate(
		models.NewDate(2025, time.January, 10),
		models.NewDate(2025, time.January, 10).AddMonths(count),
		count, decimal.NewFromInt(total),
	)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	loanID := uuid.New()
	for _, inst := range installments {
		inst.LoanID = loanID
	}
	return installments
}

func copySchedule(installments []*models.Installment) []*models.Installment {
	out := make([]*models.Installment, len(installments))
	for i, inst := range installments {
		c := *inst
		out[i] = &c
	}
	return out
}

func TestReconcileNoChanges(t *testing.T) {
	persisted := testSchedule(t, 3, 130000)

	plan, err := Reconcile(persisted, copySchedule(persisted))
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if !plan.Empty() {
		t.Errorf("Expected empty plan, got %d creates, %d updates, %d deletes",
			len(plan.Creates), len(plan.Updates), len(plan.Deletes))
	}
	if len(plan.Skipped) != 0 {
		t.Errorf("Expected no skipped edits, got %d", len(plan.Skipped))
	}
}

func TestReconcileAmountEdit(t *testing.T) {
	persisted := testSchedule(t, 3, 130000)

	edited := copySchedule(persisted)
	edited[1].Amount = decimal.NewFromInt(50000)

	plan, err := Reconcile(persisted, edited)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if len(plan.Updates) != 1 {
		t.Fatalf("Expected 1 update, got %d", len(plan.Updates))
	}
	if plan.Updates[0].ID != persisted[1].ID {
		t.Errorf("Update targets wrong installment")
	}
	if !plan.Updates[0].Amount.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("Expected updated amount 50000, got %s", plan.Updates[0].Amount)
	}
}

func TestReconcileDeleteAndAdd(t *testing.T) {
	// Spec scenario: 4 installments, 1-2 paid; user deletes unpaid #3 and adds
	// a new one. Result: 1 (paid), 2 (paid), 3 (new).
	persisted := testSchedule(t, 4, 130000)
	payDate := models.NewDate(2025, time.February, 10)
	persisted[0].Paid = true
	persisted[0].PaymentDate = &payDate
	persisted[1].Paid = true
	persisted[1].PaymentDate = &payDate

	edited := copySchedule(persisted[:2])
	added := &models.Installment{
		LoanID:  persisted[0].LoanID,
		DueDate: models.NewDate(2025, time.June, 10),
		Amount:  decimal.NewFromInt(65000),
	}
	edited = append(edited, added)

	plan, err := Reconcile(persisted, edited)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	if len(plan.Deletes) != 2 {
		t.Fatalf("Expected 2 deletes (old #3 and #4), got %d", len(plan.Deletes))
	}
	if len(plan.Creates) != 1 {
		t.Fatalf("Expected 1 create, got %d", len(plan.Creates))
	}
	if plan.Creates[0].Sequence != 3 {
		t.Errorf("Expected new installment to take sequence 3, got %d", plan.Creates[0].Sequence)
	}

	if len(plan.Final) != 3 {
		t.Fatalf("Expected 3 installments in final schedule, got %d", len(plan.Final))
	}
	for i, want := range []struct {
		seq  int
		paid bool
	}{{1, true}, {2, true}, {3, false}} {
		if plan.Final[i].Sequence != want.seq || plan.Final[i].Paid != want.paid {
			t.Errorf("Final[%d]: expected seq %d paid=%v, got seq %d paid=%v",
				i, want.seq, want.paid, plan.Final[i].Sequence, plan.Final[i].Paid)
		}
	}
}

func TestReconcileRenumbersAfterRemoval(t *testing.T) {
	persisted := testSchedule(t, 4, 120000)

	// Remove unpaid #2: the tail closes up to 1, 2, 3.
	edited := copySchedule(persisted)
	edited = append(edited[:1], edited[2:]...)

	plan, err := Reconcile(persisted, edited)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if len(plan.Deletes) != 1 || plan.Deletes[0] != persisted[1].ID {
		t.Fatalf("Expected deletion of installment #2")
	}
	for i, inst := range plan.Final {
		if inst.Sequence != i+1 {
			t.Errorf("Final[%d]: expected contiguous sequence %d, got %d", i, i+1, inst.Sequence)
		}
	}
}

func TestReconcileRejectsDeletingPaid(t *testing.T) {
	persisted := testSchedule(t, 3, 90000)
	payDate := models.NewDate(2025, time.March, 10)
	persisted[1].Paid = true
	persisted[1].PaymentDate = &payDate

	edited := copySchedule(persisted)
	edited = append(edited[:1], edited[2:]...) // drop the paid one

	_, err := Reconcile(persisted, edited)
	if !errors.Is(err, models.ErrInstallmentPaid) {
		t.Fatalf("Expected ErrInstallmentPaid, got %v", err)
	}
}

func TestReconcileIgnoresEditsToPaid(t *testing.T) {
	persisted := testSchedule(t, 3, 90000)
	payDate := models.NewDate(2025, time.March, 10)
	persisted[1].Paid = true
	persisted[1].PaymentDate = &payDate

	edited := copySchedule(persisted)
	edited[1].Amount = decimal.NewFromInt(1)
	edited[1].DueDate = models.NewDate(2030, time.December, 31)

	plan, err := Reconcile(persisted, edited)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	if len(plan.Updates) != 0 {
		t.Errorf("Expected no updates for a paid installment, got %d", len(plan.Updates))
	}
	if len(plan.Skipped) != 1 {
		t.Fatalf("Expected the rejected edit to be reported, got %d skipped", len(plan.Skipped))
	}
	if plan.Skipped[0].InstallmentID != persisted[1].ID {
		t.Errorf("Skipped entry targets wrong installment")
	}

	// The persisted version wins in the final schedule.
	if !plan.Final[1].Amount.Equal(persisted[1].Amount) {
		t.Errorf("Paid installment amount changed: got %s", plan.Final[1].Amount)
	}
	if !plan.Final[1].DueDate.Equal(persisted[1].DueDate.Time) {
		t.Errorf("Paid installment due date changed: got %s", plan.Final[1].DueDate)
	}
}

func TestReconcileAppendsNewAfterExisting(t *testing.T) {
	persisted := testSchedule(t, 2, 60000)

	edited := copySchedule(persisted)
	edited = append(edited, &models.Installment{
		LoanID:  persisted[0].LoanID,
		DueDate: models.NewDate(2025, time.May, 10),
		Amount:  decimal.NewFromInt(10000),
	})

	plan, err := Reconcile(persisted, edited)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if len(plan.Creates) != 1 {
		t.Fatalf("Expected 1 create, got %d", len(plan.Creates))
	}
	if plan.Creates[0].Sequence != 3 {
		t.Errorf("Expected appended installment at sequence 3, got %d", plan.Creates[0].Sequence)
	}
	if plan.Creates[0].ID == uuid.Nil {
		t.Errorf("Created installment should receive an ID")
	}
}
