// Package ledger holds the business logic for clients, loans and product
// purchases: creating loans with their installment schedules, applying edit
// reconciliations, recording payments and completing loans.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkamanzi/loanbook/pkg/calc"
	"github.com/mkamanzi/loanbook/pkg/models"
	"github.com/mkamanzi/loanbook/pkg/schedule"
	"github.com/mkamanzi/loanbook/pkg/store"
)

// ErrClientNameRequired rejects clients created or updated without a name.
var ErrClientNameRequired = errors.New("client name is required")

// ErrRequestNotPending rejects approving a purchase request twice.
var ErrRequestNotPending = errors.New("purchase request is not pending")

// Ledger handles the business logic against a Storage implementation.
type Ledger struct {
	storage store.Storage
}

// NewLedger creates a new Ledger with a given Storage implementation.
func NewLedger(s store.Storage) *Ledger {
	return &Ledger{storage: s}
}

// --- clients ---

func (l *Ledger) RegisterClient(client *models.Client) error {
	if client.Name == "" {
		return ErrClientNameRequired
	}
	client.ID = uuid.New()
	client.CreatedAt = time.Now()
	client.UpdatedAt = client.CreatedAt
	if err := l.storage.CreateClient(client); err != nil {
		return fmt.Errorf("failed to store client: %w", err)
	}
	return nil
}

func (l *Ledger) GetClient(id uuid.UUID) (*models.Client, error) {
	return l.storage.GetClient(id)
}

func (l *Ledger) ListClients() ([]*models.Client, error) {
	return l.storage.ListClients()
}

func (l *Ledger) UpdateClient(client *models.Client) error {
	if client.Name == "" {
		return ErrClientNameRequired
	}
	client.UpdatedAt = time.Now()
	return l.storage.UpdateClient(client)
}

// DeleteClient removes a client and, by cascade, all their loans and
// installments.
func (l *Ledger) DeleteClient(id uuid.UUID) error {
	return l.storage.DeleteClient(id)
}

// --- loans ---

// CreateLoan validates the inputs, computes the flat-interest totals,
// generates the installment schedule and persists loan plus schedule as one
// atomic unit.
func (l *Ledger) CreateLoan(clientID uuid.UUID, principal, rate decimal.Decimal, termCount int, start, end models.Date) (*models.Loan, error) {
	if _, err := l.storage.GetClient(clientID); err != nil {
		return nil, err
	}

	totals, err := calc.Compute(principal, rate, termCount)
	if err != nil {
		return nil, err
	}
	installments, err := schedule.Generate(start, end, termCount, totals.Total)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	loan := &models.Loan{
		ID:             uuid.New(),
		ClientID:       clientID,
		Principal:      principal,
		InterestRate:   rate,
		TermCount:      termCount,
		StartDate:      start,
		EndDate:        end,
		InterestAmount: totals.Interest,
		TotalAmount:    totals.Total,
		Status:         models.LoanStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, inst := range installments {
		inst.LoanID = loan.ID
	}

	if err := l.storage.CreateLoanWithInstallments(loan, installments); err != nil {
		return nil, fmt.Errorf("failed to store loan: %w", err)
	}
	loan.Installments = installments
	return loan, nil
}

func (l *Ledger) GetLoan(id uuid.UUID) (*models.Loan, error) {
	return l.storage.GetLoan(id)
}

func (l *Ledger) ListLoans() ([]*models.Loan, error) {
	return l.storage.ListLoans()
}

func (l *Ledger) ListLoansForClient(clientID uuid.UUID) ([]*models.Loan, error) {
	if _, err := l.storage.GetClient(clientID); err != nil {
		return nil, err
	}
	return l.storage.ListLoansForClient(clientID)
}

func (l *Ledger) DeleteLoan(id uuid.UUID) error {
	return l.storage.DeleteLoan(id)
}

// LoanEdit carries the user's edited loan fields and schedule for
// ApplyLoanEdit.
type LoanEdit struct {
	Principal    decimal.Decimal
	InterestRate decimal.Decimal
	TermCount    int
	StartDate    models.Date
	EndDate      models.Date
	Installments []*models.Installment
	Recalculate  bool
}

// ApplyLoanEdit reconciles an edited loan against its persisted state and
// applies the resulting operations. Paid installments are never touched:
// deleting one aborts the whole edit, field edits to one are reported in the
// returned plan's Skipped list. With Recalculate set, unpaid installment
// amounts are reassigned from the edited principal, rate and term before
// reconciling.
func (l *Ledger) ApplyLoanEdit(loanID uuid.UUID, edit LoanEdit) (*schedule.Plan, error) {
	loan, err := l.storage.GetLoan(loanID)
	if err != nil {
		return nil, err
	}

	totals, err := calc.Compute(edit.Principal, edit.InterestRate, edit.TermCount)
	if err != nil {
		return nil, err
	}
	if !edit.EndDate.After(edit.StartDate.Time) {
		return nil, schedule.ErrInvalidDates
	}

	if edit.Recalculate {
		// Recalculate against the persisted paid state, not the edited
		// payload: a tampered paid amount (or a cleared paid flag) in the
		// edit must not shift the remainder allocation.
		persisted := make(map[uuid.UUID]*models.Installment, len(loan.Installments))
		for _, inst := range loan.Installments {
			persisted[inst.ID] = inst
		}
		recalc := make([]*models.Installment, len(edit.Installments))
		for i, inst := range edit.Installments {
			copied := *inst
			copied.Paid = false
			if prev, ok := persisted[inst.ID]; ok && prev.Paid {
				copied.Paid = true
				copied.Amount = prev.Amount
			}
			recalc[i] = &copied
		}
		schedule.Recalculate(recalc, totals)
		for i, inst := range edit.Installments {
			if !recalc[i].Paid {
				inst.Amount = recalc[i].Amount
			}
		}
	}

	plan, err := schedule.Reconcile(loan.Installments, edit.Installments)
	if err != nil {
		return nil, err
	}

	loan.Principal = edit.Principal
	loan.InterestRate = edit.InterestRate
	loan.TermCount = edit.TermCount
	loan.StartDate = edit.StartDate
	loan.EndDate = edit.EndDate
	loan.InterestAmount = totals.Interest
	loan.TotalAmount = totals.Total
	loan.UpdatedAt = time.Now()
	if err := l.storage.UpdateLoan(loan); err != nil {
		return nil, fmt.Errorf("failed to update loan: %w", err)
	}

	for _, id := range plan.Deletes {
		if err := l.storage.DeleteInstallment(id); err != nil {
			return nil, fmt.Errorf("failed to delete installment: %w", err)
		}
	}
	for _, inst := range plan.Updates {
		if err := l.storage.UpdateInstallment(inst); err != nil {
			return nil, fmt.Errorf("failed to update installment: %w", err)
		}
	}
	for _, inst := range plan.Creates {
		inst.LoanID = loanID
		if err := l.storage.CreateInstallment(inst); err != nil {
			return nil, fmt.Errorf("failed to create installment: %w", err)
		}
	}

	return plan, nil
}

// PayInstallment marks an installment paid and completes the loan once every
// installment is paid. The paid flag is monotonic; paying twice is rejected.
func (l *Ledger) PayInstallment(loanID, installmentID uuid.UUID, paymentDate models.Date) (*models.Loan, error) {
	loan, err := l.storage.GetLoan(loanID)
	if err != nil {
		return nil, err
	}
	if !loanHasInstallment(loan, installmentID) {
		return nil, fmt.Errorf("installment %s: %w", installmentID, store.ErrNotFound)
	}

	if err := l.storage.MarkInstallmentPaid(installmentID, paymentDate); err != nil {
		return nil, err
	}
	loan, err = l.storage.GetLoan(loanID)
	if err != nil {
		return nil, err
	}

	allPaid := len(loan.Installments) > 0
	for _, inst := range loan.Installments {
		if !inst.Paid {
			allPaid = false
			break
		}
	}
	if allPaid && loan.Status != models.LoanStatusCompleted {
		loan.Status = models.LoanStatusCompleted
		loan.UpdatedAt = time.Now()
		if err := l.storage.UpdateLoan(loan); err != nil {
			return nil, fmt.Errorf("failed to complete loan: %w", err)
		}
	}
	return loan, nil
}

func loanHasInstallment(loan *models.Loan, installmentID uuid.UUID) bool {
	for _, inst := range loan.Installments {
		if inst.ID == installmentID {
			return true
		}
	}
	return false
}

// DeleteInstallment removes an unpaid installment and renumbers the remaining
// unpaid ones to keep sequence numbers contiguous.
func (l *Ledger) DeleteInstallment(loanID, installmentID uuid.UUID) error {
	loan, err := l.storage.GetLoan(loanID)
	if err != nil {
		return err
	}

	edited := make([]*models.Installment, 0, len(loan.Installments))
	found := false
	for _, inst := range loan.Installments {
		if inst.ID == installmentID {
			found = true
			if inst.Paid {
				return fmt.Errorf("installment %d: %w", inst.Sequence, models.ErrInstallmentPaid)
			}
			continue
		}
		copied := *inst
		edited = append(edited, &copied)
	}
	if !found {
		return fmt.Errorf("installment %s: %w", installmentID, store.ErrNotFound)
	}

	plan, err := schedule.Reconcile(loan.Installments, edited)
	if err != nil {
		return err
	}
	for _, id := range plan.Deletes {
		if err := l.storage.DeleteInstallment(id); err != nil {
			return err
		}
	}
	for _, inst := range plan.Updates {
		if err := l.storage.UpdateInstallment(inst); err != nil {
			return err
		}
	}
	return nil
}

// UpdateInstallment changes a single unpaid installment's due date or amount.
func (l *Ledger) UpdateInstallment(inst *models.Installment) error {
	return l.storage.UpdateInstallment(inst)
}

// FlagOverdue marks unpaid installments whose due date has passed.
func (l *Ledger) FlagOverdue(asOf models.Date) (int64, error) {
	return l.storage.FlagOverdueInstallments(asOf)
}

// --- product purchases ---

// RequestPurchase records a client's ask to buy a product on installments.
func (l *Ledger) RequestPurchase(clientID uuid.UUID, productName string, productPrice decimal.Decimal) (*models.PurchaseRequest, error) {
	if _, err := l.storage.GetClient(clientID); err != nil {
		return nil, err
	}
	if productPrice.LessThanOrEqual(decimal.Zero) {
		return nil, calc.ErrInvalidPrincipal
	}

	now := time.Now()
	req := &models.PurchaseRequest{
		ID:           uuid.New(),
		ClientID:     clientID,
		ProductName:  productName,
		ProductPrice: productPrice,
		Status:       models.PurchaseRequestPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := l.storage.CreatePurchaseRequest(req); err != nil {
		return nil, fmt.Errorf("failed to store purchase request: %w", err)
	}
	return req, nil
}

func (l *Ledger) GetPurchaseRequest(id uuid.UUID) (*models.PurchaseRequest, error) {
	return l.storage.GetPurchaseRequest(id)
}

func (l *Ledger) ListPurchaseRequests() ([]*models.PurchaseRequest, error) {
	return l.storage.ListPurchaseRequests()
}

// RejectPurchaseRequest closes a pending request without a purchase.
func (l *Ledger) RejectPurchaseRequest(id uuid.UUID) (*models.PurchaseRequest, error) {
	req, err := l.storage.GetPurchaseRequest(id)
	if err != nil {
		return nil, err
	}
	if req.Status != models.PurchaseRequestPending {
		return nil, ErrRequestNotPending
	}
	req.Status = models.PurchaseRequestRejected
	req.UpdatedAt = time.Now()
	if err := l.storage.UpdatePurchaseRequest(req); err != nil {
		return nil, err
	}
	return req, nil
}

// ApprovePurchaseRequest turns a pending request into a purchase with a
// monthly payment schedule, using the same flat-interest arithmetic as loans:
// client price = product price + interest, divided across the term.
func (l *Ledger) ApprovePurchaseRequest(requestID uuid.UUID, rate decimal.Decimal, termCount int, start, end models.Date) (*models.Purchase, error) {
	req, err := l.storage.GetPurchaseRequest(requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.PurchaseRequestPending {
		return nil, ErrRequestNotPending
	}

	totals, err := calc.Compute(req.ProductPrice, rate, termCount)
	if err != nil {
		return nil, err
	}
	installments, err := schedule.Generate(start, end, termCount, totals.Total)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	purchase := &models.Purchase{
		ID:             uuid.New(),
		RequestID:      req.ID,
		ClientID:       req.ClientID,
		ProductName:    req.ProductName,
		ProductPrice:   req.ProductPrice,
		InterestRate:   rate,
		InterestAmount: totals.Interest,
		ClientPrice:    totals.Total,
		TermCount:      termCount,
		StartDate:      start,
		EndDate:        end,
		Status:         models.LoanStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	payments := make([]*models.ProductPayment, len(installments))
	for i, inst := range installments {
		payments[i] = &models.ProductPayment{
			ID:         inst.ID,
			PurchaseID: purchase.ID,
			Sequence:   inst.Sequence,
			DueDate:    inst.DueDate,
			Amount:     inst.Amount,
		}
	}

	if err := l.storage.CreatePurchaseWithPayments(purchase, payments); err != nil {
		return nil, fmt.Errorf("failed to store purchase: %w", err)
	}

	req.Status = models.PurchaseRequestApproved
	req.UpdatedAt = now
	if err := l.storage.UpdatePurchaseRequest(req); err != nil {
		return nil, fmt.Errorf("failed to update purchase request: %w", err)
	}

	purchase.Payments = payments
	return purchase, nil
}

func (l *Ledger) GetPurchase(id uuid.UUID) (*models.Purchase, error) {
	return l.storage.GetPurchase(id)
}

func (l *Ledger) ListPurchases() ([]*models.Purchase, error) {
	return l.storage.ListPurchases()
}

// PayProductPayment marks a product payment paid and completes the purchase
// once every payment is paid.
func (l *Ledger) PayProductPayment(purchaseID, paymentID uuid.UUID, paymentDate models.Date) (*models.Purchase, error) {
	purchase, err := l.storage.GetPurchase(purchaseID)
	if err != nil {
		return nil, err
	}
	belongs := false
	for _, p := range purchase.Payments {
		if p.ID == paymentID {
			belongs = true
			break
		}
	}
	if !belongs {
		return nil, fmt.Errorf("product payment %s: %w", paymentID, store.ErrNotFound)
	}

	if err := l.storage.MarkProductPaymentPaid(paymentID, paymentDate); err != nil {
		return nil, err
	}
	purchase, err = l.storage.GetPurchase(purchaseID)
	if err != nil {
		return nil, err
	}

	allPaid := len(purchase.Payments) > 0
	for _, p := range purchase.Payments {
		if !p.Paid {
			allPaid = false
			break
		}
	}
	if allPaid && purchase.Status != models.LoanStatusCompleted {
		purchase.Status = models.LoanStatusCompleted
		purchase.UpdatedAt = time.Now()
		if err := l.storage.UpdatePurchase(purchase); err != nil {
			return nil, fmt.Errorf("failed to complete purchase: %w", err)
		}
	}
	return purchase, nil
}

// --- dashboard ---

func (l *Ledger) Summary() (*models.Summary, error) {
	return l.storage.Summary()
}
