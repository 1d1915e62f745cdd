package store

import (
	"errors"

	"github.com/google/uuid"

	"github.com/mkamanzi/loanbook/pkg/models"
)

// ErrNotFound is returned when the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Storage defines the persistence operations for clients, loans, installments
// and product purchases.
type Storage interface {
	CreateClient(client *models.Client) error
	GetClient(id uuid.UUID) (*models.Client, error)
	UpdateClient(client *models.Client) error
	DeleteClient(id uuid.UUID) error // cascades to loans and installments
	ListClients() ([]*models.Client, error)

	// CreateLoanWithInstallments persists a loan and its whole schedule
	// atomically: either everything exists afterwards, or nothing does.
	CreateLoanWithInstallments(loan *models.Loan, installments []*models.Installment) error
	GetLoan(id uuid.UUID) (*models.Loan, error) // includes installments
	ListLoans() ([]*models.Loan, error)
	ListLoansForClient(clientID uuid.UUID) ([]*models.Loan, error)
	UpdateLoan(loan *models.Loan) error
	DeleteLoan(id uuid.UUID) error

	CreateInstallment(inst *models.Installment) error
	UpdateInstallment(inst *models.Installment) error
	DeleteInstallment(id uuid.UUID) error // rejects paid installments
	// MarkInstallmentPaid flips the paid flag once; paying an already-paid
	// installment is rejected so the flag stays monotonic.
	MarkInstallmentPaid(id uuid.UUID, paymentDate models.Date) error
	FlagOverdueInstallments(asOf models.Date) (int64, error)

	CreatePurchaseRequest(req *models.PurchaseRequest) error
	GetPurchaseRequest(id uuid.UUID) (*models.PurchaseRequest, error)
	ListPurchaseRequests() ([]*models.PurchaseRequest, error)
	UpdatePurchaseRequest(req *models.PurchaseRequest) error

	CreatePurchaseWithPayments(purchase *models.Purchase, payments []*models.ProductPayment) error
	GetPurchase(id uuid.UUID) (*models.Purchase, error) // includes payments
	ListPurchases() ([]*models.Purchase, error)
	UpdatePurchase(purchase *models.Purchase) error
	MarkProductPaymentPaid(id uuid.UUID, paymentDate models.Date) error

	Summary() (*models.Summary, error)

	Close() error
}
