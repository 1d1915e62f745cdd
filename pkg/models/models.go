package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInstallmentPaid is returned by any operation that would delete or
// structurally alter an installment that has already been paid.
var ErrInstallmentPaid = errors.New("cannot modify paid installment")

type Client struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone,omitempty"`
	Email      string    `json:"email,omitempty"`
	Address    string    `json:"address,omitempty"`
	NationalID string    `json:"national_id,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type LoanStatus string

const (
	LoanStatusActive    LoanStatus = "active"
	LoanStatusCompleted LoanStatus = "completed"
)

// Loan is a cash loan with simple (flat) interest. InterestAmount and
// TotalAmount are computed once at creation time and kept consistent with
// Principal and InterestRate on every edit.
type Loan struct {
	ID             uuid.UUID       `json:"id"`
	ClientID       uuid.UUID       `json:"client_id"`
	Principal      decimal.Decimal `json:"principal"`
	InterestRate   decimal.Decimal `json:"interest_rate"` // percent
	TermCount      int             `json:"term_count"`
	StartDate      Date            `json:"start_date"`
	EndDate        Date            `json:"end_date"`
	InterestAmount decimal.Decimal `json:"interest_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Status         LoanStatus      `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Installments   []*Installment  `json:"installments,omitempty"`
}

// Installment is one scheduled partial repayment of a loan. Sequence numbers
// are unique within a loan, contiguous from 1, and define chronological
// order. Once Paid is true the amount, due date and sequence are immutable.
type Installment struct {
	ID          uuid.UUID       `json:"id"`
	LoanID      uuid.UUID       `json:"loan_id"`
	Sequence    int             `json:"sequence"`
	DueDate     Date            `json:"due_date"`
	Amount      decimal.Decimal `json:"amount"`
	Paid        bool            `json:"paid"`
	PaymentDate *Date           `json:"payment_date,omitempty"`
	Overdue     bool            `json:"overdue"`
}

type PurchaseRequestStatus string

const (
	PurchaseRequestPending  PurchaseRequestStatus = "pending"
	PurchaseRequestApproved PurchaseRequestStatus = "approved"
	PurchaseRequestRejected PurchaseRequestStatus = "rejected"
)

// PurchaseRequest is a client's ask to buy a product on installments. An
// approved request becomes a Purchase with its own payment schedule.
type PurchaseRequest struct {
	ID           uuid.UUID             `json:"id"`
	ClientID     uuid.UUID             `json:"client_id"`
	ProductName  string                `json:"product_name"`
	ProductPrice decimal.Decimal       `json:"product_price"`
	Status       PurchaseRequestStatus `json:"status"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// Purchase is a brokered product sale paid off in monthly payments. It uses
// the same flat-interest arithmetic as a Loan: ClientPrice = ProductPrice +
// InterestAmount, divided across TermCount payments.
type Purchase struct {
	ID             uuid.UUID         `json:"id"`
	RequestID      uuid.UUID         `json:"request_id"`
	ClientID       uuid.UUID         `json:"client_id"`
	ProductName    string            `json:"product_name"`
	ProductPrice   decimal.Decimal   `json:"product_price"`
	InterestRate   decimal.Decimal   `json:"interest_rate"` // percent
	InterestAmount decimal.Decimal   `json:"interest_amount"`
	ClientPrice    decimal.Decimal   `json:"client_price"`
	TermCount      int               `json:"term_count"`
	StartDate      Date              `json:"start_date"`
	EndDate        Date              `json:"end_date"`
	Status         LoanStatus        `json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	Payments       []*ProductPayment `json:"payments,omitempty"`
}

// ProductPayment mirrors Installment for purchases.
type ProductPayment struct {
	ID          uuid.UUID       `json:"id"`
	PurchaseID  uuid.UUID       `json:"purchase_id"`
	Sequence    int             `json:"sequence"`
	DueDate     Date            `json:"due_date"`
	Amount      decimal.Decimal `json:"amount"`
	Paid        bool            `json:"paid"`
	PaymentDate *Date           `json:"payment_date,omitempty"`
}

// Summary holds the dashboard aggregates.
type Summary struct {
	Clients          int             `json:"clients"`
	ActiveLoans      int             `json:"active_loans"`
	CompletedLoans   int             `json:"completed_loans"`
	TotalLent        decimal.Decimal `json:"total_lent"`
	TotalCollected   decimal.Decimal `json:"total_collected"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
}
