package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mkamanzi/loanbook/pkg/models"
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func scanClient(row rowScanner) (*models.Client, error) {
	var c models.Client
	var idStr string
	if err := row.Scan(&idStr, &c.Name, &c.Phone, &c.Email, &c.Address, &c.NationalID, &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.ID = uuid.MustParse(idStr)
	return &c, nil
}

func scanLoan(row rowScanner) (*models.Loan, error) {
	var loan models.Loan
	var idStr, clientIDStr, status string
	if err := row.Scan(&idStr, &clientIDStr, &loan.Principal, &loan.InterestRate, &loan.TermCount, &loan.StartDate, &loan.EndDate, &loan.InterestAmount, &loan.TotalAmount, &status, &loan.CreatedAt, &loan.UpdatedAt); err != nil {
		return nil, err
	}
	loan.ID = uuid.MustParse(idStr)
	loan.ClientID = uuid.MustParse(clientIDStr)
	loan.Status = models.LoanStatus(status)
	return &loan, nil
}

func scanPurchase(row rowScanner) (*models.Purchase, error) {
	var p models.Purchase
	var idStr, requestIDStr, clientIDStr, status string
	if err := row.Scan(&idStr, &requestIDStr, &clientIDStr, &p.ProductName, &p.ProductPrice, &p.InterestRate, &p.InterestAmount, &p.ClientPrice, &p.TermCount, &p.StartDate, &p.EndDate, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.ID = uuid.MustParse(idStr)
	p.RequestID = uuid.MustParse(requestIDStr)
	p.ClientID = uuid.MustParse(clientIDStr)
	p.Status = models.LoanStatus(status)
	return &p, nil
}

func insertInstallment(db execer, inst *models.Installment) error {
	var paymentDate interface{}
	if inst.PaymentDate != nil {
		paymentDate = inst.PaymentDate.String()
	}
	_, err := db.Exec(
		`INSERT INTO installments (id, loan_id, seq, due_date, amount, paid, payment_date, overdue)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		inst.ID.String(), inst.LoanID.String(), inst.Sequence, inst.DueDate, inst.Amount, boolToInt(inst.Paid), paymentDate, boolToInt(inst.Overdue),
	)
	if err != nil {
		return fmt.Errorf("failed to create installment: %w", err)
	}
	return nil
}

func requireRow(result sql.Result, entity string, id uuid.UUID) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
