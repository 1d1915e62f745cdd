package store

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkamanzi/loanbook/pkg/models"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore manages the database connection and operations for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore and initializes the database.
func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	// Manually enable foreign keys and WAL mode
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}
	log.Println("Database connection established and schema initialized.")
	return s, nil
}

// initSchema creates the tables if they don't already exist. Decimal fields
// are stored as TEXT so no precision is lost; dates as "YYYY-MM-DD" TEXT.
func (s *SQLiteStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		national_id TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		principal TEXT NOT NULL,
		interest_rate TEXT NOT NULL,
		term_count INTEGER NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		interest_amount TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY(client_id) REFERENCES clients(id) ON DELETE CASCADE
	);
	CREATE TABLE IF NOT EXISTS installments (
		id TEXT PRIMARY KEY,
		loan_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		due_date TEXT NOT NULL,
		amount TEXT NOT NULL,
		paid INTEGER NOT NULL DEFAULT 0,
		payment_date TEXT,
		overdue INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY(loan_id) REFERENCES loans(id) ON DELETE CASCADE
	);
	CREATE TABLE IF NOT EXISTS purchase_requests (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		product_name TEXT NOT NULL,
		product_price TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY(client_id) REFERENCES clients(id) ON DELETE CASCADE
	);
	CREATE TABLE IF NOT EXISTS purchases (
		id TEXT PRIMARY KEY,
		request_id TEXT NOT NULL,
		client_id TEXT NOT NULL,
		product_name TEXT NOT NULL,
		product_price TEXT NOT NULL,
		interest_rate TEXT NOT NULL,
		interest_amount TEXT NOT NULL,
		client_price TEXT NOT NULL,
		term_count INTEGER NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY(client_id) REFERENCES clients(id) ON DELETE CASCADE
	);
	CREATE TABLE IF NOT EXISTS product_payments (
		id TEXT PRIMARY KEY,
		purchase_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		due_date TEXT NOT NULL,
		amount TEXT NOT NULL,
		paid INTEGER NOT NULL DEFAULT 0,
		payment_date TEXT,
		FOREIGN KEY(purchase_id) REFERENCES purchases(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_loans_client ON loans(client_id);
	CREATE INDEX IF NOT EXISTS idx_installments_loan ON installments(loan_id);
	CREATE INDEX IF NOT EXISTS idx_product_payments_purchase ON product_payments(purchase_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// --- clients ---

func (s *SQLiteStore) CreateClient(client *models.Client) error {
	_, err := s.db.Exec(
		`INSERT INTO clients (id, name, phone, email, address, national_id, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		client.ID.String(), client.Name, client.Phone, client.Email, client.Address, client.NationalID, client.Notes, client.CreatedAt, client.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetClient(id uuid.UUID) (*models.Client, error) {
	row := s.db.QueryRow(
		`SELECT id, name, phone, email, address, national_id, notes, created_at, updated_at FROM clients WHERE id = ?`,
		id.String(),
	)
	client, err := scanClient(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("client %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return client, nil
}

func (s *SQLiteStore) UpdateClient(client *models.Client) error {
	result, err := s.db.Exec(
		`UPDATE clients SET name = ?, phone = ?, email = ?, address = ?, national_id = ?, notes = ?, updated_at = ? WHERE id = ?`,
		client.Name, client.Phone, client.Email, client.Address, client.NationalID, client.Notes, client.UpdatedAt, client.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	return requireRow(result, "client", client.ID)
}

// DeleteClient removes a client; loans, installments and purchases follow via
// the declared ON DELETE CASCADE.
func (s *SQLiteStore) DeleteClient(id uuid.UUID) error {
	result, err := s.db.Exec(`DELETE FROM clients WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return requireRow(result, "client", id)
}

func (s *SQLiteStore) ListClients() ([]*models.Client, error) {
	rows, err := s.db.Query(
		`SELECT id, name, phone, email, address, national_id, notes, created_at, updated_at FROM clients ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client row: %w", err)
		}
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return clients, nil
}

// --- loans ---

func (s *SQLiteStore) CreateLoanWithInstallments(loan *models.Loan, installments []*models.Installment) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO loans (id, client_id, principal, interest_rate, term_count, start_date, end_date, interest_amount, total_amount, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		loan.ID.String(), loan.ClientID.String(), loan.Principal, loan.InterestRate, loan.TermCount, loan.StartDate, loan.EndDate, loan.InterestAmount, loan.TotalAmount, string(loan.Status), loan.CreatedAt, loan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}

	for _, inst := range installments {
		if err := insertInstallment(tx, inst); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetLoan(id uuid.UUID) (*models.Loan, error) {
	row := s.db.QueryRow(
		`SELECT id, client_id, principal, interest_rate, term_count, start_date, end_date, interest_amount, total_amount, status, created_at, updated_at FROM loans WHERE id = ?`,
		id.String(),
	)
	loan, err := scanLoan(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("loan %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}

	installments, err := s.installmentsForLoan(id)
	if err != nil {
		return nil, err
	}
	loan.Installments = installments
	return loan, nil
}

func (s *SQLiteStore) ListLoans() ([]*models.Loan, error) {
	return s.queryLoans(`SELECT id, client_id, principal, interest_rate, term_count, start_date, end_date, interest_amount, total_amount, status, created_at, updated_at FROM loans ORDER BY created_at`)
}

func (s *SQLiteStore) ListLoansForClient(clientID uuid.UUID) ([]*models.Loan, error) {
	return s.queryLoans(
		`SELECT id, client_id, principal, interest_rate, term_count, start_date, end_date, interest_amount, total_amount, status, created_at, updated_at FROM loans WHERE client_id = ? ORDER BY created_at`,
		clientID.String(),
	)
}

func (s *SQLiteStore) queryLoans(query string, args ...interface{}) ([]*models.Loan, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query loans: %w", err)
	}
	defer rows.Close()

	var loans []*models.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan row: %w", err)
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}

	for _, loan := range loans {
		installments, err := s.installmentsForLoan(loan.ID)
		if err != nil {
			return nil, err
		}
		loan.Installments = installments
	}
	return loans, nil
}

func (s *SQLiteStore) UpdateLoan(loan *models.Loan) error {
	result, err := s.db.Exec(
		`UPDATE loans SET principal = ?, interest_rate = ?, term_count = ?, start_date = ?, end_date = ?, interest_amount = ?, total_amount = ?, status = ?, updated_at = ? WHERE id = ?`,
		loan.Principal, loan.InterestRate, loan.TermCount, loan.StartDate, loan.EndDate, loan.InterestAmount, loan.TotalAmount, string(loan.Status), loan.UpdatedAt, loan.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update loan: %w", err)
	}
	return requireRow(result, "loan", loan.ID)
}

func (s *SQLiteStore) DeleteLoan(id uuid.UUID) error {
	result, err := s.db.Exec(`DELETE FROM loans WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete loan: %w", err)
	}
	return requireRow(result, "loan", id)
}

// --- installments ---

func (s *SQLiteStore) CreateInstallment(inst *models.Installment) error {
	return insertInstallment(s.db, inst)
}

func (s *SQLiteStore) UpdateInstallment(inst *models.Installment) error {
	result, err := s.db.Exec(
		`UPDATE installments SET seq = ?, due_date = ?, amount = ?, overdue = ? WHERE id = ? AND paid = 0`,
		inst.Sequence, inst.DueDate, inst.Amount, boolToInt(inst.Overdue), inst.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update installment: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return s.installmentMissReason(inst.ID)
	}
	return nil
}

func (s *SQLiteStore) DeleteInstallment(id uuid.UUID) error {
	result, err := s.db.Exec(`DELETE FROM installments WHERE id = ? AND paid = 0`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete installment: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return s.installmentMissReason(id)
	}
	return nil
}

func (s *SQLiteStore) MarkInstallmentPaid(id uuid.UUID, paymentDate models.Date) error {
	result, err := s.db.Exec(
		`UPDATE installments SET paid = 1, payment_date = ?, overdue = 0 WHERE id = ? AND paid = 0`,
		paymentDate, id.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to mark installment paid: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return s.installmentMissReason(id)
	}
	return nil
}

// installmentMissReason distinguishes "no such installment" from "installment
// exists but is paid" after a guarded write matched no rows.
func (s *SQLiteStore) installmentMissReason(id uuid.UUID) error {
	var paid int
	err := s.db.QueryRow(`SELECT paid FROM installments WHERE id = ?`, id.String()).Scan(&paid)
	if err == sql.ErrNoRows {
		return fmt.Errorf("installment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check installment: %w", err)
	}
	return fmt.Errorf("installment %s: %w", id, models.ErrInstallmentPaid)
}

func (s *SQLiteStore) FlagOverdueInstallments(asOf models.Date) (int64, error) {
	result, err := s.db.Exec(
		`UPDATE installments SET overdue = 1 WHERE paid = 0 AND overdue = 0 AND due_date < ?`,
		asOf,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to flag overdue installments: %w", err)
	}
	return result.RowsAffected()
}

func (s *SQLiteStore) installmentsForLoan(loanID uuid.UUID) ([]*models.Installment, error) {
	rows, err := s.db.Query(
		`SELECT id, loan_id, seq, due_date, amount, paid, payment_date, overdue FROM installments WHERE loan_id = ? ORDER BY seq`,
		loanID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get installments for loan %s: %w", loanID, err)
	}
	defer rows.Close()

	var installments []*models.Installment
	for rows.Next() {
		var inst models.Installment
		var idStr, loanIDStr string
		var paid, overdue int
		var paymentDate sql.NullString
		if err := rows.Scan(&idStr, &loanIDStr, &inst.Sequence, &inst.DueDate, &inst.Amount, &paid, &paymentDate, &overdue); err != nil {
			return nil, fmt.Errorf("failed to scan installment row: %w", err)
		}
		inst.ID = uuid.MustParse(idStr)
		inst.LoanID = uuid.MustParse(loanIDStr)
		inst.Paid = paid != 0
		inst.Overdue = overdue != 0
		if paymentDate.Valid {
			d, err := models.ParseDate(paymentDate.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse payment date: %w", err)
			}
			inst.PaymentDate = &d
		}
		installments = append(installments, &inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return installments, nil
}

// --- purchases ---

func (s *SQLiteStore) CreatePurchaseRequest(req *models.PurchaseRequest) error {
	_, err := s.db.Exec(
		`INSERT INTO purchase_requests (id, client_id, product_name, product_price, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		req.ID.String(), req.ClientID.String(), req.ProductName, req.ProductPrice, string(req.Status), req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create purchase request: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetPurchaseRequest(id uuid.UUID) (*models.PurchaseRequest, error) {
	var req models.PurchaseRequest
	var idStr, clientIDStr, status string
	err := s.db.QueryRow(
		`SELECT id, client_id, product_name, product_price, status, created_at, updated_at FROM purchase_requests WHERE id = ?`,
		id.String(),
	).Scan(&idStr, &clientIDStr, &req.ProductName, &req.ProductPrice, &status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("purchase request %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get purchase request: %w", err)
	}
	req.ID = uuid.MustParse(idStr)
	req.ClientID = uuid.MustParse(clientIDStr)
	req.Status = models.PurchaseRequestStatus(status)
	return &req, nil
}

func (s *SQLiteStore) ListPurchaseRequests() ([]*models.PurchaseRequest, error) {
	rows, err := s.db.Query(
		`SELECT id, client_id, product_name, product_price, status, created_at, updated_at FROM purchase_requests ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase requests: %w", err)
	}
	defer rows.Close()

	var reqs []*models.PurchaseRequest
	for rows.Next() {
		var req models.PurchaseRequest
		var idStr, clientIDStr, status string
		if err := rows.Scan(&idStr, &clientIDStr, &req.ProductName, &req.ProductPrice, &status, &req.CreatedAt, &req.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan purchase request row: %w", err)
		}
		req.ID = uuid.MustParse(idStr)
		req.ClientID = uuid.MustParse(clientIDStr)
		req.Status = models.PurchaseRequestStatus(status)
		reqs = append(reqs, &req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return reqs, nil
}

func (s *SQLiteStore) UpdatePurchaseRequest(req *models.PurchaseRequest) error {
	result, err := s.db.Exec(
		`UPDATE purchase_requests SET product_name = ?, product_price = ?, status = ?, updated_at = ? WHERE id = ?`,
		req.ProductName, req.ProductPrice, string(req.Status), req.UpdatedAt, req.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update purchase request: %w", err)
	}
	return requireRow(result, "purchase request", req.ID)
}

func (s *SQLiteStore) CreatePurchaseWithPayments(purchase *models.Purchase, payments []*models.ProductPayment) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO purchases (id, request_id, client_id, product_name, product_price, interest_rate, interest_amount, client_price, term_count, start_date, end_date, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		purchase.ID.String(), purchase.RequestID.String(), purchase.ClientID.String(), purchase.ProductName, purchase.ProductPrice, purchase.InterestRate, purchase.InterestAmount, purchase.ClientPrice, purchase.TermCount, purchase.StartDate, purchase.EndDate, string(purchase.Status), purchase.CreatedAt, purchase.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create purchase: %w", err)
	}

	for _, p := range payments {
		var paymentDate interface{}
		if p.PaymentDate != nil {
			paymentDate = p.PaymentDate.String()
		}
		_, err = tx.Exec(
			`INSERT INTO product_payments (id, purchase_id, seq, due_date, amount, paid, payment_date)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID.String(), p.PurchaseID.String(), p.Sequence, p.DueDate, p.Amount, boolToInt(p.Paid), paymentDate,
		)
		if err != nil {
			return fmt.Errorf("failed to create product payment: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetPurchase(id uuid.UUID) (*models.Purchase, error) {
	row := s.db.QueryRow(
		`SELECT id, request_id, client_id, product_name, product_price, interest_rate, interest_amount, client_price, term_count, start_date, end_date, status, created_at, updated_at FROM purchases WHERE id = ?`,
		id.String(),
	)
	purchase, err := scanPurchase(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("purchase %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}

	payments, err := s.paymentsForPurchase(id)
	if err != nil {
		return nil, err
	}
	purchase.Payments = payments
	return purchase, nil
}

func (s *SQLiteStore) ListPurchases() ([]*models.Purchase, error) {
	rows, err := s.db.Query(
		`SELECT id, request_id, client_id, product_name, product_price, interest_rate, interest_amount, client_price, term_count, start_date, end_date, status, created_at, updated_at FROM purchases ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []*models.Purchase
	for rows.Next() {
		purchase, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase row: %w", err)
		}
		purchases = append(purchases, purchase)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}

	for _, purchase := range purchases {
		payments, err := s.paymentsForPurchase(purchase.ID)
		if err != nil {
			return nil, err
		}
		purchase.Payments = payments
	}
	return purchases, nil
}

func (s *SQLiteStore) UpdatePurchase(purchase *models.Purchase) error {
	result, err := s.db.Exec(
		`UPDATE purchases SET product_name = ?, product_price = ?, interest_rate = ?, interest_amount = ?, client_price = ?, term_count = ?, start_date = ?, end_date = ?, status = ?, updated_at = ? WHERE id = ?`,
		purchase.ProductName, purchase.ProductPrice, purchase.InterestRate, purchase.InterestAmount, purchase.ClientPrice, purchase.TermCount, purchase.StartDate, purchase.EndDate, string(purchase.Status), purchase.UpdatedAt, purchase.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update purchase: %w", err)
	}
	return requireRow(result, "purchase", purchase.ID)
}

func (s *SQLiteStore) MarkProductPaymentPaid(id uuid.UUID, paymentDate models.Date) error {
	result, err := s.db.Exec(
		`UPDATE product_payments SET paid = 1, payment_date = ? WHERE id = ? AND paid = 0`,
		paymentDate, id.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to mark product payment paid: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		var paid int
		err := s.db.QueryRow(`SELECT paid FROM product_payments WHERE id = ?`, id.String()).Scan(&paid)
		if err == sql.ErrNoRows {
			return fmt.Errorf("product payment %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to check product payment: %w", err)
		}
		return fmt.Errorf("product payment %s: %w", id, models.ErrInstallmentPaid)
	}
	return nil
}

func (s *SQLiteStore) paymentsForPurchase(purchaseID uuid.UUID) ([]*models.ProductPayment, error) {
	rows, err := s.db.Query(
		`SELECT id, purchase_id, seq, due_date, amount, paid, payment_date FROM product_payments WHERE purchase_id = ? ORDER BY seq`,
		purchaseID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get payments for purchase %s: %w", purchaseID, err)
	}
	defer rows.Close()

	var payments []*models.ProductPayment
	for rows.Next() {
		var p models.ProductPayment
		var idStr, purchaseIDStr string
		var paid int
		var paymentDate sql.NullString
		if err := rows.Scan(&idStr, &purchaseIDStr, &p.Sequence, &p.DueDate, &p.Amount, &paid, &paymentDate); err != nil {
			return nil, fmt.Errorf("failed to scan product payment row: %w", err)
		}
		p.ID = uuid.MustParse(idStr)
		p.PurchaseID = uuid.MustParse(purchaseIDStr)
		p.Paid = paid != 0
		if paymentDate.Valid {
			d, err := models.ParseDate(paymentDate.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse payment date: %w", err)
			}
			p.PaymentDate = &d
		}
		payments = append(payments, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return payments, nil
}

// --- dashboard ---

// Summary aggregates the dashboard numbers. Decimal sums are accumulated in
// Go so the TEXT-stored amounts keep full precision.
func (s *SQLiteStore) Summary() (*models.Summary, error) {
	summary := &models.Summary{}
	err := s.db.QueryRow(`SELECT COUNT(*) FROM clients`).Scan(&summary.Clients)
	if err != nil {
		return nil, fmt.Errorf("failed to count clients: %w", err)
	}
	err = s.db.QueryRow(`SELECT COUNT(*) FROM loans WHERE status = 'active'`).Scan(&summary.ActiveLoans)
	if err != nil {
		return nil, fmt.Errorf("failed to count active loans: %w", err)
	}
	err = s.db.QueryRow(`SELECT COUNT(*) FROM loans WHERE status = 'completed'`).Scan(&summary.CompletedLoans)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed loans: %w", err)
	}

	rows, err := s.db.Query(`SELECT principal FROM loans`)
	if err != nil {
		return nil, fmt.Errorf("failed to sum principals: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var principal decimal.Decimal
		if err := rows.Scan(&principal); err != nil {
			return nil, fmt.Errorf("failed to scan principal: %w", err)
		}
		summary.TotalLent = summary.TotalLent.Add(principal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}

	instRows, err := s.db.Query(`SELECT amount, paid FROM installments`)
	if err != nil {
		return nil, fmt.Errorf("failed to sum installments: %w", err)
	}
	defer instRows.Close()
	for instRows.Next() {
		var amount decimal.Decimal
		var paid int
		if err := instRows.Scan(&amount, &paid); err != nil {
			return nil, fmt.Errorf("failed to scan installment amount: %w", err)
		}
		if paid != 0 {
			summary.TotalCollected = summary.TotalCollected.Add(amount)
		} else {
			summary.TotalOutstanding = summary.TotalOutstanding.Add(amount)
		}
	}
	if err := instRows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}

	return summary, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
