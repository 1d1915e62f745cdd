package main

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mkamanzi/loanbook/pkg/format"
	"github.com/mkamanzi/loanbook/pkg/ledger"
	"github.com/mkamanzi/loanbook/pkg/metrics"
	"github.com/mkamanzi/loanbook/pkg/models"
	"github.com/mkamanzi/loanbook/pkg/schedule"

	"github.com/google/uuid"
)

func (s *Server) createLoanHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID     uuid.UUID       `json:"client_id"`
		Principal    decimal.Decimal `json:"principal"`
		InterestRate decimal.Decimal `json:"interest_rate"`
		TermCount    int             `json:"term_count"`
		StartDate    models.Date     `json:"start_date"`
		EndDate      models.Date     `json:"end_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	loan, err := s.ledger.CreateLoan(req.ClientID, req.Principal, req.InterestRate, req.TermCount, req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.LoansCreated.Inc()
	log.Printf("Created loan %s: total %s over %d installments ending %s",
		loan.ID, format.Amount(loan.TotalAmount), loan.TermCount, format.Date(loan.EndDate))

	writeJSON(w, http.StatusCreated, loan)
}

func (s *Server) getLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}

	loan, err := s.ledger.GetLoan(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

func (s *Server) listLoansHandler(w http.ResponseWriter, r *http.Request) {
	loans, err := s.ledger.ListLoans()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loans)
}

// updateLoanHandler applies an edited loan and schedule through the
// reconciler. The response carries the updated loan plus any edits that were
// skipped because they touched paid installments.
func (s *Server) updateLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Principal    decimal.Decimal       `json:"principal"`
		InterestRate decimal.Decimal       `json:"interest_rate"`
		TermCount    int                   `json:"term_count"`
		StartDate    models.Date           `json:"start_date"`
		EndDate      models.Date           `json:"end_date"`
		Installments []*models.Installment `json:"installments"`
		Recalculate  bool                  `json:"recalculate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	plan, err := s.ledger.ApplyLoanEdit(id, ledger.LoanEdit{
		Principal:    req.Principal,
		InterestRate: req.InterestRate,
		TermCount:    req.TermCount,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Installments: req.Installments,
		Recalculate:  req.Recalculate,
	})
	if err != nil {
		metrics.SchedulesReconciled.WithLabelValues("rejected").Inc()
		writeError(w, err)
		return
	}
	metrics.SchedulesReconciled.WithLabelValues("applied").Inc()

	loan, err := s.ledger.GetLoan(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Loan    *models.Loan           `json:"loan"`
		Skipped []schedule.SkippedEdit `json:"skipped,omitempty"`
	}{Loan: loan, Skipped: plan.Skipped})
}

func (s *Server) deleteLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}

	if err := s.ledger.DeleteLoan(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) payInstallmentHandler(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}
	instID, ok := pathID(r, "instID")
	if !ok {
		http.Error(w, "Invalid installment ID", http.StatusBadRequest)
		return
	}

	var req struct {
		PaymentDate models.Date `json:"payment_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.PaymentDate.IsZero() {
		req.PaymentDate = models.Today()
	}

	loan, err := s.ledger.PayInstallment(loanID, instID, req.PaymentDate)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.InstallmentsPaid.WithLabelValues("loan").Inc()
	writeJSON(w, http.StatusOK, loan)
}

func (s *Server) updateInstallmentHandler(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}
	instID, ok := pathID(r, "instID")
	if !ok {
		http.Error(w, "Invalid installment ID", http.StatusBadRequest)
		return
	}

	loan, err := s.ledger.GetLoan(loanID)
	if err != nil {
		writeError(w, err)
		return
	}
	var target *models.Installment
	for _, inst := range loan.Installments {
		if inst.ID == instID {
			target = inst
			break
		}
	}
	if target == nil {
		http.Error(w, "Installment not found", http.StatusNotFound)
		return
	}

	var req struct {
		DueDate models.Date     `json:"due_date"`
		Amount  decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !req.DueDate.IsZero() {
		target.DueDate = req.DueDate
	}
	if !req.Amount.IsZero() {
		target.Amount = req.Amount
	}

	if err := s.ledger.UpdateInstallment(target); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, target)
}

func (s *Server) deleteInstallmentHandler(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}
	instID, ok := pathID(r, "instID")
	if !ok {
		http.Error(w, "Invalid installment ID", http.StatusBadRequest)
		return
	}

	if err := s.ledger.DeleteInstallment(loanID, instID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) summaryHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := s.ledger.Summary()
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		*models.Summary
		TotalLentDisplay        string `json:"total_lent_display"`
		TotalCollectedDisplay   string `json:"total_collected_display"`
		TotalOutstandingDisplay string `json:"total_outstanding_display"`
	}{
		Summary:                 summary,
		TotalLentDisplay:        format.Amount(summary.TotalLent),
		TotalCollectedDisplay:   format.Amount(summary.TotalCollected),
		TotalOutstandingDisplay: format.Amount(summary.TotalOutstanding),
	})
}
