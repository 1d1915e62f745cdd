package main

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkamanzi/loanbook/pkg/metrics"
	"github.com/mkamanzi/loanbook/pkg/models"
)

func (s *Server) createPurchaseRequestHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID     uuid.UUID       `json:"client_id"`
		ProductName  string          `json:"product_name"`
		ProductPrice decimal.Decimal `json:"product_price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ProductName == "" {
		http.Error(w, "Product name is required", http.StatusBadRequest)
		return
	}

	request, err := s.ledger.RequestPurchase(req.ClientID, req.ProductName, req.ProductPrice)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, request)
}

func (s *Server) listPurchaseRequestsHandler(w http.ResponseWriter, r *http.Request) {
	requests, err := s.ledger.ListPurchaseRequests()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

func (s *Server) approvePurchaseRequestHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid purchase request ID", http.StatusBadRequest)
		return
	}

	var req struct {
		InterestRate decimal.Decimal `json:"interest_rate"`
		TermCount    int             `json:"term_count"`
		StartDate    models.Date     `json:"start_date"`
		EndDate      models.Date     `json:"end_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	purchase, err := s.ledger.ApprovePurchaseRequest(id, req.InterestRate, req.TermCount, req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, purchase)
}

func (s *Server) rejectPurchaseRequestHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid purchase request ID", http.StatusBadRequest)
		return
	}

	request, err := s.ledger.RejectPurchaseRequest(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}

func (s *Server) listPurchasesHandler(w http.ResponseWriter, r *http.Request) {
	purchases, err := s.ledger.ListPurchases()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, purchases)
}

func (s *Server) getPurchaseHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid purchase ID", http.StatusBadRequest)
		return
	}

	purchase, err := s.ledger.GetPurchase(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, purchase)
}

func (s *Server) payProductPaymentHandler(w http.ResponseWriter, r *http.Request) {
	purchaseID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid purchase ID", http.StatusBadRequest)
		return
	}
	paymentID, ok := pathID(r, "paymentID")
	if !ok {
		http.Error(w, "Invalid payment ID", http.StatusBadRequest)
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

	purchase, err := s.ledger.PayProductPayment(purchaseID, paymentID, req.PaymentDate)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.InstallmentsPaid.WithLabelValues("purchase").Inc()
	writeJSON(w, http.StatusOK, purchase)
}
