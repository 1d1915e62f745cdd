package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/mkamanzi/loanbook/pkg/models"
	"github.com/mkamanzi/loanbook/pkg/schedule"
	"github.com/mkamanzi/loanbook/pkg/store"
)

func setupTestServer(t *testing.T) (*Server, *mux.Router) {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test_api.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	server := NewServer(s)
	return server, server.router()
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func createClientViaAPI(t *testing.T, router *mux.Router) models.Client {
	t.Helper()
	rr := doJSON(t, router, "POST", "/clients", map[string]interface{}{
		"name":  "Claudine Mukamana",
		"phone": "+250788000003",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d. Body: %s", rr.Code, rr.Body.String())
	}
	var client models.Client
	json.Unmarshal(rr.Body.Bytes(), &client)
	return client
}

func createLoanViaAPI(t *testing.T, router *mux.Router, client models.Client) models.Loan {
	t.Helper()
	rr := doJSON(t, router, "POST", "/loans", map[string]interface{}{
		"client_id":     client.ID,
		"principal":     100000,
		"interest_rate": 30,
		"term_count":    3,
		"start_date":    "2025-01-10",
		"end_date":      "2025-04-10",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d. Body: %s", rr.Code, rr.Body.String())
	}
	var loan models.Loan
	json.Unmarshal(rr.Body.Bytes(), &loan)
	return loan
}

func TestAPI_CreateLoanWithSchedule(t *testing.T) {
	_, router := setupTestServer(t)
	client := createClientViaAPI(t, router)
	loan := createLoanViaAPI(t, router, client)

	if !loan.TotalAmount.Equal(decimal.NewFromInt(130000)) {
		t.Errorf("Expected total 130000, got %s", loan.TotalAmount)
	}
	if len(loan.Installments) != 3 {
		t.Fatalf("Expected 3 installments, got %d", len(loan.Installments))
	}
	if loan.Installments[2].DueDate.String() != "2025-04-10" {
		t.Errorf("Expected last due date 2025-04-10, got %s", loan.Installments[2].DueDate)
	}
	if !loan.Installments[2].Amount.Equal(decimal.NewFromInt(43334)) {
		t.Errorf("Expected last amount 43334, got %s", loan.Installments[2].Amount)
	}

	// Fetch it back.
	rr := doJSON(t, router, "GET", "/loans/"+loan.ID.String(), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var fetched models.Loan
	json.Unmarshal(rr.Body.Bytes(), &fetched)
	if fetched.ID != loan.ID {
		t.Errorf("Expected ID %s, got %s", loan.ID, fetched.ID)
	}
}

func TestAPI_CreateLoanValidation(t *testing.T) {
	_, router := setupTestServer(t)
	client := createClientViaAPI(t, router)

	rr := doJSON(t, router, "POST", "/loans", map[string]interface{}{
		"client_id":     client.ID,
		"principal":     -5,
		"interest_rate": 30,
		"term_count":    3,
		"start_date":    "2025-01-10",
		"end_date":      "2025-04-10",
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for negative principal, got %d", rr.Code)
	}

	rr = doJSON(t, router, "POST", "/loans", map[string]interface{}{
		"client_id":     client.ID,
		"principal":     100000,
		"interest_rate": 30,
		"term_count":    3,
		"start_date":    "2025-04-10",
		"end_date":      "2025-01-10",
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for reversed dates, got %d", rr.Code)
	}
}

func TestAPI_PayInstallmentsCompletesLoan(t *testing.T) {
	_, router := setupTestServer(t)
	client := createClientViaAPI(t, router)
	loan := createLoanViaAPI(t, router, client)

	var final models.Loan
	for _, inst := range loan.Installments {
		rr := doJSON(t, router, "POST",
			"/loans/"+loan.ID.String()+"/installments/"+inst.ID.String()+"/pay",
			map[string]interface{}{"payment_date": "2025-02-15"},
		)
		if rr.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
		}
		json.Unmarshal(rr.Body.Bytes(), &final)
	}

	if final.Status != models.LoanStatusCompleted {
		t.Errorf("Expected completed loan, got %s", final.Status)
	}

	// Paying again conflicts.
	rr := doJSON(t, router, "POST",
		"/loans/"+loan.ID.String()+"/installments/"+loan.Installments[0].ID.String()+"/pay",
		map[string]interface{}{"payment_date": "2025-02-16"},
	)
	if rr.Code != http.StatusConflict {
		t.Errorf("Expected status 409 paying twice, got %d", rr.Code)
	}
}

func TestAPI_EditSkipsPaidInstallment(t *testing.T) {
	_, router := setupTestServer(t)
	client := createClientViaAPI(t, router)
	loan := createLoanViaAPI(t, router, client)

	rr := doJSON(t, router, "POST",
		"/loans/"+loan.ID.String()+"/installments/"+loan.Installments[0].ID.String()+"/pay",
		map[string]interface{}{"payment_date": "2025-02-12"},
	)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	// Try to rewrite the paid installment's amount through a loan edit.
	edited := []map[string]interface{}{
		{"id": loan.Installments[0].ID, "sequence": 1, "due_date": "2025-02-10", "amount": 1},
		{"id": loan.Installments[1].ID, "sequence": 2, "due_date": "2025-03-10", "amount": 43333},
		{"id": loan.Installments[2].ID, "sequence": 3, "due_date": "2025-04-10", "amount": 43334},
	}
	rr = doJSON(t, router, "PUT", "/loans/"+loan.ID.String(), map[string]interface{}{
		"principal":     100000,
		"interest_rate": 30,
		"term_count":    3,
		"start_date":    "2025-01-10",
		"end_date":      "2025-04-10",
		"installments":  edited,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Loan    models.Loan            `json:"loan"`
		Skipped []schedule.SkippedEdit `json:"skipped"`
	}
	json.Unmarshal(rr.Body.Bytes(), &resp)

	if len(resp.Skipped) != 1 {
		t.Fatalf("Expected 1 skipped edit, got %d", len(resp.Skipped))
	}
	if !resp.Loan.Installments[0].Amount.Equal(decimal.NewFromInt(43333)) {
		t.Errorf("Paid installment amount changed: got %s", resp.Loan.Installments[0].Amount)
	}
}

func TestAPI_DeletePaidInstallmentConflicts(t *testing.T) {
	_, router := setupTestServer(t)
	client := createClientViaAPI(t, router)
	loan := createLoanViaAPI(t, router, client)

	rr := doJSON(t, router, "POST",
		"/loans/"+loan.ID.String()+"/installments/"+loan.Installments[0].ID.String()+"/pay",
		map[string]interface{}{"payment_date": "2025-02-12"},
	)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	rr = doJSON(t, router, "DELETE",
		"/loans/"+loan.ID.String()+"/installments/"+loan.Installments[0].ID.String(), nil)
	if rr.Code != http.StatusConflict {
		t.Errorf("Expected status 409 deleting paid installment, got %d", rr.Code)
	}

	rr = doJSON(t, router, "DELETE",
		"/loans/"+loan.ID.String()+"/installments/"+loan.Installments[1].ID.String(), nil)
	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected status 204 deleting unpaid installment, got %d. Body: %s", rr.Code, rr.Body.String())
	}
}

func TestAPI_PurchaseFlow(t *testing.T) {
	_, router := setupTestServer(t)
	client := createClientViaAPI(t, router)

	rr := doJSON(t, router, "POST", "/purchase-requests", map[string]interface{}{
		"client_id":     client.ID,
		"product_name":  "Motorcycle",
		"product_price": 1500000,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d. Body: %s", rr.Code, rr.Body.String())
	}
	var request models.PurchaseRequest
	json.Unmarshal(rr.Body.Bytes(), &request)

	rr = doJSON(t, router, "POST", "/purchase-requests/"+request.ID.String()+"/approve", map[string]interface{}{
		"interest_rate": 20,
		"term_count":    6,
		"start_date":    "2025-02-01",
		"end_date":      "2025-08-01",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d. Body: %s", rr.Code, rr.Body.String())
	}
	var purchase models.Purchase
	json.Unmarshal(rr.Body.Bytes(), &purchase)

	if !purchase.ClientPrice.Equal(decimal.NewFromInt(1800000)) {
		t.Errorf("Expected client price 1800000, got %s", purchase.ClientPrice)
	}
	if len(purchase.Payments) != 6 {
		t.Fatalf("Expected 6 payments, got %d", len(purchase.Payments))
	}

	// A second approval conflicts.
	rr = doJSON(t, router, "POST", "/purchase-requests/"+request.ID.String()+"/approve", map[string]interface{}{
		"interest_rate": 20,
		"term_count":    6,
		"start_date":    "2025-02-01",
		"end_date":      "2025-08-01",
	})
	if rr.Code != http.StatusConflict {
		t.Errorf("Expected status 409 on second approval, got %d", rr.Code)
	}
}

func TestAPI_Summary(t *testing.T) {
	_, router := setupTestServer(t)
	client := createClientViaAPI(t, router)
	createLoanViaAPI(t, router, client)

	rr := doJSON(t, router, "GET", "/summary", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var resp struct {
		Clients          int    `json:"clients"`
		ActiveLoans      int    `json:"active_loans"`
		TotalLentDisplay string `json:"total_lent_display"`
	}
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Clients != 1 || resp.ActiveLoans != 1 {
		t.Errorf("Expected 1 client and 1 active loan, got %d and %d", resp.Clients, resp.ActiveLoans)
	}
	if resp.TotalLentDisplay != "100,000" {
		t.Errorf("Expected total lent display 100,000, got %q", resp.TotalLentDisplay)
	}
}
