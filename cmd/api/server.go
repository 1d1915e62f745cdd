package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mkamanzi/loanbook/pkg/calc"
	"github.com/mkamanzi/loanbook/pkg/ledger"
	"github.com/mkamanzi/loanbook/pkg/metrics"
	"github.com/mkamanzi/loanbook/pkg/models"
	"github.com/mkamanzi/loanbook/pkg/schedule"
	"github.com/mkamanzi/loanbook/pkg/store"
)

// Server holds the ledger instance.
type Server struct {
	ledger  *ledger.Ledger
	storage store.Storage // Keep a reference to the storage to close it
}

func NewServer(s store.Storage) *Server {
	return &Server{
		ledger:  ledger.NewLedger(s),
		storage: s,
	}
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(metricsMiddleware)

	r.HandleFunc("/clients", s.listClientsHandler).Methods("GET")
	r.HandleFunc("/clients", s.createClientHandler).Methods("POST")
	r.HandleFunc("/clients/{id}", s.getClientHandler).Methods("GET")
	r.HandleFunc("/clients/{id}", s.updateClientHandler).Methods("PUT")
	r.HandleFunc("/clients/{id}", s.deleteClientHandler).Methods("DELETE")
	r.HandleFunc("/clients/{id}/loans", s.listClientLoansHandler).Methods("GET")

	r.HandleFunc("/loans", s.listLoansHandler).Methods("GET")
	r.HandleFunc("/loans", s.createLoanHandler).Methods("POST")
	r.HandleFunc("/loans/{id}", s.getLoanHandler).Methods("GET")
	r.HandleFunc("/loans/{id}", s.updateLoanHandler).Methods("PUT")
	r.HandleFunc("/loans/{id}", s.deleteLoanHandler).Methods("DELETE")
	r.HandleFunc("/loans/{id}/installments/{instID}", s.updateInstallmentHandler).Methods("PUT")
	r.HandleFunc("/loans/{id}/installments/{instID}", s.deleteInstallmentHandler).Methods("DELETE")
	r.HandleFunc("/loans/{id}/installments/{instID}/pay", s.payInstallmentHandler).Methods("POST")

	r.HandleFunc("/purchase-requests", s.listPurchaseRequestsHandler).Methods("GET")
	r.HandleFunc("/purchase-requests", s.createPurchaseRequestHandler).Methods("POST")
	r.HandleFunc("/purchase-requests/{id}/approve", s.approvePurchaseRequestHandler).Methods("POST")
	r.HandleFunc("/purchase-requests/{id}/reject", s.rejectPurchaseRequestHandler).Methods("POST")
	r.HandleFunc("/purchases", s.listPurchasesHandler).Methods("GET")
	r.HandleFunc("/purchases/{id}", s.getPurchaseHandler).Methods("GET")
	r.HandleFunc("/purchases/{id}/payments/{paymentID}/pay", s.payProductPaymentHandler).Methods("POST")

	r.HandleFunc("/summary", s.summaryHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return r
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		metrics.APIRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, models.ErrInstallmentPaid),
		errors.Is(err, ledger.ErrRequestNotPending):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, calc.ErrInvalidPrincipal),
		errors.Is(err, calc.ErrNegativeRate),
		errors.Is(err, calc.ErrInvalidTerm),
		errors.Is(err, schedule.ErrInvalidCount),
		errors.Is(err, schedule.ErrInvalidDates),
		errors.Is(err, ledger.ErrClientNameRequired):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("Internal error: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func pathID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	return id, err == nil
}
