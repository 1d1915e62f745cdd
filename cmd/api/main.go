package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"

	"github.com/mkamanzi/loanbook/pkg/config"
	"github.com/mkamanzi/loanbook/pkg/models"
	"github.com/mkamanzi/loanbook/pkg/store"
)

func main() {
	cfg := config.Load()

	sqliteStore, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize SQLite store: %v", err)
	}
	defer sqliteStore.Close()

	server := NewServer(sqliteStore)
	router := server.router()

	// Flag overdue installments on startup and then periodically.
	if !cfg.SweepDisabled {
		go func() {
			sweep := func() {
				flagged, err := server.ledger.FlagOverdue(models.Today())
				if err != nil {
					log.Printf("Overdue sweep failed: %v", err)
					return
				}
				if flagged > 0 {
					log.Printf("Flagged %d installments as overdue", flagged)
				}
			}
			sweep()

			ticker := time.NewTicker(cfg.OverdueSweep)
			defer ticker.Stop()
			for range ticker.C {
				sweep()
			}
		}()
	}

	handler := handlers.CORS(
		handlers.AllowedOrigins(cfg.CORSOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(router)
	handler = handlers.LoggingHandler(os.Stdout, handler)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("Server starting on %s", addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}
