package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkamanzi/loanbook/pkg/models"
)

func testSnapshot(t *testing.T) LoanSnapshot {
	t.Helper()
	installments := testSchedule(t, 3, 130000)
	loan := &models.Loan{
		Principal:    decimal.NewFromInt(100000),
		InterestRate: decimal.NewFromInt(30),
		TermCount:    3,
		StartDate:    models.NewDate(2025, time.January, 10),
		EndDate:      models.NewDate(2025, time.April, 10),
		Installments: installments,
	}
	return SnapshotOf(loan)
}

func TestSessionLoadIsClean(t *testing.T) {
	s := NewEditSession()
	if s.State() != StateLoading {
		t.Fatalf("Expected Loading, got %v", s.State())
	}

	s.Load(testSnapshot(t))
	if s.State() != StateReady {
		t.Errorf("Expected Ready after load, got %v", s.State())
	}
	if s.Dirty() {
		t.Errorf("Expected clean session after load")
	}
}

func TestSessionDirtyFlag(t *testing.T) {
	s := NewEditSession()
	snap := testSnapshot(t)
	s.Load(snap)

	edited := snap
	edited.InterestRate = decimal.NewFromInt(35)
	if err := s.Edit(edited); err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if !s.Dirty() {
		t.Errorf("Expected dirty after rate edit")
	}

	// Reverting the edit clears the flag again.
	if err := s.Edit(snap); err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if s.Dirty() {
		t.Errorf("Expected clean after reverting the edit")
	}
}

func TestSessionInstallmentEditSetsDirty(t *testing.T) {
	s := NewEditSession()
	snap := testSnapshot(t)
	s.Load(snap)

	edited := snap
	edited.Installments = append([]models.Installment(nil), snap.Installments...)
	edited.Installments[2].Amount = decimal.NewFromInt(99999)
	if err := s.Edit(edited); err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if !s.Dirty() {
		t.Errorf("Expected dirty after installment amount edit")
	}
}

func TestSessionSaveLifecycle(t *testing.T) {
	s := NewEditSession()
	snap := testSnapshot(t)
	s.Load(snap)

	// Saving a clean session is refused.
	if err := s.BeginSave(); !errors.Is(err, ErrNoPendingChanges) {
		t.Errorf("Expected ErrNoPendingChanges, got %v", err)
	}

	edited := snap
	edited.TermCount = 4
	if err := s.Edit(edited); err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if err := s.BeginSave(); err != nil {
		t.Fatalf("BeginSave failed: %v", err)
	}
	if s.State() != StateSaving {
		t.Errorf("Expected Saving, got %v", s.State())
	}

	// No edits allowed while a save is in flight.
	if err := s.Edit(snap); !errors.Is(err, ErrSessionNotReady) {
		t.Errorf("Expected ErrSessionNotReady during save, got %v", err)
	}

	s.SaveSucceeded()
	if s.State() != StateReady || s.Dirty() {
		t.Errorf("Expected Ready(clean) after successful save")
	}

	// The snapshot advanced: re-submitting the saved state is not dirty.
	if err := s.Edit(edited); err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if s.Dirty() {
		t.Errorf("Expected clean when edit matches the saved snapshot")
	}
}

func TestSessionFailedSaveKeepsEdits(t *testing.T) {
	s := NewEditSession()
	snap := testSnapshot(t)
	s.Load(snap)

	edited := snap
	edited.Principal = decimal.NewFromInt(200000)
	if err := s.Edit(edited); err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if err := s.BeginSave(); err != nil {
		t.Fatalf("BeginSave failed: %v", err)
	}

	saveErr := errors.New("backend unreachable")
	s.SaveFailed(saveErr)

	if s.State() != StateReady {
		t.Errorf("Expected Ready after failed save, got %v", s.State())
	}
	if !s.Dirty() {
		t.Errorf("Expected session to stay dirty after failed save")
	}
	if !errors.Is(s.Err(), saveErr) {
		t.Errorf("Expected surfaced save error, got %v", s.Err())
	}
	if !s.Current().Principal.Equal(decimal.NewFromInt(200000)) {
		t.Errorf("In-progress edits lost after failed save")
	}
}
