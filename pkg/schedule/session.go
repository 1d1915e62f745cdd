package schedule

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mkamanzi/loanbook/pkg/models"
)

var (
	ErrSessionNotReady  = errors.New("edit session is not ready")
	ErrNoPendingChanges = errors.New("no unsaved changes to save")
)

// LoanSnapshot captures every editable field of a loan and its schedule, for
// change detection against the last loaded or saved state.
type LoanSnapshot struct {
	Principal    decimal.Decimal
	InterestRate decimal.Decimal
	TermCount    int
	StartDate    models.Date
	EndDate      models.Date
	Installments []models.Installment
}

// SnapshotOf copies the editable state out of a loan.
func SnapshotOf(loan *models.Loan) LoanSnapshot {
	snap := LoanSnapshot{
		Principal:    loan.Principal,
		InterestRate: loan.InterestRate,
		TermCount:    loan.TermCount,
		StartDate:    loan.StartDate,
		EndDate:      loan.EndDate,
	}
	for _, inst := range loan.Installments {
		snap.Installments = append(snap.Installments, *inst)
	}
	return snap
}

// Equal compares every editable field of both snapshots.
func (s LoanSnapshot) Equal(o LoanSnapshot) bool {
	if !s.Principal.Equal(o.Principal) ||
		!s.InterestRate.Equal(o.InterestRate) ||
		s.TermCount != o.TermCount ||
		!s.StartDate.Equal(o.StartDate.Time) ||
		!s.EndDate.Equal(o.EndDate.Time) ||
		len(s.Installments) != len(o.Installments) {
		return false
	}
	for i := range s.Installments {
		a, b := s.Installments[i], o.Installments[i]
		if a.Sequence != b.Sequence ||
			!a.DueDate.Equal(b.DueDate.Time) ||
			!a.Amount.Equal(b.Amount) ||
			a.Paid != b.Paid {
			return false
		}
	}
	return true
}

// SessionState is the phase of a loan edit session.
type SessionState int

const (
	StateLoading SessionState = iota
	StateReady
	StateSaving
)

// EditSession is the loan edit state machine:
// Loading -> Ready(clean) <-> Ready(dirty) -> Saving -> {Ready(clean)|Ready(dirty)}.
// It is a plain value owned by the caller, not shared state.
type EditSession struct {
	state    SessionState
	dirty    bool
	snapshot LoanSnapshot
	current  LoanSnapshot
	err      error
}

func NewEditSession() *EditSession {
	return &EditSession{state: StateLoading}
}

// Load installs the freshly fetched loan state and enters Ready(clean).
func (s *EditSession) Load(snap LoanSnapshot) {
	s.state = StateReady
	s.snapshot = snap
	s.current = snap
	s.dirty = false
	s.err = nil
}

// Edit replaces the in-progress state and recomputes the dirty flag.
func (s *EditSession) Edit(snap LoanSnapshot) error {
	if s.state != StateReady {
		return ErrSessionNotReady
	}
	s.current = snap
	s.dirty = !s.snapshot.Equal(snap)
	return nil
}

// BeginSave enters Saving. Only permitted from Ready(dirty).
func (s *EditSession) BeginSave() error {
	if s.state != StateReady {
		return ErrSessionNotReady
	}
	if !s.dirty {
		return ErrNoPendingChanges
	}
	s.state = StateSaving
	return nil
}

// SaveSucceeded returns to Ready(clean) with the snapshot advanced to the
// saved state.
func (s *EditSession) SaveSucceeded() {
	s.state = StateReady
	s.snapshot = s.current
	s.dirty = false
	s.err = nil
}

// SaveFailed returns to Ready(dirty): the error is surfaced and the user's
// in-progress edits are kept.
func (s *EditSession) SaveFailed(err error) {
	s.state = StateReady
	s.dirty = true
	s.err = err
}

func (s *EditSession) State() SessionState { return s.state }
func (s *EditSession) Dirty() bool         { return s.dirty }
func (s *EditSession) Err() error          { return s.err }

// Current returns the in-progress edit state.
func (s *EditSession) Current() LoanSnapshot { return s.current }
