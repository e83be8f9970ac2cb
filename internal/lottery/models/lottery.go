package models

import (
	"math/big"
	"slices"
	"time"

	dErrors "lotellar/pkg/domain-errors"
)

const maxNameLen = 128

// ID identifies a lottery. Ids are issued as counter+1 and never reused.
type ID uint32

// Status is the lifecycle state of a lottery.
type Status string

const (
	StatusOpen      Status = "open"
	StatusCompleted Status = "completed"
)

// CanTransitionTo reports whether next is reachable from s.
// Open → Completed is the only transition.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusOpen && next == StatusCompleted
}

// Lottery is the aggregate root for a single drawing.
//
// Invariants:
//   - ID, Name, EntryFee, Duration, MaxParticipants, CreatedAt and Creator
//     are immutable after construction
//   - len(Participants) <= MaxParticipants
//   - Participants only grow while open and are frozen once completed
//   - Completed implies Winner is set; Winner is written exactly once
//   - WinnerTxHash is reserved and never written by this package
//
// Duration is recorded for clients but is not enforced: reaching it does not
// close the lottery.
type Lottery struct {
	ID              ID        `json:"id"`
	Name            string    `json:"name"`
	EntryFee        *big.Int  `json:"entry_fee"`
	Duration        uint64    `json:"duration"`
	MaxParticipants uint32    `json:"max_participants"`
	Participants    []Address `json:"participants"`
	Winner          *Address  `json:"winner,omitempty"`
	WinnerTxHash    *string   `json:"winner_tx_hash,omitempty"`
	IsCompleted     bool      `json:"is_completed"`
	CreatedAt       time.Time `json:"created_at"`
	Creator         Address   `json:"creator"`
}

// NewLottery validates inputs and returns an open lottery with no participants.
func NewLottery(
	id ID,
	creator Address,
	name string,
	entryFee *big.Int,
	duration uint64,
	maxParticipants uint32,
	now time.Time,
) (*Lottery, error) {
	if id == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "lottery id must be positive")
	}
	if creator == "" {
		return nil, InvalidInput("creator cannot be empty")
	}
	if name == "" {
		return nil, InvalidInput("lottery name cannot be empty")
	}
	if len(name) > maxNameLen {
		return nil, InvalidInput("lottery name must be %d characters or less", maxNameLen)
	}
	if entryFee == nil {
		return nil, InvalidInput("entry fee is required")
	}
	if maxParticipants == 0 {
		return nil, InvalidInput("max participants must be positive")
	}
	return &Lottery{
		ID:              id,
		Name:            name,
		EntryFee:        new(big.Int).Set(entryFee),
		Duration:        duration,
		MaxParticipants: maxParticipants,
		Participants:    []Address{},
		CreatedAt:       now,
		Creator:         creator,
	}, nil
}

// Status derives the lifecycle state from IsCompleted.
func (l *Lottery) Status() Status {
	if l.IsCompleted {
		return StatusCompleted
	}
	return StatusOpen
}

func (l *Lottery) IsFull() bool {
	return uint32(len(l.Participants)) >= l.MaxParticipants
}

func (l *Lottery) HasParticipant(a Address) bool {
	return slices.Contains(l.Participants, a)
}

// CanEnter checks whether p may join. Checks run in a fixed order:
// completed, then capacity, then (when rejectDuplicates) membership.
func (l *Lottery) CanEnter(p Address, rejectDuplicates bool) error {
	if l.IsCompleted {
		return kindError(ErrAlreadyCompleted, dErrors.CodeConflict, "lottery %d", l.ID)
	}
	if l.IsFull() {
		return kindError(ErrFull, dErrors.CodeConflict, "lottery %d holds %d of %d", l.ID, len(l.Participants), l.MaxParticipants)
	}
	if rejectDuplicates && l.HasParticipant(p) {
		return kindError(ErrDuplicateParticipant, dErrors.CodeConflict, "lottery %d, participant %q", l.ID, p)
	}
	return nil
}

// ApplyEntry appends p. Call CanEnter first.
func (l *Lottery) ApplyEntry(p Address) {
	l.Participants = append(l.Participants, p)
}

// Enter validates and applies an entry in one call.
func (l *Lottery) Enter(p Address, rejectDuplicates bool) error {
	if err := l.CanEnter(p, rejectDuplicates); err != nil {
		return err
	}
	l.ApplyEntry(p)
	return nil
}

// CanComplete checks the Open → Completed transition. When requireMembership
// is set the winner must already be a participant.
func (l *Lottery) CanComplete(winner Address, requireMembership bool) error {
	if !l.Status().CanTransitionTo(StatusCompleted) {
		return kindError(ErrAlreadyCompleted, dErrors.CodeConflict, "lottery %d", l.ID)
	}
	if requireMembership && !l.HasParticipant(winner) {
		return kindError(ErrWinnerNotParticipant, dErrors.CodeValidation, "lottery %d, winner %q", l.ID, winner)
	}
	return nil
}

// ApplyCompletion freezes the lottery with winner. Call CanComplete first.
func (l *Lottery) ApplyCompletion(winner Address) {
	w := winner
	l.Winner = &w
	l.IsCompleted = true
}

// Complete validates and applies completion in one call.
func (l *Lottery) Complete(winner Address, requireMembership bool) error {
	if err := l.CanComplete(winner, requireMembership); err != nil {
		return err
	}
	l.ApplyCompletion(winner)
	return nil
}

// Clone returns a deep copy so callers cannot mutate registry state.
func (l *Lottery) Clone() *Lottery {
	c := *l
	if l.EntryFee != nil {
		c.EntryFee = new(big.Int).Set(l.EntryFee)
	}
	c.Participants = append(make([]Address, 0, len(l.Participants)), l.Participants...)
	if l.Winner != nil {
		w := *l.Winner
		c.Winner = &w
	}
	if l.WinnerTxHash != nil {
		h := *l.WinnerTxHash
		c.WinnerTxHash = &h
	}
	return &c
}
