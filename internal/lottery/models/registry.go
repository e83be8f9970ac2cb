package models

import (
	"fmt"
	"math"
	"slices"

	dErrors "lotellar/pkg/domain-errors"
)

// Registry is the aggregate of the id counter and every lottery record.
// A service operation loads it, mutates a private copy and saves it whole.
//
// Invariants:
//   - every key in Lotteries equals its lottery's ID
//   - Counter >= every issued ID; ids are unique
//   - Counter never decreases except through an explicit reset
type Registry struct {
	Counter   ID
	Lotteries map[ID]*Lottery
}

// NewRegistry returns the empty aggregate: counter 0, no lotteries.
func NewRegistry() *Registry {
	return &Registry{Lotteries: make(map[ID]*Lottery)}
}

// NextID returns the id the next created lottery receives.
func (r *Registry) NextID() (ID, error) {
	if r.Counter == math.MaxUint32 {
		return 0, dErrors.New(dErrors.CodeInvariantViolation, "lottery id space exhausted")
	}
	return r.Counter + 1, nil
}

// Add stores l, which must carry the id returned by NextID, and advances the counter.
func (r *Registry) Add(l *Lottery) error {
	next, err := r.NextID()
	if err != nil {
		return err
	}
	if l.ID != next {
		return dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("lottery id %d is not the next id %d", l.ID, next))
	}
	if _, exists := r.Lotteries[l.ID]; exists {
		return dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("lottery id %d already issued", l.ID))
	}
	r.Lotteries[l.ID] = l
	r.Counter = l.ID
	return nil
}

// Get returns the stored lottery (not a copy) for in-transaction mutation.
func (r *Registry) Get(id ID) (*Lottery, error) {
	l, ok := r.Lotteries[id]
	if !ok {
		return nil, NotFound(id)
	}
	return l, nil
}

// List returns copies of all lotteries in ascending id order.
func (r *Registry) List() []*Lottery {
	return r.Filter(func(*Lottery) bool { return true })
}

// Filter returns copies of the lotteries matching keep, ascending by id.
func (r *Registry) Filter(keep func(*Lottery) bool) []*Lottery {
	ids := make([]ID, 0, len(r.Lotteries))
	for id := range r.Lotteries {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]*Lottery, 0, len(ids))
	for _, id := range ids {
		if l := r.Lotteries[id]; keep(l) {
			out = append(out, l.Clone())
		}
	}
	return out
}

// Completed returns copies of completed lotteries in ascending id order.
func (r *Registry) Completed() []*Lottery {
	return r.Filter(func(l *Lottery) bool { return l.IsCompleted })
}

// Open returns copies of lotteries still accepting entries or completion.
func (r *Registry) Open() []*Lottery {
	return r.Filter(func(l *Lottery) bool { return !l.IsCompleted })
}

// Clone returns a deep copy of the registry.
func (r *Registry) Clone() *Registry {
	c := &Registry{Counter: r.Counter, Lotteries: make(map[ID]*Lottery, len(r.Lotteries))}
	for id, l := range r.Lotteries {
		c.Lotteries[id] = l.Clone()
	}
	return c
}

// Validate checks the registry-wide invariants. Stores call it on load so a
// corrupted backend never feeds the service. rejectDuplicates adds the
// distinct-participant rule.
func (r *Registry) Validate(rejectDuplicates bool) error {
	for key, l := range r.Lotteries {
		if l == nil {
			return fmt.Errorf("lottery %d: nil record", key)
		}
		if l.ID != key {
			return fmt.Errorf("lottery key %d holds id %d", key, l.ID)
		}
		if l.ID == 0 || l.ID > r.Counter {
			return fmt.Errorf("lottery %d outside issued range 1..%d", l.ID, r.Counter)
		}
		if uint32(len(l.Participants)) > l.MaxParticipants {
			return fmt.Errorf("lottery %d has %d participants over capacity %d", l.ID, len(l.Participants), l.MaxParticipants)
		}
		if l.IsCompleted && l.Winner == nil {
			return fmt.Errorf("lottery %d completed without a winner", l.ID)
		}
		if !l.IsCompleted && l.Winner != nil {
			return fmt.Errorf("lottery %d has a winner while open", l.ID)
		}
		if rejectDuplicates {
			seen := make(map[Address]struct{}, len(l.Participants))
			for _, p := range l.Participants {
				if _, dup := seen[p]; dup {
					return fmt.Errorf("lottery %d lists participant %q twice", l.ID, p)
				}
				seen[p] = struct{}{}
			}
		}
	}
	return nil
}
