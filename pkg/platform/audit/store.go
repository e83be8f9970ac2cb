package audit

import (
	"context"
	"fmt"
)

// Store persists audit events. Implementations must be safe for concurrent use.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Fanout appends every event to each store in order and stops at the first
// failure. Stores earlier in the list keep events a later store rejected.
type Fanout []Store

func (f Fanout) Append(ctx context.Context, event Event) error {
	for i, s := range f {
		if err := s.Append(ctx, event); err != nil {
			return fmt.Errorf("audit sink %d: %w", i, err)
		}
	}
	return nil
}
