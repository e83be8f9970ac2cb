package models

import "fmt"

// Revision selects which generation of registry behaviour is active.
type Revision string

const (
	// RevisionV1 supports create, enter and the two list queries only.
	RevisionV1 Revision = "v1"
	// RevisionV2 adds initialize, completion, the count query and rejects
	// duplicate participants.
	RevisionV2 Revision = "v2"
)

// ParseRevision accepts "v1" or "v2".
func ParseRevision(s string) (Revision, error) {
	switch r := Revision(s); r {
	case RevisionV1, RevisionV2:
		return r, nil
	default:
		return "", fmt.Errorf("unknown revision %q", s)
	}
}

// RejectsDuplicates reports whether a participant may enter a lottery only once.
func (r Revision) RejectsDuplicates() bool { return r == RevisionV2 }

// SupportsCompletion reports whether lotteries can reach the completed state.
func (r Revision) SupportsCompletion() bool { return r == RevisionV2 }

// SupportsInitialize reports whether the registry exposes explicit initialization.
func (r Revision) SupportsInitialize() bool { return r == RevisionV2 }

// SupportsCount reports whether the issued-id counter is queryable.
func (r Revision) SupportsCount() bool { return r == RevisionV2 }
