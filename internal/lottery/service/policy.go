package service

import "fmt"

// InitPolicy decides what Initialize does when a registry already exists.
type InitPolicy string

const (
	// InitReset wipes any existing registry back to counter 0 with no
	// lotteries. Repeated calls discard all prior lotteries.
	InitReset InitPolicy = "reset"
	// InitOnce refuses to initialize an existing registry.
	InitOnce InitPolicy = "once"
)

func ParseInitPolicy(s string) (InitPolicy, error) {
	switch p := InitPolicy(s); p {
	case InitReset, InitOnce:
		return p, nil
	default:
		return "", fmt.Errorf("unknown init policy %q", s)
	}
}

// CompletionPolicy decides who may complete a lottery and which winners are accepted.
type CompletionPolicy string

const (
	// CompletionCreator requires a verified caller who is the lottery's
	// creator or a configured oracle, and a winner drawn from the participants.
	CompletionCreator CompletionPolicy = "creator"
	// CompletionOpen performs no caller or winner checks.
	CompletionOpen CompletionPolicy = "open"
)

func ParseCompletionPolicy(s string) (CompletionPolicy, error) {
	switch p := CompletionPolicy(s); p {
	case CompletionCreator, CompletionOpen:
		return p, nil
	default:
		return "", fmt.Errorf("unknown completion policy %q", s)
	}
}
