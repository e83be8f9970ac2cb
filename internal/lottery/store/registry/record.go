package registry

import (
	"fmt"
	"math/big"
	"strconv"
	"time"

	"lotellar/internal/lottery/models"
)

// lotteryRecord is the stored shape of a lottery for the document backends
// (redis hash values, mongo sub-documents). Fee and duration travel as decimal
// strings: the fee is arbitrary precision and BSON has no unsigned 64-bit type.
type lotteryRecord struct {
	ID              uint32    `json:"id" bson:"id"`
	Name            string    `json:"name" bson:"name"`
	EntryFee        string    `json:"entry_fee" bson:"entry_fee"`
	Duration        string    `json:"duration" bson:"duration"`
	MaxParticipants uint32    `json:"max_participants" bson:"max_participants"`
	Participants    []string  `json:"participants" bson:"participants"`
	Winner          *string   `json:"winner,omitempty" bson:"winner,omitempty"`
	WinnerTxHash    *string   `json:"winner_tx_hash,omitempty" bson:"winner_tx_hash,omitempty"`
	IsCompleted     bool      `json:"is_completed" bson:"is_completed"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	Creator         string    `json:"creator" bson:"creator"`
}

func toRecord(l *models.Lottery) lotteryRecord {
	r := lotteryRecord{
		ID:              uint32(l.ID),
		Name:            l.Name,
		EntryFee:        l.EntryFee.String(),
		Duration:        strconv.FormatUint(l.Duration, 10),
		MaxParticipants: l.MaxParticipants,
		Participants:    make([]string, len(l.Participants)),
		IsCompleted:     l.IsCompleted,
		CreatedAt:       l.CreatedAt,
		Creator:         string(l.Creator),
	}
	for i, p := range l.Participants {
		r.Participants[i] = string(p)
	}
	if l.Winner != nil {
		w := string(*l.Winner)
		r.Winner = &w
	}
	if l.WinnerTxHash != nil {
		h := *l.WinnerTxHash
		r.WinnerTxHash = &h
	}
	return r
}

func (r lotteryRecord) toModel() (*models.Lottery, error) {
	fee, ok := new(big.Int).SetString(r.EntryFee, 10)
	if !ok {
		return nil, fmt.Errorf("lottery %d: malformed entry fee %q", r.ID, r.EntryFee)
	}
	duration, err := strconv.ParseUint(r.Duration, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("lottery %d: malformed duration %q: %w", r.ID, r.Duration, err)
	}
	l := &models.Lottery{
		ID:              models.ID(r.ID),
		Name:            r.Name,
		EntryFee:        fee,
		Duration:        duration,
		MaxParticipants: r.MaxParticipants,
		Participants:    make([]models.Address, len(r.Participants)),
		IsCompleted:     r.IsCompleted,
		CreatedAt:       r.CreatedAt.UTC(),
		Creator:         models.Address(r.Creator),
	}
	for i, p := range r.Participants {
		l.Participants[i] = models.Address(p)
	}
	if r.Winner != nil {
		w := models.Address(*r.Winner)
		l.Winner = &w
	}
	if r.WinnerTxHash != nil {
		h := *r.WinnerTxHash
		l.WinnerTxHash = &h
	}
	return l, nil
}
