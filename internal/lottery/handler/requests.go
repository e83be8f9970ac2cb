package handler

import (
	"math/big"
	"strconv"
	"strings"

	"lotellar/internal/lottery/models"
	dErrors "lotellar/pkg/domain-errors"
)

// CreateLotteryRequest is the HTTP request body for POST /lotteries.
// EntryFee is a base-10 integer string so fees beyond float64 precision survive JSON.
type CreateLotteryRequest struct {
	Name            string `json:"name"`
	EntryFee        string `json:"entry_fee"`
	Duration        uint64 `json:"duration"`
	MaxParticipants uint32 `json:"max_participants"`

	parsedFee *big.Int
}

func (r *CreateLotteryRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.EntryFee = strings.TrimSpace(r.EntryFee)
}

// Validate implements httputil.Preparable. Range checks beyond shape are
// left to the service.
func (r *CreateLotteryRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if r.EntryFee == "" {
		return dErrors.New(dErrors.CodeValidation, "entry_fee is required")
	}
	fee, ok := new(big.Int).SetString(r.EntryFee, 10)
	if !ok {
		return dErrors.New(dErrors.CodeValidation, "entry_fee must be a base-10 integer")
	}
	r.parsedFee = fee
	if r.MaxParticipants == 0 {
		return dErrors.New(dErrors.CodeValidation, "max_participants must be positive")
	}
	return nil
}

func (r *CreateLotteryRequest) ParsedEntryFee() *big.Int {
	return r.parsedFee
}

// CompleteLotteryRequest is the HTTP request body for POST /lotteries/{id}/complete.
type CompleteLotteryRequest struct {
	Winner string `json:"winner"`

	parsedWinner models.Address
}

func (r *CompleteLotteryRequest) Normalize() {
	r.Winner = strings.TrimSpace(r.Winner)
}

func (r *CompleteLotteryRequest) Validate() error {
	winner, err := models.ParseAddress(r.Winner)
	if err != nil {
		return err
	}
	r.parsedWinner = winner
	return nil
}

func (r *CompleteLotteryRequest) ParsedWinner() models.Address {
	return r.parsedWinner
}

func parseLotteryID(raw string) (models.ID, error) {
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || n == 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "lottery id must be a positive 32-bit integer")
	}
	return models.ID(n), nil
}
