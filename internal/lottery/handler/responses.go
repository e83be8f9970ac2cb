package handler

import (
	"time"

	"lotellar/internal/lottery/models"
)

// LotteryResponse is the wire form of a lottery. EntryFee is a decimal string.
type LotteryResponse struct {
	ID              uint32    `json:"id"`
	Name            string    `json:"name"`
	EntryFee        string    `json:"entry_fee"`
	Duration        uint64    `json:"duration"`
	MaxParticipants uint32    `json:"max_participants"`
	Participants    []string  `json:"participants"`
	Winner          *string   `json:"winner,omitempty"`
	WinnerTxHash    *string   `json:"winner_tx_hash,omitempty"`
	IsCompleted     bool      `json:"is_completed"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	Creator         string    `json:"creator"`
}

type LotteryListResponse struct {
	Lotteries []LotteryResponse `json:"lotteries"`
}

type CreateLotteryResponse struct {
	ID uint32 `json:"id"`
}

type CountResponse struct {
	Count uint32 `json:"count"`
}

func FromLottery(l *models.Lottery) LotteryResponse {
	resp := LotteryResponse{
		ID:              uint32(l.ID),
		Name:            l.Name,
		EntryFee:        l.EntryFee.String(),
		Duration:        l.Duration,
		MaxParticipants: l.MaxParticipants,
		Participants:    make([]string, len(l.Participants)),
		WinnerTxHash:    l.WinnerTxHash,
		IsCompleted:     l.IsCompleted,
		Status:          string(l.Status()),
		CreatedAt:       l.CreatedAt,
		Creator:         string(l.Creator),
	}
	for i, p := range l.Participants {
		resp.Participants[i] = string(p)
	}
	if l.Winner != nil {
		w := string(*l.Winner)
		resp.Winner = &w
	}
	return resp
}

func FromLotteries(lotteries []*models.Lottery) LotteryListResponse {
	resp := LotteryListResponse{Lotteries: make([]LotteryResponse, len(lotteries))}
	for i, l := range lotteries {
		resp.Lotteries[i] = FromLottery(l)
	}
	return resp
}
