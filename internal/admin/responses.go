package admin

import (
	"time"

	audit "lotellar/pkg/platform/audit"
)

// AuditEventResponse is the HTTP response DTO for one audit event.
type AuditEventResponse struct {
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor,omitempty"`
	LotteryID uint32    `json:"lottery_id,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// AuditListResponse wraps the list of audit events for HTTP response.
type AuditListResponse struct {
	Events []*AuditEventResponse `json:"events"`
	Total  int                   `json:"total"`
}

func FromEvents(events []audit.Event) *AuditListResponse {
	out := make([]*AuditEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, &AuditEventResponse{
			Category:  string(e.Category),
			Timestamp: e.Timestamp,
			Action:    e.Action,
			Actor:     e.Actor,
			LotteryID: e.LotteryID,
			Subject:   e.Subject,
			Reason:    e.Reason,
			RequestID: e.RequestID,
		})
	}
	return &AuditListResponse{Events: out, Total: len(out)}
}
