package admin

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	dErrors "lotellar/pkg/domain-errors"
	audit "lotellar/pkg/platform/audit"
	"lotellar/pkg/platform/httputil"
	"lotellar/pkg/requestcontext"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

// AuditReader is the query side of the in-process audit store.
type AuditReader interface {
	ListByLottery(ctx context.Context, lotteryID uint32) ([]audit.Event, error)
	ListByActor(ctx context.Context, actor string) ([]audit.Event, error)
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

// Handler serves operator views over the audit trail.
type Handler struct {
	audit  AuditReader
	logger *slog.Logger
}

func NewHandler(reader AuditReader, logger *slog.Logger) *Handler {
	return &Handler{audit: reader, logger: logger}
}

// Register mounts the admin endpoints. r must already carry the admin token
// middleware.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/audit", h.HandleListAudit)
}

// HandleListAudit serves GET /admin/audit. ?lottery_id and ?actor narrow the
// trail; otherwise the newest ?limit events are returned.
func (h *Handler) HandleListAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var events []audit.Event
	switch {
	case q.Get("lottery_id") != "":
		id, perr := strconv.ParseUint(q.Get("lottery_id"), 10, 32)
		if perr != nil || id == 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "lottery_id must be a positive 32-bit integer"))
			return
		}
		events, err = h.audit.ListByLottery(ctx, uint32(id))
	case strings.TrimSpace(q.Get("actor")) != "":
		events, err = h.audit.ListByActor(ctx, strings.TrimSpace(q.Get("actor")))
	default:
		events, err = h.audit.ListRecent(ctx, limit)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit events",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
		return
	}
	if len(events) > limit {
		events = events[len(events)-limit:]
	}
	httputil.WriteJSON(w, http.StatusOK, FromEvents(events))
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultAuditLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > maxAuditLimit {
		return 0, dErrors.New(dErrors.CodeBadRequest, "limit must be between 1 and 1000")
	}
	return n, nil
}
