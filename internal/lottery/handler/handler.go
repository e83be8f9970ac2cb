package handler

import (
	"context"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"lotellar/internal/lottery/models"
	dErrors "lotellar/pkg/domain-errors"
	"lotellar/pkg/platform/httputil"
	"lotellar/pkg/requestcontext"
)

// Service defines the interface for lottery operations.
type Service interface {
	Initialize(ctx context.Context) error
	CreateLottery(ctx context.Context, creator models.Address, name string, entryFee *big.Int, duration uint64, maxParticipants uint32) (models.ID, error)
	EnterLottery(ctx context.Context, participant models.Address, id models.ID) error
	CompleteLottery(ctx context.Context, caller models.Address, id models.ID, winner models.Address) error
	GetAllLotteries(ctx context.Context) ([]*models.Lottery, error)
	GetCompletedLotteries(ctx context.Context) ([]*models.Lottery, error)
	GetOpenLotteries(ctx context.Context) ([]*models.Lottery, error)
	GetLottery(ctx context.Context, id models.ID) (*models.Lottery, error)
	GetLotteryCount(ctx context.Context) (models.ID, error)
}

// Handler wires lottery endpoints to the lottery service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the anonymous read endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/lotteries", h.HandleList)
	r.Get("/lotteries/completed", h.HandleListCompleted)
	r.Get("/lotteries/count", h.HandleCount)
	r.Get("/lotteries/{id}", h.HandleGet)
}

// RegisterAuthenticated mounts the caller endpoints. r must already carry
// the bearer token middleware.
func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Post("/lotteries", h.HandleCreate)
	r.Post("/lotteries/{id}/entries", h.HandleEnter)
	r.Post("/lotteries/{id}/complete", h.HandleComplete)
}

// RegisterAdmin mounts operator endpoints. r must already carry the admin
// token middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/registry/initialize", h.HandleInitialize)
}

func (h *Handler) HandleInitialize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Initialize(ctx); err != nil {
		h.fail(ctx, w, "registry initialization failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateLotteryRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	id, err := h.service.CreateLottery(ctx, caller, req.Name, req.ParsedEntryFee(), req.Duration, req.MaxParticipants)
	if err != nil {
		h.fail(ctx, w, "lottery creation failed", err)
		return
	}
	w.Header().Set("Location", "/lotteries/"+strconv.FormatUint(uint64(id), 10))
	httputil.WriteJSON(w, http.StatusCreated, CreateLotteryResponse{ID: uint32(id)})
}

func (h *Handler) HandleEnter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, err := parseLotteryID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.EnterLottery(ctx, caller, id); err != nil {
		h.fail(ctx, w, "lottery entry failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, err := parseLotteryID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[CompleteLotteryRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.CompleteLottery(ctx, caller, id, req.ParsedWinner()); err != nil {
		h.fail(ctx, w, "lottery completion failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleList serves GET /lotteries, optionally narrowed by ?status=open|completed.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		lotteries []*models.Lottery
		err       error
	)
	switch status := r.URL.Query().Get("status"); models.Status(status) {
	case "":
		lotteries, err = h.service.GetAllLotteries(ctx)
	case models.StatusOpen:
		lotteries, err = h.service.GetOpenLotteries(ctx)
	case models.StatusCompleted:
		lotteries, err = h.service.GetCompletedLotteries(ctx)
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "status must be open or completed"))
		return
	}
	if err != nil {
		h.fail(ctx, w, "lottery listing failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromLotteries(lotteries))
}

func (h *Handler) HandleListCompleted(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lotteries, err := h.service.GetCompletedLotteries(ctx)
	if err != nil {
		h.fail(ctx, w, "lottery listing failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromLotteries(lotteries))
}

func (h *Handler) HandleCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	count, err := h.service.GetLotteryCount(ctx)
	if err != nil {
		h.fail(ctx, w, "lottery count failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CountResponse{Count: uint32(count)})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := parseLotteryID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	lottery, err := h.service.GetLottery(ctx, id)
	if err != nil {
		h.fail(ctx, w, "lottery lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromLottery(lottery))
}

// caller returns the authenticated principal, writing 401 when there is none.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (models.Address, bool) {
	principal := requestcontext.Principal(r.Context())
	if principal == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return "", false
	}
	return models.Address(principal), true
}

// fail logs err at a level matching its code and writes the error response.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
