package auth

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"lotellar/internal/lottery/models"
	dErrors "lotellar/pkg/domain-errors"
	"lotellar/pkg/platform/httputil"
	"lotellar/pkg/requestcontext"
)

const (
	defaultTokenTTL = time.Hour
	maxTokenTTL     = 24 * time.Hour
)

// Handler exposes operator endpoints for minting and revoking caller tokens.
// Mount it behind the admin token middleware.
type Handler struct {
	tokens      *TokenService
	revocations Revocations
	logger      *slog.Logger
}

func NewHandler(tokens *TokenService, revocations Revocations, logger *slog.Logger) *Handler {
	return &Handler{tokens: tokens, revocations: revocations, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/tokens", h.HandleIssue)
	r.Post("/admin/tokens/revoke", h.HandleRevoke)
}

type IssueTokenRequest struct {
	Address    string `json:"address"`
	TTLSeconds int64  `json:"ttl_seconds"`

	parsedAddress models.Address
}

func (r *IssueTokenRequest) Normalize() {
	r.Address = strings.TrimSpace(r.Address)
}

func (r *IssueTokenRequest) Validate() error {
	addr, err := models.ParseAddress(r.Address)
	if err != nil {
		return err
	}
	r.parsedAddress = addr
	if r.TTLSeconds < 0 || time.Duration(r.TTLSeconds)*time.Second > maxTokenTTL {
		return dErrors.New(dErrors.CodeValidation, "ttl_seconds must be between 0 and 86400")
	}
	return nil
}

func (r *IssueTokenRequest) ttl() time.Duration {
	if r.TTLSeconds == 0 {
		return defaultTokenTTL
	}
	return time.Duration(r.TTLSeconds) * time.Second
}

type IssueTokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[IssueTokenRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	token, err := h.tokens.IssueToken(req.parsedAddress, req.ttl())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue token",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "token_issued",
		"request_id", requestID,
		"subject", req.parsedAddress,
		"log_type", "audit",
	)
	httputil.WriteJSON(w, http.StatusCreated, IssueTokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   h.tokens.now().Add(req.ttl()).UTC().Truncate(time.Second),
	})
}

type RevokeTokenRequest struct {
	Token string `json:"token"`
}

func (r *RevokeTokenRequest) Normalize() {
	r.Token = strings.TrimSpace(r.Token)
}

func (r *RevokeTokenRequest) Validate() error {
	if r.Token == "" {
		return dErrors.New(dErrors.CodeValidation, "token is required")
	}
	return nil
}

func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RevokeTokenRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	claims, err := h.tokens.ValidateToken(req.Token)
	if err != nil {
		// Expired or forged tokens are already unusable.
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "token is not a live token"))
		return
	}
	if err := h.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		h.logger.ErrorContext(ctx, "failed to revoke token",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token"))
		return
	}

	h.logger.InfoContext(ctx, "token_revoked",
		"request_id", requestID,
		"subject", claims.Subject,
		"jti", claims.ID,
		"log_type", "audit",
	)
	w.WriteHeader(http.StatusNoContent)
}
