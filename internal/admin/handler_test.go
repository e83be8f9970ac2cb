package admin

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "lotellar/pkg/platform/audit"
	"lotellar/pkg/platform/audit/store/memory"
	"lotellar/pkg/testutil"
)

func newAuditRouter(t *testing.T) http.Handler {
	t.Helper()
	store := memory.NewInMemoryStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, e := range []audit.Event{
		{Action: string(audit.EventLotteryCreated), Actor: "GCREATOR", LotteryID: 1},
		{Action: string(audit.EventLotteryEntered), Actor: "GP1", LotteryID: 1},
		{Action: string(audit.EventLotteryCreated), Actor: "GCREATOR", LotteryID: 2},
		{Action: string(audit.EventLotteryCompleted), Actor: "GCREATOR", LotteryID: 1, Subject: "GP1"},
	} {
		e.Timestamp = base.Add(time.Duration(i) * time.Minute)
		e.Category = audit.AuditEvent(e.Action).Category()
		require.NoError(t, store.Append(context.Background(), e))
	}

	r := chi.NewRouter()
	NewHandler(store, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r
}

func TestHandleListAudit(t *testing.T) {
	router := newAuditRouter(t)

	t.Run("recent events newest first", func(t *testing.T) {
		rec := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodGet, "/admin/audit?limit=2", ""))
		testutil.AssertStatus(t, rec, http.StatusOK)
		resp := testutil.UnmarshalResponse[AuditListResponse](t, rec)
		require.Equal(t, 2, resp.Total)
		assert.Equal(t, string(audit.EventLotteryCompleted), resp.Events[0].Action)
		assert.Equal(t, "compliance", resp.Events[0].Category)
		assert.Equal(t, "GP1", resp.Events[0].Subject)
	})

	t.Run("filter by lottery", func(t *testing.T) {
		rec := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodGet, "/admin/audit?lottery_id=1", ""))
		testutil.AssertStatus(t, rec, http.StatusOK)
		resp := testutil.UnmarshalResponse[AuditListResponse](t, rec)
		assert.Equal(t, 3, resp.Total)
	})

	t.Run("filter by actor", func(t *testing.T) {
		rec := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodGet, "/admin/audit?actor=GP1", ""))
		testutil.AssertStatus(t, rec, http.StatusOK)
		resp := testutil.UnmarshalResponse[AuditListResponse](t, rec)
		require.Equal(t, 1, resp.Total)
		assert.Equal(t, string(audit.EventLotteryEntered), resp.Events[0].Action)
	})

	t.Run("empty trail encodes as empty list", func(t *testing.T) {
		rec := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodGet, "/admin/audit?actor=GNOBODY", ""))
		testutil.AssertStatus(t, rec, http.StatusOK)
		assert.JSONEq(t, `{"events":[],"total":0}`, rec.Body.String())
	})

	for _, path := range []string{"/admin/audit?limit=0", "/admin/audit?limit=1001", "/admin/audit?lottery_id=x", "/admin/audit?lottery_id=0"} {
		t.Run("rejects "+path, func(t *testing.T) {
			rec := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodGet, path, ""))
			testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, "bad_request")
		})
	}
}
