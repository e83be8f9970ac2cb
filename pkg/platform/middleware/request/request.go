// Package request assigns every HTTP request an id and exposes it to handlers
// and services through requestcontext.
package request

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"lotellar/pkg/requestcontext"
)

// HeaderRequestID carries the request id in and out of the service.
const HeaderRequestID = "X-Request-ID"

// maxInboundIDLen bounds ids accepted from upstream proxies.
const maxInboundIDLen = 128

// RequestID reuses an inbound X-Request-ID when present, otherwise mints a
// UUID, stores it in the context and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" || len(id) > maxInboundIDLen {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(requestcontext.WithRequestID(r.Context(), id)))
	})
}

func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
