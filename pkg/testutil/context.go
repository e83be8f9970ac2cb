package testutil

import (
	"net/http"

	"lotellar/pkg/requestcontext"
)

// WithPrincipal authenticates req as address, the way RequireAuth does after
// a bearer token validates. An empty address leaves the request anonymous.
func WithPrincipal(req *http.Request, address string) *http.Request {
	if address == "" {
		return req
	}
	return req.WithContext(requestcontext.WithPrincipal(req.Context(), address))
}
