package testutil

import (
	"net/http"
	"time"

	"dropspace/pkg/requestcontext"
)

// WithRequestTime pins the request clock so sale-window checks are
// deterministic. Only useful on routers that do not stamp their own time.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// WithBearerToken sets the Authorization header the auth middleware expects.
func WithBearerToken(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
