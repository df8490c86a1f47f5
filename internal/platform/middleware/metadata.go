package middleware

import (
	"net/http"
	"strings"

	ua "github.com/mssola/useragent"

	"dropspace/pkg/requestcontext"
)

// ClientMetadata extracts the client IP and a parsed platform description from
// the request and adds them to the context. Audit events record both.
// This middleware should be applied early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = requestcontext.WithClientIP(ctx, clientIPFromRequest(r))
		ctx = requestcontext.WithClientPlatform(ctx, describeUserAgent(r.Header.Get("User-Agent")))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// describeUserAgent condenses a raw User-Agent into "browser/version (os)".
// Non-browser clients (curl, SDKs) fall through as the raw string.
func describeUserAgent(raw string) string {
	if raw == "" {
		return ""
	}
	parsed := ua.New(raw)
	name, version := parsed.Browser()
	if name == "" {
		return raw
	}
	desc := name
	if version != "" {
		desc += "/" + version
	}
	if os := parsed.OS(); os != "" {
		desc += " (" + os + ")"
	}
	return desc
}

// clientIPFromRequest extracts the real client IP, handling proxies and load
// balancers.
func clientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs (client, proxy1, proxy2, ...);
	// the first is the original client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if rip := r.Header.Get("X-Real-IP"); rip != "" {
		return strings.TrimSpace(rip)
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return host
}
