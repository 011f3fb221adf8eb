package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSPolicy describes which cross-origin requests the edge accepts.
type CORSPolicy struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// WithCORS emits CORS headers for allowed origins and short-circuits
// preflight requests. With no allowed origins it passes everything through.
func WithCORS(cfg CORSPolicy) Middleware {
	origins := normalizeList(cfg.AllowedOrigins)
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	methods := strings.Join(normalizeList(cfg.AllowedMethods), ", ")
	headerList := strings.Join(normalizeList(cfg.AllowedHeaders), ", ")
	maxAge := ""
	if secs := int(cfg.MaxAge.Seconds()); secs > 0 {
		maxAge = strconv.Itoa(secs)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allowOrigin, ok := resolveOrigin(origin, origins, cfg.AllowCredentials)
			if origin == "" || !ok {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allowOrigin)
			if cfg.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			if methods != "" {
				h.Set("Access-Control-Allow-Methods", methods)
			}
			if headerList != "" {
				h.Set("Access-Control-Allow-Headers", headerList)
			}
			if maxAge != "" {
				h.Set("Access-Control-Max-Age", maxAge)
			}
			h.Add("Vary", "Origin")
			h.Add("Vary", "Access-Control-Request-Method")
			h.Add("Vary", "Access-Control-Request-Headers")

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// resolveOrigin returns the Allow-Origin value to emit. A wildcard entry
// echoes the request origin when credentials are allowed, since the
// literal "*" is rejected by browsers in that mode.
func resolveOrigin(origin string, allowed []string, allowCredentials bool) (string, bool) {
	for _, candidate := range allowed {
		if candidate == "*" {
			if allowCredentials {
				return origin, true
			}
			return "*", true
		}
		if strings.EqualFold(candidate, origin) {
			return origin, true
		}
	}
	return "", false
}
