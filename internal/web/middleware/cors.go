package middleware

import (
	"net/http"
	"os"
	"strings"
)

// originAllowlist is the set of browser origins admitted to the API.
type originAllowlist map[string]struct{}

// allowlistFromEnv builds the allowlist from the comma-separated
// WEB_ALLOWED_ORIGINS variable.
func allowlistFromEnv() originAllowlist {
	list := make(originAllowlist)
	for o := range strings.SplitSeq(os.Getenv("WEB_ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			list[o] = struct{}{}
		}
	}
	return list
}

// admits reports whether an origin should receive CORS headers. Localhost
// origins on any port are always admitted so a local enrollment UI works
// without configuration.
func (l originAllowlist) admits(origin string) bool {
	if origin == "" {
		return false
	}
	if localhostOrigin(origin) {
		return true
	}
	_, ok := l[origin]
	return ok
}

func localhostOrigin(origin string) bool {
	for _, scheme := range []string{"http", "https"} {
		base := scheme + "://localhost"
		if origin == base || strings.HasPrefix(origin, base+":") {
			return true
		}
	}
	return false
}

// CORS returns middleware that answers cross-origin browser requests for
// allowlisted origins and short-circuits preflights. The API only exposes
// GET and POST routes, so the advertised method set stays that narrow.
func CORS() func(http.Handler) http.Handler {
	allowed := allowlistFromEnv()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); allowed.admits(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
