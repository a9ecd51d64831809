package middleware

import (
	"net/http"

	goCredit "github.com/MrEthical07/goCredit"
)

// KeyFunc extracts the rate-limit principal key from a request.
type KeyFunc func(*http.Request) string

// RemoteAddrKey keys the window on the client address. Suitable only when
// the server sees real client addresses, not a shared proxy hop.
func RemoteAddrKey(r *http.Request) string {
	return r.RemoteAddr
}

// RequireRate returns middleware that applies the named tier's fixed-window
// budget without touching the ledger. A nil key falls back to [RemoteAddrKey].
func RequireRate(engine *goCredit.Engine, tierName string, key KeyFunc) func(http.Handler) http.Handler {
	if key == nil {
		key = RemoteAddrKey
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}

			if err := engine.CheckRate(r.Context(), key(r), tierName); err != nil {
				writeGateError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
