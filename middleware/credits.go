package middleware

import (
	"context"
	"net/http"

	goCredit "github.com/MrEthical07/goCredit"
)

// RequireCredits returns middleware that debits the configured cost of
// operation for the bearer's account before the wrapped handler runs,
// skipping the rate check. Use [Guard] when both gates apply.
func RequireCredits(engine *goCredit.Engine, operation string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			accountID, err := engine.VerifyAccess(token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			txn, err := engine.DebitOperation(r.Context(), accountID, operation, r.Header.Get("X-Request-Id"))
			if err != nil {
				writeGateError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), gateResultContextKey{}, &GateResult{
				AccountID:   accountID,
				Transaction: txn,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
