package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	goCredit "github.com/MrEthical07/goCredit"
)

type gateResultContextKey struct{}

// GateResult carries the outcome of a successful guard pass: the
// authenticated account and, when the guard debited, the transaction.
type GateResult struct {
	AccountID   string
	Transaction *goCredit.Transaction
}

func GateResultFromContext(ctx context.Context) (*GateResult, bool) {
	res, ok := ctx.Value(gateResultContextKey{}).(*GateResult)
	return res, ok
}

// Guard returns middleware that authenticates the bearer access token,
// applies the named rate tier, and debits the configured cost of operation
// before the wrapped handler runs. The request's X-Request-Id header, when
// present, becomes the transaction reference.
func Guard(engine *goCredit.Engine, operation, tierName string) func(http.Handler) http.Handler {
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

			if err := engine.CheckRate(r.Context(), accountID, tierName); err != nil {
				writeGateError(w, err)
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

func writeGateError(w http.ResponseWriter, err error) {
	var rateLimited *goCredit.RateLimitedError
	switch {
	case errors.As(err, &rateLimited):
		w.Header().Set("Retry-After", strconv.Itoa(rateLimited.RetryAfterSeconds))
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	case errors.Is(err, goCredit.ErrInsufficientCredits):
		http.Error(w, "insufficient credits", http.StatusPaymentRequired)
	case errors.Is(err, goCredit.ErrStorageUnavailable):
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
