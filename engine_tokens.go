package goCredit

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/MrEthical07/goCredit/internal"
	"github.com/MrEthical07/goCredit/internal/token"
)

// IssueRefreshToken mints a new long-lived renewal credential for the
// account and returns the opaque token string. The token encodes a public
// lookup ID and a 256-bit random secret; only the SHA-256 hash of the
// secret is persisted, so a lost token cannot be recovered — the session
// simply cannot be renewed and the caller must re-authenticate.
func (e *Engine) IssueRefreshToken(ctx context.Context, accountID string) (string, error) {
	if e == nil || e.tokenStore == nil {
		return "", ErrEngineNotReady
	}

	acct, err := e.ledgerStore.Account(ctx, accountID)
	if err != nil {
		return "", e.mapLedgerErr(err)
	}
	if !acct.Active {
		return "", ErrAccountDeactivated
	}

	tokenID, err := internal.NewTokenID()
	if err != nil {
		return "", err
	}
	secret, err := internal.NewRefreshSecret()
	if err != nil {
		return "", err
	}

	now := time.Now()
	record := &token.Record{
		TokenID:    tokenID.String(),
		AccountID:  accountID,
		SecretHash: internal.HashRefreshSecret(secret),
		ExpiresAt:  now.Add(e.config.Token.TTL).Unix(),
		CreatedAt:  now.Unix(),
	}

	if err := e.tokenStore.Save(ctx, record); err != nil {
		return "", e.storageErr(err)
	}

	raw, err := internal.EncodeRefreshToken(record.TokenID, secret)
	if err != nil {
		return "", err
	}

	e.metrics.Inc(MetricTokenIssued)
	e.emitAudit(ctx, AuditEvent{
		EventType: "token.issue",
		AccountID: accountID,
		Success:   true,
		Metadata:  map[string]string{"token_id": record.TokenID},
	})

	return raw, nil
}

// VerifyRefreshToken checks a presented renewal credential and returns
// the owning account ID. Revoked, expired, unknown, and malformed tokens
// all fail with [ErrTokenInvalid]; the reason is not distinguished to the
// caller. The hash comparison is constant-time.
func (e *Engine) VerifyRefreshToken(ctx context.Context, rawToken string) (string, error) {
	record, err := e.lookupToken(ctx, rawToken)
	if err != nil {
		return "", err
	}

	if !record.Usable(time.Now()) {
		e.metrics.Inc(MetricTokenInvalid)
		e.emitAudit(ctx, AuditEvent{
			EventType: "token.verify",
			AccountID: record.AccountID,
			Error:     ErrTokenInvalid.Error(),
		})
		return "", ErrTokenInvalid
	}

	e.metrics.Inc(MetricTokenVerified)
	e.emitAudit(ctx, AuditEvent{
		EventType: "token.verify",
		AccountID: record.AccountID,
		Success:   true,
	})

	return record.AccountID, nil
}

// RenewAccess verifies a refresh token and mints a fresh short-lived
// signed access token for the owning account. Requires the JWT facility
// to be enabled in [Config].
func (e *Engine) RenewAccess(ctx context.Context, rawToken string) (*RenewResult, error) {
	if e == nil || e.tokenStore == nil {
		return nil, ErrEngineNotReady
	}
	if e.jwtManager == nil {
		return nil, ErrRenewalDisabled
	}

	record, err := e.lookupToken(ctx, rawToken)
	if err != nil {
		e.metrics.Inc(MetricRenewFailure)
		return nil, err
	}
	if !record.Usable(time.Now()) {
		e.metrics.Inc(MetricRenewFailure)
		e.metrics.Inc(MetricTokenInvalid)
		return nil, ErrTokenInvalid
	}

	accessToken, err := e.jwtManager.CreateAccess(record.AccountID, record.TokenID)
	if err != nil {
		e.metrics.Inc(MetricRenewFailure)
		return nil, err
	}

	e.metrics.Inc(MetricRenewSuccess)
	e.emitAudit(ctx, AuditEvent{
		EventType: "token.renew",
		AccountID: record.AccountID,
		Success:   true,
		Metadata:  map[string]string{"token_id": record.TokenID},
	})

	return &RenewResult{
		AccountID:   record.AccountID,
		TokenID:     record.TokenID,
		AccessToken: accessToken,
	}, nil
}

// RevokeRefreshToken revokes the presented credential. Returns true when
// this call performed the revocation and false when the token was already
// revoked; revocation is idempotent. Unknown or mismatched tokens fail
// with [ErrTokenInvalid].
func (e *Engine) RevokeRefreshToken(ctx context.Context, rawToken string) (bool, error) {
	record, err := e.lookupToken(ctx, rawToken)
	if err != nil {
		return false, err
	}

	revoked, err := e.tokenStore.Revoke(ctx, record.TokenID, time.Now())
	if err != nil {
		if errors.Is(err, token.ErrTokenNotFound) {
			return false, ErrTokenInvalid
		}
		return false, e.storageErr(err)
	}

	if revoked {
		e.metrics.Inc(MetricTokenRevoked)
	} else {
		e.metrics.Inc(MetricTokenRevokeRepeat)
	}
	e.emitAudit(ctx, AuditEvent{
		EventType: "token.revoke",
		AccountID: record.AccountID,
		Success:   true,
		Metadata:  map[string]string{"token_id": record.TokenID},
	})

	return revoked, nil
}

// RevokeAllRefreshTokens revokes every active token for the account
// (logout-everywhere, credential compromise). Returns how many records
// this call transitioned to revoked.
func (e *Engine) RevokeAllRefreshTokens(ctx context.Context, accountID string) (int, error) {
	if e == nil || e.tokenStore == nil {
		return 0, ErrEngineNotReady
	}

	revoked, err := e.tokenStore.RevokeAllForAccount(ctx, accountID, time.Now())
	if err != nil {
		return revoked, e.storageErr(err)
	}

	for i := 0; i < revoked; i++ {
		e.metrics.Inc(MetricTokenRevoked)
	}
	e.emitAudit(ctx, AuditEvent{
		EventType: "token.revoke_all",
		AccountID: accountID,
		Success:   true,
	})

	return revoked, nil
}

// SweepRefreshTokens deletes every expired or revoked token record and
// returns the count removed. Intended for a recurring scheduler, not the
// request path.
func (e *Engine) SweepRefreshTokens(ctx context.Context) (int, error) {
	if e == nil || e.tokenStore == nil {
		return 0, ErrEngineNotReady
	}

	removed, err := e.tokenStore.Sweep(ctx, time.Now())
	if err != nil {
		return removed, e.storageErr(err)
	}

	for i := 0; i < removed; i++ {
		e.metrics.Inc(MetricTokenSwept)
	}
	e.emitAudit(ctx, AuditEvent{
		EventType: "token.sweep",
		Success:   true,
		Amount:    int64(removed),
	})

	return removed, nil
}

// VerifyAccess verifies a signed access token minted by [Engine.RenewAccess]
// and returns the owning account ID. Verification is pure CPU work; no
// storage call is made, so revoking the underlying refresh token does not
// invalidate access tokens already in flight — they simply age out at
// their short TTL.
func (e *Engine) VerifyAccess(accessToken string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	if e.jwtManager == nil {
		return "", ErrRenewalDisabled
	}

	claims, err := e.jwtManager.ParseAccess(accessToken)
	if err != nil {
		return "", ErrTokenInvalid
	}
	return claims.UID, nil
}

// lookupToken decodes the presented token, fetches the record by its
// public ID, and performs the constant-time secret comparison. Decode
// failures, missing records, and hash mismatches are indistinguishable to
// the caller.
func (e *Engine) lookupToken(ctx context.Context, rawToken string) (*token.Record, error) {
	if e == nil || e.tokenStore == nil {
		return nil, ErrEngineNotReady
	}

	tokenID, secret, err := internal.DecodeRefreshToken(rawToken)
	if err != nil {
		e.metrics.Inc(MetricTokenInvalid)
		return nil, ErrTokenInvalid
	}

	record, err := e.tokenStore.Get(ctx, tokenID)
	if err != nil {
		if errors.Is(err, token.ErrTokenNotFound) {
			e.metrics.Inc(MetricTokenInvalid)
			return nil, ErrTokenInvalid
		}
		return nil, e.storageErr(err)
	}

	providedHash := internal.HashRefreshSecret(secret)
	if subtle.ConstantTimeCompare(record.SecretHash[:], providedHash[:]) != 1 {
		e.metrics.Inc(MetricTokenInvalid)
		return nil, ErrTokenInvalid
	}

	return record, nil
}
