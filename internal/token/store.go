package token

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	tokenRecordVersionV1 = 1
)

var (
	ErrTokenNotFound    = errors.New("refresh token record not found")
	ErrRedisUnavailable = errors.New("token redis unavailable")
)

const (
	revokeStatusNotFound       int64 = 0
	revokeStatusAlreadyRevoked int64 = 1
	revokeStatusRevoked        int64 = 2
)

// Record is one issued refresh credential. Only the SHA-256 hash of the
// secret is stored; the raw secret never reaches this package.
type Record struct {
	TokenID    string
	AccountID  string
	SecretHash [32]byte
	ExpiresAt  int64
	RevokedAt  int64 // unix seconds, 0 while active
	CreatedAt  int64
}

// Usable reports whether the record authenticates at the given instant.
func (r *Record) Usable(now time.Time) bool {
	return r.RevokedAt == 0 && now.Unix() < r.ExpiresAt
}

// The revoked-at stamp sits at a fixed offset in the encoded record so the
// script can splice it in without a read-modify-write round trip. Revoking
// an already-revoked record is a no-op, which makes Revoke idempotent
// across processes.
const revokeScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  return 0
end
if string.sub(data, 2, 9) ~= string.rep("\0", 8) then
  return 1
end
local updated = string.sub(data, 1, 1) .. ARGV[1] .. string.sub(data, 10)
redis.call("SET", KEYS[1], updated)
return 2
`

var revokeLua = redis.NewScript(revokeScript)

// Store is a Redis-backed refresh-token store. Records are keyed by the
// public token ID for O(1) retrieval; a per-account set indexes token IDs
// for revoke-all and sweep bookkeeping.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a token [Store] backed by the given Redis client.
func NewStore(redisClient redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "rt"
	}
	return &Store{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *Store) key(tokenID string) string {
	return s.prefix + ":tok:" + tokenID
}

func (s *Store) accountKey(accountID string) string {
	return s.prefix + ":acct:" + accountID
}

// Save persists a new token record and indexes it under its account.
func (s *Store) Save(ctx context.Context, record *Record) error {
	encoded, err := encodeTokenRecord(record)
	if err != nil {
		return err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(record.TokenID), encoded, 0)
		pipe.SAdd(ctx, s.accountKey(record.AccountID), record.TokenID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// Get retrieves a token record by its public ID.
func (s *Store) Get(ctx context.Context, tokenID string) (*Record, error) {
	data, err := s.redis.Get(ctx, s.key(tokenID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	record, err := decodeTokenRecord(data)
	if err != nil {
		return nil, err
	}
	record.TokenID = tokenID

	return record, nil
}

// Revoke stamps revokedAt on the record. Returns true when this call
// performed the revocation, false when the record was already revoked.
func (s *Store) Revoke(ctx context.Context, tokenID string, now time.Time) (bool, error) {
	var stamp [8]byte
	binary.BigEndian.PutUint64(stamp[:], uint64(now.Unix()))

	status, err := revokeLua.Run(ctx, s.redis, []string{s.key(tokenID)}, stamp[:]).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	switch status {
	case revokeStatusNotFound:
		return false, ErrTokenNotFound
	case revokeStatusAlreadyRevoked:
		return false, nil
	case revokeStatusRevoked:
		return true, nil
	default:
		return false, fmt.Errorf("%w: unknown revoke script status %d", ErrRedisUnavailable, status)
	}
}

// RevokeAllForAccount revokes every indexed token for the account and
// returns how many records this call transitioned to revoked.
func (s *Store) RevokeAllForAccount(ctx context.Context, accountID string, now time.Time) (int, error) {
	tokenIDs, err := s.redis.SMembers(ctx, s.accountKey(accountID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	revoked := 0
	for _, tokenID := range tokenIDs {
		ok, err := s.Revoke(ctx, tokenID, now)
		if err != nil {
			if errors.Is(err, ErrTokenNotFound) {
				// Swept concurrently; the index entry is stale.
				continue
			}
			return revoked, err
		}
		if ok {
			revoked++
		}
	}

	return revoked, nil
}

// Sweep scans the token keyspace and deletes every record that is expired
// or revoked, returning the number removed. Intended for a recurring
// scheduler, not the request path.
func (s *Store) Sweep(ctx context.Context, now time.Time) (int, error) {
	pattern := s.prefix + ":tok:*"
	var (
		cursor  uint64
		removed int
	)

	for {
		keys, next, err := s.redis.Scan(ctx, cursor, pattern, 1000).Result()
		if err != nil {
			return removed, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}

		for _, key := range keys {
			data, err := s.redis.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				return removed, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
			}

			record, err := decodeTokenRecord(data)
			if err != nil {
				return removed, err
			}
			if record.RevokedAt == 0 && now.Unix() < record.ExpiresAt {
				continue
			}

			tokenID := key[len(s.prefix)+len(":tok:"):]
			_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				pipe.SRem(ctx, s.accountKey(record.AccountID), tokenID)
				return nil
			})
			if err != nil {
				return removed, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
			}
			removed++
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return removed, nil
}

// ActiveTokenIDs returns the indexed token IDs for an account.
func (s *Store) ActiveTokenIDs(ctx context.Context, accountID string) ([]string, error) {
	ids, err := s.redis.SMembers(ctx, s.accountKey(accountID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return ids, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}

func encodeTokenRecord(record *Record) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(tokenRecordVersionV1)

	// revokedAt occupies bytes 1..8; the revoke script depends on this
	// offset staying fixed.
	if err := binary.Write(&buf, binary.BigEndian, record.RevokedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.CreatedAt); err != nil {
		return nil, err
	}
	buf.Write(record.SecretHash[:])

	if len(record.AccountID) > 65535 {
		return nil, errors.New("token record account id too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.AccountID))); err != nil {
		return nil, err
	}
	buf.WriteString(record.AccountID)

	return buf.Bytes(), nil
}

func decodeTokenRecord(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != tokenRecordVersionV1 {
		return nil, errors.New("invalid token record version")
	}

	record := &Record{}

	if err := binary.Read(reader, binary.BigEndian, &record.RevokedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.CreatedAt); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(reader, record.SecretHash[:]); err != nil {
		return nil, err
	}

	var accountIDLen uint16
	if err := binary.Read(reader, binary.BigEndian, &accountIDLen); err != nil {
		return nil, err
	}

	accountID := make([]byte, accountIDLen)
	if _, err := io.ReadFull(reader, accountID); err != nil {
		return nil, err
	}
	record.AccountID = string(accountID)

	return record, nil
}
