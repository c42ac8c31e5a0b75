// Package redis provides a Redis-backed session store for deployments that
// scale the broker horizontally. Sessions live in a hash per session id with
// a correlation-id index key; the false->true satisfied transition and the
// one-time delete are Lua scripts so they stay atomic across instances.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-vc-authn/internal/domain"
	"github.com/sirosfoundation/go-vc-authn/internal/storage"
)

// Config configures a Redis session store
type Config struct {
	Address    string
	Password   string
	DB         int
	KeyPrefix  string
	DefaultTTL time.Duration
}

// SessionStore stores auth sessions in Redis
type SessionStore struct {
	client     *redis.Client
	keyPrefix  string
	defaultTTL time.Duration
	logger     *zap.Logger
}

// create refuses to overwrite either the session hash or the correlation
// index. KEYS: session, corr. ARGV: data, correlationID, sessionID, ttl ms.
var createScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 or redis.call("EXISTS", KEYS[2]) == 1 then
	return 0
end
redis.call("HSET", KEYS[1], "data", ARGV[1], "corr", ARGV[2], "satisfied", "0")
redis.call("PEXPIRE", KEYS[1], ARGV[4])
redis.call("SET", KEYS[2], ARGV[3], "PX", ARGV[4])
return 1
`)

// markSatisfied resolves the correlation index and flips satisfied at most
// once. KEYS: corr. ARGV: session key prefix, proof json.
// Returns 0 unknown, 1 already satisfied, 2 transitioned.
var markSatisfiedScript = redis.NewScript(`
local sid = redis.call("GET", KEYS[1])
if not sid then
	return 0
end
local key = ARGV[1] .. sid
if redis.call("EXISTS", key) == 0 then
	return 0
end
if redis.call("HGET", key, "satisfied") == "1" then
	return 1
end
redis.call("HSET", key, "satisfied", "1", "proof", ARGV[2])
return 2
`)

// deleteIfPresent removes the session hash and its correlation index in one
// step; the return value tells exactly one concurrent caller it won.
// KEYS: session. ARGV: corr key prefix.
var deleteScript = redis.NewScript(`
local corr = redis.call("HGET", KEYS[1], "corr")
if not corr then
	return 0
end
redis.call("DEL", KEYS[1], ARGV[1] .. corr)
return 1
`)

// NewSessionStore creates a new Redis session store
func NewSessionStore(cfg *Config, logger *zap.Logger) (*SessionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "vcauthn:"
	}

	ttl := cfg.DefaultTTL
	if ttl == 0 {
		ttl = time.Hour
	}

	return &SessionStore{
		client:     client,
		keyPrefix:  prefix,
		defaultTTL: ttl,
		logger:     logger.Named("redis_store"),
	}, nil
}

func (r *SessionStore) sessionKey(sessionID string) string {
	return r.keyPrefix + "session:" + sessionID
}

func (r *SessionStore) corrKey(correlationID string) string {
	return r.keyPrefix + "corr:" + correlationID
}

func (r *SessionStore) Create(ctx context.Context, session *domain.AuthSession) error {
	if session.ID == "" || session.CorrelationID == "" {
		return storage.ErrInvalidInput
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		ttl = r.defaultTTL
	}

	created, err := createScript.Run(ctx, r.client,
		[]string{r.sessionKey(session.ID), r.corrKey(session.CorrelationID)},
		string(data), session.CorrelationID, session.ID, ttl.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	if created == 0 {
		return storage.ErrAlreadyExists
	}
	return nil
}

func (r *SessionStore) getByKey(ctx context.Context, key string) (*domain.AuthSession, error) {
	fields, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if len(fields) == 0 {
		return nil, storage.ErrNotFound
	}

	var session domain.AuthSession
	if err := json.Unmarshal([]byte(fields["data"]), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	if fields["satisfied"] == "1" {
		session.Satisfied = true
		if proof := fields["proof"]; proof != "" && proof != "null" {
			session.Proof = &domain.PartialPresentation{}
			if err := json.Unmarshal([]byte(proof), session.Proof); err != nil {
				return nil, fmt.Errorf("failed to unmarshal proof: %w", err)
			}
		}
	}

	return &session, nil
}

func (r *SessionStore) GetBySessionID(ctx context.Context, id string) (*domain.AuthSession, error) {
	return r.getByKey(ctx, r.sessionKey(id))
}

func (r *SessionStore) GetByCorrelationID(ctx context.Context, id string) (*domain.AuthSession, error) {
	sessionID, err := r.client.Get(ctx, r.corrKey(id)).Result()
	if err == redis.Nil {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve correlation id: %w", err)
	}
	return r.getByKey(ctx, r.sessionKey(sessionID))
}

func (r *SessionStore) MarkSatisfiedByCorrelationID(ctx context.Context, correlationID string, proof *domain.PartialPresentation) error {
	data, err := json.Marshal(proof)
	if err != nil {
		return fmt.Errorf("failed to marshal proof: %w", err)
	}

	outcome, err := markSatisfiedScript.Run(ctx, r.client,
		[]string{r.corrKey(correlationID)},
		r.keyPrefix+"session:", string(data),
	).Int()
	if err != nil {
		return fmt.Errorf("failed to mark session satisfied: %w", err)
	}
	if outcome == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *SessionStore) DeleteIfPresent(ctx context.Context, sessionID string) (bool, error) {
	deleted, err := deleteScript.Run(ctx, r.client,
		[]string{r.sessionKey(sessionID)},
		r.keyPrefix+"corr:",
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}
	return deleted == 1, nil
}

func (r *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	// Redis reclaims sessions itself via key TTLs.
	r.logger.Debug("Redis sweep skipped, TTL handles session expiration")
	return 0, nil
}

// Close releases the Redis connection
func (r *SessionStore) Close() error {
	return r.client.Close()
}
