package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
)

// RelayKeyPrefix namespaces relay entries in Redis.
const RelayKeyPrefix = "sync:"

// ErrRelayCodeTaken is returned by Put when the code is already in use.
var ErrRelayCodeTaken = errors.New("relay code already in use")

// relayKV is the subset of the Redis client the relay needs.
type relayKV interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RelayRepository stores encoded transfer blobs under sync:<code> with a TTL.
type RelayRepository struct {
	client relayKV
	logger *zap.Logger
}

// NewRelayRepository constructs a relay repository.
func NewRelayRepository(client relayKV, logger *zap.Logger) *RelayRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RelayRepository{client: client, logger: logger}
}

// RelayKey returns the Redis key of code.
func RelayKey(code string) string { return RelayKeyPrefix + code }

// Put stores blob under code unless the code is taken. The value is the JSON
// encoding of the blob string.
func (r *RelayRepository) Put(ctx context.Context, code, blob string, ttl time.Duration) error {
	payload, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("marshal relay payload: %w", err)
	}
	ok, err := r.client.SetNX(ctx, RelayKey(code), payload, ttl).Result()
	if err != nil {
		return fmt.Errorf("redis setnx %s: %w", RelayKey(code), err)
	}
	if !ok {
		return ErrRelayCodeTaken
	}
	r.logger.Debug("relay entry stored", zap.String("code", code), zap.Duration("ttl", ttl))
	return nil
}

// Get returns the blob stored under code. Missing or expired codes return
// ErrRelayMiss.
func (r *RelayRepository) Get(ctx context.Context, code string) (string, error) {
	raw, err := r.client.Get(ctx, RelayKey(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", appErrors.ErrRelayMiss
		}
		return "", fmt.Errorf("redis get %s: %w", RelayKey(code), err)
	}
	var blob string
	if err := json.Unmarshal(raw, &blob); err != nil {
		return "", fmt.Errorf("unmarshal relay payload for %s: %w", code, err)
	}
	return blob, nil
}
