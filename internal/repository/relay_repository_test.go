package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
)

type fakeKV struct {
	values map[string]string
	ttls   map[string]time.Duration
	err    error
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) SetNX(_ context.Context, key string, value interface{}, exp time.Duration) *redis.BoolCmd {
	if f.err != nil {
		return redis.NewBoolResult(false, f.err)
	}
	if _, ok := f.values[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.values[key] = string(value.([]byte))
	f.ttls[key] = exp
	return redis.NewBoolResult(true, nil)
}

func (f *fakeKV) Get(_ context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func TestRelayRepositoryPutGet(t *testing.T) {
	kv := newFakeKV()
	repo := NewRelayRepository(kv, nil)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "123456", "eyJzdHVkZW50cyI6W119", time.Hour))
	assert.Equal(t, `"eyJzdHVkZW50cyI6W119"`, kv.values["sync:123456"])
	assert.Equal(t, time.Hour, kv.ttls["sync:123456"])

	blob, err := repo.Get(ctx, "123456")
	require.NoError(t, err)
	assert.Equal(t, "eyJzdHVkZW50cyI6W119", blob)
}

func TestRelayRepositoryCodeTaken(t *testing.T) {
	repo := NewRelayRepository(newFakeKV(), nil)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "111111", "a", time.Hour))
	assert.ErrorIs(t, repo.Put(ctx, "111111", "b", time.Hour), ErrRelayCodeTaken)
}

func TestRelayRepositoryMiss(t *testing.T) {
	repo := NewRelayRepository(newFakeKV(), nil)

	_, err := repo.Get(context.Background(), "999999")
	assert.ErrorIs(t, err, appErrors.ErrRelayMiss)
}

func TestRelayRepositoryBackendError(t *testing.T) {
	kv := newFakeKV()
	kv.err = errors.New("connection refused")
	repo := NewRelayRepository(kv, nil)

	_, err := repo.Get(context.Background(), "123456")
	require.Error(t, err)
	assert.False(t, errors.Is(err, appErrors.ErrRelayMiss))
}
