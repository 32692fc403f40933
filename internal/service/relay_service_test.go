package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker/internal/repository"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
)

type relayRepoStub struct {
	entries map[string]string
	ttls    map[string]time.Duration
	putErr  error
	getErr  error
}

func newRelayRepoStub() *relayRepoStub {
	return &relayRepoStub{entries: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (r *relayRepoStub) Put(ctx context.Context, code, blob string, ttl time.Duration) error {
	if r.putErr != nil {
		return r.putErr
	}
	if _, taken := r.entries[code]; taken {
		return repository.ErrRelayCodeTaken
	}
	r.entries[code] = blob
	r.ttls[code] = ttl
	return nil
}

func (r *relayRepoStub) Get(ctx context.Context, code string) (string, error) {
	if r.getErr != nil {
		return "", r.getErr
	}
	blob, ok := r.entries[code]
	if !ok {
		return "", appErrors.ErrRelayMiss
	}
	return blob, nil
}

type relayMetricsStub struct {
	ops []string
}

func (m *relayMetricsStub) RecordRelayOperation(op, outcome string) {
	m.ops = append(m.ops, op+":"+outcome)
}

func TestGenerateRelayCodeRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateRelayCode()
		require.NoError(t, err)
		require.True(t, ValidRelayCode(code), code)
		assert.GreaterOrEqual(t, code, "100000")
		assert.LessOrEqual(t, code, "999999")
	}
}

func TestValidRelayCode(t *testing.T) {
	assert.True(t, ValidRelayCode("123456"))
	assert.False(t, ValidRelayCode("12345"))
	assert.False(t, ValidRelayCode("1234567"))
	assert.False(t, ValidRelayCode("12a456"))
	assert.False(t, ValidRelayCode(""))
}

func TestRelayServiceStoreAndRetrieve(t *testing.T) {
	repo := newRelayRepoStub()
	metrics := &relayMetricsStub{}
	svc := NewRelayService(repo, RelayServiceConfig{}, metrics, nil)

	stored, err := svc.Store(context.Background(), "YmxvYg==")
	require.NoError(t, err)
	assert.True(t, ValidRelayCode(stored.Code))
	assert.Equal(t, 3600, stored.ExpiresIn)
	assert.Equal(t, time.Hour, repo.ttls[stored.Code])

	got, err := svc.Retrieve(context.Background(), stored.Code)
	require.NoError(t, err)
	assert.Equal(t, "YmxvYg==", got.Data)

	again, err := svc.Retrieve(context.Background(), stored.Code)
	require.NoError(t, err, "codes are not single-use")
	assert.Equal(t, got, again)

	assert.Equal(t, []string{"store:ok", "retrieve:ok", "retrieve:ok"}, metrics.ops)
}

func TestRelayServiceStoreRequiresData(t *testing.T) {
	svc := NewRelayService(newRelayRepoStub(), RelayServiceConfig{}, nil, nil)

	_, err := svc.Store(context.Background(), "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, 400, appErr.Status)
	assert.Equal(t, "Data is required", appErr.Message)
}

func TestRelayServiceStoreRetriesCollisions(t *testing.T) {
	repo := newRelayRepoStub()
	repo.entries["111111"] = "old"
	svc := NewRelayService(repo, RelayServiceConfig{TTL: time.Minute}, nil, nil)
	codes := []string{"111111", "222222"}
	svc.newCode = func() (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}

	stored, err := svc.Store(context.Background(), "new")
	require.NoError(t, err)
	assert.Equal(t, "222222", stored.Code)
	assert.Equal(t, 60, stored.ExpiresIn)
	assert.Equal(t, "old", repo.entries["111111"])
}

func TestRelayServiceStoreGivesUpAfterCollisions(t *testing.T) {
	repo := newRelayRepoStub()
	repo.entries["111111"] = "old"
	svc := NewRelayService(repo, RelayServiceConfig{}, nil, nil)
	svc.newCode = func() (string, error) { return "111111", nil }

	_, err := svc.Store(context.Background(), "new")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, 500, appErr.Status)
	assert.Equal(t, "Internal Server Error", appErr.Message)
}

func TestRelayServiceStoreBackendFailure(t *testing.T) {
	repo := newRelayRepoStub()
	repo.putErr = errors.New("connection refused")
	svc := NewRelayService(repo, RelayServiceConfig{}, nil, nil)

	_, err := svc.Store(context.Background(), "blob")
	require.Error(t, err)
	assert.Equal(t, "Internal Server Error", appErrors.FromError(err).Message)
}

func TestRelayServiceRetrieveErrors(t *testing.T) {
	repo := newRelayRepoStub()
	metrics := &relayMetricsStub{}
	svc := NewRelayService(repo, RelayServiceConfig{}, metrics, nil)
	ctx := context.Background()

	_, err := svc.Retrieve(ctx, "")
	appErr := appErrors.FromError(err)
	assert.Equal(t, 400, appErr.Status)
	assert.Equal(t, "Code is required", appErr.Message)

	for _, code := range []string{"999999", "12ab56", "1234"} {
		_, err = svc.Retrieve(ctx, code)
		require.Error(t, err)
		appErr = appErrors.FromError(err)
		assert.Equal(t, 404, appErr.Status)
		assert.Equal(t, "Invalid code or expired", appErr.Message)
	}

	repo.getErr = errors.New("timeout")
	_, err = svc.Retrieve(ctx, "123456")
	assert.Equal(t, 500, appErrors.FromError(err).Status)

	assert.Equal(t, []string{"retrieve:invalid", "retrieve:miss", "retrieve:miss", "retrieve:miss", "retrieve:error"}, metrics.ops)
}
