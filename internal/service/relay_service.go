package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker/internal/dto"
	"github.com/noah-isme/attendance-tracker/internal/repository"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
)

// DefaultRelayTTL is how long a relay code stays retrievable.
const DefaultRelayTTL = time.Hour

const relayCodeAttempts = 3

type relayRepository interface {
	Put(ctx context.Context, code, blob string, ttl time.Duration) error
	Get(ctx context.Context, code string) (string, error)
}

type relayMetrics interface {
	RecordRelayOperation(op, outcome string)
}

// Relay error messages are part of the wire contract.
var (
	errRelayDataRequired = appErrors.Clone(appErrors.ErrValidation, "Data is required")
	errRelayCodeRequired = appErrors.Clone(appErrors.ErrValidation, "Code is required")
	errRelayInternal     = appErrors.Clone(appErrors.ErrInternal, "Internal Server Error")
)

// RelayServiceConfig tunes the relay.
type RelayServiceConfig struct {
	TTL time.Duration
}

// RelayService hands encoded blobs between devices under short-lived
// six-digit codes.
type RelayService struct {
	repo    relayRepository
	ttl     time.Duration
	newCode func() (string, error)
	logger  *zap.Logger
	metrics relayMetrics
}

// NewRelayService constructs the relay.
func NewRelayService(repo relayRepository, cfg RelayServiceConfig, metrics relayMetrics, logger *zap.Logger) *RelayService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultRelayTTL
	}
	return &RelayService{
		repo:    repo,
		ttl:     cfg.TTL,
		newCode: GenerateRelayCode,
		logger:  logger,
		metrics: metrics,
	}
}

// GenerateRelayCode returns a uniformly random code in [100000, 999999].
func GenerateRelayCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate relay code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// ValidRelayCode reports whether code is six ASCII digits.
func ValidRelayCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (s *RelayService) record(op, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordRelayOperation(op, outcome)
	}
}

// Store saves blob under a fresh code.
func (s *RelayService) Store(ctx context.Context, blob string) (dto.RelayStoreResponse, error) {
	if blob == "" {
		s.record(RelayOpStore, RelayOutcomeInvalid)
		return dto.RelayStoreResponse{}, errRelayDataRequired
	}
	for attempt := 0; attempt < relayCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			s.record(RelayOpStore, RelayOutcomeError)
			return dto.RelayStoreResponse{}, appErrors.Wrap(err, errRelayInternal.Code, errRelayInternal.Status, errRelayInternal.Message)
		}
		err = s.repo.Put(ctx, code, blob, s.ttl)
		if errors.Is(err, repository.ErrRelayCodeTaken) {
			s.logger.Warn("relay code collision", zap.String("code", code))
			continue
		}
		if err != nil {
			s.record(RelayOpStore, RelayOutcomeError)
			s.logger.Error("relay store failed", zap.Error(err))
			return dto.RelayStoreResponse{}, appErrors.Wrap(err, errRelayInternal.Code, errRelayInternal.Status, errRelayInternal.Message)
		}
		s.record(RelayOpStore, RelayOutcomeOK)
		s.logger.Info("relay code issued", zap.String("code", code), zap.Int("bytes", len(blob)))
		return dto.RelayStoreResponse{Code: code, ExpiresIn: int(s.ttl / time.Second)}, nil
	}
	s.record(RelayOpStore, RelayOutcomeError)
	return dto.RelayStoreResponse{}, appErrors.Wrap(fmt.Errorf("no free relay code after %d attempts", relayCodeAttempts),
		errRelayInternal.Code, errRelayInternal.Status, errRelayInternal.Message)
}

// Retrieve returns the blob stored under code. Unknown, malformed and
// expired codes all report ErrRelayCodeNotFound.
func (s *RelayService) Retrieve(ctx context.Context, code string) (dto.RelayRetrieveResponse, error) {
	if code == "" {
		s.record(RelayOpRetrieve, RelayOutcomeInvalid)
		return dto.RelayRetrieveResponse{}, errRelayCodeRequired
	}
	if !ValidRelayCode(code) {
		s.record(RelayOpRetrieve, RelayOutcomeMiss)
		return dto.RelayRetrieveResponse{}, appErrors.ErrRelayCodeNotFound
	}
	blob, err := s.repo.Get(ctx, code)
	if err != nil {
		if errors.Is(err, appErrors.ErrRelayMiss) {
			s.record(RelayOpRetrieve, RelayOutcomeMiss)
			return dto.RelayRetrieveResponse{}, appErrors.ErrRelayCodeNotFound
		}
		s.record(RelayOpRetrieve, RelayOutcomeError)
		s.logger.Error("relay retrieve failed", zap.String("code", code), zap.Error(err))
		return dto.RelayRetrieveResponse{}, appErrors.Wrap(err, errRelayInternal.Code, errRelayInternal.Status, errRelayInternal.Message)
	}
	s.record(RelayOpRetrieve, RelayOutcomeOK)
	s.logger.Info("relay code retrieved", zap.String("code", code))
	return dto.RelayRetrieveResponse{Data: blob}, nil
}
