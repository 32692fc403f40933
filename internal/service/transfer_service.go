package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker/internal/dto"
	"github.com/noah-isme/attendance-tracker/internal/relay"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
)

type relayClient interface {
	Store(ctx context.Context, blob string) (dto.RelayStoreResponse, error)
	Retrieve(ctx context.Context, code string) (string, error)
}

// TransferService moves the whole dataset between devices, either through
// the relay under a six-digit code or as an offline blob.
type TransferService struct {
	store   *Store
	client  relayClient
	session *relay.Session
	logger  *zap.Logger
}

// NewTransferService wires the store to a relay client. A nil client
// disables the code based operations; blob export and import keep working.
func NewTransferService(store *Store, client relayClient, logger *zap.Logger) *TransferService {
	if logger == nil {
		logger = zap.NewNop()
	}
	session := relay.NewSession(store, relay.WithSessionClock(store.Now), relay.WithSessionLogger(logger))
	return &TransferService{store: store, client: client, session: session, logger: logger}
}

// Start runs the countdown that expires issued codes.
func (s *TransferService) Start(ctx context.Context) { s.session.Start(ctx) }

// Close stops the countdown.
func (s *TransferService) Close() { s.session.Close() }

func (s *TransferService) relayEnabled() error {
	if s.client == nil {
		return appErrors.Clone(appErrors.ErrFeatureDisabled, "relay client is not configured")
	}
	return nil
}

// Issue encodes the current dataset, stores it at the relay and records the
// returned code as transient sync state.
func (s *TransferService) Issue(ctx context.Context) (dto.TransferIssueResponse, error) {
	if err := s.relayEnabled(); err != nil {
		return dto.TransferIssueResponse{}, err
	}
	if err := s.session.Begin(); err != nil {
		return dto.TransferIssueResponse{}, err
	}
	blob, err := EncodeDocument(s.store.Snapshot())
	if err != nil {
		s.session.Failed()
		return dto.TransferIssueResponse{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode dataset")
	}
	stored, err := s.client.Store(ctx, blob)
	if err != nil {
		s.session.Failed()
		s.logger.Warn("relay store failed", zap.Error(err))
		return dto.TransferIssueResponse{}, err
	}
	status := s.session.Issued(stored.Code, time.Duration(stored.ExpiresIn)*time.Second)
	resp := dto.TransferIssueResponse{Code: stored.Code, ExpiresIn: stored.ExpiresIn}
	if status.ExpiresAt != nil {
		resp.ExpiresAt = *status.ExpiresAt
	}
	return resp, nil
}

// Status reports the relay session with the remaining countdown.
func (s *TransferService) Status() dto.TransferStatusResponse {
	st := s.session.Status()
	return dto.TransferStatusResponse{
		State:            string(st.State),
		Code:             st.Code,
		ExpiresAt:        st.ExpiresAt,
		RemainingSeconds: int(st.Remaining / time.Second),
		Sync:             s.store.SyncState(),
	}
}

// ImportCode fetches the dataset stored under code and replaces local state
// with it. Any failure leaves local state untouched.
func (s *TransferService) ImportCode(ctx context.Context, code string) (dto.TransferImportResponse, error) {
	if err := s.relayEnabled(); err != nil {
		return dto.TransferImportResponse{}, err
	}
	if !ValidRelayCode(code) {
		return dto.TransferImportResponse{}, appErrors.ErrRelayCodeNotFound
	}
	blob, err := s.client.Retrieve(ctx, code)
	if err != nil {
		s.logger.Warn("relay retrieve failed", zap.String("code", code), zap.Error(err))
		return dto.TransferImportResponse{}, err
	}
	resp, err := s.ImportBlob(ctx, blob)
	if err != nil {
		return resp, err
	}
	s.logger.Info("dataset imported from relay", zap.String("code", code))
	return resp, nil
}

// ExportBlob returns the encoded dataset for offline transfer.
func (s *TransferService) ExportBlob() (string, error) {
	blob, err := EncodeDocument(s.store.Snapshot())
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode dataset")
	}
	return blob, nil
}

// ImportBlob decodes blob and replaces local state with it.
func (s *TransferService) ImportBlob(ctx context.Context, blob string) (dto.TransferImportResponse, error) {
	payload, err := DecodeDocument(blob)
	if err != nil {
		return dto.TransferImportResponse{}, err
	}
	if err := s.store.Replace(ctx, payload); err != nil {
		return dto.TransferImportResponse{}, err
	}
	now := s.store.Now()
	s.store.SetLastSync(now)
	s.session.Consume()
	return dto.TransferImportResponse{
		Students:          len(payload.Document.Students),
		Subjects:          len(payload.Document.Subjects),
		AttendanceRecords: len(payload.Document.AttendanceRecords),
		ImportedAt:        now,
	}, nil
}
