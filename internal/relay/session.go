package relay

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
)

// State is the lifecycle of one issued relay code on this device.
type State string

const (
	StateIdle     State = "idle"
	StateIssuing  State = "issuing"
	StateIssued   State = "issued"
	StateExpired  State = "expired"
	StateConsumed State = "consumed"
)

// TickInterval is the countdown resolution.
const TickInterval = time.Second

// ErrIssueInProgress rejects a second issue while one is in flight.
var ErrIssueInProgress = appErrors.Clone(appErrors.ErrConflict, "a relay code is already being issued")

// SyncRecorder keeps the transient sync state that mirrors the session.
type SyncRecorder interface {
	SetSyncState(code string, expiresAt time.Time)
	ClearSyncState()
}

// Status is a point-in-time view of the session.
type Status struct {
	State     State
	Code      string
	ExpiresAt *time.Time
	Remaining time.Duration
}

// SessionOption customises a Session.
type SessionOption func(*Session)

// WithSessionClock overrides the clock used by the ticker and Status.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSessionLogger attaches a logger.
func WithSessionLogger(logger *zap.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Session walks idle -> issuing -> issued -> expired|consumed. Expiry is a
// local clock check; the relay is never asked.
type Session struct {
	mu        sync.Mutex
	state     State
	prior     State
	code      string
	expiresAt time.Time

	recorder SyncRecorder
	now      func() time.Time
	logger   *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSession returns an idle session.
func NewSession(recorder SyncRecorder, opts ...SessionOption) *Session {
	s := &Session{
		state:    StateIdle,
		recorder: recorder,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Begin enters issuing. A previously issued code stays recorded until the
// relay hands out its replacement.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIssuing {
		return ErrIssueInProgress
	}
	s.prior = s.state
	s.state = StateIssuing
	return nil
}

// Issued records the code handed out by the relay.
func (s *Session) Issued(code string, expiresIn time.Duration) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.state = StateIssued
	s.code = code
	s.expiresAt = now.Add(expiresIn)
	if s.recorder != nil {
		s.recorder.SetSyncState(code, s.expiresAt)
	}
	s.logger.Info("relay code issued", zap.String("code", code), zap.Time("expires_at", s.expiresAt))
	return s.statusLocked(now)
}

// Failed abandons an in-flight issue and puts the session back where Begin
// found it, previous code included.
func (s *Session) Failed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIssuing {
		s.state = s.prior
	}
}

// Consume ends an issued code because the local dataset it carried has been
// replaced.
func (s *Session) Consume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.state == StateIssued:
		s.state = StateConsumed
	case s.state == StateIssuing && s.prior == StateIssued:
		s.prior = StateConsumed
	default:
		return
	}
	s.clearLocked()
}

// Tick advances the countdown to now and expires the code once its deadline
// has passed.
func (s *Session) Tick(now time.Time) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIssued && !now.Before(s.expiresAt) {
		s.state = StateExpired
		s.logger.Info("relay code expired", zap.String("code", s.code))
		s.clearLocked()
	}
	return s.state
}

// Status reports the session at the current clock.
func (s *Session) Status() Status {
	now := s.now()
	s.Tick(now)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked(now)
}

func (s *Session) statusLocked(now time.Time) Status {
	st := Status{State: s.state}
	if s.state == StateIssued {
		st.Code = s.code
		exp := s.expiresAt
		st.ExpiresAt = &exp
		if remaining := exp.Sub(now); remaining > 0 {
			st.Remaining = remaining
		}
	}
	return st
}

func (s *Session) clearLocked() {
	s.code = ""
	s.expiresAt = time.Time{}
	if s.recorder != nil {
		s.recorder.ClearSyncState()
	}
}

// Start runs the countdown ticker until ctx is done or Close is called.
// Calling Start on a running session is a no-op.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	done := make(chan struct{})
	s.done = done
	s.mu.Unlock()

	ticker := time.NewTicker(TickInterval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Tick(s.now())
			}
		}
	}()
}

// Close stops the ticker and waits for it to exit.
func (s *Session) Close() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
