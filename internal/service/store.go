package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
)

// DefaultSlot is the snapshot slot name used when none is configured.
const DefaultSlot = "attendance-storage"

// maxCalendarDays bounds a single calendar generation to two school years.
const maxCalendarDays = 731

type snapshotSlot interface {
	Load(ctx context.Context, slot string) ([]byte, error)
	Save(ctx context.Context, slot string, version int, document []byte) error
}

type snapshotMetrics interface {
	ObserveSnapshotWrite(duration time.Duration, err error)
}

// errNoChange aborts a mutation without writing.
var errNoChange = errors.New("no change")

// StoreConfig tunes the store.
type StoreConfig struct {
	Slot             string
	ProKey           string
	EvalKey          string
	EvalPeriod       time.Duration
	FreeStudentLimit int
}

// StoreOption customises a Store.
type StoreOption func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides student and subject ID generation.
func WithIDGenerator(fn func() string) StoreOption {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithSnapshotMetrics records the latency of every snapshot write.
func WithSnapshotMetrics(m snapshotMetrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

// Store is the authoritative attendance state. Every command runs under one
// lock, writes the whole document to the snapshot slot and only then swaps
// the in-memory copy, so memory and slot never diverge.
type Store struct {
	mu   sync.RWMutex
	doc  models.Document
	sync models.SyncState

	slot    snapshotSlot
	cfg     StoreConfig
	now     func() time.Time
	newID   func() string
	logger  *zap.Logger
	metrics snapshotMetrics
}

// NewStore constructs a store holding an empty document. Call Load to read
// the persisted slot.
func NewStore(slot snapshotSlot, cfg StoreConfig, logger *zap.Logger, opts ...StoreOption) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Slot == "" {
		cfg.Slot = DefaultSlot
	}
	if cfg.FreeStudentLimit <= 0 {
		cfg.FreeStudentLimit = 5
	}
	if cfg.EvalPeriod <= 0 {
		cfg.EvalPeriod = 30 * 24 * time.Hour
	}
	s := &Store{
		slot:   slot,
		cfg:    cfg,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.doc = models.NewDocument(s.now())
	return s
}

// Load reads the slot. A missing slot keeps the empty document. A document
// that fails migration or validation is discarded as a whole: the store
// starts empty and the slot is left as is until the next write. Migrated
// documents are written back at the current version.
func (s *Store) Load(ctx context.Context) error {
	data, err := s.slot.Load(ctx, s.cfg.Slot)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to read document")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if data == nil {
		s.doc = models.NewDocument(s.now())
		s.logger.Info("snapshot slot empty, starting fresh", zap.String("slot", s.cfg.Slot))
		return nil
	}

	doc, from, err := MigrateDocument(data)
	if err != nil {
		s.doc = models.NewDocument(s.now())
		s.logger.Error("stored document rejected, starting fresh",
			zap.String("slot", s.cfg.Slot), zap.Int("version", from), zap.Error(err))
		return nil
	}
	if from < models.CurrentSchemaVersion {
		if err := s.persist(ctx, doc); err != nil {
			return err
		}
		s.logger.Info("stored document migrated",
			zap.String("slot", s.cfg.Slot), zap.Int("from", from), zap.Int("to", models.CurrentSchemaVersion))
	}
	s.doc = doc
	return nil
}

// Snapshot returns a deep copy of the current document.
func (s *Store) Snapshot() models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// Now returns the store clock.
func (s *Store) Now() time.Time { return s.now() }

func (s *Store) mutate(ctx context.Context, fn func(*models.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.Clone()
	if err := fn(&next); err != nil {
		if errors.Is(err, errNoChange) {
			return nil
		}
		return err
	}
	next.Normalize()
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.doc = next
	return nil
}

func (s *Store) persist(ctx context.Context, doc models.Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to encode document")
	}
	start := time.Now()
	err = s.slot.Save(ctx, s.cfg.Slot, doc.Version, payload)
	if s.metrics != nil {
		s.metrics.ObserveSnapshotWrite(time.Since(start), err)
	}
	if err != nil {
		s.logger.Error("snapshot write failed", zap.String("slot", s.cfg.Slot), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, appErrors.ErrStorage.Message)
	}
	return nil
}

func validationError(format string, args ...interface{}) error {
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf(format, args...))
}

func notFound(what string) error {
	return appErrors.Clone(appErrors.ErrNotFound, what+" not found")
}

// Students returns the sorted student list.
func (s *Store) Students() []models.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Student{}, s.doc.Students...)
}

// Student returns the student with id.
func (s *Store) Student(id string) (models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.doc.Students {
		if st.ID == id {
			return st, nil
		}
	}
	return models.Student{}, notFound("student")
}

func validateStudent(st models.Student) error {
	if strings.TrimSpace(st.Name) == "" {
		return validationError("name is required")
	}
	if st.StudentNumber < 1 {
		return validationError("studentNumber must be positive")
	}
	if !models.ValidGrade(st.Grade) {
		return validationError("grade must be 1 or 2")
	}
	return nil
}

// AddStudent appends a student. Unless the license lifts the limit, adding
// beyond the free student limit fails with ErrStudentLimit.
func (s *Store) AddStudent(ctx context.Context, in models.StudentInput) (models.Student, error) {
	student := models.Student{
		StudentNumber: in.StudentNumber,
		Name:          strings.TrimSpace(in.Name),
		ClassName:     strings.TrimSpace(in.ClassName),
		Grade:         in.Grade,
	}
	if err := validateStudent(student); err != nil {
		return models.Student{}, err
	}
	err := s.mutate(ctx, func(doc *models.Document) error {
		status := deriveLicenseStatus(doc.License(), s.cfg, s.now())
		if !status.Unlimited() && len(doc.Students) >= s.cfg.FreeStudentLimit {
			return appErrors.Clone(appErrors.ErrStudentLimit,
				fmt.Sprintf("the %s plan allows at most %d students", status, s.cfg.FreeStudentLimit))
		}
		student.ID = s.newID()
		doc.Students = append(doc.Students, student)
		return nil
	})
	if err != nil {
		return models.Student{}, err
	}
	return student, nil
}

// UpdateStudent applies patch to the student with id.
func (s *Store) UpdateStudent(ctx context.Context, id string, patch models.StudentPatch) (models.Student, error) {
	var updated models.Student
	err := s.mutate(ctx, func(doc *models.Document) error {
		for i := range doc.Students {
			if doc.Students[i].ID != id {
				continue
			}
			next := patch.Apply(doc.Students[i])
			next.Name = strings.TrimSpace(next.Name)
			next.ClassName = strings.TrimSpace(next.ClassName)
			if err := validateStudent(next); err != nil {
				return err
			}
			doc.Students[i] = next
			updated = next
			return nil
		}
		return notFound("student")
	})
	return updated, err
}

// DeleteStudent removes the student and every attendance record of theirs.
func (s *Store) DeleteStudent(ctx context.Context, id string) error {
	return s.mutate(ctx, func(doc *models.Document) error {
		idx := -1
		for i, st := range doc.Students {
			if st.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return notFound("student")
		}
		doc.Students = append(doc.Students[:idx], doc.Students[idx+1:]...)
		kept := doc.AttendanceRecords[:0]
		for _, r := range doc.AttendanceRecords {
			if r.StudentID != id {
				kept = append(kept, r)
			}
		}
		doc.AttendanceRecords = kept
		return nil
	})
}

// Subjects returns the subject list in insertion order.
func (s *Store) Subjects() []models.Subject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Subject{}, s.doc.Subjects...)
}

func validateSubject(sub models.Subject) error {
	if strings.TrimSpace(sub.Name) == "" {
		return validationError("name is required")
	}
	if sub.RequiredHours < 0 {
		return validationError("requiredHours must not be negative")
	}
	return nil
}

// AddSubject appends a subject.
func (s *Store) AddSubject(ctx context.Context, in models.SubjectInput) (models.Subject, error) {
	subject := models.Subject{
		Name:          strings.TrimSpace(in.Name),
		Teacher:       strings.TrimSpace(in.Teacher),
		RequiredHours: in.RequiredHours,
	}
	if err := validateSubject(subject); err != nil {
		return models.Subject{}, err
	}
	err := s.mutate(ctx, func(doc *models.Document) error {
		subject.ID = s.newID()
		doc.Subjects = append(doc.Subjects, subject)
		return nil
	})
	if err != nil {
		return models.Subject{}, err
	}
	return subject, nil
}

// UpdateSubject applies patch to the subject with id.
func (s *Store) UpdateSubject(ctx context.Context, id string, patch models.SubjectPatch) (models.Subject, error) {
	var updated models.Subject
	err := s.mutate(ctx, func(doc *models.Document) error {
		for i := range doc.Subjects {
			if doc.Subjects[i].ID != id {
				continue
			}
			next := patch.Apply(doc.Subjects[i])
			next.Name = strings.TrimSpace(next.Name)
			if err := validateSubject(next); err != nil {
				return err
			}
			doc.Subjects[i] = next
			updated = next
			return nil
		}
		return notFound("subject")
	})
	return updated, err
}

// DeleteSubject removes the subject. Timetable cells pointing at it are kept
// and resolve to no subject from then on.
func (s *Store) DeleteSubject(ctx context.Context, id string) error {
	return s.mutate(ctx, func(doc *models.Document) error {
		for i, sub := range doc.Subjects {
			if sub.ID == id {
				doc.Subjects = append(doc.Subjects[:i], doc.Subjects[i+1:]...)
				return nil
			}
		}
		return notFound("subject")
	})
}
