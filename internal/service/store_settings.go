package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
)

// SettingsPatch is a partial settings update; nil fields are left untouched.
type SettingsPatch struct {
	FirstTerm     *models.TermRange
	SecondTerm    *models.TermRange
	PeriodCount   *int
	HourPerPeriod *float64
	Timetables    models.Timetables
}

// Settings returns the current settings.
func (s *Store) Settings() models.AppSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.doc.Settings
	out.Timetables = out.Timetables.Clone()
	return out
}

func validateTerm(name string, r models.TermRange) error {
	if r.Start == "" && r.End == "" {
		return nil
	}
	if !models.ValidDate(r.Start) || !models.ValidDate(r.End) {
		return validationError("%s needs start and end as YYYY-MM-DD", name)
	}
	if r.Start > r.End {
		return validationError("%s start must not be after end", name)
	}
	return nil
}

// UpdateSettings merges patch into the settings.
func (s *Store) UpdateSettings(ctx context.Context, patch SettingsPatch) (models.AppSettings, error) {
	var updated models.AppSettings
	err := s.mutate(ctx, func(doc *models.Document) error {
		next := doc.Settings
		if patch.FirstTerm != nil {
			next.FirstTerm = *patch.FirstTerm
		}
		if patch.SecondTerm != nil {
			next.SecondTerm = *patch.SecondTerm
		}
		if patch.PeriodCount != nil {
			next.PeriodCount = *patch.PeriodCount
		}
		if patch.HourPerPeriod != nil {
			next.HourPerPeriod = *patch.HourPerPeriod
		}
		if err := validateTerm("firstTerm", next.FirstTerm); err != nil {
			return err
		}
		if err := validateTerm("secondTerm", next.SecondTerm); err != nil {
			return err
		}
		if !models.ValidPeriodCount(next.PeriodCount) {
			return validationError("periodCount must be one of %v", models.AllowedPeriodCounts)
		}
		if next.HourPerPeriod <= 0 {
			return validationError("hourPerPeriod must be positive")
		}
		if patch.Timetables != nil {
			for key := range patch.Timetables {
				if err := key.Validate(next.PeriodCount); err != nil {
					return validationError("timetable %s: %v", key.Cell(), err)
				}
			}
			next.Timetables = patch.Timetables.Clone()
		}
		doc.Settings = next
		updated = next
		return nil
	})
	updated.Timetables = updated.Timetables.Clone()
	return updated, err
}

// SetTimetableSlot assigns subjectID to key. An empty subjectID clears the cell.
func (s *Store) SetTimetableSlot(ctx context.Context, key models.SlotKey, subjectID string) (models.AppSettings, error) {
	var updated models.AppSettings
	err := s.mutate(ctx, func(doc *models.Document) error {
		if err := key.Validate(doc.Settings.PeriodCount); err != nil {
			return validationError("%v", err)
		}
		if subjectID == "" {
			if _, ok := doc.Settings.Timetables[key]; !ok {
				return errNoChange
			}
			delete(doc.Settings.Timetables, key)
		} else {
			known := false
			for _, sub := range doc.Subjects {
				if sub.ID == subjectID {
					known = true
					break
				}
			}
			if !known {
				return notFound("subject")
			}
			doc.Settings.Timetables[key] = subjectID
		}
		updated = doc.Settings
		return nil
	})
	if err == nil && updated.Timetables == nil {
		updated = s.Settings()
	}
	updated.Timetables = updated.Timetables.Clone()
	return updated, err
}

func deriveLicenseStatus(l models.License, cfg StoreConfig, now time.Time) models.LicenseStatus {
	if l.Key == nil || *l.Key == "" {
		return models.LicenseFree
	}
	nowMs := now.UnixMilli()
	switch *l.Key {
	case cfg.ProKey:
		if l.Expiry == nil || *l.Expiry > nowMs {
			return models.LicensePro
		}
		return models.LicenseExpired
	case cfg.EvalKey:
		if l.Expiry != nil && *l.Expiry > nowMs {
			return models.LicenseEval
		}
		return models.LicenseExpired
	default:
		return models.LicenseFree
	}
}

// LicenseStatus derives the license status from the stored key and expiry.
func (s *Store) LicenseStatus() models.LicenseStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return deriveLicenseStatus(s.doc.License(), s.cfg, s.now())
}

// LicenseInfo returns the license status with the student limit that applies.
func (s *Store) LicenseInfo() models.LicenseInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status := deriveLicenseStatus(s.doc.License(), s.cfg, s.now())
	info := models.LicenseInfo{
		Status:       status,
		StudentCount: len(s.doc.Students),
	}
	if s.doc.LicenseExpiry != nil {
		exp := *s.doc.LicenseExpiry
		info.ExpiresAt = &exp
	}
	if !status.Unlimited() {
		info.StudentLimit = s.cfg.FreeStudentLimit
	}
	return info
}

// ActivateLicense stores key when it matches the pro or evaluation key. The
// evaluation period starts now and cannot be restarted.
func (s *Store) ActivateLicense(ctx context.Context, key string) (models.LicenseStatus, error) {
	if key == "" || (key != s.cfg.ProKey && key != s.cfg.EvalKey) {
		return "", validationError("unknown license key")
	}
	var status models.LicenseStatus
	err := s.mutate(ctx, func(doc *models.Document) error {
		now := s.now()
		var expiry *int64
		if key == s.cfg.EvalKey {
			if doc.LicenseKey != nil && *doc.LicenseKey == s.cfg.EvalKey {
				return appErrors.Clone(appErrors.ErrConflict, "evaluation license already activated")
			}
			ms := now.Add(s.cfg.EvalPeriod).UnixMilli()
			expiry = &ms
		}
		k := key
		doc.SetLicense(models.License{Key: &k, Expiry: expiry})
		status = deriveLicenseStatus(doc.License(), s.cfg, now)
		return nil
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("license activated", zap.String("status", string(status)))
	return status, nil
}

// ResetSettings restores the default settings, timetables included.
func (s *Store) ResetSettings(ctx context.Context) error {
	return s.mutate(ctx, func(doc *models.Document) error {
		doc.Settings = models.DefaultSettings(s.now())
		return nil
	})
}

// ResetAttendance deletes every attendance record.
func (s *Store) ResetAttendance(ctx context.Context) error {
	return s.mutate(ctx, func(doc *models.Document) error {
		doc.AttendanceRecords = []models.AttendanceRecord{}
		return nil
	})
}

// ResetAll empties the dataset. The license survives, and so does the
// transient sync state, which belongs to the transfer session.
func (s *Store) ResetAll(ctx context.Context) error {
	return s.mutate(ctx, func(doc *models.Document) error {
		license := doc.License()
		*doc = models.NewDocument(s.now())
		doc.SetLicense(license)
		return nil
	})
}

// ImportPayload is a decoded transfer payload.
type ImportPayload struct {
	Document   models.Document
	HasLicense bool
}

// Replace swaps in an imported dataset. License fields are taken from the
// payload only when it carried them.
func (s *Store) Replace(ctx context.Context, payload ImportPayload) error {
	if err := payload.Document.Validate(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInvalidSyncPayload.Code, appErrors.ErrInvalidSyncPayload.Status, appErrors.ErrInvalidSyncPayload.Message)
	}
	return s.mutate(ctx, func(doc *models.Document) error {
		license := doc.License()
		*doc = payload.Document.Clone()
		if payload.HasLicense {
			license = payload.Document.License()
		}
		doc.SetLicense(license)
		return nil
	})
}

// SyncState returns the transient transfer state.
func (s *Store) SyncState() models.SyncState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sync
}

// SetSyncState records an issued relay code.
func (s *Store) SetSyncState(code string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sync.Code = code
	s.sync.ExpiresAt = &expiresAt
}

// ClearSyncState forgets the issued relay code.
func (s *Store) ClearSyncState() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sync.Code = ""
	s.sync.ExpiresAt = nil
}

// SetLastSync records when data was last imported from another device.
func (s *Store) SetLastSync(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sync.LastSync = &t
}
