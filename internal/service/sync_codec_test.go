package service

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
)

func sampleDocument() models.Document {
	doc := models.NewDocument(storeNow)
	doc.Students = []models.Student{
		{ID: "s1", StudentNumber: 1, Name: "山田 太郎", ClassName: "1-A", Grade: 1},
		{ID: "s2", StudentNumber: 2, Name: "Zoë", ClassName: "2-B", Grade: 2},
	}
	doc.Subjects = []models.Subject{{ID: "math", Name: "数学", Teacher: "佐藤", RequiredHours: 35}}
	doc.AttendanceRecords = []models.AttendanceRecord{
		{StudentID: "s1", Date: "2025-06-09", Period: 0, Status: models.AttendanceStatusPresent},
		{StudentID: "s1", Date: "2025-06-09", Period: 1, Status: models.AttendanceStatusEarlyLeave},
	}
	doc.Calendar = []models.CalendarDay{{Date: "2025-06-09", IsHoliday: false, OverrideNote: "体育祭"}}
	doc.Settings.Timetables[models.SlotKey{Grade: 1, Term: models.TermFirst, Weekday: time.Monday, Period: 1}] = "math"
	return doc
}

func TestSyncCodecRoundTrip(t *testing.T) {
	doc := sampleDocument()

	blob, err := EncodeDocument(doc)
	require.NoError(t, err)
	_, err = base64.StdEncoding.DecodeString(blob)
	require.NoError(t, err, "blob is standard base64")

	payload, err := DecodeDocument(blob)
	require.NoError(t, err)
	assert.Equal(t, doc.Clone(), payload.Document)
	assert.True(t, payload.HasLicense, "license fields are always encoded")
}

func TestSyncCodecToleratesWhitespaceAndMissingPadding(t *testing.T) {
	blob, err := EncodeDocument(sampleDocument())
	require.NoError(t, err)

	_, err = DecodeDocument("  \n" + blob + "\n")
	require.NoError(t, err)

	raw := base64.RawStdEncoding.EncodeToString([]byte(`{"students":[],"settings":{"periodCount":4,"hourPerPeriod":1}}`))
	_, err = DecodeDocument(raw)
	require.NoError(t, err)
}

func TestSyncCodecMigratesLegacyPayload(t *testing.T) {
	blob := base64.StdEncoding.EncodeToString([]byte(v0Fixture))

	payload, err := DecodeDocument(blob)
	require.NoError(t, err)
	assert.Equal(t, models.CurrentSchemaVersion, payload.Document.Version)
	assert.False(t, payload.HasLicense)
	assert.Len(t, payload.Document.Students, 2)
}

func TestSyncCodecLicensePresence(t *testing.T) {
	withKey := base64.StdEncoding.EncodeToString([]byte(`{"students":[],"settings":{"periodCount":4,"hourPerPeriod":1},"licenseKey":null}`))
	payload, err := DecodeDocument(withKey)
	require.NoError(t, err)
	assert.True(t, payload.HasLicense)
	assert.Nil(t, payload.Document.LicenseKey)
}

func TestSyncCodecRejectsInvalidPayloads(t *testing.T) {
	enc := func(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }
	cases := map[string]string{
		"empty":            "   ",
		"not base64":       "%%%not-base64%%%",
		"not json":         enc("hello"),
		"missing students": enc(`{"settings":{"periodCount":4,"hourPerPeriod":1}}`),
		"missing settings": enc(`{"students":[]}`),
		"null students":    enc(`{"students":null,"settings":{}}`),
		"invalid grade":    enc(`{"version":2,"students":[{"id":"a","studentNumber":1,"name":"A","grade":3}],"settings":{"periodCount":4,"hourPerPeriod":1}}`),
	}
	for name, blob := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeDocument(blob)
			require.Error(t, err)
			assert.True(t, errors.Is(err, appErrors.ErrInvalidSyncPayload))
		})
	}
}

func TestSyncCodecImportReplacesStore(t *testing.T) {
	source, _ := newTestStore(t, newSlotStub())
	target, _ := newTestStore(t, newSlotStub())
	ctx := context.Background()

	st := addStudent(t, source, 1, 1, "Aoi")
	_, err := source.SetAttendance(ctx, models.RecordKey{StudentID: st.ID, Date: "2025-06-09", Period: 1}, CycleStatus())
	require.NoError(t, err)
	addStudent(t, target, 9, 2, "Other")

	blob, err := EncodeDocument(source.Snapshot())
	require.NoError(t, err)
	payload, err := DecodeDocument(blob)
	require.NoError(t, err)
	require.NoError(t, target.Replace(ctx, payload))

	assert.Equal(t, source.Snapshot(), target.Snapshot())
}
