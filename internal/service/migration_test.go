package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker/internal/models"
)

const v0Fixture = `{
	"students": [
		{"id": "s2", "studentNumber": 2, "name": "Ren"},
		{"id": "s1", "studentNumber": 1, "name": "Aoi", "grade": null}
	],
	"subjects": [{"id": "math", "name": "Math", "teacher": "", "requiredHours": 35}],
	"attendanceRecords": [{"studentId": "s1", "date": "2025-06-09", "period": 1, "status": "late"}],
	"settings": {
		"periodCount": 6,
		"hourPerPeriod": 0.75,
		"termStartDate": "2025-04-01",
		"termEndDate": "2025-09-30",
		"firstTermTimetable": {"Mon-1": "math"},
		"secondTermTimetable": {"Tue-2": "math"}
	},
	"syncCode": "123456",
	"lastSyncTime": 1718000000000
}`

const v1Fixture = `{
	"version": 1,
	"students": [{"id": "s1", "studentNumber": 1, "name": "Aoi", "grade": 5}],
	"subjects": [],
	"attendanceRecords": [],
	"calendar": [{"date": "2025-06-09", "isHoliday": true}],
	"settings": {
		"periodCount": 7,
		"timetables": {
			"year1": {"first": {"Mon-1": "math", "Tue-1": 42}, "second": {}},
			"year2": {"first": {}, "second": {"Fri-3": "art"}}
		}
	}
}`

func TestMigrateDocumentFromV0(t *testing.T) {
	doc, from, err := MigrateDocument([]byte(v0Fixture))
	require.NoError(t, err)
	assert.Equal(t, 0, from)
	assert.Equal(t, models.CurrentSchemaVersion, doc.Version)

	require.Len(t, doc.Students, 2)
	assert.Equal(t, "s1", doc.Students[0].ID)
	for _, st := range doc.Students {
		assert.Equal(t, 1, st.Grade)
	}

	assert.Equal(t, 6, doc.Settings.PeriodCount)
	assert.Equal(t, 0.75, doc.Settings.HourPerPeriod)
	assert.Equal(t, models.TermRange{Start: "2025-04-01", End: "2025-09-30"}, doc.Settings.FirstTerm)
	assert.False(t, doc.Settings.SecondTerm.IsSet())

	got, ok := doc.Settings.Timetables.Lookup(models.SlotKey{Grade: 1, Term: models.TermFirst, Weekday: time.Monday, Period: 1})
	require.True(t, ok)
	assert.Equal(t, "math", got)
	got, ok = doc.Settings.Timetables.Lookup(models.SlotKey{Grade: 1, Term: models.TermSecond, Weekday: time.Tuesday, Period: 2})
	require.True(t, ok)
	assert.Equal(t, "math", got)

	assert.NotNil(t, doc.Calendar)
	require.Len(t, doc.AttendanceRecords, 1)
	assert.Equal(t, models.AttendanceStatusLate, doc.AttendanceRecords[0].Status)
}

func TestMigrateDocumentFromV1(t *testing.T) {
	doc, from, err := MigrateDocument([]byte(v1Fixture))
	require.NoError(t, err)
	assert.Equal(t, 1, from)

	assert.Equal(t, 4, doc.Settings.PeriodCount)
	assert.Equal(t, 1.0, doc.Settings.HourPerPeriod)
	assert.Equal(t, 1, doc.Students[0].Grade)

	_, ok := doc.Settings.Timetables.Lookup(models.SlotKey{Grade: 1, Term: models.TermFirst, Weekday: time.Tuesday, Period: 1})
	assert.False(t, ok, "non-string cells are dropped")
	got, ok := doc.Settings.Timetables.Lookup(models.SlotKey{Grade: 2, Term: models.TermSecond, Weekday: time.Friday, Period: 3})
	require.True(t, ok)
	assert.Equal(t, "art", got)
	require.Len(t, doc.Calendar, 1)
	assert.True(t, doc.Calendar[0].IsHoliday)
}

func TestMigrateDocumentIdempotent(t *testing.T) {
	first, _, err := MigrateDocument([]byte(v0Fixture))
	require.NoError(t, err)

	payload, err := json.Marshal(first)
	require.NoError(t, err)
	second, from, err := MigrateDocument(payload)
	require.NoError(t, err)
	assert.Equal(t, models.CurrentSchemaVersion, from)
	assert.Equal(t, first, second)
}

func TestMigrationStepsDoNotMutateInput(t *testing.T) {
	raw, err := parseRawDocument([]byte(v0Fixture))
	require.NoError(t, err)
	before, err := json.Marshal(raw)
	require.NoError(t, err)

	lifted := migrateV0ToV1(raw)
	_ = migrateV1ToV2(lifted)

	after, err := json.Marshal(raw)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))

	again := migrateV0ToV1(lifted)
	assert.Equal(t, lifted, again)
}

func TestMigrateDocumentUnwrapsPersistEnvelope(t *testing.T) {
	envelope := `{"state": {"students": [], "settings": {"periodCount": 8, "hourPerPeriod": 1, "timetables": {}}}, "version": 1}`

	doc, from, err := MigrateDocument([]byte(envelope))
	require.NoError(t, err)
	assert.Equal(t, 1, from)
	assert.Equal(t, 8, doc.Settings.PeriodCount)
}

func TestMigrateDocumentStripsTransientKeys(t *testing.T) {
	raw, err := parseRawDocument([]byte(v0Fixture))
	require.NoError(t, err)
	migrated, _, err := migrateRaw(raw)
	require.NoError(t, err)
	for _, key := range transientKeys {
		assert.NotContains(t, migrated, key)
	}
}

func TestMigrateDocumentRejects(t *testing.T) {
	cases := map[string]string{
		"not json":         `{"students": [`,
		"array":            `[]`,
		"null":             `null`,
		"future version":   `{"version": 9, "students": [], "settings": {}}`,
		"bad version":      `{"version": "two", "students": [], "settings": {}}`,
		"bad status":       `{"version": 2, "students": [{"id":"a","studentNumber":1,"name":"A","grade":1}], "attendanceRecords": [{"studentId":"a","date":"2025-06-09","period":1,"status":"sick"}], "settings": {"periodCount": 4, "hourPerPeriod": 1}}`,
		"duplicate record": `{"version": 2, "students": [], "attendanceRecords": [{"studentId":"a","date":"2025-06-09","period":1,"status":"late"},{"studentId":"a","date":"2025-06-09","period":1,"status":"absent"}], "settings": {"periodCount": 4, "hourPerPeriod": 1}}`,
		"wrong types":      `{"version": 2, "students": "nope", "settings": {"periodCount": 4, "hourPerPeriod": 1}}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := MigrateDocument([]byte(payload))
			assert.Error(t, err)
		})
	}
}

func TestDetectVersion(t *testing.T) {
	v, err := detectVersion(rawDocument{"settings": map[string]interface{}{"timetables": map[string]interface{}{}}})
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = detectVersion(rawDocument{"settings": map[string]interface{}{}})
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	v, err = detectVersion(rawDocument{"version": float64(2)})
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	_, err = detectVersion(rawDocument{"version": 1.5})
	assert.Error(t, err)
}
