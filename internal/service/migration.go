package service

import (
	"encoding/json"
	"fmt"

	"github.com/noah-isme/attendance-tracker/internal/models"
)

// rawDocument is a persisted document before it is bound to models.Document.
type rawDocument = map[string]interface{}

// migrationStep upgrades a document by exactly one schema version. Steps
// never mutate their input.
type migrationStep func(rawDocument) rawDocument

// migrations[v] upgrades version v to v+1.
var migrations = []migrationStep{
	0: migrateV0ToV1,
	1: migrateV1ToV2,
}

// transientKeys were persisted by older builds but are session-only state.
var transientKeys = []string{"syncCode", "syncExpiresAt", "lastSyncTime"}

// parseRawDocument unmarshals a stored or imported payload into a generic
// object. A browser-persisted {"state": {...}, "version": n} envelope is
// unwrapped, taking its version as the schema version.
func parseRawDocument(data []byte) (rawDocument, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("document is not a JSON object: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("document is null")
	}
	if state, ok := raw["state"].(map[string]interface{}); ok {
		if _, hasStudents := raw["students"]; !hasStudents {
			unwrapped := deepCopy(state).(map[string]interface{})
			if _, has := unwrapped["version"]; !has {
				if v, ok := raw["version"]; ok {
					unwrapped["version"] = v
				}
			}
			raw = unwrapped
		}
	}
	return raw, nil
}

// detectVersion reads the explicit version field. Unversioned documents are
// version 1 when settings already carry nested timetables, else version 0.
func detectVersion(raw rawDocument) (int, error) {
	if v, ok := raw["version"]; ok && v != nil {
		n, ok := v.(float64)
		if !ok || n != float64(int(n)) || n < 0 {
			return 0, fmt.Errorf("invalid schema version %v", v)
		}
		return int(n), nil
	}
	if settings, ok := raw["settings"].(map[string]interface{}); ok {
		if _, ok := settings["timetables"]; ok {
			return 1, nil
		}
	}
	return 0, nil
}

// migrateRaw runs the chain from the document's version to the current one.
// It returns the migrated object and the version it started from.
func migrateRaw(raw rawDocument) (rawDocument, int, error) {
	from, err := detectVersion(raw)
	if err != nil {
		return nil, 0, err
	}
	if from > models.CurrentSchemaVersion {
		return nil, from, fmt.Errorf("schema version %d is newer than supported %d", from, models.CurrentSchemaVersion)
	}
	out := deepCopy(raw).(map[string]interface{})
	for _, key := range transientKeys {
		delete(out, key)
	}
	for v := from; v < models.CurrentSchemaVersion; v++ {
		out = migrations[v](out)
	}
	return out, from, nil
}

// bindDocument converts a migrated object into a validated Document.
func bindDocument(raw rawDocument) (models.Document, error) {
	payload, err := json.Marshal(raw)
	if err != nil {
		return models.Document{}, fmt.Errorf("re-encode document: %w", err)
	}
	var doc models.Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return models.Document{}, fmt.Errorf("decode document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return models.Document{}, err
	}
	doc.Normalize()
	return doc, nil
}

// MigrateDocument parses, migrates and validates a persisted document. Any
// failure rejects the whole document.
func MigrateDocument(data []byte) (models.Document, int, error) {
	raw, err := parseRawDocument(data)
	if err != nil {
		return models.Document{}, 0, err
	}
	migrated, from, err := migrateRaw(raw)
	if err != nil {
		return models.Document{}, from, err
	}
	doc, err := bindDocument(migrated)
	return doc, from, err
}

// migrateV0ToV1 lifts the flat per-term timetables into
// timetables.year1.{first,second}, adds an empty year2 and defaults missing
// student grades to 1. Running it on an already lifted document changes nothing.
func migrateV0ToV1(in rawDocument) rawDocument {
	doc := deepCopy(in).(map[string]interface{})
	settings := objectAt(doc, "settings")

	if _, ok := settings["timetables"]; !ok {
		settings["timetables"] = map[string]interface{}{
			"year1": map[string]interface{}{
				"first":  objectOrEmpty(settings["firstTermTimetable"]),
				"second": objectOrEmpty(settings["secondTermTimetable"]),
			},
			"year2": map[string]interface{}{
				"first":  map[string]interface{}{},
				"second": map[string]interface{}{},
			},
		}
	}
	delete(settings, "firstTermTimetable")
	delete(settings, "secondTermTimetable")

	if students, ok := doc["students"].([]interface{}); ok {
		for _, s := range students {
			student, ok := s.(map[string]interface{})
			if !ok {
				continue
			}
			if g, ok := student["grade"]; !ok || g == nil {
				student["grade"] = float64(1)
			}
		}
	}
	doc["version"] = float64(1)
	return doc
}

// migrateV1ToV2 coerces settings into their allowed domains, derives the
// first term from the legacy termStartDate/termEndDate pair and drops those
// fields.
func migrateV1ToV2(in rawDocument) rawDocument {
	doc := deepCopy(in).(map[string]interface{})
	settings := objectAt(doc, "settings")

	if n, ok := settings["periodCount"].(float64); !ok || !models.ValidPeriodCount(int(n)) || n != float64(int(n)) {
		settings["periodCount"] = float64(4)
	}
	if h, ok := settings["hourPerPeriod"].(float64); !ok || h <= 0 {
		settings["hourPerPeriod"] = float64(1)
	}
	if _, ok := settings["firstTerm"].(map[string]interface{}); !ok {
		start, _ := settings["termStartDate"].(string)
		end, _ := settings["termEndDate"].(string)
		settings["firstTerm"] = map[string]interface{}{"start": start, "end": end}
	}
	if _, ok := settings["secondTerm"].(map[string]interface{}); !ok {
		settings["secondTerm"] = map[string]interface{}{"start": "", "end": ""}
	}
	delete(settings, "termStartDate")
	delete(settings, "termEndDate")

	timetables := objectAt(settings, "timetables")
	for _, year := range []string{"year1", "year2"} {
		terms := objectAt(timetables, year)
		for _, term := range []string{"first", "second"} {
			cells := objectAt(terms, term)
			for cell, v := range cells {
				if _, ok := v.(string); !ok {
					delete(cells, cell)
				}
			}
		}
	}

	if students, ok := doc["students"].([]interface{}); ok {
		for _, s := range students {
			student, ok := s.(map[string]interface{})
			if !ok {
				continue
			}
			if g, ok := student["grade"].(float64); !ok || !models.ValidGrade(int(g)) || g != float64(int(g)) {
				student["grade"] = float64(1)
			}
		}
	}
	for _, key := range []string{"students", "subjects", "attendanceRecords", "calendar"} {
		if v, ok := doc[key]; !ok || v == nil {
			doc[key] = []interface{}{}
		}
	}
	doc["version"] = float64(2)
	return doc
}

// objectAt returns parent[key] as an object, replacing any non-object value.
func objectAt(parent map[string]interface{}, key string) map[string]interface{} {
	if obj, ok := parent[key].(map[string]interface{}); ok {
		return obj
	}
	obj := map[string]interface{}{}
	parent[key] = obj
	return obj
}

func objectOrEmpty(v interface{}) map[string]interface{} {
	if obj, ok := v.(map[string]interface{}); ok {
		return obj
	}
	return map[string]interface{}{}
}

func deepCopy(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return v
	}
}
