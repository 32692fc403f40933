package service

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/noah-isme/attendance-tracker/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
)

// EncodeDocument renders doc as base64 of its UTF-8 JSON. Transient sync
// state is not part of Document and never travels.
func EncodeDocument(doc models.Document) (string, error) {
	export := doc.Clone()
	payload, err := json.Marshal(export)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return base64.StdEncoding.EncodeToString(payload), nil
}

func invalidPayload(err error) error {
	return appErrors.Wrap(err, appErrors.ErrInvalidSyncPayload.Code, appErrors.ErrInvalidSyncPayload.Status, appErrors.ErrInvalidSyncPayload.Message)
}

// DecodeDocument reverses EncodeDocument. The payload must carry at least
// students and settings; older shapes are migrated first. Nothing is applied
// here, so a failure leaves every caller's state untouched.
func DecodeDocument(blob string) (ImportPayload, error) {
	blob = strings.TrimSpace(blob)
	if blob == "" {
		return ImportPayload{}, invalidPayload(fmt.Errorf("empty payload"))
	}
	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(blob); err != nil {
			return ImportPayload{}, invalidPayload(fmt.Errorf("payload is not base64: %w", err))
		}
	}

	raw, err := parseRawDocument(data)
	if err != nil {
		return ImportPayload{}, invalidPayload(err)
	}
	for _, key := range []string{"students", "settings"} {
		if v, ok := raw[key]; !ok || v == nil {
			return ImportPayload{}, invalidPayload(fmt.Errorf("payload is missing %q", key))
		}
	}
	_, hasKey := raw["licenseKey"]
	_, hasExpiry := raw["licenseExpiry"]

	migrated, _, err := migrateRaw(raw)
	if err != nil {
		return ImportPayload{}, invalidPayload(err)
	}
	doc, err := bindDocument(migrated)
	if err != nil {
		return ImportPayload{}, invalidPayload(err)
	}
	return ImportPayload{Document: doc, HasLicense: hasKey || hasExpiry}, nil
}
