package dto

import (
	"time"

	"github.com/noah-isme/attendance-tracker/internal/models"
)

// TransferIssueResponse is returned after pushing the dataset to the relay.
type TransferIssueResponse struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
	ExpiresIn int       `json:"expiresIn"`
}

// TransferStatusResponse reports the transfer session.
type TransferStatusResponse struct {
	State            string           `json:"state"`
	Code             string           `json:"code,omitempty"`
	ExpiresAt        *time.Time       `json:"expiresAt,omitempty"`
	RemainingSeconds int              `json:"remainingSeconds"`
	Sync             models.SyncState `json:"sync"`
}

// TransferImportRequest pulls a dataset by relay code.
type TransferImportRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// TransferBlobRequest imports an offline blob.
type TransferBlobRequest struct {
	Data string `json:"data" validate:"required"`
}

// TransferBlobResponse carries an offline blob.
type TransferBlobResponse struct {
	Data string `json:"data"`
}

// TransferImportResponse summarises an import.
type TransferImportResponse struct {
	Students          int       `json:"students"`
	Subjects          int       `json:"subjects"`
	AttendanceRecords int       `json:"attendanceRecords"`
	ImportedAt        time.Time `json:"importedAt"`
}
