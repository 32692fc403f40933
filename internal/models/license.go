package models

// LicenseStatus is derived from the stored key and expiry.
type LicenseStatus string

const (
	LicenseFree    LicenseStatus = "free"
	LicensePro     LicenseStatus = "pro"
	LicenseEval    LicenseStatus = "eval"
	LicenseExpired LicenseStatus = "expired"
)

// Unlimited reports whether the status lifts the student limit.
func (s LicenseStatus) Unlimited() bool {
	return s == LicensePro || s == LicenseEval
}

// License is the stored license state. Expiry is epoch milliseconds.
type License struct {
	Key    *string `json:"licenseKey"`
	Expiry *int64  `json:"licenseExpiry"`
}

// LicenseInfo is the read model returned to callers.
type LicenseInfo struct {
	Status       LicenseStatus `json:"status"`
	ExpiresAt    *int64        `json:"expiresAt,omitempty"`
	StudentLimit int           `json:"studentLimit,omitempty"`
	StudentCount int           `json:"studentCount"`
}
