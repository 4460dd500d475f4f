package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type ExportStatus string

const (
	ExportStatusPending   ExportStatus = "PENDING"   // Waiting to be claimed
	ExportStatusRunning   ExportStatus = "RUNNING"   // Claimed by a worker
	ExportStatusCompleted ExportStatus = "COMPLETED" // Result stored in metadata
	ExportStatusFailed    ExportStatus = "FAILED"    // Eligible for retry until the attempt cap
)

type ExportType string

const (
	ExportTypeStock           ExportType = "STOCK"
	ExportTypeProducts        ExportType = "PRODUCTS"
	ExportTypeOpeningStock    ExportType = "OPENING_STOCK"
	ExportTypePriceUpdates    ExportType = "PRICE_UPDATES"
	ExportTypeSuppliers       ExportType = "SUPPLIERS"
	ExportTypeBranches        ExportType = "BRANCHES"
	ExportTypeUsers           ExportType = "USERS"
	ExportTypeAuditLogs       ExportType = "AUDIT_LOGS"
	ExportTypeCustomerReports ExportType = "CUSTOMER_REPORTS"
	ExportTypeExportOnExit    ExportType = "EXPORT_ON_EXIT" // Full-tenant bundle
)

// ExportTypes lists every supported export type.
var ExportTypes = []ExportType{
	ExportTypeStock,
	ExportTypeProducts,
	ExportTypeOpeningStock,
	ExportTypePriceUpdates,
	ExportTypeSuppliers,
	ExportTypeBranches,
	ExportTypeUsers,
	ExportTypeAuditLogs,
	ExportTypeCustomerReports,
	ExportTypeExportOnExit,
}

// ValidExportType reports whether t is a supported export type.
func ValidExportType(t ExportType) bool {
	for _, known := range ExportTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ExportJob represents one export request and its lifecycle state.
type ExportJob struct {
	ID                string       `gorm:"column:id;primaryKey"`
	BusinessID        string       `gorm:"column:business_id;index"`
	BranchID          *string      `gorm:"column:branch_id"`
	Type              ExportType   `gorm:"column:type"`
	Status            ExportStatus `gorm:"column:status;index"`
	Attempts          int          `gorm:"column:attempts"`
	RequestedByUserID string       `gorm:"column:requested_by_user_id"`
	StartedAt         *time.Time   `gorm:"column:started_at"`
	CompletedAt       *time.Time   `gorm:"column:completed_at"`
	LastError         *string      `gorm:"column:last_error"`
	Metadata          *JobMetadata `gorm:"column:metadata;type:jsonb"`
	CreatedAt         time.Time    `gorm:"column:created_at"`
	UpdatedAt         time.Time    `gorm:"column:updated_at"`
}

// TableName specifies the table name for GORM
func (ExportJob) TableName() string {
	return "export_job"
}

// JobMetadata is the job's opaque result document. While the job is pending it
// may carry the acknowledgement captured at enqueue time; once completed it
// holds either a plain CSV result (Filename/CSV) or a bundle result
// (ZipURL/Files/Attachments/AttachmentFailures). Callers branch on the job's
// type to know which shape to expect.
type JobMetadata struct {
	Acknowledgement    string                    `json:"acknowledgement,omitempty"`
	Filename           string                    `json:"filename,omitempty"`
	CSV                string                    `json:"csv,omitempty"`
	ZipURL             string                    `json:"zipUrl,omitempty"`
	Files              []BundleFileInfo          `json:"files,omitempty"`
	Attachments        []AttachmentManifestEntry `json:"attachments,omitempty"`
	AttachmentFailures *int                      `json:"attachmentFailures,omitempty"`
}

// Value serializes the metadata document for a jsonb column.
func (m *JobMetadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan deserializes a jsonb column into the metadata document.
func (m *JobMetadata) Scan(value any) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported metadata column type %T", value)
	}
}

// CSVFile is a transient rendered table; it is never persisted on its own,
// only embedded into job metadata or fed to the archive encoder.
type CSVFile struct {
	Filename string `json:"filename"`
	CSV      string `json:"csv"`
}

// BundleFileInfo describes one CSV file included in a full-tenant bundle.
type BundleFileInfo struct {
	Filename string `json:"filename"`
	Rows     int    `json:"rows"`
}

// Attachment download outcomes recorded in the bundle manifest.
const (
	DownloadStatusOK     = "OK"
	DownloadStatusFailed = "FAILED"
)

// AttachmentManifestEntry records the outcome of bundling one externally
// stored attachment.
type AttachmentManifestEntry struct {
	ID             string `json:"id"`
	Filename       string `json:"filename"`
	StorageKey     string `json:"storageKey,omitempty"`
	URL            string `json:"url,omitempty"`
	Status         string `json:"status"`
	DownloadStatus string `json:"downloadStatus"`
	SizeBytes      int64  `json:"sizeBytes,omitempty"`
	ErrorMessage   string `json:"errorMessage,omitempty"`
}

// BundleManifest is the top-level manifest.json placed in every bundle.
type BundleManifest struct {
	GeneratedAt     time.Time `json:"generatedAt"`
	FileCount       int       `json:"fileCount"`
	AttachmentCount int       `json:"attachmentCount"`
}
