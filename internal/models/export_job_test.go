package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestValidExportType(t *testing.T) {
	tests := []struct {
		name       string
		exportType ExportType
		expected   bool
	}{
		{"stock", ExportTypeStock, true},
		{"bundle", ExportTypeExportOnExit, true},
		{"audit logs", ExportTypeAuditLogs, true},
		{"unknown", ExportType("SPREADSHEET"), false},
		{"empty", ExportType(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidExportType(tt.exportType); got != tt.expected {
				t.Errorf("Expected %t, got %t", tt.expected, got)
			}
		})
	}
}

func TestJobMetadata_CSVShape(t *testing.T) {
	meta := JobMetadata{Filename: "stock.csv", CSV: "a,b\n1,2"}

	data, err := json.Marshal(meta)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	got := string(data)
	if !strings.Contains(got, `"filename":"stock.csv"`) {
		t.Errorf("expected filename field, got %s", got)
	}
	// The bundle-only fields must stay absent on a plain CSV result.
	for _, forbidden := range []string{"zipUrl", "attachmentFailures", "files"} {
		if strings.Contains(got, forbidden) {
			t.Errorf("unexpected field %s in CSV result: %s", forbidden, got)
		}
	}
}

func TestJobMetadata_BundleShape(t *testing.T) {
	zero := 0
	meta := JobMetadata{
		ZipURL:             "https://storage.example/exports/biz/job.zip",
		Files:              []BundleFileInfo{{Filename: "products.csv", Rows: 2}},
		Attachments:        []AttachmentManifestEntry{{ID: "att-1", DownloadStatus: DownloadStatusOK}},
		AttachmentFailures: &zero,
	}

	data, err := json.Marshal(meta)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	got := string(data)
	// A zero failure count must still be visible on bundle results.
	if !strings.Contains(got, `"attachmentFailures":0`) {
		t.Errorf("expected explicit zero attachmentFailures, got %s", got)
	}
	if strings.Contains(got, `"filename"`) || strings.Contains(got, `"csv"`) {
		t.Errorf("unexpected CSV result fields in bundle result: %s", got)
	}
}

func TestJobMetadata_ScanValueRoundTrip(t *testing.T) {
	original := &JobMetadata{Acknowledgement: "EXPORT_AUDIT_LOGS_CONFIRMED", Filename: "audit.csv", CSV: "id\n1"}

	value, err := original.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var restored JobMetadata
	if err := restored.Scan(value); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if restored.Acknowledgement != original.Acknowledgement || restored.CSV != original.CSV {
		t.Errorf("round trip mismatch: %+v vs %+v", restored, original)
	}
}

func TestJobMetadata_ScanNil(t *testing.T) {
	var meta JobMetadata
	if err := meta.Scan(nil); err != nil {
		t.Fatalf("expected nil scan to be a no-op, got %v", err)
	}
}
