package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dukapos/export-worker/internal/csvenc"
	"github.com/dukapos/export-worker/internal/metrics"
	"github.com/dukapos/export-worker/internal/models"
	"github.com/dukapos/export-worker/internal/zipenc"
)

// generateBundle builds the full-tenant EXPORT_ON_EXIT archive: one snapshot
// read across every tenant collection, one CSV per collection, the tenant's
// attachments, two manifests, zipped and uploaded. A single attachment failure
// never aborts the bundle; the final upload failing does.
func (r *ExportRunner) generateBundle(ctx context.Context, job *models.ExportJob) (*models.JobMetadata, error) {
	if r.store == nil {
		return nil, fmt.Errorf("object storage is not configured")
	}

	collections, attachments, err := r.tenants.Snapshot(ctx, job.BusinessID)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot tenant data: %w", err)
	}

	entries := make([]zipenc.Entry, 0, len(collections)+len(attachments)+2)
	files := make([]models.BundleFileInfo, 0, len(collections))
	for _, c := range collections {
		name := c.Name + ".csv"
		entries = append(entries, zipenc.Entry{
			Name: name,
			Data: []byte(csvenc.Encode(nil, c.Rows)),
		})
		files = append(files, models.BundleFileInfo{Filename: name, Rows: len(c.Rows)})
	}

	manifestEntries := make([]models.AttachmentManifestEntry, 0, len(attachments))
	failures := 0
	for _, att := range attachments {
		entry := models.AttachmentManifestEntry{
			ID:         att.ID,
			Filename:   att.Filename,
			StorageKey: att.StorageKey,
			URL:        att.URL,
			Status:     att.Status,
		}

		data, err := r.fetchAttachment(ctx, att)
		if err != nil {
			entry.DownloadStatus = models.DownloadStatusFailed
			entry.ErrorMessage = err.Error()
			failures++
			metrics.AttachmentDownloadsTotal.WithLabelValues("failed").Inc()
			r.log.WithError(err).WithFields(logrus.Fields{
				"job_id":        job.ID,
				"attachment_id": att.ID,
			}).Warn("attachment download failed, continuing bundle")
		} else {
			entry.DownloadStatus = models.DownloadStatusOK
			entry.SizeBytes = int64(len(data))
			entries = append(entries, zipenc.Entry{
				Name: fmt.Sprintf("attachments/%s_%s", att.ID, att.Filename),
				Data: data,
			})
			metrics.AttachmentDownloadsTotal.WithLabelValues("ok").Inc()
		}
		manifestEntries = append(manifestEntries, entry)
	}

	manifest := models.BundleManifest{
		GeneratedAt:     time.Now().UTC(),
		FileCount:       len(files),
		AttachmentCount: len(attachments),
	}
	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	attachmentsJSON, err := json.MarshalIndent(manifestEntries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode attachments manifest: %w", err)
	}
	entries = append(entries,
		zipenc.Entry{Name: "manifest.json", Data: manifestJSON},
		zipenc.Entry{Name: "attachments_manifest.json", Data: attachmentsJSON},
	)

	archive := zipenc.Encode(entries)
	key := fmt.Sprintf("exports/%s/%s.zip", job.BusinessID, job.ID)
	zipURL, err := r.store.Upload(ctx, key, archive, "application/zip")
	if err != nil {
		return nil, fmt.Errorf("failed to upload bundle: %w", err)
	}

	failureCount := failures
	return &models.JobMetadata{
		ZipURL:             zipURL,
		Files:              files,
		Attachments:        manifestEntries,
		AttachmentFailures: &failureCount,
	}, nil
}

// fetchAttachment resolves the attachment's bytes, preferring a presigned URL
// for storage keys and falling back to the row's direct URL.
func (r *ExportRunner) fetchAttachment(ctx context.Context, att models.Attachment) ([]byte, error) {
	url := att.URL
	if att.StorageKey != "" {
		presigned, err := r.store.PresignDownload(ctx, att.StorageKey)
		if err != nil {
			return nil, fmt.Errorf("failed to presign attachment download: %w", err)
		}
		url = presigned
	}
	if url == "" {
		return nil, fmt.Errorf("attachment %s has no storage key or url", att.ID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download attachment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("attachment download returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
