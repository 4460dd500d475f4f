package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dukapos/export-worker/internal/csvenc"
	"github.com/dukapos/export-worker/internal/models"
)

// generate dispatches to the type-specific generator and returns the result
// metadata to be stored on the job.
func (r *ExportRunner) generate(ctx context.Context, job *models.ExportJob, acknowledgement string) (*models.JobMetadata, error) {
	switch job.Type {
	case models.ExportTypeStock:
		rows, err := r.tenants.StockRows(ctx, job.BusinessID, job.BranchID)
		if err != nil {
			return nil, fmt.Errorf("failed to read stock: %w", err)
		}
		return csvResult("stock_export", toRecords(rows)), nil

	case models.ExportTypeProducts:
		rows, err := r.tenants.ProductRows(ctx, job.BusinessID, job.BranchID)
		if err != nil {
			return nil, fmt.Errorf("failed to read products: %w", err)
		}
		return csvResult("products_export", toRecords(rows)), nil

	case models.ExportTypeOpeningStock:
		rows, err := r.tenants.OpeningStockRows(ctx, job.BusinessID, job.BranchID)
		if err != nil {
			return nil, fmt.Errorf("failed to read opening stock: %w", err)
		}
		return csvResult("opening_stock_export", toRecords(rows)), nil

	case models.ExportTypePriceUpdates:
		rows, err := r.tenants.PriceUpdateRows(ctx, job.BusinessID, job.BranchID)
		if err != nil {
			return nil, fmt.Errorf("failed to read price updates: %w", err)
		}
		return csvResult("price_updates_export", toRecords(rows)), nil

	case models.ExportTypeSuppliers:
		rows, err := r.tenants.SupplierRows(ctx, job.BusinessID, job.BranchID)
		if err != nil {
			return nil, fmt.Errorf("failed to read suppliers: %w", err)
		}
		return csvResult("suppliers_export", toRecords(rows)), nil

	case models.ExportTypeBranches:
		rows, err := r.tenants.BranchRows(ctx, job.BusinessID, job.BranchID)
		if err != nil {
			return nil, fmt.Errorf("failed to read branches: %w", err)
		}
		return csvResult("branches_export", toRecords(rows)), nil

	case models.ExportTypeUsers:
		rows, err := r.tenants.UserRows(ctx, job.BusinessID, job.BranchID)
		if err != nil {
			return nil, fmt.Errorf("failed to read users: %w", err)
		}
		return csvResult("users_export", toRecords(rows)), nil

	case models.ExportTypeCustomerReports:
		rows, err := r.tenants.CustomerReportRows(ctx, job.BusinessID, job.BranchID)
		if err != nil {
			return nil, fmt.Errorf("failed to read customer reports: %w", err)
		}
		return csvResult("customer_reports_export", toRecords(rows)), nil

	case models.ExportTypeAuditLogs:
		// Fail fast before touching any data.
		if acknowledgement != AuditLogsAcknowledgement {
			return nil, ErrAcknowledgementRequired
		}
		rows, err := r.tenants.AuditLogRows(ctx, job.BusinessID, job.BranchID)
		if err != nil {
			return nil, fmt.Errorf("failed to read audit logs: %w", err)
		}
		return csvResult("audit_logs_export", toRecords(rows)), nil

	case models.ExportTypeExportOnExit:
		return r.generateBundle(ctx, job)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, job.Type)
	}
}

type recorder interface {
	Record() map[string]any
}

func toRecords[T recorder](rows []T) []map[string]any {
	records := make([]map[string]any, len(rows))
	for i, row := range rows {
		records[i] = row.Record()
	}
	return records
}

func csvResult(prefix string, records []map[string]any) *models.JobMetadata {
	filename := fmt.Sprintf("%s_%s.csv", prefix, time.Now().UTC().Format("20060102_150405"))
	return &models.JobMetadata{
		Filename: filename,
		CSV:      csvenc.Encode(nil, records),
	}
}
