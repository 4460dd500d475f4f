package repository

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"

	"github.com/dukapos/export-worker/internal/models"
)

// TenantRepository reads tenant-owned data. It only ever reads; the platform's
// CRUD services own the writes.
type TenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) StockRows(ctx context.Context, businessID string, branchID *string) ([]models.StockRow, error) {
	query := `
		SELECT s.product_id, p.name AS product_name, p.sku, c.name AS category,
		       s.branch_id, b.name AS branch_name,
		       u.code AS unit_code, u.label AS unit_label,
		       s.quantity, s.reorder_level, p.cost_price, p.selling_price,
		       s.updated_at
		FROM stock s
		JOIN products p ON p.id = s.product_id
		JOIN branches b ON b.id = s.branch_id
		LEFT JOIN categories c ON c.id = p.category_id
		LEFT JOIN units u ON u.id = p.unit_id
		WHERE s.business_id = ?
	`
	return scopedRows[models.StockRow](ctx, r.db, query+branchClause(branchID, "s"), businessID, branchID)
}

func (r *TenantRepository) ProductRows(ctx context.Context, businessID string, branchID *string) ([]models.ProductRow, error) {
	query := `
		SELECT p.id, p.name, p.sku, p.barcode, c.name AS category,
		       u.code AS unit_code, u.label AS unit_label,
		       p.cost_price, p.selling_price, COALESCE(t.rate, 0) AS tax_rate,
		       p.active, p.created_at
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		LEFT JOIN units u ON u.id = p.unit_id
		LEFT JOIN tax_rates t ON t.id = p.tax_rate_id
		WHERE p.business_id = ?
	`
	return scopedRows[models.ProductRow](ctx, r.db, query, businessID, nil)
}

func (r *TenantRepository) OpeningStockRows(ctx context.Context, businessID string, branchID *string) ([]models.OpeningStockRow, error) {
	query := `
		SELECT o.product_id, p.name AS product_name,
		       o.branch_id, b.name AS branch_name,
		       u.code AS unit_code, o.quantity, o.unit_cost, o.recorded_at
		FROM opening_stock o
		JOIN products p ON p.id = o.product_id
		JOIN branches b ON b.id = o.branch_id
		LEFT JOIN units u ON u.id = p.unit_id
		WHERE o.business_id = ?
	`
	return scopedRows[models.OpeningStockRow](ctx, r.db, query+branchClause(branchID, "o"), businessID, branchID)
}

func (r *TenantRepository) PriceUpdateRows(ctx context.Context, businessID string, branchID *string) ([]models.PriceUpdateRow, error) {
	query := `
		SELECT pu.product_id, p.name AS product_name, u.code AS unit_code,
		       pu.old_price, pu.new_price, pu.changed_by, pu.changed_at
		FROM price_updates pu
		JOIN products p ON p.id = pu.product_id
		LEFT JOIN units u ON u.id = p.unit_id
		WHERE pu.business_id = ?
	`
	return scopedRows[models.PriceUpdateRow](ctx, r.db, query, businessID, nil)
}

func (r *TenantRepository) SupplierRows(ctx context.Context, businessID string, branchID *string) ([]models.SupplierRow, error) {
	query := `
		SELECT id, name, contact_person, phone, email, balance, created_at
		FROM suppliers
		WHERE business_id = ?
	`
	return scopedRows[models.SupplierRow](ctx, r.db, query, businessID, nil)
}

func (r *TenantRepository) BranchRows(ctx context.Context, businessID string, branchID *string) ([]models.BranchRow, error) {
	query := `
		SELECT id, name, address, phone, active, created_at
		FROM branches
		WHERE business_id = ?
	`
	return scopedRows[models.BranchRow](ctx, r.db, query, businessID, nil)
}

func (r *TenantRepository) UserRows(ctx context.Context, businessID string, branchID *string) ([]models.UserRow, error) {
	query := `
		SELECT us.id, us.full_name, us.email, COALESCE(ro.name, '') AS role,
		       us.branch_id, b.name AS branch_name, us.active,
		       us.last_login_at, us.created_at
		FROM users us
		LEFT JOIN branches b ON b.id = us.branch_id
		LEFT JOIN user_roles ur ON ur.user_id = us.id
		LEFT JOIN roles ro ON ro.id = ur.role_id
		WHERE us.business_id = ?
	`
	return scopedRows[models.UserRow](ctx, r.db, query+branchClause(branchID, "us"), businessID, branchID)
}

func (r *TenantRepository) CustomerReportRows(ctx context.Context, businessID string, branchID *string) ([]models.CustomerReportRow, error) {
	query := `
		SELECT cu.id AS customer_id, cu.name AS customer_name, cu.phone,
		       COUNT(sa.id) AS sales_count,
		       COALESCE(SUM(sa.total), 0) AS total_spent,
		       cu.outstanding_credit,
		       MAX(sa.created_at) AS last_sale_at
		FROM customers cu
		LEFT JOIN sales sa ON sa.customer_id = cu.id
		WHERE cu.business_id = ?
		GROUP BY cu.id, cu.name, cu.phone, cu.outstanding_credit
	`
	return scopedRows[models.CustomerReportRow](ctx, r.db, query, businessID, nil)
}

func (r *TenantRepository) AuditLogRows(ctx context.Context, businessID string, branchID *string) ([]models.AuditLogRow, error) {
	query := `
		SELECT id, action, resource_type, resource_id, outcome, actor_user_id, created_at
		FROM audit_log
		WHERE business_id = ?
		ORDER BY created_at ASC
	`
	return scopedRows[models.AuditLogRow](ctx, r.db, query, businessID, nil)
}

// branchClause appends an optional branch restriction for tables that carry a
// branch_id column.
func branchClause(branchID *string, alias string) string {
	if branchID == nil {
		return ""
	}
	return fmt.Sprintf(" AND %s.branch_id = ?", alias)
}

func scopedRows[T any](ctx context.Context, db *gorm.DB, query string, businessID string, branchID *string) ([]T, error) {
	args := []any{businessID}
	if branchID != nil {
		args = append(args, *branchID)
	}
	var rows []T
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// tenantCollection is one collection included in the full-tenant bundle. The
// unit joins on the catalog/stock queries keep those CSVs self-describing.
type tenantCollection struct {
	Name  string
	Query string
}

var tenantCollections = []tenantCollection{
	{"business", `SELECT * FROM business WHERE id = ?`},
	{"business_settings", `SELECT * FROM business_settings WHERE business_id = ?`},
	{"branches", `SELECT * FROM branches WHERE business_id = ?`},
	{"subscriptions", `SELECT * FROM subscriptions WHERE business_id = ?`},
	{"subscription_history", `SELECT * FROM subscription_history WHERE business_id = ?`},
	{"users", `SELECT * FROM users WHERE business_id = ?`},
	{"roles", `SELECT * FROM roles WHERE business_id = ?`},
	{"permissions", `SELECT * FROM permissions WHERE business_id = ?`},
	{"user_roles", `SELECT ur.* FROM user_roles ur JOIN users us ON us.id = ur.user_id WHERE us.business_id = ?`},
	{"role_permissions", `SELECT rp.* FROM role_permissions rp JOIN roles ro ON ro.id = rp.role_id WHERE ro.business_id = ?`},
	{"categories", `SELECT * FROM categories WHERE business_id = ?`},
	{"units", `SELECT * FROM units WHERE business_id = ?`},
	{"products", `SELECT p.*, u.code AS unit_code, u.label AS unit_label FROM products p LEFT JOIN units u ON u.id = p.unit_id WHERE p.business_id = ?`},
	{"product_variants", `SELECT pv.* FROM product_variants pv JOIN products p ON p.id = pv.product_id WHERE p.business_id = ?`},
	{"stock", `SELECT s.*, u.code AS unit_code, u.label AS unit_label FROM stock s JOIN products p ON p.id = s.product_id LEFT JOIN units u ON u.id = p.unit_id WHERE s.business_id = ?`},
	{"opening_stock", `SELECT o.*, u.code AS unit_code, u.label AS unit_label FROM opening_stock o JOIN products p ON p.id = o.product_id LEFT JOIN units u ON u.id = p.unit_id WHERE o.business_id = ?`},
	{"stock_movements", `SELECT sm.*, u.code AS unit_code FROM stock_movements sm JOIN products p ON p.id = sm.product_id LEFT JOIN units u ON u.id = p.unit_id WHERE sm.business_id = ?`},
	{"stock_adjustments", `SELECT * FROM stock_adjustments WHERE business_id = ?`},
	{"price_lists", `SELECT * FROM price_lists WHERE business_id = ?`},
	{"price_list_items", `SELECT pli.* FROM price_list_items pli JOIN price_lists pl ON pl.id = pli.price_list_id WHERE pl.business_id = ?`},
	{"price_updates", `SELECT * FROM price_updates WHERE business_id = ?`},
	{"sales", `SELECT * FROM sales WHERE business_id = ?`},
	{"sale_items", `SELECT si.*, u.code AS unit_code FROM sale_items si JOIN products p ON p.id = si.product_id LEFT JOIN units u ON u.id = p.unit_id WHERE si.business_id = ?`},
	{"sale_payments", `SELECT sp.* FROM sale_payments sp JOIN sales sa ON sa.id = sp.sale_id WHERE sa.business_id = ?`},
	{"purchases", `SELECT * FROM purchases WHERE business_id = ?`},
	{"purchase_items", `SELECT pi.*, u.code AS unit_code FROM purchase_items pi JOIN products p ON p.id = pi.product_id LEFT JOIN units u ON u.id = p.unit_id WHERE pi.business_id = ?`},
	{"purchase_orders", `SELECT * FROM purchase_orders WHERE business_id = ?`},
	{"suppliers", `SELECT * FROM suppliers WHERE business_id = ?`},
	{"supplier_invoices", `SELECT * FROM supplier_invoices WHERE business_id = ?`},
	{"customers", `SELECT * FROM customers WHERE business_id = ?`},
	{"customer_reports", `SELECT * FROM customer_reports WHERE business_id = ?`},
	{"expenses", `SELECT * FROM expenses WHERE business_id = ?`},
	{"expense_categories", `SELECT * FROM expense_categories WHERE business_id = ?`},
	{"tax_rates", `SELECT * FROM tax_rates WHERE business_id = ?`},
	{"shifts", `SELECT * FROM shifts WHERE business_id = ?`},
	{"shift_entries", `SELECT se.* FROM shift_entries se JOIN shifts sh ON sh.id = se.shift_id WHERE sh.business_id = ?`},
	{"approvals", `SELECT * FROM approvals WHERE business_id = ?`},
	{"approval_steps", `SELECT aps.* FROM approval_steps aps JOIN approvals ap ON ap.id = aps.approval_id WHERE ap.business_id = ?`},
	{"notifications", `SELECT * FROM notifications WHERE business_id = ?`},
	{"offline_devices", `SELECT * FROM offline_devices WHERE business_id = ?`},
	{"attachments", `SELECT * FROM attachments WHERE business_id = ?`},
	{"audit_log", `SELECT * FROM audit_log WHERE business_id = ?`},
}

// Snapshot reads every tenant-owned collection inside one repeatable-read
// transaction so the bundle reflects a single coherent instant. The typed
// attachment list rides along in the same transaction so downloads operate on
// exactly the rows the CSVs describe.
func (r *TenantRepository) Snapshot(ctx context.Context, businessID string) ([]models.CollectionData, []models.Attachment, error) {
	tx := r.db.WithContext(ctx).Begin(&sql.TxOptions{
		Isolation: sql.LevelRepeatableRead,
		ReadOnly:  true,
	})
	if tx.Error != nil {
		return nil, nil, fmt.Errorf("failed to begin snapshot transaction: %w", tx.Error)
	}
	defer tx.Rollback()

	collections := make([]models.CollectionData, 0, len(tenantCollections))
	for _, c := range tenantCollections {
		var rows []map[string]any
		if err := tx.Raw(c.Query, businessID).Scan(&rows).Error; err != nil {
			return nil, nil, fmt.Errorf("failed to read collection %s: %w", c.Name, err)
		}
		collections = append(collections, models.CollectionData{Name: c.Name, Rows: rows})
	}

	var attachments []models.Attachment
	if err := tx.Raw(`SELECT id, business_id, filename, storage_key, url, status, created_at FROM attachments WHERE business_id = ?`, businessID).
		Scan(&attachments).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to read attachments: %w", err)
	}

	return collections, attachments, nil
}
