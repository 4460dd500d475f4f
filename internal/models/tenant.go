package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Denormalized view rows backing the simple table exports. Unit code/label are
// joined in so the flattened CSV is self-describing without foreign-key
// lookups. Each row exposes a Record() map form for the tabular encoder.

type StockRow struct {
	ProductID    string          `gorm:"column:product_id"`
	ProductName  string          `gorm:"column:product_name"`
	SKU          string          `gorm:"column:sku"`
	Category     string          `gorm:"column:category"`
	BranchID     string          `gorm:"column:branch_id"`
	BranchName   string          `gorm:"column:branch_name"`
	UnitCode     string          `gorm:"column:unit_code"`
	UnitLabel    string          `gorm:"column:unit_label"`
	Quantity     decimal.Decimal `gorm:"column:quantity"`
	ReorderLevel decimal.Decimal `gorm:"column:reorder_level"`
	CostPrice    decimal.Decimal `gorm:"column:cost_price"`
	SellingPrice decimal.Decimal `gorm:"column:selling_price"`
	UpdatedAt    time.Time       `gorm:"column:updated_at"`
}

func (r StockRow) Record() map[string]any {
	return map[string]any{
		"product_id":    r.ProductID,
		"product_name":  r.ProductName,
		"sku":           r.SKU,
		"category":      r.Category,
		"branch_id":     r.BranchID,
		"branch_name":   r.BranchName,
		"unit_code":     r.UnitCode,
		"unit_label":    r.UnitLabel,
		"quantity":      r.Quantity,
		"reorder_level": r.ReorderLevel,
		"cost_price":    r.CostPrice,
		"selling_price": r.SellingPrice,
		"updated_at":    r.UpdatedAt,
	}
}

type ProductRow struct {
	ID           string          `gorm:"column:id"`
	Name         string          `gorm:"column:name"`
	SKU          string          `gorm:"column:sku"`
	Barcode      *string         `gorm:"column:barcode"`
	Category     string          `gorm:"column:category"`
	UnitCode     string          `gorm:"column:unit_code"`
	UnitLabel    string          `gorm:"column:unit_label"`
	CostPrice    decimal.Decimal `gorm:"column:cost_price"`
	SellingPrice decimal.Decimal `gorm:"column:selling_price"`
	TaxRate      decimal.Decimal `gorm:"column:tax_rate"`
	Active       bool            `gorm:"column:active"`
	CreatedAt    time.Time       `gorm:"column:created_at"`
}

func (r ProductRow) Record() map[string]any {
	return map[string]any{
		"id":            r.ID,
		"name":          r.Name,
		"sku":           r.SKU,
		"barcode":       r.Barcode,
		"category":      r.Category,
		"unit_code":     r.UnitCode,
		"unit_label":    r.UnitLabel,
		"cost_price":    r.CostPrice,
		"selling_price": r.SellingPrice,
		"tax_rate":      r.TaxRate,
		"active":        r.Active,
		"created_at":    r.CreatedAt,
	}
}

type OpeningStockRow struct {
	ProductID   string          `gorm:"column:product_id"`
	ProductName string          `gorm:"column:product_name"`
	BranchID    string          `gorm:"column:branch_id"`
	BranchName  string          `gorm:"column:branch_name"`
	UnitCode    string          `gorm:"column:unit_code"`
	Quantity    decimal.Decimal `gorm:"column:quantity"`
	UnitCost    decimal.Decimal `gorm:"column:unit_cost"`
	RecordedAt  time.Time       `gorm:"column:recorded_at"`
}

func (r OpeningStockRow) Record() map[string]any {
	return map[string]any{
		"product_id":   r.ProductID,
		"product_name": r.ProductName,
		"branch_id":    r.BranchID,
		"branch_name":  r.BranchName,
		"unit_code":    r.UnitCode,
		"quantity":     r.Quantity,
		"unit_cost":    r.UnitCost,
		"recorded_at":  r.RecordedAt,
	}
}

type PriceUpdateRow struct {
	ProductID   string          `gorm:"column:product_id"`
	ProductName string          `gorm:"column:product_name"`
	UnitCode    string          `gorm:"column:unit_code"`
	OldPrice    decimal.Decimal `gorm:"column:old_price"`
	NewPrice    decimal.Decimal `gorm:"column:new_price"`
	ChangedBy   string          `gorm:"column:changed_by"`
	ChangedAt   time.Time       `gorm:"column:changed_at"`
}

func (r PriceUpdateRow) Record() map[string]any {
	return map[string]any{
		"product_id":   r.ProductID,
		"product_name": r.ProductName,
		"unit_code":    r.UnitCode,
		"old_price":    r.OldPrice,
		"new_price":    r.NewPrice,
		"changed_by":   r.ChangedBy,
		"changed_at":   r.ChangedAt,
	}
}

type SupplierRow struct {
	ID            string          `gorm:"column:id"`
	Name          string          `gorm:"column:name"`
	ContactPerson *string         `gorm:"column:contact_person"`
	Phone         *string         `gorm:"column:phone"`
	Email         *string         `gorm:"column:email"`
	Balance       decimal.Decimal `gorm:"column:balance"`
	CreatedAt     time.Time       `gorm:"column:created_at"`
}

func (r SupplierRow) Record() map[string]any {
	return map[string]any{
		"id":             r.ID,
		"name":           r.Name,
		"contact_person": r.ContactPerson,
		"phone":          r.Phone,
		"email":          r.Email,
		"balance":        r.Balance,
		"created_at":     r.CreatedAt,
	}
}

type BranchRow struct {
	ID        string    `gorm:"column:id"`
	Name      string    `gorm:"column:name"`
	Address   *string   `gorm:"column:address"`
	Phone     *string   `gorm:"column:phone"`
	Active    bool      `gorm:"column:active"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (r BranchRow) Record() map[string]any {
	return map[string]any{
		"id":         r.ID,
		"name":       r.Name,
		"address":    r.Address,
		"phone":      r.Phone,
		"active":     r.Active,
		"created_at": r.CreatedAt,
	}
}

type UserRow struct {
	ID          string     `gorm:"column:id"`
	FullName    string     `gorm:"column:full_name"`
	Email       string     `gorm:"column:email"`
	Role        string     `gorm:"column:role"`
	BranchID    *string    `gorm:"column:branch_id"`
	BranchName  *string    `gorm:"column:branch_name"`
	Active      bool       `gorm:"column:active"`
	LastLoginAt *time.Time `gorm:"column:last_login_at"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
}

func (r UserRow) Record() map[string]any {
	return map[string]any{
		"id":            r.ID,
		"full_name":     r.FullName,
		"email":         r.Email,
		"role":          r.Role,
		"branch_id":     r.BranchID,
		"branch_name":   r.BranchName,
		"active":        r.Active,
		"last_login_at": r.LastLoginAt,
		"created_at":    r.CreatedAt,
	}
}

type CustomerReportRow struct {
	CustomerID    string          `gorm:"column:customer_id"`
	CustomerName  string          `gorm:"column:customer_name"`
	Phone         *string         `gorm:"column:phone"`
	SalesCount    int64           `gorm:"column:sales_count"`
	TotalSpent    decimal.Decimal `gorm:"column:total_spent"`
	OutstandingCr decimal.Decimal `gorm:"column:outstanding_credit"`
	LastSaleAt    *time.Time      `gorm:"column:last_sale_at"`
}

func (r CustomerReportRow) Record() map[string]any {
	return map[string]any{
		"customer_id":        r.CustomerID,
		"customer_name":      r.CustomerName,
		"phone":              r.Phone,
		"sales_count":        r.SalesCount,
		"total_spent":        r.TotalSpent,
		"outstanding_credit": r.OutstandingCr,
		"last_sale_at":       r.LastSaleAt,
	}
}

type AuditLogRow struct {
	ID           string    `gorm:"column:id"`
	Action       string    `gorm:"column:action"`
	ResourceType string    `gorm:"column:resource_type"`
	ResourceID   string    `gorm:"column:resource_id"`
	Outcome      string    `gorm:"column:outcome"`
	ActorUserID  *string   `gorm:"column:actor_user_id"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (r AuditLogRow) Record() map[string]any {
	return map[string]any{
		"id":            r.ID,
		"action":        r.Action,
		"resource_type": r.ResourceType,
		"resource_id":   r.ResourceID,
		"outcome":       r.Outcome,
		"actor_user_id": r.ActorUserID,
		"created_at":    r.CreatedAt,
	}
}

// Attachment is an externally stored file owned by the tenant. Either
// StorageKey (object storage) or URL (direct link) locates the bytes.
type Attachment struct {
	ID         string    `gorm:"column:id"`
	BusinessID string    `gorm:"column:business_id"`
	Filename   string    `gorm:"column:filename"`
	StorageKey string    `gorm:"column:storage_key"`
	URL        string    `gorm:"column:url"`
	Status     string    `gorm:"column:status"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (Attachment) TableName() string {
	return "attachments"
}

// CollectionData is one tenant collection read inside the bundle snapshot.
type CollectionData struct {
	Name string
	Rows []map[string]any
}
