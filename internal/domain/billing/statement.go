package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ActorType identifies the audience a document is produced for.
type ActorType string

const (
	ActorAdmin    ActorType = "admin"
	ActorRetailer ActorType = "retailer"
	ActorCustomer ActorType = "customer"
)

// IsValid checks if the ActorType is a valid value
func (a ActorType) IsValid() bool {
	switch a {
	case ActorAdmin, ActorRetailer, ActorCustomer:
		return true
	}
	return false
}

// ArtifactKind identifies the class of document produced by a run. The
// string value doubles as the storage path prefix.
type ArtifactKind string

const (
	KindStatement       ArtifactKind = "statements"
	KindInvoice         ArtifactKind = "invoices"
	KindDetailedInvoice ArtifactKind = "detailed-invoices"
)

// IsValid checks if the ArtifactKind is a valid value
func (k ArtifactKind) IsValid() bool {
	switch k {
	case KindStatement, KindInvoice, KindDetailedInvoice:
		return true
	}
	return false
}

// OwnerType classifies who a stored artifact belongs to.
type OwnerType string

const (
	OwnerPlatform OwnerType = "platform"
	OwnerRetailer OwnerType = "retailer"
	OwnerCustomer OwnerType = "customer"
)

// OrderStatement is one computed line of a statement or invoice.
// All monetary fields are in major currency units.
type OrderStatement struct {
	Delivery    string          `json:"delivery"` // MM/DD/YYYY
	Customer    string          `json:"customer,omitempty"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	PlatformFee decimal.Decimal `json:"platformFee"`
	Paid        decimal.Decimal `json:"paid"`
	Balance     decimal.Decimal `json:"balance"`
	SalesTax    decimal.Decimal `json:"salesTax"`
	URL         string          `json:"url,omitempty"`
}

// ReportTotals carries the lines of a statement payload together with
// their aggregated sums. Either Orders or Customers is populated, never
// both: entity-level statements list order lines, rollup statements list
// the per-entity sub-statements they consolidate.
type ReportTotals struct {
	Orders      []OrderStatement `json:"orders,omitempty"`
	Customers   []StatementData  `json:"customers,omitempty"`
	Balance     decimal.Decimal  `json:"balance"`
	Paid        decimal.Decimal  `json:"paid"`
	PlatformFee decimal.Decimal  `json:"platformFee"`
	GrandTotal  decimal.Decimal  `json:"grandTotal"`
	SalesTax    decimal.Decimal  `json:"salesTax"`
}

// StatementData is a fully composed statement payload, ready for
// rendering. Created fresh per run and discarded after persistence.
type StatementData struct {
	Name       string       `json:"name"`
	Month      string       `json:"month"`              // "January 2006"
	Location   string       `json:"location,omitempty"` // empty = no location
	CustomerID *uuid.UUID   `json:"-"`
	RetailerID *uuid.UUID   `json:"-"`
	Retailer   *Retailer    `json:"retailer,omitempty"`
	Data       ReportTotals `json:"data"`
	Timestamp  string       `json:"timestamp"` // "January 2, 2006 03:04 pm"
}

// GrandTotal returns the payload's aggregated grand total. A payload with
// zero grand total carries no renderable content and must never reach the
// renderer.
func (s *StatementData) GrandTotal() decimal.Decimal {
	return s.Data.GrandTotal
}

// Statement is the durable record of a persisted artifact, accumulated on
// the owning entity over time. Platform records carry a NULL owner ID;
// because unique indexes treat NULLs as distinct, those rows need the
// partial idx_statement_platform_path index to keep appends set-union.
type Statement struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey"`
	OwnerType OwnerType    `gorm:"type:varchar(20);not null;uniqueIndex:idx_statement_owner_path,priority:1;index:idx_statement_platform_path,unique,where:owner_id IS NULL,priority:1"`
	OwnerID   *uuid.UUID   `gorm:"type:uuid;uniqueIndex:idx_statement_owner_path,priority:2"`
	Kind      ArtifactKind `gorm:"type:varchar(30);not null;uniqueIndex:idx_statement_owner_path,priority:3;index:idx_statement_platform_path,unique,where:owner_id IS NULL,priority:2"`
	DateLabel string       `gorm:"type:varchar(50);not null;uniqueIndex:idx_statement_owner_path,priority:4;index:idx_statement_platform_path,unique,where:owner_id IS NULL,priority:3"`
	Path      string       `gorm:"type:varchar(500);not null;uniqueIndex:idx_statement_owner_path,priority:5;index:idx_statement_platform_path,unique,where:owner_id IS NULL,priority:4"`
	CreatedAt time.Time
}

// TableName returns the table name for GORM
func (Statement) TableName() string {
	return "statements"
}

// DetailedInvoiceStage is a transient record passing a per-day detailed
// invoice reference from the persistence step into the admin consolidated
// report. Rows are scoped to one run and purged after the admin run
// settles, so overlapping runs cannot observe each other's references.
type DetailedInvoiceStage struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	RunID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stage_run_retailer_date,priority:1"`
	RetailerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stage_run_retailer_date,priority:2"`
	DateLabel  string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_stage_run_retailer_date,priority:3"`
	Path       string    `gorm:"type:varchar(500);not null"`
	CreatedAt  time.Time
}

// TableName returns the table name for GORM
func (DetailedInvoiceStage) TableName() string {
	return "detailed_invoice_stages"
}
