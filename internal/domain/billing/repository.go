package billing

import (
	"context"

	"github.com/google/uuid"
)

// OrderRepository queries order records for statement runs. Every query
// excludes edited and deleted orders and returns results ordered by
// date of service ascending.
type OrderRepository interface {
	// FindForRetailerMonth returns a retailer's billable orders for the month.
	FindForRetailerMonth(ctx context.Context, retailerID uuid.UUID, year, month int) ([]Order, error)
	// FindForCustomerMonth returns a customer's billable orders for the month.
	FindForCustomerMonth(ctx context.Context, customerID uuid.UUID, year, month int) ([]Order, error)
}

// CustomerRepository reads customer records.
type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	// FindActiveByName returns the first non-deleted customer with the name.
	FindActiveByName(ctx context.Context, name string) (*Customer, error)
	// FindAll returns every customer, including deleted ones.
	FindAll(ctx context.Context) ([]Customer, error)
	// FindActive returns every non-deleted customer.
	FindActive(ctx context.Context) ([]Customer, error)
	// FindActiveByRetailer returns a retailer's non-deleted customers.
	FindActiveByRetailer(ctx context.Context, retailerID uuid.UUID) ([]Customer, error)
}

// RetailerRepository reads retailer records.
type RetailerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Retailer, error)
	FindAll(ctx context.Context) ([]Retailer, error)
	FindActive(ctx context.Context) ([]Retailer, error)
}

// StatementRepository records persisted artifacts on their owning entity.
type StatementRepository interface {
	// Append records the artifact reference. Appending an identical record
	// is a no-op (set-union semantics).
	Append(ctx context.Context, stmt *Statement) error
	// FindByOwner lists the accumulated records for an owner.
	FindByOwner(ctx context.Context, ownerType OwnerType, ownerID *uuid.UUID) ([]Statement, error)
}

// StageRepository holds per-run detailed-invoice references for the admin
// consolidated report.
type StageRepository interface {
	Put(ctx context.Context, stage *DetailedInvoiceStage) error
	Find(ctx context.Context, runID, retailerID uuid.UUID, dateLabel string) (*DetailedInvoiceStage, error)
	// PurgeRun deletes every stage row belonging to the run.
	PurgeRun(ctx context.Context, runID uuid.UUID) error
}
