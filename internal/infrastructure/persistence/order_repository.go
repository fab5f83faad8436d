package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/vaultwrx/billing/internal/domain/billing"
	"gorm.io/gorm"
)

// GormOrderRepository implements billing.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// billable restricts a query to orders a statement run may see.
func (r *GormOrderRepository) billable(ctx context.Context, year, month int) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("date_of_service_year = ? AND date_of_service_month = ?", year, month).
		Where("is_edited = ? AND is_deleted = ?", false, false).
		Order("date_of_service_year, date_of_service_month, date_of_service_day")
}

// FindForRetailerMonth returns a retailer's billable orders for the month.
func (r *GormOrderRepository) FindForRetailerMonth(ctx context.Context, retailerID uuid.UUID, year, month int) ([]billing.Order, error) {
	var orders []billing.Order
	if err := r.billable(ctx, year, month).
		Where("retailer_id = ?", retailerID).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindForCustomerMonth returns a customer's billable orders for the month.
func (r *GormOrderRepository) FindForCustomerMonth(ctx context.Context, customerID uuid.UUID, year, month int) ([]billing.Order, error) {
	var orders []billing.Order
	if err := r.billable(ctx, year, month).
		Where("customer_id = ?", customerID).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
