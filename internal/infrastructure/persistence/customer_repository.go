package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vaultwrx/billing/internal/domain/billing"
	"github.com/vaultwrx/billing/internal/domain/shared"
	"gorm.io/gorm"
)

// GormCustomerRepository implements billing.CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by its ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Customer, error) {
	var customer billing.Customer
	if err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}

// FindActiveByName returns the first non-deleted customer with the name.
func (r *GormCustomerRepository) FindActiveByName(ctx context.Context, name string) (*billing.Customer, error) {
	var customer billing.Customer
	if err := r.db.WithContext(ctx).
		Where("name = ? AND is_deleted = ?", name, false).
		First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}

// FindAll returns every customer, including deleted ones. The admin
// detailed report still needs names for customers deleted mid-month.
func (r *GormCustomerRepository) FindAll(ctx context.Context) ([]billing.Customer, error) {
	var customers []billing.Customer
	if err := r.db.WithContext(ctx).Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

// FindActive returns every non-deleted customer
func (r *GormCustomerRepository) FindActive(ctx context.Context) ([]billing.Customer, error) {
	var customers []billing.Customer
	if err := r.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

// FindActiveByRetailer returns a retailer's non-deleted customers
func (r *GormCustomerRepository) FindActiveByRetailer(ctx context.Context, retailerID uuid.UUID) ([]billing.Customer, error) {
	var customers []billing.Customer
	if err := r.db.WithContext(ctx).
		Where("retailer_id = ? AND is_deleted = ?", retailerID, false).
		Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}
