package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vaultwrx/billing/internal/domain/billing"
	"github.com/vaultwrx/billing/internal/domain/shared"
	"gorm.io/gorm"
)

// GormRetailerRepository implements billing.RetailerRepository using GORM
type GormRetailerRepository struct {
	db *gorm.DB
}

// NewGormRetailerRepository creates a new GormRetailerRepository
func NewGormRetailerRepository(db *gorm.DB) *GormRetailerRepository {
	return &GormRetailerRepository{db: db}
}

// FindByID finds a retailer by its ID
func (r *GormRetailerRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Retailer, error) {
	var retailer billing.Retailer
	if err := r.db.WithContext(ctx).First(&retailer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &retailer, nil
}

// FindAll returns every retailer
func (r *GormRetailerRepository) FindAll(ctx context.Context) ([]billing.Retailer, error) {
	var retailers []billing.Retailer
	if err := r.db.WithContext(ctx).Find(&retailers).Error; err != nil {
		return nil, err
	}
	return retailers, nil
}

// FindActive returns every non-deleted retailer
func (r *GormRetailerRepository) FindActive(ctx context.Context) ([]billing.Retailer, error) {
	var retailers []billing.Retailer
	if err := r.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Find(&retailers).Error; err != nil {
		return nil, err
	}
	return retailers, nil
}
