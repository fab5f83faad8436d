package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vaultwrx/billing/internal/domain/billing"
	"github.com/vaultwrx/billing/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStageRepository implements billing.StageRepository using GORM
type GormStageRepository struct {
	db *gorm.DB
}

// NewGormStageRepository creates a new GormStageRepository
func NewGormStageRepository(db *gorm.DB) *GormStageRepository {
	return &GormStageRepository{db: db}
}

// Put stores a staging row. Re-staging the same run/retailer/day replaces
// the recorded path.
func (r *GormStageRepository) Put(ctx context.Context, stage *billing.DetailedInvoiceStage) error {
	if stage.ID == uuid.Nil {
		stage.ID = uuid.New()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "run_id"}, {Name: "retailer_id"}, {Name: "date_label"}},
			DoUpdates: clause.AssignmentColumns([]string{"path"}),
		}).
		Create(stage).Error
}

// Find resolves a staged detailed-invoice reference
func (r *GormStageRepository) Find(ctx context.Context, runID, retailerID uuid.UUID, dateLabel string) (*billing.DetailedInvoiceStage, error) {
	var stage billing.DetailedInvoiceStage
	if err := r.db.WithContext(ctx).
		Where("run_id = ? AND retailer_id = ? AND date_label = ?", runID, retailerID, dateLabel).
		First(&stage).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &stage, nil
}

// PurgeRun deletes every stage row belonging to the run
func (r *GormStageRepository) PurgeRun(ctx context.Context, runID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Delete(&billing.DetailedInvoiceStage{}).Error
}
