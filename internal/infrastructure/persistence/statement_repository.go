package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/vaultwrx/billing/internal/domain/billing"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStatementRepository implements billing.StatementRepository using GORM
type GormStatementRepository struct {
	db *gorm.DB
}

// NewGormStatementRepository creates a new GormStatementRepository
func NewGormStatementRepository(db *gorm.DB) *GormStatementRepository {
	return &GormStatementRepository{db: db}
}

// Append records the artifact reference. A record matching the unique
// owner/kind/date/path key already on file is left untouched, giving the
// set-union semantics regeneration relies on.
func (r *GormStatementRepository) Append(ctx context.Context, stmt *billing.Statement) error {
	if stmt.ID == uuid.Nil {
		stmt.ID = uuid.New()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(stmt).Error
}

// FindByOwner lists the accumulated records for an owner
func (r *GormStatementRepository) FindByOwner(ctx context.Context, ownerType billing.OwnerType, ownerID *uuid.UUID) ([]billing.Statement, error) {
	query := r.db.WithContext(ctx).Where("owner_type = ?", ownerType)
	if ownerID != nil {
		query = query.Where("owner_id = ?", *ownerID)
	} else {
		query = query.Where("owner_id IS NULL")
	}

	var statements []billing.Statement
	if err := query.Order("created_at").Find(&statements).Error; err != nil {
		return nil, err
	}
	return statements, nil
}
