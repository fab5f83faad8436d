package billing

import (
	"time"

	"github.com/google/uuid"
)

// Retailer is the entity that owns customers and receives consolidated
// statements. Read-only input for a statement run.
type Retailer struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(200);not null;index"`
	Fax       string    `gorm:"type:varchar(50)"`
	IsDeleted bool      `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (Retailer) TableName() string {
	return "retailers"
}
