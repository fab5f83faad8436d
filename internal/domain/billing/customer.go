package billing

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Location is a named store location declared on a customer.
type Location struct {
	Name string `json:"name"`
}

// Locations is stored as a JSONB column.
type Locations []Location

func (l Locations) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *Locations) Scan(value interface{}) error {
	return scanJSON(value, l)
}

// Customer is a statement-receiving entity owned by a retailer.
// Read-only input for a statement run.
type Customer struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name                 string          `gorm:"type:varchar(200);not null;index"`
	Discount             decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"` // percent
	HasMultipleLocations bool            `gorm:"not null;default:false"`
	Locations            Locations       `gorm:"type:jsonb"`
	RetailerID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	IsDeleted            bool            `gorm:"not null;default:false"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// DiscountRate returns the discount as a fraction (25 -> 0.25).
func (c *Customer) DiscountRate() decimal.Decimal {
	return c.Discount.Div(decimal.NewFromInt(100))
}
