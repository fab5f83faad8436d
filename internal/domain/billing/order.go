package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlatformFeeName is the exact extra-charge name that identifies the
// platform's cut of an order. At most one such entry is meaningful per order.
const PlatformFeeName = "Platform Fee"

// DateOfService is the calendar day an order was serviced on.
// Orders are queried and grouped by this field, never by creation time.
type DateOfService struct {
	Year  int `gorm:"column:year" json:"year"`
	Month int `gorm:"column:month" json:"month"`
	Day   int `gorm:"column:day" json:"day"`
}

// Time returns the date as a time.Time at midnight UTC.
func (d DateOfService) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// Label formats the date as MM/DD/YYYY, the layout used on statement lines
// and detailed-invoice date labels.
func (d DateOfService) Label() string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Month, d.Day, d.Year)
}

// OrderItem is a single line of a bulk order. Price is in minor currency
// units (cents).
type OrderItem struct {
	Description string `json:"description"`
	Price       int64  `json:"price"`
}

// OrderItems is stored as a JSONB column.
type OrderItems []OrderItem

func (i OrderItems) Value() (driver.Value, error) {
	if i == nil {
		return nil, nil
	}
	return json.Marshal(i)
}

func (i *OrderItems) Scan(value interface{}) error {
	return scanJSON(value, i)
}

// ExtraCharge is a named surcharge on an order. Unlike item prices, extra
// charge prices are recorded in major currency units.
type ExtraCharge struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// ExtraCharges is stored as a JSONB column.
type ExtraCharges []ExtraCharge

func (e ExtraCharges) Value() (driver.Value, error) {
	if e == nil {
		return nil, nil
	}
	return json.Marshal(e)
}

func (e *ExtraCharges) Scan(value interface{}) error {
	return scanJSON(value, e)
}

// Charge is the settled payment recorded against an order. Amounts are in
// minor currency units.
type Charge struct {
	Amount               int64 `json:"amount"`
	ApplicationFeeAmount int64 `json:"application_fee_amount"`
}

func (c *Charge) Value() (driver.Value, error) {
	if c == nil {
		return nil, nil
	}
	return json.Marshal(c)
}

func (c *Charge) Scan(value interface{}) error {
	return scanJSON(value, c)
}

// Order is an underlying order record. Orders are externally owned and
// read-only for the duration of a statement run.
type Order struct {
	ID               uuid.UUID     `gorm:"type:uuid;primaryKey"`
	DateOfService    DateOfService `gorm:"embedded;embeddedPrefix:date_of_service_"`
	CustomerID       uuid.UUID     `gorm:"type:uuid;not null;index"`
	RetailerID       uuid.UUID     `gorm:"type:uuid;not null;index"`
	StoreLocation    string        `gorm:"type:varchar(200)"` // empty = no location
	Name             string        `gorm:"type:varchar(200)"` // single named service; empty = bulk order
	ServicePrice     int64         `gorm:"not null;default:0"` // minor units; used when Items is empty
	Items            OrderItems    `gorm:"type:jsonb"`
	ExtraCharges     ExtraCharges  `gorm:"type:jsonb"`
	Charge           *Charge       `gorm:"type:jsonb"`
	SalesTax         int64         `gorm:"not null;default:0"` // minor units
	ApplyPlatformFee bool          `gorm:"not null;default:false"`
	IsEdited         bool          `gorm:"not null;default:false"`
	IsDeleted        bool          `gorm:"not null;default:false"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// Description returns the statement line description for the order.
func (o *Order) Description() string {
	if o.Name != "" {
		return o.Name
	}
	return "Bulk Order"
}

// ItemsTotal returns the sum of item prices, or the order's own recorded
// price for a single-service order, in minor units.
func (o *Order) ItemsTotal() int64 {
	if len(o.Items) == 0 {
		return o.ServicePrice
	}
	var total int64
	for _, item := range o.Items {
		total += item.Price
	}
	return total
}

// PlatformFeeCharge returns the price of the "Platform Fee" extra charge,
// or zero when the order carries none.
func (o *Order) PlatformFeeCharge() decimal.Decimal {
	for _, c := range o.ExtraCharges {
		if c.Name == PlatformFeeName {
			return c.Price
		}
	}
	return decimal.Zero
}

// HasCharge reports whether a settled payment is recorded for the order.
func (o *Order) HasCharge() bool {
	return o.Charge != nil
}

// scanJSON unmarshals a JSONB column value into dst.
func scanJSON(value interface{}, dst interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return errors.New("unsupported type for JSONB scan")
	}
}
