package statement

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vaultwrx/billing/internal/domain/billing"
)

var centsPerUnit = decimal.NewFromInt(100)

// majorUnits converts a minor-currency amount (cents) to major units.
func majorUnits(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(centsPerUnit)
}

// GroupOrdersByDay partitions orders by day-of-service within the query
// month. The partition is exact: every order lands in exactly one bucket.
func GroupOrdersByDay(orders []billing.Order) map[int][]billing.Order {
	grouped := make(map[int][]billing.Order)
	for _, o := range orders {
		grouped[o.DateOfService.Day] = append(grouped[o.DateOfService.Day], o)
	}
	return grouped
}

// GroupOrdersByCustomer partitions orders by owning customer.
func GroupOrdersByCustomer(orders []billing.Order) map[uuid.UUID][]billing.Order {
	grouped := make(map[uuid.UUID][]billing.Order)
	for _, o := range orders {
		grouped[o.CustomerID] = append(grouped[o.CustomerID], o)
	}
	return grouped
}

// GroupOrdersByRetailer partitions orders by owning retailer.
func GroupOrdersByRetailer(orders []billing.Order) map[uuid.UUID][]billing.Order {
	grouped := make(map[uuid.UUID][]billing.Order)
	for _, o := range orders {
		grouped[o.RetailerID] = append(grouped[o.RetailerID], o)
	}
	return grouped
}

// GroupOrdersByLocation partitions the located orders by store location.
// Orders without a location are excluded; callers handle those separately.
func GroupOrdersByLocation(orders []billing.Order) map[string][]billing.Order {
	grouped := make(map[string][]billing.Order)
	for _, o := range orders {
		if o.StoreLocation == "" {
			continue
		}
		grouped[o.StoreLocation] = append(grouped[o.StoreLocation], o)
	}
	return grouped
}

// Aggregator computes per-order financial lines and bucket sums.
type Aggregator struct {
	appURL string
}

// NewAggregator creates an Aggregator. appURL is the base URL order detail
// links point at.
func NewAggregator(appURL string) *Aggregator {
	return &Aggregator{appURL: appURL}
}

// OrderURL returns the order detail link embedded in statement lines.
func (a *Aggregator) OrderURL(orderID uuid.UUID) string {
	return fmt.Sprintf("%s/landing/orders/%s/details", a.appURL, orderID)
}

// FormatOrdersForReport turns a customer's orders into statement lines with
// aggregated totals.
//
// Per order: the base total is the item (or single-service) sum plus sales
// tax, both converted from minor units. The platform fee charge is
// subtracted from the reported price unless the order applies the fee.
// The balance equals the price until a settled charge exists, after which
// it is price minus the paid amount.
//
// The discount parameter is carried from the customer record but not yet
// applied to the line arithmetic.
// TODO: apply the customer discount once billing decides where it lands
// (line price vs. grand total).
func (a *Aggregator) FormatOrdersForReport(orders []billing.Order, discount decimal.Decimal) billing.ReportTotals {
	totals := billing.ReportTotals{
		Balance:     decimal.Zero,
		Paid:        decimal.Zero,
		PlatformFee: decimal.Zero,
		GrandTotal:  decimal.Zero,
		SalesTax:    decimal.Zero,
	}
	if len(orders) == 0 {
		return totals
	}

	lines := make([]billing.OrderStatement, 0, len(orders))
	for _, o := range orders {
		orderTotal := majorUnits(o.ItemsTotal()).Add(majorUnits(o.SalesTax))
		fee := o.PlatformFeeCharge()

		price := orderTotal
		if !o.ApplyPlatformFee {
			price = orderTotal.Sub(fee)
		}

		paid := decimal.Zero
		if o.HasCharge() {
			paid = majorUnits(o.Charge.Amount + o.Charge.ApplicationFeeAmount)
		}

		balance := price
		if o.HasCharge() {
			balance = price.Sub(paid)
		}

		lines = append(lines, billing.OrderStatement{
			Delivery:    o.DateOfService.Label(),
			Description: o.Description(),
			Price:       price,
			PlatformFee: fee,
			Paid:        paid,
			Balance:     balance,
			// The recorded amount is reported as-is; line prices already
			// include the converted tax.
			SalesTax: decimal.NewFromInt(o.SalesTax),
			URL:      a.OrderURL(o.ID),
		})
	}

	for _, line := range lines {
		totals.Balance = totals.Balance.Add(line.Balance)
		totals.Paid = totals.Paid.Add(line.Paid)
		totals.PlatformFee = totals.PlatformFee.Add(line.PlatformFee)
		totals.GrandTotal = totals.GrandTotal.Add(line.Price)
		totals.SalesTax = totals.SalesTax.Add(line.SalesTax)
	}
	totals.Orders = lines
	return totals
}
