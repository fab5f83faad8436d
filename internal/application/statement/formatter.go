package statement

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vaultwrx/billing/internal/domain/billing"
	"github.com/vaultwrx/billing/internal/domain/shared"
	"go.uber.org/zap"
)

// adminReportLinkTTL is how long the per-day document links embedded in
// the admin consolidated report stay valid.
const adminReportLinkTTL = 365 * 24 * time.Hour

// Formatter composes per-entity statement payloads from aggregated orders.
type Formatter struct {
	agg    *Aggregator
	stages billing.StageRepository
	blobs  BlobStorage
	logger *zap.Logger
}

// NewFormatter creates a Formatter.
func NewFormatter(agg *Aggregator, stages billing.StageRepository, blobs BlobStorage, logger *zap.Logger) *Formatter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Formatter{agg: agg, stages: stages, blobs: blobs, logger: logger}
}

// CustomerInvoiceData builds the per-customer invoice payloads for one
// customer's monthly orders. When the customer declares multiple locations
// the orders split into one sub-statement per declared location plus one
// for orders carrying no location. With dropEmpty set, sub-statements with
// a zero grand total are not emitted at all.
func (f *Formatter) CustomerInvoiceData(
	customer *billing.Customer,
	retailer *billing.Retailer,
	orders []billing.Order,
	month, timestamp string,
	dropEmpty bool,
) []billing.StatementData {
	var out []billing.StatementData

	if customer.HasMultipleLocations {
		byLocation := GroupOrdersByLocation(orders)
		for _, location := range customer.Locations {
			totals := f.agg.FormatOrdersForReport(byLocation[location.Name], customer.DiscountRate())
			if dropEmpty && totals.GrandTotal.IsZero() {
				continue
			}
			out = append(out, billing.StatementData{
				Name:       customer.Name,
				Month:      month,
				Location:   location.Name,
				CustomerID: &customer.ID,
				RetailerID: &retailer.ID,
				Retailer:   retailer,
				Data:       totals,
				Timestamp:  timestamp,
			})
		}
	}

	var unlocated []billing.Order
	for _, o := range orders {
		if o.StoreLocation == "" {
			unlocated = append(unlocated, o)
		}
	}
	totals := f.agg.FormatOrdersForReport(unlocated, customer.DiscountRate())
	if !dropEmpty || !totals.GrandTotal.IsZero() {
		out = append(out, billing.StatementData{
			Name:       customer.Name,
			Month:      month,
			CustomerID: &customer.ID,
			RetailerID: &retailer.ID,
			Retailer:   retailer,
			Data:       totals,
			Timestamp:  timestamp,
		})
	}
	return out
}

// FormatAdminDetailedOrders builds the itemized admin line set for one
// day's orders, resolving customer names from the full customer list.
func (f *Formatter) FormatAdminDetailedOrders(dayOrders []billing.Order, customers []billing.Customer) billing.ReportTotals {
	names := make(map[uuid.UUID]string, len(customers))
	for _, c := range customers {
		names[c.ID] = c.Name
	}

	totals := billing.ReportTotals{
		Balance:     decimal.Zero,
		Paid:        decimal.Zero,
		PlatformFee: decimal.Zero,
		GrandTotal:  decimal.Zero,
		SalesTax:    decimal.Zero,
	}
	if len(dayOrders) == 0 {
		return totals
	}

	lines := make([]billing.OrderStatement, 0, len(dayOrders))
	for _, o := range dayOrders {
		fee := o.PlatformFeeCharge()
		orderTotal := majorUnits(o.ItemsTotal())
		price := orderTotal
		if !o.ApplyPlatformFee {
			price = orderTotal.Sub(fee)
		}
		lines = append(lines, billing.OrderStatement{
			Delivery:    o.DateOfService.Label(),
			Customer:    names[o.CustomerID],
			Description: o.Description(),
			URL:         f.agg.OrderURL(o.ID),
			SalesTax:    decimal.NewFromInt(o.SalesTax),
			Price:       price,
			PlatformFee: fee,
		})
	}

	for _, line := range lines {
		totals.GrandTotal = totals.GrandTotal.Add(line.Price)
		totals.PlatformFee = totals.PlatformFee.Add(line.PlatformFee)
	}
	totals.Orders = lines
	return totals
}

// FormatAdminOrdersForReport builds the admin consolidated view for one
// retailer's monthly orders: one line per day of service, linking the
// staged per-day detailed invoice. A day whose detailed invoice was never
// staged is skipped rather than failing the report.
func (f *Formatter) FormatAdminOrdersForReport(
	ctx context.Context,
	orders []billing.Order,
	runID, retailerID uuid.UUID,
) (billing.ReportTotals, error) {
	totals := billing.ReportTotals{
		Balance:     decimal.Zero,
		Paid:        decimal.Zero,
		PlatformFee: decimal.Zero,
		GrandTotal:  decimal.Zero,
		SalesTax:    decimal.Zero,
	}
	if len(orders) == 0 {
		return totals, nil
	}

	byDay := GroupOrdersByDay(orders)
	days := make([]int, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Ints(days)

	var lines []billing.OrderStatement
	for _, day := range days {
		dayOrders := byDay[day]
		delivery := dayOrders[0].DateOfService.Label()

		stage, err := f.stages.Find(ctx, runID, retailerID, delivery)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				f.logger.Warn("no detailed invoice staged for day; skipping",
					zap.String("retailer_id", retailerID.String()),
					zap.String("date", delivery))
				continue
			}
			return totals, fmt.Errorf("failed to resolve staged invoice: %w", err)
		}

		url, err := f.blobs.PresignDownload(ctx, stage.Path, adminReportLinkTTL)
		if err != nil {
			return totals, fmt.Errorf("failed to presign detailed invoice: %w", err)
		}

		platformFee := decimal.Zero
		price := decimal.Zero
		salesTax := decimal.Zero
		for _, o := range dayOrders {
			for _, c := range o.ExtraCharges {
				if c.Name == billing.PlatformFeeName {
					platformFee = platformFee.Add(c.Price)
				}
			}
			orderTotal := majorUnits(o.ItemsTotal())
			if o.ApplyPlatformFee {
				price = price.Add(orderTotal)
			} else {
				price = price.Add(orderTotal.Sub(o.PlatformFeeCharge()))
			}
			salesTax = salesTax.Add(decimal.NewFromInt(o.SalesTax))
		}

		lines = append(lines, billing.OrderStatement{
			Delivery:    delivery,
			Description: fmt.Sprintf("%d orders", len(dayOrders)),
			URL:         url,
			Price:       price,
			SalesTax:    salesTax,
			PlatformFee: platformFee,
		})
	}

	for _, line := range lines {
		totals.GrandTotal = totals.GrandTotal.Add(line.Price)
		totals.PlatformFee = totals.PlatformFee.Add(line.PlatformFee)
	}
	totals.Orders = lines
	return totals, nil
}

// FormatCustomersForReport rolls up per-customer statement payloads into
// one consolidated payload, sorted by customer name ascending
// (case-sensitive; equal names keep their relative order).
func FormatCustomersForReport(statements []billing.StatementData) billing.ReportTotals {
	totals := billing.ReportTotals{
		Balance:     decimal.Zero,
		Paid:        decimal.Zero,
		PlatformFee: decimal.Zero,
		GrandTotal:  decimal.Zero,
		SalesTax:    decimal.Zero,
	}
	if len(statements) == 0 {
		return totals
	}

	for _, s := range statements {
		totals.Balance = totals.Balance.Add(s.Data.Balance)
		totals.Paid = totals.Paid.Add(s.Data.Paid)
		totals.SalesTax = totals.SalesTax.Add(s.Data.SalesTax)
		totals.PlatformFee = totals.PlatformFee.Add(s.Data.PlatformFee)
		totals.GrandTotal = totals.GrandTotal.Add(s.Data.GrandTotal)
	}

	sorted := make([]billing.StatementData, len(statements))
	copy(sorted, statements)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})
	totals.Customers = sorted
	return totals
}

// FormatRetailersForReport rolls up per-retailer payloads for the platform
// statement. Only the platform fee and grand total carry over; balance,
// paid and sales tax are not aggregated at this level.
func FormatRetailersForReport(statements []billing.StatementData) billing.ReportTotals {
	totals := billing.ReportTotals{
		Balance:     decimal.Zero,
		Paid:        decimal.Zero,
		PlatformFee: decimal.Zero,
		GrandTotal:  decimal.Zero,
		SalesTax:    decimal.Zero,
	}
	if len(statements) == 0 {
		return totals
	}
	for _, s := range statements {
		totals.PlatformFee = totals.PlatformFee.Add(s.Data.PlatformFee)
		totals.GrandTotal = totals.GrandTotal.Add(s.Data.GrandTotal)
	}
	totals.Customers = statements
	return totals
}

// SortStatementsForInvoices orders multi-entity invoice payloads by name
// descending, matching the ordering the reports have always shipped with.
// Equal names keep their relative order.
func SortStatementsForInvoices(statements []billing.StatementData) {
	sort.SliceStable(statements, func(i, j int) bool {
		return statements[i].Name > statements[j].Name
	})
}
