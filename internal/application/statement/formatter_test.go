package statement

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vaultwrx/billing/internal/domain/billing"
	"github.com/vaultwrx/billing/internal/domain/shared"
)

func newTestFormatter() (*Formatter, *MockStageRepository, *MockBlobStorage) {
	stages := new(MockStageRepository)
	blobs := new(MockBlobStorage)
	f := NewFormatter(NewAggregator("https://app.example.com"), stages, blobs, nil)
	return f, stages, blobs
}

func testRetailer() *billing.Retailer {
	return &billing.Retailer{ID: testRetailerID(), Name: "Fresh Press"}
}

// A multi-location customer with orders in North, South, and untagged:
// three separate payloads, never merged.
func TestFormatter_CustomerInvoiceData_LocationSplit(t *testing.T) {
	f, _, _ := newTestFormatter()

	customer := &billing.Customer{
		ID:                   testCustomerID(),
		Name:                 "Jane Doe",
		HasMultipleLocations: true,
		Locations:            billing.Locations{{Name: "North"}, {Name: "South"}},
		RetailerID:           testRetailerID(),
	}

	north1 := testOrder(1, 1000)
	north1.StoreLocation = "North"
	north2 := testOrder(2, 2000)
	north2.StoreLocation = "North"
	south := testOrder(3, 3000)
	south.StoreLocation = "South"
	unlocated := testOrder(4, 4000)

	payloads := f.CustomerInvoiceData(customer, testRetailer(),
		[]billing.Order{north1, north2, south, unlocated},
		"March 2026", "March 5, 2026 10:00 am", true)

	require.Len(t, payloads, 3)

	assert.Equal(t, "North", payloads[0].Location)
	assert.True(t, decimal.NewFromFloat(30.00).Equal(payloads[0].GrandTotal()))
	assert.Equal(t, "South", payloads[1].Location)
	assert.True(t, decimal.NewFromFloat(30.00).Equal(payloads[1].GrandTotal()))
	assert.Empty(t, payloads[2].Location)
	assert.True(t, decimal.NewFromFloat(40.00).Equal(payloads[2].GrandTotal()))

	for _, p := range payloads {
		assert.Equal(t, "Jane Doe", p.Name)
		assert.Equal(t, "March 2026", p.Month)
		require.NotNil(t, p.CustomerID)
		assert.Equal(t, testCustomerID(), *p.CustomerID)
	}
}

func TestFormatter_CustomerInvoiceData_DropEmptyLocations(t *testing.T) {
	f, _, _ := newTestFormatter()

	customer := &billing.Customer{
		ID:                   testCustomerID(),
		Name:                 "Jane Doe",
		HasMultipleLocations: true,
		Locations:            billing.Locations{{Name: "North"}, {Name: "South"}},
		RetailerID:           testRetailerID(),
	}
	north := testOrder(1, 1000)
	north.StoreLocation = "North"

	dropped := f.CustomerInvoiceData(customer, testRetailer(),
		[]billing.Order{north}, "March 2026", "ts", true)
	require.Len(t, dropped, 1)
	assert.Equal(t, "North", dropped[0].Location)

	kept := f.CustomerInvoiceData(customer, testRetailer(),
		[]billing.Order{north}, "March 2026", "ts", false)
	require.Len(t, kept, 3, "without dropping, empty South and unlocated payloads remain")
}

func TestFormatter_CustomerInvoiceData_SingleLocationCustomer(t *testing.T) {
	f, _, _ := newTestFormatter()

	customer := &billing.Customer{ID: testCustomerID(), Name: "Jane Doe", RetailerID: testRetailerID()}
	payloads := f.CustomerInvoiceData(customer, testRetailer(),
		[]billing.Order{testOrder(1, 1000)}, "March 2026", "ts", true)

	require.Len(t, payloads, 1)
	assert.Empty(t, payloads[0].Location)
}

// Admin detailed lines price orders without sales tax and roll up only the
// grand total and platform fee.
func TestFormatter_FormatAdminDetailedOrders(t *testing.T) {
	f, _, _ := newTestFormatter()

	o := testOrder(10, 2000) // $20.00
	o.SalesTax = 500
	o.ExtraCharges = billing.ExtraCharges{
		{Name: billing.PlatformFeeName, Price: decimal.NewFromFloat(2.00)},
	}
	customers := []billing.Customer{{ID: testCustomerID(), Name: "Jane Doe"}}

	totals := f.FormatAdminDetailedOrders([]billing.Order{o}, customers)

	require.Len(t, totals.Orders, 1)
	line := totals.Orders[0]
	assert.Equal(t, "Jane Doe", line.Customer)
	assert.True(t, decimal.NewFromFloat(18.00).Equal(line.Price), "tax excluded, fee subtracted")
	assert.True(t, decimal.NewFromInt(500).Equal(line.SalesTax), "tax reported as recorded")
	assert.True(t, decimal.NewFromFloat(18.00).Equal(totals.GrandTotal))
	assert.True(t, decimal.NewFromFloat(2.00).Equal(totals.PlatformFee))
	assert.True(t, totals.Balance.IsZero())
	assert.True(t, totals.Paid.IsZero())
}

func TestFormatter_FormatAdminOrdersForReport_LinksStagedInvoices(t *testing.T) {
	f, stages, blobs := newTestFormatter()
	ctx := context.Background()
	runID := uuid.New()

	day1a := testOrder(1, 1000)
	day1b := testOrder(1, 2000)
	day2 := testOrder(2, 5000)

	stages.On("Find", ctx, runID, testRetailerID(), "03/01/2026").
		Return(&billing.DetailedInvoiceStage{Path: "invoices/detailed/Fresh Press - 03/01/2026"}, nil)
	stages.On("Find", ctx, runID, testRetailerID(), "03/02/2026").
		Return(&billing.DetailedInvoiceStage{Path: "invoices/detailed/Fresh Press - 03/02/2026"}, nil)
	blobs.On("PresignDownload", ctx, mock.Anything, adminReportLinkTTL).
		Return("https://bucket/signed", nil)

	totals, err := f.FormatAdminOrdersForReport(ctx, []billing.Order{day1a, day1b, day2}, runID, testRetailerID())

	require.NoError(t, err)
	require.Len(t, totals.Orders, 2)
	assert.Equal(t, "2 orders", totals.Orders[0].Description)
	assert.Equal(t, "1 orders", totals.Orders[1].Description)
	assert.Equal(t, "https://bucket/signed", totals.Orders[0].URL)
	assert.True(t, decimal.NewFromFloat(80.00).Equal(totals.GrandTotal))
	stages.AssertExpectations(t)
}

func TestFormatter_FormatAdminOrdersForReport_SkipsUnstagedDay(t *testing.T) {
	f, stages, blobs := newTestFormatter()
	ctx := context.Background()
	runID := uuid.New()

	day1 := testOrder(1, 1000)
	day2 := testOrder(2, 5000)

	stages.On("Find", ctx, runID, testRetailerID(), "03/01/2026").
		Return(nil, shared.ErrNotFound)
	stages.On("Find", ctx, runID, testRetailerID(), "03/02/2026").
		Return(&billing.DetailedInvoiceStage{Path: "invoices/detailed/Fresh Press - 03/02/2026"}, nil)
	blobs.On("PresignDownload", ctx, mock.Anything, adminReportLinkTTL).
		Return("https://bucket/signed", nil)

	totals, err := f.FormatAdminOrdersForReport(ctx, []billing.Order{day1, day2}, runID, testRetailerID())

	require.NoError(t, err)
	require.Len(t, totals.Orders, 1)
	assert.Equal(t, "03/02/2026", totals.Orders[0].Delivery)
	assert.True(t, decimal.NewFromFloat(50.00).Equal(totals.GrandTotal))
}

func statementNamed(name string, grand float64) billing.StatementData {
	return billing.StatementData{
		Name: name,
		Data: billing.ReportTotals{
			Balance:     decimal.NewFromFloat(grand),
			Paid:        decimal.NewFromFloat(1),
			PlatformFee: decimal.NewFromFloat(2),
			GrandTotal:  decimal.NewFromFloat(grand),
			SalesTax:    decimal.NewFromFloat(3),
		},
	}
}

func TestFormatCustomersForReport_SortAndRollup(t *testing.T) {
	statements := []billing.StatementData{
		statementNamed("acme", 10),
		statementNamed("Acme", 20),
		statementNamed("Acme", 30),
	}

	totals := FormatCustomersForReport(statements)

	require.Len(t, totals.Customers, 3)
	// Case-sensitive: uppercase sorts first; equal names keep input order.
	assert.Equal(t, "Acme", totals.Customers[0].Name)
	assert.True(t, decimal.NewFromFloat(20).Equal(totals.Customers[0].Data.GrandTotal))
	assert.Equal(t, "Acme", totals.Customers[1].Name)
	assert.True(t, decimal.NewFromFloat(30).Equal(totals.Customers[1].Data.GrandTotal))
	assert.Equal(t, "acme", totals.Customers[2].Name)

	assert.True(t, decimal.NewFromFloat(60).Equal(totals.GrandTotal))
	assert.True(t, decimal.NewFromFloat(3).Equal(totals.Paid))
	assert.True(t, decimal.NewFromFloat(6).Equal(totals.PlatformFee))
	assert.True(t, decimal.NewFromFloat(9).Equal(totals.SalesTax))
}

func TestFormatCustomersForReport_DoesNotMutateInput(t *testing.T) {
	statements := []billing.StatementData{
		statementNamed("zeta", 1),
		statementNamed("alpha", 2),
	}

	FormatCustomersForReport(statements)

	assert.Equal(t, "zeta", statements[0].Name)
	assert.Equal(t, "alpha", statements[1].Name)
}

func TestFormatRetailersForReport_PartialRollup(t *testing.T) {
	statements := []billing.StatementData{
		statementNamed("A", 10),
		statementNamed("B", 20),
	}

	totals := FormatRetailersForReport(statements)

	assert.True(t, decimal.NewFromFloat(30).Equal(totals.GrandTotal))
	assert.True(t, decimal.NewFromFloat(4).Equal(totals.PlatformFee))
	assert.True(t, totals.Balance.IsZero())
	assert.True(t, totals.Paid.IsZero())
	assert.True(t, totals.SalesTax.IsZero())
}

func TestSortStatementsForInvoices_DescendingStable(t *testing.T) {
	statements := []billing.StatementData{
		statementNamed("Acme", 1),
		statementNamed("acme", 2),
		statementNamed("Acme", 3),
	}

	SortStatementsForInvoices(statements)

	assert.Equal(t, "acme", statements[0].Name)
	assert.Equal(t, "Acme", statements[1].Name)
	assert.True(t, decimal.NewFromFloat(1).Equal(statements[1].Data.GrandTotal), "ties keep relative order")
	assert.True(t, decimal.NewFromFloat(3).Equal(statements[2].Data.GrandTotal))
}
