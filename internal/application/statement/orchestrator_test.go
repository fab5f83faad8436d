package statement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vaultwrx/billing/internal/domain/billing"
	"github.com/vaultwrx/billing/internal/domain/shared"
)

type orchestratorFixture struct {
	orchestrator *Orchestrator
	orders       *MockOrderRepository
	customers    *MockCustomerRepository
	retailers    *MockRetailerRepository
	stages       *MockStageRepository
	statements   *MockStatementRepository
	blobs        *MockBlobStorage
	templates    *MockTemplateSource
	html         *MockHTMLRenderer
	pdf          *MockPDFEngine
}

func newOrchestratorFixture() *orchestratorFixture {
	f := &orchestratorFixture{
		orders:     new(MockOrderRepository),
		customers:  new(MockCustomerRepository),
		retailers:  new(MockRetailerRepository),
		stages:     new(MockStageRepository),
		statements: new(MockStatementRepository),
		blobs:      new(MockBlobStorage),
		templates:  new(MockTemplateSource),
		html:       new(MockHTMLRenderer),
		pdf:        new(MockPDFEngine),
	}
	agg := NewAggregator("https://app.example.com")
	formatter := NewFormatter(agg, f.stages, f.blobs, nil)
	persister := NewPersistenceCoordinator(f.blobs, f.statements, f.stages, nil)
	renderer := NewDocumentRenderer(f.templates, f.html, f.pdf, persister, nil)
	f.orchestrator = NewOrchestrator(
		f.orders, f.customers, f.retailers, f.stages,
		formatter, renderer, "VaultWrx", time.UTC, 4, nil)
	return f
}

func marchDate() time.Time {
	return time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
}

func TestOrchestrator_Generate_ValidationRejectsBeforeSideEffects(t *testing.T) {
	f := newOrchestratorFixture()

	_, err := f.orchestrator.Generate(context.Background(), GenerateRequest{})
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = f.orchestrator.Generate(context.Background(), GenerateRequest{Date: marchDate()})
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	f.retailers.AssertNotCalled(t, "FindActive", mock.Anything)
	f.blobs.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrchestrator_Generate_RetailerPipeline(t *testing.T) {
	f := newOrchestratorFixture()
	retailerID := testRetailerID()
	customerID := testCustomerID()

	retailer := &billing.Retailer{ID: retailerID, Name: "Fresh Press"}
	customer := billing.Customer{ID: customerID, Name: "Jane Doe", RetailerID: retailerID}

	order := testOrder(10, 2500)
	order.ApplyPlatformFee = true

	f.retailers.On("FindByID", mock.Anything, retailerID).Return(retailer, nil)
	f.customers.On("FindActiveByRetailer", mock.Anything, retailerID).Return([]billing.Customer{customer}, nil)
	f.orders.On("FindForCustomerMonth", mock.Anything, customerID, 2026, 3).Return([]billing.Order{order}, nil)

	f.templates.On("Template", mock.Anything, "customerInvoice.html").Return("src", nil).Once()
	f.templates.On("Template", mock.Anything, "retailerStatement.html").Return("src", nil).Once()
	f.html.On("Render", mock.Anything, mock.Anything, mock.Anything).Return("html", nil)
	f.pdf.On("RenderPDF", mock.Anything, mock.Anything, mock.Anything).Return([]byte("pdf"), nil)
	f.blobs.On("Upload", mock.Anything, mock.Anything, mock.Anything, "application/pdf").Return(nil)
	f.blobs.On("SetMetadata", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.statements.On("Append", mock.Anything, mock.Anything).Return(nil)

	result, err := f.orchestrator.Generate(context.Background(), GenerateRequest{
		Date:       marchDate(),
		RetailerID: &retailerID,
	})

	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, "retailer", result.Outcomes[0].Role)
	require.NoError(t, result.Outcomes[0].Error)

	// One customer invoice plus the retailer rollup statement.
	f.statements.AssertNumberOfCalls(t, "Append", 2)
	f.blobs.AssertCalled(t, "Upload", mock.Anything,
		"invoices/Jane Doe - March 2026.pdf", mock.Anything, mock.Anything)
	f.blobs.AssertCalled(t, "Upload", mock.Anything,
		"statements/Fresh Press - March 2026.pdf", mock.Anything, mock.Anything)
}

func TestOrchestrator_Generate_AdminPipelinePurgesStaging(t *testing.T) {
	f := newOrchestratorFixture()
	retailerID := testRetailerID()
	retailer := billing.Retailer{ID: retailerID, Name: "Fresh Press"}

	order := testOrder(10, 2500)
	order.ApplyPlatformFee = true

	f.retailers.On("FindAll", mock.Anything).Return([]billing.Retailer{retailer}, nil)
	f.customers.On("FindAll", mock.Anything).Return([]billing.Customer{
		{ID: testCustomerID(), Name: "Jane Doe", RetailerID: retailerID},
	}, nil)
	f.orders.On("FindForRetailerMonth", mock.Anything, retailerID, 2026, 3).Return([]billing.Order{order}, nil)

	f.templates.On("Template", mock.Anything, mock.Anything).Return("src", nil)
	f.html.On("Render", mock.Anything, mock.Anything, mock.Anything).Return("html", nil)
	f.pdf.On("RenderPDF", mock.Anything, mock.Anything, mock.Anything).Return([]byte("pdf"), nil)
	f.blobs.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.blobs.On("SetMetadata", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.blobs.On("PresignDownload", mock.Anything, mock.Anything, mock.Anything).Return("https://signed", nil)
	f.stages.On("Put", mock.Anything, mock.Anything).Return(nil)
	f.stages.On("Find", mock.Anything, mock.Anything, retailerID, "03/10/2026").
		Return(&billing.DetailedInvoiceStage{Path: "invoices/detailed/Fresh Press - 03/10/2026"}, nil)
	f.stages.On("PurgeRun", mock.Anything, mock.Anything).Return(nil)
	f.statements.On("Append", mock.Anything, mock.Anything).Return(nil)

	result, err := f.orchestrator.Generate(context.Background(), GenerateRequest{
		Date:  marchDate(),
		Admin: true,
	})

	require.NoError(t, err)
	require.Empty(t, result.Failed())

	f.stages.AssertCalled(t, "Put", mock.Anything, mock.Anything)
	f.stages.AssertCalled(t, "PurgeRun", mock.Anything, result.RunID)
	// Detailed invoice staged, admin invoice and platform statement recorded.
	f.statements.AssertNumberOfCalls(t, "Append", 2)
	f.blobs.AssertCalled(t, "Upload", mock.Anything,
		"statements/VaultWrx - March 2026.pdf", mock.Anything, mock.Anything)
}

func TestOrchestrator_GenerateAll_AggregatesTaskOutcomes(t *testing.T) {
	f := newOrchestratorFixture()
	customerID := testCustomerID()

	f.retailers.On("FindActive", mock.Anything).Return([]billing.Retailer{}, nil)
	f.retailers.On("FindAll", mock.Anything).Return([]billing.Retailer{}, nil)
	f.customers.On("FindActive", mock.Anything).Return([]billing.Customer{
		{ID: customerID, Name: "Jane Doe", RetailerID: testRetailerID()},
	}, nil)
	f.customers.On("FindAll", mock.Anything).Return([]billing.Customer{}, nil)
	f.customers.On("FindByID", mock.Anything, customerID).Return(nil, errors.New("connection reset"))
	f.stages.On("PurgeRun", mock.Anything, mock.Anything).Return(nil)
	f.templates.On("Template", mock.Anything, "adminStatement.html").Return("src", nil)

	bulk, err := f.orchestrator.GenerateAll(context.Background(), marchDate())

	require.NoError(t, err)
	assert.Equal(t, 1, bulk.Succeeded, "admin task with no retailers settles clean")
	assert.Equal(t, 1, bulk.Failed)
	require.Len(t, bulk.Tasks, 2)

	for _, task := range bulk.Tasks {
		switch task.Task {
		case "admin":
			assert.NoError(t, task.Error)
		case "customer:Jane Doe":
			assert.ErrorContains(t, task.Error, "connection reset")
		default:
			t.Fatalf("unexpected task %q", task.Task)
		}
	}
}

// The platform books keep a deleted retailer's monthly orders, so the
// admin pipeline reports on every retailer on record, active or not.
func TestOrchestrator_Generate_AdminPipelineCoversDeletedRetailers(t *testing.T) {
	f := newOrchestratorFixture()
	activeID := testRetailerID()
	deletedID := uuid.New()

	f.retailers.On("FindAll", mock.Anything).Return([]billing.Retailer{
		{ID: activeID, Name: "Fresh Press"},
		{ID: deletedID, Name: "Shuttered Co", IsDeleted: true},
	}, nil)
	f.customers.On("FindAll", mock.Anything).Return([]billing.Customer{}, nil)
	f.orders.On("FindForRetailerMonth", mock.Anything, activeID, 2026, 3).Return([]billing.Order{}, nil)
	f.orders.On("FindForRetailerMonth", mock.Anything, deletedID, 2026, 3).Return([]billing.Order{}, nil)
	f.stages.On("PurgeRun", mock.Anything, mock.Anything).Return(nil)
	f.templates.On("Template", mock.Anything, mock.Anything).Return("src", nil)

	result, err := f.orchestrator.Generate(context.Background(), GenerateRequest{
		Date:  marchDate(),
		Admin: true,
	})

	require.NoError(t, err)
	require.Empty(t, result.Failed())
	f.orders.AssertCalled(t, "FindForRetailerMonth", mock.Anything, deletedID, 2026, 3)
	f.retailers.AssertNotCalled(t, "FindActive", mock.Anything)
}

// The retailer pipeline publishes customer invoices in customer-list
// order; only the admin pipeline and the regeneration path sort.
func TestOrchestrator_Generate_RetailerPipelinePreservesInvoiceOrder(t *testing.T) {
	f := newOrchestratorFixture()
	retailerID := testRetailerID()
	acmeID := testCustomerID()
	zebraID := uuid.New()

	order := testOrder(10, 2500)
	order.ApplyPlatformFee = true

	f.retailers.On("FindByID", mock.Anything, retailerID).
		Return(&billing.Retailer{ID: retailerID, Name: "Fresh Press"}, nil)
	f.customers.On("FindActiveByRetailer", mock.Anything, retailerID).Return([]billing.Customer{
		{ID: acmeID, Name: "Acme", RetailerID: retailerID},
		{ID: zebraID, Name: "Zebra", RetailerID: retailerID},
	}, nil)
	f.orders.On("FindForCustomerMonth", mock.Anything, mock.Anything, 2026, 3).
		Return([]billing.Order{order}, nil)

	f.templates.On("Template", mock.Anything, mock.Anything).Return("src", nil)
	f.html.On("Render", mock.Anything, mock.Anything, mock.Anything).Return("html", nil)
	f.pdf.On("RenderPDF", mock.Anything, mock.Anything, mock.Anything).Return([]byte("pdf"), nil)

	var uploads []string
	f.blobs.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			uploads = append(uploads, args.String(1))
		}).Return(nil)
	f.blobs.On("SetMetadata", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.statements.On("Append", mock.Anything, mock.Anything).Return(nil)

	result, err := f.orchestrator.Generate(context.Background(), GenerateRequest{
		Date:       marchDate(),
		RetailerID: &retailerID,
	})

	require.NoError(t, err)
	require.Empty(t, result.Failed())
	assert.Equal(t, []string{
		"invoices/Acme - March 2026.pdf",
		"invoices/Zebra - March 2026.pdf",
		"statements/Fresh Press - March 2026.pdf",
	}, uploads)
}

func TestOrchestrator_GenerateCustomerInvoices_BadDateLabel(t *testing.T) {
	f := newOrchestratorFixture()

	err := f.orchestrator.GenerateCustomerInvoices(context.Background(), "Jane Doe", "not-a-month")

	require.Error(t, err)
	f.customers.AssertNotCalled(t, "FindActiveByName", mock.Anything, mock.Anything)
}

func TestOrchestrator_GenerateCustomerInvoices_Regenerates(t *testing.T) {
	f := newOrchestratorFixture()
	retailerID := testRetailerID()
	customerID := testCustomerID()

	customer := &billing.Customer{ID: customerID, Name: "Jane Doe", RetailerID: retailerID}
	retailer := &billing.Retailer{ID: retailerID, Name: "Fresh Press"}

	f.customers.On("FindActiveByName", mock.Anything, "Jane Doe").Return(customer, nil)
	f.retailers.On("FindByID", mock.Anything, retailerID).Return(retailer, nil)
	f.orders.On("FindForCustomerMonth", mock.Anything, customerID, 2026, 3).
		Return([]billing.Order{testOrder(10, 2500)}, nil)

	f.templates.On("Template", mock.Anything, "customerInvoice.html").Return("src", nil)
	f.html.On("Render", mock.Anything, mock.Anything, mock.Anything).Return("html", nil)
	f.pdf.On("RenderPDF", mock.Anything, mock.Anything, mock.Anything).Return([]byte("pdf"), nil)
	f.blobs.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.blobs.On("SetMetadata", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.statements.On("Append", mock.Anything, mock.Anything).Return(nil)

	err := f.orchestrator.GenerateCustomerInvoices(context.Background(), "Jane Doe", "March 2026")

	require.NoError(t, err)
	f.blobs.AssertCalled(t, "Upload", mock.Anything,
		"invoices/Jane Doe - March 2026.pdf", mock.Anything, mock.Anything)
}

func TestOrchestrator_ZeroGrandTotalNeverPersisted(t *testing.T) {
	f := newOrchestratorFixture()
	retailerID := testRetailerID()
	customerID := testCustomerID()

	f.retailers.On("FindByID", mock.Anything, retailerID).
		Return(&billing.Retailer{ID: retailerID, Name: "Fresh Press"}, nil)
	f.customers.On("FindActiveByRetailer", mock.Anything, retailerID).
		Return([]billing.Customer{{ID: customerID, Name: "Jane Doe", RetailerID: retailerID}}, nil)
	f.orders.On("FindForCustomerMonth", mock.Anything, customerID, 2026, 3).
		Return([]billing.Order{}, nil)
	f.templates.On("Template", mock.Anything, "retailerStatement.html").Return("src", nil)

	result, err := f.orchestrator.Generate(context.Background(), GenerateRequest{
		Date:       marchDate(),
		RetailerID: &retailerID,
	})

	require.NoError(t, err)
	require.Empty(t, result.Failed())
	f.pdf.AssertNotCalled(t, "RenderPDF", mock.Anything, mock.Anything, mock.Anything)
	f.blobs.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
