package statement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/vaultwrx/billing/internal/domain/billing"
)

// ============================================================================
// Mocks
// ============================================================================

// MockOrderRepository is a mock implementation of billing.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindForRetailerMonth(ctx context.Context, retailerID uuid.UUID, year, month int) ([]billing.Order, error) {
	args := m.Called(ctx, retailerID, year, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Order), args.Error(1)
}

func (m *MockOrderRepository) FindForCustomerMonth(ctx context.Context, customerID uuid.UUID, year, month int) ([]billing.Order, error) {
	args := m.Called(ctx, customerID, year, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Order), args.Error(1)
}

var _ billing.OrderRepository = (*MockOrderRepository)(nil)

// MockCustomerRepository is a mock implementation of billing.CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindActiveByName(ctx context.Context, name string) (*billing.Customer, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindAll(ctx context.Context) ([]billing.Customer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindActive(ctx context.Context) ([]billing.Customer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindActiveByRetailer(ctx context.Context, retailerID uuid.UUID) ([]billing.Customer, error) {
	args := m.Called(ctx, retailerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Customer), args.Error(1)
}

var _ billing.CustomerRepository = (*MockCustomerRepository)(nil)

// MockRetailerRepository is a mock implementation of billing.RetailerRepository
type MockRetailerRepository struct {
	mock.Mock
}

func (m *MockRetailerRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Retailer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Retailer), args.Error(1)
}

func (m *MockRetailerRepository) FindAll(ctx context.Context) ([]billing.Retailer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Retailer), args.Error(1)
}

func (m *MockRetailerRepository) FindActive(ctx context.Context) ([]billing.Retailer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Retailer), args.Error(1)
}

var _ billing.RetailerRepository = (*MockRetailerRepository)(nil)

// MockStatementRepository is a mock implementation of billing.StatementRepository
type MockStatementRepository struct {
	mock.Mock
}

func (m *MockStatementRepository) Append(ctx context.Context, stmt *billing.Statement) error {
	args := m.Called(ctx, stmt)
	return args.Error(0)
}

func (m *MockStatementRepository) FindByOwner(ctx context.Context, ownerType billing.OwnerType, ownerID *uuid.UUID) ([]billing.Statement, error) {
	args := m.Called(ctx, ownerType, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Statement), args.Error(1)
}

var _ billing.StatementRepository = (*MockStatementRepository)(nil)

// MockStageRepository is a mock implementation of billing.StageRepository
type MockStageRepository struct {
	mock.Mock
}

func (m *MockStageRepository) Put(ctx context.Context, stage *billing.DetailedInvoiceStage) error {
	args := m.Called(ctx, stage)
	return args.Error(0)
}

func (m *MockStageRepository) Find(ctx context.Context, runID, retailerID uuid.UUID, dateLabel string) (*billing.DetailedInvoiceStage, error) {
	args := m.Called(ctx, runID, retailerID, dateLabel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.DetailedInvoiceStage), args.Error(1)
}

func (m *MockStageRepository) PurgeRun(ctx context.Context, runID uuid.UUID) error {
	args := m.Called(ctx, runID)
	return args.Error(0)
}

var _ billing.StageRepository = (*MockStageRepository)(nil)

// MockBlobStorage is a mock implementation of BlobStorage
type MockBlobStorage struct {
	mock.Mock
}

func (m *MockBlobStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	args := m.Called(ctx, key, data, contentType)
	return args.Error(0)
}

func (m *MockBlobStorage) SetMetadata(ctx context.Context, key, contentType string, metadata map[string]string) error {
	args := m.Called(ctx, key, contentType, metadata)
	return args.Error(0)
}

func (m *MockBlobStorage) Download(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockBlobStorage) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	args := m.Called(ctx, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ObjectInfo), args.Error(1)
}

func (m *MockBlobStorage) Head(ctx context.Context, key string) (*ObjectInfo, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ObjectInfo), args.Error(1)
}

func (m *MockBlobStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockBlobStorage) PresignDownload(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	args := m.Called(ctx, key, expiresIn)
	return args.String(0), args.Error(1)
}

var _ BlobStorage = (*MockBlobStorage)(nil)

// MockTemplateSource is a mock implementation of TemplateSource
type MockTemplateSource struct {
	mock.Mock
}

func (m *MockTemplateSource) Template(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

var _ TemplateSource = (*MockTemplateSource)(nil)

// MockHTMLRenderer is a mock implementation of HTMLRenderer
type MockHTMLRenderer struct {
	mock.Mock
}

func (m *MockHTMLRenderer) Render(name, source string, data interface{}) (string, error) {
	args := m.Called(name, source, data)
	return args.String(0), args.Error(1)
}

var _ HTMLRenderer = (*MockHTMLRenderer)(nil)

// MockPDFEngine is a mock implementation of PDFEngine
type MockPDFEngine struct {
	mock.Mock
}

func (m *MockPDFEngine) RenderPDF(ctx context.Context, html, title string) ([]byte, error) {
	args := m.Called(ctx, html, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

var _ PDFEngine = (*MockPDFEngine)(nil)

// ============================================================================
// Test Helpers
// ============================================================================

func testRetailerID() uuid.UUID {
	return uuid.MustParse("11111111-1111-1111-1111-111111111111")
}

func testCustomerID() uuid.UUID {
	return uuid.MustParse("22222222-2222-2222-2222-222222222222")
}

func testOrder(day int, serviceCents int64) billing.Order {
	return billing.Order{
		ID:            uuid.New(),
		DateOfService: billing.DateOfService{Year: 2026, Month: 3, Day: day},
		CustomerID:    testCustomerID(),
		RetailerID:    testRetailerID(),
		ServicePrice:  serviceCents,
	}
}
