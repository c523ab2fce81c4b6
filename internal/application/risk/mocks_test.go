package risk

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/stocksense/backend/internal/domain/catalog"
	"github.com/stocksense/backend/internal/domain/inventory"
	"github.com/stocksense/backend/internal/domain/risk"
	"github.com/stocksense/backend/internal/domain/shared"
)

// MockAssessmentRepository is a mock implementation of AssessmentRepository
type MockAssessmentRepository struct {
	mock.Mock
}

func (m *MockAssessmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*risk.Assessment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*risk.Assessment), args.Error(1)
}

func (m *MockAssessmentRepository) FindLatestByProduct(ctx context.Context, productID uuid.UUID) (*risk.Assessment, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*risk.Assessment), args.Error(1)
}

func (m *MockAssessmentRepository) FindLatest(ctx context.Context, filter shared.Filter) ([]risk.Assessment, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]risk.Assessment), args.Error(1)
}

func (m *MockAssessmentRepository) FindHighRisk(ctx context.Context, threshold float64) ([]risk.Assessment, error) {
	args := m.Called(ctx, threshold)
	return args.Get(0).([]risk.Assessment), args.Error(1)
}

func (m *MockAssessmentRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]risk.Assessment, error) {
	args := m.Called(ctx, productID, filter)
	return args.Get(0).([]risk.Assessment), args.Error(1)
}

func (m *MockAssessmentRepository) Save(ctx context.Context, assessment *risk.Assessment) error {
	args := m.Called(ctx, assessment)
	return args.Error(0)
}

func (m *MockAssessmentRepository) SaveBatch(ctx context.Context, assessments []*risk.Assessment) error {
	args := m.Called(ctx, assessments)
	return args.Error(0)
}

func (m *MockAssessmentRepository) CountLatestByBand(ctx context.Context) (risk.BandCounts, error) {
	args := m.Called(ctx)
	return args.Get(0).(risk.BandCounts), args.Error(1)
}

func (m *MockAssessmentRepository) CategoryAnalysis(ctx context.Context) ([]risk.CategoryRisk, error) {
	args := m.Called(ctx)
	return args.Get(0).([]risk.CategoryRisk), args.Error(1)
}

func (m *MockAssessmentRepository) AverageLatestScore(ctx context.Context) (float64, error) {
	args := m.Called(ctx)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockAssessmentRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// MockModelVersionRepository is a mock implementation of ModelVersionRepository
type MockModelVersionRepository struct {
	mock.Mock
}

func (m *MockModelVersionRepository) FindByID(ctx context.Context, id uuid.UUID) (*risk.ModelVersion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*risk.ModelVersion), args.Error(1)
}

func (m *MockModelVersionRepository) FindByVersion(ctx context.Context, version string) (*risk.ModelVersion, error) {
	args := m.Called(ctx, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*risk.ModelVersion), args.Error(1)
}

func (m *MockModelVersionRepository) FindActive(ctx context.Context) (*risk.ModelVersion, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*risk.ModelVersion), args.Error(1)
}

func (m *MockModelVersionRepository) FindAll(ctx context.Context, filter shared.Filter) ([]risk.ModelVersion, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]risk.ModelVersion), args.Error(1)
}

func (m *MockModelVersionRepository) Save(ctx context.Context, model *risk.ModelVersion) error {
	args := m.Called(ctx, model)
	return args.Error(0)
}

func (m *MockModelVersionRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockAlertRepository is a mock implementation of AlertRepository
type MockAlertRepository struct {
	mock.Mock
}

func (m *MockAlertRepository) FindByID(ctx context.Context, id uuid.UUID) (*risk.Alert, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*risk.Alert), args.Error(1)
}

func (m *MockAlertRepository) FindActive(ctx context.Context, limit int) ([]risk.Alert, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]risk.Alert), args.Error(1)
}

func (m *MockAlertRepository) FindAll(ctx context.Context, filter shared.Filter) ([]risk.Alert, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]risk.Alert), args.Error(1)
}

func (m *MockAlertRepository) FindActiveByProductAndType(ctx context.Context, productID uuid.UUID, alertType risk.AlertType) (*risk.Alert, error) {
	args := m.Called(ctx, productID, alertType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*risk.Alert), args.Error(1)
}

func (m *MockAlertRepository) Save(ctx context.Context, alert *risk.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func (m *MockAlertRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAlertRepository) DeleteAcknowledgedOlderThan(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// MockProductRepository is a mock implementation of ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByCode(ctx context.Context, code string) (*catalog.Product, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByCategory(ctx context.Context, category string, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, category, filter)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindActive(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByCodes(ctx context.Context, codes []string) ([]catalog.Product, error) {
	args := m.Called(ctx, codes)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) ListCategories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) SaveBatch(ctx context.Context, products []*catalog.Product) error {
	args := m.Called(ctx, products)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) CountByStatus(ctx context.Context, status catalog.ProductStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(bool), args.Error(1)
}

// MockInventoryRepository is a mock implementation of InventoryRepository
type MockInventoryRepository struct {
	mock.Mock
}

func (m *MockInventoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.InventoryLevel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.InventoryLevel), args.Error(1)
}

func (m *MockInventoryRepository) FindByProductID(ctx context.Context, productID uuid.UUID) (*inventory.InventoryLevel, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.InventoryLevel), args.Error(1)
}

func (m *MockInventoryRepository) FindByProductIDs(ctx context.Context, productIDs []uuid.UUID) ([]inventory.InventoryLevel, error) {
	args := m.Called(ctx, productIDs)
	return args.Get(0).([]inventory.InventoryLevel), args.Error(1)
}

func (m *MockInventoryRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.InventoryLevel, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]inventory.InventoryLevel), args.Error(1)
}

func (m *MockInventoryRepository) FindBelowMinimum(ctx context.Context) ([]inventory.InventoryLevel, error) {
	args := m.Called(ctx)
	return args.Get(0).([]inventory.InventoryLevel), args.Error(1)
}

func (m *MockInventoryRepository) Save(ctx context.Context, level *inventory.InventoryLevel) error {
	args := m.Called(ctx, level)
	return args.Error(0)
}

func (m *MockInventoryRepository) SaveBatch(ctx context.Context, levels []*inventory.InventoryLevel) error {
	args := m.Called(ctx, levels)
	return args.Error(0)
}

func (m *MockInventoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockInventoryRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockDemandRepository is a mock implementation of DemandRepository
type MockDemandRepository struct {
	mock.Mock
}

func (m *MockDemandRepository) Save(ctx context.Context, record *inventory.DemandRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockDemandRepository) SaveBatch(ctx context.Context, records []*inventory.DemandRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockDemandRepository) FindByProduct(ctx context.Context, productID uuid.UUID, from, to time.Time) ([]inventory.DemandRecord, error) {
	args := m.Called(ctx, productID, from, to)
	return args.Get(0).([]inventory.DemandRecord), args.Error(1)
}

func (m *MockDemandRepository) StatsByProduct(ctx context.Context, productID uuid.UUID) (*inventory.DemandStats, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.DemandStats), args.Error(1)
}

func (m *MockDemandRepository) StatsAll(ctx context.Context) (map[uuid.UUID]inventory.DemandStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[uuid.UUID]inventory.DemandStats), args.Error(1)
}

func (m *MockDemandRepository) CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDemandRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// MockArtifactStore is a mock implementation of ArtifactStore
type MockArtifactStore struct {
	mock.Mock
}

func (m *MockArtifactStore) Put(ctx context.Context, key string, data []byte) error {
	args := m.Called(ctx, key, data)
	return args.Error(0)
}

func (m *MockArtifactStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockArtifactStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockArtifactStore) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(bool), args.Error(1)
}

// MockAssessmentCache is a mock implementation of AssessmentCache
type MockAssessmentCache struct {
	mock.Mock
}

func (m *MockAssessmentCache) GetLatest(ctx context.Context, productID uuid.UUID) (*risk.Assessment, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*risk.Assessment), args.Error(1)
}

func (m *MockAssessmentCache) SetLatest(ctx context.Context, ttl time.Duration, assessments ...*risk.Assessment) error {
	args := m.Called(ctx, ttl, assessments)
	return args.Error(0)
}

func (m *MockAssessmentCache) InvalidateProduct(ctx context.Context, productID uuid.UUID) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

func (m *MockAssessmentCache) InvalidateAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockAssessmentCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// MockChatClient is a mock implementation of ChatClient
type MockChatClient struct {
	mock.Mock
}

func (m *MockChatClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	args := m.Called(ctx, systemPrompt, userPrompt)
	return args.String(0), args.Error(1)
}
