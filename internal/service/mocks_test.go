package service

import (
	"context"
	"time"

	"shipsync/internal/model"
	"shipsync/internal/shipstation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockSourceRepository is a mock implementation of repository.SourceRepository.
type MockSourceRepository struct {
	mock.Mock
}

func (m *MockSourceRepository) Create(ctx context.Context, source *model.Source) error {
	args := m.Called(ctx, source)
	return args.Error(0)
}

func (m *MockSourceRepository) Update(ctx context.Context, source *model.Source) error {
	args := m.Called(ctx, source)
	return args.Error(0)
}

func (m *MockSourceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSourceRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Source, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Source), args.Error(1)
}

func (m *MockSourceRepository) GetByIdentifier(ctx context.Context, identifier string, activeOnly bool) (*model.Source, error) {
	args := m.Called(ctx, identifier, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Source), args.Error(1)
}

func (m *MockSourceRepository) List(ctx context.Context) ([]model.Source, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Source), args.Error(1)
}

func (m *MockSourceRepository) ListActive(ctx context.Context) ([]model.Source, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Source), args.Error(1)
}

func (m *MockSourceRepository) TouchFetch(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockSourceRepository) TouchWebhook(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockSourceRepository) IncrementOrdersCount(ctx context.Context, id uuid.UUID, n int) error {
	args := m.Called(ctx, id, n)
	return args.Error(0)
}

func (m *MockSourceRepository) UpdateStoreMappings(ctx context.Context, id uuid.UUID, mappings []model.StoreMapping) error {
	args := m.Called(ctx, id, mappings)
	return args.Error(0)
}

func (m *MockSourceRepository) UpdateWebhookStatus(ctx context.Context, id uuid.UUID, status string, subscriptionID *string, webhookURL string) error {
	args := m.Called(ctx, id, status, subscriptionID, webhookURL)
	return args.Error(0)
}

func (m *MockSourceRepository) UpdateAPIStatus(ctx context.Context, id uuid.UUID, status, message string) error {
	args := m.Called(ctx, id, status, message)
	return args.Error(0)
}

// MockOrderRepository is a mock implementation of repository.OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) MapByOrderNumbers(ctx context.Context, sourceID uuid.UUID, numbers []string) (map[string]*model.Order, error) {
	args := m.Called(ctx, sourceID, numbers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*model.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByOrderNumber(ctx context.Context, sourceID uuid.UUID, number string) (*model.Order, error) {
	args := m.Called(ctx, sourceID, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) AssignDesigner(ctx context.Context, id uuid.UUID, designer string, at time.Time) error {
	args := m.Called(ctx, id, designer, at)
	return args.Error(0)
}

func (m *MockOrderRepository) SetState(ctx context.Context, id uuid.UUID, state string, completedAt *time.Time, turnaroundHours *float64) error {
	args := m.Called(ctx, id, state, completedAt, turnaroundHours)
	return args.Error(0)
}

// MockClient is a mock implementation of shipstation.Client.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) FetchOrders(ctx context.Context, ordersURL string, creds shipstation.Credentials, params shipstation.FetchParams) ([]shipstation.Order, []byte, error) {
	args := m.Called(ctx, ordersURL, creds, params)
	var orders []shipstation.Order
	if args.Get(0) != nil {
		orders = args.Get(0).([]shipstation.Order)
	}
	var raw []byte
	if args.Get(1) != nil {
		raw = args.Get(1).([]byte)
	}
	return orders, raw, args.Error(2)
}

func (m *MockClient) TestConnection(ctx context.Context, ordersURL string, creds shipstation.Credentials) (int, error) {
	args := m.Called(ctx, ordersURL, creds)
	return args.Int(0), args.Error(1)
}

func (m *MockClient) ListStores(ctx context.Context, creds shipstation.Credentials) ([]shipstation.Store, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shipstation.Store), args.Error(1)
}

func (m *MockClient) GetStore(ctx context.Context, creds shipstation.Credentials, storeID int64) (*shipstation.Store, error) {
	args := m.Called(ctx, creds, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipstation.Store), args.Error(1)
}

func (m *MockClient) Subscribe(ctx context.Context, creds shipstation.Credentials, req shipstation.SubscribeRequest) (string, error) {
	args := m.Called(ctx, creds, req)
	return args.String(0), args.Error(1)
}

func (m *MockClient) Unsubscribe(ctx context.Context, creds shipstation.Credentials, subscriptionID string) error {
	args := m.Called(ctx, creds, subscriptionID)
	return args.Error(0)
}

// MockArchiver is a mock implementation of archive.Archiver.
type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) Store(ctx context.Context, sourceIdentifier string, payload []byte) error {
	args := m.Called(ctx, sourceIdentifier, payload)
	return args.Error(0)
}
