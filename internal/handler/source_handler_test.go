package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"shipsync/internal/model"
	"shipsync/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSourceService is a mock implementation of service.SourceService.
type MockSourceService struct {
	mock.Mock
}

func (m *MockSourceService) Create(ctx context.Context, req *model.SourceRequest) (*model.Source, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Source), args.Error(1)
}

func (m *MockSourceService) Update(ctx context.Context, id uuid.UUID, req *model.SourceRequest) (*model.Source, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Source), args.Error(1)
}

func (m *MockSourceService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSourceService) Get(ctx context.Context, id uuid.UUID) (*model.Source, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Source), args.Error(1)
}

func (m *MockSourceService) List(ctx context.Context) ([]model.Source, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Source), args.Error(1)
}

func (m *MockSourceService) Test(ctx context.Context, id uuid.UUID) (*service.TestResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TestResult), args.Error(1)
}

func (m *MockSourceService) RefreshStores(ctx context.Context, id uuid.UUID) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *MockSourceService) SubscribeWebhook(ctx context.Context, id uuid.UUID) (*model.Source, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Source), args.Error(1)
}

func (m *MockSourceService) UnsubscribeWebhook(ctx context.Context, id uuid.UUID) (*model.Source, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Source), args.Error(1)
}

var _ service.SourceService = (*MockSourceService)(nil)

func newTestSourceHandler(sources *MockSourceService, sync *MockSyncService) *SourceHandler {
	return NewSourceHandler(sources, sync, zerolog.Nop())
}

func TestSourceHandlerList(t *testing.T) {
	sources := new(MockSourceService)
	sources.On("List", mock.Anything).Return([]model.Source{{Name: "Etsy Store"}}, nil)

	h := newTestSourceHandler(sources, new(MockSyncService))
	req := httptest.NewRequest(http.MethodGet, "/api/sources", nil)
	rec := httptest.NewRecorder()

	h.Collection(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSourceHandlerCreate(t *testing.T) {
	sources := new(MockSourceService)
	sources.On("Create", mock.Anything, mock.MatchedBy(func(req *model.SourceRequest) bool {
		return req.Name == "Etsy Store" && req.SourceIdentifier == "etsy-store"
	})).Return(&model.Source{ID: uuid.New(), Name: "Etsy Store"}, nil)

	body, _ := json.Marshal(model.SourceRequest{
		Name:             "Etsy Store",
		SourceIdentifier: "etsy-store",
		APIKey:           "key",
		APISecret:        "secret",
	})

	h := newTestSourceHandler(sources, new(MockSyncService))
	req := httptest.NewRequest(http.MethodPost, "/api/sources", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Collection(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	sources.AssertExpectations(t)
}

func TestSourceHandlerCreateDuplicate(t *testing.T) {
	sources := new(MockSourceService)
	sources.On("Create", mock.Anything, mock.Anything).Return(nil, model.ErrDuplicateSource)

	body, _ := json.Marshal(model.SourceRequest{Name: "Etsy Store", SourceIdentifier: "etsy-store"})

	h := newTestSourceHandler(sources, new(MockSyncService))
	req := httptest.NewRequest(http.MethodPost, "/api/sources", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Collection(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSourceHandlerGetNotFound(t *testing.T) {
	sources := new(MockSourceService)
	id := uuid.New()
	sources.On("Get", mock.Anything, id).Return(nil, nil)

	h := newTestSourceHandler(sources, new(MockSyncService))
	req := httptest.NewRequest(http.MethodGet, "/api/sources/"+id.String(), nil)
	rec := httptest.NewRecorder()

	h.Item(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSourceHandlerDelete(t *testing.T) {
	sources := new(MockSourceService)
	id := uuid.New()
	sources.On("Delete", mock.Anything, id).Return(nil)

	h := newTestSourceHandler(sources, new(MockSyncService))
	req := httptest.NewRequest(http.MethodDelete, "/api/sources/"+id.String(), nil)
	rec := httptest.NewRecorder()

	h.Item(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	sources.AssertExpectations(t)
}

func TestSourceHandlerTestAction(t *testing.T) {
	sources := new(MockSourceService)
	id := uuid.New()
	sources.On("Test", mock.Anything, id).Return(&service.TestResult{OrderCount: 3, Message: "ok"}, nil)

	h := newTestSourceHandler(sources, new(MockSyncService))
	req := httptest.NewRequest(http.MethodPost, "/api/sources/"+id.String()+"/test", nil)
	rec := httptest.NewRecorder()

	h.Item(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var result service.TestResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, 3, result.OrderCount)
}

func TestSourceHandlerSyncActionPassesOptions(t *testing.T) {
	sync := new(MockSyncService)
	id := uuid.New()
	sync.On("SyncSourceByID", mock.Anything, id, service.SyncOptions{ImportBatch: "b-1", AllStatuses: true}).
		Return(&service.SyncResult{SourceID: id, Examined: 2, Created: 1, Skipped: 1}, nil)

	h := newTestSourceHandler(new(MockSourceService), sync)
	req := httptest.NewRequest(http.MethodPost, "/api/sources/"+id.String()+"/sync?importBatch=b-1&allStatuses=true", nil)
	rec := httptest.NewRecorder()

	h.Item(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	sync.AssertExpectations(t)
}

func TestSourceHandlerSyncMissingCredentials(t *testing.T) {
	sync := new(MockSyncService)
	id := uuid.New()
	sync.On("SyncSourceByID", mock.Anything, id, mock.Anything).Return(nil, model.ErrMissingCredentials)

	h := newTestSourceHandler(new(MockSourceService), sync)
	req := httptest.NewRequest(http.MethodPost, "/api/sources/"+id.String()+"/sync", nil)
	rec := httptest.NewRecorder()

	h.Item(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSourceHandlerStoreRefreshAction(t *testing.T) {
	sources := new(MockSourceService)
	id := uuid.New()
	sources.On("RefreshStores", mock.Anything, id).Return(2, nil)

	h := newTestSourceHandler(sources, new(MockSyncService))
	req := httptest.NewRequest(http.MethodPost, "/api/sources/"+id.String()+"/stores/refresh", nil)
	rec := httptest.NewRecorder()

	h.Item(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	sources.AssertExpectations(t)
}

func TestSourceHandlerWebhookSubscribeAction(t *testing.T) {
	sources := new(MockSourceService)
	id := uuid.New()
	sources.On("SubscribeWebhook", mock.Anything, id).
		Return(&model.Source{ID: id, WebhookStatus: model.WebhookActive}, nil)

	h := newTestSourceHandler(sources, new(MockSyncService))
	req := httptest.NewRequest(http.MethodPost, "/api/sources/"+id.String()+"/webhook/subscribe", nil)
	rec := httptest.NewRecorder()

	h.Item(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	sources.AssertExpectations(t)
}

func TestSourceHandlerActionRejectsGet(t *testing.T) {
	h := newTestSourceHandler(new(MockSourceService), new(MockSyncService))
	req := httptest.NewRequest(http.MethodGet, "/api/sources/"+uuid.NewString()+"/test", nil)
	rec := httptest.NewRecorder()

	h.Item(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSourceHandlerUnknownAction(t *testing.T) {
	h := newTestSourceHandler(new(MockSourceService), new(MockSyncService))
	req := httptest.NewRequest(http.MethodPost, "/api/sources/"+uuid.NewString()+"/reset", nil)
	rec := httptest.NewRecorder()

	h.Item(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
