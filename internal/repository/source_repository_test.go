package repository

import (
	"context"
	"testing"
	"time"

	"shipsync/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSource builds a source ready for insertion.
func newTestSource(identifier string) *model.Source {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &model.Source{
		ID:               uuid.New(),
		Name:             "Test " + identifier,
		Sequence:         10,
		Active:           true,
		SourceIdentifier: identifier,
		APIKey:           "key-123",
		APISecret:        "secret-456",
		StoreMappings:    []model.StoreMapping{},
		WebhookEvent:     model.EventOrderNotify,
		WebhookStatus:    model.WebhookNotSetup,
		APIStatus:        model.APINotTested,
		LastUpdatedAt:    now,
		CreatedAt:        now,
	}
}

func seedSource(t *testing.T, pool *pgxpool.Pool, identifier string) *model.Source {
	t.Helper()

	repo := NewSourceRepository(pool, zerolog.Nop())
	source := newTestSource(identifier)
	require.NoError(t, repo.Create(context.Background(), source))
	return source
}

func TestSourceRepository_CreateAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSourceRepository(pool, zerolog.Nop())
	ctx := context.Background()

	source := newTestSource("etsy-store")
	source.Description = "Etsy production account"
	source.APIURL = "https://ssapi.shipstation.com/orders?storeId=101"
	source.StoreMappings = []model.StoreMapping{
		{StoreID: 101, StoreName: "Etsy Shop", Color: "#a2d46b"},
	}

	require.NoError(t, repo.Create(ctx, source))

	got, err := repo.GetByID(ctx, source.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, source.ID, got.ID)
	assert.Equal(t, "Test etsy-store", got.Name)
	assert.Equal(t, "etsy-store", got.SourceIdentifier)
	assert.Equal(t, "key-123", got.APIKey)
	assert.Equal(t, "secret-456", got.APISecret)
	assert.Equal(t, model.WebhookNotSetup, got.WebhookStatus)
	assert.Equal(t, model.APINotTested, got.APIStatus)
	assert.Nil(t, got.WebhookSubscriptionID)
	assert.Nil(t, got.LastFetchAt)
	require.Len(t, got.StoreMappings, 1)
	assert.Equal(t, int64(101), got.StoreMappings[0].StoreID)
	assert.Equal(t, "Etsy Shop", got.StoreMappings[0].StoreName)
}

func TestSourceRepository_Create_DuplicateIdentifier(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSourceRepository(pool, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestSource("etsy-store")))

	err := repo.Create(ctx, newTestSource("etsy-store"))
	assert.ErrorIs(t, err, model.ErrDuplicateSource)
}

func TestSourceRepository_GetByID_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSourceRepository(pool, zerolog.Nop())

	got, err := repo.GetByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSourceRepository_GetByIdentifier(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSourceRepository(pool, zerolog.Nop())
	ctx := context.Background()

	active := newTestSource("etsy-store")
	require.NoError(t, repo.Create(ctx, active))

	inactive := newTestSource("old-store")
	inactive.Active = false
	require.NoError(t, repo.Create(ctx, inactive))

	got, err := repo.GetByIdentifier(ctx, "etsy-store", true)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, active.ID, got.ID)

	// Inactive source is invisible when filtering for active only
	got, err = repo.GetByIdentifier(ctx, "old-store", true)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.GetByIdentifier(ctx, "old-store", false)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, inactive.ID, got.ID)
}

func TestSourceRepository_Update(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSourceRepository(pool, zerolog.Nop())
	ctx := context.Background()

	source := seedSource(t, pool, "etsy-store")

	source.Name = "Renamed"
	source.Sequence = 5
	source.Active = false
	source.APIKey = "new-key"
	source.WebhookURL = "https://hooks.example.com"

	require.NoError(t, repo.Update(ctx, source))

	got, err := repo.GetByID(ctx, source.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, 5, got.Sequence)
	assert.False(t, got.Active)
	assert.Equal(t, "new-key", got.APIKey)
	assert.Equal(t, "https://hooks.example.com", got.WebhookURL)
}

func TestSourceRepository_Update_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSourceRepository(pool, zerolog.Nop())

	err := repo.Update(context.Background(), newTestSource("ghost"))
	assert.ErrorIs(t, err, model.ErrSourceNotFound)
}

func TestSourceRepository_Delete(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSourceRepository(pool, zerolog.Nop())
	ctx := context.Background()

	source := seedSource(t, pool, "etsy-store")

	require.NoError(t, repo.Delete(ctx, source.ID))

	got, err := repo.GetByID(ctx, source.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, repo.Delete(ctx, source.ID), model.ErrSourceNotFound)
}

func TestSourceRepository_ListOrdering(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSourceRepository(pool, zerolog.Nop())
	ctx := context.Background()

	first := newTestSource("store-b")
	first.Sequence = 1
	require.NoError(t, repo.Create(ctx, first))

	second := newTestSource("store-a")
	second.Sequence = 20
	require.NoError(t, repo.Create(ctx, second))

	inactive := newTestSource("store-c")
	inactive.Sequence = 2
	inactive.Active = false
	require.NoError(t, repo.Create(ctx, inactive))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "store-b", all[0].SourceIdentifier)
	assert.Equal(t, "store-c", all[1].SourceIdentifier)
	assert.Equal(t, "store-a", all[2].SourceIdentifier)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "store-b", active[0].SourceIdentifier)
	assert.Equal(t, "store-a", active[1].SourceIdentifier)
}

func TestSourceRepository_Touches(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSourceRepository(pool, zerolog.Nop())
	ctx := context.Background()

	source := seedSource(t, pool, "etsy-store")

	fetchAt := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, repo.TouchFetch(ctx, source.ID, fetchAt))

	webhookAt := fetchAt.Add(time.Minute)
	require.NoError(t, repo.TouchWebhook(ctx, source.ID, webhookAt))

	got, err := repo.GetByID(ctx, source.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.LastFetchAt)
	require.NotNil(t, got.LastWebhookAt)
	assert.True(t, got.LastFetchAt.Equal(fetchAt))
	assert.True(t, got.LastWebhookAt.Equal(webhookAt))
}

func TestSourceRepository_IncrementOrdersCount(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSourceRepository(pool, zerolog.Nop())
	ctx := context.Background()

	source := seedSource(t, pool, "etsy-store")

	require.NoError(t, repo.IncrementOrdersCount(ctx, source.ID, 3))
	require.NoError(t, repo.IncrementOrdersCount(ctx, source.ID, 2))

	got, err := repo.GetByID(ctx, source.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 5, got.OrdersCount)
}

func TestSourceRepository_UpdateStoreMappings(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSourceRepository(pool, zerolog.Nop())
	ctx := context.Background()

	source := seedSource(t, pool, "etsy-store")

	mappings := []model.StoreMapping{
		{StoreID: 101, StoreName: "Etsy Shop", Color: "#a2d46b"},
		{StoreID: 202, StoreName: "Amazon Store", Color: "#6ba2d4"},
	}
	require.NoError(t, repo.UpdateStoreMappings(ctx, source.ID, mappings))

	got, err := repo.GetByID(ctx, source.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.StoreMappings, 2)
	assert.Equal(t, mappings, got.StoreMappings)

	// A nil list resets to empty, not NULL
	require.NoError(t, repo.UpdateStoreMappings(ctx, source.ID, nil))

	got, err = repo.GetByID(ctx, source.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.StoreMappings)
}

func TestSourceRepository_UpdateWebhookStatus(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSourceRepository(pool, zerolog.Nop())
	ctx := context.Background()

	source := seedSource(t, pool, "etsy-store")

	subID := "9001"
	require.NoError(t, repo.UpdateWebhookStatus(ctx, source.ID, model.WebhookActive, &subID,
		"https://hooks.example.com/webhooks/shipstation/etsy-store"))

	got, err := repo.GetByID(ctx, source.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.WebhookActive, got.WebhookStatus)
	require.NotNil(t, got.WebhookSubscriptionID)
	assert.Equal(t, "9001", *got.WebhookSubscriptionID)
	assert.Equal(t, "https://hooks.example.com/webhooks/shipstation/etsy-store", got.WebhookURL)

	// Clearing the subscription with an empty URL keeps the stored URL
	require.NoError(t, repo.UpdateWebhookStatus(ctx, source.ID, model.WebhookNotSetup, nil, ""))

	got, err = repo.GetByID(ctx, source.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.WebhookNotSetup, got.WebhookStatus)
	assert.Nil(t, got.WebhookSubscriptionID)
	assert.Equal(t, "https://hooks.example.com/webhooks/shipstation/etsy-store", got.WebhookURL)
}

func TestSourceRepository_UpdateAPIStatus(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSourceRepository(pool, zerolog.Nop())
	ctx := context.Background()

	source := seedSource(t, pool, "etsy-store")

	require.NoError(t, repo.UpdateAPIStatus(ctx, source.ID, model.APIFailed, "connection refused"))

	got, err := repo.GetByID(ctx, source.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.APIFailed, got.APIStatus)
	assert.Equal(t, "connection refused", got.APIStatusMessage)
}
