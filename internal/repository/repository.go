package repository

import (
	"context"
	"time"

	"shipsync/internal/model"

	"github.com/google/uuid"
)

// SourceRepository defines the interface for API source data access.
type SourceRepository interface {
	// Create inserts a new source. Returns model.ErrDuplicateSource when the
	// source identifier is already taken.
	Create(ctx context.Context, source *model.Source) error

	// Update rewrites a source's editable fields and stamps last_updated_at.
	Update(ctx context.Context, source *model.Source) error

	// Delete removes a source and its orders.
	Delete(ctx context.Context, id uuid.UUID) error

	// GetByID retrieves a source by id. Returns nil without error when no
	// source exists.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Source, error)

	// GetByIdentifier retrieves a source by its unique identifier,
	// optionally restricted to active sources.
	GetByIdentifier(ctx context.Context, identifier string, activeOnly bool) (*model.Source, error)

	// List retrieves all sources ordered by sequence.
	List(ctx context.Context) ([]model.Source, error)

	// ListActive retrieves active sources ordered by sequence.
	ListActive(ctx context.Context) ([]model.Source, error)

	// TouchFetch stamps the last successful API fetch time.
	TouchFetch(ctx context.Context, id uuid.UUID, at time.Time) error

	// TouchWebhook stamps the last webhook trigger time.
	TouchWebhook(ctx context.Context, id uuid.UUID, at time.Time) error

	// IncrementOrdersCount bumps the number of orders fetched from a source.
	IncrementOrdersCount(ctx context.Context, id uuid.UUID, n int) error

	// UpdateStoreMappings replaces a source's cached store mapping list.
	UpdateStoreMappings(ctx context.Context, id uuid.UUID, mappings []model.StoreMapping) error

	// UpdateWebhookStatus records the webhook subscription state. A nil
	// subscription id clears the stored id; an empty webhookURL leaves the
	// stored target URL untouched.
	UpdateWebhookStatus(ctx context.Context, id uuid.UUID, status string, subscriptionID *string, webhookURL string) error

	// UpdateAPIStatus records the outcome of the last API interaction.
	UpdateAPIStatus(ctx context.Context, id uuid.UUID, status, message string) error
}

// OrderRepository defines the interface for order record data access.
type OrderRepository interface {
	// Create inserts a new order record. Returns model.ErrDuplicateOrder
	// when the (source, order number) pair already exists.
	Create(ctx context.Context, order *model.Order) error

	// MapByOrderNumbers bulk-loads the existing records for a source whose
	// order numbers appear in numbers, keyed by order number. One query
	// regardless of batch size.
	MapByOrderNumbers(ctx context.Context, sourceID uuid.UUID, numbers []string) (map[string]*model.Order, error)

	// UpdateStatus rewrites only the order status of an existing record.
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error

	// GetByID retrieves an order by id. Returns nil without error when no
	// order exists.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// GetByOrderNumber retrieves a source's order by order number.
	GetByOrderNumber(ctx context.Context, sourceID uuid.UUID, number string) (*model.Order, error)

	// List retrieves orders matching the filter, newest first.
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)

	// AssignDesigner sets the designer, keeping the first assignment time.
	AssignDesigner(ctx context.Context, id uuid.UUID, designer string, at time.Time) error

	// SetState moves an order to a workflow state, optionally recording the
	// completion time and turnaround.
	SetState(ctx context.Context, id uuid.UUID, state string, completedAt *time.Time, turnaroundHours *float64) error
}
