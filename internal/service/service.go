package service

import (
	"context"

	"shipsync/internal/model"

	"github.com/google/uuid"
)

// SyncOptions tune a single sync pass.
type SyncOptions struct {
	// ImportBatch restricts the fetch to one ShipStation import batch.
	ImportBatch string

	// AllStatuses drops the awaiting_shipment filter and fetches every
	// order regardless of status.
	AllStatuses bool
}

// SyncResult summarises one source's sync pass. Examined always equals
// Created + Updated + Skipped; Skipped covers both unchanged orders and
// orders ignored for having no items.
type SyncResult struct {
	SourceID    uuid.UUID `json:"sourceId"`
	SourceName  string    `json:"sourceName"`
	Examined    int       `json:"examined"`
	Created     int       `json:"created"`
	Updated     int       `json:"updated"`
	Skipped     int       `json:"skipped"`
	StoresAdded int       `json:"storesAdded"`
}

// BatchResult summarises a sync pass over all active sources.
type BatchResult struct {
	Sources   int          `json:"sources"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Examined  int          `json:"examined"`
	Created   int          `json:"created"`
	Updated   int          `json:"updated"`
	Results   []SyncResult `json:"results"`
}

// WebhookEvent is a parsed inbound ShipStation webhook.
type WebhookEvent struct {
	SourceIdentifier string
	ResourceType     string
	ResourceURL      string
}

// WebhookOutcome is what a processed webhook reports back to the caller.
type WebhookOutcome struct {
	Message string      `json:"message"`
	Result  *SyncResult `json:"result,omitempty"`
}

// TestResult reports a connection probe against a source.
type TestResult struct {
	OrderCount int    `json:"orderCount"`
	Message    string `json:"message"`
}

// SyncService drives order ingestion: fetching from ShipStation and
// reconciling the fetched batches into local records.
type SyncService interface {
	// SyncSource fetches and reconciles one source.
	SyncSource(ctx context.Context, source *model.Source, opts SyncOptions) (*SyncResult, error)

	// SyncSourceByID loads a source and syncs it.
	SyncSourceByID(ctx context.Context, id uuid.UUID, opts SyncOptions) (*SyncResult, error)

	// SyncAll syncs every active source sequentially. A failing source is
	// counted and skipped; it never aborts the remaining sources.
	SyncAll(ctx context.Context, opts SyncOptions) (*BatchResult, error)

	// ProcessWebhook handles an inbound webhook event.
	ProcessWebhook(ctx context.Context, event WebhookEvent) (*WebhookOutcome, error)
}

// SourceService manages source configuration and its ShipStation-side
// lifecycle (connection probes, store refresh, webhook subscriptions).
type SourceService interface {
	// Create registers a new source.
	Create(ctx context.Context, req *model.SourceRequest) (*model.Source, error)

	// Update rewrites an existing source's configuration.
	Update(ctx context.Context, id uuid.UUID, req *model.SourceRequest) (*model.Source, error)

	// Delete removes a source and its orders.
	Delete(ctx context.Context, id uuid.UUID) error

	// Get retrieves a source by id; nil when not found.
	Get(ctx context.Context, id uuid.UUID) (*model.Source, error)

	// List retrieves all sources.
	List(ctx context.Context) ([]model.Source, error)

	// Test probes the source's API credentials and records the outcome.
	Test(ctx context.Context, id uuid.UUID) (*TestResult, error)

	// RefreshStores replaces the source's store mappings from the API.
	RefreshStores(ctx context.Context, id uuid.UUID) (int, error)

	// SubscribeWebhook subscribes the source to its configured event.
	SubscribeWebhook(ctx context.Context, id uuid.UUID) (*model.Source, error)

	// UnsubscribeWebhook drops the source's webhook subscription.
	UnsubscribeWebhook(ctx context.Context, id uuid.UUID) (*model.Source, error)
}

// OrderService exposes the designer workflow over synced orders.
type OrderService interface {
	// Get retrieves an order by id; nil when not found.
	Get(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// List retrieves orders matching the filter.
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)

	// AssignDesigner assigns a designer to an order.
	AssignDesigner(ctx context.Context, id uuid.UUID, designer string) (*model.Order, error)

	// SetState moves an order through the workflow. Entering the done state
	// stamps the completion time and computes the turnaround.
	SetState(ctx context.Context, id uuid.UUID, state string) (*model.Order, error)
}
