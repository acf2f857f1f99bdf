package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"shipsync/internal/archive"
	"shipsync/internal/model"
	"shipsync/internal/reconcile"
	"shipsync/internal/repository"
	"shipsync/internal/shipstation"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// syncService implements SyncService.
type syncService struct {
	sourceRepo repository.SourceRepository
	orderRepo  repository.OrderRepository
	client     shipstation.Client
	archiver   archive.Archiver
	logger     zerolog.Logger
}

// NewSyncService creates a new sync service.
func NewSyncService(
	sourceRepo repository.SourceRepository,
	orderRepo repository.OrderRepository,
	client shipstation.Client,
	archiver archive.Archiver,
	logger zerolog.Logger,
) SyncService {
	return &syncService{
		sourceRepo: sourceRepo,
		orderRepo:  orderRepo,
		client:     client,
		archiver:   archiver,
		logger:     logger.With().Str("service", "sync").Logger(),
	}
}

// SyncSource fetches one page of orders for the source and reconciles it into
// the local records: new orders are created with derived fields, known orders
// get a status-only update when their status moved, and orders without items
// are ignored.
func (s *syncService) SyncSource(ctx context.Context, source *model.Source, opts SyncOptions) (*SyncResult, error) {
	if source == nil {
		return nil, model.ErrSourceNotFound
	}
	if !source.HasCredentials() {
		s.logger.Error().Str("source", source.Name).Msg("missing API credentials")
		return nil, model.ErrMissingCredentials
	}

	creds := shipstation.Credentials{APIKey: source.APIKey, APISecret: source.APISecret}

	params := shipstation.DefaultFetchParams()
	if opts.AllStatuses {
		params.OrderStatus = ""
	}
	params.ImportBatch = opts.ImportBatch

	orders, raw, err := s.client.FetchOrders(ctx, source.APIURL, creds, params)
	if err != nil {
		if stErr := s.sourceRepo.UpdateAPIStatus(ctx, source.ID, model.APIFailed, err.Error()); stErr != nil {
			s.logger.Error().Err(stErr).Str("source", source.Name).Msg("failed to record API failure")
		}
		return nil, fmt.Errorf("fetch failed for source %s: %w", source.Name, err)
	}

	now := time.Now().UTC()
	if err := s.sourceRepo.TouchFetch(ctx, source.ID, now); err != nil {
		s.logger.Error().Err(err).Str("source", source.Name).Msg("failed to record fetch time")
	}
	if err := s.sourceRepo.UpdateAPIStatus(ctx, source.ID, model.APISuccess, "API connected and data fetched successfully."); err != nil {
		s.logger.Error().Err(err).Str("source", source.Name).Msg("failed to record API status")
	}

	// Best-effort; an archive failure never fails the sync.
	if err := s.archiver.Store(ctx, source.SourceIdentifier, raw); err != nil {
		s.logger.Warn().Err(err).Str("source", source.Name).Msg("failed to archive fetch payload")
	}

	numbers := make([]string, 0, len(orders))
	for i := range orders {
		if orders[i].OrderNumber != "" {
			numbers = append(numbers, orders[i].OrderNumber)
		}
	}

	existing, err := s.orderRepo.MapByOrderNumbers(ctx, source.ID, numbers)
	if err != nil {
		return nil, fmt.Errorf("existing order lookup failed for source %s: %w", source.Name, err)
	}

	s.logger.Info().
		Str("source", source.Name).
		Int("fetched", len(orders)).
		Int("existing", len(existing)).
		Msg("reconciling fetched orders")

	plan := reconcile.Plan(source, existing, orders, now)

	result := &SyncResult{
		SourceID:   source.ID,
		SourceName: source.Name,
		Examined:   plan.Examined,
		Skipped:    plan.Unchanged + plan.Skipped,
	}

	for i := range plan.Creates {
		created, updated, err := s.createOrder(ctx, source, &plan.Creates[i])
		if err != nil {
			return nil, fmt.Errorf("persisting order %s failed for source %s: %w",
				plan.Creates[i].OrderNumber, source.Name, err)
		}
		result.Created += created
		result.Updated += updated
		result.Skipped += 1 - created - updated
	}

	for _, change := range plan.Updates {
		if err := s.orderRepo.UpdateStatus(ctx, change.OrderID, change.To); err != nil {
			return nil, fmt.Errorf("status update of order %s failed for source %s: %w",
				change.OrderNumber, source.Name, err)
		}
		result.Updated++
		s.logger.Info().
			Str("source", source.Name).
			Str("order_number", change.OrderNumber).
			Str("from", change.From).
			Str("to", change.To).
			Msg("order status changed")
	}

	if len(plan.Stores) > 0 {
		lookup := func(storeID int64) (string, bool) {
			store, err := s.client.GetStore(ctx, creds, storeID)
			if err != nil || store == nil {
				return "", false
			}
			return store.StoreName, store.StoreName != ""
		}

		merged, added := reconcile.MergeStoreMappings(source.StoreMappings, plan.Stores, lookup)
		if added > 0 {
			if err := s.sourceRepo.UpdateStoreMappings(ctx, source.ID, merged); err != nil {
				s.logger.Error().Err(err).Str("source", source.Name).Msg("failed to store merged store mappings")
			} else {
				source.StoreMappings = merged
				result.StoresAdded = added
			}
		}
	}

	if result.Created > 0 {
		if err := s.sourceRepo.IncrementOrdersCount(ctx, source.ID, result.Created); err != nil {
			s.logger.Error().Err(err).Str("source", source.Name).Msg("failed to bump orders count")
		}
	}

	s.logger.Info().
		Str("source", source.Name).
		Int("examined", result.Examined).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Int("stores_added", result.StoresAdded).
		Msg("sync pass complete")

	return result, nil
}

// createOrder inserts a planned record, falling back to a status comparison
// when another run created the same order first. Returns how many records the
// call created and updated (each 0 or 1).
func (s *syncService) createOrder(ctx context.Context, source *model.Source, order *model.Order) (int, int, error) {
	err := s.orderRepo.Create(ctx, order)
	if err == nil {
		return 1, 0, nil
	}
	if err != model.ErrDuplicateOrder {
		return 0, 0, err
	}

	// Lost a first-creation race; treat the incoming order as an update.
	current, err := s.orderRepo.GetByOrderNumber(ctx, source.ID, order.OrderNumber)
	if err != nil {
		return 0, 0, err
	}
	if current == nil {
		return 0, 0, model.ErrOrderNotFound
	}
	if current.OrderStatus == order.OrderStatus {
		return 0, 0, nil
	}

	if err := s.orderRepo.UpdateStatus(ctx, current.ID, order.OrderStatus); err != nil {
		return 0, 0, err
	}

	s.logger.Info().
		Str("source", source.Name).
		Str("order_number", order.OrderNumber).
		Str("from", current.OrderStatus).
		Str("to", order.OrderStatus).
		Msg("concurrent creation detected, order status updated instead")

	return 0, 1, nil
}

// SyncSourceByID loads a source and syncs it.
func (s *syncService) SyncSourceByID(ctx context.Context, id uuid.UUID, opts SyncOptions) (*SyncResult, error) {
	source, err := s.sourceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, model.ErrSourceNotFound
	}
	return s.SyncSource(ctx, source, opts)
}

// SyncAll syncs every active source sequentially, isolating per-source
// failures.
func (s *syncService) SyncAll(ctx context.Context, opts SyncOptions) (*BatchResult, error) {
	sources, err := s.sourceRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active sources: %w", err)
	}

	batch := &BatchResult{Sources: len(sources)}

	for i := range sources {
		source := &sources[i]
		result, err := s.SyncSource(ctx, source, opts)
		if err != nil {
			s.logger.Error().Err(err).Str("source", source.Name).Msg("source sync failed")
			batch.Failed++
			continue
		}
		batch.Succeeded++
		batch.Examined += result.Examined
		batch.Created += result.Created
		batch.Updated += result.Updated
		batch.Results = append(batch.Results, *result)
	}

	s.logger.Info().
		Int("sources", batch.Sources).
		Int("succeeded", batch.Succeeded).
		Int("failed", batch.Failed).
		Int("examined", batch.Examined).
		Msg("batch sync complete")

	return batch, nil
}

// ProcessWebhook resolves the event's source and reacts to its resource type.
func (s *syncService) ProcessWebhook(ctx context.Context, event WebhookEvent) (*WebhookOutcome, error) {
	if event.SourceIdentifier == "" {
		return nil, model.ErrMissingIdentifier
	}

	source, err := s.sourceRepo.GetByIdentifier(ctx, event.SourceIdentifier, true)
	if err != nil {
		return nil, err
	}
	if source == nil {
		s.logger.Warn().
			Str("source_identifier", event.SourceIdentifier).
			Msg("webhook for unknown source identifier")
		return nil, model.ErrSourceNotFound
	}

	if err := s.sourceRepo.TouchWebhook(ctx, source.ID, time.Now().UTC()); err != nil {
		s.logger.Error().Err(err).Str("source", source.Name).Msg("failed to record webhook time")
	}

	switch event.ResourceType {
	case model.EventOrderNotify, model.EventItemOrderData:
		opts := SyncOptions{ImportBatch: importBatchFromURL(event.ResourceURL)}
		result, err := s.SyncSource(ctx, source, opts)
		if err != nil {
			return nil, err
		}
		return &WebhookOutcome{
			Message: fmt.Sprintf("Orders processed from %s: %d. Created %d, updated %d.",
				source.Name, result.Examined, result.Created, result.Updated),
			Result: result,
		}, nil
	default:
		s.logger.Warn().
			Str("resource_type", event.ResourceType).
			Str("source", source.Name).
			Msg("unhandled webhook resource type")
		return &WebhookOutcome{
			Message: fmt.Sprintf("Unhandled webhook resource type: %s", event.ResourceType),
		}, nil
	}
}

// importBatchFromURL pulls the importBatch parameter out of a webhook's
// resource URL, if present.
func importBatchFromURL(resourceURL string) string {
	if resourceURL == "" {
		return ""
	}
	parsed, err := url.Parse(resourceURL)
	if err != nil {
		return ""
	}
	return parsed.Query().Get("importBatch")
}
