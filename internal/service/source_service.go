package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shipsync/internal/model"
	"shipsync/internal/reconcile"
	"shipsync/internal/repository"
	"shipsync/internal/shipstation"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// sourceService implements SourceService.
type sourceService struct {
	sourceRepo repository.SourceRepository
	client     shipstation.Client
	logger     zerolog.Logger
}

// NewSourceService creates a new source service.
func NewSourceService(
	sourceRepo repository.SourceRepository,
	client shipstation.Client,
	logger zerolog.Logger,
) SourceService {
	return &sourceService{
		sourceRepo: sourceRepo,
		client:     client,
		logger:     logger.With().Str("service", "source").Logger(),
	}
}

// Create registers a new source.
func (s *sourceService) Create(ctx context.Context, req *model.SourceRequest) (*model.Source, error) {
	if err := validateSourceRequest(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	source := &model.Source{
		ID:                  uuid.New(),
		Name:                req.Name,
		Sequence:            req.Sequence,
		Active:              true,
		Description:         req.Description,
		SourceIdentifier:    req.SourceIdentifier,
		APIKey:              req.APIKey,
		APISecret:           req.APISecret,
		APIURL:              req.APIURL,
		StoreMappings:       []model.StoreMapping{},
		WebhookURL:          req.WebhookURL,
		WebhookEvent:        req.WebhookEvent,
		WebhookStoreID:      req.WebhookStoreID,
		WebhookFriendlyName: req.WebhookFriendlyName,
		WebhookStatus:       model.WebhookNotSetup,
		APIStatus:           model.APINotTested,
		LastUpdatedAt:       now,
		CreatedAt:           now,
	}

	if source.Sequence == 0 {
		source.Sequence = 10
	}
	if req.Active != nil {
		source.Active = *req.Active
	}
	if source.WebhookEvent == "" {
		source.WebhookEvent = model.EventOrderNotify
	}

	if err := s.sourceRepo.Create(ctx, source); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("source_id", source.ID.String()).
		Str("source_identifier", source.SourceIdentifier).
		Msg("source created")

	return source, nil
}

// Update rewrites an existing source's configuration.
func (s *sourceService) Update(ctx context.Context, id uuid.UUID, req *model.SourceRequest) (*model.Source, error) {
	source, err := s.sourceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, model.ErrSourceNotFound
	}

	if req.Name != "" {
		source.Name = req.Name
	}
	if req.Sequence != 0 {
		source.Sequence = req.Sequence
	}
	if req.Active != nil {
		source.Active = *req.Active
	}
	if req.Description != "" {
		source.Description = req.Description
	}
	if req.APIKey != "" {
		source.APIKey = req.APIKey
	}
	if req.APISecret != "" {
		source.APISecret = req.APISecret
	}
	if req.APIURL != "" {
		source.APIURL = req.APIURL
	}
	if req.WebhookURL != "" {
		source.WebhookURL = req.WebhookURL
	}
	if req.WebhookEvent != "" {
		source.WebhookEvent = req.WebhookEvent
	}
	if req.WebhookStoreID != "" {
		source.WebhookStoreID = req.WebhookStoreID
	}
	if req.WebhookFriendlyName != "" {
		source.WebhookFriendlyName = req.WebhookFriendlyName
	}

	if err := s.sourceRepo.Update(ctx, source); err != nil {
		return nil, err
	}

	return source, nil
}

// Delete removes a source and its orders.
func (s *sourceService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.sourceRepo.Delete(ctx, id)
}

// Get retrieves a source by id.
func (s *sourceService) Get(ctx context.Context, id uuid.UUID) (*model.Source, error) {
	return s.sourceRepo.GetByID(ctx, id)
}

// List retrieves all sources.
func (s *sourceService) List(ctx context.Context) ([]model.Source, error) {
	return s.sourceRepo.List(ctx)
}

// Test probes the source's API credentials and records the outcome.
func (s *sourceService) Test(ctx context.Context, id uuid.UUID) (*TestResult, error) {
	source, err := s.sourceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, model.ErrSourceNotFound
	}
	if !source.HasCredentials() {
		if err := s.sourceRepo.UpdateAPIStatus(ctx, source.ID, model.APIFailed, "Missing API credentials or URL"); err != nil {
			s.logger.Error().Err(err).Str("source", source.Name).Msg("failed to record API status")
		}
		return nil, model.ErrMissingCredentials
	}

	creds := shipstation.Credentials{APIKey: source.APIKey, APISecret: source.APISecret}

	count, err := s.client.TestConnection(ctx, source.APIURL, creds)
	if err != nil {
		if stErr := s.sourceRepo.UpdateAPIStatus(ctx, source.ID, model.APIFailed, err.Error()); stErr != nil {
			s.logger.Error().Err(stErr).Str("source", source.Name).Msg("failed to record API status")
		}
		return nil, fmt.Errorf("connection test failed for source %s: %w", source.Name, err)
	}

	message := fmt.Sprintf("Connection successful. Found %d orders in test response.", count)
	if err := s.sourceRepo.UpdateAPIStatus(ctx, source.ID, model.APISuccess, message); err != nil {
		s.logger.Error().Err(err).Str("source", source.Name).Msg("failed to record API status")
	}

	s.logger.Info().Str("source", source.Name).Int("orders", count).Msg("connection test succeeded")

	return &TestResult{OrderCount: count, Message: message}, nil
}

// RefreshStores replaces the source's store mappings from the stores API,
// assigning each store its deterministic color.
func (s *sourceService) RefreshStores(ctx context.Context, id uuid.UUID) (int, error) {
	source, err := s.sourceRepo.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if source == nil {
		return 0, model.ErrSourceNotFound
	}
	if !source.HasCredentials() {
		return 0, model.ErrMissingCredentials
	}

	creds := shipstation.Credentials{APIKey: source.APIKey, APISecret: source.APISecret}

	stores, err := s.client.ListStores(ctx, creds)
	if err != nil {
		return 0, fmt.Errorf("store fetch failed for source %s: %w", source.Name, err)
	}

	mappings := make([]model.StoreMapping, 0, len(stores))
	for _, store := range stores {
		mappings = append(mappings, model.StoreMapping{
			StoreID:   store.StoreID,
			StoreName: store.StoreName,
			Color:     reconcile.StoreColor(store.StoreID),
		})
	}

	if err := s.sourceRepo.UpdateStoreMappings(ctx, source.ID, mappings); err != nil {
		return 0, err
	}

	s.logger.Info().Str("source", source.Name).Int("stores", len(mappings)).Msg("store mappings refreshed")

	return len(mappings), nil
}

// SubscribeWebhook subscribes the source to its configured event, pointing
// ShipStation at the source-specific webhook URL.
func (s *sourceService) SubscribeWebhook(ctx context.Context, id uuid.UUID) (*model.Source, error) {
	source, err := s.sourceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, model.ErrSourceNotFound
	}
	if !source.HasCredentials() {
		return nil, model.ErrMissingCredentials
	}
	if source.WebhookURL == "" {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "Webhook target URL is required")
	}

	creds := shipstation.Credentials{APIKey: source.APIKey, APISecret: source.APISecret}

	targetURL := strings.TrimRight(source.WebhookURL, "/") + "/" + source.SourceIdentifier

	friendlyName := source.WebhookFriendlyName
	if friendlyName == "" {
		friendlyName = "shipsync webhook - " + source.Name
	}

	subscriptionID, err := s.client.Subscribe(ctx, creds, shipstation.SubscribeRequest{
		TargetURL:    targetURL,
		Event:        source.WebhookEvent,
		StoreID:      source.WebhookStoreID,
		FriendlyName: friendlyName,
	})
	if err != nil {
		if stErr := s.sourceRepo.UpdateWebhookStatus(ctx, source.ID, model.WebhookFailed, nil, ""); stErr != nil {
			s.logger.Error().Err(stErr).Str("source", source.Name).Msg("failed to record webhook failure")
		}
		return nil, fmt.Errorf("webhook subscription failed for source %s: %w", source.Name, err)
	}

	if err := s.sourceRepo.UpdateWebhookStatus(ctx, source.ID, model.WebhookActive, &subscriptionID, targetURL); err != nil {
		return nil, err
	}

	source.WebhookStatus = model.WebhookActive
	source.WebhookSubscriptionID = &subscriptionID
	source.WebhookURL = targetURL

	s.logger.Info().
		Str("source", source.Name).
		Str("subscription_id", subscriptionID).
		Str("event", source.WebhookEvent).
		Msg("webhook subscribed")

	return source, nil
}

// UnsubscribeWebhook drops the source's webhook subscription. Without a
// stored subscription id the local state is simply reset.
func (s *sourceService) UnsubscribeWebhook(ctx context.Context, id uuid.UUID) (*model.Source, error) {
	source, err := s.sourceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, model.ErrSourceNotFound
	}

	if source.WebhookSubscriptionID != nil {
		if !source.HasCredentials() {
			return nil, model.ErrMissingCredentials
		}
		creds := shipstation.Credentials{APIKey: source.APIKey, APISecret: source.APISecret}
		if err := s.client.Unsubscribe(ctx, creds, *source.WebhookSubscriptionID); err != nil {
			return nil, fmt.Errorf("webhook unsubscription failed for source %s: %w", source.Name, err)
		}
	}

	if err := s.sourceRepo.UpdateWebhookStatus(ctx, source.ID, model.WebhookNotSetup, nil, ""); err != nil {
		return nil, err
	}

	source.WebhookStatus = model.WebhookNotSetup
	source.WebhookSubscriptionID = nil

	s.logger.Info().Str("source", source.Name).Msg("webhook unsubscribed")

	return source, nil
}

// validateSourceRequest checks the fields required to create a source.
func validateSourceRequest(req *model.SourceRequest) error {
	if req == nil {
		return fmt.Errorf("source request is nil")
	}
	if req.Name == "" {
		return fmt.Errorf("source name is required")
	}
	if req.SourceIdentifier == "" {
		return fmt.Errorf("source identifier is required")
	}
	if req.APIKey == "" || req.APISecret == "" {
		return model.ErrMissingCredentials
	}
	return nil
}
