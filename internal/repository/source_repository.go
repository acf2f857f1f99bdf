package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shipsync/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// uniqueViolation is the PostgreSQL error code for unique constraint failures.
const uniqueViolation = "23505"

const sourceColumns = `
	id, name, sequence, active, description, source_identifier,
	api_key, api_secret, api_url, store_mappings,
	webhook_url, webhook_event, webhook_store_id, webhook_friendly_name,
	webhook_status, webhook_subscription_id,
	api_status, api_status_message, orders_count,
	last_fetch_at, last_webhook_at, last_updated_at, created_at`

// sourceRepository implements SourceRepository using PostgreSQL.
type sourceRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewSourceRepository creates a new PostgreSQL-backed source repository.
func NewSourceRepository(pool *pgxpool.Pool, logger zerolog.Logger) SourceRepository {
	return &sourceRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "source").Logger(),
	}
}

// Create inserts a new source.
func (r *sourceRepository) Create(ctx context.Context, source *model.Source) error {
	query := `
		INSERT INTO sources (
			id, name, sequence, active, description, source_identifier,
			api_key, api_secret, api_url, store_mappings,
			webhook_url, webhook_event, webhook_store_id, webhook_friendly_name,
			webhook_status, webhook_subscription_id,
			api_status, api_status_message, orders_count,
			last_updated_at, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	_, err := r.pool.Exec(ctx, query,
		source.ID, source.Name, source.Sequence, source.Active, source.Description, source.SourceIdentifier,
		source.APIKey, source.APISecret, source.APIURL, source.StoreMappings,
		source.WebhookURL, source.WebhookEvent, source.WebhookStoreID, source.WebhookFriendlyName,
		source.WebhookStatus, source.WebhookSubscriptionID,
		source.APIStatus, source.APIStatusMessage, source.OrdersCount,
		source.LastUpdatedAt, source.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			r.logger.Warn().
				Str("source_identifier", source.SourceIdentifier).
				Msg("source identifier already exists")
			return model.ErrDuplicateSource
		}
		r.logger.Error().Err(err).Str("source_identifier", source.SourceIdentifier).Msg("failed to create source")
		return fmt.Errorf("failed to create source: %w", err)
	}

	r.logger.Debug().
		Str("source_id", source.ID.String()).
		Str("source_identifier", source.SourceIdentifier).
		Msg("source created")

	return nil
}

// Update rewrites a source's editable fields.
func (r *sourceRepository) Update(ctx context.Context, source *model.Source) error {
	query := `
		UPDATE sources SET
			name = $2, sequence = $3, active = $4, description = $5,
			api_key = $6, api_secret = $7, api_url = $8,
			webhook_url = $9, webhook_event = $10, webhook_store_id = $11, webhook_friendly_name = $12,
			last_updated_at = $13
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		source.ID, source.Name, source.Sequence, source.Active, source.Description,
		source.APIKey, source.APISecret, source.APIURL,
		source.WebhookURL, source.WebhookEvent, source.WebhookStoreID, source.WebhookFriendlyName,
		time.Now().UTC(),
	)
	if err != nil {
		r.logger.Error().Err(err).Str("source_id", source.ID.String()).Msg("failed to update source")
		return fmt.Errorf("failed to update source: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrSourceNotFound
	}

	return nil
}

// Delete removes a source; orders cascade at the schema level.
func (r *sourceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sources WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("source_id", id.String()).Msg("failed to delete source")
		return fmt.Errorf("failed to delete source: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrSourceNotFound
	}

	r.logger.Info().Str("source_id", id.String()).Msg("source deleted")
	return nil
}

// GetByID retrieves a source by id.
func (r *sourceRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Source, error) {
	query := `SELECT` + sourceColumns + ` FROM sources WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

// GetByIdentifier retrieves a source by its unique identifier.
func (r *sourceRepository) GetByIdentifier(ctx context.Context, identifier string, activeOnly bool) (*model.Source, error) {
	query := `SELECT` + sourceColumns + ` FROM sources WHERE source_identifier = $1`
	if activeOnly {
		query += ` AND active`
	}
	return r.scanOne(ctx, query, identifier)
}

// List retrieves all sources ordered by sequence.
func (r *sourceRepository) List(ctx context.Context) ([]model.Source, error) {
	return r.scanMany(ctx, `SELECT`+sourceColumns+` FROM sources ORDER BY sequence, created_at`)
}

// ListActive retrieves active sources ordered by sequence.
func (r *sourceRepository) ListActive(ctx context.Context) ([]model.Source, error) {
	return r.scanMany(ctx, `SELECT`+sourceColumns+` FROM sources WHERE active ORDER BY sequence, created_at`)
}

// TouchFetch stamps the last successful API fetch time.
func (r *sourceRepository) TouchFetch(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sources SET last_fetch_at = $2, last_updated_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to record fetch time: %w", err)
	}
	return nil
}

// TouchWebhook stamps the last webhook trigger time.
func (r *sourceRepository) TouchWebhook(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sources SET last_webhook_at = $2, last_updated_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to record webhook time: %w", err)
	}
	return nil
}

// IncrementOrdersCount bumps the number of orders fetched from a source.
func (r *sourceRepository) IncrementOrdersCount(ctx context.Context, id uuid.UUID, n int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sources SET orders_count = orders_count + $2, last_updated_at = $3 WHERE id = $1`,
		id, n, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to increment orders count: %w", err)
	}
	return nil
}

// UpdateStoreMappings replaces a source's cached store mapping list.
func (r *sourceRepository) UpdateStoreMappings(ctx context.Context, id uuid.UUID, mappings []model.StoreMapping) error {
	if mappings == nil {
		mappings = []model.StoreMapping{}
	}

	_, err := r.pool.Exec(ctx,
		`UPDATE sources SET store_mappings = $2, last_updated_at = $3 WHERE id = $1`,
		id, mappings, time.Now().UTC())
	if err != nil {
		r.logger.Error().Err(err).Str("source_id", id.String()).Msg("failed to update store mappings")
		return fmt.Errorf("failed to update store mappings: %w", err)
	}

	r.logger.Debug().
		Str("source_id", id.String()).
		Int("stores", len(mappings)).
		Msg("store mappings updated")

	return nil
}

// UpdateWebhookStatus records the webhook subscription state.
func (r *sourceRepository) UpdateWebhookStatus(ctx context.Context, id uuid.UUID, status string, subscriptionID *string, webhookURL string) error {
	query := `
		UPDATE sources SET
			webhook_status = $2,
			webhook_subscription_id = $3,
			webhook_url = CASE WHEN $4 = '' THEN webhook_url ELSE $4 END,
			last_updated_at = $5
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query, id, status, subscriptionID, webhookURL, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update webhook status: %w", err)
	}
	return nil
}

// UpdateAPIStatus records the outcome of the last API interaction.
func (r *sourceRepository) UpdateAPIStatus(ctx context.Context, id uuid.UUID, status, message string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sources SET api_status = $2, api_status_message = $3, last_updated_at = $4 WHERE id = $1`,
		id, status, message, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update API status: %w", err)
	}
	return nil
}

// scanOne runs a single-row source query.
func (r *sourceRepository) scanOne(ctx context.Context, query string, args ...any) (*model.Source, error) {
	var s model.Source
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&s.ID, &s.Name, &s.Sequence, &s.Active, &s.Description, &s.SourceIdentifier,
		&s.APIKey, &s.APISecret, &s.APIURL, &s.StoreMappings,
		&s.WebhookURL, &s.WebhookEvent, &s.WebhookStoreID, &s.WebhookFriendlyName,
		&s.WebhookStatus, &s.WebhookSubscriptionID,
		&s.APIStatus, &s.APIStatusMessage, &s.OrdersCount,
		&s.LastFetchAt, &s.LastWebhookAt, &s.LastUpdatedAt, &s.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query source")
		return nil, fmt.Errorf("failed to query source: %w", err)
	}
	return &s, nil
}

// scanMany runs a multi-row source query.
func (r *sourceRepository) scanMany(ctx context.Context, query string, args ...any) ([]model.Source, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query sources")
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	var sources []model.Source
	for rows.Next() {
		var s model.Source
		err := rows.Scan(
			&s.ID, &s.Name, &s.Sequence, &s.Active, &s.Description, &s.SourceIdentifier,
			&s.APIKey, &s.APISecret, &s.APIURL, &s.StoreMappings,
			&s.WebhookURL, &s.WebhookEvent, &s.WebhookStoreID, &s.WebhookFriendlyName,
			&s.WebhookStatus, &s.WebhookSubscriptionID,
			&s.APIStatus, &s.APIStatusMessage, &s.OrdersCount,
			&s.LastFetchAt, &s.LastWebhookAt, &s.LastUpdatedAt, &s.CreatedAt,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan source row")
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, s)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating source rows")
		return nil, fmt.Errorf("error iterating sources: %w", err)
	}

	return sources, nil
}
