package repository

import (
	"context"
	"testing"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL testcontainer and returns a connection pool.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	ctx := context.Background()

	// Start PostgreSQL container
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	// Get connection string
	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Create connection pool with the decimal codec the app pool registers
	poolConfig, err := pgxpool.ParseConfig(connStr)
	require.NoError(t, err)
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	require.NoError(t, err)

	// Create schema
	createSchema(t, pool)

	// Cleanup function
	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// createSchema creates the necessary database schema for testing.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	ctx := context.Background()

	schema := `
		CREATE TABLE IF NOT EXISTS sources (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			sequence INTEGER NOT NULL DEFAULT 10,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			description TEXT NOT NULL DEFAULT '',
			source_identifier VARCHAR(100) NOT NULL,
			api_key VARCHAR(255) NOT NULL DEFAULT '',
			api_secret VARCHAR(255) NOT NULL DEFAULT '',
			api_url VARCHAR(500) NOT NULL DEFAULT '',
			store_mappings JSONB NOT NULL DEFAULT '[]',
			webhook_url VARCHAR(500) NOT NULL DEFAULT '',
			webhook_event VARCHAR(50) NOT NULL DEFAULT 'ORDER_NOTIFY',
			webhook_store_id VARCHAR(50) NOT NULL DEFAULT '',
			webhook_friendly_name VARCHAR(255) NOT NULL DEFAULT '',
			webhook_status VARCHAR(20) NOT NULL DEFAULT 'not_setup',
			webhook_subscription_id VARCHAR(50),
			api_status VARCHAR(20) NOT NULL DEFAULT 'not_tested',
			api_status_message TEXT NOT NULL DEFAULT '',
			orders_count INTEGER NOT NULL DEFAULT 0,
			last_fetch_at TIMESTAMPTZ,
			last_webhook_at TIMESTAMPTZ,
			last_updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT sources_identifier_unique UNIQUE (source_identifier)
		);

		CREATE TABLE IF NOT EXISTS orders (
			id UUID PRIMARY KEY,
			source_id UUID NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
			api_id BIGINT NOT NULL DEFAULT 0,
			ship_order_id BIGINT NOT NULL DEFAULT 0,
			order_number VARCHAR(100) NOT NULL,
			order_status VARCHAR(50) NOT NULL DEFAULT '',
			display_name VARCHAR(255) NOT NULL DEFAULT '',
			sku VARCHAR(100) NOT NULL DEFAULT '',
			design VARCHAR(255) NOT NULL DEFAULT '',
			product_name TEXT NOT NULL DEFAULT '',
			image_url VARCHAR(1000) NOT NULL DEFAULT '',
			order_date VARCHAR(50) NOT NULL DEFAULT '',
			ship_by_date VARCHAR(50) NOT NULL DEFAULT '',
			quantity INTEGER NOT NULL DEFAULT 0,
			fast_ship BOOLEAN NOT NULL DEFAULT FALSE,
			shipping_service VARCHAR(255) NOT NULL DEFAULT '',
			shipping_address TEXT NOT NULL DEFAULT '',
			customer_email VARCHAR(255) NOT NULL DEFAULT '',
			customer_notes TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			order_total DECIMAL(12, 2) NOT NULL DEFAULT 0,
			amount_paid DECIMAL(12, 2) NOT NULL DEFAULT 0,
			shipping_amount DECIMAL(12, 2) NOT NULL DEFAULT 0,
			tax_amount DECIMAL(12, 2) NOT NULL DEFAULT 0,
			payment_method VARCHAR(100) NOT NULL DEFAULT '',
			store_id BIGINT NOT NULL DEFAULT 0,
			item_details TEXT NOT NULL DEFAULT '',
			state VARCHAR(20) NOT NULL DEFAULT 'all_orders',
			designer VARCHAR(255),
			assignment_date TIMESTAMPTZ,
			completion_date TIMESTAMPTZ,
			turnaround_hours DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT orders_source_number_unique UNIQUE (source_id, order_number)
		);

		CREATE INDEX IF NOT EXISTS orders_source_idx ON orders (source_id);
		CREATE INDEX IF NOT EXISTS orders_state_idx ON orders (state);
		CREATE INDEX IF NOT EXISTS orders_designer_idx ON orders (designer);
		CREATE INDEX IF NOT EXISTS orders_status_idx ON orders (order_status);
	`

	_, err := pool.Exec(ctx, schema)
	require.NoError(t, err)
}
