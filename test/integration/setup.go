package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"shipsync/internal/model"
	"shipsync/internal/shipstation"

	"github.com/google/uuid"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container and connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	// Get connection string
	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	// Create connection pool with the same decimal codec the app pool uses
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	// Create schema
	createSchema(t, pool)

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// createSchema creates the database schema for testing.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

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
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
}

// SeedSource inserts a ready-to-sync source and returns it.
func SeedSource(t *testing.T, pool *pgxpool.Pool, identifier string) *model.Source {
	t.Helper()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	source := &model.Source{
		ID:               uuid.New(),
		Name:             "Source " + identifier,
		Sequence:         10,
		Active:           true,
		SourceIdentifier: identifier,
		APIKey:           "test-key",
		APISecret:        "test-secret",
		StoreMappings:    []model.StoreMapping{},
		WebhookEvent:     model.EventOrderNotify,
		WebhookStatus:    model.WebhookNotSetup,
		APIStatus:        model.APINotTested,
		LastUpdatedAt:    now,
		CreatedAt:        now,
	}

	_, err := pool.Exec(ctx, `
		INSERT INTO sources (
			id, name, sequence, active, source_identifier,
			api_key, api_secret, store_mappings,
			webhook_event, webhook_status, api_status,
			last_updated_at, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		source.ID, source.Name, source.Sequence, source.Active, source.SourceIdentifier,
		source.APIKey, source.APISecret, source.StoreMappings,
		source.WebhookEvent, source.WebhookStatus, source.APIStatus,
		source.LastUpdatedAt, source.CreatedAt,
	)
	if err != nil {
		t.Fatalf("failed to seed source %s: %v", identifier, err)
	}

	return source
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"orders", "sources"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}

// FakeShipStation is a stand-in for the ShipStation REST API. Tests mutate
// Orders between requests to simulate upstream changes.
type FakeShipStation struct {
	Server *httptest.Server
	Orders []shipstation.Order
	Stores []shipstation.Store
}

// NewFakeShipStation starts an httptest server answering the endpoints the
// sync pipeline touches.
func NewFakeShipStation(t *testing.T) *FakeShipStation {
	t.Helper()

	fake := &FakeShipStation{}

	mux := http.NewServeMux()
	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"orders": fake.Orders,
			"total":  len(fake.Orders),
			"page":   1,
			"pages":  1,
		})
	})
	mux.HandleFunc("/stores", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(fake.Stores)
	})
	mux.HandleFunc("/stores/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/stores/")
		for _, store := range fake.Stores {
			if strconv.FormatInt(store.StoreID, 10) == id {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(store)
				return
			}
		}
		http.NotFound(w, r)
	})
	mux.HandleFunc("/webhooks/subscribe", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]int64{"id": 9001})
	})

	fake.Server = httptest.NewServer(mux)
	t.Cleanup(fake.Server.Close)

	return fake
}
