package shipstation

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"shipsync/internal/model"

	"github.com/rs/zerolog"
)

// Client defines the operations the sync service needs from ShipStation.
type Client interface {
	// FetchOrders retrieves a page of orders. The raw response body is
	// returned alongside the decoded orders so callers can archive it.
	FetchOrders(ctx context.Context, ordersURL string, creds Credentials, params FetchParams) ([]Order, []byte, error)

	// TestConnection performs a pageSize=1 probe and returns the number of
	// orders seen in the response.
	TestConnection(ctx context.Context, ordersURL string, creds Credentials) (int, error)

	// ListStores retrieves all stores for the account.
	ListStores(ctx context.Context, creds Credentials) ([]Store, error)

	// GetStore retrieves a single store by id. Returns nil without error
	// when the store cannot be found; store lookups are best-effort.
	GetStore(ctx context.Context, creds Credentials, storeID int64) (*Store, error)

	// Subscribe creates a webhook subscription and returns its id.
	Subscribe(ctx context.Context, creds Credentials, req SubscribeRequest) (string, error)

	// Unsubscribe deletes a webhook subscription.
	Unsubscribe(ctx context.Context, creds Credentials, subscriptionID string) error
}

// httpClient implements Client against the ShipStation REST API.
type httpClient struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewClient creates a ShipStation client. baseURL covers the management
// endpoints (stores, webhooks); order fetches go to the per-source orders URL.
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) Client {
	return &httpClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "shipstation-client").Logger(),
	}
}

// authHeader builds the Basic auth header from a key:secret pair.
func authHeader(creds Credentials) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(creds.APIKey+":"+creds.APISecret))
}

// withQuery merges query parameters into rawURL. Per-source order URLs may
// already carry parameters of their own; those are kept.
func withQuery(rawURL string, query url.Values) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid orders url %q: %w", rawURL, err)
	}

	merged := parsed.Query()
	for key, values := range query {
		merged[key] = values
	}
	parsed.RawQuery = merged.Encode()

	return parsed.String(), nil
}

// FetchOrders retrieves a page of orders from the given orders endpoint.
func (c *httpClient) FetchOrders(ctx context.Context, ordersURL string, creds Credentials, params FetchParams) ([]Order, []byte, error) {
	if ordersURL == "" {
		ordersURL = c.baseURL + "/orders"
	}

	query := url.Values{}
	if params.PageSize > 0 {
		query.Set("pageSize", strconv.Itoa(params.PageSize))
	}
	if params.SortBy != "" {
		query.Set("sortBy", params.SortBy)
	}
	if params.SortDir != "" {
		query.Set("sortDir", params.SortDir)
	}
	if params.OrderStatus != "" {
		query.Set("orderStatus", params.OrderStatus)
	}
	if params.ImportBatch != "" {
		query.Set("importBatch", params.ImportBatch)
	}

	c.logger.Info().
		Str("url", ordersURL).
		Str("order_status", params.OrderStatus).
		Str("import_batch", params.ImportBatch).
		Msg("fetching orders")

	requestURL, err := withQuery(ordersURL, query)
	if err != nil {
		return nil, nil, err
	}

	body, err := c.get(ctx, requestURL, creds)
	if err != nil {
		return nil, nil, err
	}

	var decoded ordersResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, nil, fmt.Errorf("failed to decode orders response: %w", err)
	}

	if decoded.Orders == nil {
		c.logger.Error().Str("url", ordersURL).Msg("orders key missing from response")
		return nil, nil, model.ErrMalformedResponse
	}

	c.logger.Info().
		Int("orders", len(*decoded.Orders)).
		Int("total", decoded.Total).
		Msg("orders fetched")

	return *decoded.Orders, body, nil
}

// TestConnection performs a minimal probe against the orders endpoint.
func (c *httpClient) TestConnection(ctx context.Context, ordersURL string, creds Credentials) (int, error) {
	if ordersURL == "" {
		ordersURL = c.baseURL + "/orders"
	}

	probeURL, err := withQuery(ordersURL, url.Values{"pageSize": {"1"}})
	if err != nil {
		return 0, err
	}

	body, err := c.get(ctx, probeURL, creds)
	if err != nil {
		return 0, err
	}

	var decoded ordersResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return 0, fmt.Errorf("failed to decode orders response: %w", err)
	}
	if decoded.Orders == nil {
		return 0, model.ErrMalformedResponse
	}

	return len(*decoded.Orders), nil
}

// ListStores retrieves all stores for the account.
func (c *httpClient) ListStores(ctx context.Context, creds Credentials) ([]Store, error) {
	body, err := c.get(ctx, c.baseURL+"/stores", creds)
	if err != nil {
		return nil, err
	}

	var stores []Store
	if err := json.Unmarshal(body, &stores); err != nil {
		return nil, fmt.Errorf("failed to decode stores response: %w", err)
	}

	return stores, nil
}

// GetStore retrieves a single store by id.
func (c *httpClient) GetStore(ctx context.Context, creds Credentials, storeID int64) (*Store, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/stores/%d", c.baseURL, storeID), creds)
	if err != nil {
		c.logger.Warn().Err(err).Int64("store_id", storeID).Msg("store lookup failed")
		return nil, nil
	}

	var store Store
	if err := json.Unmarshal(body, &store); err != nil {
		c.logger.Warn().Err(err).Int64("store_id", storeID).Msg("failed to decode store response")
		return nil, nil
	}

	return &store, nil
}

// Subscribe creates a webhook subscription.
func (c *httpClient) Subscribe(ctx context.Context, creds Credentials, sub SubscribeRequest) (string, error) {
	payload, err := json.Marshal(sub)
	if err != nil {
		return "", fmt.Errorf("failed to encode subscribe request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/webhooks/subscribe", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build subscribe request: %w", err)
	}
	req.Header.Set("Authorization", authHeader(creds))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to subscribe to webhook: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read subscribe response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("webhook subscription failed with status %d: %s", resp.StatusCode, truncate(string(body), 100))
	}

	var decoded subscribeResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("failed to decode subscribe response: %w", err)
	}

	c.logger.Info().
		Int64("subscription_id", decoded.ID).
		Str("event", sub.Event).
		Msg("webhook subscribed")

	return strconv.FormatInt(decoded.ID, 10), nil
}

// Unsubscribe deletes a webhook subscription.
func (c *httpClient) Unsubscribe(ctx context.Context, creds Credentials, subscriptionID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/webhooks/"+subscriptionID, nil)
	if err != nil {
		return fmt.Errorf("failed to build unsubscribe request: %w", err)
	}
	req.Header.Set("Authorization", authHeader(creds))

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to unsubscribe from webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("webhook unsubscription failed with status %d", resp.StatusCode)
	}

	c.logger.Info().Str("subscription_id", subscriptionID).Msg("webhook unsubscribed")

	return nil
}

// get performs an authenticated GET and returns the body for 200 responses.
func (c *httpClient) get(ctx context.Context, rawURL string, creds Credentials) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", authHeader(creds))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ShipStation API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("could not connect to API endpoint: status %d", resp.StatusCode)
	}

	return body, nil
}

// truncate shortens s for log and error messages.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
