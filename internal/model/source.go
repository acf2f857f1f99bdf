package model

import (
	"time"

	"github.com/google/uuid"
)

// Webhook subscription states for a source.
const (
	WebhookNotSetup = "not_setup"
	WebhookActive   = "active"
	WebhookFailed   = "failed"
)

// API connection states for a source.
const (
	APINotTested = "not_tested"
	APISuccess   = "success"
	APIFailed    = "failed"
)

// ShipStation webhook event types a source can subscribe to.
const (
	EventOrderNotify   = "ORDER_NOTIFY"
	EventItemOrderData = "ITEM_ORDER_DATA"
	EventShipNotify    = "SHIP_NOTIFY"
)

// Source is a configured ShipStation account that orders are fetched from.
// Each source carries its own credentials, webhook subscription state and a
// cached list of store mappings observed in its orders.
type Source struct {
	ID               uuid.UUID `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	Sequence         int       `json:"sequence" db:"sequence"`
	Active           bool      `json:"active" db:"active"`
	Description      string    `json:"description,omitempty" db:"description"`
	SourceIdentifier string    `json:"sourceIdentifier" db:"source_identifier"`

	APIKey    string `json:"-" db:"api_key"`
	APISecret string `json:"-" db:"api_secret"`
	APIURL    string `json:"apiUrl" db:"api_url"`

	StoreMappings []StoreMapping `json:"storeMappings" db:"store_mappings"`

	WebhookURL            string  `json:"webhookUrl,omitempty" db:"webhook_url"`
	WebhookEvent          string  `json:"webhookEvent" db:"webhook_event"`
	WebhookStoreID        string  `json:"webhookStoreId,omitempty" db:"webhook_store_id"`
	WebhookFriendlyName   string  `json:"webhookFriendlyName,omitempty" db:"webhook_friendly_name"`
	WebhookStatus         string  `json:"webhookStatus" db:"webhook_status"`
	WebhookSubscriptionID *string `json:"webhookSubscriptionId,omitempty" db:"webhook_subscription_id"`

	APIStatus        string `json:"apiStatus" db:"api_status"`
	APIStatusMessage string `json:"apiStatusMessage,omitempty" db:"api_status_message"`

	OrdersCount   int        `json:"ordersCount" db:"orders_count"`
	LastFetchAt   *time.Time `json:"lastFetchAt,omitempty" db:"last_fetch_at"`
	LastWebhookAt *time.Time `json:"lastWebhookAt,omitempty" db:"last_webhook_at"`
	LastUpdatedAt time.Time  `json:"lastUpdatedAt" db:"last_updated_at"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
}

// HasCredentials reports whether the source carries a usable key/secret pair.
func (s *Source) HasCredentials() bool {
	return s.APIKey != "" && s.APISecret != ""
}

// StoreMapping is one entry in a source's cached store list: a ShipStation
// store id with its human-readable name and a derived display color.
type StoreMapping struct {
	StoreID   int64  `json:"storeId"`
	StoreName string `json:"storeName"`
	Color     string `json:"color,omitempty"`
}

// SourceRequest is the payload for creating or updating a source.
type SourceRequest struct {
	Name                string `json:"name"`
	Sequence            int    `json:"sequence"`
	Active              *bool  `json:"active,omitempty"`
	Description         string `json:"description"`
	SourceIdentifier    string `json:"sourceIdentifier"`
	APIKey              string `json:"apiKey"`
	APISecret           string `json:"apiSecret"`
	APIURL              string `json:"apiUrl"`
	WebhookURL          string `json:"webhookUrl"`
	WebhookEvent        string `json:"webhookEvent"`
	WebhookStoreID      string `json:"webhookStoreId"`
	WebhookFriendlyName string `json:"webhookFriendlyName"`
}
