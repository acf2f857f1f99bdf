// Package shipstation implements the outbound ShipStation REST client: order
// fetching, store lookups and webhook subscription management. All calls are
// authenticated with a per-source key/secret pair via HTTP Basic auth.
package shipstation

import "github.com/shopspring/decimal"

// LineItemKey value ShipStation uses for discount pseudo-items.
const DiscountLineItemKey = "Discount"

// Order statuses used by the sync logic. ShipStation reports more statuses
// than these; they pass through untouched.
const (
	StatusAwaitingShipment = "awaiting_shipment"
	StatusShipped          = "shipped"
	StatusCancelled        = "cancelled"
)

// Credentials is a per-source API key/secret pair.
type Credentials struct {
	APIKey    string
	APISecret string
}

// Order is a single order as returned by the ShipStation orders endpoint.
// Only the fields the sync process reads are declared; unknown keys are
// dropped at decode time.
type Order struct {
	OrderID                  int64           `json:"orderId"`
	OrderNumber              string          `json:"orderNumber"`
	OrderStatus              string          `json:"orderStatus"`
	OrderDate                string          `json:"orderDate"`
	ShipByDate               string          `json:"shipByDate"`
	CustomerEmail            string          `json:"customerEmail"`
	CustomerNotes            string          `json:"customerNotes"`
	InternalNotes            string          `json:"internalNotes"`
	RequestedShippingService string          `json:"requestedShippingService"`
	PaymentMethod            string          `json:"paymentMethod"`
	OrderTotal               decimal.Decimal `json:"orderTotal"`
	AmountPaid               decimal.Decimal `json:"amountPaid"`
	ShippingAmount           decimal.Decimal `json:"shippingAmount"`
	TaxAmount                decimal.Decimal `json:"taxAmount"`
	StoreName                string          `json:"storeName"`
	AdvancedOptions          AdvancedOptions `json:"advancedOptions"`
	ShipTo                   Address         `json:"shipTo"`
	Items                    []Item          `json:"items"`
}

// AdvancedOptions carries the store the order belongs to.
type AdvancedOptions struct {
	StoreID int64 `json:"storeId"`
}

// Address is a shipping destination.
type Address struct {
	Name       string `json:"name"`
	Company    string `json:"company"`
	Street1    string `json:"street1"`
	Street2    string `json:"street2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Item is a single order line item.
type Item struct {
	OrderItemID int64           `json:"orderItemId"`
	LineItemKey string          `json:"lineItemKey"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	ImageURL    string          `json:"imageUrl"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Options     []ItemOption    `json:"options"`
}

// ItemOption is a name/value customisation on a line item.
type ItemOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Store is a ShipStation storefront.
type Store struct {
	StoreID   int64  `json:"storeId"`
	StoreName string `json:"storeName"`
}

// FetchParams are the query parameters for an orders fetch.
type FetchParams struct {
	PageSize    int
	SortBy      string
	SortDir     string
	OrderStatus string // empty means no status filter
	ImportBatch string // empty means no batch filter
}

// DefaultFetchParams returns the parameters used for a routine sync pass.
func DefaultFetchParams() FetchParams {
	return FetchParams{
		PageSize:    500,
		SortBy:      "OrderDate",
		SortDir:     "DESC",
		OrderStatus: StatusAwaitingShipment,
	}
}

// SubscribeRequest describes a webhook subscription.
type SubscribeRequest struct {
	TargetURL    string `json:"target_url"`
	Event        string `json:"event"`
	StoreID      string `json:"store_id,omitempty"`
	FriendlyName string `json:"friendly_name"`
}

// ordersResponse is the top-level shape of the orders endpoint. A missing
// orders key marks a malformed response, distinct from an empty page.
type ordersResponse struct {
	Orders *[]Order `json:"orders"`
	Total  int      `json:"total"`
	Page   int      `json:"page"`
	Pages  int      `json:"pages"`
}

// subscribeResponse is the body returned when a webhook is created.
type subscribeResponse struct {
	ID int64 `json:"id"`
}
