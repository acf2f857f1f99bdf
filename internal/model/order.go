package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Workflow states for an order record.
const (
	StateAllOrders  = "all_orders"
	StateProcessing = "processing"
	StateApproving  = "approving"
	StateDone       = "done"
)

// ValidState reports whether s is a known workflow state.
func ValidState(s string) bool {
	switch s {
	case StateAllOrders, StateProcessing, StateApproving, StateDone:
		return true
	}
	return false
}

// Order is the locally persisted projection of a ShipStation order, scoped to
// the source it was fetched from. At most one Order exists per
// (source, order number) pair; after creation only the order status is ever
// rewritten by the sync process.
type Order struct {
	ID       uuid.UUID `json:"id" db:"id"`
	SourceID uuid.UUID `json:"sourceId" db:"source_id"`

	APIID       int64  `json:"apiId" db:"api_id"`
	OrderID     int64  `json:"orderId" db:"ship_order_id"`
	OrderNumber string `json:"orderNumber" db:"order_number"`
	OrderStatus string `json:"orderStatus" db:"order_status"`

	DisplayName string `json:"displayName" db:"display_name"`
	SKU         string `json:"sku" db:"sku"`
	Design      string `json:"design" db:"design"`
	ProductName string `json:"productName" db:"product_name"`
	ImageURL    string `json:"imageUrl,omitempty" db:"image_url"`

	// Date-only strings; when the upstream value cannot be parsed the raw
	// string is kept as-is.
	OrderDate  string `json:"orderDate,omitempty" db:"order_date"`
	ShipByDate string `json:"shipByDate,omitempty" db:"ship_by_date"`

	Quantity        int    `json:"quantity" db:"quantity"`
	FastShip        bool   `json:"fastShip" db:"fast_ship"`
	ShippingService string `json:"shippingService,omitempty" db:"shipping_service"`
	ShippingAddress string `json:"shippingAddress,omitempty" db:"shipping_address"`

	CustomerEmail string `json:"customerEmail,omitempty" db:"customer_email"`
	CustomerNotes string `json:"customerNotes,omitempty" db:"customer_notes"`
	Notes         string `json:"notes,omitempty" db:"notes"`

	OrderTotal     decimal.Decimal `json:"orderTotal" db:"order_total"`
	AmountPaid     decimal.Decimal `json:"amountPaid" db:"amount_paid"`
	ShippingAmount decimal.Decimal `json:"shippingAmount" db:"shipping_amount"`
	TaxAmount      decimal.Decimal `json:"taxAmount" db:"tax_amount"`
	PaymentMethod  string          `json:"paymentMethod,omitempty" db:"payment_method"`

	StoreID     int64  `json:"storeId" db:"store_id"`
	ItemDetails string `json:"itemDetails,omitempty" db:"item_details"`

	State           string     `json:"state" db:"state"`
	Designer        *string    `json:"designer,omitempty" db:"designer"`
	AssignmentDate  *time.Time `json:"assignmentDate,omitempty" db:"assignment_date"`
	CompletionDate  *time.Time `json:"completionDate,omitempty" db:"completion_date"`
	TurnaroundHours *float64   `json:"turnaroundHours,omitempty" db:"turnaround_hours"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	SourceID    *uuid.UUID
	State       string
	Designer    string
	OrderStatus string
	Limit       int
	Offset      int
}

// AssignRequest is the payload for assigning a designer to an order.
type AssignRequest struct {
	Designer string `json:"designer"`
}

// StateRequest is the payload for moving an order to a new workflow state.
type StateRequest struct {
	State string `json:"state"`
}
