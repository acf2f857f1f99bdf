// Package reconcile contains the pure order-reconciliation logic: deciding,
// for a fetched batch, which orders are new, which only changed status, and
// which to ignore, plus the field derivations for new records. No I/O happens
// here; the sync service feeds it the batch and the existing records and
// executes the resulting plan.
package reconcile

import (
	"encoding/json"
	"strings"
	"time"

	"shipsync/internal/model"
	"shipsync/internal/shipstation"

	"github.com/google/uuid"
)

// dateLayout is the date-only pattern orders carry after normalization.
const dateLayout = "2006-01-02"

// StatusChange records an existing order whose upstream status moved.
type StatusChange struct {
	OrderID     uuid.UUID
	OrderNumber string
	From        string
	To          string
}

// Result is the outcome of planning one batch. Every order in the batch lands
// in exactly one of Creates, Updates, Unchanged or Skipped, so
// Examined == len(Creates) + len(Updates) + Unchanged + Skipped always holds.
type Result struct {
	Examined  int
	Creates   []model.Order
	Updates   []StatusChange
	Unchanged int
	Skipped   int

	// Stores holds the (storeId, storeName) pairs observed in the batch,
	// first occurrence wins, in batch order.
	Stores []model.StoreMapping
}

// Plan partitions a fetched batch against the existing records of one source.
// existing maps order numbers to the records already persisted for the source.
func Plan(source *model.Source, existing map[string]*model.Order, batch []shipstation.Order, now time.Time) Result {
	res := Result{}
	seenStores := make(map[int64]bool)

	for i := range batch {
		order := &batch[i]
		res.Examined++

		storeID := order.AdvancedOptions.StoreID
		if storeID != 0 && !seenStores[storeID] {
			seenStores[storeID] = true
			res.Stores = append(res.Stores, model.StoreMapping{
				StoreID:   storeID,
				StoreName: order.StoreName,
			})
		}

		if current, ok := existing[order.OrderNumber]; ok {
			if current.OrderStatus == order.OrderStatus {
				res.Unchanged++
				continue
			}
			res.Updates = append(res.Updates, StatusChange{
				OrderID:     current.ID,
				OrderNumber: order.OrderNumber,
				From:        current.OrderStatus,
				To:          order.OrderStatus,
			})
			continue
		}

		if len(order.Items) == 0 {
			res.Skipped++
			continue
		}

		res.Creates = append(res.Creates, NewOrder(source, order, now))
	}

	return res
}

// NewOrder derives a local record from an incoming order. The order must have
// at least one item.
func NewOrder(source *model.Source, order *shipstation.Order, now time.Time) model.Order {
	main := MainItem(order.Items)

	quantity := 0
	for _, item := range order.Items {
		quantity += item.Quantity
	}

	shipBy := ""
	if order.OrderStatus != shipstation.StatusCancelled {
		shipBy = NormalizeDate(order.ShipByDate)
	}

	itemDetails, _ := json.Marshal(order.Items)

	return model.Order{
		ID:              uuid.New(),
		SourceID:        source.ID,
		APIID:           main.OrderItemID,
		OrderID:         order.OrderID,
		OrderNumber:     order.OrderNumber,
		OrderStatus:     order.OrderStatus,
		DisplayName:     DisplayName(main, source.Name),
		SKU:             main.SKU,
		Design:          main.SKU,
		ProductName:     main.Name,
		ImageURL:        main.ImageURL,
		OrderDate:       NormalizeDate(order.OrderDate),
		ShipByDate:      shipBy,
		Quantity:        quantity,
		FastShip:        FastShip(order.RequestedShippingService),
		ShippingService: order.RequestedShippingService,
		ShippingAddress: FormatAddress(order.ShipTo),
		CustomerEmail:   order.CustomerEmail,
		CustomerNotes:   order.CustomerNotes,
		Notes:           combineNotes(order.CustomerNotes, order.InternalNotes),
		OrderTotal:      order.OrderTotal,
		AmountPaid:      order.AmountPaid,
		ShippingAmount:  order.ShippingAmount,
		TaxAmount:       order.TaxAmount,
		PaymentMethod:   order.PaymentMethod,
		StoreID:         order.AdvancedOptions.StoreID,
		ItemDetails:     string(itemDetails),
		State:           model.StateAllOrders,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// MainItem picks the representative line item: the first item that is not a
// discount, falling back to the first item when every item is a discount.
func MainItem(items []shipstation.Item) *shipstation.Item {
	for i := range items {
		if items[i].LineItemKey != shipstation.DiscountLineItemKey {
			return &items[i]
		}
	}
	return &items[0]
}

// FastShip reports whether the requested shipping service indicates a rush
// order.
func FastShip(service string) bool {
	s := strings.ToLower(service)
	return strings.Contains(s, "expedited") ||
		strings.Contains(s, "priority") ||
		strings.Contains(s, "express")
}

// NormalizeDate extracts the date portion of an ISO-8601 timestamp and
// re-renders it as YYYY-MM-DD. Anything that does not parse is returned
// unchanged; a bad date never fails an order.
func NormalizeDate(raw string) string {
	if raw == "" {
		return ""
	}

	datePart := raw
	if idx := strings.Index(raw, "T"); idx >= 0 {
		datePart = raw[:idx]
	}

	parsed, err := time.Parse(dateLayout, datePart)
	if err != nil {
		return raw
	}

	return parsed.Format(dateLayout)
}

// FormatAddress renders a shipping destination as display lines, one part per
// line, joining city and state with a comma and omitting empty fields.
func FormatAddress(addr shipstation.Address) string {
	var parts []string
	if addr.Name != "" {
		parts = append(parts, addr.Name)
	}
	if addr.Company != "" {
		parts = append(parts, addr.Company)
	}
	if addr.Street1 != "" {
		parts = append(parts, addr.Street1)
	}
	if addr.Street2 != "" {
		parts = append(parts, addr.Street2)
	}
	if addr.City != "" {
		cityState := addr.City
		if addr.State != "" {
			cityState += ", " + addr.State
		}
		parts = append(parts, cityState)
	}
	if addr.PostalCode != "" {
		parts = append(parts, addr.PostalCode)
	}
	if addr.Country != "" {
		parts = append(parts, addr.Country)
	}
	return strings.Join(parts, "\n")
}

// DisplayName builds the record name from the main item and the source name,
// preferring the SKU and falling back to a truncated product name.
func DisplayName(main *shipstation.Item, sourceName string) string {
	label := main.SKU
	if label == "" {
		label = main.Name
		if runes := []rune(label); len(runes) > 30 {
			label = string(runes[:30])
		}
	}
	return label + " [" + sourceName + "]"
}

// combineNotes merges customer and internal notes into one display field.
func combineNotes(customer, internal string) string {
	notes := customer
	if internal != "" {
		if notes != "" {
			notes += "\n\n"
		}
		notes += "Internal: " + internal
	}
	return notes
}
